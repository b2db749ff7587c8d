/*
Copyright © 2026 the pismtools authors.
This file is part of pismtools.

pismtools is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

pismtools is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with pismtools.  If not, see <http://www.gnu.org/licenses/>.*/

// Command pismtools is a command-line interface for the PISM support
// utilities.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spatialmodel/pismtools/pismutil"
)

func main() {
	if err := pismutil.Root.Execute(); err != nil {
		fmt.Println(err)
		var usageErr *pismutil.UsageError
		if errors.As(err, &usageErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

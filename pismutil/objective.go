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

package pismutil

import (
	"errors"
	"fmt"
	"log"

	"github.com/spatialmodel/pismtools/ncio"
	"github.com/spatialmodel/pismtools/objective"
)

// thicknessVar is the ice thickness variable PISM writes.
const thicknessVar = "thk"

// Objective compares variable varA in fileA against variable varB in
// fileB over the cells where the thickness field in thicknessFile
// exceeds 1 m, and appends the result line to outFile, or prints it to
// standard output if outFile is empty.
func Objective(thicknessFile, varA, varB, fileA, fileB, outFile string) error {
	log.Printf("comparing variable %q in %s to %q in %s ...", varA, fileA, varB, fileB)

	thickness, err := ncio.ReadGrid(thicknessFile, thicknessVar)
	if err != nil {
		return maybeUsage(err)
	}
	a, err := ncio.ReadGrid(fileA, varA)
	if err != nil {
		return maybeUsage(err)
	}
	b, err := ncio.ReadGrid(fileB, varB)
	if err != nil {
		return maybeUsage(err)
	}

	stats, err := objective.Compute(thickness, a, b)
	if err != nil {
		return err
	}
	log.Printf("%d locations for valid (thk > 1 m) comparison:", stats.ValidCells)
	log.Printf("  average of signed differences (whole sheet) is  %12.7f", stats.AvgDiff)
	log.Printf("  average of squared differences (whole sheet) is %12.7f", stats.AvgSqDiff)
	log.Printf("  average of squared differences (thk < 2000 m) is %12.7f", stats.SubAvgSqDiff)

	line := stats.Line(fileA)
	if outFile == "" {
		fmt.Print(line)
		return nil
	}
	log.Printf("writing these values to text file %s ...", outFile)
	return objective.AppendLine(outFile, line)
}

// maybeUsage converts input-open failures into usage errors, matching
// the historical behavior of failing with a usage message when an input
// file cannot be read.
func maybeUsage(err error) error {
	var oe *ncio.OpenError
	if errors.As(err, &oe) {
		return &UsageError{msg: err.Error()}
	}
	return err
}

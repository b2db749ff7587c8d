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
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spatialmodel/pismtools/ncio"
	"github.com/spatialmodel/pismtools/timeline"
)

// Timeline generates the boundary dates between startDate and endDate
// at the given periodicity, encodes them as elapsed refUnits since
// refDate, and writes the resulting time axis to outFile. argv is
// recorded in the history attribute of the output file.
func Timeline(periodicity, startDate, endDate, refUnit, refDate, outFile string, argv []string) error {
	p, err := timeline.ParsePeriodicity(periodicity)
	if err != nil {
		return err
	}
	unit, err := timeline.ParseUnit(refUnit)
	if err != nil {
		return err
	}
	start, err := parseDate(startDate)
	if err != nil {
		return &UsageError{msg: err.Error()}
	}
	end, err := parseDate(endDate)
	if err != nil {
		return &UsageError{msg: err.Error()}
	}
	ref, err := parseDate(refDate)
	if err != nil {
		return &UsageError{msg: err.Error()}
	}

	bounds, err := timeline.Boundaries(p, start, end)
	if err != nil {
		return err
	}
	axis, err := timeline.NewTimeAxis(bounds, unit, ref)
	if err != nil {
		return err
	}

	history := fmt.Sprintf("%s : %s", time.Now().Format(time.ANSIC), strings.Join(argv, " "))
	log.Printf("writing %d %v time steps to %s ...", len(axis.Time), p, outFile)
	return ncio.WriteTimeAxis(outFile, axis, history)
}

// parseDate parses an ISO-style date, accepting single-digit month and
// day fields ("1989-1-1"). The result is in UTC.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-1-2", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("pismtools: cannot parse date %q; need YYYY-MM-DD", s)
	}
	return t, nil
}

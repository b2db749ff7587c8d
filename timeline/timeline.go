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

// Package timeline generates time coordinates and time bounds for
// driving environmental forcing data. Boundary timestamps are expanded
// from a date range at a fixed periodicity and then encoded as elapsed
// time since a reference date, the way the CF metadata conventions
// describe a time axis.
package timeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Periodicity is the fixed interval at which boundary timestamps are
// generated.
type Periodicity int

const (
	Secondly Periodicity = iota
	Hourly
	Daily
	Weekly
	Monthly
	Yearly
)

// ErrUnknownPeriodicity is returned when a periodicity keyword is not
// one of the six recognized values.
var ErrUnknownPeriodicity = errors.New("timeline: unknown periodicity")

// ParsePeriodicity matches s, case-insensitively, against the
// recognized periodicity keywords.
func ParsePeriodicity(s string) (Periodicity, error) {
	switch strings.ToUpper(s) {
	case "SECONDLY":
		return Secondly, nil
	case "HOURLY":
		return Hourly, nil
	case "DAILY":
		return Daily, nil
	case "WEEKLY":
		return Weekly, nil
	case "MONTHLY":
		return Monthly, nil
	case "YEARLY":
		return Yearly, nil
	default:
		return 0, fmt.Errorf("%w %q; valid values are secondly, hourly, "+
			"daily, weekly, monthly and yearly", ErrUnknownPeriodicity, s)
	}
}

func (p Periodicity) String() string {
	switch p {
	case Secondly:
		return "secondly"
	case Hourly:
		return "hourly"
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Yearly:
		return "yearly"
	}
	panic(fmt.Sprintf("invalid periodicity %d", int(p)))
}

// frequency returns the equivalent recurrence-rule frequency.
func (p Periodicity) frequency() rrule.Frequency {
	switch p {
	case Secondly:
		return rrule.SECONDLY
	case Hourly:
		return rrule.HOURLY
	case Daily:
		return rrule.DAILY
	case Weekly:
		return rrule.WEEKLY
	case Monthly:
		return rrule.MONTHLY
	case Yearly:
		return rrule.YEARLY
	}
	panic(fmt.Sprintf("invalid periodicity %d", int(p)))
}

// Unit is the duration unit used to encode calendar dates as numeric
// offsets from a reference date.
type Unit int

const (
	Seconds Unit = iota
	Minutes
	Hours
	Days
)

// ErrUnknownUnit is returned for a reference unit that is not a fixed
// multiple of a second. Calendar-dependent units such as months and
// years are deliberately not supported.
var ErrUnknownUnit = errors.New("timeline: unknown reference unit")

// ParseUnit matches s, case-insensitively, against the recognized
// reference units.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(s) {
	case "seconds":
		return Seconds, nil
	case "minutes":
		return Minutes, nil
	case "hours":
		return Hours, nil
	case "days":
		return Days, nil
	default:
		return 0, fmt.Errorf("%w %q; valid values are seconds, minutes, "+
			"hours and days", ErrUnknownUnit, s)
	}
}

func (u Unit) String() string {
	switch u {
	case Seconds:
		return "seconds"
	case Minutes:
		return "minutes"
	case Hours:
		return "hours"
	case Days:
		return "days"
	}
	panic(fmt.Sprintf("invalid unit %d", int(u)))
}

// seconds returns the length of one unit in seconds.
func (u Unit) seconds() float64 {
	switch u {
	case Seconds:
		return 1
	case Minutes:
		return 60
	case Hours:
		return 3600
	case Days:
		return 86400
	}
	panic(fmt.Sprintf("invalid unit %d", int(u)))
}

// Boundaries expands the ordered sequence of boundary dates at
// periodicity p between start and end, inclusive of both endpoints.
// At least two boundaries are required to form an interval; a window
// shorter than one period is an error.
func Boundaries(p Periodicity, start, end time.Time) ([]time.Time, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("timeline: end date %v precedes start date %v",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    p.frequency(),
		Dtstart: start,
		Until:   end,
	})
	if err != nil {
		return nil, fmt.Errorf("timeline: building recurrence rule: %v", err)
	}
	dates := r.All()
	if len(dates) < 2 {
		return nil, fmt.Errorf("timeline: date range %v to %v is shorter than one %v period",
			start.Format("2006-01-02"), end.Format("2006-01-02"), p)
	}
	return dates, nil
}

// A TimeAxis is the numeric encoding of a boundary date sequence: one
// coordinate value per interval, placed at the interval midpoint, and
// one [lower, upper) pair of bounds per interval. All values are
// elapsed time since a reference date, in the units given by Units.
type TimeAxis struct {
	Units    string // e.g. "days since 1960-1-1"
	Calendar string
	Time     []float64    // interval midpoints; len(Time) == len(Bounds)
	Bounds   [][2]float64 // strictly increasing; Bounds[i][1] == Bounds[i+1][0]
}

// NewTimeAxis converts a strictly increasing boundary date sequence
// into a time axis with offsets measured in unit from refDate. Offsets
// follow the "standard" CF calendar: proleptic Gregorian, no leap
// seconds.
func NewTimeAxis(bounds []time.Time, unit Unit, refDate time.Time) (*TimeAxis, error) {
	if len(bounds) < 2 {
		return nil, fmt.Errorf("timeline: need at least two boundary dates, got %d", len(bounds))
	}
	offsets := make([]float64, len(bounds))
	for i, d := range bounds {
		if i > 0 && !bounds[i-1].Before(d) {
			return nil, fmt.Errorf("timeline: boundary dates must be strictly increasing "+
				"but %v does not precede %v", bounds[i-1], d)
		}
		offsets[i] = elapsed(refDate, d, unit)
	}
	n := len(bounds) - 1
	axis := &TimeAxis{
		Units:    fmt.Sprintf("%s since %s", unit, refDate.Format("2006-1-2")),
		Calendar: "standard",
		Time:     make([]float64, n),
		Bounds:   make([][2]float64, n),
	}
	for i := 0; i < n; i++ {
		axis.Bounds[i] = [2]float64{offsets[i], offsets[i+1]}
		axis.Time[i] = offsets[i] + (offsets[i+1]-offsets[i])/2
	}
	return axis, nil
}

// elapsed returns the time from ref to t in the given unit. The
// difference is taken on the Unix time scale, which has no leap
// seconds.
func elapsed(ref, t time.Time, unit Unit) float64 {
	return float64(t.Unix()-ref.Unix()) / unit.seconds()
}

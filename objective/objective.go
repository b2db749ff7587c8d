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

// Package objective computes difference statistics between two gridded
// fields, restricted to grid cells where the ice sheet is thick enough
// to make the comparison meaningful.
package objective

import (
	"errors"
	"fmt"
	"os"

	"github.com/ctessum/sparse"
)

const (
	// minThickness is the ice thickness [m] above which a cell takes
	// part in the comparison.
	minThickness = 1.0
	// subThickness is the ice thickness [m] below which a cell
	// additionally counts toward the sub-region statistics.
	subThickness = 2000.0
)

// ErrInsufficientData is returned when no grid cells satisfy a
// thickness threshold, so that an average would divide by zero.
var ErrInsufficientData = errors.New("objective: insufficient data")

// A ShapeError indicates that a grid does not have the two-dimensional
// shape the comparison requires.
type ShapeError struct {
	Shape []int // offending shape, after squeezing
	Want  []int // nil when the grid is not 2-d at all
}

func (e *ShapeError) Error() string {
	if e.Want == nil {
		return fmt.Sprintf("objective: grid has shape %v; need a 2-d grid", e.Shape)
	}
	return fmt.Sprintf("objective: grid has shape %v; need %v to match the thickness grid",
		e.Shape, e.Want)
}

// Stats holds the difference statistics for one pair of fields.
type Stats struct {
	ValidCells int // cells where thickness > 1 m
	SubCells   int // cells where additionally thickness < 2000 m

	AvgDiff      float64 // average signed difference over the valid cells
	AvgSqDiff    float64 // average squared difference over the valid cells
	SubAvgSqDiff float64 // average squared difference over the sub-region
}

// Compute scans all cells of the grids a and b and accumulates
// difference statistics over the cells where thickness exceeds 1 m,
// with a separate squared-difference average for the sub-region thinner
// than 2000 m. The three grids must share the same 2-d shape. If either
// cell count ends up zero the result would be undefined, and
// ErrInsufficientData is returned instead.
func Compute(thickness, a, b *sparse.DenseArray) (Stats, error) {
	for _, g := range []*sparse.DenseArray{thickness, a, b} {
		if len(g.Shape) != 2 {
			return Stats{}, &ShapeError{Shape: append([]int{}, g.Shape...)}
		}
	}
	for _, g := range []*sparse.DenseArray{a, b} {
		if g.Shape[0] != thickness.Shape[0] || g.Shape[1] != thickness.Shape[1] {
			return Stats{}, &ShapeError{
				Shape: append([]int{}, g.Shape...),
				Want:  append([]int{}, thickness.Shape...),
			}
		}
	}

	var s Stats
	var sumDiff, sumSq, subSumSq float64
	for i := 0; i < thickness.Shape[0]; i++ {
		for j := 0; j < thickness.Shape[1]; j++ {
			thk := thickness.Get(i, j)
			if thk <= minThickness {
				continue
			}
			d := a.Get(i, j) - b.Get(i, j)
			s.ValidCells++
			sumDiff += d
			sumSq += d * d
			if thk < subThickness {
				s.SubCells++
				subSumSq += d * d
			}
		}
	}
	if s.ValidCells == 0 {
		return Stats{}, fmt.Errorf("%w: no cells with thickness > %g m",
			ErrInsufficientData, minThickness)
	}
	if s.SubCells == 0 {
		return Stats{}, fmt.Errorf("%w: no cells with %g m < thickness < %g m",
			ErrInsufficientData, minThickness, subThickness)
	}
	s.AvgDiff = sumDiff / float64(s.ValidCells)
	s.AvgSqDiff = sumSq / float64(s.ValidCells)
	s.SubAvgSqDiff = subSumSq / float64(s.SubCells)
	return s, nil
}

// Line formats the statistics as one four-field result line in the
// historical diffs-file format: a label followed by the three averages
// at fixed precision.
func (s Stats) Line(label string) string {
	return fmt.Sprintf("%s %12.7f %12.7f %12.7f\n", label, s.AvgDiff, s.AvgSqDiff, s.SubAvgSqDiff)
}

// AppendLine appends line to the file at path, creating the file if it
// does not exist. Earlier lines are never overwritten.
func AppendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("objective: opening %s for appending: %v", path, err)
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("objective: writing to %s: %v", path, err)
	}
	return f.Close()
}

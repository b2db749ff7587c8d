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

// Package ncio reads gridded fields from and writes time axes to
// classic-format NetCDF files (NetCDF 4 and greater not supported).
package ncio

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"

	"github.com/spatialmodel/pismtools/timeline"
)

// Names of the time axis dimensions and variables, as expected by the
// PISM -time_file option.
const (
	timeDim   = "time"
	boundsDim = "tbnds"
	timeVar   = "time"
	boundsVar = "time_bounds"
)

// An OpenError indicates that an input file could not be opened for
// reading.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("ncio: file %s cannot be opened for reading: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// ReadGrid reads the named variable from the NetCDF file at path,
// widens it to float64 if necessary, and drops size-1 dimensions once
// at load time, so that a field stored as (time=1, y, x) comes back as
// a plain 2-d grid.
func ReadGrid(path, varName string) (*sparse.DenseArray, error) {
	ff, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		return nil, fmt.Errorf("ncio: reading NetCDF header of %s: %v", path, err)
	}
	if !hasVariable(f, varName) {
		return nil, fmt.Errorf("ncio: file %s has no variable %q", path, varName)
	}
	r := f.Reader(varName, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("ncio: reading variable %q from %s: %v", varName, path, err)
	}
	var data []float64
	switch b := buf.(type) {
	case []float64:
		data = b
	case []float32:
		data = make([]float64, len(b))
		for i, v := range b {
			data[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("ncio: variable %q in %s is not floating point", varName, path)
	}
	dims := f.Header.Lengths(varName)
	out := sparse.ZerosDense(squeeze(dims, len(data))...)
	if len(out.Elements) != len(data) {
		return nil, fmt.Errorf("ncio: variable %q in %s has %d values but shape %v",
			varName, path, len(data), dims)
	}
	copy(out.Elements, data)
	return out, nil
}

// squeeze drops leading size-1 dimensions, keeping the trailing two so
// that a legitimately one-cell-wide grid stays 2-d. A record dimension
// is reported as zero-length in the header; its actual length is
// recovered from the total number of values read.
func squeeze(dims []int, n int) []int {
	rest := 1
	for _, d := range dims {
		if d > 0 {
			rest *= d
		}
	}
	resolved := make([]int, len(dims))
	for i, d := range dims {
		if d == 0 && rest > 0 {
			d = n / rest
		}
		resolved[i] = d
	}
	var out []int
	for i, d := range resolved {
		if d == 1 && i < len(resolved)-2 {
			continue
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		out = []int{1}
	}
	return out
}

func hasVariable(f *cdf.File, varName string) bool {
	for _, v := range f.Header.Variables() {
		if v == varName {
			return true
		}
	}
	return false
}

// WriteTimeAxis writes axis to the classic-format NetCDF file at path:
// an unlimited time dimension, a fixed tbnds dimension of length 2, a
// double-precision time coordinate variable with CF attributes, and a
// matching time_bounds variable. If the file already exists with
// compatible dimensions its data are updated in place, so repeated
// invocations do not fail with a dimension redefinition error;
// incompatible existing dimensions are reported as an error.
func WriteTimeAxis(path string, axis *timeline.TimeAxis, history string) error {
	if _, err := os.Stat(path); err == nil {
		return updateTimeAxis(path, axis)
	}
	return createTimeAxis(path, axis, history)
}

func createTimeAxis(path string, axis *timeline.TimeAxis, history string) error {
	h := cdf.NewHeader([]string{timeDim, boundsDim}, []int{0, 2})

	h.AddVariable(timeVar, []string{timeDim}, []float64{0})
	h.AddAttribute(timeVar, "units", axis.Units)
	h.AddAttribute(timeVar, "calendar", axis.Calendar)
	h.AddAttribute(timeVar, "standard_name", "time")
	h.AddAttribute(timeVar, "axis", "T")
	h.AddAttribute(timeVar, "bounds", boundsVar)

	h.AddVariable(boundsVar, []string{timeDim, boundsDim}, []float64{0})

	h.AddAttribute("", "history", history)
	h.AddAttribute("", "Conventions", "CF 1.5")

	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("ncio: defining time axis file %s: %v", path, err)
	}
	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ncio: creating %s: %v", path, err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h) // writes the header to ff
	if err != nil {
		return fmt.Errorf("ncio: writing NetCDF header to %s: %v", path, err)
	}
	if err := writeAxisData(f, axis); err != nil {
		return fmt.Errorf("ncio: writing time axis to %s: %v", path, err)
	}
	if err := cdf.UpdateNumRecs(ff); err != nil {
		return fmt.Errorf("ncio: finalizing %s: %v", path, err)
	}
	return nil
}

func updateTimeAxis(path string, axis *timeline.TimeAxis) error {
	ff, err := os.OpenFile(path, os.O_RDWR, os.ModePerm)
	if err != nil {
		return fmt.Errorf("ncio: opening %s for writing: %v", path, err)
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		return fmt.Errorf("ncio: reading NetCDF header of %s: %v", path, err)
	}
	if err := checkAxisHeader(f); err != nil {
		return fmt.Errorf("ncio: cannot update %s: %v", path, err)
	}
	if err := writeAxisData(f, axis); err != nil {
		return fmt.Errorf("ncio: writing time axis to %s: %v", path, err)
	}
	if err := cdf.UpdateNumRecs(ff); err != nil {
		return fmt.Errorf("ncio: finalizing %s: %v", path, err)
	}
	return nil
}

// checkAxisHeader verifies that an existing file defines the time and
// bounds variables on compatible dimensions.
func checkAxisHeader(f *cdf.File) error {
	for _, v := range []string{timeVar, boundsVar} {
		if !hasVariable(f, v) {
			return fmt.Errorf("no variable %q", v)
		}
	}
	dims := f.Header.Dimensions(boundsVar)
	if len(dims) != 2 || dims[0] != timeDim || dims[1] != boundsDim {
		return fmt.Errorf("variable %q has dimensions %v, need [%s %s]",
			boundsVar, dims, timeDim, boundsDim)
	}
	if l := f.Header.Lengths(boundsVar)[1]; l != 2 {
		return fmt.Errorf("dimension %q has length %d, need 2", boundsDim, l)
	}
	return nil
}

func writeAxisData(f *cdf.File, axis *timeline.TimeAxis) error {
	n := len(axis.Time)
	w := f.Writer(timeVar, []int{0}, []int{n})
	if _, err := w.Write(axis.Time); err != nil {
		return fmt.Errorf("variable %q: %v", timeVar, err)
	}
	flat := make([]float64, 2*n)
	for i, b := range axis.Bounds {
		flat[2*i] = b[0]
		flat[2*i+1] = b[1]
	}
	w = f.Writer(boundsVar, []int{0, 0}, []int{n, 2})
	if _, err := w.Write(flat); err != nil {
		return fmt.Errorf("variable %q: %v", boundsVar, err)
	}
	return nil
}

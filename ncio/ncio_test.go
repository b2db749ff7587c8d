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

package ncio

import (
	"errors"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ctessum/cdf"

	"github.com/spatialmodel/pismtools/timeline"
)

const tolerance = 1.e-10 // tolerance for comparing floats

// writeGridFile writes data as a float32 variable with the given
// dimensions to a new classic-format NetCDF file.
func writeGridFile(t *testing.T, path, varName string, dimNames []string, dims []int, data []float32) {
	t.Helper()
	h := cdf.NewHeader(dimNames, dims)
	h.AddVariable(varName, dimNames, []float32{0})
	h.Define()
	for _, err := range h.Check() {
		t.Fatal(err)
	}
	ff, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		t.Fatal(err)
	}
	begin := make([]int, len(dims))
	w := f.Writer(varName, begin, dims)
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := cdf.UpdateNumRecs(ff); err != nil {
		t.Fatal(err)
	}
	if err := ff.Close(); err != nil {
		t.Fatal(err)
	}
}

func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "ncio")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestReadGrid(t *testing.T) {
	path := filepath.Join(tempDir(t), "thk.nc")
	// A singleton leading dimension, as PISM writes for a single time
	// record, should be squeezed away.
	writeGridFile(t, path, "thk",
		[]string{"t", "y", "x"}, []int{1, 2, 3},
		[]float32{1, 2, 3, 4, 5, 6})

	grid, err := ReadGrid(path, "thk")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(grid.Shape, []int{2, 3}) {
		t.Fatalf("shape = %v, want [2 3]", grid.Shape)
	}
	want := []float64{1, 2, 3, 4, 5, 6}
	for i, v := range want {
		if math.Abs(grid.Elements[i]-v) > tolerance {
			t.Errorf("element %d = %g, want %g", i, grid.Elements[i], v)
		}
	}
	if got := grid.Get(1, 2); math.Abs(got-6) > tolerance {
		t.Errorf("Get(1, 2) = %g, want 6", got)
	}
}

// TestReadGridSingleRow checks that a genuine size-1 spatial dimension
// survives squeezing, so one-cell-wide grids stay 2-d.
func TestReadGridSingleRow(t *testing.T) {
	path := filepath.Join(tempDir(t), "thk.nc")
	writeGridFile(t, path, "thk",
		[]string{"t", "y", "x"}, []int{1, 1, 3},
		[]float32{1, 2, 3})
	grid, err := ReadGrid(path, "thk")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(grid.Shape, []int{1, 3}) {
		t.Fatalf("shape = %v, want [1 3]", grid.Shape)
	}
	if got := grid.Get(0, 2); math.Abs(got-3) > tolerance {
		t.Errorf("Get(0, 2) = %g, want 3", got)
	}
}

func TestReadGridMissingVariable(t *testing.T) {
	path := filepath.Join(tempDir(t), "thk.nc")
	writeGridFile(t, path, "thk",
		[]string{"y", "x"}, []int{2, 2},
		[]float32{1, 2, 3, 4})
	if _, err := ReadGrid(path, "acab"); err == nil {
		t.Error("expected an error for a missing variable")
	}
}

func TestReadGridMissingFile(t *testing.T) {
	_, err := ReadGrid(filepath.Join(tempDir(t), "nonexistent.nc"), "thk")
	var openErr *OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("got %v, want an OpenError", err)
	}
}

func testAxis(t *testing.T) *timeline.TimeAxis {
	t.Helper()
	start := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	bounds, err := timeline.Boundaries(timeline.Monthly, start, end)
	if err != nil {
		t.Fatal(err)
	}
	axis, err := timeline.NewTimeAxis(bounds, timeline.Days,
		time.Date(1960, time.January, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	return axis
}

// stringAttr returns the named attribute as a string.
func stringAttr(f *cdf.File, v, name string) string {
	att := f.Header.GetAttribute(v, name)
	if s, ok := att.(string); ok {
		return s
	}
	if b, ok := att.([]byte); ok {
		return string(b)
	}
	return ""
}

// readFloats reads an n-record slab of the record variable v. Record
// variables need explicit slab bounds; an unbounded read returns only
// the first record.
func readFloats(t *testing.T, f *cdf.File, v string, n int) []float64 {
	t.Helper()
	dims := f.Header.Lengths(v)
	begin := make([]int, len(dims))
	end := make([]int, len(dims))
	end[0] = n
	nread := n
	for i, d := range dims[1:] {
		end[i+1] = d
		nread *= d
	}
	r := f.Reader(v, begin, end)
	buf := r.Zero(nread)
	if _, err := r.Read(buf); err != nil {
		t.Fatal(err)
	}
	return buf.([]float64)
}

func TestWriteTimeAxis(t *testing.T) {
	path := filepath.Join(tempDir(t), "time.nc")
	axis := testAxis(t)
	if err := WriteTimeAxis(path, axis, "test invocation"); err != nil {
		t.Fatal(err)
	}

	ff, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		t.Fatal(err)
	}

	if len(axis.Time) != 12 {
		t.Fatalf("test axis has %d intervals, want 12", len(axis.Time))
	}
	timeVals := readFloats(t, f, "time", 12)
	boundVals := readFloats(t, f, "time_bounds", 12)
	if len(boundVals) != 24 {
		t.Fatalf("got %d bounds values, want 24", len(boundVals))
	}
	for i, v := range timeVals {
		if math.Abs(v-axis.Time[i]) > tolerance {
			t.Errorf("time[%d] = %g, want %g", i, v, axis.Time[i])
		}
		if math.Abs(boundVals[2*i]-axis.Bounds[i][0]) > tolerance ||
			math.Abs(boundVals[2*i+1]-axis.Bounds[i][1]) > tolerance {
			t.Errorf("bounds[%d] = [%g %g], want %v",
				i, boundVals[2*i], boundVals[2*i+1], axis.Bounds[i])
		}
	}

	if got := stringAttr(f, "time", "units"); got != axis.Units {
		t.Errorf("units attribute = %q, want %q", got, axis.Units)
	}
	if got := stringAttr(f, "time", "calendar"); got != "standard" {
		t.Errorf("calendar attribute = %q, want %q", got, "standard")
	}
	if got := stringAttr(f, "time", "standard_name"); got != "time" {
		t.Errorf("standard_name attribute = %q, want %q", got, "time")
	}
	if got := stringAttr(f, "time", "axis"); got != "T" {
		t.Errorf("axis attribute = %q, want %q", got, "T")
	}
	if got := stringAttr(f, "time", "bounds"); got != "time_bounds" {
		t.Errorf("bounds attribute = %q, want %q", got, "time_bounds")
	}
	if got := stringAttr(f, "", "Conventions"); got != "CF 1.5" {
		t.Errorf("Conventions attribute = %q, want %q", got, "CF 1.5")
	}
	if got := stringAttr(f, "", "history"); got != "test invocation" {
		t.Errorf("history attribute = %q, want %q", got, "test invocation")
	}
}

// TestWriteTimeAxisIdempotent checks that writing into a pre-existing
// time file does not fail with a dimension redefinition error.
func TestWriteTimeAxisIdempotent(t *testing.T) {
	path := filepath.Join(tempDir(t), "time.nc")
	axis := testAxis(t)
	if err := WriteTimeAxis(path, axis, "first invocation"); err != nil {
		t.Fatal(err)
	}
	if err := WriteTimeAxis(path, axis, "second invocation"); err != nil {
		t.Fatalf("second write into the same file: %v", err)
	}

	ff, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		t.Fatal(err)
	}
	timeVals := readFloats(t, f, "time", len(axis.Time))
	for i, v := range timeVals {
		if math.Abs(v-axis.Time[i]) > tolerance {
			t.Errorf("time[%d] = %g, want %g", i, v, axis.Time[i])
		}
	}
}

// TestWriteTimeAxisIncompatible checks that an existing file without
// the expected time axis structure is rejected rather than corrupted.
func TestWriteTimeAxisIncompatible(t *testing.T) {
	path := filepath.Join(tempDir(t), "grid.nc")
	writeGridFile(t, path, "thk",
		[]string{"y", "x"}, []int{2, 2},
		[]float32{1, 2, 3, 4})
	if err := WriteTimeAxis(path, testAxis(t), "invocation"); err == nil {
		t.Error("expected an error writing a time axis into a grid file")
	}
}

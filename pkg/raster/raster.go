// Package raster holds the single-plane floating point raster shared by the
// resampler and the host tools.
package raster

import (
	"fmt"
	"math"
)

// Raster is a 2D grid of float64 samples stored row-major:
// the sample at column x, row y is Data[y*Width+x].
type Raster struct {
	Width  int
	Height int
	Data   []float64
}

// New allocates a zero-filled raster.
func New(width, height int) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

// FromRows builds a raster from a slice of equal-length rows.
func FromRows(rows [][]float64) (*Raster, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("raster must have at least one row and one column")
	}
	width := len(rows[0])
	r := New(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", y, len(row), width)
		}
		copy(r.Data[y*width:], row)
	}
	return r, nil
}

// Validate reports whether the raster is non-empty and its data length matches
// its dimensions.
func (r *Raster) Validate() error {
	if r == nil {
		return fmt.Errorf("raster is nil")
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("raster dimensions %dx%d must be positive", r.Width, r.Height)
	}
	if len(r.Data) != r.Width*r.Height {
		return fmt.Errorf("raster data length %d does not match %dx%d", len(r.Data), r.Width, r.Height)
	}
	return nil
}

// Dims returns the width and height.
func (r *Raster) Dims() (int, int) {
	return r.Width, r.Height
}

// At returns the sample at column x, row y.
func (r *Raster) At(x, y int) float64 {
	return r.Data[y*r.Width+x]
}

// Set stores v at column x, row y.
func (r *Raster) Set(x, y int, v float64) {
	r.Data[y*r.Width+x] = v
}

// Row returns row y as a sub-slice of Data.
func (r *Raster) Row(y int) []float64 {
	return r.Data[y*r.Width : (y+1)*r.Width]
}

// MinMax returns the smallest and largest finite samples. Both are zero for a
// raster without finite samples.
func (r *Raster) MinMax() (min, max float64) {
	first := true
	for _, v := range r.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if first {
			min, max = v, v
			first = false
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

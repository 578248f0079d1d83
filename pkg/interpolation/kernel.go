// Package interpolation provides the sampling kernels used when resampling a
// raster at non-integer coordinates.
//
// Kernel degree 0 is nearest neighbour, 1 is bilinear and any higher degree k
// is a separable Lagrange interpolation over a (k+1)x(k+1) neighbourhood.
package interpolation

import (
	"fmt"
	"math"
)

// Grid is a read-only 2D sample grid addressed by column and row.
type Grid interface {
	Dims() (width, height int)
	At(x, y int) float64
}

// Kernel samples a grid at a real-valued position. Sample returns false when
// the position falls outside the extent the kernel can interpolate, in which
// case the returned value is meaningless.
//
// Kernels may hold scratch buffers and are not safe for concurrent use.
type Kernel interface {
	Degree() int
	Support() int
	Sample(g Grid, x, y float64) (float64, bool)
}

// New returns the kernel for the given interpolation degree.
func New(degree int) (Kernel, error) {
	switch {
	case degree < 0:
		return nil, fmt.Errorf("interpolation degree %d must not be negative", degree)
	case degree == 0:
		return Nearest{}, nil
	case degree == 1:
		return Bilinear{}, nil
	default:
		return NewLagrange(degree), nil
	}
}

// Nearest copies the sample of the closest grid cell.
type Nearest struct{}

func (Nearest) Degree() int  { return 0 }
func (Nearest) Support() int { return 1 }

func (Nearest) Sample(g Grid, x, y float64) (float64, bool) {
	w, h := g.Dims()
	ix := math.Round(x)
	iy := math.Round(y)
	if !(ix >= 0 && ix <= float64(w-1) && iy >= 0 && iy <= float64(h-1)) {
		return 0, false
	}
	return g.At(int(ix), int(iy)), true
}

// Bilinear blends the 2x2 cells enclosing the position.
type Bilinear struct{}

func (Bilinear) Degree() int  { return 1 }
func (Bilinear) Support() int { return 2 }

func (Bilinear) Sample(g Grid, x, y float64) (float64, bool) {
	w, h := g.Dims()
	if !inside(x, w) || !inside(y, h) {
		return 0, false
	}
	x0 := neighbourhoodStart(x, 1, w)
	y0 := neighbourhoodStart(y, 1, h)
	x1 := min(x0+1, w-1)
	y1 := min(y0+1, h-1)
	fx := x - float64(x0)
	fy := y - float64(y0)

	top := (1-fx)*g.At(x0, y0) + fx*g.At(x1, y0)
	bottom := (1-fx)*g.At(x0, y1) + fx*g.At(x1, y1)
	return (1-fy)*top + fy*bottom, true
}

// Lagrange interpolates with a Lagrange polynomial of the given order along
// each axis, rows first and then the interpolated column.
type Lagrange struct {
	order int
	wx    []float64
	wy    []float64
	col   []float64
}

// NewLagrange creates a Lagrange kernel of the given order (>= 1).
func NewLagrange(order int) *Lagrange {
	if order < 1 {
		order = 1
	}
	return &Lagrange{
		order: order,
		wx:    make([]float64, order+1),
		wy:    make([]float64, order+1),
		col:   make([]float64, order+1),
	}
}

func (l *Lagrange) Degree() int  { return l.order }
func (l *Lagrange) Support() int { return l.order + 1 }

func (l *Lagrange) Sample(g Grid, x, y float64) (float64, bool) {
	w, h := g.Dims()
	if w < l.order+1 || h < l.order+1 {
		return 0, false
	}
	if !inside(x, w) || !inside(y, h) {
		return 0, false
	}
	x0 := neighbourhoodStart(x, l.order, w)
	y0 := neighbourhoodStart(y, l.order, h)
	lagrangeWeights(l.wx, x, x0)
	lagrangeWeights(l.wy, y, y0)

	for r := range l.col {
		sum := 0.0
		for m, wm := range l.wx {
			sum += wm * g.At(x0+m, y0+r)
		}
		l.col[r] = sum
	}

	v := 0.0
	for r, wr := range l.wy {
		v += wr * l.col[r]
	}
	return v, true
}

// lagrangeWeights fills w with the Lagrange basis values at s for the nodes
// s0, s0+1, ..., s0+len(w)-1. At a node the weights are exactly one and zero.
func lagrangeWeights(w []float64, s float64, s0 int) {
	for m := range w {
		num, den := 1.0, 1.0
		for k := range w {
			if k == m {
				continue
			}
			num *= s - float64(s0+k)
			den *= float64(m - k)
		}
		w[m] = num / den
	}
}

func inside(s float64, n int) bool {
	return s >= 0 && s <= float64(n-1)
}

// neighbourhoodStart returns the first node of an order+1 wide neighbourhood
// centred on s and clamped to [0, n-order-1].
func neighbourhoodStart(s float64, order, n int) int {
	start := int(math.Floor(s)) - (order-1)/2
	if start > n-order-1 {
		start = n - order - 1
	}
	if start < 0 {
		start = 0
	}
	return start
}

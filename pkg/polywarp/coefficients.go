// Package polywarp fits 2D power-series polynomial warps from control point
// pairs and resamples rasters through them by inverse mapping.
//
// A warp of degree d has (d+1)^2 coefficients per axis. Coefficient index
// i*(d+1)+j multiplies x^i * y^j, so degree 1 uses the terms {1, y, x, xy}.
// The polynomials map a destination-frame point to the source-frame
// coordinate it came from.
package polywarp

import (
	"math"

	"github.com/pkg/errors"
)

// Point is a control point coordinate in one frame.
type Point struct {
	X, Y float64
}

// Coefficients holds the two polynomials of a warp.
type Coefficients struct {
	Degree int
	Kx     []float64
	Ky     []float64
}

// TermCount returns the number of basis terms of a degree d polynomial.
func TermCount(degree int) int {
	return (degree + 1) * (degree + 1)
}

// DegreeForLength returns the degree whose term count is n.
func DegreeForLength(n int) (int, error) {
	r := int(math.Round(math.Sqrt(float64(n))))
	if r < 2 || r*r != n {
		return 0, errors.Wrapf(ErrDimensionMismatch,
			"coefficient count %d is not (degree+1)^2 for any degree >= 1", n)
	}
	return r - 1, nil
}

// NewCoefficients copies kx and ky into a Coefficients value, inferring the
// degree from their length.
func NewCoefficients(kx, ky []float64) (*Coefficients, error) {
	if len(kx) != len(ky) {
		return nil, errors.Wrapf(ErrDimensionMismatch,
			"kx has %d coefficients but ky has %d", len(kx), len(ky))
	}
	degree, err := DegreeForLength(len(kx))
	if err != nil {
		return nil, err
	}
	return &Coefficients{
		Degree: degree,
		Kx:     append([]float64(nil), kx...),
		Ky:     append([]float64(nil), ky...),
	}, nil
}

// Validate checks that both vectors have (Degree+1)^2 entries.
func (c *Coefficients) Validate() error {
	if c == nil {
		return errors.Wrap(ErrInvalidInput, "coefficients are nil")
	}
	if c.Degree < 1 {
		return errors.Wrapf(ErrDimensionMismatch, "degree %d must be at least 1", c.Degree)
	}
	n := TermCount(c.Degree)
	if len(c.Kx) != n || len(c.Ky) != n {
		return errors.Wrapf(ErrDimensionMismatch,
			"degree %d needs %d coefficients per axis, got kx=%d ky=%d",
			c.Degree, n, len(c.Kx), len(c.Ky))
	}
	return nil
}

// Eval maps the destination point (x, y) to source coordinates. c must be
// valid: values from NewCoefficients and Fit are, hand-built ones should pass
// Validate first.
func (c *Coefficients) Eval(x, y float64) (sx, sy float64) {
	e := newRowEvaluator(c)
	e.setRow(y)
	return e.at(x)
}

// EvalPoint is Eval for a Point.
func (c *Coefficients) EvalPoint(p Point) Point {
	sx, sy := c.Eval(p.X, p.Y)
	return Point{X: sx, Y: sy}
}

// Residuals returns, for each pair, the distance between src[i] and the warp
// evaluated at dst[i].
func (c *Coefficients) Residuals(src, dst []Point) ([]float64, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if len(src) != len(dst) {
		return nil, errors.Wrapf(ErrInvalidInput,
			"source has %d points but destination has %d", len(src), len(dst))
	}
	e := newRowEvaluator(c)
	res := make([]float64, len(src))
	for i := range dst {
		e.setRow(dst[i].Y)
		sx, sy := e.at(dst[i].X)
		res[i] = math.Hypot(sx-src[i].X, sy-src[i].Y)
	}
	return res, nil
}

// rowEvaluator evaluates both polynomials along a line of constant y. setRow
// collapses each polynomial into a polynomial in x, which at then evaluates
// by Horner's rule.
type rowEvaluator struct {
	degree int
	kx, ky []float64
	px, py []float64
}

func newRowEvaluator(c *Coefficients) *rowEvaluator {
	return &rowEvaluator{
		degree: c.Degree,
		kx:     c.Kx,
		ky:     c.Ky,
		px:     make([]float64, c.Degree+1),
		py:     make([]float64, c.Degree+1),
	}
}

func (e *rowEvaluator) setRow(y float64) {
	collapseRow(e.px, e.kx, e.degree, y)
	collapseRow(e.py, e.ky, e.degree, y)
}

func (e *rowEvaluator) at(x float64) (float64, float64) {
	return horner(e.px, x), horner(e.py, x)
}

// collapseRow sets out[i] = sum_j k[i*(d+1)+j] * y^j.
func collapseRow(out, k []float64, degree int, y float64) {
	n := degree + 1
	for i := 0; i < n; i++ {
		out[i] = horner(k[i*n:(i+1)*n], y)
	}
}

// horner evaluates sum_i c[i] * x^i.
func horner(c []float64, x float64) float64 {
	v := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		v = v*x + c[i]
	}
	return v
}

// basisTerms fills terms with x^i * y^j at index i*(d+1)+j.
func basisTerms(terms []float64, degree int, x, y float64) {
	n := degree + 1
	xi := 1.0
	for i := 0; i < n; i++ {
		yj := 1.0
		for j := 0; j < n; j++ {
			terms[i*n+j] = xi * yj
			yj *= y
		}
		xi *= x
	}
}

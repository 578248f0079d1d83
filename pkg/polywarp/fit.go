package polywarp

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"polywarp/pkg/progress"
)

// Fit computes the polynomial warp of the given degree that maps each
// destination point onto its paired source point.
//
// At least (degree+1)^2 pairs are required. With exactly that many the
// polynomial interpolates the pairs; with more it is the least-squares fit.
// Fit returns ErrInvalidInput for malformed input and ErrSingularSystem when
// the destination points do not determine the polynomial (for example when
// they are collinear or coincident). sink may be nil.
func Fit(src, dst []Point, degree int, sink progress.Sink) (*Coefficients, error) {
	if degree < 1 {
		return nil, errors.Wrapf(ErrInvalidInput, "degree %d must be at least 1", degree)
	}
	if len(src) != len(dst) {
		return nil, errors.Wrapf(ErrInvalidInput,
			"source has %d points but destination has %d", len(src), len(dst))
	}
	terms := TermCount(degree)
	if len(dst) < terms {
		return nil, errors.Wrapf(ErrInvalidInput,
			"degree %d needs at least %d control points, got %d", degree, terms, len(dst))
	}
	for i := range src {
		if !finite(src[i]) || !finite(dst[i]) {
			return nil, errors.Wrapf(ErrInvalidInput, "control point pair %d is not finite", i)
		}
	}

	progress.Report(sink, "Building polynomial system", 0, progress.Normal)
	a := designMatrix(dst, degree)
	scale := equilibrate(a)

	n := len(src)
	bx := mat.NewVecDense(n, nil)
	by := mat.NewVecDense(n, nil)
	for i, p := range src {
		bx.SetVec(i, p.X)
		by.SetVec(i, p.Y)
	}

	progress.Report(sink, "Solving polynomial system", 50, progress.Normal)
	sol, err := solveLeastSquares(a, bx, by)
	if err != nil {
		return nil, err
	}

	c := &Coefficients{
		Degree: degree,
		Kx:     make([]float64, terms),
		Ky:     make([]float64, terms),
	}
	for k := 0; k < terms; k++ {
		c.Kx[k] = sol[0].AtVec(k) / scale[k]
		c.Ky[k] = sol[1].AtVec(k) / scale[k]
	}

	progress.Report(sink, "Polynomial fit complete", 100, progress.Normal)
	return c, nil
}

// designMatrix returns the N x (d+1)^2 matrix whose row r holds the basis
// terms of dst[r].
func designMatrix(dst []Point, degree int) *mat.Dense {
	terms := TermCount(degree)
	a := mat.NewDense(len(dst), terms, nil)
	for r, p := range dst {
		basisTerms(a.RawRowView(r), degree, p.X, p.Y)
	}
	return a
}

// equilibrate scales every column of a to unit max-abs and returns the
// factors. An all-zero column keeps factor 1.
func equilibrate(a *mat.Dense) []float64 {
	rows, cols := a.Dims()
	scale := make([]float64, cols)
	for j := 0; j < cols; j++ {
		m := 0.0
		for i := 0; i < rows; i++ {
			m = math.Max(m, math.Abs(a.At(i, j)))
		}
		if m == 0 {
			m = 1
		}
		scale[j] = m
	}
	a.Apply(func(_, j int, v float64) float64 {
		return v / scale[j]
	}, a)
	return scale
}

func finite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

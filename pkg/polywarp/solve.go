package polywarp

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// rankTolerance is the smallest accepted ratio between the smallest and the
// largest singular value of the (equilibrated) design matrix.
const rankTolerance = 1e-10

// solveLeastSquares solves a*x = b for every b. Square systems use LU with
// partial pivoting, taller ones use QR. A rank-deficient a yields
// ErrSingularSystem.
func solveLeastSquares(a *mat.Dense, bs ...*mat.VecDense) ([]*mat.VecDense, error) {
	rows, cols := a.Dims()
	if rows < cols {
		return nil, errors.Wrapf(ErrSingularSystem,
			"%d equations cannot determine %d unknowns", rows, cols)
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDNone) {
		return nil, errors.Wrap(ErrSingularSystem, "singular value decomposition did not converge")
	}
	values := svd.Values(nil)
	largest, smallest := values[0], values[len(values)-1]
	if largest == 0 || smallest/largest < rankTolerance {
		return nil, errors.Wrapf(ErrSingularSystem,
			"design matrix is rank deficient (singular value ratio %.3g)", smallest/largest)
	}

	solutions := make([]*mat.VecDense, len(bs))
	if rows == cols {
		var lu mat.LU
		lu.Factorize(a)
		for i, b := range bs {
			var x mat.VecDense
			if err := lu.SolveVecTo(&x, false, b); err != nil {
				return nil, errors.Wrapf(ErrSingularSystem, "LU solve failed: %v", err)
			}
			solutions[i] = &x
		}
		return solutions, nil
	}

	var qr mat.QR
	qr.Factorize(a)
	for i, b := range bs {
		var x mat.VecDense
		if err := qr.SolveVecTo(&x, false, b); err != nil {
			return nil, errors.Wrapf(ErrSingularSystem, "QR solve failed: %v", err)
		}
		solutions[i] = &x
	}
	return solutions, nil
}

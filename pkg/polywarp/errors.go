package polywarp

import (
	"github.com/pkg/errors"
)

// Error kinds returned by Fit and Resample. Returned errors wrap one of these
// with detail; test for them with errors.Is.
var (
	// ErrInvalidInput reports malformed shapes, degrees or sizes detected
	// before any computation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSingularSystem reports control points that do not determine a unique
	// polynomial of the requested degree.
	ErrSingularSystem = errors.New("singular system")

	// ErrDimensionMismatch reports coefficient vectors whose lengths disagree
	// with each other or with the declared degree.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrAborted reports a resample cancelled through its progress sink.
	ErrAborted = errors.New("aborted")
)

package polywarp

import (
	"fmt"

	"github.com/pkg/errors"

	"polywarp/pkg/interpolation"
	"polywarp/pkg/progress"
	"polywarp/pkg/raster"
)

// ResampleOptions configures Resample.
type ResampleOptions struct {
	// Width and Height are the output raster dimensions.
	Width  int
	Height int

	// XOffset and YOffset are added to every output pixel coordinate before
	// the polynomial is evaluated.
	XOffset int
	YOffset int

	// Interpolation selects the kernel: 0 nearest neighbour, 1 bilinear,
	// k >= 2 Lagrange over a (k+1)x(k+1) neighbourhood.
	Interpolation int

	// Degree is the declared polynomial degree. Zero infers it from the
	// coefficient count.
	Degree int

	// Fill is stored where the source coordinate falls outside the input.
	Fill float64

	// Progress receives one report per output row and may abort between
	// rows. Nil disables reporting.
	Progress progress.Sink
}

// Resample builds an opts.Width x opts.Height raster whose pixel (ox, oy)
// is the input sampled at (Kx(d), Ky(d)) with d = (ox+XOffset, oy+YOffset).
//
// It returns ErrInvalidInput for an empty input or bad sizes,
// ErrDimensionMismatch when kx, ky and opts.Degree disagree, and ErrAborted
// when the progress sink requests cancellation. The input is not modified.
func Resample(in *raster.Raster, kx, ky []float64, opts ResampleOptions) (*raster.Raster, error) {
	c, err := NewCoefficients(kx, ky)
	if err != nil {
		return nil, err
	}
	return c.Resample(in, opts)
}

// Resample is Resample with an already built coefficient set.
func (c *Coefficients) Resample(in *raster.Raster, opts ResampleOptions) (*raster.Raster, error) {
	if err := validateResample(in, opts); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if opts.Degree != 0 && opts.Degree != c.Degree {
		return nil, errors.Wrapf(ErrDimensionMismatch,
			"declared degree %d but coefficients have degree %d", opts.Degree, c.Degree)
	}

	// Inputs smaller than the kernel neighbourhood are not rejected: the
	// kernel reports such samples as outside and they take Fill.
	kernel, err := interpolation.New(opts.Interpolation)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidInput, err.Error())
	}

	out := raster.New(opts.Width, opts.Height)
	e := newRowEvaluator(c)
	filled := 0

	for oy := 0; oy < opts.Height; oy++ {
		if progress.Aborted(opts.Progress) {
			return nil, errors.Wrapf(ErrAborted,
				"resampling stopped after %d of %d rows", oy, opts.Height)
		}

		e.setRow(float64(oy + opts.YOffset))
		row := out.Row(oy)
		for ox := range row {
			sx, sy := e.at(float64(ox + opts.XOffset))
			v, ok := kernel.Sample(in, sx, sy)
			if !ok {
				v = opts.Fill
				filled++
			}
			row[ox] = v
		}

		progress.Report(opts.Progress, "Resampling", (oy+1)*100/opts.Height, progress.Normal)
	}

	if filled > 0 {
		progress.Report(opts.Progress,
			fmt.Sprintf("%d of %d output samples fell outside the input extent and were set to %g",
				filled, len(out.Data), opts.Fill),
			100, progress.Warning)
	}
	return out, nil
}

func validateResample(in *raster.Raster, opts ResampleOptions) error {
	if err := in.Validate(); err != nil {
		return errors.Wrap(ErrInvalidInput, err.Error())
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return errors.Wrapf(ErrInvalidInput,
			"output dimensions %dx%d must be positive", opts.Width, opts.Height)
	}
	if opts.Interpolation < 0 {
		return errors.Wrapf(ErrInvalidInput,
			"interpolation degree %d must not be negative", opts.Interpolation)
	}
	return nil
}

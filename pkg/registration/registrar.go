// Package registration drives the fit-then-resample pipeline from files:
// it loads control points, fits the warp, reports its quality, resamples the
// input raster and stores the result.
package registration

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"polywarp/internal/dataio"
	"polywarp/internal/logger"
	"polywarp/internal/models"
	"polywarp/pkg/polywarp"
	"polywarp/pkg/progress"
	"polywarp/pkg/raster"
	"polywarp/pkg/visualization"
)

const component = "registration"

// FitMetrics describes how well a fitted warp reproduces its control points.
type FitMetrics struct {
	// Points is the number of control point pairs
	Points int

	// RMSError is the root mean square residual distance in source pixels
	RMSError float64

	// MeanError and StdError summarize the residual distances
	MeanError float64
	StdError  float64

	// MaxError is the largest residual and WorstPoint its index
	MaxError   float64
	WorstPoint int

	// Coincident lists pairs of destination points that share a location
	Coincident [][2]int
}

// Params holds the pipeline configuration.
type Params struct {
	// PointsFile is a YAML control point file. When empty the warp is read
	// from CoefficientsFile instead of being fitted.
	PointsFile string

	// CoefficientsFile receives the fitted warp, or provides it when
	// PointsFile is empty. Optional when fitting.
	CoefficientsFile string

	// Degree is the fit degree; a degree in the points file takes precedence.
	Degree int

	// InputFile is the raster to correct: a matrix text file or an image.
	InputFile string

	// OutputFile receives the corrected raster, as a matrix text file or an
	// image depending on its extension.
	OutputFile string

	// PreviewFile optionally receives a normalized preview image.
	PreviewFile    string
	PreviewMaxSize int

	// Resample options; a zero Width or Height uses the input size.
	Resample polywarp.ResampleOptions
}

// Registrar runs the pipeline.
type Registrar struct {
	params *Params
	log    *logger.ZerologAdapter
	sink   progress.Sink

	coefficients *polywarp.Coefficients
	metrics      FitMetrics
	input        *raster.Raster
	output       *raster.Raster
}

// NewRegistrar creates a registrar. log and sink may be nil.
func NewRegistrar(params *Params, log *logger.ZerologAdapter, sink progress.Sink) *Registrar {
	if log == nil {
		log = logger.Nop()
	}
	if sink == nil {
		sink = progress.Discard
	}
	return &Registrar{params: params, log: log, sink: sink}
}

// Process runs the complete pipeline. Cancelling ctx aborts the resample
// between rows.
func (r *Registrar) Process(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			r.log.Error(component, err, map[string]interface{}{"input": r.params.InputFile})
		}
	}()

	// Step 1: obtain the warp
	if r.params.PointsFile != "" {
		r.log.Info(component, "Step 1: Fitting polynomial warp", map[string]interface{}{"points": r.params.PointsFile})
		c, m, err := FitFile(r.params.PointsFile, r.params.Degree, r.sink)
		if err != nil {
			return fmt.Errorf("failed to fit warp: %w", err)
		}
		r.coefficients, r.metrics = c, m
		r.log.Info(component, "Polynomial warp fitted", map[string]interface{}{
			"degree":   c.Degree,
			"points":   m.Points,
			"rmsError": m.RMSError,
			"maxError": m.MaxError,
		})
		if len(m.Coincident) > 0 {
			r.log.Warning(component, "Coincident destination control points", map[string]interface{}{"pairs": m.Coincident})
		}
		if r.params.CoefficientsFile != "" {
			if err := dataio.SaveCoefficients(r.params.CoefficientsFile, CoefficientFile(c, m)); err != nil {
				return fmt.Errorf("failed to save coefficients: %w", err)
			}
		}
	} else {
		r.log.Info(component, "Step 1: Loading polynomial warp", map[string]interface{}{"coefficients": r.params.CoefficientsFile})
		c, err := dataio.LoadCoefficients(r.params.CoefficientsFile)
		if err != nil {
			return fmt.Errorf("failed to load coefficients: %w", err)
		}
		r.coefficients = c
	}

	// Step 2: load the input raster
	r.log.Info(component, "Step 2: Loading input raster", map[string]interface{}{"input": r.params.InputFile})
	in, err := LoadRaster(r.params.InputFile)
	if err != nil {
		return fmt.Errorf("failed to load input: %w", err)
	}
	r.input = in

	// Step 3: resample
	opts := r.params.Resample
	if opts.Width == 0 {
		opts.Width = in.Width
	}
	if opts.Height == 0 {
		opts.Height = in.Height
	}
	opts.Progress = progress.WithContext(ctx, r.sink)
	r.log.Info(component, "Step 3: Resampling", map[string]interface{}{
		"width":         opts.Width,
		"height":        opts.Height,
		"interpolation": opts.Interpolation,
	})
	out, err := r.coefficients.Resample(in, opts)
	if err != nil {
		return fmt.Errorf("failed to resample: %w", err)
	}
	r.output = out

	// Step 4: save results
	r.log.Info(component, "Step 4: Saving output", map[string]interface{}{"output": r.params.OutputFile})
	if err := SaveRaster(r.params.OutputFile, out); err != nil {
		return fmt.Errorf("failed to save output: %w", err)
	}
	if r.params.PreviewFile != "" {
		if err := visualization.SavePreview(out, r.params.PreviewFile, r.params.PreviewMaxSize); err != nil {
			r.log.Warning(component, "Failed to save preview", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// GetMetrics returns the fit metrics of the last Process call. They are zero
// when the warp was loaded rather than fitted.
func (r *Registrar) GetMetrics() FitMetrics {
	return r.metrics
}

// Coefficients returns the warp used by the last Process call.
func (r *Registrar) Coefficients() *polywarp.Coefficients {
	return r.coefficients
}

// Output returns the corrected raster of the last Process call.
func (r *Registrar) Output() *raster.Raster {
	return r.output
}

// FitFile loads a control point file and fits a warp to it. degree is used
// when the file does not specify one.
func FitFile(path string, degree int, sink progress.Sink) (*polywarp.Coefficients, FitMetrics, error) {
	f, err := dataio.LoadControlPoints(path)
	if err != nil {
		return nil, FitMetrics{}, err
	}
	if f.Degree != 0 {
		degree = f.Degree
	}
	src, dst := dataio.Points(f)
	coincident := CoincidentPoints(dst, coincidenceTolerance)
	c, err := polywarp.Fit(src, dst, degree, sink)
	if err != nil {
		if len(coincident) > 0 && errors.Is(err, polywarp.ErrSingularSystem) {
			return nil, FitMetrics{}, fmt.Errorf("destination points %d and %d coincide: %w",
				coincident[0][0], coincident[0][1], err)
		}
		return nil, FitMetrics{}, err
	}
	m, err := CalculateFitMetrics(c, src, dst)
	if err != nil {
		return nil, FitMetrics{}, err
	}
	m.Coincident = coincident
	return c, m, nil
}

// CalculateFitMetrics evaluates c at every destination point and summarizes
// the distances to the paired source points.
func CalculateFitMetrics(c *polywarp.Coefficients, src, dst []polywarp.Point) (FitMetrics, error) {
	res, err := c.Residuals(src, dst)
	if err != nil {
		return FitMetrics{}, err
	}
	m := FitMetrics{Points: len(res)}
	if len(res) == 0 {
		return m, nil
	}
	m.RMSError = math.Sqrt(floats.Dot(res, res) / float64(len(res)))
	m.MeanError = stat.Mean(res, nil)
	if len(res) > 1 {
		m.StdError = stat.StdDev(res, nil)
	}
	m.WorstPoint = floats.MaxIdx(res)
	m.MaxError = res[m.WorstPoint]
	return m, nil
}

// CoefficientFile builds the on-disk form of a fitted warp.
func CoefficientFile(c *polywarp.Coefficients, m FitMetrics) *models.CoefficientFile {
	return &models.CoefficientFile{
		Degree:   c.Degree,
		Kx:       c.Kx,
		Ky:       c.Ky,
		RMSError: m.RMSError,
		MaxError: m.MaxError,
		Points:   m.Points,
	}
}

// LoadRaster reads an image file or a matrix text file.
func LoadRaster(path string) (*raster.Raster, error) {
	if visualization.IsImagePath(path) {
		img, err := visualization.LoadImage(path)
		if err != nil {
			return nil, err
		}
		return visualization.FromImage(img), nil
	}
	return dataio.LoadMatrix(path)
}

// SaveRaster writes r as an image or as a matrix text file. Image output
// keeps the levels of rasters within [0, 1], the range LoadRaster produces for
// images; any other raster is stretched over the full gray range.
func SaveRaster(path string, r *raster.Raster) error {
	if visualization.IsImagePath(path) {
		lo, hi := r.MinMax()
		if lo >= 0 && hi <= 1 {
			return visualization.SaveImage(visualization.ToImageRange(r, 0, 1), path)
		}
		return visualization.SaveImage(visualization.ToImage(r), path)
	}
	return dataio.SaveMatrix(path, r)
}

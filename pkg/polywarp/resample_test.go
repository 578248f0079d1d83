package polywarp

import (
	"errors"
	"math"
	"strings"
	"testing"

	"polywarp/pkg/progress"
	"polywarp/pkg/raster"
)

// createTestRaster creates a raster whose sample at (x, y) is pattern(x, y)
func createTestRaster(width, height int, pattern func(x, y int) float64) *raster.Raster {
	r := raster.New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r.Set(x, y, pattern(x, y))
		}
	}
	return r
}

func gridPattern(x, y int) float64 {
	return float64(10*y + x)
}

// recordingSink records every report and aborts once abortAfter Normal
// reports have been seen (never when abortAfter is zero)
type recordingSink struct {
	messages   []string
	percents   []int
	severities []progress.Severity
	normal     int
	abortAfter int
}

func (s *recordingSink) Report(message string, percent int, severity progress.Severity) {
	s.messages = append(s.messages, message)
	s.percents = append(s.percents, percent)
	s.severities = append(s.severities, severity)
	if severity == progress.Normal {
		s.normal++
	}
}

func (s *recordingSink) Aborted() bool {
	return s.abortAfter > 0 && s.normal >= s.abortAfter
}

func TestResampleIdentityShift(t *testing.T) {
	in := createTestRaster(10, 10, gridPattern)
	kx := []float64{1, 0, 1, 0}
	ky := []float64{1, 1, 0, 0}

	for _, interp := range []int{0, 1, 2, 3} {
		out, err := Resample(in, kx, ky, ResampleOptions{Width: 4, Height: 4, Interpolation: interp})
		if err != nil {
			t.Fatalf("interpolation %d: Resample failed: %v", interp, err)
		}
		if out.Width != 4 || out.Height != 4 {
			t.Fatalf("interpolation %d: expected 4x4 output, got %dx%d", interp, out.Width, out.Height)
		}
		for oy := 0; oy < 4; oy++ {
			for ox := 0; ox < 4; ox++ {
				if got, want := out.At(ox, oy), in.At(ox+1, oy+1); got != want {
					t.Errorf("interpolation %d: output(%d,%d) = %g, expected %g", interp, ox, oy, got, want)
				}
			}
		}
	}
}

func TestResampleHalfPixelShift(t *testing.T) {
	in := createTestRaster(10, 10, gridPattern)
	kx := []float64{3, 0, 1, 0}
	ky := []float64{2.5, 1, 0, 0}

	out, err := Resample(in, kx, ky, ResampleOptions{Width: 5, Height: 5, Interpolation: 1})
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	for oy := 0; oy < 5; oy++ {
		for ox := 0; ox < 5; ox++ {
			want := 10*(float64(oy)+2.5) + float64(ox) + 3
			if math.Abs(out.At(ox, oy)-want) > 1e-12 {
				t.Errorf("output(%d,%d) = %g, expected %g", ox, oy, out.At(ox, oy), want)
			}
		}
	}
}

func TestResampleScale(t *testing.T) {
	in := createTestRaster(10, 10, gridPattern)
	kx := []float64{0, 0, 2, 0}
	ky := []float64{0, 2, 0, 0}

	out, err := Resample(in, kx, ky, ResampleOptions{Width: 5, Height: 5, Interpolation: 1})
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	for oy := 0; oy < 5; oy++ {
		for ox := 0; ox < 5; ox++ {
			if got, want := out.At(ox, oy), in.At(2*ox, 2*oy); got != want {
				t.Errorf("output(%d,%d) = %g, expected %g", ox, oy, got, want)
			}
		}
	}
}

func TestResampleOffsets(t *testing.T) {
	in := createTestRaster(10, 10, gridPattern)
	kx := []float64{1, 0, 1, 0}
	ky := []float64{1, 1, 0, 0}

	out, err := Resample(in, kx, ky, ResampleOptions{
		Width: 3, Height: 2, XOffset: 2, YOffset: 4, Interpolation: 1,
	})
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	for oy := 0; oy < 2; oy++ {
		for ox := 0; ox < 3; ox++ {
			if got, want := out.At(ox, oy), in.At(ox+3, oy+5); got != want {
				t.Errorf("output(%d,%d) = %g, expected %g", ox, oy, got, want)
			}
		}
	}
}

func TestResampleOutsideExtentUsesFill(t *testing.T) {
	in := createTestRaster(10, 10, gridPattern)
	// Shift by 7 columns: only the first 3 output columns map inside
	kx := []float64{7, 0, 1, 0}
	ky := []float64{0, 1, 0, 0}
	sink := &recordingSink{}

	out, err := Resample(in, kx, ky, ResampleOptions{
		Width: 5, Height: 2, Interpolation: 1, Fill: -1, Progress: sink,
	})
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	for oy := 0; oy < 2; oy++ {
		for ox := 0; ox < 5; ox++ {
			want := -1.0
			if ox < 3 {
				want = in.At(ox+7, oy)
			}
			if got := out.At(ox, oy); got != want {
				t.Errorf("output(%d,%d) = %g, expected %g", ox, oy, got, want)
			}
		}
	}

	last := len(sink.severities) - 1
	if last < 0 || sink.severities[last] != progress.Warning {
		t.Fatalf("Expected a final warning report, got %v", sink.severities)
	}
	if !strings.HasPrefix(sink.messages[last], "4 of 10 output samples") {
		t.Errorf("Unexpected warning message %q", sink.messages[last])
	}
}

func TestResampleDefaultFillIsZero(t *testing.T) {
	in := createTestRaster(4, 4, func(x, y int) float64 { return 5 })
	out, err := Resample(in, []float64{100, 0, 1, 0}, []float64{0, 1, 0, 0},
		ResampleOptions{Width: 2, Height: 2, Interpolation: 0})
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	for i, v := range out.Data {
		if v != 0 {
			t.Errorf("sample %d = %g, expected fill 0", i, v)
		}
	}
}

func TestResampleProgressPerRow(t *testing.T) {
	in := createTestRaster(10, 10, gridPattern)
	sink := &recordingSink{}
	_, err := Resample(in, []float64{0, 0, 1, 0}, []float64{0, 1, 0, 0},
		ResampleOptions{Width: 10, Height: 4, Interpolation: 1, Progress: sink})
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	want := []int{25, 50, 75, 100}
	if len(sink.percents) != len(want) {
		t.Fatalf("Expected %d reports, got %v", len(want), sink.percents)
	}
	for i := range want {
		if sink.percents[i] != want[i] || sink.severities[i] != progress.Normal {
			t.Errorf("report %d = %d%% (%v), expected %d%% normal", i, sink.percents[i], sink.severities[i], want[i])
		}
	}
}

func TestResampleCancellation(t *testing.T) {
	in := createTestRaster(10, 10, gridPattern)
	sink := &recordingSink{abortAfter: 2}

	out, err := Resample(in, []float64{0, 0, 1, 0}, []float64{0, 1, 0, 0},
		ResampleOptions{Width: 10, Height: 8, Interpolation: 1, Progress: sink})
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("Expected ErrAborted, got %v", err)
	}
	if out != nil {
		t.Error("Aborted resample must not return a raster")
	}
	if sink.normal != 2 {
		t.Errorf("Expected processing to stop after 2 rows, got %d row reports", sink.normal)
	}
}

func TestResampleCancelledBeforeStart(t *testing.T) {
	in := createTestRaster(4, 4, gridPattern)
	a := progress.NewAbortable(nil)
	a.Abort()
	_, err := Resample(in, []float64{0, 0, 1, 0}, []float64{0, 1, 0, 0},
		ResampleOptions{Width: 4, Height: 4, Progress: a})
	if !errors.Is(err, ErrAborted) {
		t.Errorf("Expected ErrAborted, got %v", err)
	}
}

func TestResampleDeterministic(t *testing.T) {
	in := createTestRaster(32, 32, func(x, y int) float64 {
		return math.Sin(float64(x)/3) * math.Cos(float64(y)/5) * 100
	})
	kx := []float64{1.3, 0.02, 0.0001, 0.97, -0.001, 0.00002, 0.0003, 0, -0.000001}
	ky := []float64{-0.7, 1.02, 0.0002, 0.03, 0.0007, 0, -0.0001, 0.00001, 0}

	for _, interp := range []int{0, 1, 3} {
		opts := ResampleOptions{Width: 28, Height: 27, XOffset: 1, YOffset: 2, Interpolation: interp}
		a, err := Resample(in, kx, ky, opts)
		if err != nil {
			t.Fatalf("interpolation %d: Resample failed: %v", interp, err)
		}
		b, err := Resample(in, kx, ky, opts)
		if err != nil {
			t.Fatalf("interpolation %d: Resample failed: %v", interp, err)
		}
		for i := range a.Data {
			if math.Float64bits(a.Data[i]) != math.Float64bits(b.Data[i]) {
				t.Fatalf("interpolation %d: sample %d differs between runs: %g vs %g", interp, i, a.Data[i], b.Data[i])
			}
		}
	}
}

func TestResampleDoesNotModifyInput(t *testing.T) {
	in := createTestRaster(6, 6, gridPattern)
	before := append([]float64(nil), in.Data...)
	if _, err := Resample(in, []float64{0.5, 0, 1, 0}, []float64{0.5, 1, 0, 0},
		ResampleOptions{Width: 6, Height: 6, Interpolation: 3}); err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	for i := range before {
		if in.Data[i] != before[i] {
			t.Fatalf("input sample %d changed", i)
		}
	}
}

func TestResampleInvalidInput(t *testing.T) {
	in := createTestRaster(4, 4, gridPattern)
	kx := []float64{0, 0, 1, 0}
	ky := []float64{0, 1, 0, 0}
	tests := []struct {
		name string
		in   *raster.Raster
		opts ResampleOptions
	}{
		{"nil raster", nil, ResampleOptions{Width: 2, Height: 2}},
		{"empty raster", &raster.Raster{}, ResampleOptions{Width: 2, Height: 2}},
		{"short data", &raster.Raster{Width: 2, Height: 2, Data: []float64{1}}, ResampleOptions{Width: 2, Height: 2}},
		{"zero width", in, ResampleOptions{Width: 0, Height: 2}},
		{"negative height", in, ResampleOptions{Width: 2, Height: -1}},
		{"negative interpolation", in, ResampleOptions{Width: 2, Height: 2, Interpolation: -1}},
	}
	for _, tt := range tests {
		out, err := Resample(tt.in, kx, ky, tt.opts)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", tt.name, err)
		}
		if out != nil {
			t.Errorf("%s: expected no output", tt.name)
		}
	}
}

func TestResampleInputSmallerThanKernel(t *testing.T) {
	kx := []float64{0, 0, 1, 0}
	ky := []float64{0, 1, 0, 0}

	// a single column still interpolates along y
	column := createTestRaster(1, 3, gridPattern)
	out, err := Resample(column, kx, ky, ResampleOptions{Width: 1, Height: 3, Interpolation: 1})
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	for y := 0; y < 3; y++ {
		if out.At(0, y) != column.At(0, y) {
			t.Errorf("(0,%d): expected %v, got %v", y, column.At(0, y), out.At(0, y))
		}
	}

	// a 4x4 input cannot hold a 5x5 Lagrange neighbourhood: every sample is filled
	sink := &recordingSink{}
	in := createTestRaster(4, 4, gridPattern)
	out, err = Resample(in, kx, ky, ResampleOptions{Width: 2, Height: 2, Interpolation: 4, Fill: -7, Progress: sink})
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	for i, v := range out.Data {
		if v != -7 {
			t.Errorf("sample %d: expected fill -7, got %v", i, v)
		}
	}
	last := len(sink.severities) - 1
	if last < 0 || sink.severities[last] != progress.Warning {
		t.Error("Expected a final fill warning")
	}
}

func TestResampleDimensionMismatch(t *testing.T) {
	in := createTestRaster(4, 4, gridPattern)
	opts := ResampleOptions{Width: 2, Height: 2}
	tests := []struct {
		name   string
		kx, ky []float64
		degree int
	}{
		{"unequal lengths", []float64{0, 0, 1, 0}, []float64{0, 1, 0}, 0},
		{"not a square", []float64{0, 0, 1, 0, 0}, []float64{0, 1, 0, 0, 0}, 0},
		{"declared degree", []float64{0, 0, 1, 0}, []float64{0, 1, 0, 0}, 2},
	}
	for _, tt := range tests {
		o := opts
		o.Degree = tt.degree
		if _, err := Resample(in, tt.kx, tt.ky, o); !errors.Is(err, ErrDimensionMismatch) {
			t.Errorf("%s: expected ErrDimensionMismatch, got %v", tt.name, err)
		}
	}
}

func TestFitThenResample(t *testing.T) {
	// The output frame is the input shifted by (2, 1) and scaled by 0.5
	dst := []Point{{0, 0}, {0, 8}, {8, 8}, {8, 0}, {4, 4}}
	src := mapPoints(dst, func(p Point) Point {
		return Point{X: p.X*0.5 + 2, Y: p.Y*0.5 + 1}
	})
	c, err := Fit(src, dst, 1, nil)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	in := createTestRaster(10, 10, gridPattern)
	out, err := c.Resample(in, ResampleOptions{Width: 8, Height: 8, Interpolation: 1, Degree: 1})
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	for oy := 0; oy < 8; oy++ {
		for ox := 0; ox < 8; ox++ {
			want := 10*(float64(oy)*0.5+1) + float64(ox)*0.5 + 2
			if math.Abs(out.At(ox, oy)-want) > 1e-9 {
				t.Errorf("output(%d,%d) = %g, expected %g", ox, oy, out.At(ox, oy), want)
			}
		}
	}
}

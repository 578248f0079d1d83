package progress

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "normal", Normal.String())
	assert.Equal(t, "warning", Warning.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "unknown", Severity(42).String())
}

func TestNilSinkHelpers(t *testing.T) {
	assert.NotPanics(t, func() { Report(nil, "x", 10, Normal) })
	assert.False(t, Aborted(nil))
	assert.False(t, Aborted(Discard))
}

func TestFuncSink(t *testing.T) {
	var got []int
	s := Func(func(_ string, percent int, _ Severity) {
		got = append(got, percent)
	})
	Report(s, "a", 10, Normal)
	Report(s, "b", 20, Normal)
	assert.Equal(t, []int{10, 20}, got)
	assert.False(t, s.Aborted())
}

func TestAbortable(t *testing.T) {
	a := NewAbortable(nil)
	assert.False(t, a.Aborted())
	a.Abort()
	assert.True(t, a.Aborted())

	inner := NewAbortable(nil)
	outer := NewAbortable(inner)
	inner.Abort()
	assert.True(t, outer.Aborted())
}

func TestWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := WithContext(ctx, nil)
	assert.False(t, s.Aborted())
	cancel()
	assert.True(t, s.Aborted())
}

func TestBar(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar(&buf)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	b.now = func() time.Time { return now }

	b.Report("Resampling", 0, Normal)
	now = start.Add(2 * time.Second)
	b.Report("Resampling", 50, Normal)
	out := buf.String()
	assert.Contains(t, out, " 50%")
	assert.Contains(t, out, "2.0s elapsed")
	assert.Contains(t, out, "2.0s remaining")

	buf.Reset()
	b.Report("done", 100, Normal)
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.Equal(t, 40, strings.Count(buf.String(), "█"))

	buf.Reset()
	b.Report("12 samples filled", 100, Warning)
	assert.Contains(t, buf.String(), "WARNING: 12 samples filled")
}

func TestBarTimesOperationsSeparately(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar(&buf)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	b.now = func() time.Time { return now }

	// a fit taking ten seconds, then a resample
	b.Report("Building polynomial system", 0, Normal)
	now = start.Add(10 * time.Second)
	b.Report("Polynomial fit complete", 100, Normal)

	buf.Reset()
	now = start.Add(12 * time.Second)
	b.Report("Resampling", 50, Normal)
	assert.Contains(t, buf.String(), "2.0s elapsed")

	// going backwards restarts the clock
	now = start.Add(20 * time.Second)
	b.Report("Resampling", 10, Normal)
	buf.Reset()
	now = start.Add(21 * time.Second)
	b.Report("Resampling", 20, Normal)
	assert.Contains(t, buf.String(), "1.0s elapsed")
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "30.0s", formatRemaining(30))
	assert.Equal(t, "2.0m", formatRemaining(120))
	assert.Equal(t, "1.5h", formatRemaining(5400))
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	for p := 0; p <= 100; p += 5 {
		l.Report("row", p, Normal)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 11)
	assert.Contains(t, lines[0], `"percent":0`)
	assert.Contains(t, lines[10], `"percent":100`)

	buf.Reset()
	l.Report("outside extent", 100, Warning)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"severity":"warning"`)
}

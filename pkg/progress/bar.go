package progress

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Bar renders reports as a single-line terminal progress bar with elapsed and
// remaining time. Warning and Error reports are printed on their own line.
// The clock restarts when an operation completes or when the percentage goes
// backwards, so consecutive operations sharing a bar are timed separately.
type Bar struct {
	out       io.Writer
	width     int
	startTime time.Time
	last      int
	now       func() time.Time
}

// NewBar creates a bar writing to out.
func NewBar(out io.Writer) *Bar {
	return &Bar{
		out:   out,
		width: 40,
		now:   time.Now,
	}
}

// ResetTimer restarts the elapsed/remaining clock.
func (b *Bar) ResetTimer() {
	b.startTime = b.now()
}

func (b *Bar) Aborted() bool { return false }

func (b *Bar) Report(message string, percent int, severity Severity) {
	if severity != Normal {
		fmt.Fprintf(b.out, "\n%s: %s\n", strings.ToUpper(severity.String()), message)
		return
	}
	percent = max(0, min(100, percent))
	if b.startTime.IsZero() || percent < b.last {
		b.ResetTimer()
	}
	b.last = percent

	numBars := percent * b.width / 100
	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < b.width; i++ {
		switch {
		case i < numBars:
			sb.WriteString("█")
		case i == numBars:
			sb.WriteString("▓")
		default:
			sb.WriteString("░")
		}
	}
	sb.WriteByte(']')

	timing := ""
	if percent > 0 {
		elapsed := b.now().Sub(b.startTime)
		remaining := 0.0
		if percent < 100 {
			remaining = elapsed.Seconds() / float64(percent) * float64(100-percent)
		}
		timing = fmt.Sprintf(" [%.1fs elapsed | %s remaining]", elapsed.Seconds(), formatRemaining(remaining))
	}

	fmt.Fprintf(b.out, "\r%s %3d%%%s | %s", sb.String(), percent, timing, message)
	if percent >= 100 {
		fmt.Fprintln(b.out)
		b.ResetTimer()
		b.last = 0
	}
}

func formatRemaining(seconds float64) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.1fs", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%.1fm", seconds/60)
	default:
		return fmt.Sprintf("%.1fh", seconds/3600)
	}
}

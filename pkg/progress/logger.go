package progress

import (
	"github.com/rs/zerolog"
)

// Logger forwards reports to a zerolog logger. Normal reports are logged at
// info level each time another Step percent has been completed and at debug
// level otherwise.
type Logger struct {
	log  zerolog.Logger
	Step int

	next int
}

// NewLogger creates a sink logging to log with a 10% info step.
func NewLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log, Step: 10}
}

func (l *Logger) Aborted() bool { return false }

func (l *Logger) Report(message string, percent int, severity Severity) {
	var event *zerolog.Event
	switch severity {
	case Warning:
		event = l.log.Warn()
	case Error:
		event = l.log.Error()
	default:
		if l.Step <= 0 || percent >= l.next {
			event = l.log.Info()
			if l.Step > 0 {
				l.next = (percent/l.Step + 1) * l.Step
			}
		} else {
			event = l.log.Debug()
		}
	}
	event.Str("severity", severity.String()).Int("percent", percent).Msg(message)
}

package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Commands log to stderr; stdout is reserved for traces and rendered text so
// that "run -o - | play -" pipelines stay clean.

// newLogger creates the command logger. At debug level it also reports the
// caller, which is what --verbose is for.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		ReportCaller:    level <= log.DebugLevel,
		Level:           level,
	})
}

// levelFor maps the --verbose and --quiet flags to a level. Verbose wins.
func levelFor(verbose, quiet bool) log.Level {
	switch {
	case verbose:
		return log.DebugLevel
	case quiet:
		return log.WarnLevel
	}
	return log.InfoLevel
}

// timer measures one export or service call and logs it with an elapsed
// field. Not safe for concurrent use.
type timer struct {
	logger *log.Logger
	start  time.Time
}

func startTimer(l *log.Logger) *timer {
	return &timer{logger: l, start: time.Now()}
}

// done logs msg at info level, e.g. `export finished kind=gif frames=12 elapsed=1.234s`.
func (t *timer) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(t.start).Round(time.Millisecond))
	t.logger.Info(msg, keyvals...)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the command logger, or log.Default() outside a
// command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

package telemetry

import (
	"log"

	"github.com/awesomecuber/tron/logging"
)

// Logger is the printf-style surface engine components log through. The
// standard library's *log.Logger satisfies it directly.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts a function to Logger. A nil function logs nowhere.
type LoggerFunc func(format string, args ...any)

func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

// WrapLogger makes a possibly-nil standard logger safe to hand out.
func WrapLogger(logger *log.Logger) Logger {
	if logger == nil {
		return LoggerFunc(nil)
	}
	return logger
}

// Metrics is the counter surface engine components record through.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}

type nopMetrics struct{}

func (nopMetrics) Add(string, uint64) {}

func (nopMetrics) Store(string, uint64) {}

// WrapMetrics makes a possibly-nil accumulator safe to hand out.
func WrapMetrics(metrics *logging.Metrics) Metrics {
	if metrics == nil {
		return nopMetrics{}
	}
	return metrics
}

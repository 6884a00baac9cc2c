package logging

import "time"

// Config controls routing and the built-in sinks.
type Config struct {
	// EnabledSinks whitelists sink names. Empty enables every sink handed
	// to NewRouter.
	EnabledSinks []string
	// BufferSize bounds events queued between the frame loop and the
	// dispatch goroutine. Publishing against a full buffer drops the event.
	BufferSize      int
	MinimumSeverity Severity
	// Fields is stamped into every event's Extra unless the event already
	// set the key. Useful for build or session identifiers.
	Fields  map[string]any
	JSON    JSONConfig
	Console ConsoleConfig
	// DropWarnInterval throttles the fallback warning emitted when events
	// are dropped or a sink keeps failing.
	DropWarnInterval time.Duration
}

type JSONConfig struct {
	FilePath      string
	FlushInterval time.Duration
}

type ConsoleConfig struct {
	UseColor bool
}

func DefaultConfig() Config {
	return Config{
		EnabledSinks:     []string{"console"},
		BufferSize:       512,
		MinimumSeverity:  SeverityInfo,
		DropWarnInterval: 5 * time.Second,
		JSON: JSONConfig{
			FlushInterval: 2 * time.Second,
		},
	}
}

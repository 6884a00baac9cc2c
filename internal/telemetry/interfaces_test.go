package telemetry

import (
	"bytes"
	"log"
	"testing"

	"github.com/awesomecuber/tron/logging"
)

func TestWrapLoggerForwardsAndToleratesNil(t *testing.T) {
	var buf bytes.Buffer
	logger := WrapLogger(log.New(&buf, "", 0))
	logger.Printf("frame %d", 7)
	if got := buf.String(); got != "frame 7\n" {
		t.Fatalf("unexpected output %q", got)
	}

	WrapLogger(nil).Printf("dropped")
	LoggerFunc(nil).Printf("dropped")
}

func TestWrapMetricsRecordsThrough(t *testing.T) {
	var metrics logging.Metrics
	wrapped := WrapMetrics(&metrics)

	wrapped.Add("rollback_total", 2)
	wrapped.Store("rollback_depth", 5)
	wrapped.Add("rollback_total", 1)

	if got := metrics.Value("rollback_total"); got != 3 {
		t.Fatalf("expected counter 3, got %d", got)
	}
	if got := metrics.Value("rollback_depth"); got != 5 {
		t.Fatalf("expected stored 5, got %d", got)
	}

	nop := WrapMetrics(nil)
	nop.Add("ignored", 1)
	nop.Store("ignored", 1)
}

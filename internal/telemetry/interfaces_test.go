package telemetry

import (
	"bytes"
	"log"
	"testing"

	"github.com/moxitooo/zzzmeika/logging"
)

func TestWrapLoggerForwardsLines(t *testing.T) {
	var buf bytes.Buffer
	logger := WrapLogger(log.New(&buf, "", 0))
	logger.Printf("room %s has %d members", "walls_small", 2)
	if got := buf.String(); got != "room walls_small has 2 members\n" {
		t.Fatalf("unexpected log output: %q", got)
	}

	WrapLogger(nil).Printf("ignored")
	NopLogger().Printf("ignored")
	var nilFunc LoggerFunc
	nilFunc.Printf("ignored")
}

func TestWrapMetricsFeedsSnapshot(t *testing.T) {
	metrics := logging.NewMetrics()
	adapter := WrapMetrics(metrics)
	adapter.Add("hub.moves", 2)
	adapter.Add("hub.moves", 3)
	adapter.Store("hub.sessions", 4)

	snapshot := metrics.Snapshot()
	if snapshot["hub.moves"] != 5 || snapshot["hub.sessions"] != 4 {
		t.Fatalf("unexpected snapshot %v", snapshot)
	}
	if keys := metrics.Keys(); len(keys) != 2 || keys[0] != "hub.moves" {
		t.Fatalf("unexpected keys %v", keys)
	}

	nilAdapter := WrapMetrics(nil)
	nilAdapter.Add("ignored", 1)
	nilAdapter.Store("ignored", 1)
}

package server

import (
	"sync/atomic"

	"github.com/moxitooo/zzzmeika/internal/telemetry"
)

type telemetryCounters struct {
	messagesSent     atomic.Uint64
	bytesSent        atomic.Uint64
	sendFailures     atomic.Uint64
	framesReceived   atomic.Uint64
	malformedFrames  atomic.Uint64
	moves            atomic.Uint64
	deaths           atomic.Uint64
	recordsStored    atomic.Uint64
	recordsDuplicate atomic.Uint64
	storeFailures    atomic.Uint64
	metrics          telemetry.Metrics
}

type telemetrySnapshot struct {
	MessagesSent     uint64 `json:"messagesSent"`
	BytesSent        uint64 `json:"bytesSent"`
	SendFailures     uint64 `json:"sendFailures"`
	FramesReceived   uint64 `json:"framesReceived"`
	MalformedFrames  uint64 `json:"malformedFrames"`
	Moves            uint64 `json:"moves"`
	Deaths           uint64 `json:"deaths"`
	RecordsStored    uint64 `json:"recordsStored"`
	RecordsDuplicate uint64 `json:"recordsDuplicate"`
	StoreFailures    uint64 `json:"storeFailures"`
}

func newTelemetryCounters(metrics telemetry.Metrics) *telemetryCounters {
	return &telemetryCounters{metrics: metrics}
}

func (t *telemetryCounters) add(counter *atomic.Uint64, key string, delta uint64) {
	counter.Add(delta)
	if t.metrics != nil {
		t.metrics.Add(key, delta)
	}
}

func (t *telemetryCounters) RecordSend(bytes int) {
	if bytes < 0 {
		bytes = 0
	}
	t.add(&t.messagesSent, "hub.messages_sent", 1)
	t.add(&t.bytesSent, "hub.bytes_sent", uint64(bytes))
}

func (t *telemetryCounters) RecordSendFailure() {
	t.add(&t.sendFailures, "hub.send_failures", 1)
}

func (t *telemetryCounters) RecordFrame(malformed bool) {
	t.add(&t.framesReceived, "hub.frames_received", 1)
	if malformed {
		t.add(&t.malformedFrames, "hub.frames_malformed", 1)
	}
}

func (t *telemetryCounters) RecordMove() {
	t.add(&t.moves, "game.moves", 1)
}

func (t *telemetryCounters) RecordDeath() {
	t.add(&t.deaths, "game.deaths", 1)
}

func (t *telemetryCounters) RecordStore(stored, duplicate, failed bool) {
	switch {
	case failed:
		t.add(&t.storeFailures, "leaderboard.failures", 1)
	case duplicate:
		t.add(&t.recordsDuplicate, "leaderboard.duplicates", 1)
	case stored:
		t.add(&t.recordsStored, "leaderboard.stored", 1)
	}
}

func (t *telemetryCounters) Snapshot() telemetrySnapshot {
	return telemetrySnapshot{
		MessagesSent:     t.messagesSent.Load(),
		BytesSent:        t.bytesSent.Load(),
		SendFailures:     t.sendFailures.Load(),
		FramesReceived:   t.framesReceived.Load(),
		MalformedFrames:  t.malformedFrames.Load(),
		Moves:            t.moves.Load(),
		Deaths:           t.deaths.Load(),
		RecordsStored:    t.recordsStored.Load(),
		RecordsDuplicate: t.recordsDuplicate.Load(),
		StoreFailures:    t.storeFailures.Load(),
	}
}

package persistence

import (
	"context"

	"github.com/moxitooo/zzzmeika/logging"
)

const (
	// EventRecordStored is emitted when a leaderboard record is inserted.
	EventRecordStored logging.EventType = "persistence.record_stored"
	// EventRecordDuplicate is emitted when the store rejects an identical record.
	EventRecordDuplicate logging.EventType = "persistence.record_duplicate"
	// EventStoreFailed is emitted when a store call returns an error.
	EventStoreFailed logging.EventType = "persistence.store_failed"
	// EventCleanup is emitted after retention trimming.
	EventCleanup logging.EventType = "persistence.cleanup"
)

// RecordPayload identifies a leaderboard submission.
type RecordPayload struct {
	RecordID   int64  `json:"recordId,omitempty"`
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
	GameMode   string `json:"gameMode"`
	FieldSize  string `json:"fieldSize"`
}

// FailurePayload captures a failed store operation.
type FailurePayload struct {
	Op    string `json:"op"`
	Error string `json:"error"`
}

// CleanupPayload captures how many rows retention removed.
type CleanupPayload struct {
	Removed int64 `json:"removed"`
}

func RecordStored(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload RecordPayload, extra map[string]any) {
	publish(ctx, pub, EventRecordStored, logging.SeverityInfo, actor, payload, extra)
}

func RecordDuplicate(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload RecordPayload, extra map[string]any) {
	publish(ctx, pub, EventRecordDuplicate, logging.SeverityDebug, actor, payload, extra)
}

func StoreFailed(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload FailurePayload, extra map[string]any) {
	publish(ctx, pub, EventStoreFailed, logging.SeverityError, actor, payload, extra)
}

func Cleanup(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload CleanupPayload, extra map[string]any) {
	publish(ctx, pub, EventCleanup, logging.SeverityDebug, actor, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, typ logging.EventType, sev logging.Severity, actor logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	traceID, _ := extra[logging.ExtraTraceID].(string)
	pub.Publish(ctx, logging.Event{
		Type:     typ,
		Actor:    actor,
		Severity: sev,
		Category: logging.CategoryPersistence,
		Payload:  payload,
		Extra:    extra,
		TraceID:  traceID,
	})
}

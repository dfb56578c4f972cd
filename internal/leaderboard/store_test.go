package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})
	return store
}

func TestDuplicateSubmissionIsRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	rec := Record{PlayerName: "alice", Score: 120, SnakeLength: 15, FoodEaten: 12, GameMode: "walls", FieldSize: "medium"}

	id, ok, err := store.AddRecord(ctx, rec)
	if err != nil || !ok || id == 0 {
		t.Fatalf("first insert: id=%d ok=%v err=%v", id, ok, err)
	}

	rec.SnakeLength = 99
	id, ok, err = store.AddRecord(ctx, rec)
	if err != nil {
		t.Fatalf("duplicate insert returned error: %v", err)
	}
	if ok || id != 0 {
		t.Fatalf("expected duplicate to be rejected, got id=%d ok=%v", id, ok)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one stored record, got %d", n)
	}
}

func TestSameScoreInOtherFieldSizeIsNotDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, size := range []string{"small", "medium"} {
		if _, ok, err := store.AddRecord(ctx, Record{PlayerName: "bob", Score: 50, GameMode: "classic", FieldSize: size}); err != nil || !ok {
			t.Fatalf("insert %s: ok=%v err=%v", size, ok, err)
		}
	}
}

func TestTopOrdersByScoreThenNewest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	inserts := []Record{
		{PlayerName: "a", Score: 30},
		{PlayerName: "b", Score: 50},
		{PlayerName: "c", Score: 30},
		{PlayerName: "d", Score: 10, GameMode: "walls"},
	}
	for _, rec := range inserts {
		if _, _, err := store.AddRecord(ctx, rec); err != nil {
			t.Fatalf("AddRecord: %v", err)
		}
	}

	top, err := store.Top(ctx, 10, "classic", "medium")
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	want := []string{"b", "c", "a"}
	if len(top) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(top))
	}
	for i, name := range want {
		if top[i].PlayerName != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, top[i].PlayerName)
		}
	}
	if top[0].CreatedAt.IsZero() {
		t.Fatalf("expected creation time to round-trip")
	}

	limited, err := store.Top(ctx, 1, "classic", "medium")
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d records err=%v", len(limited), err)
	}
}

func TestCleanupKeepsBestRecords(t *testing.T) {
	store := newTestStore(t)
	store.SetRetainLimit(3)
	ctx := context.Background()
	for i := 1; i <= 6; i++ {
		if _, _, err := store.AddRecord(ctx, Record{PlayerName: fmt.Sprintf("p%d", i), Score: i * 10}); err != nil {
			t.Fatalf("AddRecord: %v", err)
		}
	}

	removed, err := store.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}
	top, err := store.Top(ctx, 10, "classic", "medium")
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top) != 3 || top[0].Score != 60 || top[2].Score != 40 {
		t.Fatalf("unexpected survivors %+v", top)
	}

	store.SetRetainLimit(0)
	if store.RetainLimit() != 50 {
		t.Fatalf("expected default retain limit, got %d", store.RetainLimit())
	}
}

func TestCleanupDefaultsToFiftyRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for i := 1; i <= 55; i++ {
		if _, _, err := store.AddRecord(ctx, Record{PlayerName: fmt.Sprintf("p%d", i), Score: i}); err != nil {
			t.Fatalf("AddRecord: %v", err)
		}
	}
	removed, err := store.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != 5 {
		t.Fatalf("expected 5 removed, got %d", removed)
	}
	if n, err := store.Count(ctx); err != nil || n != 50 {
		t.Fatalf("expected 50 records kept, got %d err=%v", n, err)
	}
}

func TestClosedStoreReturnsErrClosed(t *testing.T) {
	store := newTestStore(t)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, _, err := store.AddRecord(context.Background(), Record{PlayerName: "x", Score: 1}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := store.Top(context.Background(), 10, "classic", "medium"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

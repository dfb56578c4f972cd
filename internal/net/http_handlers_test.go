package net

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/moxitooo/zzzmeika/internal/game"
	"github.com/moxitooo/zzzmeika/internal/leaderboard"
	"github.com/moxitooo/zzzmeika/logging"
	"github.com/moxitooo/zzzmeika/logging/persistence"
	"github.com/moxitooo/zzzmeika/logging/sinks"
	"github.com/moxitooo/zzzmeika/server"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type failingStore struct{}

func (failingStore) AddRecord(context.Context, leaderboard.Record) (int64, bool, error) {
	return 0, false, errors.New("disk full")
}

func (failingStore) Top(context.Context, int, string, string) ([]leaderboard.Record, error) {
	return nil, errors.New("disk full")
}

func (failingStore) Cleanup(context.Context) (int64, error) { return 0, nil }

func newTestHub() *server.Hub {
	cfg := server.DefaultHubConfig()
	cfg.Seed = "http-test"
	return server.NewHub(cfg, server.HubDeps{})
}

func openStore(t *testing.T) *leaderboard.SQLiteStore {
	t.Helper()
	store, err := leaderboard.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func serve(handler http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode body %q: %v", resp.Body.String(), err)
	}
	return payload
}

func TestHealthAndDiagnostics(t *testing.T) {
	hub := newTestHub()
	hub.Registry().Get(game.Key{Mode: game.ModeWalls, Size: game.FieldSmall})
	handler := NewHTTPHandler(hub, HTTPHandlerConfig{
		Metrics: func() map[string]uint64 { return map[string]uint64{"hub.messages_sent": 3} },
	})

	resp := serve(handler, http.MethodGet, "/health", nil)
	if resp.Code != http.StatusOK || resp.Body.String() != "ok" {
		t.Fatalf("unexpected health response %d %q", resp.Code, resp.Body.String())
	}

	resp = serve(handler, http.MethodGet, "/diagnostics", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	payload := decodeBody(t, resp)
	if payload["status"] != "ok" || payload["sessions"] != float64(0) {
		t.Fatalf("unexpected diagnostics %v", payload)
	}
	if rooms, ok := payload["rooms"].([]any); !ok || len(rooms) != 1 {
		t.Fatalf("expected one room, got %v", payload["rooms"])
	}
	metrics, ok := payload["metrics"].(map[string]any)
	if !ok || metrics["hub.messages_sent"] != float64(3) {
		t.Fatalf("expected metrics in diagnostics, got %v", payload["metrics"])
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	store := openStore(t)
	memory := sinks.NewMemorySink()
	publisher := logging.PublisherFunc(func(_ context.Context, event logging.Event) { memory.Write(event) })
	handler := NewHTTPHandler(newTestHub(), HTTPHandlerConfig{Records: store, Publisher: publisher})

	resp := serve(handler, http.MethodPost, "/api/records", []byte(`{"playerName":"ann","score":120,"gameMode":"walls","fieldSize":"large"}`))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	created := decodeBody(t, resp)
	if created["success"] != true || created["recordId"] == nil {
		t.Fatalf("unexpected create response %v", created)
	}
	if resp.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a request id header")
	}

	resp = serve(handler, http.MethodPost, "/api/records", []byte(`{"playerName":"ann","score":120,"gameMode":"walls","fieldSize":"large"}`))
	duplicate := decodeBody(t, resp)
	if resp.Code != http.StatusOK || duplicate["success"] != true || duplicate["recordId"] != nil {
		t.Fatalf("unexpected duplicate response %d %v", resp.Code, duplicate)
	}

	resp = serve(handler, http.MethodGet, "/api/records?mode=walls&size=large", nil)
	listed := decodeBody(t, resp)
	records, ok := listed["records"].([]any)
	if !ok || len(records) != 1 || listed["total"] != float64(1) {
		t.Fatalf("unexpected list response %v", listed)
	}
	rec := records[0].(map[string]any)
	if rec["player_name"] != "ann" || rec["food_eaten"] != float64(12) || rec["snake_length"] != float64(1) {
		t.Fatalf("defaults not applied: %v", rec)
	}

	stored := memory.EventsOfType(persistence.EventRecordStored)
	if len(stored) != 1 || stored[0].TraceID == "" {
		t.Fatalf("expected one stored event with a trace id, got %+v", stored)
	}
	if len(memory.EventsOfType(persistence.EventRecordDuplicate)) != 1 {
		t.Fatalf("expected one duplicate event")
	}
}

func TestRecordsListDefaults(t *testing.T) {
	handler := NewHTTPHandler(newTestHub(), HTTPHandlerConfig{Records: openStore(t)})
	resp := serve(handler, http.MethodGet, "/api/records?limit=abc", nil)
	payload := decodeBody(t, resp)
	if payload["gameMode"] != "classic" || payload["fieldSize"] != "medium" {
		t.Fatalf("unexpected defaults %v", payload)
	}
	if records, ok := payload["records"].([]any); !ok || len(records) != 0 {
		t.Fatalf("expected an empty array, got %v", payload["records"])
	}
}

func TestCreateRecordRejectsInvalidInput(t *testing.T) {
	handler := NewHTTPHandler(newTestHub(), HTTPHandlerConfig{Records: openStore(t)})
	for name, body := range map[string]string{
		"bad json":     `{"playerName":`,
		"missing name": `{"score":10}`,
		"blank name":   `{"playerName":"  ","score":10}`,
		"zero score":   `{"playerName":"ann","score":0}`,
		"no score":     `{"playerName":"ann"}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp := serve(handler, http.MethodPost, "/api/records", []byte(body))
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.Code)
			}
			if payload := decodeBody(t, resp); payload["success"] != false {
				t.Fatalf("unexpected payload %v", payload)
			}
		})
	}
}

func TestStoreErrorsReturn500(t *testing.T) {
	handler := NewHTTPHandler(newTestHub(), HTTPHandlerConfig{Records: failingStore{}})
	if resp := serve(handler, http.MethodPost, "/api/records", []byte(`{"playerName":"ann","score":10}`)); resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on insert failure, got %d", resp.Code)
	}
	if resp := serve(handler, http.MethodGet, "/api/records", nil); resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on list failure, got %d", resp.Code)
	}
}

func TestPreflightAndCORS(t *testing.T) {
	handler := NewHTTPHandler(newTestHub(), HTTPHandlerConfig{Records: openStore(t)})
	resp := serve(handler, http.MethodOptions, "/api/records", nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
}

func TestStaticClientFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>snake</html>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	handler := NewHTTPHandler(newTestHub(), HTTPHandlerConfig{ClientDir: dir})

	resp := serve(handler, http.MethodGet, "/", nil)
	if resp.Code != http.StatusOK || !bytes.Contains(resp.Body.Bytes(), []byte("snake")) {
		t.Fatalf("unexpected static response %d %q", resp.Code, resp.Body.String())
	}
}

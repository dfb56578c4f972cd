package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moxitooo/zzzmeika/internal/config"
	"github.com/moxitooo/zzzmeika/internal/net/proto"
	"github.com/moxitooo/zzzmeika/internal/telemetry"
)

type recordingConn struct {
	frames [][]byte
}

func (c *recordingConn) Codec() proto.Codec { return proto.JSON }

func (c *recordingConn) Write(frame []byte) error {
	c.frames = append(c.frames, append([]byte(nil), frame...))
	return nil
}

func (c *recordingConn) Close() error { return nil }

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	cfg.ClientDir = ""
	cfg.World.Seed = "app-test"
	cfg.Leaderboard.Path = ":memory:"
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg, telemetry.NopLogger(), io.Discard)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv := httptest.NewServer(s.Handler)
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.Close(ctx); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s, srv
}

func TestServerServesHealthAndRecords(t *testing.T) {
	_, srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected health %d %q", resp.StatusCode, body)
	}

	resp, err = http.Post(srv.URL+"/api/records", "application/json", strings.NewReader(`{"playerName":"ann","score":40}`))
	if err != nil {
		t.Fatalf("POST /api/records: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/records")
	if err != nil {
		t.Fatalf("GET /api/records: %v", err)
	}
	defer resp.Body.Close()
	var listed struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if listed.Total != 1 {
		t.Fatalf("expected one record, got %d", listed.Total)
	}
}

func TestDiagnosticsIncludeLoggingStats(t *testing.T) {
	_, srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/diagnostics")
	if err != nil {
		t.Fatalf("GET /diagnostics: %v", err)
	}
	defer resp.Body.Close()
	var payload struct {
		Metrics map[string]uint64 `json:"metrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := payload.Metrics["logging.events_total"]; !ok {
		t.Fatalf("expected logging stats in metrics, got %v", payload.Metrics)
	}
}

func TestApplyUpdatesRetention(t *testing.T) {
	s, _ := newTestServer(t, nil)
	next := config.Default()
	next.Log.Level = "debug"
	next.Leaderboard.RetainLimit = 7
	s.Apply(next)
	if got := s.store.RetainLimit(); got != 7 {
		t.Fatalf("expected retain limit 7, got %d", got)
	}
}

func TestWorldLimitsReachHub(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *config.Config) { cfg.World.MaxNameLength = 4 })
	conn := &recordingConn{}
	ctx := context.Background()
	id := s.hub.Connect(ctx, conn)
	s.hub.Dispatch(ctx, id, proto.JoinGame{PlayerName: "annabelle"})

	if len(conn.frames) == 0 {
		t.Fatalf("no frames after join")
	}
	var joined struct {
		Type       string `json:"type"`
		PlayerName string `json:"playerName"`
	}
	if err := json.Unmarshal(conn.frames[0], &joined); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if joined.Type != proto.TypeGameJoined || joined.PlayerName != "anna" {
		t.Fatalf("expected name capped at 4 runes, got %+v", joined)
	}
}

func TestJSONSinkWritesEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	s, srv := newTestServer(t, func(cfg *config.Config) { cfg.Log.JSONPath = path })

	resp, err := http.Post(srv.URL+"/api/records", "application/json", bytes.NewReader([]byte(`{"playerName":"bob","score":10}`)))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read json log: %v", err)
	}
	if !strings.Contains(string(data), `"persistence.record_stored"`) {
		t.Fatalf("record event missing from json log: %s", data)
	}
}

func TestRunStopsWithContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.ClientDir = ""
	cfg.Leaderboard.Path = ":memory:"
	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, Config{ConfigPath: path, Logger: telemetry.NopLogger()}) }()
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("Run did not stop")
	}
}

package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/moxitooo/zzzmeika/internal/net/proto"
	"github.com/moxitooo/zzzmeika/server"
)

func newTestServer(t *testing.T) (*server.Hub, *httptest.Server) {
	t.Helper()
	cfg := server.DefaultHubConfig()
	cfg.Seed = "ws-test"
	hub := server.NewHub(cfg, server.HubDeps{})
	handler := NewHandler(hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)
	return hub, srv
}

func websocketURL(t *testing.T, base, codec string) string {
	t.Helper()
	u, err := url.Parse(base)
	if err != nil {
		t.Fatalf("failed to parse server URL: %v", err)
	}
	u.Scheme = "ws"
	if codec != "" {
		u.RawQuery = url.Values{"codec": []string{codec}}.Encode()
	}
	return u.String()
}

func dial(t *testing.T, rawURL string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(rawURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	kind, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Fatalf("expected text frame, got %d", kind)
	}
	var msg map[string]any
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("failed to decode frame: %v", err)
	}
	return msg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestJoinAndMoveOverWebsocket(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dial(t, websocketURL(t, srv.URL, ""))

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"join_game","playerName":"ann","gameMode":"classic","fieldSize":"small"}`)); err != nil {
		t.Fatalf("write join: %v", err)
	}
	joined := readJSON(t, conn)
	if joined["type"] != proto.TypeGameJoined || joined["playerName"] != "ann" {
		t.Fatalf("unexpected first frame %v", joined)
	}
	if announce := readJSON(t, conn); announce["type"] != proto.TypePlayerJoined {
		t.Fatalf("expected player_joined, got %v", announce)
	}

	// A malformed frame is dropped without closing the session.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":`)); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"player_move","direction":{"dx":0,"dy":1}}`)); err != nil {
		t.Fatalf("write move: %v", err)
	}
	var state map[string]any
	for state == nil {
		msg := readJSON(t, conn)
		if msg["type"] == proto.TypeGameState {
			state = msg
		}
	}
	if state["width"] != float64(15) {
		t.Fatalf("unexpected game_state %v", state)
	}
	if got := hub.Diagnostics().Telemetry.MalformedFrames; got != 1 {
		t.Fatalf("expected one malformed frame, got %d", got)
	}
}

func TestMsgPackCodecUsesBinaryFrames(t *testing.T) {
	_, srv := newTestServer(t)
	conn := dial(t, websocketURL(t, srv.URL, "msgpack"))

	join, err := msgpack.Marshal(map[string]any{"type": "join_game", "playerName": "bob"})
	if err != nil {
		t.Fatalf("encode join: %v", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, join); err != nil {
		t.Fatalf("write join: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	kind, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("expected binary frame, got %d", kind)
	}
	var msg map[string]any
	if err := msgpack.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg["type"] != proto.TypeGameJoined || msg["playerName"] != "bob" {
		t.Fatalf("unexpected frame %v", msg)
	}
}

func TestUnsupportedCodecIsRejected(t *testing.T) {
	_, srv := newTestServer(t)
	_, resp, err := websocket.DefaultDialer.Dial(websocketURL(t, srv.URL, "protobuf"), nil)
	if err == nil {
		t.Fatalf("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", resp)
	}
	resp.Body.Close()
}

func TestClosingSocketDisconnectsSession(t *testing.T) {
	hub, srv := newTestServer(t)
	conn, resp, err := websocket.DefaultDialer.Dial(websocketURL(t, srv.URL, ""), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer resp.Body.Close()

	waitFor(t, func() bool { return hub.SessionCount() == 1 })
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitFor(t, func() bool { return hub.SessionCount() == 0 })
}

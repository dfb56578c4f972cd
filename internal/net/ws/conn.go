package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/moxitooo/zzzmeika/internal/net/proto"
	"github.com/moxitooo/zzzmeika/internal/telemetry"
	"github.com/moxitooo/zzzmeika/server"
)

const (
	defaultSendQueue      = 256
	defaultWriteWait      = 10 * time.Second
	defaultPongWait       = 60 * time.Second
	defaultMaxMessageSize = 4096
)

// ConnConfig bounds one websocket connection.
type ConnConfig struct {
	SendQueue      int
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
}

func (c ConnConfig) normalized() ConnConfig {
	if c.SendQueue <= 0 {
		c.SendQueue = defaultSendQueue
	}
	if c.WriteWait <= 0 {
		c.WriteWait = defaultWriteWait
	}
	if c.PongWait <= 0 {
		c.PongWait = defaultPongWait
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}
	return c
}

func (c ConnConfig) pingPeriod() time.Duration {
	return c.PongWait * 9 / 10
}

// Conn adapts a gorilla websocket to the hub's connection contract. Frames
// are queued by Write and flushed by a single writer goroutine.
type Conn struct {
	ws     *websocket.Conn
	codec  proto.Codec
	cfg    ConnConfig
	logger telemetry.Logger

	mu     sync.Mutex
	closed bool
	send   chan []byte
	done   chan struct{}
	exited chan struct{}
}

func newConn(ws *websocket.Conn, codec proto.Codec, cfg ConnConfig, logger telemetry.Logger) *Conn {
	cfg = cfg.normalized()
	return &Conn{
		ws:     ws,
		codec:  codec,
		cfg:    cfg,
		logger: logger,
		send:   make(chan []byte, cfg.SendQueue),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

func (c *Conn) Codec() proto.Codec { return c.codec }

// Write queues a frame without blocking.
func (c *Conn) Write(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return server.ErrConnectionClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return server.ErrBacklogFull
	}
}

// Close stops the writer, which flushes what is queued and closes the socket.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return server.ErrConnectionClosed
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()
	return nil
}

func (c *Conn) messageType() int {
	if c.codec != nil && c.codec.Binary() {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// writePump owns every write to the socket.
func (c *Conn) writePump() {
	ticker := time.NewTicker(c.cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		c.ws.Close()
		close(c.exited)
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.writeFrame(frame); err != nil {
				c.logger.Printf("websocket write failed: %v", err)
				c.Close()
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.flush()
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Conn) writeFrame(frame []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
	return c.ws.WriteMessage(c.messageType(), frame)
}

func (c *Conn) flush() {
	for {
		select {
		case frame := <-c.send:
			if err := c.writeFrame(frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

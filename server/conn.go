package server

import (
	"context"
	"errors"

	"github.com/moxitooo/zzzmeika/internal/leaderboard"
	"github.com/moxitooo/zzzmeika/internal/net/proto"
)

var (
	// ErrConnectionClosed is returned by Conn.Write after the connection
	// shut down.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrBacklogFull is returned by Conn.Write when the outbound queue is
	// saturated.
	ErrBacklogFull = errors.New("outbound backlog full")
)

// Conn is one client connection as seen by the hub. Write must not block; it
// queues an encoded frame for delivery.
type Conn interface {
	Codec() proto.Codec
	Write(frame []byte) error
	Close() error
}

// Leaderboard is the persistence the hub reports deaths to.
type Leaderboard interface {
	AddRecord(ctx context.Context, rec leaderboard.Record) (int64, bool, error)
	Top(ctx context.Context, limit int, mode, size string) ([]leaderboard.Record, error)
	Cleanup(ctx context.Context) (int64, error)
}

package schedule

import (
	"sync"
	"time"
)

// Kind names a class of per-session timer. At most one timer of each kind is
// pending for a session.
type Kind string

// Stopper is the part of *time.Timer the manager needs.
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once wrapped by
// RealAfterFunc.
type AfterFunc func(d time.Duration, f func()) Stopper

// RealAfterFunc schedules on the runtime timer heap.
func RealAfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// Ticket identifies one arming of a timer. A fired callback must Claim its
// ticket before acting; a ticket that was replaced or cancelled cannot be
// claimed.
type Ticket struct {
	Session string
	Kind    Kind
	Gen     uint64
}

type timerKey struct {
	session string
	kind    Kind
}

type entry struct {
	gen   uint64
	timer Stopper
}

// Timers owns one-shot timers keyed by session and kind.
type Timers struct {
	mu        sync.Mutex
	afterFunc AfterFunc
	entries   map[timerKey]entry
	nextGen   uint64
}

func NewTimers(afterFunc AfterFunc) *Timers {
	if afterFunc == nil {
		afterFunc = RealAfterFunc
	}
	return &Timers{afterFunc: afterFunc, entries: make(map[timerKey]entry)}
}

// Arm schedules fire after d, replacing any pending timer of the same kind
// for the session.
func (t *Timers) Arm(session string, kind Kind, d time.Duration, fire func(Ticket)) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := timerKey{session: session, kind: kind}
	if prev, ok := t.entries[key]; ok && prev.timer != nil {
		prev.timer.Stop()
	}
	t.nextGen++
	ticket := Ticket{Session: session, Kind: kind, Gen: t.nextGen}
	timer := t.afterFunc(d, func() {
		if fire != nil {
			fire(ticket)
		}
	})
	t.entries[key] = entry{gen: ticket.Gen, timer: timer}
	return ticket
}

// Claim consumes the ticket. It returns true exactly once, and only while the
// ticket is still the current arming for its key.
func (t *Timers) Claim(ticket Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := timerKey{session: ticket.Session, kind: ticket.Kind}
	current, ok := t.entries[key]
	if !ok || current.gen != ticket.Gen {
		return false
	}
	delete(t.entries, key)
	return true
}

// Cancel stops the pending timer of kind for session.
func (t *Timers) Cancel(session string, kind Kind) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := timerKey{session: session, kind: kind}
	current, ok := t.entries[key]
	if !ok {
		return false
	}
	if current.timer != nil {
		current.timer.Stop()
	}
	delete(t.entries, key)
	return true
}

// CancelAll stops every pending timer of the session and returns how many
// were cancelled.
func (t *Timers) CancelAll(session string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cancelled := 0
	for key, current := range t.entries {
		if key.session != session {
			continue
		}
		if current.timer != nil {
			current.timer.Stop()
		}
		delete(t.entries, key)
		cancelled++
	}
	return cancelled
}

// Pending counts the armed timers of a session.
func (t *Timers) Pending(session string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	count := 0
	for key := range t.entries {
		if key.session == session {
			count++
		}
	}
	return count
}

// Len counts every armed timer.
func (t *Timers) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

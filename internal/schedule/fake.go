package schedule

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic scheduler for tests. Time only moves through
// Advance.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	owner   *Manual
	at      time.Time
	seq     uint64
	fn      func()
	stopped bool
	fired   bool
}

func (m *manualTimer) Stop() bool {
	m.owner.mu.Lock()
	defer m.owner.mu.Unlock()
	if m.stopped || m.fired {
		return false
	}
	m.stopped = true
	return true
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc implements the AfterFunc signature.
func (m *Manual) AfterFunc(d time.Duration, f func()) Stopper {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	timer := &manualTimer{owner: m, at: m.now.Add(d), seq: m.seq, fn: f}
	m.pending = append(m.pending, timer)
	return timer
}

// Advance moves the clock forward and runs every due callback in deadline
// order on the calling goroutine.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	m.now = m.now.Add(d)
	now := m.now
	var due []*manualTimer
	remaining := m.pending[:0]
	for _, timer := range m.pending {
		switch {
		case timer.stopped:
		case !timer.at.After(now):
			timer.fired = true
			due = append(due, timer)
		default:
			remaining = append(remaining, timer)
		}
	}
	m.pending = remaining
	m.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	for _, timer := range due {
		timer.fn()
	}
	return len(due)
}

// Pending counts timers that have neither fired nor been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, timer := range m.pending {
		if !timer.stopped {
			count++
		}
	}
	return count
}

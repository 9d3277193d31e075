package eventlog

import (
	"context"
	"strings"
	"sync"
)

// Ring is an in-process Recorder over a fixed-capacity circular buffer. The
// oldest events are overwritten once capacity is reached. Construct one and
// pass it where needed; there is deliberately no package-level instance.
type Ring struct {
	mu   sync.Mutex
	buf  []Event
	next int
	full bool
}

const DefaultRingCapacity = 1024

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	return &Ring{buf: make([]Event, capacity)}
}

func (r *Ring) Record(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = e
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
	return nil
}

// Recent returns matching events, newest first.
func (r *Ring) Recent(_ context.Context, f Filter) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	limit := f.Limit
	if limit <= 0 {
		limit = len(r.buf)
	}

	size := r.next
	if r.full {
		size = len(r.buf)
	}

	out := make([]Event, 0, limit)
	for i := 1; i <= size && len(out) < limit; i++ {
		idx := r.next - i
		if idx < 0 {
			idx += len(r.buf)
		}
		e := r.buf[idx]
		if matches(e, f) {
			out = append(out, e)
		}
	}
	return out, nil
}

func matches(e Event, f Filter) bool {
	if f.MatchID != "" && e.MatchID != f.MatchID {
		return false
	}
	if f.To != "" && e.To != f.To {
		return false
	}
	if f.UserID != "" && e.ActorID != f.UserID && !strings.Contains(e.PairKey, f.UserID) {
		return false
	}
	return true
}

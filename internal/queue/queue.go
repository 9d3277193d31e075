package queue

import "context"

// Job kinds carried on the compatibility stream.
const (
	KindPair = "pair" // recompute one unordered pair's score
	KindUser = "user" // recompute a user's traits and fan out to counterparts
)

// Stream layout shared by the dispatcher and the worker.
const (
	Stream        = "compat:jobs"
	DeadStream    = "compat:dead"
	Group         = "compat-workers"
	MaxStreamLen  = 10000 // bounded retention of job records
	MaxDeadLen    = 1000
	MaxAttempts   = 3
)

// Dispatcher hands compatibility work to whichever backend is configured.
// With a queue backend, calls are asynchronous with retry; without one they
// degrade to synchronous inline execution (same result, caller blocks, no
// retry).
type Dispatcher interface {
	// EnqueuePair schedules a score recomputation for the unordered pair.
	EnqueuePair(ctx context.Context, userAID, userBID string) error

	// EnqueueUser schedules a trait recompute plus per-counterpart fan-out.
	EnqueueUser(ctx context.Context, userID string) error
}

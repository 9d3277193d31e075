package queue

import "context"

// PairFunc computes and persists one pair's score.
type PairFunc func(ctx context.Context, userAID, userBID string) error

// UserFunc recomputes one user's traits and rescans their counterparts.
type UserFunc func(ctx context.Context, userID string) error

// InlineDispatcher runs jobs synchronously in the caller. It is selected at
// startup when no queue backend is configured; failures propagate to the
// caller immediately and are not retried.
type InlineDispatcher struct {
	pair PairFunc
	user UserFunc
}

func NewInlineDispatcher(pair PairFunc, user UserFunc) *InlineDispatcher {
	return &InlineDispatcher{pair: pair, user: user}
}

func (d *InlineDispatcher) EnqueuePair(ctx context.Context, userAID, userBID string) error {
	return d.pair(ctx, userAID, userBID)
}

func (d *InlineDispatcher) EnqueueUser(ctx context.Context, userID string) error {
	return d.user(ctx, userID)
}

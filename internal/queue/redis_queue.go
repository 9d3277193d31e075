package queue

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/tawafuqapp/tawafuq/internal/matching"
	"github.com/tawafuqapp/tawafuq/internal/utils"
)

// StreamDispatcher enqueues jobs on a Redis stream consumed by the
// compatibility worker group. XAdd with MaxLen keeps stored job records
// bounded; delivery/retry semantics live on the consumer side.
type StreamDispatcher struct {
	rdb *redis.Client
}

func NewStreamDispatcher(rdb *redis.Client) *StreamDispatcher {
	return &StreamDispatcher{rdb: rdb}
}

func (d *StreamDispatcher) EnqueuePair(ctx context.Context, userAID, userBID string) error {
	const op = "StreamDispatcher.EnqueuePair"

	err := d.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: Stream,
		MaxLen: MaxStreamLen,
		Approx: true,
		Values: map[string]any{
			"kind":      KindPair,
			"user_a_id": userAID,
			"user_b_id": userBID,
			"pair_key":  matching.PairKey(userAID, userBID),
		},
	}).Err()
	if err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to enqueue pair job", err)
	}
	return nil
}

func (d *StreamDispatcher) EnqueueUser(ctx context.Context, userID string) error {
	const op = "StreamDispatcher.EnqueueUser"

	err := d.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: Stream,
		MaxLen: MaxStreamLen,
		Approx: true,
		Values: map[string]any{
			"kind":    KindUser,
			"user_id": userID,
		},
	}).Err()
	if err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to enqueue user job", err)
	}
	return nil
}

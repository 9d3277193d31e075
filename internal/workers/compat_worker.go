package workers

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/tawafuqapp/tawafuq/internal/queue"
	"github.com/tawafuqapp/tawafuq/internal/services"
)

// CompatWorkerPool consumes compatibility jobs from the Redis stream. Each
// consumer reads with XReadGroup and acks only after the handler succeeds; a
// reclaimer goroutine re-delivers stalled entries with exponential backoff and
// parks entries past the attempt limit on a dead-letter stream.
type CompatWorkerPool struct {
	Redis  *redis.Client
	Scores services.ScoreService
	Compat services.CompatibilityService

	NumWorkers int
	Logger     *logrus.Logger

	Stream         string
	DeadStream     string
	Group          string
	ConsumerPrefix string

	// base delay before a failed delivery is claimed again; doubles per
	// delivery attempt
	RetryBackoff time.Duration

	wg sync.WaitGroup
}

func (p *CompatWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Scores == nil || p.Compat == nil {
		return errors.New("CompatWorkerPool missing dependency: Redis/Scores/Compat must be set")
	}
	if p.Stream == "" {
		p.Stream = queue.Stream
	}
	if p.DeadStream == "" {
		p.DeadStream = queue.DeadStream
	}
	if p.Group == "" {
		p.Group = queue.Group
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "compat"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 3
	}
	if p.RetryBackoff <= 0 {
		p.RetryBackoff = 5 * time.Second
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		p.wg.Add(1)
		go p.runConsumer(ctx, consumer)
	}

	p.wg.Add(1)
	go p.runReclaimer(ctx)
	return nil
}

// Wait blocks until every consumer has drained after context cancellation.
func (p *CompatWorkerPool) Wait() {
	p.wg.Wait()
}

func (p *CompatWorkerPool) runConsumer(ctx context.Context, consumer string) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				if p.handleMsg(ctx, msg) {
					_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
				}
			}
		}
	}
}

// runReclaimer sweeps the pending list. A delivery that has sat unacked
// longer than its backoff window is claimed and retried; past MaxAttempts it
// moves to the dead-letter stream.
func (p *CompatWorkerPool) runReclaimer(ctx context.Context) {
	defer p.wg.Done()

	consumer := p.ConsumerPrefix + "-reclaim"
	ticker := time.NewTicker(p.RetryBackoff)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pending, err := p.Redis.XPendingExt(ctx, &redis.XPendingExtArgs{
			Stream: p.Stream,
			Group:  p.Group,
			Start:  "-",
			End:    "+",
			Count:  50,
		}).Result()
		if err != nil {
			continue
		}

		for _, pe := range pending {
			if pe.RetryCount > queue.MaxAttempts {
				p.deadLetter(ctx, pe)
				continue
			}

			backoff := p.RetryBackoff
			if pe.RetryCount > 1 {
				backoff <<= uint(pe.RetryCount - 1)
			}
			if pe.Idle < backoff {
				continue
			}

			claimed, err := p.Redis.XClaim(ctx, &redis.XClaimArgs{
				Stream:   p.Stream,
				Group:    p.Group,
				Consumer: consumer,
				MinIdle:  backoff,
				Messages: []string{pe.ID},
			}).Result()
			if err != nil {
				continue
			}
			for _, msg := range claimed {
				if p.handleMsg(ctx, msg) {
					_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
				}
			}
		}
	}
}

// deadLetter copies the exhausted entry onto the dead stream and acks the
// original so it stops circulating.
func (p *CompatWorkerPool) deadLetter(ctx context.Context, pe redis.XPendingExt) {
	rng, err := p.Redis.XRange(ctx, p.Stream, pe.ID, pe.ID).Result()
	if err != nil || len(rng) == 0 {
		_ = p.Redis.XAck(ctx, p.Stream, p.Group, pe.ID).Err()
		return
	}

	values := rng[0].Values
	values["failed_id"] = pe.ID
	values["attempts"] = strconv.FormatInt(pe.RetryCount, 10)

	err = p.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: p.DeadStream,
		MaxLen: queue.MaxDeadLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		p.Logger.WithError(err).WithField("redis_id", pe.ID).Error("failed to move job to dead-letter stream")
		return
	}
	_ = p.Redis.XAck(ctx, p.Stream, p.Group, pe.ID).Err()

	p.Logger.WithFields(logrus.Fields{
		"redis_id": pe.ID,
		"attempts": pe.RetryCount,
	}).Warn("job exhausted retries, dead-lettered")
}

// handleMsg runs one job. Returns true when the entry may be acked; a false
// return leaves it pending for the reclaimer.
func (p *CompatWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.Logger.WithFields(logrus.Fields{
				"redis_id": msg.ID,
				"panic":    r,
			}).Error("job handler panicked")
			ok = false
		}
	}()

	getStr := func(k string) string {
		v, exists := msg.Values[k]
		if !exists || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id": msg.ID,
		"kind":     getStr("kind"),
	})

	switch getStr("kind") {
	case queue.KindPair:
		a, b := getStr("user_a_id"), getStr("user_b_id")
		if a == "" || b == "" {
			log.Warn("malformed pair job, dropping")
			return true
		}
		if _, err := p.Scores.ComputePair(ctx, a, b); err != nil {
			log.WithError(err).Error("pair job failed")
			return false
		}
		return true

	case queue.KindUser:
		userID := getStr("user_id")
		if userID == "" {
			log.Warn("malformed user job, dropping")
			return true
		}
		if err := p.Compat.OnTestResultsChanged(ctx, userID); err != nil {
			log.WithError(err).Error("user job failed")
			return false
		}
		return true

	default:
		log.Warn("unknown job kind, dropping")
		return true
	}
}

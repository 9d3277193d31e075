package eventlog

import (
	"context"
	"time"

	"github.com/tawafuqapp/tawafuq/internal/models"
)

// Event is one recorded stage transition.
type Event struct {
	MatchID string      `bson:"match_id" json:"match_id"`
	PairKey string      `bson:"pair_key" json:"pair_key"`
	ActorID string      `bson:"actor_id" json:"actor_id"`
	From    models.Step `bson:"from_step" json:"from_step"`
	To      models.Step `bson:"to_step" json:"to_step"`
	At      time.Time   `bson:"at" json:"at"`
}

// Filter narrows a Recent query. Zero values match everything.
type Filter struct {
	MatchID string
	UserID  string // matches actor or either side of the pair key
	To      models.Step
	Limit   int
}

// Recorder is a bounded transition log. Implementations are safe for
// concurrent use. Record is best-effort from the caller's perspective; a
// failed log write never blocks a transition.
type Recorder interface {
	Record(ctx context.Context, e Event) error
	Recent(ctx context.Context, f Filter) ([]Event, error)
}

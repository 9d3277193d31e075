package mongo

import (
	"context"

	"github.com/tawafuqapp/tawafuq/internal/eventlog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// eventRepo is the durable sibling of the in-process ring log: a capped
// collection gives the same bounded, overwrite-oldest semantics across
// processes. The collection is created capped in config.EnsureEventCollection.
type eventRepo struct {
	col *mongo.Collection
}

func NewEventRepo(db *mongo.Database) eventlog.Recorder {
	return &eventRepo{col: db.Collection("match_events")}
}

func (r *eventRepo) Record(ctx context.Context, e eventlog.Event) error {
	_, err := r.col.InsertOne(ctx, e)
	return err
}

func (r *eventRepo) Recent(ctx context.Context, f eventlog.Filter) ([]eventlog.Event, error) {
	limit := int64(f.Limit)
	if limit <= 0 {
		limit = 200
	}

	filter := bson.M{}
	if f.MatchID != "" {
		filter["match_id"] = f.MatchID
	}
	if f.To != "" {
		filter["to_step"] = f.To
	}
	if f.UserID != "" {
		filter["$or"] = bson.A{
			bson.M{"actor_id": f.UserID},
			bson.M{"pair_key": bson.M{"$regex": f.UserID}},
		}
	}

	cur, err := r.col.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "at", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []eventlog.Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

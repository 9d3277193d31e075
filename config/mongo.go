package config

import (
	"context"
	"errors"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var MongoClient *mongo.Client

// InitMongo connects the optional durable event log. Callers should only
// invoke this when MONGO_URI is set; without mongo the in-process ring log
// serves transition history.
func InitMongo() error {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		return errors.New("MONGO_URI environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(uri).
		SetServerSelectionTimeout(20 * time.Second).
		SetConnectTimeout(15 * time.Second).
		SetMaxPoolSize(10).
		SetMinPoolSize(1)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return err
	}

	MongoClient = client
	return nil
}

// MongoDatabase returns the configured database handle.
func MongoDatabase() *mongo.Database {
	name := os.Getenv("MONGO_DB")
	if name == "" {
		name = "tawafuq"
	}
	return MongoClient.Database(name)
}

// EnsureEventCollection creates the capped match_events collection plus its
// query indexes. Capped gives bounded, overwrite-oldest retention, the same
// shape as the in-process ring log.
func EnsureEventCollection() error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}

	db := MongoDatabase()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sizeBytes := int64(16 << 20)
	err := db.CreateCollection(ctx, "match_events",
		options.CreateCollection().
			SetCapped(true).
			SetSizeInBytes(sizeBytes).
			SetMaxDocuments(100000),
	)
	if err != nil {
		// NamespaceExists on repeat startups
		var cmdErr mongo.CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Code != 48 {
			return err
		}
	}

	_, err = db.Collection("match_events").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "match_id", Value: 1}, {Key: "at", Value: -1}},
			Options: options.Index().SetName("by_match_at"),
		},
		{
			Keys:    bson.D{{Key: "actor_id", Value: 1}, {Key: "at", Value: -1}},
			Options: options.Index().SetName("by_actor_at"),
		},
	})
	return err
}

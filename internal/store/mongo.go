package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the transactional typed facade over applications,
// uploads, and devices.
type Store struct {
	client         *mongo.Client
	database       *mongo.Database
	applications   *mongo.Collection
	uploads        *mongo.Collection
	devices        *mongo.Collection
	apiKeys        *mongo.Collection
}

// Config holds MongoDB connection settings.
type Config struct {
	URI          string
	DatabaseName string
	Timeout      time.Duration
}

// Connect establishes a connection to MongoDB and ensures the
// secondary indexes required by the hot paths exist.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	dbName := cfg.DatabaseName
	if dbName == "" {
		dbName = "otaship"
	}
	db := client.Database(dbName)

	s := &Store{
		client:       client,
		database:     db,
		applications: db.Collection("applications"),
		uploads:      db.Collection("uploads"),
		devices:      db.Collection("devices"),
		apiKeys:      db.Collection("api_keys"),
	}

	if err := s.ensureIndexes(connectCtx); err != nil {
		return nil, fmt.Errorf("store: ensure indexes: %w", err)
	}

	log.Printf("Connected to MongoDB (database: %s)", dbName)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.uploads.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "applicationId", Value: 1},
				{Key: "runtimeVersion", Value: 1},
				{Key: "releaseChannel", Value: 1},
				{Key: "platform", Value: 1},
				{Key: "status", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "applicationId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
	})
	if err != nil {
		return err
	}

	_, err = s.devices.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "applicationId", Value: 1}, {Key: "platform", Value: 1}}},
		{Keys: bson.D{{Key: "lastSeen", Value: 1}}},
	})
	return err
}

// Disconnect closes the underlying MongoDB client.
func (s *Store) Disconnect(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// HealthCheck verifies the database connection is healthy.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("store: not connected")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Ping(pingCtx, nil)
}

// withTransaction runs fn inside a single multi-document
// transaction, as required by the release state machine and
// cascading deletes.
func (s *Store) withTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) (interface{}, error)) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("store: start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, fn)
	return err
}

// RunInTransaction runs fn with a context bound to a single
// multi-document transaction. Every Store call made with the ctx
// passed to fn participates in that transaction — this is how the
// release state machine keeps its multi-row mutation atomic.
func (s *Store) RunInTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return s.withTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
}

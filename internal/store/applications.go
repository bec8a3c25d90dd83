package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetApplication resolves an application by id. Lookup is
// case-insensitive (an _id match under a strength-2 collation) but the stored
// document retains whatever case it was created with.
func (s *Store) GetApplication(ctx context.Context, id string) (*Application, error) {
	opts := options.FindOne().SetCollation(&options.Collation{Locale: "en", Strength: 2})
	var app Application
	err := s.applications.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&app)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get application %s: %w", id, err)
	}
	return &app, nil
}

// InsertApplication creates a new application.
func (s *Store) InsertApplication(ctx context.Context, app *Application) error {
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	_, err := s.applications.InsertOne(ctx, app)
	if err != nil {
		return fmt.Errorf("store: insert application: %w", err)
	}
	return nil
}

// UpdateApplication applies a partial update to an application.
func (s *Store) UpdateApplication(ctx context.Context, id string, fields bson.M) error {
	fields["updatedAt"] = time.Now().UTC()
	result, err := s.applications.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("store: update application %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("store: application %s not found", id)
	}
	return nil
}

// DeleteApplicationCascade deletes an application and every upload
// and device row belonging to it, within a single transaction.
func (s *Store) DeleteApplicationCascade(ctx context.Context, id string) error {
	return s.withTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := s.uploads.DeleteMany(sessCtx, bson.M{"applicationId": id}); err != nil {
			return nil, err
		}
		if _, err := s.devices.DeleteMany(sessCtx, bson.M{"applicationId": id}); err != nil {
			return nil, err
		}
		result, err := s.applications.DeleteOne(sessCtx, bson.M{"_id": id})
		if err != nil {
			return nil, err
		}
		if result.DeletedCount == 0 {
			return nil, fmt.Errorf("store: application %s not found", id)
		}
		return nil, nil
	})
}

// ListApplications returns every application, most recently created
// first.
func (s *Store) ListApplications(ctx context.Context) ([]Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.applications.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("store: list applications: %w", err)
	}
	defer cursor.Close(ctx)

	var apps []Application
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, fmt.Errorf("store: decode applications: %w", err)
	}
	return apps, nil
}

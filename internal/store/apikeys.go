package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/google/uuid"
)

// CreateAPIKey generates a new API key and stores only its hash.
// Returns the plaintext key, which is visible exactly once.
func (s *Store) CreateAPIKey(ctx context.Context, name string, scopes []string) (string, *APIKey, error) {
	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return "", nil, fmt.Errorf("store: generate api key: %w", err)
	}
	plainKey := "ota_" + hex.EncodeToString(keyBytes)

	hash := sha256.Sum256([]byte(plainKey))
	keyHash := hex.EncodeToString(hash[:])

	apiKey := &APIKey{
		ID:        uuid.New().String(),
		Name:      name,
		KeyHash:   keyHash,
		Prefix:    plainKey[:8],
		Scopes:    scopes,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := s.apiKeys.InsertOne(ctx, apiKey); err != nil {
		return "", nil, fmt.Errorf("store: insert api key: %w", err)
	}
	return plainKey, apiKey, nil
}

// ListAPIKeys returns every dashboard API key, most recently created
// first.
func (s *Store) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.apiKeys.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("store: list api keys: %w", err)
	}
	defer cursor.Close(ctx)

	var keys []APIKey
	if err := cursor.All(ctx, &keys); err != nil {
		return nil, fmt.Errorf("store: decode api keys: %w", err)
	}
	return keys, nil
}

// DeleteAPIKey removes a key by id.
func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	result, err := s.apiKeys.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("store: delete api key %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("store: api key %s not found", id)
	}
	return nil
}

// ValidateAPIKey checks a plaintext key against stored hashes and
// bumps lastUsedAt in the background if it matches.
func (s *Store) ValidateAPIKey(ctx context.Context, plainKey string) (*APIKey, error) {
	hash := sha256.Sum256([]byte(plainKey))
	keyHash := hex.EncodeToString(hash[:])

	var apiKey APIKey
	err := s.apiKeys.FindOne(ctx, bson.M{"keyHash": keyHash}).Decode(&apiKey)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: validate api key: %w", err)
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.apiKeys.UpdateOne(bgCtx, bson.M{"_id": apiKey.ID}, bson.M{"$set": bson.M{"lastUsedAt": time.Now().UTC()}})
	}()

	return &apiKey, nil
}

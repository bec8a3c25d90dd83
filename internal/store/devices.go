package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpsertDevice records a device's last-seen context. Purely
// observational — no invariant or serving decision depends on it,
// and update_count is best-effort only (incremented opportunistically,
// never authoritative).
func (s *Store) UpsertDevice(ctx context.Context, device *Device) error {
	now := time.Now().UTC()
	opts := options.Update().SetUpsert(true)

	_, err := s.devices.UpdateOne(ctx,
		bson.M{"_id": device.ID},
		bson.M{
			"$set": bson.M{
				"applicationId":    device.ApplicationID,
				"runtimeVersion":   device.RuntimeVersion,
				"platform":         device.Platform,
				"releaseChannel":   device.ReleaseChannel,
				"embeddedUpdateId": device.EmbeddedUpdateID,
				"currentUpdateId":  device.CurrentUpdateID,
				"lastSeen":         now,
			},
			"$setOnInsert": bson.M{"firstSeen": now},
			"$inc":         bson.M{"updateCount": 1},
		},
		opts,
	)
	if err != nil {
		return fmt.Errorf("store: upsert device %s: %w", device.ID, err)
	}
	return nil
}

// DeviceStats aggregates device counts by platform, used by the
// dashboard.
type DeviceStats struct {
	ByPlatform map[string]int64
}

// DeviceStatsForApplication returns per-platform device counts for an
// application.
func (s *Store) DeviceStatsForApplication(ctx context.Context, applicationID string) (*DeviceStats, error) {
	pipeline := mongoPipelineGroupByPlatform(applicationID)
	cursor, err := s.devices.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("store: device stats: %w", err)
	}
	defer cursor.Close(ctx)

	stats := &DeviceStats{ByPlatform: make(map[string]int64)}
	var results []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("store: decode device stats: %w", err)
	}
	for _, r := range results {
		stats.ByPlatform[r.ID] = r.Count
	}
	return stats, nil
}

func mongoPipelineGroupByPlatform(applicationID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"applicationId": applicationID}}},
		{{Key: "$group", Value: bson.M{"_id": "$platform", "count": bson.M{"$sum": 1}}}},
	}
}

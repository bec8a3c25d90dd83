package store

import (
	"context"
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UploadFilter narrows ListUploads; zero-valued fields are ignored.
type UploadFilter struct {
	ApplicationID  string
	RuntimeVersion string
	ReleaseChannel string
	Platform       string
	Status         UploadStatus
}

func (f UploadFilter) toBSON() bson.M {
	m := bson.M{}
	if f.ApplicationID != "" {
		m["applicationId"] = f.ApplicationID
	}
	if f.RuntimeVersion != "" {
		m["runtimeVersion"] = f.RuntimeVersion
	}
	if f.ReleaseChannel != "" {
		m["releaseChannel"] = f.ReleaseChannel
	}
	if f.Platform != "" {
		m["platform"] = f.Platform
	}
	if f.Status != "" {
		m["status"] = f.Status
	}
	return m
}

// InsertUpload inserts a new upload row, applying struct-tag
// defaults (e.g. rolloutPercentage: 100) before insertion.
func (s *Store) InsertUpload(ctx context.Context, upload *Upload) error {
	if err := defaults.Set(upload); err != nil {
		return fmt.Errorf("store: apply upload defaults: %w", err)
	}
	now := time.Now().UTC()
	upload.CreatedAt = now
	upload.UpdatedAt = now
	if upload.Status == "" {
		upload.Status = StatusReady
	}

	_, err := s.uploads.InsertOne(ctx, upload)
	if err != nil {
		return fmt.Errorf("store: insert upload: %w", err)
	}
	return nil
}

// GetUpload retrieves an upload by its id (the derived updateId).
func (s *Store) GetUpload(ctx context.Context, id string) (*Upload, error) {
	var upload Upload
	err := s.uploads.FindOne(ctx, bson.M{"_id": id}).Decode(&upload)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get upload %s: %w", id, err)
	}
	return &upload, nil
}

// ListUploads returns uploads matching filter, most recently created
// first, using the (applicationId, createdAt) index.
func (s *Store) ListUploads(ctx context.Context, filter UploadFilter, limit, offset int64) ([]Upload, int64, error) {
	query := filter.toBSON()

	total, err := s.uploads.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("store: count uploads: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := s.uploads.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list uploads: %w", err)
	}
	defer cursor.Close(ctx)

	var uploads []Upload
	if err := cursor.All(ctx, &uploads); err != nil {
		return nil, 0, fmt.Errorf("store: decode uploads: %w", err)
	}
	return uploads, total, nil
}

// UpdateUploadStatus atomically transitions a single upload's status,
// optionally stamping releasedAt.
func (s *Store) UpdateUploadStatus(ctx context.Context, id string, status UploadStatus, setReleasedAt bool) error {
	update := bson.M{"status": status, "updatedAt": time.Now().UTC()}
	if setReleasedAt {
		update["releasedAt"] = time.Now().UTC()
	}
	result, err := s.uploads.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("store: update upload status %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("store: upload %s not found", id)
	}
	return nil
}

// UpdateUploadFields applies an arbitrary partial update to an
// upload row, used by the dashboard for fields like
// rolloutPercentage that aren't part of the state machine.
func (s *Store) UpdateUploadFields(ctx context.Context, id string, fields bson.M) error {
	fields["updatedAt"] = time.Now().UTC()
	result, err := s.uploads.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("store: update upload fields %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("store: upload %s not found", id)
	}
	return nil
}

// IncrementDownloadCount bumps an upload's best-effort download
// counter. Called fire-and-forget from the manifest-serving path, so
// a missing row (already deleted) is not treated as an error.
func (s *Store) IncrementDownloadCount(ctx context.Context, id string) error {
	_, err := s.uploads.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"downloadCount": 1}})
	if err != nil {
		return fmt.Errorf("store: increment download count %s: %w", id, err)
	}
	return nil
}

// TotalDownloadsForApplication sums downloadCount across every
// upload belonging to an application, for the admin stats endpoint.
func (s *Store) TotalDownloadsForApplication(ctx context.Context, applicationID string) (int64, error) {
	cursor, err := s.uploads.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"applicationId": applicationID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$downloadCount"}}}},
	})
	if err != nil {
		return 0, fmt.Errorf("store: total downloads: %w", err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Total int64 `bson:"total"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, fmt.Errorf("store: decode total downloads: %w", err)
		}
	}
	return result.Total, nil
}

// FindServableUpload returns the unique released row for the exact
// (applicationId, runtimeVersion, releaseChannel, platform)
// coordinate, preferring a row with the exact platform over one with
// platform == "all"; any residual ambiguity is broken by the most
// recent releasedAt. This is the hot path and must use the
// composite (applicationId, runtimeVersion, releaseChannel,
// platform, status) index.
func (s *Store) FindServableUpload(ctx context.Context, applicationID, runtimeVersion, releaseChannel, platform string) (*Upload, error) {
	filter := bson.M{
		"applicationId":  applicationID,
		"runtimeVersion": runtimeVersion,
		"releaseChannel": releaseChannel,
		"status":         StatusReleased,
		"platform":       bson.M{"$in": bson.A{platform, PlatformAll}},
	}

	opts := options.Find().SetSort(bson.D{{Key: "releasedAt", Value: -1}})
	cursor, err := s.uploads.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("store: find servable upload: %w", err)
	}
	defer cursor.Close(ctx)

	var candidates []Upload
	if err := cursor.All(ctx, &candidates); err != nil {
		return nil, fmt.Errorf("store: decode servable candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var best *Upload
	for i := range candidates {
		c := &candidates[i]
		if best == nil {
			best = c
			continue
		}
		if c.Platform == platform && best.Platform != platform {
			best = c
		}
	}
	return best, nil
}

// BulkMarkObsolete marks every currently-released row for the given
// (applicationId, runtimeVersion, releaseChannel) other than
// exceptID as obsolete. Deliberately NOT partitioned by platform: a
// narrower release supersedes a broader one for the same coordinate.
func (s *Store) BulkMarkObsolete(ctx context.Context, applicationID, runtimeVersion, releaseChannel, exceptID string) error {
	filter := bson.M{
		"applicationId":  applicationID,
		"runtimeVersion": runtimeVersion,
		"releaseChannel": releaseChannel,
		"status":         StatusReleased,
		"_id":            bson.M{"$ne": exceptID},
	}
	_, err := s.uploads.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"status":    StatusObsolete,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("store: bulk mark obsolete: %w", err)
	}
	return nil
}

// DeleteUploadsByApplication deletes every upload for an application.
func (s *Store) DeleteUploadsByApplication(ctx context.Context, applicationID string) error {
	_, err := s.uploads.DeleteMany(ctx, bson.M{"applicationId": applicationID})
	if err != nil {
		return fmt.Errorf("store: delete uploads for %s: %w", applicationID, err)
	}
	return nil
}

// DeleteUpload permanently removes a single upload row.
func (s *Store) DeleteUpload(ctx context.Context, id string) error {
	result, err := s.uploads.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("store: delete upload %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("store: upload %s not found", id)
	}
	return nil
}

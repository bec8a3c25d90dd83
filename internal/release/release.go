// Package release implements the release state machine:
// promoting an upload to released and demoting every sibling at the
// same coordinate to obsolete, all inside a single transaction.
package release

import (
	"context"

	"github.com/vknow360/otaship/internal/apierror"
	"github.com/vknow360/otaship/internal/store"
)

// Service performs the release and rollback operations.
type Service struct {
	Store *store.Store
}

// Release promotes the given upload to "released" and marks every
// other currently-released row at the same
// (applicationId, runtimeVersion, releaseChannel) coordinate as
// obsolete, regardless of platform. Only a row in "ready" may be
// released; releasing an already-released or obsolete row is a
// conflict.
func (s *Service) Release(ctx context.Context, uploadID string) (*store.Upload, error) {
	var released *store.Upload

	err := s.Store.RunInTransaction(ctx, func(txCtx context.Context) error {
		upload, err := s.Store.GetUpload(txCtx, uploadID)
		if err != nil {
			return apierror.Wrap(apierror.KindStoreUnavailable, "failed to load upload", err)
		}
		if upload == nil {
			return apierror.New(apierror.KindNotFound, "upload not found")
		}
		if upload.Status != store.StatusReady {
			return apierror.New(apierror.KindConflict, "only a ready upload may be released")
		}

		if err := s.Store.UpdateUploadStatus(txCtx, uploadID, store.StatusReleased, true); err != nil {
			return apierror.Wrap(apierror.KindStoreUnavailable, "failed to mark upload released", err)
		}

		if err := s.Store.BulkMarkObsolete(txCtx, upload.ApplicationID, upload.RuntimeVersion, upload.ReleaseChannel, uploadID); err != nil {
			return apierror.Wrap(apierror.KindStoreUnavailable, "failed to demote sibling releases", err)
		}

		upload.Status = store.StatusReleased
		released = upload
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// Rollback re-promotes the given upload to "released" and marks every
// other currently-released row at the same
// (applicationId, runtimeVersion, releaseChannel) coordinate as
// obsolete, exactly as Release does. Unlike Release, the target may be
// in "ready" or "obsolete"; rolling back an already-released row is a
// conflict.
func (s *Service) Rollback(ctx context.Context, uploadID string) (*store.Upload, error) {
	var reverted *store.Upload

	err := s.Store.RunInTransaction(ctx, func(txCtx context.Context) error {
		upload, err := s.Store.GetUpload(txCtx, uploadID)
		if err != nil {
			return apierror.Wrap(apierror.KindStoreUnavailable, "failed to load upload", err)
		}
		if upload == nil {
			return apierror.New(apierror.KindNotFound, "upload not found")
		}
		if upload.Status == store.StatusReleased {
			return apierror.New(apierror.KindConflict, "upload is already released")
		}

		if err := s.Store.UpdateUploadStatus(txCtx, uploadID, store.StatusReleased, true); err != nil {
			return apierror.Wrap(apierror.KindStoreUnavailable, "failed to mark upload released", err)
		}

		if err := s.Store.BulkMarkObsolete(txCtx, upload.ApplicationID, upload.RuntimeVersion, upload.ReleaseChannel, uploadID); err != nil {
			return apierror.Wrap(apierror.KindStoreUnavailable, "failed to demote sibling releases", err)
		}

		upload.Status = store.StatusReleased
		reverted = upload
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reverted, nil
}

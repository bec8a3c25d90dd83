// Package devicerecord implements the non-blocking upsert of a
// per-device last-seen row from the manifest serving path. It must
// never participate in the serving transaction, so callers invoke it
// fire-and-forget with its own bounded context.
package devicerecord

import (
	"context"
	"log"
	"time"

	"github.com/vknow360/otaship/internal/store"
)

// Recorder wraps the metadata store for the device-upsert side
// effect.
type Recorder struct {
	Store *store.Store
}

// Upsert records a device sighting with its own 5-second timeout,
// independent of the request that triggered it. Errors are logged,
// never propagated — the manifest response has already been sent.
func (r *Recorder) Upsert(applicationID, deviceID, runtimeVersion, platform, releaseChannel, embeddedUpdateID, currentUpdateID string) {
	if deviceID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	device := &store.Device{
		ID:               deviceID,
		ApplicationID:    applicationID,
		RuntimeVersion:   runtimeVersion,
		Platform:         platform,
		ReleaseChannel:   releaseChannel,
		EmbeddedUpdateID: embeddedUpdateID,
		CurrentUpdateID:  currentUpdateID,
	}

	if err := r.Store.UpsertDevice(ctx, device); err != nil {
		log.Printf("devicerecord: upsert failed for device %s: %v", deviceID, err)
	}
}

// RecordDownload bumps an upload's download counter with its own
// bounded timeout, independent of the request that triggered it.
func (r *Recorder) RecordDownload(uploadID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.Store.IncrementDownloadCount(ctx, uploadID); err != nil {
		log.Printf("devicerecord: download count increment failed for upload %s: %v", uploadID, err)
	}
}

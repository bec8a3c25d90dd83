// Package store is the typed metadata-store facade: the only
// queries and mutations the rest of the system needs over
// applications, uploads, and devices.
package store

import (
	"encoding/json"
	"time"
)

// UploadStatus is one of the three release-state-machine states.
type UploadStatus string

const (
	StatusReady    UploadStatus = "ready"
	StatusReleased UploadStatus = "released"
	StatusObsolete UploadStatus = "obsolete"
)

// Platform is one of the three platform coordinates an upload can
// target.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformAll     = "all"
)

// Application is a logical product identified by a short slug.
type Application struct {
	ID             string    `bson:"_id" json:"id"`
	DisplayName    string    `bson:"displayName" json:"displayName"`
	PrivateKeyPEM  string    `bson:"privateKeyPem,omitempty" json:"-"`
	PublicKeyPEM   string    `bson:"publicKeyPem,omitempty" json:"publicKeyPem,omitempty"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Upload is one published artifact bundle; the unit of release.
type Upload struct {
	ID                  string          `bson:"_id" json:"id"`
	ApplicationID       string          `bson:"applicationId" json:"applicationId"`
	RuntimeVersion      string          `bson:"runtimeVersion" json:"runtimeVersion"`
	ReleaseChannel      string          `bson:"releaseChannel" json:"releaseChannel"`
	Platform            string          `bson:"platform" json:"platform"`
	Status              UploadStatus    `bson:"status" json:"status"`
	BlobPrefix          string          `bson:"blobPrefix" json:"blobPrefix"`
	MetadataJSON        json.RawMessage `bson:"metadataJson,omitempty" json:"-"`
	AppConfigJSON       json.RawMessage `bson:"appConfigJson,omitempty" json:"-"`
	AssetsManifestJSON  json.RawMessage `bson:"assetsManifestJson,omitempty" json:"-"`
	SignedManifestJSON  json.RawMessage `bson:"signedManifestJson,omitempty" json:"-"`
	ManifestSignature   json.RawMessage `bson:"manifestSignature,omitempty" json:"-"`
	GitBranch           string          `bson:"gitBranch,omitempty" json:"gitBranch,omitempty"`
	GitCommit           string          `bson:"gitCommit,omitempty" json:"gitCommit,omitempty"`
	SizeBytes           int64           `bson:"sizeBytes" json:"sizeBytes"`
	RolloutPercentage   int             `bson:"rolloutPercentage" default:"100" json:"rolloutPercentage"`
	DownloadCount       int64           `bson:"downloadCount" json:"downloadCount"`
	CreatedAt           time.Time       `bson:"createdAt" json:"createdAt"`
	ReleasedAt          *time.Time      `bson:"releasedAt,omitempty" json:"releasedAt,omitempty"`
	UpdatedAt           time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// Device is one row per client device seen by the manifest endpoint.
// Purely observational; no invariant depends on it.
type Device struct {
	ID               string    `bson:"_id" json:"id"`
	ApplicationID    string    `bson:"applicationId" json:"applicationId"`
	RuntimeVersion   string    `bson:"runtimeVersion" json:"runtimeVersion"`
	Platform         string    `bson:"platform" json:"platform"`
	ReleaseChannel   string    `bson:"releaseChannel" json:"releaseChannel"`
	EmbeddedUpdateID string    `bson:"embeddedUpdateId,omitempty" json:"embeddedUpdateId,omitempty"`
	CurrentUpdateID  string    `bson:"currentUpdateId,omitempty" json:"currentUpdateId,omitempty"`
	FirstSeen        time.Time `bson:"firstSeen" json:"firstSeen"`
	LastSeen         time.Time `bson:"lastSeen" json:"lastSeen"`
	UpdateCount      int       `bson:"updateCount" json:"updateCount"`
}

// APIKey is a supplemental dashboard-issued bearer credential,
// alongside the single static admin secret.
type APIKey struct {
	ID         string    `bson:"_id" json:"id"`
	Name       string    `bson:"name" json:"name"`
	KeyHash    string    `bson:"keyHash" json:"-"`
	Prefix     string    `bson:"prefix" json:"prefix"`
	Scopes     []string  `bson:"scopes" json:"scopes"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	LastUsedAt time.Time `bson:"lastUsedAt" json:"lastUsedAt"`
}

// Package ingest implements the upload ingestion pipeline:
// multipart reception, updateId derivation, content-addressed
// object-store placement, and assets-manifest pre-computation.
package ingest

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"

	"github.com/vknow360/otaship/internal/apierror"
	"github.com/vknow360/otaship/internal/content"
	"github.com/vknow360/otaship/internal/objectstore"
	"github.com/vknow360/otaship/internal/store"
)

// Pipeline ingests published bundles into the object store and
// metadata store.
type Pipeline struct {
	Store   *store.Store
	Objects objectstore.Store
}

// Request is everything the ingestion pipeline needs from one
// publish call, already separated from wire framing by the HTTP
// layer.
type Request struct {
	SharedSecret         string
	ApplicationID        string
	RuntimeVersion       string
	ReleaseChannel       string
	Platform             string
	GitBranch            string
	GitCommit            string
	SignedManifestJSON   []byte // base64-decoded bytes, map[platform]manifestJSONString
	ManifestSignatureRaw []byte // base64-decoded bytes, map[platform]signatureHeaderString
	Files                map[string][]byte
}

// Result is the response body for a successful publish.
type Result struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	Status   string `json:"status"`
}

type fileMetadataDoc struct {
	FileMetadata map[string]platformFileMetadata `json:"fileMetadata"`
}

type platformFileMetadata struct {
	Bundle string              `json:"bundle"`
	Assets []assetFileMetadata `json:"assets"`
}

type assetFileMetadata struct {
	Path string `json:"path"`
	Ext  string `json:"ext"`
}

// AssetEntry is one asset's pre-computed content-address record, as
// stored in assets_manifest_json.
type AssetEntry struct {
	Path          string `json:"path"`
	Hash          string `json:"hash"`
	Key           string `json:"key"`
	FileExtension string `json:"fileExtension"`
	ContentType   string `json:"contentType"`
}

// PlatformAssets is the pre-computed record for one platform's
// bundle and its assets.
type PlatformAssets struct {
	LaunchAsset AssetEntry   `json:"launchAsset"`
	Assets      []AssetEntry `json:"assets"`
}

// AssetsManifest is the full server-computed cache, keyed by
// platform, so the hot serving path never touches the object store
// for metadata.
type AssetsManifest map[string]PlatformAssets

// Ingest authenticates, resolves the application, derives a stable
// updateId, writes every buffered file under the resulting
// blob_prefix, pre-computes the assets manifest, and inserts the
// upload row in status "ready".
func (p *Pipeline) Ingest(ctx context.Context, expectedSecret string, req Request) (*Result, error) {
	if subtle.ConstantTimeCompare([]byte(req.SharedSecret), []byte(expectedSecret)) != 1 || expectedSecret == "" {
		return nil, apierror.New(apierror.KindAuthFailed, "invalid or missing upload secret")
	}

	app, err := p.Store.GetApplication(ctx, req.ApplicationID)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindStoreUnavailable, "failed to resolve application", err)
	}
	if app == nil {
		return nil, apierror.New(apierror.KindNotFound, "application not found")
	}

	platform := req.Platform
	if platform == "" {
		platform = store.PlatformAll
	}

	metadataBytes := req.Files["metadata.json"]

	updateID, err := deriveUpdateID(req.SignedManifestJSON, metadataBytes, platform)
	if err != nil {
		return nil, err
	}

	blobPrefix := fmt.Sprintf("updates/%s/%s/%s", app.ID, req.RuntimeVersion, updateID)

	var totalSize int64
	for name, data := range req.Files {
		key := blobPrefix + "/" + name
		if err := p.Objects.Put(ctx, key, data); err != nil {
			return nil, apierror.Wrap(apierror.KindStoreUnavailable, "failed to write object", err)
		}
		totalSize += int64(len(data))
	}

	var assetsManifest AssetsManifest
	if len(metadataBytes) > 0 {
		assetsManifest, err = computeAssetsManifest(metadataBytes, req.Files)
		if err != nil {
			return nil, apierror.Wrap(apierror.KindInputInvalid, "failed to parse metadata.json", err)
		}
	}
	assetsManifestJSON, err := json.Marshal(assetsManifest)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindInternal, "failed to encode assets manifest", err)
	}

	upload := &store.Upload{
		ID:                 updateID,
		ApplicationID:      app.ID,
		RuntimeVersion:     req.RuntimeVersion,
		ReleaseChannel:     req.ReleaseChannel,
		Platform:           platform,
		Status:             store.StatusReady,
		BlobPrefix:         blobPrefix,
		MetadataJSON:       metadataBytes,
		AppConfigJSON:      req.Files["app.json"],
		AssetsManifestJSON: assetsManifestJSON,
		GitBranch:          req.GitBranch,
		GitCommit:          req.GitCommit,
		SizeBytes:          totalSize,
	}

	if len(req.SignedManifestJSON) > 0 {
		upload.SignedManifestJSON = req.SignedManifestJSON
	}
	if len(req.ManifestSignatureRaw) > 0 {
		upload.ManifestSignature = req.ManifestSignatureRaw
	}

	if err := p.Store.InsertUpload(ctx, upload); err != nil {
		return nil, apierror.Wrap(apierror.KindStoreUnavailable, "failed to record upload", err)
	}

	return &Result{ID: upload.ID, Platform: upload.Platform, Status: string(upload.Status)}, nil
}

// deriveUpdateID prefers the id already committed to by a
// pre-signed manifest, else derives one from metadata.json salted
// with the platform, else falls back to a fresh random UUID.
func deriveUpdateID(signedManifestJSON, metadataJSON []byte, platform string) (string, error) {
	if len(signedManifestJSON) > 0 {
		id, ok, err := updateIDFromSignedManifest(signedManifestJSON)
		if err != nil {
			return "", apierror.Wrap(apierror.KindInputInvalid, "invalid signed manifest", err)
		}
		if ok {
			return id, nil
		}
	}

	if len(metadataJSON) > 0 {
		salted := append(append([]byte{}, metadataJSON...), []byte(":"+platform)...)
		return content.HashToUUID(content.SHA256Hex(salted)), nil
	}

	return content.NewRandomUpdateID(), nil
}

// updateIDFromSignedManifest parses a signed-manifest blob as a map
// from platform to a JSON-encoded manifest string, and returns the
// "id" field of the first platform entry that parses successfully.
func updateIDFromSignedManifest(signedManifestJSON []byte) (string, bool, error) {
	var byPlatform map[string]string
	if err := json.Unmarshal(signedManifestJSON, &byPlatform); err != nil {
		return "", false, err
	}

	for _, manifestStr := range byPlatform {
		var manifest struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal([]byte(manifestStr), &manifest); err != nil {
			continue
		}
		if manifest.ID != "" {
			return manifest.ID, true, nil
		}
	}
	return "", false, nil
}

// computeAssetsManifest walks metadata.json's fileMetadata per
// platform and computes the four content-address fields for the
// bundle and every listed asset.
func computeAssetsManifest(metadataJSON []byte, files map[string][]byte) (AssetsManifest, error) {
	var doc fileMetadataDoc
	if err := json.Unmarshal(metadataJSON, &doc); err != nil {
		return nil, err
	}

	manifest := make(AssetsManifest, len(doc.FileMetadata))
	for platform, pm := range doc.FileMetadata {
		bundleData, ok := files[pm.Bundle]
		if !ok {
			return nil, fmt.Errorf("bundle %q for platform %q was not uploaded", pm.Bundle, platform)
		}
		launchAsset := AssetEntry{
			Path:          pm.Bundle,
			Hash:          content.SHA256Base64URL(bundleData),
			Key:           content.MD5Hex(bundleData),
			FileExtension: ".bundle",
			ContentType:   "application/javascript",
		}

		assets := make([]AssetEntry, 0, len(pm.Assets))
		for _, a := range pm.Assets {
			data, ok := files[a.Path]
			if !ok {
				return nil, fmt.Errorf("asset %q was not uploaded", a.Path)
			}
			assets = append(assets, AssetEntry{
				Path:          a.Path,
				Hash:          content.SHA256Base64URL(data),
				Key:           content.MD5Hex(data),
				FileExtension: "." + a.Ext,
				ContentType:   content.ContentTypeForExtension(a.Ext),
			})
		}

		manifest[platform] = PlatformAssets{LaunchAsset: launchAsset, Assets: assets}
	}

	return manifest, nil
}

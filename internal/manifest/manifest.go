// Package manifest implements the manifest composer and the
// multipart/mixed wire encoder: resolving a device's coordinate
// to a servable upload, building or passing through its manifest
// bytes, signing when requested, and framing the response the way
// the Expo Updates client parser expects.
package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"time"

	"github.com/vknow360/otaship/internal/apierror"
	"github.com/vknow360/otaship/internal/ingest"
	"github.com/vknow360/otaship/internal/requestctx"
	"github.com/vknow360/otaship/internal/rollout"
	"github.com/vknow360/otaship/internal/signing"
	"github.com/vknow360/otaship/internal/store"
)

// DeviceUpsertFunc enqueues a device-record upsert; the composer
// calls it without waiting on it, so it must not block the response.
type DeviceUpsertFunc func(applicationID, deviceID, runtimeVersion, platform, releaseChannel, embeddedUpdateID, currentUpdateID string)

// DownloadRecordFunc enqueues a download-counter increment for an
// upload that was just served to a device; the composer calls it
// without waiting on it.
type DownloadRecordFunc func(uploadID string)

// Composer resolves a device request to a signed, framed manifest
// response.
type Composer struct {
	Store          *store.Store
	Rollout        *rollout.Service
	DeviceUpsert   DeviceUpsertFunc
	DownloadRecord DownloadRecordFunc
}

// Response is the fully composed wire payload.
type Response struct {
	Body            []byte
	ContentType     string // includes the boundary parameter
	ProtocolVersion int
	Signature       string // empty if unsigned
}

type assetEntry struct {
	Hash          string `json:"hash"`
	Key           string `json:"key"`
	ContentType   string `json:"contentType"`
	FileExtension string `json:"fileExtension,omitempty"`
	URL           string `json:"url"`
}

type manifestObject struct {
	ID             string         `json:"id"`
	CreatedAt      string         `json:"createdAt"`
	RuntimeVersion string         `json:"runtimeVersion"`
	LaunchAsset    assetEntry     `json:"launchAsset"`
	Assets         []assetEntry   `json:"assets"`
	Metadata       map[string]any `json:"metadata"`
	Extra          manifestExtra  `json:"extra"`
}

type manifestExtra struct {
	ExpoClient json.RawMessage `json:"expoClient,omitempty"`
}

// Compose resolves dr to a servable upload and produces the manifest
// wire payload. dr.ClientID selects the deterministic rollout bucket
// and is the id under which the device record is upserted.
func (c *Composer) Compose(ctx context.Context, app *store.Application, dr *requestctx.DeviceRequest, assetBaseURL string) (*Response, error) {
	upload, err := c.Store.FindServableUpload(ctx, app.ID, dr.RuntimeVersion, dr.ReleaseChannel, dr.Platform)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindStoreUnavailable, "failed to resolve servable upload", err)
	}
	if upload == nil {
		return nil, apierror.New(apierror.KindNotFound, "no released upload for this coordinate")
	}
	if c.Rollout != nil && !c.Rollout.ShouldServe(upload.RolloutPercentage, dr.ClientID) {
		return nil, apierror.New(apierror.KindNotFound, "no released upload for this coordinate")
	}

	if c.DeviceUpsert != nil {
		go c.DeviceUpsert(app.ID, dr.ClientID, dr.RuntimeVersion, dr.Platform, dr.ReleaseChannel, dr.EmbeddedUpdateID, dr.CurrentUpdateID)
	}

	manifestBytes, signatureHeader, err := c.manifestBytesFor(app, upload, dr, assetBaseURL)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeMultipartMixed(manifestBytes, signatureHeader)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindInternal, "failed to encode multipart response", err)
	}

	if c.DownloadRecord != nil {
		go c.DownloadRecord(upload.ID)
	}

	return &Response{
		Body:            body,
		ContentType:     contentType,
		ProtocolVersion: dr.ProtocolVersion,
		Signature:       signatureHeader,
	}, nil
}

// manifestBytesFor returns the exact bytes to put on the wire as the
// manifest part, and the expo-signature header value if one applies.
// If the upload already carries a pre-signed manifest for this
// platform, those bytes are passed through byte-for-byte — re-
// serializing them would change whitespace and invalidate the
// signature.
func (c *Composer) manifestBytesFor(app *store.Application, upload *store.Upload, dr *requestctx.DeviceRequest, assetBaseURL string) ([]byte, string, error) {
	if len(upload.SignedManifestJSON) > 0 {
		var manifestsByPlatform map[string]string
		if err := json.Unmarshal(upload.SignedManifestJSON, &manifestsByPlatform); err == nil {
			if raw, ok := manifestsByPlatform[dr.Platform]; ok {
				sig := ""
				if len(upload.ManifestSignature) > 0 {
					var sigsByPlatform map[string]string
					if err := json.Unmarshal(upload.ManifestSignature, &sigsByPlatform); err == nil {
						sig = sigsByPlatform[dr.Platform]
					}
				}
				return []byte(raw), sig, nil
			}
		}
	}

	var assetsManifest ingest.AssetsManifest
	if err := json.Unmarshal(upload.AssetsManifestJSON, &assetsManifest); err != nil {
		return nil, "", apierror.Wrap(apierror.KindInternal, "failed to parse stored assets manifest", err)
	}
	platformAssets, ok := assetsManifest[dr.Platform]
	if !ok {
		return nil, "", apierror.New(apierror.KindNotFound, "no assets recorded for this platform")
	}

	launchAsset := assetEntryFor(platformAssets.LaunchAsset, upload.BlobPrefix, dr.Platform, assetBaseURL)
	assets := make([]assetEntry, 0, len(platformAssets.Assets))
	for _, a := range platformAssets.Assets {
		assets = append(assets, assetEntryFor(a, upload.BlobPrefix, dr.Platform, assetBaseURL))
	}

	obj := manifestObject{
		ID:             upload.ID,
		CreatedAt:      upload.CreatedAt.UTC().Format(time.RFC3339),
		RuntimeVersion: dr.RuntimeVersion,
		LaunchAsset:    launchAsset,
		Assets:         assets,
		Metadata:       map[string]any{},
		Extra:          manifestExtra{ExpoClient: upload.AppConfigJSON},
	}

	manifestBytes, err := json.Marshal(obj)
	if err != nil {
		return nil, "", apierror.Wrap(apierror.KindInternal, "failed to encode manifest", err)
	}

	if !dr.ExpectSignature || app.PrivateKeyPEM == "" {
		return manifestBytes, "", nil
	}

	privateKey, err := signing.ParsePrivateKeyPEM([]byte(app.PrivateKeyPEM))
	if err != nil {
		return nil, "", apierror.Wrap(apierror.KindSigningFailed, "failed to load application private key", err)
	}
	sigHeader, err := signing.SignatureHeader(privateKey, manifestBytes)
	if err != nil {
		return nil, "", apierror.Wrap(apierror.KindSigningFailed, "failed to sign manifest", err)
	}
	return manifestBytes, sigHeader, nil
}

func assetEntryFor(entry ingest.AssetEntry, blobPrefix, platform, assetBaseURL string) assetEntry {
	key := blobPrefix + "/" + entry.Path
	u := fmt.Sprintf("%s?asset=%s&contentType=%s&platform=%s",
		assetBaseURL, url.QueryEscape(key), url.QueryEscape(entry.ContentType), url.QueryEscape(platform))
	return assetEntry{
		Hash:          entry.Hash,
		Key:           entry.Key,
		ContentType:   entry.ContentType,
		FileExtension: entry.FileExtension,
		URL:           u,
	}
}

// encodeMultipartMixed frames the manifest and the static
// extensions part as a multipart/mixed body with a fresh boundary,
// using the exact part headers Expo Updates clients expect.
func encodeMultipartMixed(manifestBytes []byte, signatureHeader string) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	manifestHeader := textproto.MIMEHeader{}
	manifestHeader.Set("Content-Type", "application/json; charset=utf-8")
	manifestHeader.Set("Content-Disposition", `form-data; name="manifest"`)
	if signatureHeader != "" {
		// Assigned directly so the key keeps its lowercase wire form;
		// Set would canonicalize it to "Expo-Signature".
		manifestHeader["expo-signature"] = []string{signatureHeader}
	}
	manifestPart, err := writer.CreatePart(manifestHeader)
	if err != nil {
		return nil, "", err
	}
	if _, err := manifestPart.Write(manifestBytes); err != nil {
		return nil, "", err
	}

	extensionsHeader := textproto.MIMEHeader{}
	extensionsHeader.Set("Content-Type", "application/json")
	extensionsHeader.Set("Content-Disposition", `form-data; name="extensions"`)
	extensionsPart, err := writer.CreatePart(extensionsHeader)
	if err != nil {
		return nil, "", err
	}
	if _, err := extensionsPart.Write([]byte(`{"assetRequestHeaders": {}}`)); err != nil {
		return nil, "", err
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), "multipart/mixed; boundary=" + writer.Boundary(), nil
}

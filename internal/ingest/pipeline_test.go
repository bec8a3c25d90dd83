package ingest

import (
	"encoding/json"
	"testing"
)

func TestDeriveUpdateIDPrefersSignedManifest(t *testing.T) {
	signed, _ := json.Marshal(map[string]string{
		"ios": `{"id":"11111111-1111-1111-1111-111111111111"}`,
	})

	id, err := deriveUpdateID(signed, nil, "ios")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "11111111-1111-1111-1111-111111111111" {
		t.Fatalf("expected signed manifest id to win, got %q", id)
	}
}

func TestDeriveUpdateIDFallsBackToMetadataHash(t *testing.T) {
	metadata := []byte(`{"fileMetadata":{}}`)

	id1, err := deriveUpdateID(nil, metadata, "ios")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id2, err := deriveUpdateID(nil, metadata, "ios")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id1 != id2 {
		t.Fatal("same metadata and platform must derive the same id")
	}

	id3, err := deriveUpdateID(nil, metadata, "android")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id3 == id1 {
		t.Fatal("different platform salt must derive a different id")
	}
}

func TestDeriveUpdateIDRandomFallback(t *testing.T) {
	id1, err := deriveUpdateID(nil, nil, "ios")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id2, err := deriveUpdateID(nil, nil, "ios")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id1 == id2 {
		t.Fatal("random fallback ids should not collide in practice")
	}
}

func TestComputeAssetsManifest(t *testing.T) {
	metadata := []byte(`{
		"fileMetadata": {
			"ios": {
				"bundle": "bundle-ios.js",
				"assets": [{"path": "assets/logo.png", "ext": "png"}]
			}
		}
	}`)
	files := map[string][]byte{
		"bundle-ios.js":   []byte("console.log(1)"),
		"assets/logo.png": []byte("fake-png-bytes"),
	}

	manifest, err := computeAssetsManifest(metadata, files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ios, ok := manifest["ios"]
	if !ok {
		t.Fatal("expected an ios entry")
	}
	if ios.LaunchAsset.Path != "bundle-ios.js" || ios.LaunchAsset.FileExtension != ".bundle" {
		t.Fatalf("unexpected launch asset: %+v", ios.LaunchAsset)
	}
	if len(ios.Assets) != 1 || ios.Assets[0].ContentType != "image/png" {
		t.Fatalf("unexpected assets: %+v", ios.Assets)
	}
}

func TestComputeAssetsManifestMissingFileErrors(t *testing.T) {
	metadata := []byte(`{"fileMetadata":{"ios":{"bundle":"missing.js","assets":[]}}}`)
	if _, err := computeAssetsManifest(metadata, map[string][]byte{}); err == nil {
		t.Fatal("expected an error for a bundle that was never uploaded")
	}
}

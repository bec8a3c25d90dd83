package manifest

import (
	"strings"
	"testing"

	"github.com/vknow360/otaship/internal/ingest"
)

func TestEncodeMultipartMixedIncludesBothParts(t *testing.T) {
	body, contentType, err := encodeMultipartMixed([]byte(`{"id":"x"}`), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(contentType, "multipart/mixed; boundary=") {
		t.Fatalf("unexpected content type: %q", contentType)
	}

	s := string(body)
	if !strings.Contains(s, `name="manifest"`) {
		t.Fatal("expected a manifest part")
	}
	if !strings.Contains(s, `name="extensions"`) {
		t.Fatal("expected an extensions part")
	}
	if !strings.Contains(s, `"assetRequestHeaders": {}`) {
		t.Fatal("expected the static extensions body")
	}
}

func TestEncodeMultipartMixedIncludesSignatureHeader(t *testing.T) {
	body, _, err := encodeMultipartMixed([]byte(`{"id":"x"}`), `sig="abc", keyid="main"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(body), "expo-signature") {
		t.Fatal("expected an expo-signature header when signing is in effect")
	}
}

func TestAssetEntryForBuildsURLWithQueryParams(t *testing.T) {
	source := ingest.AssetEntry{
		Path:          "assets/logo.png",
		Hash:          "hash123",
		Key:           "key123",
		FileExtension: ".png",
		ContentType:   "image/png",
	}
	entry := assetEntryFor(source, "updates/app1/1.0.0/abc", "ios", "https://example.com/api/assets")
	if !strings.HasPrefix(entry.URL, "https://example.com/api/assets?asset=") {
		t.Fatalf("unexpected url: %q", entry.URL)
	}
	if !strings.Contains(entry.URL, "platform=ios") {
		t.Fatalf("expected platform query param, got %q", entry.URL)
	}
}

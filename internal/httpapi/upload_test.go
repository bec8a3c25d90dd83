package httpapi

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestContext(headers map[string]string) *gin.Context {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.Request = req
	return c
}

func TestBuildIngestRequestReadsHeadersNotQuery(t *testing.T) {
	c := newTestContext(map[string]string{
		"x-upload-secret": "s3cr3t",
		"project":         "my-app",
		"version":         "1.0.0",
		"release-channel": "production",
		"platform":        "ios",
		"git-branch":      "main",
		"git-commit":      "abc123",
	})
	// A malicious or stale query string must never be consulted.
	c.Request.URL.RawQuery = "project=from-query&version=9.9.9&platform=android"

	req, err := buildIngestRequest(c, map[string][]byte{"bundle.js": []byte("x")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ApplicationID != "my-app" {
		t.Fatalf("expected project header to win, got %q", req.ApplicationID)
	}
	if req.RuntimeVersion != "1.0.0" {
		t.Fatalf("expected version header to win, got %q", req.RuntimeVersion)
	}
	if req.ReleaseChannel != "production" {
		t.Fatalf("unexpected release channel: %q", req.ReleaseChannel)
	}
	if req.Platform != "ios" {
		t.Fatalf("expected platform header to win, got %q", req.Platform)
	}
	if req.GitBranch != "main" || req.GitCommit != "abc123" {
		t.Fatalf("unexpected git metadata: %+v", req)
	}
	if req.SharedSecret != "s3cr3t" {
		t.Fatalf("unexpected shared secret: %q", req.SharedSecret)
	}
}

func TestBuildIngestRequestDecodesSignedManifestHeader(t *testing.T) {
	manifestJSON := `{"ios":"{\"id\":\"11111111-1111-1111-1111-111111111111\"}"}`
	sigHeader := `sig="abc", keyid="main"`

	c := newTestContext(map[string]string{
		"signed-manifest":    base64.StdEncoding.EncodeToString([]byte(manifestJSON)),
		"manifest-signature": base64.StdEncoding.EncodeToString([]byte(sigHeader)),
	})

	req, err := buildIngestRequest(c, map[string][]byte{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(req.SignedManifestJSON) != manifestJSON {
		t.Fatalf("unexpected decoded signed manifest: %q", req.SignedManifestJSON)
	}
	if string(req.ManifestSignatureRaw) != sigHeader {
		t.Fatalf("unexpected decoded manifest signature: %q", req.ManifestSignatureRaw)
	}
}

func TestBuildIngestRequestRejectsInvalidBase64SignedManifest(t *testing.T) {
	c := newTestContext(map[string]string{
		"signed-manifest": "not-valid-base64!!",
	})

	if _, err := buildIngestRequest(c, map[string][]byte{}); err == nil {
		t.Fatal("expected an error for a malformed signed-manifest header")
	}
}

func TestBuildIngestRequestLeavesManifestFieldsEmptyWhenHeadersAbsent(t *testing.T) {
	c := newTestContext(map[string]string{"project": "my-app"})

	req, err := buildIngestRequest(c, map[string][]byte{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.SignedManifestJSON != nil || req.ManifestSignatureRaw != nil {
		t.Fatalf("expected no manifest bytes when headers are absent, got %+v", req)
	}
}

package requestctx

import (
	"net/http"
	"net/url"
	"testing"
)

func TestParsePrefersHeaderOverQueryOverPath(t *testing.T) {
	headers := http.Header{}
	headers.Set("x-app-project", "from-header")
	headers.Set("x-app-platform", "ios")
	headers.Set("x-app-runtime-version", "1.0.0")
	headers.Set("x-app-channel-name", "production")

	query := url.Values{"project": {"from-query"}}
	path := PathSegments{ApplicationID: "from-path"}

	dr, err := Parse(headers, query, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dr.ApplicationID != "from-header" {
		t.Fatalf("expected header to win, got %q", dr.ApplicationID)
	}
}

func TestParseFallsBackToQueryThenPath(t *testing.T) {
	headers := http.Header{}
	headers.Set("x-app-platform", "android")
	headers.Set("x-app-runtime-version", "1.0.0")

	query := url.Values{"channel": {"staging"}}
	path := PathSegments{ApplicationID: "path-app"}

	dr, err := Parse(headers, query, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dr.ApplicationID != "path-app" {
		t.Fatalf("expected path fallback, got %q", dr.ApplicationID)
	}
	if dr.ReleaseChannel != "staging" {
		t.Fatalf("expected query fallback, got %q", dr.ReleaseChannel)
	}
}

func TestParseRejectsMissingRequiredField(t *testing.T) {
	headers := http.Header{}
	headers.Set("x-app-project", "app")
	headers.Set("x-app-platform", "ios")
	// runtime version missing
	headers.Set("x-app-channel-name", "production")

	_, err := Parse(headers, url.Values{}, PathSegments{})
	if err == nil {
		t.Fatalf("expected error for missing runtime version")
	}
}

func TestParseRejectsInvalidPlatform(t *testing.T) {
	headers := http.Header{}
	headers.Set("x-app-project", "app")
	headers.Set("x-app-platform", "windows")
	headers.Set("x-app-runtime-version", "1.0.0")
	headers.Set("x-app-channel-name", "production")

	_, err := Parse(headers, url.Values{}, PathSegments{})
	if err == nil {
		t.Fatalf("expected error for invalid platform")
	}
}

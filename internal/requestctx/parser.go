// Package requestctx extracts a device request's context from
// headers, the query string, and path segments, with strict
// precedence header > query > path for every field.
package requestctx

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/schema"

	"github.com/vknow360/otaship/internal/apierror"
)

var queryDecoder = schema.NewDecoder()

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

// DeviceRequest is the parsed context of an inbound device poll.
type DeviceRequest struct {
	ApplicationID    string
	Platform         string
	RuntimeVersion   string
	ReleaseChannel   string
	ProtocolVersion  int
	ExpectSignature  bool
	ClientID         string
	EmbeddedUpdateID string
	CurrentUpdateID  string
}

// queryFields mirrors the query-string fields the wire protocol
// recognizes; gorilla/schema decodes url.Values into this struct so
// the query layer of the precedence chain is a single typed
// decode instead of per-field ad hoc lookups.
type queryFields struct {
	Project string `schema:"project"`
	Channel string `schema:"channel"`
	Version string `schema:"version"`
	Platform string `schema:"platform"`
}

// PathSegments carries the values a router extracted from the URL
// path (e.g. gin's c.Param), which rank lowest in the precedence
// order.
type PathSegments struct {
	ApplicationID  string
	ReleaseChannel string
}

// Parse extracts a DeviceRequest from headers, the raw query string
// values, and path segments. Precedence is header > query > path for
// every field that can come from more than one source.
func Parse(headers http.Header, query url.Values, path PathSegments) (*DeviceRequest, error) {
	var qf queryFields
	if err := queryDecoder.Decode(&qf, query); err != nil {
		return nil, apierror.Wrap(apierror.KindInputInvalid, "invalid query string", err)
	}

	dr := &DeviceRequest{}

	dr.ApplicationID = firstNonEmpty(headers.Get("x-app-project"), qf.Project, path.ApplicationID)
	if dr.ApplicationID == "" {
		return nil, apierror.New(apierror.KindInputInvalid, "application id is required")
	}

	dr.Platform = firstNonEmpty(headers.Get("x-app-platform"), qf.Platform)
	if dr.Platform != "ios" && dr.Platform != "android" {
		return nil, apierror.New(apierror.KindInputInvalid, "platform must be ios or android")
	}

	dr.RuntimeVersion = firstNonEmpty(headers.Get("x-app-runtime-version"), qf.Version)
	if dr.RuntimeVersion == "" {
		return nil, apierror.New(apierror.KindInputInvalid, "runtime version is required")
	}

	dr.ReleaseChannel = firstNonEmpty(headers.Get("x-app-channel-name"), qf.Channel, path.ReleaseChannel)
	if dr.ReleaseChannel == "" {
		return nil, apierror.New(apierror.KindInputInvalid, "release channel is required")
	}

	protocolVersionStr := headers.Get("x-app-protocol-version")
	if protocolVersionStr == "" {
		protocolVersionStr = "0"
	}
	protocolVersion, err := strconv.Atoi(protocolVersionStr)
	if err != nil {
		return nil, apierror.New(apierror.KindInputInvalid, "protocol version must be an integer")
	}
	dr.ProtocolVersion = protocolVersion

	dr.ExpectSignature = headers.Get("x-app-expect-signature") == "true" || headers.Get("x-app-expect-signature") == "1"
	dr.ClientID = headers.Get("x-eas-client-id")
	dr.EmbeddedUpdateID = headers.Get("x-app-embedded-update-id")
	dr.CurrentUpdateID = headers.Get("x-app-current-update-id")

	return dr, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

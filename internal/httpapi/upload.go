package httpapi

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vknow360/otaship/internal/apierror"
	"github.com/vknow360/otaship/internal/ingest"
	"github.com/vknow360/otaship/internal/middleware"
)

// UploadHandler receives a publisher's multipart body and runs it
// through the ingestion pipeline. Auth is enforced by
// middleware.UploadAuth, so the secret check here is redundant
// defense against a handler registered without that middleware.
type UploadHandler struct {
	Pipeline     *ingest.Pipeline
	UploadSecret string
}

// Handle parses the multipart body and ingests it.
func (h *UploadHandler) Handle(c *gin.Context) {
	reader, err := c.Request.MultipartReader()
	if err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindInputInvalid, "expected multipart body", err))
		return
	}

	files, err := ingest.ReadParts(reader, ingest.DefaultLimits)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	req, err := buildIngestRequest(c, files)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	result, err := h.Pipeline.Ingest(c.Request.Context(), h.UploadSecret, req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// buildIngestRequest reads the publisher-supplied headers (not query
// parameters — per the wire contract these are headers:
// project/version/release-channel/platform/git-branch/git-commit,
// plus the optional base64 signed-manifest/manifest-signature pair)
// into an ingest.Request.
func buildIngestRequest(c *gin.Context, files map[string][]byte) (ingest.Request, error) {
	req := ingest.Request{
		SharedSecret:   c.GetHeader("x-upload-secret"),
		ApplicationID:  c.GetHeader("project"),
		RuntimeVersion: c.GetHeader("version"),
		ReleaseChannel: c.GetHeader("release-channel"),
		Platform:       c.GetHeader("platform"),
		GitBranch:      c.GetHeader("git-branch"),
		GitCommit:      c.GetHeader("git-commit"),
		Files:          files,
	}

	if raw := c.GetHeader("signed-manifest"); raw != "" {
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return ingest.Request{}, apierror.Wrap(apierror.KindInputInvalid, "signed-manifest header is not valid base64", err)
		}
		req.SignedManifestJSON = decoded
	}
	if raw := c.GetHeader("manifest-signature"); raw != "" {
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return ingest.Request{}, apierror.Wrap(apierror.KindInputInvalid, "manifest-signature header is not valid base64", err)
		}
		req.ManifestSignatureRaw = decoded
	}

	return req, nil
}

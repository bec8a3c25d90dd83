// Package httpapi wires the Gin router: device manifest polling,
// asset streaming, upload ingestion, and the dashboard CRUD/release
// surface, per the HTTP surface table.
package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vknow360/otaship/internal/apierror"
	"github.com/vknow360/otaship/internal/manifest"
	"github.com/vknow360/otaship/internal/middleware"
	"github.com/vknow360/otaship/internal/requestctx"
	"github.com/vknow360/otaship/internal/store"
)

// ManifestHandler serves the device poll endpoint: parsing the
// request context, resolving the servable upload, and composing the
// wire response.
type ManifestHandler struct {
	Store        *store.Store
	Composer     *manifest.Composer
	AssetBaseURL string
}

// Handle processes manifest requests from Expo clients, either at
// /api/manifest (headers/query driven) or /api/manifest/:app/:channel
// (path-segment driven, still overridable by header/query).
func (h *ManifestHandler) Handle(c *gin.Context) {
	path := requestctx.PathSegments{
		ApplicationID:  c.Param("projectSlug"),
		ReleaseChannel: c.Param("channel"),
	}

	dr, err := requestctx.Parse(c.Request.Header, c.Request.URL.Query(), path)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	app, err := h.Store.GetApplication(c.Request.Context(), dr.ApplicationID)
	if err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindStoreUnavailable, "failed to resolve application", err))
		return
	}
	if app == nil {
		middleware.RespondError(c, apierror.New(apierror.KindNotFound, "application not found"))
		return
	}

	resp, err := h.Composer.Compose(c.Request.Context(), app, dr, h.AssetBaseURL)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.Header("expo-protocol-version", strconv.Itoa(resp.ProtocolVersion))
	c.Header("expo-sfv-version", "0")
	c.Header("Cache-Control", "private, max-age=0")
	if resp.Signature != "" {
		c.Header("expo-signature", resp.Signature)
	}
	c.Data(http.StatusOK, resp.ContentType, resp.Body)
}

package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vknow360/otaship/internal/apierror"
	"github.com/vknow360/otaship/internal/middleware"
	"github.com/vknow360/otaship/internal/objectstore"
)

// AssetsHandler streams raw object-store bytes for the manifest's
// advertised asset URLs.
type AssetsHandler struct {
	Objects objectstore.Store
}

// Handle enforces the two path predicates and streams the object.
func (h *AssetsHandler) Handle(c *gin.Context) {
	key := c.Query("asset")
	contentType := c.Query("contentType")

	if key == "" {
		middleware.RespondError(c, apierror.New(apierror.KindInputInvalid, "asset key is required"))
		return
	}
	if !strings.HasPrefix(key, "updates/") {
		middleware.RespondError(c, apierror.New(apierror.KindForbidden, "asset key outside the updates prefix"))
		return
	}
	if strings.HasSuffix(key, "app.json") || strings.HasSuffix(key, "package.json") {
		middleware.RespondError(c, apierror.New(apierror.KindForbidden, "asset key denies config files"))
		return
	}

	reader, size, err := h.Objects.Get(c.Request.Context(), key)
	if err == objectstore.ErrNotFound {
		middleware.RespondError(c, apierror.New(apierror.KindNotFound, "asset not found"))
		return
	}
	if err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindStoreUnavailable, "failed to read asset", err))
		return
	}
	defer reader.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.DataFromReader(http.StatusOK, size, contentType, reader, nil)
}

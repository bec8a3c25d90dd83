package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vknow360/otaship/internal/apierror"
	"github.com/vknow360/otaship/internal/middleware"
	"github.com/vknow360/otaship/internal/release"
)

// ReleaseHandler drives the release-state-machine operations from
// the dashboard.
type ReleaseHandler struct {
	Service *release.Service
}

type releaseRequest struct {
	UploadID string `json:"uploadId" binding:"required"`
}

// Release promotes an upload to released.
func (h *ReleaseHandler) Release(c *gin.Context) {
	var req releaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindInputInvalid, "invalid request body", err))
		return
	}
	upload, err := h.Service.Release(c.Request.Context(), req.UploadID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

// Rollback re-promotes an earlier (ready or obsolete) upload to
// released, demoting the currently-released sibling.
func (h *ReleaseHandler) Rollback(c *gin.Context) {
	var req releaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindInputInvalid, "invalid request body", err))
		return
	}
	upload, err := h.Service.Rollback(c.Request.Context(), req.UploadID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

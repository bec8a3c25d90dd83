package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vknow360/otaship/internal/apierror"
	"github.com/vknow360/otaship/internal/middleware"
	"github.com/vknow360/otaship/internal/store"
)

// UploadsHandler implements the dashboard's upload-row CRUD surface.
type UploadsHandler struct {
	Store *store.Store
}

// List returns uploads filtered by query parameters, paginated.
func (h *UploadsHandler) List(c *gin.Context) {
	filter := store.UploadFilter{
		ApplicationID:  c.Query("project"),
		RuntimeVersion: c.Query("runtimeVersion"),
		ReleaseChannel: c.Query("channel"),
		Platform:       c.Query("platform"),
		Status:         store.UploadStatus(c.Query("status")),
	}

	limit := parseIntDefault(c.Query("limit"), 50)
	offset := parseIntDefault(c.Query("offset"), 0)

	uploads, total, err := h.Store.ListUploads(c.Request.Context(), filter, int64(limit), int64(offset))
	if err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindStoreUnavailable, "failed to list uploads", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploads": uploads, "total": total})
}

// Get returns a single upload row.
func (h *UploadsHandler) Get(c *gin.Context) {
	upload, err := h.Store.GetUpload(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindStoreUnavailable, "failed to load upload", err))
		return
	}
	if upload == nil {
		middleware.RespondError(c, apierror.New(apierror.KindNotFound, "upload not found"))
		return
	}
	c.JSON(http.StatusOK, upload)
}

// Update applies a partial update to an upload row (e.g. adjusting
// rolloutPercentage).
func (h *UploadsHandler) Update(c *gin.Context) {
	var fields bson.M
	if err := c.ShouldBindJSON(&fields); err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindInputInvalid, "invalid request body", err))
		return
	}
	delete(fields, "_id")
	delete(fields, "id")
	delete(fields, "status")

	if percentage, ok := fields["rolloutPercentage"]; ok {
		if n, ok := percentage.(float64); !ok || n < 0 || n > 100 {
			middleware.RespondError(c, apierror.New(apierror.KindInputInvalid, "rolloutPercentage must be 0-100"))
			return
		}
	}

	upload, err := h.Store.GetUpload(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindStoreUnavailable, "failed to load upload", err))
		return
	}
	if upload == nil {
		middleware.RespondError(c, apierror.New(apierror.KindNotFound, "upload not found"))
		return
	}

	if err := h.Store.UpdateUploadFields(c.Request.Context(), upload.ID, fields); err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindStoreUnavailable, "failed to update upload", err))
		return
	}
	c.Status(http.StatusOK)
}

// Delete permanently removes an upload row. It does not delete the
// object-store bytes under the row's blobPrefix, and nothing in this
// server removes them later.
func (h *UploadsHandler) Delete(c *gin.Context) {
	if err := h.Store.DeleteUpload(c.Request.Context(), c.Param("id")); err != nil {
		middleware.RespondError(c, apierror.New(apierror.KindNotFound, "upload not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

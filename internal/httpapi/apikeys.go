package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vknow360/otaship/internal/apierror"
	"github.com/vknow360/otaship/internal/middleware"
	"github.com/vknow360/otaship/internal/store"
)

// APIKeysHandler implements the dashboard's API-key issuance and
// revocation surface, supplemental to the static admin secret.
type APIKeysHandler struct {
	Store *store.Store
}

type createAPIKeyRequest struct {
	Name   string   `json:"name" binding:"required"`
	Scopes []string `json:"scopes"`
}

// List returns every issued API key (never the plaintext).
func (h *APIKeysHandler) List(c *gin.Context) {
	keys, err := h.Store.ListAPIKeys(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindStoreUnavailable, "failed to list api keys", err))
		return
	}
	c.JSON(http.StatusOK, keys)
}

// Create issues a new API key, returning its plaintext exactly once.
func (h *APIKeysHandler) Create(c *gin.Context) {
	var req createAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindInputInvalid, "invalid request body", err))
		return
	}
	plaintext, key, err := h.Store.CreateAPIKey(c.Request.Context(), req.Name, req.Scopes)
	if err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindStoreUnavailable, "failed to create api key", err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": plaintext, "record": key})
}

// Delete revokes an API key.
func (h *APIKeysHandler) Delete(c *gin.Context) {
	if err := h.Store.DeleteAPIKey(c.Request.Context(), c.Param("id")); err != nil {
		middleware.RespondError(c, apierror.New(apierror.KindNotFound, "api key not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

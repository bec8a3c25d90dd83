package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vknow360/otaship/internal/apierror"
	"github.com/vknow360/otaship/internal/middleware"
	"github.com/vknow360/otaship/internal/signing"
	"github.com/vknow360/otaship/internal/store"
)

// AppsHandler implements the dashboard's application CRUD surface.
type AppsHandler struct {
	Store *store.Store
}

type createApplicationRequest struct {
	ID          string `json:"id" binding:"required"`
	DisplayName string `json:"displayName"`
	GenerateKey bool   `json:"generateKeyPair"`
}

// List returns every application.
func (h *AppsHandler) List(c *gin.Context) {
	apps, err := h.Store.ListApplications(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindStoreUnavailable, "failed to list applications", err))
		return
	}
	c.JSON(http.StatusOK, apps)
}

// Get returns a single application by id.
func (h *AppsHandler) Get(c *gin.Context) {
	app, err := h.Store.GetApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindStoreUnavailable, "failed to load application", err))
		return
	}
	if app == nil {
		middleware.RespondError(c, apierror.New(apierror.KindNotFound, "application not found"))
		return
	}
	c.JSON(http.StatusOK, app)
}

// Create inserts a new application, optionally generating its
// signing key pair in the same call.
func (h *AppsHandler) Create(c *gin.Context) {
	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindInputInvalid, "invalid request body", err))
		return
	}

	app := &store.Application{ID: req.ID, DisplayName: req.DisplayName}
	if req.GenerateKey {
		privatePEM, publicPEM, err := signing.GenerateKeyPair()
		if err != nil {
			middleware.RespondError(c, apierror.Wrap(apierror.KindSigningFailed, "failed to generate key pair", err))
			return
		}
		app.PrivateKeyPEM = privatePEM
		app.PublicKeyPEM = publicPEM
	}

	if err := h.Store.InsertApplication(c.Request.Context(), app); err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindStoreUnavailable, "failed to create application", err))
		return
	}
	c.JSON(http.StatusCreated, app)
}

// Update applies a partial update to an application.
func (h *AppsHandler) Update(c *gin.Context) {
	var fields bson.M
	if err := c.ShouldBindJSON(&fields); err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindInputInvalid, "invalid request body", err))
		return
	}
	delete(fields, "_id")
	delete(fields, "id")

	if err := h.Store.UpdateApplication(c.Request.Context(), c.Param("id"), fields); err != nil {
		middleware.RespondError(c, apierror.New(apierror.KindNotFound, "application not found"))
		return
	}
	c.Status(http.StatusOK)
}

// Delete cascades the application's uploads and devices and removes
// the application row.
func (h *AppsHandler) Delete(c *gin.Context) {
	if err := h.Store.DeleteApplicationCascade(c.Request.Context(), c.Param("id")); err != nil {
		middleware.RespondError(c, apierror.New(apierror.KindNotFound, "application not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

// GenerateKeyPair issues a fresh RSA key pair and stores it on the
// application, overwriting any existing key.
func (h *AppsHandler) GenerateKeyPair(c *gin.Context) {
	privatePEM, publicPEM, err := signing.GenerateKeyPair()
	if err != nil {
		middleware.RespondError(c, apierror.Wrap(apierror.KindSigningFailed, "failed to generate key pair", err))
		return
	}

	fields := bson.M{"privateKeyPem": privatePEM, "publicKeyPem": publicPEM, "updatedAt": time.Now().UTC()}
	if err := h.Store.UpdateApplication(c.Request.Context(), c.Param("id"), fields); err != nil {
		middleware.RespondError(c, apierror.New(apierror.KindNotFound, "application not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKeyPem": publicPEM})
}

package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vknow360/otaship/internal/objectstore"
	"github.com/vknow360/otaship/internal/store"
)

// HealthResponse is the body returned by GET /api/health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Services map[string]string `json:"services"`
}

// HealthHandler reports the health of the metadata store and object
// store.
type HealthHandler struct {
	Version string
	Store   *store.Store
	Objects objectstore.Store
}

// Handle returns the current health status of the server.
func (h *HealthHandler) Handle(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Version: h.Version, Services: make(map[string]string)}

	if err := h.Store.HealthCheck(c.Request.Context()); err != nil {
		resp.Services["database"] = "error: " + err.Error()
		resp.Status = "degraded"
	} else {
		resp.Services["database"] = "ok"
	}

	if h.Objects != nil {
		resp.Services["objectStore"] = "ok"
	} else {
		resp.Services["objectStore"] = "not configured"
	}

	c.JSON(http.StatusOK, resp)
}

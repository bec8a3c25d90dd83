package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vknow360/otaship/internal/apierror"
	"github.com/vknow360/otaship/internal/middleware"
	"github.com/vknow360/otaship/internal/store"
)

// StatsHandler aggregates device and download counters for the
// dashboard.
type StatsHandler struct {
	Store *store.Store
}

// ApplicationStats is one application's contribution to the
// aggregate stats response.
type ApplicationStats struct {
	ApplicationID     string           `json:"applicationId"`
	DevicesByPlatform map[string]int64 `json:"devicesByPlatform"`
	TotalDownloads    int64            `json:"totalDownloads"`
}

// Handle returns per-application device and download counters. A
// `project` query parameter narrows the response to a single
// application; omitted, it reports every application.
func (h *StatsHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	var apps []store.Application
	if projectID := c.Query("project"); projectID != "" {
		app, err := h.Store.GetApplication(ctx, projectID)
		if err != nil {
			middleware.RespondError(c, apierror.Wrap(apierror.KindStoreUnavailable, "failed to load application", err))
			return
		}
		if app == nil {
			middleware.RespondError(c, apierror.New(apierror.KindNotFound, "application not found"))
			return
		}
		apps = []store.Application{*app}
	} else {
		all, err := h.Store.ListApplications(ctx)
		if err != nil {
			middleware.RespondError(c, apierror.Wrap(apierror.KindStoreUnavailable, "failed to list applications", err))
			return
		}
		apps = all
	}

	stats := make([]ApplicationStats, 0, len(apps))
	for _, app := range apps {
		deviceStats, err := h.Store.DeviceStatsForApplication(ctx, app.ID)
		if err != nil {
			middleware.RespondError(c, apierror.Wrap(apierror.KindStoreUnavailable, "failed to aggregate device stats", err))
			return
		}
		totalDownloads, err := h.Store.TotalDownloadsForApplication(ctx, app.ID)
		if err != nil {
			middleware.RespondError(c, apierror.Wrap(apierror.KindStoreUnavailable, "failed to aggregate download stats", err))
			return
		}
		stats = append(stats, ApplicationStats{
			ApplicationID:     app.ID,
			DevicesByPlatform: deviceStats.ByPlatform,
			TotalDownloads:    totalDownloads,
		})
	}

	c.JSON(http.StatusOK, gin.H{"applications": stats})
}

package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/vknow360/otaship/internal/ingest"
	"github.com/vknow360/otaship/internal/manifest"
	"github.com/vknow360/otaship/internal/middleware"
	"github.com/vknow360/otaship/internal/objectstore"
	"github.com/vknow360/otaship/internal/release"
	"github.com/vknow360/otaship/internal/store"
)

// Deps collects everything the router needs to wire every route.
type Deps struct {
	Store                  *store.Store
	Objects                objectstore.Store
	Composer               *manifest.Composer
	Pipeline               *ingest.Pipeline
	Release                *release.Service
	AdminSecret            string
	AdminBootstrapPassword string
	UploadSecret           string
	AssetBaseURL           string
	Version                string
}

// NewRouter builds the full Gin engine per the HTTP surface table.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	manifestHandler := &ManifestHandler{Store: deps.Store, Composer: deps.Composer, AssetBaseURL: deps.AssetBaseURL}
	assetsHandler := &AssetsHandler{Objects: deps.Objects}
	uploadHandler := &UploadHandler{Pipeline: deps.Pipeline, UploadSecret: deps.UploadSecret}
	appsHandler := &AppsHandler{Store: deps.Store}
	uploadsHandler := &UploadsHandler{Store: deps.Store}
	releaseHandler := &ReleaseHandler{Service: deps.Release}
	apiKeysHandler := &APIKeysHandler{Store: deps.Store}
	healthHandler := &HealthHandler{Version: deps.Version, Store: deps.Store, Objects: deps.Objects}
	statsHandler := &StatsHandler{Store: deps.Store}

	api := router.Group("/api")
	{
		api.GET("/manifest", manifestHandler.Handle)
		api.GET("/manifest/:projectSlug/:channel", manifestHandler.Handle)
		api.GET("/assets", assetsHandler.Handle)
		api.GET("/health", healthHandler.Handle)

		apiAdmin := api.Group("/admin")
		apiAdmin.Use(middleware.AdminAuth(deps.AdminSecret, deps.AdminBootstrapPassword, deps.Store))
		apiAdmin.GET("/stats", statsHandler.Handle)
	}

	router.POST("/upload", middleware.UploadAuth(deps.UploadSecret), uploadHandler.Handle)

	admin := router.Group("")
	admin.Use(middleware.AdminAuth(deps.AdminSecret, deps.AdminBootstrapPassword, deps.Store))
	{
		admin.GET("/apps", appsHandler.List)
		admin.POST("/apps", appsHandler.Create)
		admin.GET("/apps/:id", appsHandler.Get)
		admin.PATCH("/apps/:id", appsHandler.Update)
		admin.DELETE("/apps/:id", appsHandler.Delete)
		admin.POST("/apps/:id/generate-key-pair", appsHandler.GenerateKeyPair)

		admin.GET("/uploads", uploadsHandler.List)
		admin.GET("/uploads/:id", uploadsHandler.Get)
		admin.PATCH("/uploads/:id", uploadsHandler.Update)
		admin.DELETE("/uploads/:id", uploadsHandler.Delete)

		admin.GET("/api-keys", apiKeysHandler.List)
		admin.POST("/api-keys", apiKeysHandler.Create)
		admin.DELETE("/api-keys/:id", apiKeysHandler.Delete)

		admin.POST("/utils/release", releaseHandler.Release)
		admin.POST("/utils/rollback", releaseHandler.Rollback)
	}

	return router
}

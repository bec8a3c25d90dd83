// Command otaship runs the self-hosted OTA update server: device
// manifest polling, asset streaming, upload ingestion, and the
// release-state-machine dashboard surface.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vknow360/otaship/internal/config"
	"github.com/vknow360/otaship/internal/devicerecord"
	"github.com/vknow360/otaship/internal/httpapi"
	"github.com/vknow360/otaship/internal/ingest"
	"github.com/vknow360/otaship/internal/manifest"
	"github.com/vknow360/otaship/internal/objectstore"
	"github.com/vknow360/otaship/internal/release"
	"github.com/vknow360/otaship/internal/rollout"
	"github.com/vknow360/otaship/internal/store"
)

// Version is the server version (set during build).
var Version = "1.0.0"

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx := context.Background()

	metadataStore, err := store.Connect(ctx, store.Config{
		URI:          cfg.MongoDBURI,
		DatabaseName: cfg.DatabaseName,
		Timeout:      10 * time.Second,
	})
	if err != nil {
		log.Fatalf("MongoDB connection failed: %v", err)
	}
	defer metadataStore.Disconnect(ctx)

	objects, err := newObjectStore(cfg)
	if err != nil {
		log.Fatalf("Object store setup failed: %v", err)
	}

	recorder := &devicerecord.Recorder{Store: metadataStore}
	rolloutService := rollout.New()

	composer := &manifest.Composer{
		Store:          metadataStore,
		Rollout:        rolloutService,
		DeviceUpsert:   recorder.Upsert,
		DownloadRecord: recorder.RecordDownload,
	}
	pipeline := &ingest.Pipeline{Store: metadataStore, Objects: objects}
	releaseService := &release.Service{Store: metadataStore}

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(httpapi.Deps{
		Store:                  metadataStore,
		Objects:                objects,
		Composer:               composer,
		Pipeline:               pipeline,
		Release:                releaseService,
		AdminSecret:            cfg.AdminSecret,
		AdminBootstrapPassword: cfg.AdminBootstrapPassword,
		UploadSecret:           cfg.UploadSecret,
		AssetBaseURL:           cfg.Hostname + "/api/assets",
		Version:                Version,
	})

	printBanner(cfg.Port)

	if cfg.Hostname != "" && cfg.Hostname != "http://localhost:8080" {
		go startSelfPing(cfg.Hostname)
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// newObjectStore selects Cloudinary when fully configured, otherwise
// falls back to the local filesystem store.
func newObjectStore(cfg *config.Config) (objectstore.Store, error) {
	if cfg.UsesCloudinary() {
		cld, err := objectstore.NewCloudinaryStore(objectstore.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
		})
		if err != nil {
			return nil, err
		}
		if cld != nil {
			log.Println("Object store: Cloudinary")
			return cld, nil
		}
	}

	local, err := objectstore.NewLocalStore(cfg.LocalObjectStoreDir)
	if err != nil {
		return nil, err
	}
	log.Printf("Object store: local filesystem at %s", cfg.LocalObjectStoreDir)
	return local, nil
}

func printBanner(port string) {
	banner := `
  ██████╗ ████████╗ █████╗ ███████╗██╗  ██╗██╗██████╗
 ██╔═══██╗╚══██╔══╝██╔══██╗██╔════╝██║  ██║██║██╔══██╗
 ██║   ██║   ██║   ███████║███████╗███████║██║██████╔╝
 ██║   ██║   ██║   ██╔══██║╚════██║██╔══██║██║██╔═══╝
 ╚██████╔╝   ██║   ██║  ██║███████║██║  ██║██║██║
  ╚═════╝    ╚═╝   ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝╚═╝╚═╝

                           OTAShip v%s
                           http://localhost:%s

 Endpoints:
   GET  /api/manifest     - Device manifest poll
   GET  /api/assets       - Asset stream
   GET  /api/health       - Health check
   POST /upload           - Publish a build

`
	fmt.Printf(banner, Version, port)
}

// startSelfPing pings the health endpoint periodically to keep a
// free-tier host from idling the process down.
func startSelfPing(hostname string) {
	ticker := time.NewTicker(10 * time.Minute)
	healthURL := hostname + "/api/health"

	log.Printf("Self-ping enabled: %s every 10 minutes", healthURL)

	for range ticker.C {
		resp, err := http.Get(healthURL)
		if err != nil {
			log.Printf("Warning: Self-ping failed: %v", err)
			continue
		}
		resp.Body.Close()
	}
}

// Package config handles application configuration from environment
// variables.
package config

import (
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. Every field has
// process-start lifetime; mutating any of it requires a restart.
type Config struct {
	// Server settings
	Port     string
	Hostname string

	// MongoDB settings
	MongoDBURI   string
	DatabaseName string

	// Object-store settings (Cloudinary-backed; falls back to a local
	// filesystem object store when unset)
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	LocalObjectStoreDir string

	// Security settings
	AdminSecret            string // bearer-token signing secret for the dashboard
	UploadSecret           string // shared secret required on POST /upload
	AdminBootstrapPassword string
}

// Global application config instance, set once by Load.
var AppConfig *Config

// Load reads configuration from environment variables. It first
// attempts to load a .env file (ignoring the error if none is
// present), then falls back to system environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	AppConfig = &Config{
		Port:                   getEnv("PORT", "8080"),
		Hostname:               getEnv("HOSTNAME", "http://localhost:8080"),
		MongoDBURI:             getEnv("MONGODB_URI", ""),
		DatabaseName:           getEnv("DATABASE_NAME", "otaship"),
		CloudinaryCloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:       getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
		LocalObjectStoreDir:    getEnv("LOCAL_OBJECT_STORE_DIR", "./updates"),
		AdminSecret:            getEnv("ADMIN_SECRET", ""),
		UploadSecret:           getEnv("UPLOAD_SECRET", ""),
		AdminBootstrapPassword: getEnv("ADMIN_BOOTSTRAP_PASSWORD", ""),
	}

	return AppConfig
}

// getEnv retrieves an environment variable or returns a default
// value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// Validate checks that all configuration required to run safely is
// present. MongoDB is required: the metadata store has no in-memory
// fallback for production use. Cloudinary is optional — its absence
// just selects the local-filesystem object-store backend.
func (c *Config) Validate() error {
	if c.MongoDBURI == "" {
		return errors.New("MONGODB_URI is required")
	}
	if c.UploadSecret == "" {
		return errors.New("UPLOAD_SECRET is required")
	}
	return nil
}

// UsesCloudinary reports whether enough Cloudinary configuration is
// present to use it as the object-store backend.
func (c *Config) UsesCloudinary() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

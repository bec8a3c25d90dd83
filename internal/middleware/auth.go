// Package middleware contains HTTP middleware functions.
package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vknow360/otaship/internal/apierror"
	"github.com/vknow360/otaship/internal/store"
)

// RespondError writes an apierror.Error (or any error) as the
// taxonomy-mapped status code with its caller-safe message.
func RespondError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apierror.StatusCode(err), gin.H{"error": apierror.Message(err)})
}

// AdminAuth validates the dashboard bearer token against, in order:
// the bearer-token signing secret, the admin bootstrap password (for
// initial setup before any API key has been issued), and finally a
// stored, hashed API key.
func AdminAuth(adminSecret, adminBootstrapPassword string, metadataStore *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			RespondError(c, apierror.New(apierror.KindAuthMissing, "authorization header required"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			RespondError(c, apierror.New(apierror.KindAuthMissing, "expected 'Bearer <token>'"))
			return
		}
		token := parts[1]

		if adminSecret != "" && subtle.ConstantTimeCompare([]byte(token), []byte(adminSecret)) == 1 {
			c.Next()
			return
		}

		if adminBootstrapPassword != "" && subtle.ConstantTimeCompare([]byte(token), []byte(adminBootstrapPassword)) == 1 {
			c.Next()
			return
		}

		if metadataStore != nil {
			if key, err := metadataStore.ValidateAPIKey(c.Request.Context(), token); err == nil && key != nil {
				c.Set("apiKeyID", key.ID)
				c.Next()
				return
			}
		}

		RespondError(c, apierror.New(apierror.KindAuthFailed, "invalid bearer token"))
	}
}

// UploadAuth validates the shared secret the publisher sends for
// ingestion requests, in constant time.
func UploadAuth(uploadSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("x-upload-secret")
		if uploadSecret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(uploadSecret)) != 1 {
			RespondError(c, apierror.New(apierror.KindAuthFailed, "invalid or missing upload secret"))
			return
		}
		c.Next()
	}
}

// CORS adds Cross-Origin Resource Sharing headers for the device and
// dashboard clients.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, x-app-project, x-app-platform, x-app-runtime-version, x-app-channel-name, x-app-protocol-version, x-app-expect-signature, x-app-current-update-id, x-app-embedded-update-id, x-upload-secret, x-eas-client-id")
		c.Header("Access-Control-Expose-Headers", "expo-protocol-version, expo-sfv-version, expo-signature")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

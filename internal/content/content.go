// Package content implements the stable content-addressing primitives
// used to identify uploads and assets: SHA-256/Base64URL digests,
// MD5/hex keys, and hash-to-UUID derivation.
package content

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// SHA256Base64URL returns the SHA-256 digest of data, Base64 encoded
// with the URL-safe alphabet and no padding.
func SHA256Base64URL(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// SHA256Hex returns the lowercase hex SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MD5Hex returns the lowercase hex MD5 digest of data.
//
// The wire protocol fixes MD5 as the asset "key" algorithm; the
// field is not security sensitive, so Go's crypto/md5 is used
// directly rather than avoided on security grounds.
func MD5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// HashToUUID retains the first 32 hex-or-alphanumeric characters of
// hash (right-padding with '0' if shorter) and inserts dashes in
// 8-4-4-4-12 form.
func HashToUUID(hash string) string {
	h := hash
	if len(h) < 32 {
		h = h + strings.Repeat("0", 32-len(h))
	}
	h = h[:32]
	return h[0:8] + "-" + h[8:12] + "-" + h[12:16] + "-" + h[16:20] + "-" + h[20:32]
}

// NewRandomUpdateID returns a fresh random UUID for use when no
// metadata is available to derive a stable one from.
func NewRandomUpdateID() string {
	return uuid.New().String()
}

// ContentTypeForExtension maps a declared asset extension (without
// the leading dot) to its wire content type. Unknown extensions fall
// back to application/octet-stream.
func ContentTypeForExtension(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "js":
		return "application/javascript"
	case "json":
		return "application/json"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "svg":
		return "image/svg+xml"
	case "ttf":
		return "font/ttf"
	case "otf":
		return "font/otf"
	case "woff":
		return "font/woff"
	case "woff2":
		return "font/woff2"
	case "mp3":
		return "audio/mpeg"
	case "mp4":
		return "video/mp4"
	case "webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}

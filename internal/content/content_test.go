package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSHA256Base64URLIsStable(t *testing.T) {
	a := SHA256Base64URL([]byte("metadata.json:ios"))
	b := SHA256Base64URL([]byte("metadata.json:ios"))
	assert.Equal(t, a, b, "same bytes must hash the same")
	assert.NotEqual(t, a, SHA256Base64URL([]byte("metadata.json:android")), "different platforms must hash differently")
}

func TestHashToUUIDDeterministic(t *testing.T) {
	hash := SHA256Hex([]byte("some bytes"))
	u1 := HashToUUID(hash)
	u2 := HashToUUID(hash)
	assert.Equal(t, u1, u2)
	assert.Len(t, u1, 36)
}

func TestHashToUUIDPadsShortInput(t *testing.T) {
	got := HashToUUID("abc")
	assert.Equal(t, "abc00000-0000-0000-0000-000000000000", got)
}

func TestMD5HexLength(t *testing.T) {
	assert.Len(t, MD5Hex([]byte("hello")), 32)
}

func TestContentTypeForExtension(t *testing.T) {
	cases := map[string]string{
		"js":      "application/javascript",
		".js":     "application/javascript",
		"png":     "image/png",
		"unknown": "application/octet-stream",
		"woff2":   "font/woff2",
		"mp4":     "video/mp4",
	}
	for in, want := range cases {
		assert.Equal(t, want, ContentTypeForExtension(in), "extension %q", in)
	}
}

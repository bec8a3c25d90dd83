package apierror

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := map[Kind]int{
		KindInputInvalid:     http.StatusBadRequest,
		KindAuthMissing:      http.StatusUnauthorized,
		KindAuthFailed:       http.StatusUnauthorized,
		KindForbidden:        http.StatusForbidden,
		KindNotFound:         http.StatusNotFound,
		KindConflict:         http.StatusConflict,
		KindPayloadTooLarge:  http.StatusRequestEntityTooLarge,
		KindStoreUnavailable: http.StatusInternalServerError,
		KindSigningFailed:    http.StatusInternalServerError,
		KindInternal:         http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, StatusCode(New(kind, "x")), "kind %s", kind)
	}
}

func TestStatusCodeFallsBackForUntaggedError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusCode(fmt.Errorf("plain error")))
}

func TestMessageNeverLeaksAuthDetail(t *testing.T) {
	err := Wrap(KindAuthFailed, "token mismatch for user 42", fmt.Errorf("db leak"))
	assert.Equal(t, "unauthorized", Message(err))
}

func TestMessagePassesThroughOtherKinds(t *testing.T) {
	err := New(KindNotFound, "upload not found")
	assert.Equal(t, "upload not found", Message(err))
}

func TestWrapUnwraps(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := Wrap(KindInternal, "wrapped", cause)
	require.Equal(t, cause, err.Unwrap())
}

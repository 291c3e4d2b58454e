package apperr

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindMissingParameter, KindOf(MissingParameter("q is required")))
	assert.Equal(t, KindInvalidCredential, KindOf(InvalidCredential("bad key", nil)))
	assert.Equal(t, KindSessionNotFound, KindOf(SessionNotFound("no such session")))
	assert.Equal(t, KindUnexpected, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnexpected, KindOf(nil))
}

func TestWrapPreservesExistingKind(t *testing.T) {
	err := Wrap(InvalidCredential("bad key", nil), "calling upstream")
	require.Error(t, err)
	assert.Equal(t, KindInvalidCredential, KindOf(err))
	assert.Contains(t, err.Error(), "calling upstream")
}

func TestWrapTagsUntaggedErrorsAsUnexpected(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, "calling upstream")
	require.Error(t, err)
	assert.Equal(t, KindUnexpected, KindOf(err))
	assert.True(t, errors.Is(err, cause))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(MissingParameter("q")))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(InvalidCredential("key", nil)))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(SessionNotFound("s")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

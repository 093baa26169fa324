package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestKindOfWrappedAppError(t *testing.T) {
	err := fmt.Errorf("outer: %w", Conflict("already sent"))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, IsKind(err, KindConflict))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.False(t, IsKind(nil, KindConflict))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(KindInvalidInput))
	assert.Equal(t, http.StatusConflict, HTTPStatus(KindConflict))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(KindNotFound))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(KindUnauthorized))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(KindForbidden))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(KindDependencyUnavailable))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(KindInternal))
}

func TestMongoError(t *testing.T) {
	assert.Nil(t, MongoError(nil, "user"))
	assert.Equal(t, KindNotFound, KindOf(MongoError(mongo.ErrNoDocuments, "user")))

	passthrough := InvalidInput("bad")
	assert.Same(t, passthrough, MongoError(passthrough, "user"))

	other := MongoError(errors.New("boom"), "user")
	assert.Equal(t, KindInternal, KindOf(other))
	assert.Contains(t, other.Error(), "user")
}

package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	xerrors "squadhub-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{xerrors.NewStorageError("get", "usage:u", errors.New("down")), http.StatusServiceUnavailable},
		{fmt.Errorf("record: %w", xerrors.ErrInvalidDelta), http.StatusBadRequest},
		{xerrors.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("%w: %q", xerrors.ErrUnknownPlan, "gold"), http.StatusNotFound},
		{xerrors.ErrNoSubscription, http.StatusNotFound},
		{xerrors.ErrAlreadyEntitled, http.StatusConflict},
		{xerrors.ErrForbidden, http.StatusForbidden},
		{errors.New("surprise"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), "%v", tt.err)
	}
}

func TestFromErrorHidesStorageDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FromError(c, "failed to load summary", xerrors.NewStorageError("get", "entitlement:u1", errors.New("dial tcp 10.0.0.3:5432")))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.True(t, c.IsAborted())

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "failed to load summary", body.Message)
	assert.NotContains(t, body.Error, "10.0.0.3")
}

func TestFromErrorBusinessRule(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FromError(c, "checkout failed", fmt.Errorf("%w: %q", xerrors.ErrAlreadyEntitled, "pro"))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already entitled")
}

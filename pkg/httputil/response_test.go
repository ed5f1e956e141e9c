package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/docagenda/scheduling-api/pkg/errors"
)

func record(fn func(c *gin.Context)) (*httptest.ResponseRecorder, Response) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fn(c)

	var resp Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestRespondWithSuccess(t *testing.T) {
	w, resp := record(func(c *gin.Context) {
		RespondWithSuccess(c, http.StatusCreated, gin.H{"id": "abc"})
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestRespondWithErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{apperrors.NotFound("doctor"), http.StatusNotFound, "not_found"},
		{apperrors.Forbidden("nope"), http.StatusForbidden, "forbidden"},
		{apperrors.TenantMismatch("patient"), http.StatusForbidden, "tenant_mismatch"},
		{apperrors.SlotConflict(), http.StatusConflict, "slot_conflict"},
		{apperrors.InvalidTransition("cancelled", "confirmed"), http.StatusConflict, "invalid_transition"},
		{apperrors.ErrAlreadyCancelled, http.StatusConflict, "already_cancelled"},
		{apperrors.ErrAlreadyConfirmed, http.StatusConflict, "already_confirmed"},
		{apperrors.Validation("bad input"), http.StatusUnprocessableEntity, "validation"},
		{apperrors.OutsideAvailability(), http.StatusUnprocessableEntity, "outside_availability"},
		{apperrors.InvalidAvailability("inverted window"), http.StatusUnprocessableEntity, "invalid_availability"},
		{apperrors.Storage(errors.New("pq: down")), http.StatusServiceUnavailable, "storage_unavailable"},
		{errors.New("spontaneous"), http.StatusInternalServerError, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			w, resp := record(func(c *gin.Context) {
				RespondWithError(c, tt.err)
			})

			assert.Equal(t, tt.status, w.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestRespondWithErrorHidesInternalDetails(t *testing.T) {
	_, resp := record(func(c *gin.Context) {
		RespondWithError(c, errors.New("password=hunter2 leaked"))
	})

	require.NotNil(t, resp.Error)
	assert.Equal(t, "internal server error", resp.Error.Message)
}

func TestStorageErrorMessageIsGeneric(t *testing.T) {
	w, resp := record(func(c *gin.Context) {
		RespondWithError(c, apperrors.Storage(errors.New("dial tcp: refused")))
	})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NotNil(t, resp.Error)
	// Driver detail never reaches the client.
	assert.Equal(t, "internal server error", resp.Error.Message)
	assert.NotContains(t, resp.Error.Message, "dial tcp")
}

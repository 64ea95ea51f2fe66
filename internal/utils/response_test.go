// internal/utils/response_test.go
package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendigo/lendigo-backend/internal/apperrors"
)

func recordFailure(t *testing.T, err error) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	FailureResponse(c, err)

	var body APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestFailureResponseStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"guest denial", apperrors.NotAuthenticated(), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"identified denial", apperrors.Forbidden("accept", "42"), http.StatusForbidden, "FORBIDDEN"},
		{"missing entity", apperrors.NotFound("loan", "42"), http.StatusNotFound, "NOT_FOUND"},
		{"concurrent change", apperrors.Conflict("loan state changed concurrently"), http.StatusConflict, "CONFLICT"},
		{"illegal event", apperrors.InvalidTransition("returned", "owner_accepts"), http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{"blocked operation", apperrors.New(apperrors.KindOperationNotAllowed, "nope"), http.StatusUnprocessableEntity, "OPERATION_NOT_ALLOWED"},
		{"bad input", apperrors.New(apperrors.KindValidation, "bad"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown error", assertingError("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := recordFailure(t, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}

func TestFailureResponseWrappedValidatorErrors(t *testing.T) {
	// Services wrap ValidateStruct failures before returning them; the
	// wrapped error must still surface as a 400 with field details.
	input := struct {
		Rating int `validate:"rating"`
	}{Rating: 9}

	err := ValidateStruct(&input)
	require.Error(t, err)

	w, body := recordFailure(t, fmt.Errorf("validation failed: %w", err))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)

	details, ok := body.Error.Details.([]interface{})
	require.True(t, ok)
	require.Len(t, details, 1)
	field, ok := details[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Rating", field["field"])
	assert.Equal(t, "rating", field["tag"])
}

func TestFailureResponseTransitionDetails(t *testing.T) {
	_, body := recordFailure(t, apperrors.InvalidTransition("returned", "owner_accepts"))

	require.NotNil(t, body.Error)
	details, ok := body.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "returned", details["current_state"])
	assert.Equal(t, "owner_accepts", details["event"])
}

type assertingError string

func (e assertingError) Error() string { return string(e) }

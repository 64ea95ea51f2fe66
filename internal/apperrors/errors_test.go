// internal/apperrors/errors_test.go
package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindEntityNotFound, KindOf(NotFound("loan", "42")))
	assert.Equal(t, KindForbidden, KindOf(Forbidden("update", "42")))
	assert.Equal(t, KindNotAuthenticated, KindOf(NotAuthenticated()))
	assert.Equal(t, KindConcurrencyConflict, KindOf(Conflict("loan state changed")))

	// Foreign errors default to internal.
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("confirming pickup: %w", InvalidTransition("active", "owner_confirms_pickup"))
	assert.True(t, IsKind(err, KindInvalidTransition))

	var appErr *Error
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "active", appErr.CurrentState)
	assert.Equal(t, "owner_confirms_pickup", appErr.Event)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("record not found")
	err := Wrap(KindEntityNotFound, "loan not found", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "loan not found")
}

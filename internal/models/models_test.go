// internal/models/models_test.go
package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoanOwnerID(t *testing.T) {
	ownerID := uuid.New()
	loan := &Loan{Item: Item{OwnerID: ownerID}}
	assert.Equal(t, ownerID, loan.OwnerID())
}

func TestProtocolConfirmed(t *testing.T) {
	pickup := &PickupProtocol{}
	assert.False(t, pickup.Confirmed())

	now := time.Now()
	pickup.ConfirmedAt = &now
	assert.True(t, pickup.Confirmed())

	ret := &ReturnProtocol{}
	assert.False(t, ret.Confirmed())
	ret.ConfirmedAt = &now
	assert.True(t, ret.Confirmed())
}

func TestUserPassword(t *testing.T) {
	user := &User{}
	require.NoError(t, user.SetPassword("s3cret-Passw0rd"))
	assert.NotEqual(t, "s3cret-Passw0rd", user.PasswordHash)

	assert.NoError(t, user.CheckPassword("s3cret-Passw0rd"))
	assert.Error(t, user.CheckPassword("wrong"))
}

func TestUserHasRole(t *testing.T) {
	user := &User{Roles: []string{RoleUser}}
	assert.True(t, user.HasRole(RoleUser))
	assert.False(t, user.HasRole(RoleAdmin))

	user.Roles = append(user.Roles, RoleAdmin)
	assert.True(t, user.HasRole(RoleAdmin))
}

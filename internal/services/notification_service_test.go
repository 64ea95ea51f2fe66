// internal/services/notification_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendigo/lendigo-backend/internal/config"
	"github.com/lendigo/lendigo-backend/internal/models"
)

func notificationLoan() *models.Loan {
	loan := &models.Loan{}
	loan.Item = models.Item{Owner: models.User{Username: "owner"}}
	loan.Tenant = models.User{Username: "tenant"}
	return loan
}

func TestRecipientForRoutesToCounterparty(t *testing.T) {
	svc := NewNotificationService(&config.Config{})
	loan := notificationLoan()

	// Tenant moves land in the owner's inbox.
	ownerEvents := []string{"inquired", "prepare_for_pickup", "prepare_for_return", "tenant_cancels"}
	for _, event := range ownerEvents {
		recipient, ok := svc.recipientFor(loan, event)
		require.True(t, ok, "event %s", event)
		assert.Equal(t, "owner", recipient.Username, "event %s", event)
	}

	// Owner decisions go to the tenant. Protocols are authored by the owner,
	// so filing one notifies the tenant as well.
	tenantEvents := []string{
		"owner_accepts", "owner_denies",
		"owner_confirms_pickup", "owner_denies_pickup",
		"owner_confirms_return", "owner_denies_return",
		"pickup_protocol_requested", "pickup_protocol_confirmed", "pickup_protocol_denied",
		"return_protocol_requested", "return_protocol_confirmed", "return_protocol_denied",
	}
	for _, event := range tenantEvents {
		recipient, ok := svc.recipientFor(loan, event)
		require.True(t, ok, "event %s", event)
		assert.Equal(t, "tenant", recipient.Username, "event %s", event)
	}
}

func TestRecipientForUnknownEvent(t *testing.T) {
	svc := NewNotificationService(&config.Config{})

	recipient, ok := svc.recipientFor(notificationLoan(), "something_else")
	assert.False(t, ok)
	assert.Nil(t, recipient)
}

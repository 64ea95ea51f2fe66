// internal/authz/engine_test.go
package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendigo/lendigo-backend/internal/apperrors"
	"github.com/lendigo/lendigo-backend/internal/models"
)

var allOperations = []Operation{OperationRead, OperationCreate, OperationUpdate, OperationDelete}

func fixtures() (owner, tenant, stranger, admin Subject, loan *models.Loan) {
	ownerID := uuid.New()
	tenantID := uuid.New()

	owner = ForUser(ownerID, models.RoleUser)
	tenant = ForUser(tenantID, models.RoleUser)
	stranger = ForUser(uuid.New(), models.RoleUser)
	admin = ForUser(uuid.New(), models.RoleAdmin)

	loan = &models.Loan{TenantID: tenantID}
	loan.ID = uuid.New()
	loan.Item = models.Item{OwnerID: ownerID}
	return
}

func TestAdminAlwaysGranted(t *testing.T) {
	engine := NewEngine()
	_, _, _, admin, loan := fixtures()

	protocol := &models.PickupProtocol{LoanID: loan.ID}
	protocol.ID = uuid.New()

	resources := []Resource{
		ForLoan(loan),
		ForPickupProtocol(protocol, loan),
		ForReturnProtocol(&models.ReturnProtocol{LoanID: loan.ID}, loan),
		ForProfile(&models.User{}),
		ForReview(&models.Review{}),
		ForItemCategory(&models.ItemCategory{}),
		ForItem(&models.Item{Status: models.ItemStatusApproving}),
	}

	for _, res := range resources {
		for _, op := range allOperations {
			assert.NoError(t, engine.Decide(admin, op, res), "kind %s op %s", res.Kind, op)
		}
	}
}

func TestProtocolOwnerAndTenantPolicies(t *testing.T) {
	engine := NewEngine()
	owner, tenant, stranger, _, loan := fixtures()

	protocol := &models.PickupProtocol{LoanID: loan.ID}
	protocol.ID = uuid.New()
	res := ForPickupProtocol(protocol, loan)

	// Owner files, confirms and denies, so create, read and update are
	// granted.
	assert.NoError(t, engine.Decide(owner, OperationRead, res))
	assert.NoError(t, engine.Decide(owner, OperationCreate, res))
	assert.NoError(t, engine.Decide(owner, OperationUpdate, res))

	// Tenant may observe but never file or confirm.
	assert.NoError(t, engine.Decide(tenant, OperationRead, res))
	err := engine.Decide(tenant, OperationUpdate, res)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	assert.Equal(t, apperrors.KindForbidden,
		apperrors.KindOf(engine.Decide(tenant, OperationCreate, res)))

	// An unrelated user gets nothing at all.
	for _, op := range allOperations {
		err := engine.Decide(stranger, op, res)
		require.Error(t, err, "op %s", op)
		assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	}
}

func TestForbiddenCarriesAuditFields(t *testing.T) {
	engine := NewEngine()
	_, tenant, _, _, loan := fixtures()

	protocol := &models.PickupProtocol{LoanID: loan.ID}
	protocol.ID = uuid.New()

	err := engine.Decide(tenant, OperationUpdate, ForPickupProtocol(protocol, loan))
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, string(OperationUpdate), appErr.Operation)
	assert.Equal(t, protocol.ID.String(), appErr.ResourceID)
}

func TestReturnProtocolMirrorsPickup(t *testing.T) {
	engine := NewEngine()
	owner, tenant, _, _, loan := fixtures()

	res := ForReturnProtocol(&models.ReturnProtocol{LoanID: loan.ID}, loan)

	assert.NoError(t, engine.Decide(owner, OperationUpdate, res))
	assert.NoError(t, engine.Decide(tenant, OperationRead, res))
	assert.Equal(t, apperrors.KindForbidden,
		apperrors.KindOf(engine.Decide(tenant, OperationUpdate, res)))
}

func TestLoanPartyPolicy(t *testing.T) {
	engine := NewEngine()
	owner, tenant, stranger, _, loan := fixtures()
	res := ForLoan(loan)

	for _, sub := range []Subject{owner, tenant} {
		assert.NoError(t, engine.Decide(sub, OperationRead, res))
		assert.NoError(t, engine.Decide(sub, OperationUpdate, res))
	}

	assert.Equal(t, apperrors.KindForbidden,
		apperrors.KindOf(engine.Decide(stranger, OperationRead, res)))

	// Any authenticated user may open a loan inquiry; a guest may not.
	assert.NoError(t, engine.Decide(stranger, OperationCreate, Creation(KindLoan)))
	assert.Equal(t, apperrors.KindNotAuthenticated,
		apperrors.KindOf(engine.Decide(Guest(), OperationCreate, Creation(KindLoan))))
}

func TestGuestAccess(t *testing.T) {
	engine := NewEngine()
	guest := Guest()

	// Categories, reviews and profiles are explicitly public reads.
	assert.NoError(t, engine.Decide(guest, OperationRead, ForItemCategory(&models.ItemCategory{})))
	assert.NoError(t, engine.Decide(guest, OperationRead, ForReview(&models.Review{})))
	assert.NoError(t, engine.Decide(guest, OperationRead, ForProfile(&models.User{})))

	// Writes are a missing identity, not an insufficient relation.
	err := engine.Decide(guest, OperationUpdate, ForItemCategory(&models.ItemCategory{}))
	assert.Equal(t, apperrors.KindNotAuthenticated, apperrors.KindOf(err))

	// Guests see public items only.
	assert.NoError(t, engine.Decide(guest, OperationRead, ForItem(&models.Item{Status: models.ItemStatusPublic})))
	err = engine.Decide(guest, OperationRead, ForItem(&models.Item{Status: models.ItemStatusApproving}))
	assert.Equal(t, apperrors.KindNotAuthenticated, apperrors.KindOf(err))
}

func TestProfileOwnerPolicy(t *testing.T) {
	engine := NewEngine()

	user := &models.User{}
	user.ID = uuid.New()
	res := ForProfile(user)

	self := ForUser(user.ID, models.RoleUser)
	other := ForUser(uuid.New(), models.RoleUser)

	assert.NoError(t, engine.Decide(self, OperationRead, res))
	assert.NoError(t, engine.Decide(self, OperationUpdate, res))

	// Profiles are public to read but personal to change.
	assert.NoError(t, engine.Decide(other, OperationRead, res))
	assert.Equal(t, apperrors.KindForbidden,
		apperrors.KindOf(engine.Decide(other, OperationUpdate, res)))
}

func TestReviewAuthorPolicy(t *testing.T) {
	engine := NewEngine()

	review := &models.Review{AuthorID: uuid.New()}
	review.ID = uuid.New()
	res := ForReview(review)

	author := ForUser(review.AuthorID, models.RoleUser)
	other := ForUser(uuid.New(), models.RoleUser)

	assert.NoError(t, engine.Decide(author, OperationUpdate, res))
	assert.NoError(t, engine.Decide(author, OperationDelete, res))

	assert.NoError(t, engine.Decide(other, OperationRead, res))
	assert.Equal(t, apperrors.KindForbidden,
		apperrors.KindOf(engine.Decide(other, OperationDelete, res)))
}

func TestItemOwnerPolicy(t *testing.T) {
	engine := NewEngine()

	item := &models.Item{OwnerID: uuid.New(), Status: models.ItemStatusApproving}
	item.ID = uuid.New()
	res := ForItem(item)

	owner := ForUser(item.OwnerID, models.RoleUser)
	other := ForUser(uuid.New(), models.RoleUser)

	// Owner still sees and manages a not-yet-public listing.
	assert.NoError(t, engine.Decide(owner, OperationRead, res))
	assert.NoError(t, engine.Decide(owner, OperationUpdate, res))
	assert.NoError(t, engine.Decide(owner, OperationDelete, res))

	assert.Equal(t, apperrors.KindForbidden,
		apperrors.KindOf(engine.Decide(other, OperationRead, res)))
}

func TestPoliciesAreOrderIndependent(t *testing.T) {
	// Each evaluator is self-contained, so registering them in reverse
	// changes nothing about the decisions.
	engine := &Engine{policies: map[Kind][]Policy{}}
	engine.Register(KindPickupProtocol, ProtocolTenantPolicy, ProtocolOwnerPolicy, AdminPolicy)

	owner, tenant, _, admin, loan := fixtures()
	protocol := &models.PickupProtocol{LoanID: loan.ID}
	protocol.ID = uuid.New()
	res := ForPickupProtocol(protocol, loan)

	assert.NoError(t, engine.Decide(admin, OperationDelete, res))
	assert.NoError(t, engine.Decide(owner, OperationUpdate, res))
	assert.NoError(t, engine.Decide(tenant, OperationRead, res))
	assert.Error(t, engine.Decide(tenant, OperationUpdate, res))
}

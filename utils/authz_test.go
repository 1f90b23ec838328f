package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cyphexlabs/cyphex_backend/models"
)

func mainAdmin() *models.User {
	return &models.User{
		ID:      primitive.NewObjectID(),
		IsStaff: true,
		Roles:   []string{models.RoleMainAdmin},
	}
}

func fullAccessAdmin() *models.User {
	return &models.User{
		ID:      primitive.NewObjectID(),
		IsStaff: true,
		Roles:   []string{models.RoleFullAccessAdmin},
	}
}

func partialAdmin() *models.User {
	return &models.User{
		ID:      primitive.NewObjectID(),
		IsStaff: true,
		Roles:   []string{models.RolePartialAccessAdmin},
	}
}

func rolelessStaff() *models.User {
	return &models.User{
		ID:      primitive.NewObjectID(),
		IsStaff: true,
	}
}

func client() *models.User {
	return &models.User{ID: primitive.NewObjectID()}
}

func requestOwnedBy(owner *models.User) *models.ServiceRequest {
	return &models.ServiceRequest{
		ID:       primitive.NewObjectID(),
		ClientID: owner.ID,
		Status:   models.StatusPendingApproval,
	}
}

func TestCanViewTopTierSeesAll(t *testing.T) {
	owner := client()
	req := requestOwnedBy(owner)

	assert.True(t, CanView(mainAdmin(), req))
	assert.True(t, CanView(fullAccessAdmin(), req))
	assert.True(t, CanView(&models.User{ID: primitive.NewObjectID(), IsStaff: true, IsSuperuser: true}, req))
}

func TestCanViewPartialAdminNeedsAssignment(t *testing.T) {
	owner := client()
	req := requestOwnedBy(owner)
	admin := partialAdmin()

	assert.False(t, CanView(admin, req))

	req.AssignedTo = &admin.ID
	assert.True(t, CanView(admin, req))

	other := partialAdmin()
	assert.False(t, CanView(other, req))
}

func TestCanViewRolelessStaffSeesNothing(t *testing.T) {
	owner := client()
	req := requestOwnedBy(owner)
	assert.False(t, CanView(rolelessStaff(), req))
}

func TestCanViewClientOwnOnly(t *testing.T) {
	owner := client()
	req := requestOwnedBy(owner)

	assert.True(t, CanView(owner, req))
	assert.False(t, CanView(client(), req))
}

func TestAuthorizeWithdrawOwnerOnly(t *testing.T) {
	owner := client()
	req := requestOwnedBy(owner)

	assert.NoError(t, Authorize(owner, req, ActionWithdraw))
	assert.ErrorIs(t, Authorize(client(), req, ActionWithdraw), models.ErrNotAuthorized)
	// Admins act through approve/reject/cancel, never the owner path.
	assert.ErrorIs(t, Authorize(mainAdmin(), req, ActionWithdraw), models.ErrNotAuthorized)
}

func TestAuthorizeInitiatePaymentOwnerOnly(t *testing.T) {
	owner := client()
	req := requestOwnedBy(owner)

	assert.NoError(t, Authorize(owner, req, ActionInitiatePayment))
	assert.ErrorIs(t, Authorize(client(), req, ActionInitiatePayment), models.ErrNotAuthorized)
	assert.ErrorIs(t, Authorize(fullAccessAdmin(), req, ActionInitiatePayment), models.ErrNotAuthorized)
}

func TestAuthorizeDecisionActions(t *testing.T) {
	owner := client()
	req := requestOwnedBy(owner)

	for _, action := range []RequestAction{ActionApprove, ActionReject, ActionUploadReport} {
		assert.NoError(t, Authorize(mainAdmin(), req, action), "%s by main admin", action)
		assert.NoError(t, Authorize(fullAccessAdmin(), req, action), "%s by full access admin", action)
		assert.ErrorIs(t, Authorize(owner, req, action), models.ErrNotAuthorized, "%s by owner", action)
		assert.ErrorIs(t, Authorize(rolelessStaff(), req, action), models.ErrNotAuthorized, "%s by roleless staff", action)
	}
}

func TestAuthorizePartialAdminNeedsAssignment(t *testing.T) {
	owner := client()
	req := requestOwnedBy(owner)
	admin := partialAdmin()

	for _, action := range []RequestAction{ActionApprove, ActionReject, ActionUploadReport} {
		assert.ErrorIs(t, Authorize(admin, req, action), models.ErrNotAuthorized, "%s unassigned", action)
	}

	req.AssignedTo = &admin.ID
	for _, action := range []RequestAction{ActionApprove, ActionReject, ActionUploadReport} {
		assert.NoError(t, Authorize(admin, req, action), "%s assigned", action)
	}
}

func TestAuthorizeCancelAndAssignTopTierOnly(t *testing.T) {
	owner := client()
	req := requestOwnedBy(owner)
	assigned := partialAdmin()
	req.AssignedTo = &assigned.ID

	for _, action := range []RequestAction{ActionCancel, ActionAssign} {
		assert.NoError(t, Authorize(mainAdmin(), req, action), "%s by main admin", action)
		assert.NoError(t, Authorize(fullAccessAdmin(), req, action), "%s by full access admin", action)
		assert.ErrorIs(t, Authorize(assigned, req, action), models.ErrNotAuthorized, "%s by assigned partial admin", action)
		assert.ErrorIs(t, Authorize(owner, req, action), models.ErrNotAuthorized, "%s by owner", action)
	}
}

func TestVisibilityFilter(t *testing.T) {
	filter, ok := VisibilityFilter(mainAdmin())
	assert.True(t, ok)
	assert.Equal(t, bson.M{}, filter)

	admin := partialAdmin()
	filter, ok = VisibilityFilter(admin)
	assert.True(t, ok)
	assert.Equal(t, bson.M{"assignedTo": admin.ID}, filter)

	_, ok = VisibilityFilter(rolelessStaff())
	assert.False(t, ok)

	c := client()
	filter, ok = VisibilityFilter(c)
	assert.True(t, ok)
	assert.Equal(t, bson.M{"clientId": c.ID}, filter)
}

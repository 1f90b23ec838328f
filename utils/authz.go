// utils/authz.go
package utils

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/cyphexlabs/cyphex_backend/models"
)

// RequestAction is one operation a principal may attempt on a request.
type RequestAction string

const (
	ActionView            RequestAction = "view"
	ActionWithdraw        RequestAction = "withdraw"
	ActionApprove         RequestAction = "approve"
	ActionReject          RequestAction = "reject"
	ActionCancel          RequestAction = "cancel"
	ActionAssign          RequestAction = "assign"
	ActionUploadReport    RequestAction = "upload_report"
	ActionInitiatePayment RequestAction = "initiate_payment"
)

// CanView reports read access to one request. Top-tier admins see all,
// partial-access admins only what is assigned to them, clients their own.
func CanView(user *models.User, req *models.ServiceRequest) bool {
	if user.IsTopTierAdmin() {
		return true
	}
	if user.IsPartialAdmin() {
		return req.AssignedTo != nil && *req.AssignedTo == user.ID
	}
	if user.IsStaff {
		// Staff without an admin role sees nothing.
		return false
	}
	return req.ClientID == user.ID
}

// Authorize decides whether user may perform action on req. It checks the
// actor only; whether the request's current status allows the event is the
// transition table's concern, so callers can tell "not authorized" apart
// from "wrong state".
func Authorize(user *models.User, req *models.ServiceRequest, action RequestAction) error {
	switch action {
	case ActionView:
		if CanView(user, req) {
			return nil
		}
		return models.ErrNotAuthorized

	case ActionWithdraw:
		// Owner-only, and never for staff impersonating the owner path.
		if !user.IsAdmin() && req.ClientID == user.ID {
			return nil
		}
		return models.ErrNotAuthorized

	case ActionInitiatePayment:
		if !user.IsAdmin() && req.ClientID == user.ID {
			return nil
		}
		return models.ErrNotAuthorized

	case ActionApprove, ActionReject, ActionUploadReport:
		if user.IsTopTierAdmin() {
			return nil
		}
		if user.IsPartialAdmin() && req.AssignedTo != nil && *req.AssignedTo == user.ID {
			return nil
		}
		return models.ErrNotAuthorized

	case ActionCancel, ActionAssign:
		if user.IsTopTierAdmin() {
			return nil
		}
		return models.ErrNotAuthorized
	}

	return models.ErrNotAuthorized
}

// VisibilityFilter returns the Mongo filter scoping list queries and
// dashboard aggregations to what user may see. ok is false when the user
// sees nothing at all.
func VisibilityFilter(user *models.User) (bson.M, bool) {
	if user.IsTopTierAdmin() {
		return bson.M{}, true
	}
	if user.IsPartialAdmin() {
		return bson.M{"assignedTo": user.ID}, true
	}
	if user.IsStaff {
		return nil, false
	}
	return bson.M{"clientId": user.ID}, true
}

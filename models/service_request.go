// models/service_request.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestStatus is the lifecycle state of a service request.
type RequestStatus string

const (
	StatusPendingApproval RequestStatus = "pending_approval"
	StatusAwaitingPayment RequestStatus = "awaiting_payment"
	StatusInProgress      RequestStatus = "in_progress"
	StatusCompleted       RequestStatus = "completed"
	StatusRejected        RequestStatus = "rejected"
	StatusWithdrawn       RequestStatus = "withdrawn"
	StatusCancelled       RequestStatus = "cancelled"
)

// RequestEvent names a lifecycle transition. Events are applied through
// ServiceRequestRepository.ApplyTransition so guards live in one place.
type RequestEvent string

const (
	EventApprove      RequestEvent = "approve"
	EventReject       RequestEvent = "reject"
	EventWithdraw     RequestEvent = "withdraw"
	EventPaymentDone  RequestEvent = "payment_done"
	EventDeliverWork  RequestEvent = "deliver_work"
	EventCancel       RequestEvent = "cancel"
)

// transition is one row of the lifecycle table.
type transition struct {
	From RequestStatus
	To   RequestStatus
}

// transitionTable is the single authoritative map of event to allowed
// from/to statuses. EventCancel is special-cased in TransitionFor because it
// is valid from every non-terminal status.
var transitionTable = map[RequestEvent]transition{
	EventApprove:     {From: StatusPendingApproval, To: StatusAwaitingPayment},
	EventReject:      {From: StatusPendingApproval, To: StatusRejected},
	EventWithdraw:    {From: StatusPendingApproval, To: StatusWithdrawn},
	EventPaymentDone: {From: StatusAwaitingPayment, To: StatusInProgress},
	EventDeliverWork: {From: StatusInProgress, To: StatusCompleted},
}

// AllStatuses lists every status a request may hold.
var AllStatuses = []RequestStatus{
	StatusPendingApproval,
	StatusAwaitingPayment,
	StatusInProgress,
	StatusCompleted,
	StatusRejected,
	StatusWithdrawn,
	StatusCancelled,
}

// IsTerminal reports whether no further transition may leave the status.
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusWithdrawn, StatusCancelled:
		return true
	}
	return false
}

// IsValidStatus reports whether s is one of the enumerated statuses.
func IsValidStatus(s RequestStatus) bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// TransitionFor resolves the target status for applying event to a request
// currently in from. Returns ErrInvalidStateTransition when the event is not
// allowed from that status. No event ever re-enters pending_approval.
func TransitionFor(from RequestStatus, event RequestEvent) (RequestStatus, error) {
	if event == EventCancel {
		if from.IsTerminal() {
			return "", ErrInvalidStateTransition
		}
		return StatusCancelled, nil
	}
	t, ok := transitionTable[event]
	if !ok || t.From != from {
		return "", ErrInvalidStateTransition
	}
	return t.To, nil
}

// ServiceRequest represents one client's purchase-and-delivery workflow for
// one catalog service. Requests are never hard-deleted; terminal states are
// retained for audit and reporting.
type ServiceRequest struct {
	ID                  primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	ServiceID           primitive.ObjectID  `json:"serviceId" bson:"serviceId"`
	ClientID            primitive.ObjectID  `json:"clientId" bson:"clientId"`
	AssignedTo          *primitive.ObjectID `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	Status              RequestStatus       `json:"status" bson:"status"`
	RequestDate         time.Time           `json:"requestDate" bson:"requestDate"`
	ApprovedAt          *time.Time          `json:"approvedAt,omitempty" bson:"approvedAt,omitempty"`
	URL                 string              `json:"url" bson:"url"`
	Roles               string              `json:"roles,omitempty" bson:"roles,omitempty"`
	Notes               string              `json:"notes,omitempty" bson:"notes,omitempty"`
	// Credentials holds vault ciphertext only; plaintext never reaches storage.
	Credentials         string              `json:"-" bson:"credentials,omitempty"`
	PaymentGatewayTxnID string              `json:"paymentGatewayTxnId,omitempty" bson:"paymentGatewayTxnId,omitempty"`
	UpdatedAt           time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// ServiceRequestSubmission is the client-facing payload for creating a request.
type ServiceRequestSubmission struct {
	ServiceID   string `json:"serviceId" validate:"required"`
	URL         string `json:"url" validate:"required,url"`
	Roles       string `json:"roles"`
	Notes       string `json:"notes"`
	Credentials string `json:"credentials"`
}

// AssignRequest is the admin payload for assigning a request to staff.
type AssignRequest struct {
	AdminID string `json:"adminId" validate:"required"`
}

// StatusUpdateRequest is the admin payload for approve/reject decisions.
type StatusUpdateRequest struct {
	Status RequestStatus `json:"status" validate:"required"`
}

// controllers/payment_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cyphexlabs/cyphex_backend/config"
	"github.com/cyphexlabs/cyphex_backend/models"
	"github.com/cyphexlabs/cyphex_backend/repositories"
	"github.com/cyphexlabs/cyphex_backend/services"
	"github.com/cyphexlabs/cyphex_backend/utils"
	"github.com/cyphexlabs/cyphex_backend/websocket"
)

// PaymentController exposes the payment handoff and the gateway's callback
// endpoints. The callbacks are unauthenticated: the recomputed hash is the
// only thing standing between the gateway and the state machine.
type PaymentController struct {
	DB          *mongo.Client
	requests    *repositories.ServiceRequestRepository
	users       *repositories.UserRepository
	payu        *services.PayUService
	hub         *websocket.Hub
	frontendURL string
}

// NewPaymentController creates a new payment controller
func NewPaymentController(db *mongo.Client, requests *repositories.ServiceRequestRepository, users *repositories.UserRepository, payu *services.PayUService, hub *websocket.Hub, frontendURL string) *PaymentController {
	return &PaymentController{
		DB:          db,
		requests:    requests,
		users:       users,
		payu:        payu,
		hub:         hub,
		frontendURL: frontendURL,
	}
}

// InitiatePayment mints a fresh transaction id for an approved request and
// returns the signed gateway payload. Retries mint a new txnid each time;
// only the latest one can complete the request.
func (pc *PaymentController) InitiatePayment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := utils.GetUserFromToken(c, pc.DB)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	id, err := primitiveIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request ID",
		})
	}

	request, err := pc.requests.GetByID(ctx, id)
	if err != nil {
		return respondDomainError(c, err)
	}

	if err := utils.Authorize(user, request, utils.ActionInitiatePayment); err != nil {
		return respondDomainError(c, err)
	}

	if request.Status != models.StatusAwaitingPayment {
		return respondDomainError(c, models.ErrConflict)
	}

	var service models.Service
	err = config.GetCollection(pc.DB, "services").FindOne(ctx, bson.M{"_id": request.ServiceID}).Decode(&service)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to look up service",
		})
	}

	txnid := uuid.New().String()
	if err := pc.requests.RecordTxnID(ctx, request.ID, txnid); err != nil {
		return respondDomainError(c, err)
	}

	paymentData := pc.payu.BuildPaymentData(txnid, service, user)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment initiated successfully",
		Data:    paymentData,
	})
}

// PaymentSuccess is the gateway's success callback. A verified hash plus a
// success status moves the request from awaiting_payment to in_progress;
// everything else leaves state alone. The browser always gets a redirect.
func (pc *PaymentController) PaymentSuccess(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var cb models.PayUCallback
	if err := c.Bind(&cb); err != nil {
		log.Printf("Payment success callback: malformed body: %v", err)
		return c.Redirect(http.StatusFound, pc.frontendURL+"/payment/failure")
	}

	if !pc.payu.VerifyCallback(cb) {
		log.Printf("Payment success callback: hash verification failed for txnid=%s", cb.TxnID)
		return c.Redirect(http.StatusFound, pc.frontendURL+"/payment/failure")
	}

	if cb.Status != "success" {
		log.Printf("Payment success callback: non-success status %q for txnid=%s", cb.Status, cb.TxnID)
		return c.Redirect(http.StatusFound, pc.frontendURL+"/payment/failure")
	}

	moved, err := pc.requests.TransitionByTxnID(ctx, cb.TxnID, models.StatusAwaitingPayment, models.StatusInProgress)
	if err != nil {
		log.Printf("Payment success callback: transition failed for txnid=%s: %v", cb.TxnID, err)
		return c.Redirect(http.StatusFound, pc.frontendURL+"/payment/failure")
	}
	if !moved {
		// Unknown txnid, a stale retry attempt or a duplicate delivery of a
		// callback already applied. The first delivery won; still a success
		// from the payer's point of view if the request already progressed.
		request, getErr := pc.requests.GetByTxnID(ctx, cb.TxnID)
		if getErr != nil || request.Status == models.StatusAwaitingPayment {
			log.Printf("Payment success callback: no transition applied for txnid=%s", cb.TxnID)
			return c.Redirect(http.StatusFound, pc.frontendURL+"/payment/failure")
		}
		return c.Redirect(http.StatusFound, pc.frontendURL+"/payment/success")
	}

	pc.notifyPaymentDone(ctx, cb.TxnID)

	return c.Redirect(http.StatusFound, pc.frontendURL+"/payment/success")
}

// PaymentFailure is the gateway's failure callback. It never mutates request
// state; the request stays payable so the client can retry.
func (pc *PaymentController) PaymentFailure(c echo.Context) error {
	var cb models.PayUCallback
	if err := c.Bind(&cb); err != nil {
		log.Printf("Payment failure callback: malformed body: %v", err)
		return c.Redirect(http.StatusFound, pc.frontendURL+"/payment/failure")
	}

	if !pc.payu.VerifyCallback(cb) {
		log.Printf("Payment failure callback: hash verification failed for txnid=%s", cb.TxnID)
	} else {
		log.Printf("Payment failed for txnid=%s with status=%s", cb.TxnID, cb.Status)
	}

	return c.Redirect(http.StatusFound, pc.frontendURL+"/payment/failure")
}

// notifyPaymentDone fans out the paid-and-started update to the owner and
// connected staff.
func (pc *PaymentController) notifyPaymentDone(ctx context.Context, txnid string) {
	request, err := pc.requests.GetByTxnID(ctx, txnid)
	if err != nil {
		return
	}

	owner, err := pc.users.FindByID(ctx, request.ClientID)
	if err != nil {
		return
	}

	utils.NotifyRequestUpdate(pc.DB, owner, "Payment Received",
		"Your payment was received and work on your request has started.",
		map[string]interface{}{
			"requestId": request.ID.Hex(),
			"status":    request.Status,
		})
	pc.hub.NotifyRequestUpdate(owner.ID, request)
	pc.hub.BroadcastToStaff(websocket.Notification{
		Type:    websocket.NotificationTypeRequestUpdate,
		Message: "A service request has been paid and is now in progress",
		Data:    request,
	})
}

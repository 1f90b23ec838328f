// controllers/service_request_controller.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cyphexlabs/cyphex_backend/config"
	"github.com/cyphexlabs/cyphex_backend/models"
	"github.com/cyphexlabs/cyphex_backend/repositories"
	"github.com/cyphexlabs/cyphex_backend/security"
	"github.com/cyphexlabs/cyphex_backend/utils"
	"github.com/cyphexlabs/cyphex_backend/websocket"
)

// ServiceRequestController is the HTTP surface of the request lifecycle
// engine. All request mutation funnels through here and the repository's
// compare-and-swap transitions.
type ServiceRequestController struct {
	DB          *mongo.Client
	requests    *repositories.ServiceRequestRepository
	users       *repositories.UserRepository
	vault       *security.Vault
	mailer      *utils.Mailer
	hub         *websocket.Hub
	frontendURL string
}

// NewServiceRequestController creates a new service request controller
func NewServiceRequestController(db *mongo.Client, requests *repositories.ServiceRequestRepository, users *repositories.UserRepository, vault *security.Vault, mailer *utils.Mailer, hub *websocket.Hub, frontendURL string) *ServiceRequestController {
	return &ServiceRequestController{
		DB:          db,
		requests:    requests,
		users:       users,
		vault:       vault,
		mailer:      mailer,
		hub:         hub,
		frontendURL: frontendURL,
	}
}

// SubmitRequest creates a new request in pending_approval owned by the
// caller. Credentials are encrypted before they reach storage.
func (sc *ServiceRequestController) SubmitRequest(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := utils.GetUserFromToken(c, sc.DB)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var submission models.ServiceRequestSubmission
	if err := c.Bind(&submission); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&submission); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	serviceID, err := primitive.ObjectIDFromHex(submission.ServiceID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid service ID",
		})
	}

	var service models.Service
	err = config.GetCollection(sc.DB, "services").FindOne(ctx, bson.M{"_id": serviceID}).Decode(&service)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Service not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to look up service",
		})
	}

	encrypted, err := sc.vault.Encrypt(submission.Credentials)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to secure credentials",
		})
	}

	request := models.ServiceRequest{
		ServiceID:   serviceID,
		ClientID:    user.ID,
		URL:         submission.URL,
		Roles:       submission.Roles,
		Notes:       submission.Notes,
		Credentials: encrypted,
	}

	if err := sc.requests.Create(ctx, &request); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create service request",
		})
	}

	sc.hub.NotifyRequestSubmitted(request)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Service request submitted successfully",
		Data:    request,
	})
}

// ListRequests returns the requests the caller may see, newest first.
func (sc *ServiceRequestController) ListRequests(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := utils.GetUserFromToken(c, sc.DB)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	filter, ok := utils.VisibilityFilter(user)
	if !ok {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Service requests retrieved successfully",
			Data:    []models.ServiceRequest{},
		})
	}

	requests, err := sc.requests.List(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve service requests",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Service requests retrieved successfully",
		Data:    requests,
	})
}

// GetRequest returns one request with its reports. Staff with mutation
// rights additionally get the decrypted credentials; a corrupted ciphertext
// is reported as unavailable, never as empty.
func (sc *ServiceRequestController) GetRequest(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, request, err := sc.loadActorAndRequest(ctx, c)
	if err != nil {
		return respondDomainError(c, err)
	}

	if err := utils.Authorize(user, request, utils.ActionView); err != nil {
		return respondDomainError(c, err)
	}

	reports, err := sc.requests.ListReports(ctx, []primitive.ObjectID{request.ID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve reports",
		})
	}

	data := map[string]interface{}{
		"request": request,
		"reports": reports,
	}

	if user.IsAdmin() && request.Credentials != "" {
		plaintext, decErr := sc.vault.Decrypt(request.Credentials)
		if decErr != nil {
			data["credentials"] = nil
			data["credentialsError"] = "credentials unavailable"
		} else {
			data["credentials"] = plaintext
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Service request retrieved successfully",
		Data:    data,
	})
}

// Withdraw lets the owner withdraw a request while it is pending approval.
func (sc *ServiceRequestController) Withdraw(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, request, err := sc.loadActorAndRequest(ctx, c)
	if err != nil {
		return respondDomainError(c, err)
	}

	if err := utils.Authorize(user, request, utils.ActionWithdraw); err != nil {
		return respondDomainError(c, err)
	}

	to, err := models.TransitionFor(request.Status, models.EventWithdraw)
	if err != nil {
		return respondDomainError(c, err)
	}

	if err := sc.requests.ApplyTransition(ctx, request.ID, request.Status, to, nil); err != nil {
		return respondDomainError(c, err)
	}

	request.Status = to
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Service request withdrawn successfully",
		Data:    request,
	})
}

// UpdateStatus applies the staff approve/reject decision.
func (sc *ServiceRequestController) UpdateStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, request, err := sc.loadActorAndRequest(ctx, c)
	if err != nil {
		return respondDomainError(c, err)
	}

	var body models.StatusUpdateRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	var event models.RequestEvent
	var action utils.RequestAction
	switch body.Status {
	case models.StatusAwaitingPayment:
		event, action = models.EventApprove, utils.ActionApprove
	case models.StatusRejected:
		event, action = models.EventReject, utils.ActionReject
	default:
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid status",
		})
	}

	if err := utils.Authorize(user, request, action); err != nil {
		return respondDomainError(c, err)
	}

	to, err := models.TransitionFor(request.Status, event)
	if err != nil {
		return respondDomainError(c, err)
	}

	extraSet := bson.M{}
	if event == models.EventApprove && request.ApprovedAt == nil {
		// approved_at is set exactly once, the first time the request
		// leaves pending_approval towards payment.
		extraSet["approvedAt"] = time.Now()
	}

	if err := sc.requests.ApplyTransition(ctx, request.ID, request.Status, to, extraSet); err != nil {
		return respondDomainError(c, err)
	}

	updated, err := sc.requests.GetByID(ctx, request.ID)
	if err != nil {
		return respondDomainError(c, err)
	}

	sc.notifyStatusChange(ctx, updated)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Service request status updated successfully",
		Data:    updated,
	})
}

// Assign sets the staff member responsible for a request. Unrestricted
// admins only; a non-staff target is reported as not found.
func (sc *ServiceRequestController) Assign(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, request, err := sc.loadActorAndRequest(ctx, c)
	if err != nil {
		return respondDomainError(c, err)
	}

	if err := utils.Authorize(user, request, utils.ActionAssign); err != nil {
		return respondDomainError(c, err)
	}

	var body models.AssignRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Admin ID is required",
		})
	}

	adminID, err := primitive.ObjectIDFromHex(body.AdminID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid admin ID",
		})
	}

	if _, err := sc.users.FindStaffByID(ctx, adminID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Admin user not found",
			})
		}
		return respondDomainError(c, err)
	}

	if err := sc.requests.Assign(ctx, request.ID, adminID); err != nil {
		return respondDomainError(c, err)
	}

	updated, err := sc.requests.GetByID(ctx, request.ID)
	if err != nil {
		return respondDomainError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Service request assigned successfully",
		Data:    updated,
	})
}

// Cancel moves any non-terminal request to cancelled. Top-tier admins only.
func (sc *ServiceRequestController) Cancel(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, request, err := sc.loadActorAndRequest(ctx, c)
	if err != nil {
		return respondDomainError(c, err)
	}

	if err := utils.Authorize(user, request, utils.ActionCancel); err != nil {
		return respondDomainError(c, err)
	}

	to, err := models.TransitionFor(request.Status, models.EventCancel)
	if err != nil {
		return respondDomainError(c, err)
	}

	if err := sc.requests.ApplyTransition(ctx, request.ID, request.Status, to, nil); err != nil {
		return respondDomainError(c, err)
	}

	request.Status = to
	sc.notifyStatusChange(ctx, request)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Service request cancelled",
		Data:    request,
	})
}

// UploadReport stores the deliverable, completes the request and notifies
// the owner. Only valid while the request is in progress.
func (sc *ServiceRequestController) UploadReport(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, request, err := sc.loadActorAndRequest(ctx, c)
	if err != nil {
		return respondDomainError(c, err)
	}

	if err := utils.Authorize(user, request, utils.ActionUploadReport); err != nil {
		return respondDomainError(c, err)
	}

	to, err := models.TransitionFor(request.Status, models.EventDeliverWork)
	if err != nil {
		return respondDomainError(c, err)
	}

	file, err := c.FormFile("report_file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "No report file provided",
		})
	}

	fileURL, err := utils.SaveReportFile(file)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	report := models.Report{
		ServiceRequestID: request.ID,
		FilePath:         fileURL,
	}
	if err := sc.requests.DeliverReport(ctx, request.ID, request.Status, &report); err != nil {
		return respondDomainError(c, err)
	}

	request.Status = to
	sc.notifyReportReady(ctx, request)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Report uploaded successfully",
		Data: map[string]interface{}{
			"request": request,
			"report":  report,
		},
	})
}

// ListReports returns the reports attached to every request the caller may
// see. Clients get their own deliverables; staff follow the same visibility
// rules as request listings.
func (sc *ServiceRequestController) ListReports(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := utils.GetUserFromToken(c, sc.DB)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	filter, ok := utils.VisibilityFilter(user)
	if !ok {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Reports retrieved successfully",
			Data:    []models.Report{},
		})
	}

	requests, err := sc.requests.List(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve reports",
		})
	}

	requestIDs := make([]primitive.ObjectID, 0, len(requests))
	for _, req := range requests {
		requestIDs = append(requestIDs, req.ID)
	}

	reports, err := sc.requests.ListReports(ctx, requestIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve reports",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Reports retrieved successfully",
		Data:    reports,
	})
}

// loadActorAndRequest resolves the authenticated user and the request named
// in the :id path parameter.
func (sc *ServiceRequestController) loadActorAndRequest(ctx context.Context, c echo.Context) (*models.User, *models.ServiceRequest, error) {
	user, err := utils.GetUserFromToken(c, sc.DB)
	if err != nil {
		return nil, nil, models.ErrNotAuthorized
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return nil, nil, models.ErrValidation
	}

	request, err := sc.requests.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return user, request, nil
}

// notifyStatusChange emails the owner and pushes in-app/websocket updates.
// All best-effort: failures never roll back the applied transition.
func (sc *ServiceRequestController) notifyStatusChange(ctx context.Context, request *models.ServiceRequest) {
	owner, err := sc.users.FindByID(ctx, request.ClientID)
	if err != nil {
		return
	}

	title := "Service Request Update"
	message := fmt.Sprintf("Your service request is now %s.", request.Status)
	utils.NotifyRequestUpdate(sc.DB, owner, title, message, map[string]interface{}{
		"requestId": request.ID.Hex(),
		"status":    request.Status,
	})
	sc.mailer.NotifyAsync(owner.Email, title, fmt.Sprintf(
		"Dear %s,\n\nYour service request status changed to %s.\n\nYou can track it at %s/my-requests\n\nBest regards,\nThe Cyphex Team",
		owner.FullName(), request.Status, sc.frontendURL))

	// Ignore delivery errors; the owner may simply not be connected.
	sc.hub.NotifyRequestUpdate(owner.ID, request)
}

// notifyReportReady tells the owner their deliverable is available.
func (sc *ServiceRequestController) notifyReportReady(ctx context.Context, request *models.ServiceRequest) {
	owner, err := sc.users.FindByID(ctx, request.ClientID)
	if err != nil {
		return
	}

	var service models.Service
	serviceName := "your service"
	if err := config.GetCollection(sc.DB, "services").FindOne(ctx, bson.M{"_id": request.ServiceID}).Decode(&service); err == nil {
		serviceName = service.Name
	}

	subject := fmt.Sprintf("Your Security Report for '%s' is Ready", serviceName)
	body := fmt.Sprintf(
		"Dear %s,\n\nYour security audit report for %q is now complete and available for download.\n\nYou can view and download your report from your dashboard:\n%s/my-requests\n\nThank you for choosing our services.\n\nBest regards,\nThe Cyphex Team",
		owner.FullName(), serviceName, sc.frontendURL)

	sc.mailer.NotifyAsync(owner.Email, subject, body)
	utils.NotifyRequestUpdate(sc.DB, owner, "Report Ready", "Your security report is ready for download.", map[string]interface{}{
		"requestId": request.ID.Hex(),
	})
	sc.hub.NotifyReportReady(owner.ID, request)
}

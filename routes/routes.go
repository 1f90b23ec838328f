package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cyphexlabs/cyphex_backend/controllers"
	"github.com/cyphexlabs/cyphex_backend/middleware"
	"github.com/cyphexlabs/cyphex_backend/models"
	"github.com/cyphexlabs/cyphex_backend/utils"
	"github.com/cyphexlabs/cyphex_backend/websocket"
)

// Controllers bundles every controller the route table needs.
type Controllers struct {
	Auth          *controllers.AuthController
	Profile       *controllers.ProfileController
	Request       *controllers.ServiceRequestController
	Payment       *controllers.PaymentController
	Dashboard     *controllers.DashboardController
	Service       *controllers.ServiceController
	Enquiry       *controllers.EnquiryController
	Admin         *controllers.AdminController
	Notifications *controllers.NotificationController
}

// SetupRoutes wires the full API surface. Payment callbacks stay outside the
// JWT group on purpose: the gateway authenticates with its hash, not a token.
func SetupRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub, ctrl Controllers) {
	// Public endpoints
	e.POST("/api/auth/signup", ctrl.Auth.Signup)
	e.POST("/api/auth/login", ctrl.Auth.Login)

	e.GET("/api/services", ctrl.Service.ListServices)
	e.GET("/api/services/:id", ctrl.Service.GetService)

	e.POST("/api/enquiries", ctrl.Enquiry.CreateEnquiry)

	// Gateway callbacks, hash-authenticated
	e.POST("/api/payu/success", ctrl.Payment.PaymentSuccess)
	e.POST("/api/payu/failure", ctrl.Payment.PaymentFailure)

	// Authenticated endpoints
	api := e.Group("/api")
	api.Use(middleware.JWTMiddleware())

	api.GET("/profile", ctrl.Profile.GetProfile)
	api.POST("/profile/update/initiate", ctrl.Profile.InitiateUpdate)
	api.POST("/profile/update/verify", ctrl.Profile.VerifyUpdate)

	api.POST("/requests", ctrl.Request.SubmitRequest)
	api.GET("/requests", ctrl.Request.ListRequests)
	api.GET("/requests/:id", ctrl.Request.GetRequest)
	api.POST("/requests/:id/withdraw", ctrl.Request.Withdraw)
	api.PUT("/requests/:id/status", ctrl.Request.UpdateStatus)
	api.POST("/requests/:id/assign", ctrl.Request.Assign)
	api.POST("/requests/:id/cancel", ctrl.Request.Cancel)
	api.POST("/requests/:id/report", ctrl.Request.UploadReport)
	api.POST("/requests/:id/pay", ctrl.Payment.InitiatePayment)
	api.GET("/reports", ctrl.Request.ListReports)

	api.GET("/dashboard/client", ctrl.Dashboard.ClientStats)
	api.GET("/dashboard/admin", ctrl.Dashboard.AdminStats)

	api.POST("/services", ctrl.Service.CreateService)
	api.PUT("/services/:id", ctrl.Service.UpdateService)
	api.DELETE("/services/:id", ctrl.Service.DeleteService)

	api.GET("/enquiries", ctrl.Enquiry.ListEnquiries)
	api.GET("/admins", ctrl.Admin.ListAdmins)

	api.GET("/notifications", ctrl.Notifications.ListNotifications)
	api.PUT("/notifications/:id/read", ctrl.Notifications.MarkNotificationRead)

	// Live feed; the JWT group has already authenticated the upgrade request.
	api.GET("/ws", func(c echo.Context) error {
		user, err := utils.GetUserFromToken(c, db)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Unauthorized",
			})
		}
		return websocket.HandleWebSocket(c, hub, user)
	})
}

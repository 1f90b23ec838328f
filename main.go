package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/cyphexlabs/cyphex_backend/config"
	"github.com/cyphexlabs/cyphex_backend/controllers"
	"github.com/cyphexlabs/cyphex_backend/middleware"
	"github.com/cyphexlabs/cyphex_backend/repositories"
	"github.com/cyphexlabs/cyphex_backend/routes"
	"github.com/cyphexlabs/cyphex_backend/security"
	"github.com/cyphexlabs/cyphex_backend/services"
	"github.com/cyphexlabs/cyphex_backend/utils"
	"github.com/cyphexlabs/cyphex_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := config.Load()

	// Initialize Firebase
	config.InitFirebase()

	// Connect to Redis
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	// Core services
	vault, err := security.NewVault(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("Failed to initialize credential vault: %v", err)
	}
	mailer := utils.NewMailer(cfg.SMTP)
	payuService := services.NewPayUService(cfg.PayU)
	otpService := services.NewOTPService(redisClient, mailer)

	// Repositories
	userRepo := repositories.NewUserRepository(client)
	requestRepo := repositories.NewServiceRequestRepository(client)

	// WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	rateLimiter := middleware.NewRateLimiter()

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		AllowedDomains: []string{"*"},
		AllowInlineJS:  false,
	}))

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	ctrl := routes.Controllers{
		Auth:          controllers.NewAuthController(client, userRepo),
		Profile:       controllers.NewProfileController(client, userRepo, otpService),
		Request:       controllers.NewServiceRequestController(client, requestRepo, userRepo, vault, mailer, hub, cfg.FrontendURL),
		Payment:       controllers.NewPaymentController(client, requestRepo, userRepo, payuService, hub, cfg.FrontendURL),
		Dashboard:     controllers.NewDashboardController(client, requestRepo, userRepo),
		Service:       controllers.NewServiceController(client),
		Enquiry:       controllers.NewEnquiryController(client),
		Admin:         controllers.NewAdminController(client, userRepo),
		Notifications: controllers.NewNotificationController(client),
	}
	routes.SetupRoutes(e, client, hub, ctrl)

	// Ensure upload directories exist
	if err := utils.InitializeStorage(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	e.Static("/uploads", "uploads")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

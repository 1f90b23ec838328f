// controllers/admin_controller.go
package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cyphexlabs/cyphex_backend/models"
	"github.com/cyphexlabs/cyphex_backend/repositories"
	"github.com/cyphexlabs/cyphex_backend/utils"
)

// AdminController exposes staff directory data used by the admin UI.
type AdminController struct {
	DB    *mongo.Client
	users *repositories.UserRepository
}

// NewAdminController creates a new admin controller
func NewAdminController(db *mongo.Client, users *repositories.UserRepository) *AdminController {
	return &AdminController{DB: db, users: users}
}

// ListAdmins returns every admin account, for the assignment picker.
// Unrestricted admins only.
func (ac *AdminController) ListAdmins(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := utils.GetUserFromToken(c, ac.DB)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}
	if !user.IsTopTierAdmin() {
		return respondDomainError(c, models.ErrNotAuthorized)
	}

	admins, err := ac.users.ListAdmins(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve admins",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Admins retrieved successfully",
		Data:    admins,
	})
}

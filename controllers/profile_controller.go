// controllers/profile_controller.go
package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/cyphexlabs/cyphex_backend/models"
	"github.com/cyphexlabs/cyphex_backend/repositories"
	"github.com/cyphexlabs/cyphex_backend/services"
	"github.com/cyphexlabs/cyphex_backend/utils"
)

// mutation class for profile changes; one pending challenge per user.
const profileUpdateClass = "profile_update"

// ProfileController gates profile mutations behind an emailed one-time code.
// A requested change is never applied directly: it is parked in the
// challenge store and only takes effect once the code is confirmed.
type ProfileController struct {
	DB    *mongo.Client
	users *repositories.UserRepository
	otp   *services.OTPService
}

// NewProfileController creates a new profile controller
func NewProfileController(db *mongo.Client, users *repositories.UserRepository, otp *services.OTPService) *ProfileController {
	return &ProfileController{DB: db, users: users, otp: otp}
}

// GetProfile returns the authenticated user's account.
func (pc *ProfileController) GetProfile(c echo.Context) error {
	user, err := utils.GetUserFromToken(c, pc.DB)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile retrieved successfully",
		Data:    user,
	})
}

// InitiateUpdate validates the requested mutation, parks it as a pending
// challenge and emails the code. Proposing again replaces any earlier
// pending change.
func (pc *ProfileController) InitiateUpdate(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := utils.GetUserFromToken(c, pc.DB)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req models.ProfileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "updateType must be 'details' or 'password'",
		})
	}

	switch req.UpdateType {
	case "details":
		if req.FirstName == "" && req.LastName == "" {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Nothing to update",
			})
		}
	case "password":
		if len(req.NewPassword) < 8 {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Password must be at least 8 characters",
			})
		}
	}

	if err := pc.otp.Propose(ctx, user, profileUpdateClass, req); err != nil {
		return respondDomainError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "A verification code has been sent to your email",
	})
}

// VerifyUpdate consumes the challenge and, on a correct code, applies the
// parked mutation. The code is single use; a wrong code leaves the challenge
// live until it expires.
func (pc *ProfileController) VerifyUpdate(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := utils.GetUserFromToken(c, pc.DB)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var confirm models.ConfirmUpdateRequest
	if err := c.Bind(&confirm); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&confirm); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "OTP is required",
		})
	}

	payload, err := pc.otp.Confirm(ctx, user, profileUpdateClass, confirm.OTP)
	if err != nil {
		return respondDomainError(c, err)
	}

	var pending models.ProfileUpdateRequest
	if err := json.Unmarshal(payload, &pending); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Stored update could not be applied",
		})
	}

	switch pending.UpdateType {
	case "details":
		firstName := pending.FirstName
		if firstName == "" {
			firstName = user.FirstName
		}
		lastName := pending.LastName
		if lastName == "" {
			lastName = user.LastName
		}
		if err := pc.users.UpdateName(ctx, user.ID, firstName, lastName); err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to update profile",
			})
		}
		user.FirstName = firstName
		user.LastName = lastName

	case "password":
		hashed, err := bcrypt.GenerateFromPassword([]byte(pending.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to process password",
			})
		}
		if err := pc.users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to update password",
			})
		}

	default:
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Stored update could not be applied",
		})
	}

	user.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile updated successfully",
		Data:    user,
	})
}

// controllers/helpers.go
package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cyphexlabs/cyphex_backend/models"
)

// primitiveIDParam parses the :id path parameter as an ObjectID.
func primitiveIDParam(c echo.Context) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.Param("id"))
}

// respondDomainError maps the domain error taxonomy onto distinct HTTP
// responses so clients can tell "wrong state" from "not authorized" from
// "missing" without parsing messages.
func respondDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrValidation):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid input",
		})
	case errors.Is(err, models.ErrNotAuthorized):
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "You do not have permission to perform this action",
		})
	case errors.Is(err, models.ErrInvalidStateTransition):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "This action is not valid for the request's current status",
		})
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Not found",
		})
	case errors.Is(err, models.ErrConflict):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "The operation conflicts with the current state",
		})
	case errors.Is(err, models.ErrVerificationFailed):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Verification failed",
		})
	case errors.Is(err, models.ErrChallengeExpired):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "OTP has expired or is invalid. Please try again",
		})
	case errors.Is(err, models.ErrChallengeMismatch):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "The submitted OTP is incorrect",
		})
	case errors.Is(err, models.ErrNotification):
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to send verification email",
		})
	}

	return c.JSON(http.StatusInternalServerError, models.Response{
		Status:  http.StatusInternalServerError,
		Message: "Internal server error",
	})
}

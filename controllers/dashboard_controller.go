// controllers/dashboard_controller.go
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

// DashboardController serves the client and admin overview numbers. All
// figures are derived from committed request state at read time, scoped by
// the caller's visibility.
type DashboardController struct {
	DB       *mongo.Client
	requests *repositories.ServiceRequestRepository
	users    *repositories.UserRepository
}

// NewDashboardController creates a new dashboard controller
func NewDashboardController(db *mongo.Client, requests *repositories.ServiceRequestRepository, users *repositories.UserRepository) *DashboardController {
	return &DashboardController{DB: db, requests: requests, users: users}
}

// ClientStats returns the caller's own request counts grouped by status.
func (dc *DashboardController) ClientStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := utils.GetUserFromToken(c, dc.DB)
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
			Message: "Dashboard stats retrieved successfully",
			Data:    emptyStatusCounts(),
		})
	}

	counts, err := dc.requests.CountByStatus(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve dashboard stats",
		})
	}

	byStatus, total := fillStatusCounts(counts)
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Dashboard stats retrieved successfully",
		Data: map[string]interface{}{
			"totalRequests": total,
			"byStatus":      byStatus,
		},
	})
}

// AdminStats returns the staff overview: lifetime status distribution and a
// trailing 30-day window, both narrowed to what the caller may see. Account
// totals are included for unrestricted admins only.
func (dc *DashboardController) AdminStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := utils.GetUserFromToken(c, dc.DB)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	if !user.IsAdmin() {
		return respondDomainError(c, models.ErrNotAuthorized)
	}

	filter, ok := utils.VisibilityFilter(user)
	if !ok {
		return respondDomainError(c, models.ErrNotAuthorized)
	}

	counts, err := dc.requests.CountByStatus(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve dashboard stats",
		})
	}

	since := time.Now().AddDate(0, 0, -30)
	recentCounts, recentTotal, err := dc.requests.CountSince(ctx, filter, since)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve dashboard stats",
		})
	}

	byStatus, total := fillStatusCounts(counts)
	recentByStatus, _ := fillStatusCounts(recentCounts)

	data := map[string]interface{}{
		"totalRequests": total,
		"byStatus":      byStatus,
		"last30Days": map[string]interface{}{
			"totalRequests": recentTotal,
			"byStatus":      recentByStatus,
		},
	}

	if user.IsTopTierAdmin() {
		activeClients, err := dc.users.CountActiveClients(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to retrieve dashboard stats",
			})
		}
		data["activeClients"] = activeClients
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Dashboard stats retrieved successfully",
		Data:    data,
	})
}

// fillStatusCounts maps every known status to a count, zero-filled, so the
// front end never has to guess at missing keys.
func fillStatusCounts(counts map[models.RequestStatus]int64) (map[models.RequestStatus]int64, int64) {
	filled := make(map[models.RequestStatus]int64, len(models.AllStatuses))
	var total int64
	for _, status := range models.AllStatuses {
		n := counts[status]
		filled[status] = n
		total += n
	}
	return filled, total
}

func emptyStatusCounts() map[string]interface{} {
	byStatus, _ := fillStatusCounts(nil)
	return map[string]interface{}{
		"totalRequests": 0,
		"byStatus":      byStatus,
	}
}

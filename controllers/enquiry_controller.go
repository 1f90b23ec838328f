// controllers/enquiry_controller.go
package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cyphexlabs/cyphex_backend/config"
	"github.com/cyphexlabs/cyphex_backend/models"
	"github.com/cyphexlabs/cyphex_backend/utils"
)

// EnquiryController takes public contact-form messages and lists them for
// admins.
type EnquiryController struct {
	DB         *mongo.Client
	collection *mongo.Collection
}

// NewEnquiryController creates a new enquiry controller
func NewEnquiryController(db *mongo.Client) *EnquiryController {
	return &EnquiryController{
		DB:         db,
		collection: config.GetCollection(db, "enquiries"),
	}
}

// CreateEnquiry accepts an unauthenticated contact-form message.
func (ec *EnquiryController) CreateEnquiry(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var enquiry models.Enquiry
	if err := c.Bind(&enquiry); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&enquiry); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email, subject and body are required",
		})
	}

	enquiry.ID = primitive.NewObjectID()
	enquiry.CreatedAt = time.Now()

	if _, err := ec.collection.InsertOne(ctx, enquiry); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to submit enquiry",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Enquiry submitted successfully",
	})
}

// ListEnquiries returns all enquiries, newest first. Admins only.
func (ec *EnquiryController) ListEnquiries(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := utils.GetUserFromToken(c, ec.DB)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}
	if !user.IsAdmin() {
		return respondDomainError(c, models.ErrNotAuthorized)
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := ec.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve enquiries",
		})
	}
	defer cursor.Close(ctx)

	enquiries := []models.Enquiry{}
	if err := cursor.All(ctx, &enquiries); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve enquiries",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Enquiries retrieved successfully",
		Data:    enquiries,
	})
}

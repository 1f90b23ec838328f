// controllers/service_controller.go
package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cyphexlabs/cyphex_backend/config"
	"github.com/cyphexlabs/cyphex_backend/models"
	"github.com/cyphexlabs/cyphex_backend/utils"
)

// ServiceController manages the purchasable catalog. Reads are public;
// mutations require an unrestricted admin.
type ServiceController struct {
	DB         *mongo.Client
	collection *mongo.Collection
}

// NewServiceController creates a new service controller
func NewServiceController(db *mongo.Client) *ServiceController {
	return &ServiceController{
		DB:         db,
		collection: config.GetCollection(db, "services"),
	}
}

// ListServices returns the full catalog.
func (sc *ServiceController) ListServices(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := sc.collection.Find(ctx, bson.M{})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve services",
		})
	}
	defer cursor.Close(ctx)

	services := []models.Service{}
	if err := cursor.All(ctx, &services); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve services",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Services retrieved successfully",
		Data:    services,
	})
}

// GetService returns one catalog entry.
func (sc *ServiceController) GetService(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := primitiveIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid service ID",
		})
	}

	var service models.Service
	if err := sc.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&service); err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Service not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve service",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Service retrieved successfully",
		Data:    service,
	})
}

// CreateService adds a catalog entry, with an optional multipart image.
func (sc *ServiceController) CreateService(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sc.requireTopTierAdmin(c); err != nil {
		return respondDomainError(c, err)
	}

	var req models.ServiceUpsertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	service := models.Service{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}

	if file, err := c.FormFile("image"); err == nil {
		imageURL, thumbURL, saveErr := utils.SaveServiceImage(file)
		if saveErr != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: saveErr.Error(),
			})
		}
		service.ImagePath = imageURL
		service.ThumbPath = thumbURL
	}

	result, err := sc.collection.InsertOne(ctx, service)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create service",
		})
	}
	service.ID = result.InsertedID.(primitive.ObjectID)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Service created successfully",
		Data:    service,
	})
}

// UpdateService edits a catalog entry, replacing the image when a new one
// is attached.
func (sc *ServiceController) UpdateService(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sc.requireTopTierAdmin(c); err != nil {
		return respondDomainError(c, err)
	}

	id, err := primitiveIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid service ID",
		})
	}

	var req models.ServiceUpsertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	set := bson.M{
		"name":        req.Name,
		"description": req.Description,
		"price":       req.Price,
	}

	if file, err := c.FormFile("image"); err == nil {
		imageURL, thumbURL, saveErr := utils.SaveServiceImage(file)
		if saveErr != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: saveErr.Error(),
			})
		}
		set["imagePath"] = imageURL
		set["thumbPath"] = thumbURL
	}

	result, err := sc.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update service",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Service not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Service updated successfully",
	})
}

// DeleteService removes a catalog entry. Existing requests keep their
// service reference; only the catalog listing goes away.
func (sc *ServiceController) DeleteService(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sc.requireTopTierAdmin(c); err != nil {
		return respondDomainError(c, err)
	}

	id, err := primitiveIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid service ID",
		})
	}

	result, err := sc.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete service",
		})
	}
	if result.DeletedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Service not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Service deleted successfully",
	})
}

func (sc *ServiceController) requireTopTierAdmin(c echo.Context) error {
	user, err := utils.GetUserFromToken(c, sc.DB)
	if err != nil {
		return models.ErrNotAuthorized
	}
	if !user.IsTopTierAdmin() {
		return models.ErrNotAuthorized
	}
	return nil
}

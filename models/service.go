// models/service.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service is one purchasable catalog entry (a security-audit offering).
type Service struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Price       float64            `json:"price" bson:"price"`
	ImagePath   string             `json:"imagePath,omitempty" bson:"imagePath,omitempty"`
	ThumbPath   string             `json:"thumbPath,omitempty" bson:"thumbPath,omitempty"`
}

// ServiceUpsertRequest is the admin payload for creating or updating a
// catalog entry. The image travels separately as multipart form data.
type ServiceUpsertRequest struct {
	Name        string  `json:"name" form:"name" validate:"required"`
	Description string  `json:"description" form:"description" validate:"required"`
	Price       float64 `json:"price" form:"price" validate:"gte=0"`
}

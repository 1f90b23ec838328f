// models/enquiry.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Enquiry is a public contact-form message, listed by admins only.
type Enquiry struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email     string             `json:"email" bson:"email" validate:"required,email"`
	Subject   string             `json:"subject" bson:"subject" validate:"required"`
	Body      string             `json:"body" bson:"body" validate:"required"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

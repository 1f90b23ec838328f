// models/report.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report is an immutable deliverable artifact. Created only as a side effect
// of the in_progress -> completed transition; never mutated afterwards.
type Report struct {
	ID               primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ServiceRequestID primitive.ObjectID `json:"serviceRequestId" bson:"serviceRequestId"`
	FilePath         string             `json:"filePath" bson:"filePath"`
	UploadedAt       time.Time          `json:"uploadedAt" bson:"uploadedAt"`
}

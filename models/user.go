// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admin role names. Role membership is a plain set-valued attribute; all
// role-based decisions go through the helpers below and utils.Authorize.
const (
	RoleMainAdmin          = "Main Admin"
	RoleFullAccessAdmin    = "Full Access Admin"
	RolePartialAccessAdmin = "Partial Access Admin"
)

// User model
type User struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email       string             `json:"email" bson:"email"`
	Password    string             `json:"password,omitempty" bson:"password"`
	FirstName   string             `json:"firstName" bson:"firstName"`
	LastName    string             `json:"lastName" bson:"lastName"`
	IsActive    bool               `json:"isActive" bson:"isActive"`
	IsStaff     bool               `json:"isStaff" bson:"isStaff"`
	IsSuperuser bool               `json:"isSuperuser" bson:"isSuperuser"`
	Roles       []string           `json:"roles,omitempty" bson:"roles,omitempty"`
	FCMToken    string             `json:"fcmToken,omitempty" bson:"fcmToken,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// FullName returns the display name used in emails.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.Email
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// HasRole reports membership in a named role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsTopTierAdmin reports whether the user sees and mutates every request:
// superusers plus members of the unrestricted admin groups.
func (u *User) IsTopTierAdmin() bool {
	return u.IsSuperuser || u.HasRole(RoleMainAdmin) || u.HasRole(RoleFullAccessAdmin)
}

// IsPartialAdmin reports whether the user is staff restricted to requests
// explicitly assigned to them.
func (u *User) IsPartialAdmin() bool {
	return u.HasRole(RolePartialAccessAdmin) && !u.IsTopTierAdmin()
}

// IsAdmin reports whether the user holds any admin role at all.
func (u *User) IsAdmin() bool {
	return u.IsTopTierAdmin() || u.HasRole(RolePartialAccessAdmin)
}

// Response is the standard JSON envelope for all endpoints.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// models/auth.go
package models

// SignupRequest is the public registration payload. Accounts created this
// way are plain clients; admin accounts are provisioned separately.
type SignupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

// LoginRequest is the credential payload for token issuance.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued tokens plus the authenticated user.
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// ProfileUpdateRequest is the payload proposed through the OTP flow. Either
// the name fields or a new password may be pending, never applied directly.
type ProfileUpdateRequest struct {
	UpdateType  string `json:"updateType" validate:"required,oneof=details password"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	NewPassword string `json:"newPassword,omitempty"`
}

// ConfirmUpdateRequest carries the OTP code for a pending profile mutation.
type ConfirmUpdateRequest struct {
	OTP string `json:"otp" validate:"required"`
}

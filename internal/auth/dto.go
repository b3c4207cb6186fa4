package auth

import (
	"github.com/paytrack/paytrack-backend/internal/users"
	"github.com/paytrack/paytrack-backend/pkg/enums"
)

// RegisterRequest is the account creation payload.
type RegisterRequest struct {
	Username string     `json:"username" validate:"required,min=3,max=50"`
	Email    *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone    string     `json:"phone_number" validate:"required,len=10,numeric"`
	Password string     `json:"password" validate:"required,min=8"`
	Role     enums.Role `json:"role" validate:"required,oneof=Vendor Supplier"`
}

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Phone    string `json:"phone_number" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the access token and the authenticated user.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	ExpiresIn   int            `json:"expires_in"`
	User        *users.UserDTO `json:"user"`
}

package admin

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// LoginRequest carries admin credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

type AdminDTO struct {
	ID          uint       `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Admin       AdminDTO  `json:"admin"`
}

// BootstrapInput describes the initial admin account.
type BootstrapInput struct {
	Username string
	Email    string
	Password string
}

func FromModel(u *models.AdminUser) AdminDTO {
	return AdminDTO{ID: u.ID, Username: u.Username, Email: u.Email, LastLoginAt: u.LastLoginAt}
}

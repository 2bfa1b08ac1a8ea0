package auth

import (
	"strconv"
	"time"
)

// User is an account scoped to one tenant.
type User struct {
	ID           int64
	TenantID     int64
	Email        string
	FullName     string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}

// RegisterOwnerRequest opens a new tenant with its OWNER account. The slug
// identifies the store at login; it is derived from the name when omitted.
type RegisterOwnerRequest struct {
	StoreName string `json:"store_name" validate:"required,max=120"`
	StoreSlug string `json:"store_slug" validate:"omitempty,max=60"`
	Currency  string `json:"currency" validate:"omitempty,len=3"`
	Email     string `json:"email" validate:"required,email"`
	FullName  string `json:"full_name" validate:"required,max=120"`
	Password  string `json:"password" validate:"required,min=8"`
}

// LoginRequest carries credentials for token issuance. Store is the tenant
// slug; it is required only when the email exists in more than one store.
type LoginRequest struct {
	Store    string `json:"store" validate:"omitempty,max=60"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserView is the API-safe projection of a user. Identifiers are serialized
// as strings to avoid precision loss in JSON consumers.
type UserView struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserView  `json:"user"`
}

func viewOf(u *User) UserView {
	return UserView{
		ID:       strconv.FormatInt(u.ID, 10),
		TenantID: strconv.FormatInt(u.TenantID, 10),
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

// Package users manages the staff accounts of a store. Only the OWNER
// reaches these endpoints; the accounts it creates are the MANAGER and
// CASHIER actors the rest of the API authorizes against.
package users

import (
	"errors"
	"strconv"
	"time"
)

// User is a staff account scoped to one tenant.
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

// CreateUserRequest adds a staff account. OWNER accounts only exist through
// registration, so the assignable roles stop at MANAGER.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,max=120"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=MANAGER CASHIER"`
}

// UpdateUserRequest carries mutable staff fields.
type UpdateUserRequest struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=120"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=MANAGER CASHIER"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// UserView is the API-safe projection of a staff account.
type UserView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	// ErrEmailTaken indicates the email is already used in this store.
	ErrEmailTaken = errors.New("email already registered in this store")
	// ErrOwnerImmutable rejects edits to the OWNER account through the
	// staff endpoints.
	ErrOwnerImmutable = errors.New("owner account cannot be modified here")
)

func viewOf(u User) UserView {
	return UserView{
		ID:        strconv.FormatInt(u.ID, 10),
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

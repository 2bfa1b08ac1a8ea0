package shared

import "errors"

var (
	// ErrNotFound indicates the resource does not exist within the caller's
	// tenant. Cross-tenant lookups resolve to this error as well so tenant
	// existence never leaks.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden indicates the actor's role does not permit the operation.
	ErrForbidden = errors.New("forbidden")
)

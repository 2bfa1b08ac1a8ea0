// Package billing enforces per-tenant subscription validity and plan
// limits. Every sales request passes the subscription gate; user and
// product creation are capped by the plan.
package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-pos/meridian/internal/shared"
)

// Subscription statuses.
const (
	StatusTrial     = "TRIAL"
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
)

// Plan describes what a subscription tier allows.
type Plan struct {
	ID           int64
	Name         string
	Price        decimal.Decimal
	DurationDays int
	MaxUsers     int
	MaxProducts  int
	AllowReports bool
}

// Subscription binds a tenant to a plan with a validity window.
type Subscription struct {
	TenantID  int64
	Status    string
	StartDate time.Time
	EndDate   time.Time
	Plan      Plan
}

// The sentinels wrap shared.ErrForbidden so the default HTTP mapping
// resolves them to 403.
var (
	ErrNoSubscription   = fmt.Errorf("%w: subscription not found", shared.ErrForbidden)
	ErrSuspended        = fmt.Errorf("%w: subscription suspended", shared.ErrForbidden)
	ErrExpired          = fmt.Errorf("%w: subscription expired", shared.ErrForbidden)
	ErrUserLimit        = fmt.Errorf("%w: user limit reached for your subscription plan", shared.ErrForbidden)
	ErrProductLimit     = fmt.Errorf("%w: product limit reached for your subscription plan", shared.ErrForbidden)
	ErrReportsNotInPlan = fmt.Errorf("%w: reports are not available on your plan", shared.ErrForbidden)
)

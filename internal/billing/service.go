package billing

import (
	"context"
	"time"
)

// Service answers subscription and plan-limit questions for the rest of
// the application.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs Service. now defaults to time.Now.
func NewService(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}
}

// CheckActive fails when the tenant has no subscription, is suspended, or
// the validity window has passed.
func (s *Service) CheckActive(ctx context.Context, tenantID int64) error {
	sub, err := s.repo.GetSubscription(ctx, tenantID)
	if err != nil {
		return err
	}
	if sub.Status == StatusSuspended {
		return ErrSuspended
	}
	if s.now().After(sub.EndDate) {
		return ErrExpired
	}
	return nil
}

// EnforceUserLimit rejects creating another account once the plan cap is
// reached.
func (s *Service) EnforceUserLimit(ctx context.Context, tenantID int64) error {
	sub, err := s.repo.GetSubscription(ctx, tenantID)
	if err != nil {
		return err
	}
	count, err := s.repo.CountUsers(ctx, tenantID)
	if err != nil {
		return err
	}
	if count >= sub.Plan.MaxUsers {
		return ErrUserLimit
	}
	return nil
}

// EnforceProductLimit rejects creating another active product once the plan
// cap is reached.
func (s *Service) EnforceProductLimit(ctx context.Context, tenantID int64) error {
	sub, err := s.repo.GetSubscription(ctx, tenantID)
	if err != nil {
		return err
	}
	count, err := s.repo.CountActiveProducts(ctx, tenantID)
	if err != nil {
		return err
	}
	if count >= sub.Plan.MaxProducts {
		return ErrProductLimit
	}
	return nil
}

// EnforceReportsAccess rejects report reads on lapsed subscriptions and on
// plans without them.
func (s *Service) EnforceReportsAccess(ctx context.Context, tenantID int64) error {
	if err := s.CheckActive(ctx, tenantID); err != nil {
		return err
	}
	sub, err := s.repo.GetSubscription(ctx, tenantID)
	if err != nil {
		return err
	}
	if !sub.Plan.AllowReports {
		return ErrReportsNotInPlan
	}
	return nil
}

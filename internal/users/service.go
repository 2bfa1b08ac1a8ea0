package users

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-pos/meridian/internal/platform/db"
	"github.com/meridian-pos/meridian/internal/shared"
)

// LimitsPort caps account creation by the tenant's plan. Nil skips the
// check.
type LimitsPort interface {
	EnforceUserLimit(ctx context.Context, tenantID int64) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements staff account management.
type Service struct {
	repo   Repository
	limits LimitsPort
	audit  AuditPort
}

// NewService constructs Service.
func NewService(repo Repository, limits LimitsPort, audit AuditPort) *Service {
	return &Service{repo: repo, limits: limits, audit: audit}
}

// ListUsers returns every account in the actor's store.
func (s *Service) ListUsers(ctx context.Context, tenantID int64) ([]UserView, error) {
	list, err := s.repo.ListUsers(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	views := make([]UserView, 0, len(list))
	for _, u := range list {
		views = append(views, viewOf(u))
	}
	return views, nil
}

// GetUser resolves one account in-tenant.
func (s *Service) GetUser(ctx context.Context, tenantID, id int64) (UserView, error) {
	u, err := s.repo.GetUser(ctx, tenantID, id)
	if err != nil {
		return UserView{}, err
	}
	return viewOf(u), nil
}

// CreateUser adds a MANAGER or CASHIER account, capped by the plan's user
// limit.
func (s *Service) CreateUser(ctx context.Context, actor shared.Actor, req CreateUserRequest) (UserView, error) {
	if s.limits != nil {
		if err := s.limits.EnforceUserLimit(ctx, actor.TenantID); err != nil {
			return UserView{}, err
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserView{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.InsertUser(ctx, User{
		TenantID:     actor.TenantID,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     req.FullName,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return UserView{}, ErrEmailTaken
		}
		return UserView{}, fmt.Errorf("create user: %w", err)
	}

	s.record(ctx, actor, "users:create", created.ID)
	return viewOf(created), nil
}

// UpdateUser applies staff profile changes. The OWNER account is off limits
// so a store can never lock itself out.
func (s *Service) UpdateUser(ctx context.Context, actor shared.Actor, id int64, req UpdateUserRequest) (UserView, error) {
	existing, err := s.repo.GetUser(ctx, actor.TenantID, id)
	if err != nil {
		return UserView{}, err
	}
	if existing.Role == shared.RoleOwner {
		return UserView{}, ErrOwnerImmutable
	}
	if req.FullName != nil {
		existing.FullName = *req.FullName
	}
	if req.Role != nil {
		existing.Role = *req.Role
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateUser(ctx, existing); err != nil {
		return UserView{}, fmt.Errorf("update user: %w", err)
	}

	s.record(ctx, actor, "users:update", id)
	return viewOf(existing), nil
}

func (s *Service) record(ctx context.Context, actor shared.Actor, action string, userID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: actor.TenantID,
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
	})
}

package users

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-pos/meridian/internal/billing"
	"github.com/meridian-pos/meridian/internal/shared"
)

type memoryRepo struct {
	users  map[int64]User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]User), nextID: 1}
}

func (r *memoryRepo) seed(tenantID int64, email, role string, active bool) User {
	u := User{
		ID:        r.nextID,
		TenantID:  tenantID,
		Email:     email,
		FullName:  email,
		Role:      role,
		IsActive:  active,
		CreatedAt: time.Now(),
	}
	r.users[u.ID] = u
	r.nextID++
	return u
}

func (r *memoryRepo) ListUsers(ctx context.Context, tenantID int64) ([]User, error) {
	var list []User
	for id := int64(1); id < r.nextID; id++ {
		if u, ok := r.users[id]; ok && u.TenantID == tenantID {
			list = append(list, u)
		}
	}
	return list, nil
}

func (r *memoryRepo) GetUser(ctx context.Context, tenantID, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok || u.TenantID != tenantID {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (r *memoryRepo) InsertUser(ctx context.Context, u User) (User, error) {
	for _, existing := range r.users {
		if existing.TenantID == u.TenantID && existing.Email == u.Email {
			return User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	r.users[u.ID] = u
	r.nextID++
	return u, nil
}

func (r *memoryRepo) UpdateUser(ctx context.Context, u User) error {
	existing, ok := r.users[u.ID]
	if !ok || existing.TenantID != u.TenantID {
		return shared.ErrNotFound
	}
	r.users[u.ID] = u
	return nil
}

type fixedLimit struct{ err error }

func (f fixedLimit) EnforceUserLimit(ctx context.Context, tenantID int64) error {
	return f.err
}

var owner = shared.Actor{TenantID: 1, UserID: 1, Role: shared.RoleOwner}

func TestCreateUser(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	view, err := svc.CreateUser(context.Background(), owner, CreateUserRequest{
		Email:    "  Cashier@Demo.Test ",
		FullName: "Cashier One",
		Password: "changeme123",
		Role:     shared.RoleCashier,
	})
	require.NoError(t, err)
	require.Equal(t, "cashier@demo.test", view.Email)
	require.Equal(t, shared.RoleCashier, view.Role)
	require.True(t, view.IsActive)

	stored := repo.users[1]
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("changeme123")))
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, "cashier@demo.test", shared.RoleCashier, true)
	svc := NewService(repo, nil, nil)

	_, err := svc.CreateUser(context.Background(), owner, CreateUserRequest{
		Email:    "cashier@demo.test",
		FullName: "Duplicate",
		Password: "changeme123",
		Role:     shared.RoleCashier,
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateUserSameEmailOtherTenant(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(2, "cashier@demo.test", shared.RoleCashier, true)
	svc := NewService(repo, nil, nil)

	_, err := svc.CreateUser(context.Background(), owner, CreateUserRequest{
		Email:    "cashier@demo.test",
		FullName: "Same Email Elsewhere",
		Password: "changeme123",
		Role:     shared.RoleCashier,
	})
	require.NoError(t, err)
}

func TestCreateUserPlanLimit(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, fixedLimit{err: billing.ErrUserLimit}, nil)

	_, err := svc.CreateUser(context.Background(), owner, CreateUserRequest{
		Email:    "cashier@demo.test",
		FullName: "Over Limit",
		Password: "changeme123",
		Role:     shared.RoleCashier,
	})
	require.ErrorIs(t, err, billing.ErrUserLimit)
	require.Empty(t, repo.users)
}

func TestUpdateUser(t *testing.T) {
	repo := newMemoryRepo()
	seeded := repo.seed(1, "cashier@demo.test", shared.RoleCashier, true)
	svc := NewService(repo, nil, nil)

	role := shared.RoleManager
	inactive := false
	view, err := svc.UpdateUser(context.Background(), owner, seeded.ID, UpdateUserRequest{
		Role:     &role,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	require.Equal(t, shared.RoleManager, view.Role)
	require.False(t, view.IsActive)
}

func TestUpdateUserOwnerImmutable(t *testing.T) {
	repo := newMemoryRepo()
	seeded := repo.seed(1, "owner@demo.test", shared.RoleOwner, true)
	svc := NewService(repo, nil, nil)

	role := shared.RoleCashier
	_, err := svc.UpdateUser(context.Background(), owner, seeded.ID, UpdateUserRequest{Role: &role})
	require.ErrorIs(t, err, ErrOwnerImmutable)
}

func TestUpdateUserCrossTenant(t *testing.T) {
	repo := newMemoryRepo()
	seeded := repo.seed(2, "cashier@other.test", shared.RoleCashier, true)
	svc := NewService(repo, nil, nil)

	name := "Hije"
	_, err := svc.UpdateUser(context.Background(), owner, seeded.ID, UpdateUserRequest{FullName: &name})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListUsersTenantScoped(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, "owner@demo.test", shared.RoleOwner, true)
	repo.seed(1, "cashier@demo.test", shared.RoleCashier, true)
	repo.seed(2, "other@store.test", shared.RoleOwner, true)
	svc := NewService(repo, nil, nil)

	views, err := svc.ListUsers(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, views, 2)
}

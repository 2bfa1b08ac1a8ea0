package auth

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian/internal/shared"
)

type memoryRepo struct {
	users        []*User
	tenantSlugs  map[string]int64
	nextUserID   int64
	nextTenantID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{tenantSlugs: make(map[string]int64)}
}

func (r *memoryRepo) FindUsersByEmail(ctx context.Context, email string) ([]*User, error) {
	var found []*User
	for _, u := range r.users {
		if u.Email == email {
			found = append(found, u)
		}
	}
	return found, nil
}

func (r *memoryRepo) FindUserByStoreAndEmail(ctx context.Context, slug, email string) (*User, error) {
	tenantID, ok := r.tenantSlugs[slug]
	if !ok {
		return nil, shared.ErrNotFound
	}
	for _, u := range r.users {
		if u.TenantID == tenantID && u.Email == email {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) FindUserByID(ctx context.Context, tenantID, id int64) (*User, error) {
	for _, u := range r.users {
		if u.ID == id && u.TenantID == tenantID {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) CreateTenantWithOwner(ctx context.Context, storeName, slug, currency string, owner User) (*User, error) {
	if _, taken := r.tenantSlugs[slug]; taken {
		return nil, ErrSlugTaken
	}
	r.nextTenantID++
	tenantID := r.nextTenantID
	for _, u := range r.users {
		if u.TenantID == tenantID && u.Email == owner.Email {
			return nil, &pgconn.PgError{Code: "23505"}
		}
	}
	r.tenantSlugs[slug] = tenantID
	r.nextUserID++
	owner.ID = r.nextUserID
	owner.TenantID = tenantID
	owner.Role = shared.RoleOwner
	owner.IsActive = true
	owner.CreatedAt = time.Now()
	r.users = append(r.users, &owner)
	return &owner, nil
}

func newTestAuthService(repo Repository) *Service {
	return NewService(repo, NewTokenManager("test-secret", time.Hour))
}

func TestRegisterOwnerAndLogin(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestAuthService(repo)
	ctx := context.Background()

	resp, err := svc.RegisterOwner(ctx, RegisterOwnerRequest{
		StoreName: "Corner Cafe",
		Currency:  "eur",
		Email:     "  Owner@Cafe.Test ",
		FullName:  "Pat Owner",
		Password:  "super-secret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, shared.RoleOwner, resp.User.Role)

	// Slug is derived from the store name when none was given.
	require.Contains(t, repo.tenantSlugs, "corner-cafe")

	// Email is normalised before storage, so login is case-insensitive.
	login, err := svc.Login(ctx, LoginRequest{Email: "owner@cafe.test", Password: "super-secret"})
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegisterOwnerDuplicateSlug(t *testing.T) {
	svc := newTestAuthService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.RegisterOwner(ctx, RegisterOwnerRequest{
		StoreName: "Corner Cafe",
		Email:     "owner@cafe.test",
		FullName:  "Pat Owner",
		Password:  "super-secret",
	})
	require.NoError(t, err)

	_, err = svc.RegisterOwner(ctx, RegisterOwnerRequest{
		StoreName: "Corner CAFE",
		Email:     "other@cafe.test",
		FullName:  "Other Owner",
		Password:  "super-secret",
	})
	require.ErrorIs(t, err, ErrSlugTaken)
}

func TestRegisterOwnerSameEmailDifferentStores(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestAuthService(repo)
	ctx := context.Background()

	first, err := svc.RegisterOwner(ctx, RegisterOwnerRequest{
		StoreName: "Corner Cafe",
		Email:     "owner@cafe.test",
		FullName:  "Pat Owner",
		Password:  "super-secret",
	})
	require.NoError(t, err)

	second, err := svc.RegisterOwner(ctx, RegisterOwnerRequest{
		StoreName: "Harbor Cafe",
		Email:     "owner@cafe.test",
		FullName:  "Pat Owner",
		Password:  "super-secret",
	})
	require.NoError(t, err)
	require.NotEqual(t, first.User.ID, second.User.ID)

	// Ambiguous without a store slug.
	_, err = svc.Login(ctx, LoginRequest{Email: "owner@cafe.test", Password: "super-secret"})
	require.ErrorIs(t, err, ErrStoreRequired)

	// Naming the store resolves the account.
	login, err := svc.Login(ctx, LoginRequest{Email: "owner@cafe.test", Password: "super-secret", Store: "harbor-cafe"})
	require.NoError(t, err)
	require.Equal(t, second.User.ID, login.User.ID)
}

func TestLoginWrongStoreSlug(t *testing.T) {
	svc := newTestAuthService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.RegisterOwner(ctx, RegisterOwnerRequest{
		StoreName: "Corner Cafe",
		Email:     "owner@cafe.test",
		FullName:  "Pat Owner",
		Password:  "super-secret",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "owner@cafe.test", Password: "super-secret", Store: "ghost-cafe"})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.RegisterOwner(ctx, RegisterOwnerRequest{
		StoreName: "Corner Cafe",
		Email:     "owner@cafe.test",
		FullName:  "Pat Owner",
		Password:  "super-secret",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "owner@cafe.test", Password: "wrong"})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newTestAuthService(newMemoryRepo())
	_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@cafe.test", Password: "irrelevant"})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginInactiveUser(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestAuthService(repo)
	ctx := context.Background()

	_, err := svc.RegisterOwner(ctx, RegisterOwnerRequest{
		StoreName: "Corner Cafe",
		Email:     "owner@cafe.test",
		FullName:  "Pat Owner",
		Password:  "super-secret",
	})
	require.NoError(t, err)

	repo.users[0].IsActive = false
	_, err = svc.Login(ctx, LoginRequest{Email: "owner@cafe.test", Password: "super-secret"})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "corner-cafe", Slugify("  Corner Cafe "))
	require.Equal(t, "la-bodega-23", Slugify("La Bodega #23!"))
	require.Equal(t, "", Slugify("¡¡¡"))
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-pos/meridian/internal/platform/db"
	"github.com/meridian-pos/meridian/internal/platform/httpx"
	"github.com/meridian-pos/meridian/internal/shared"
)

var (
	// ErrEmailTaken indicates the email is already registered in the store.
	ErrEmailTaken = errors.New("email already registered in this store")
	// ErrSlugTaken indicates another store claimed the slug.
	ErrSlugTaken = errors.New("store slug already exists")
	// ErrStoreRequired indicates the email resolves to accounts in several
	// stores and the login must name one.
	ErrStoreRequired = errors.New("email exists in multiple stores, specify the store slug")
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenManager
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// RegisterOwner opens a tenant and issues a token for its owner.
func (s *Service) RegisterOwner(ctx context.Context, req RegisterOwnerRequest) (*AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "USD"
	}
	slug := Slugify(req.StoreSlug)
	if slug == "" {
		slug = Slugify(req.StoreName)
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: store slug cannot be derived", httpx.ErrValidation)
	}

	user, err := s.repo.CreateTenantWithOwner(ctx, req.StoreName, slug, currency, User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     req.FullName,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return nil, ErrSlugTaken
		}
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create tenant owner: %w", err)
	}

	return s.respond(user)
}

// Login validates credentials and issues a token. Without a store slug the
// email must resolve to exactly one account; otherwise the caller is asked
// to name the store.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user *User
	if slug := Slugify(req.Store); slug != "" {
		found, err := s.repo.FindUserByStoreAndEmail(ctx, slug, email)
		if err != nil {
			return nil, shared.ErrInvalidCredentials
		}
		user = found
	} else {
		candidates, err := s.repo.FindUsersByEmail(ctx, email)
		if err != nil {
			return nil, shared.ErrInvalidCredentials
		}
		active := candidates[:0]
		for _, c := range candidates {
			if c.IsActive {
				active = append(active, c)
			}
		}
		switch len(active) {
		case 0:
			return nil, shared.ErrInvalidCredentials
		case 1:
			user = active[0]
		default:
			return nil, ErrStoreRequired
		}
	}

	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return s.respond(user)
}

// Slugify normalizes a store identifier: lowercase, alphanumerics with
// single hyphens between words.
func Slugify(raw string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Me resolves the profile view of the current actor.
func (s *Service) Me(ctx context.Context, actor shared.Actor) (*UserView, error) {
	user, err := s.repo.FindUserByID(ctx, actor.TenantID, actor.UserID)
	if err != nil {
		return nil, err
	}
	view := viewOf(user)
	return &view, nil
}

func (s *Service) respond(user *User) (*AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(shared.Actor{
		TenantID: user.TenantID,
		UserID:   user.ID,
		Role:     user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResponse{Token: token, ExpiresAt: expiresAt, User: viewOf(user)}, nil
}

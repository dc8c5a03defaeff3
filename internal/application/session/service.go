package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-api-ledger/internal/domain"
	jwtinfra "github.com/go-api-ledger/internal/infrastructure/jwt"
	"github.com/go-api-ledger/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgBadCredentials   = "Invalid email or password"
	msgRefreshInvalid   = "Invalid refresh token"
	msgRefreshWrongType = "Invalid token type"
)

// LoginResult is returned on successful login. ExpiresIn is the access token
// lifetime in seconds.
type LoginResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type RefreshResult struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type Service interface {
	Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error)
	// Logout revokes every refresh token of the user and reports how many.
	Logout(ctx context.Context, userID string) (int, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type tokenIssuer interface {
	IssueAccessToken(userID, role string) (string, error)
	IssueRefreshToken(userID string) (string, time.Time, error)
	Verify(token string) (*jwtinfra.Claims, error)
	AccessExpiry() time.Duration
}

type tokenRegistry interface {
	Register(ctx context.Context, token, userID string, expiresAt time.Time) error
	IsActive(ctx context.Context, token string) (*domain.RefreshToken, error)
	RevokeAllForUser(ctx context.Context, userID string) (int, error)
}

type service struct {
	users    userStore
	tokens   tokenIssuer
	registry tokenRegistry
}

type ServiceDeps struct {
	UserRepo    userStore
	JWTProvider tokenIssuer
	Registry    tokenRegistry
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:    deps.UserRepo,
		tokens:   deps.JWTProvider,
		registry: deps.Registry,
	}
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Unauthorized(msgBadCredentials)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.Unauthorized(msgBadCredentials)
	}

	access, err := s.tokens.IssueAccessToken(u.UserID, roleOf(u))
	if err != nil {
		return nil, err
	}
	refresh, expiresAt, err := s.tokens.IssueRefreshToken(u.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Register(ctx, refresh, u.UserID, expiresAt); err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessExpiry().Seconds()),
	}, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, domain.Validation("refreshToken is required")
	}
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		if errors.Is(err, jwtinfra.ErrTokenExpired) {
			return nil, domain.Unauthorized(msgRefreshExpired)
		}
		return nil, domain.Unauthorized(msgRefreshInvalid)
	}
	if !claims.IsRefresh() {
		return nil, domain.Unauthorized(msgRefreshWrongType)
	}
	entry, err := s.registry.IsActive(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if entry.UserID != claims.UserID {
		return nil, domain.Unauthorized(msgRefreshInvalid)
	}

	role := domain.RoleCustomer
	u, err := s.users.Get(ctx, claims.UserID)
	switch {
	case err == nil:
		role = roleOf(u)
	case errors.Is(err, domain.ErrNotFound):
		slog.Warn("refresh for unknown user, using default role", "user_id", claims.UserID)
	default:
		return nil, err
	}

	access, err := s.tokens.IssueAccessToken(claims.UserID, role)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{AccessToken: access, ExpiresIn: int64(s.tokens.AccessExpiry().Seconds())}, nil
}

func (s *service) Logout(ctx context.Context, userID string) (int, error) {
	n, err := s.registry.RevokeAllForUser(ctx, userID)
	if err != nil {
		return n, err
	}
	slog.Info("user logged out", "user_id", userID, "revoked_tokens", n)
	return n, nil
}

func roleOf(u *domain.User) string {
	if u.Role == "" {
		return domain.RoleCustomer
	}
	return u.Role
}

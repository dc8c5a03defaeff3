package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-api-ledger/internal/domain"
)

const (
	msgRefreshExpired = "Refresh token has expired"
	msgRefreshRevoked = "Refresh token has been revoked"
)

type refreshTokenStore interface {
	Put(ctx context.Context, t *domain.RefreshToken) error
	Get(ctx context.Context, token string) (*domain.RefreshToken, error)
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

// Registry tracks which refresh tokens are live. A token absent from the
// registry is revoked whatever its signature says.
type Registry struct {
	store refreshTokenStore
	now   func() time.Time
}

func NewRegistry(store refreshTokenStore) *Registry {
	return &Registry{store: store, now: time.Now}
}

func (r *Registry) Register(ctx context.Context, token, userID string, expiresAt time.Time) error {
	return r.store.Put(ctx, &domain.RefreshToken{
		Token:     token,
		UserID:    userID,
		CreatedAt: r.now().UTC(),
		ExpiresAt: expiresAt.Unix(),
	})
}

// IsActive returns the registry entry for a live token. An entry found past
// its expiry is deleted before failing.
func (r *Registry) IsActive(ctx context.Context, token string) (*domain.RefreshToken, error) {
	entry, err := r.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Unauthorized(msgRefreshRevoked)
		}
		return nil, err
	}
	if entry.Expired(r.now()) {
		if err := r.store.Delete(ctx, token); err != nil {
			slog.Warn("could not delete expired refresh token", "user_id", entry.UserID, "err", err)
		}
		return nil, domain.Unauthorized(msgRefreshExpired)
	}
	return entry, nil
}

func (r *Registry) Revoke(ctx context.Context, token string) error {
	return r.store.Delete(ctx, token)
}

// RevokeAllForUser deletes every refresh token issued to userID.
func (r *Registry) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	return r.store.DeleteByUser(ctx, userID)
}

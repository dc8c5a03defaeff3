package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-api-ledger/internal/domain"
	"github.com/go-api-ledger/internal/pkg/id"
	"github.com/go-api-ledger/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

const msgUserExists = "User already exists"

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
}

type service struct {
	repo     userStore
	hashCost int
	now      func() time.Time
}

type ServiceDeps struct {
	UserRepo userStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.UserRepo,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// Register creates a customer account holder. Emails are stored lower-cased
// and must be unique.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	_, err := s.repo.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, domain.Conflict(msgUserExists)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		UserID:       id.UUID(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Put(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Conflict(msgUserExists)
		}
		return nil, err
	}
	return u, nil
}

package user

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-api-ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func newSvc(repo *mockUserStore) Service {
	svc := NewService(ServiceDeps{UserRepo: repo})
	svc.(*service).hashCost = bcrypt.MinCost
	return svc
}

var notFound = fmt.Errorf("user not found: %w", domain.ErrNotFound)

// --- Register ---

func TestRegister_Success(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("GetByEmail", mock.Anything, "bob@example.com").Return(nil, notFound)
	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	u, err := newSvc(repo).Register(context.Background(), domain.RegisterRequest{Email: " Bob@Example.COM ", Password: "hunter2hunter2"})

	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", u.Email)
	assert.Equal(t, domain.RoleCustomer, u.Role)
	_, err = uuid.Parse(u.UserID)
	assert.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("hunter2hunter2")))
	repo.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("GetByEmail", mock.Anything, "bob@example.com").Return(&domain.User{UserID: "u1"}, nil)

	_, err := newSvc(repo).Register(context.Background(), domain.RegisterRequest{Email: "bob@example.com", Password: "hunter2hunter2"})

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "User already exists", err.Error())
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_Validation(t *testing.T) {
	cases := []struct {
		name string
		req  domain.RegisterRequest
	}{
		{"bad email", domain.RegisterRequest{Email: "not-an-email", Password: "hunter2hunter2"}},
		{"short password", domain.RegisterRequest{Email: "bob@example.com", Password: "short"}},
		{"missing password", domain.RegisterRequest{Email: "bob@example.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockUserStore{}
			_, err := newSvc(repo).Register(context.Background(), tc.req)
			assert.ErrorIs(t, err, domain.ErrValidation)
			repo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
		})
	}
}

func TestRegister_LookupFailurePropagates(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	_, err := newSvc(repo).Register(context.Background(), domain.RegisterRequest{Email: "bob@example.com", Password: "hunter2hunter2"})

	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_PutConflictMapped(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, notFound)
	repo.On("Put", mock.Anything, mock.Anything).Return(fmt.Errorf("user x: %w", domain.ErrConflict))

	_, err := newSvc(repo).Register(context.Background(), domain.RegisterRequest{Email: "bob@example.com", Password: "hunter2hunter2"})

	assert.ErrorIs(t, err, domain.ErrConflict)
}

package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-api-ledger/internal/domain"
	"github.com/go-api-ledger/internal/pkg/validate"
)

// Service is the caller-facing account API. Every operation on an existing
// account passes the ownership guard first; only Transfer's destination is
// exempt.
type Service interface {
	Create(ctx context.Context, userID string, req domain.CreateAccountRequest) (*domain.Account, error)
	List(ctx context.Context, userID string) ([]domain.Account, error)
	Get(ctx context.Context, userID, accountID string) (*domain.Account, error)
	Balance(ctx context.Context, userID, accountID string) (int64, error)
	Transactions(ctx context.Context, userID, accountID string) ([]domain.Transaction, error)
	Deposit(ctx context.Context, userID, accountID string, amount int64) (*domain.Transaction, error)
	Withdraw(ctx context.Context, userID, accountID string, amount int64) (*domain.Transaction, error)
	Transfer(ctx context.Context, userID, fromID, toID string, amount int64) (*domain.Transaction, error)
}

type accountStore interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Account, error)
	Create(ctx context.Context, a *domain.Account, opening *domain.Transaction) error
}

type transactionLog interface {
	ListByAccount(ctx context.Context, accountID string) ([]domain.Transaction, error)
}

type ownershipGuard interface {
	AssertOwnership(ctx context.Context, accountID, callerUserID string) (*domain.Account, error)
}

type ledgerEngine interface {
	Deposit(ctx context.Context, accountID string, amount int64) (*domain.Transaction, error)
	Withdraw(ctx context.Context, accountID string, amount int64) (*domain.Transaction, error)
	Transfer(ctx context.Context, fromID, toID string, amount int64) (*domain.Transaction, error)
}

type service struct {
	accounts accountStore
	log      transactionLog
	guard    ownershipGuard
	ledger   ledgerEngine
	now      func() time.Time
}

type ServiceDeps struct {
	AccountRepo     accountStore
	TransactionRepo transactionLog
	Guard           ownershipGuard
	Ledger          ledgerEngine
}

func NewService(deps ServiceDeps) Service {
	return &service{
		accounts: deps.AccountRepo,
		log:      deps.TransactionRepo,
		guard:    deps.Guard,
		ledger:   deps.Ledger,
		now:      time.Now,
	}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateAccountRequest) (*domain.Account, error) {
	req.AccountID = strings.TrimSpace(req.AccountID)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	acc := &domain.Account{
		AccountID:    req.AccountID,
		UserID:       userID,
		CustomerName: req.CustomerName,
		Balance:      req.InitialBalance,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	var opening *domain.Transaction
	if req.InitialBalance > 0 {
		opening = &domain.Transaction{
			AccountID:  acc.AccountID,
			Timestamp:  now.UnixMilli(),
			Amount:     req.InitialBalance,
			Type:       domain.TxInitialDeposit,
			NewBalance: req.InitialBalance,
		}
	}
	if err := s.accounts.Create(ctx, acc, opening); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Conflict("Account already exists")
		}
		return nil, err
	}
	return acc, nil
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Account, error) {
	return s.accounts.ListByUser(ctx, userID)
}

func (s *service) Get(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	return s.guard.AssertOwnership(ctx, accountID, userID)
}

func (s *service) Balance(ctx context.Context, userID, accountID string) (int64, error) {
	acc, err := s.guard.AssertOwnership(ctx, accountID, userID)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

func (s *service) Transactions(ctx context.Context, userID, accountID string) ([]domain.Transaction, error) {
	if _, err := s.guard.AssertOwnership(ctx, accountID, userID); err != nil {
		return nil, err
	}
	return s.log.ListByAccount(ctx, accountID)
}

func (s *service) Deposit(ctx context.Context, userID, accountID string, amount int64) (*domain.Transaction, error) {
	if _, err := s.guard.AssertOwnership(ctx, accountID, userID); err != nil {
		return nil, err
	}
	return s.ledger.Deposit(ctx, accountID, amount)
}

func (s *service) Withdraw(ctx context.Context, userID, accountID string, amount int64) (*domain.Transaction, error) {
	if _, err := s.guard.AssertOwnership(ctx, accountID, userID); err != nil {
		return nil, err
	}
	return s.ledger.Withdraw(ctx, accountID, amount)
}

func (s *service) Transfer(ctx context.Context, userID, fromID, toID string, amount int64) (*domain.Transaction, error) {
	toID = strings.TrimSpace(toID)
	if toID == "" {
		return nil, domain.Validation("toAccountId is required")
	}
	if _, err := s.guard.AssertOwnership(ctx, fromID, userID); err != nil {
		return nil, err
	}
	return s.ledger.Transfer(ctx, fromID, toID, amount)
}

// Package ownership enforces that a caller may only touch accounts they own.
package ownership

import (
	"context"
	"errors"

	"github.com/go-api-ledger/internal/domain"
)

// DeniedMessage is shared by "no such account" and "not your account" so the
// response does not reveal which accounts exist.
const DeniedMessage = "Account not found or access denied"

type accountReader interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
}

type Guard struct {
	accounts accountReader
}

func NewGuard(accounts accountReader) *Guard {
	return &Guard{accounts: accounts}
}

// AssertOwnership returns the account when callerUserID owns it.
func (g *Guard) AssertOwnership(ctx context.Context, accountID, callerUserID string) (*domain.Account, error) {
	acc, err := g.accounts.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Forbidden(DeniedMessage)
		}
		return nil, err
	}
	if acc.UserID != callerUserID {
		return nil, domain.Forbidden(DeniedMessage)
	}
	return acc, nil
}

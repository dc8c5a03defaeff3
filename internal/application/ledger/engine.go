// Package ledger applies balance changes under optimistic concurrency.
//
// Every posting reads the account, computes the new balance and submits a
// conditional write that only lands if the stored balance is still the one
// that was read. The ledger row is part of the same write. When another
// writer got there first the whole cycle restarts from a fresh read, with
// jittered exponential backoff, up to a bounded number of attempts.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-api-ledger/internal/domain"
	"github.com/go-api-ledger/internal/pkg/id"
	"github.com/sethvargo/go-retry"
)

const (
	msgAmountNotPositive = "Amount must be greater than zero"
	msgInsufficientFunds = "Insufficient funds"
	msgSameAccount       = "Cannot transfer to the same account"
	msgDestinationAbsent = "Destination account not found"
	msgBalanceOverflow   = "Resulting balance exceeds the supported maximum"
	msgConcurrentUpdate  = "Account is being modified concurrently; please retry"
)

type accountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	Post(ctx context.Context, expected int64, entry *domain.Transaction) error
}

type entryReader interface {
	Get(ctx context.Context, accountID string, timestamp int64) (*domain.Transaction, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, ev *domain.LedgerEvent) error
}

type reconciler interface {
	Record(ctx context.Context, rec *domain.Reconciliation) (string, error)
}

// Options bound the retry loop. Zero values fall back to defaults.
type Options struct {
	MaxAttempts    int
	CreditAttempts int
	BaseDelay      time.Duration
	CreditTimeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.CreditAttempts <= 0 {
		o.CreditAttempts = 10
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 25 * time.Millisecond
	}
	if o.CreditTimeout <= 0 {
		o.CreditTimeout = 10 * time.Second
	}
	return o
}

// Deps wires the engine. Events and Reconciler are optional.
type Deps struct {
	Accounts   accountStore
	Entries    entryReader
	Events     eventPublisher
	Reconciler reconciler
	Options    Options
}

type Engine struct {
	accounts accountStore
	entries  entryReader
	events   eventPublisher
	recon    reconciler
	opts     Options
	now      func() time.Time
	newID    func() string
}

func NewEngine(deps Deps) *Engine {
	return &Engine{
		accounts: deps.Accounts,
		entries:  deps.Entries,
		events:   deps.Events,
		recon:    deps.Reconciler,
		opts:     deps.Options.withDefaults(),
		now:      time.Now,
		newID:    id.New,
	}
}

// Deposit credits amount to the account and returns the posted row.
func (e *Engine) Deposit(ctx context.Context, accountID string, amount int64) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, domain.Validation(msgAmountNotPositive)
	}
	tx, err := e.post(ctx, posting{
		accountID: accountID,
		attempts:  e.opts.MaxAttempts,
		build: func(acc *domain.Account, ts int64) (*domain.Transaction, error) {
			next, ok := addBalance(acc.Balance, amount)
			if !ok {
				return nil, domain.Validation(msgBalanceOverflow)
			}
			return &domain.Transaction{
				AccountID:  acc.AccountID,
				Timestamp:  ts,
				Amount:     amount,
				Type:       domain.TxDeposit,
				NewBalance: next,
			}, nil
		},
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, &domain.LedgerEvent{Type: domain.EventDeposit, AccountID: accountID, Amount: amount, NewBalance: tx.NewBalance})
	return tx, nil
}

// Withdraw debits amount. The balance is never allowed below zero.
func (e *Engine) Withdraw(ctx context.Context, accountID string, amount int64) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, domain.Validation(msgAmountNotPositive)
	}
	tx, err := e.post(ctx, posting{
		accountID: accountID,
		attempts:  e.opts.MaxAttempts,
		build: func(acc *domain.Account, ts int64) (*domain.Transaction, error) {
			if acc.Balance < amount {
				return nil, domain.Validation(msgInsufficientFunds)
			}
			return &domain.Transaction{
				AccountID:  acc.AccountID,
				Timestamp:  ts,
				Amount:     -amount,
				Type:       domain.TxWithdrawal,
				NewBalance: acc.Balance - amount,
			}, nil
		},
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, &domain.LedgerEvent{Type: domain.EventWithdrawal, AccountID: accountID, Amount: -amount, NewBalance: tx.NewBalance})
	return tx, nil
}

// Transfer moves amount from fromID to toID and returns the debit row.
//
// The debit commits first. The credit then runs detached from the caller's
// cancellation with its own attempt budget. If the credit still cannot be
// applied the transfer is recorded for reconciliation and an Internal error
// naming the transfer id is returned; success is never reported for a
// half-applied transfer.
//
// The credit row takes the debit row's timestamp. When the destination
// already has a row at that timestamp the credit moves 1 ms later, so the two
// legs no longer share a timestamp. Both rows always carry the same
// TransferID.
func (e *Engine) Transfer(ctx context.Context, fromID, toID string, amount int64) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, domain.Validation(msgAmountNotPositive)
	}
	if fromID == toID {
		return nil, domain.Validation(msgSameAccount)
	}
	dest, err := e.accounts.Get(ctx, toID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(msgDestinationAbsent)
		}
		return nil, err
	}
	if _, ok := addBalance(dest.Balance, amount); !ok {
		return nil, domain.Validation(msgBalanceOverflow)
	}

	transferID := e.newID()
	debit, err := e.post(ctx, posting{
		accountID: fromID,
		attempts:  e.opts.MaxAttempts,
		build: func(acc *domain.Account, ts int64) (*domain.Transaction, error) {
			if acc.Balance < amount {
				return nil, domain.Validation(msgInsufficientFunds)
			}
			return &domain.Transaction{
				AccountID:   acc.AccountID,
				Timestamp:   ts,
				Amount:      -amount,
				Type:        domain.TxTransferOut,
				NewBalance:  acc.Balance - amount,
				ToAccountID: toID,
				TransferID:  transferID,
			}, nil
		},
	})
	if err != nil {
		return nil, err
	}

	creditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.opts.CreditTimeout)
	defer cancel()
	credit, err := e.post(creditCtx, posting{
		accountID:  toID,
		attempts:   e.opts.CreditAttempts,
		floor:      debit.Timestamp,
		pinned:     true,
		transferID: transferID,
		build: func(acc *domain.Account, ts int64) (*domain.Transaction, error) {
			next, ok := addBalance(acc.Balance, amount)
			if !ok {
				return nil, domain.Validation(msgBalanceOverflow)
			}
			return &domain.Transaction{
				AccountID:     acc.AccountID,
				Timestamp:     ts,
				Amount:        amount,
				Type:          domain.TxTransferIn,
				NewBalance:    next,
				FromAccountID: fromID,
				TransferID:    transferID,
			}, nil
		},
	})
	if err != nil {
		e.flagIncomplete(ctx, debit, toID, amount, err)
		return nil, domain.Internal(fmt.Sprintf(
			"Transfer %s debited the source account but the destination could not be credited; it has been flagged for reconciliation",
			transferID))
	}

	e.publish(ctx, &domain.LedgerEvent{
		Type:        domain.EventTransfer,
		AccountID:   fromID,
		ToAccountID: toID,
		TransferID:  transferID,
		Amount:      amount,
		NewBalance:  debit.NewBalance,
	})
	slog.Debug("transfer applied", "transfer_id", transferID, "credit_ts", credit.Timestamp)
	return debit, nil
}

type posting struct {
	accountID string
	attempts  int
	build     func(acc *domain.Account, ts int64) (*domain.Transaction, error)

	// floor is the lowest timestamp the row may take. With pinned the row takes
	// exactly floor, bumped by one on every key collision.
	floor  int64
	pinned bool

	// transferID marks a credit leg. Failures of unknown outcome are retried
	// and, before each retry, rows written by earlier attempts are looked up so
	// a credit that did land is not applied twice.
	transferID string
}

func (e *Engine) post(ctx context.Context, p posting) (*domain.Transaction, error) {
	var (
		posted  *domain.Transaction
		floor   = p.floor
		unknown []int64
	)
	err := retry.Do(ctx, e.backoff(p.attempts), func(ctx context.Context) error {
		landed, err := e.findLanded(ctx, p, unknown)
		if err != nil {
			return retry.RetryableError(err)
		}
		if landed != nil {
			posted = landed
			return nil
		}

		acc, err := e.accounts.Get(ctx, p.accountID)
		if err != nil {
			if p.transferID != "" && domain.KindOf(err) == domain.KindInternal {
				return retry.RetryableError(err)
			}
			return err
		}
		ts := floor
		if !p.pinned {
			ts = max(e.now().UnixMilli(), floor)
		}
		entry, err := p.build(acc, ts)
		if err != nil {
			return err
		}

		err = e.accounts.Post(ctx, acc.Balance, entry)
		switch {
		case err == nil:
			posted = entry
			return nil
		case errors.Is(err, domain.ErrDuplicateEntry):
			own, lerr := e.ownRow(ctx, p, ts)
			if lerr != nil {
				return retry.RetryableError(lerr)
			}
			if own != nil {
				posted = own
				return nil
			}
			floor = ts + 1
			return retry.RetryableError(err)
		case errors.Is(err, domain.ErrStaleBalance):
			return retry.RetryableError(err)
		case p.transferID != "" && e.entries != nil && domain.KindOf(err) == domain.KindInternal:
			unknown = append(unknown, ts)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrStaleBalance) || errors.Is(err, domain.ErrDuplicateEntry) {
			slog.Warn("ledger posting gave up after concurrent updates",
				"account_id", p.accountID, "attempts", p.attempts)
			return nil, domain.Conflict(msgConcurrentUpdate)
		}
		return nil, err
	}
	return posted, nil
}

// findLanded returns the credit row an earlier attempt of unknown outcome
// wrote, if any. A failed lookup is returned so the caller does not post
// again without knowing.
func (e *Engine) findLanded(ctx context.Context, p posting, candidates []int64) (*domain.Transaction, error) {
	for _, ts := range candidates {
		tx, err := e.ownRow(ctx, p, ts)
		if err != nil || tx != nil {
			return tx, err
		}
	}
	return nil, nil
}

// ownRow returns the row at ts when it belongs to this credit leg. It returns
// nil, nil for postings that are not credit legs and for rows written by
// someone else.
func (e *Engine) ownRow(ctx context.Context, p posting, ts int64) (*domain.Transaction, error) {
	if p.transferID == "" || e.entries == nil {
		return nil, nil
	}
	tx, err := e.entries.Get(ctx, p.accountID, ts)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("look up %s@%d: %w", p.accountID, ts, err)
	case tx.TransferID == p.transferID:
		return tx, nil
	}
	return nil, nil
}

func (e *Engine) backoff(attempts int) retry.Backoff {
	if attempts < 1 {
		attempts = 1
	}
	b := retry.NewExponential(e.opts.BaseDelay)
	b = retry.WithJitter(e.opts.BaseDelay, b)
	b = retry.WithCappedDuration(2*time.Second, b)
	return retry.WithMaxRetries(uint64(attempts-1), b)
}

func (e *Engine) flagIncomplete(ctx context.Context, debit *domain.Transaction, toID string, amount int64, cause error) {
	ctx = context.WithoutCancel(ctx)
	slog.Error("transfer credit leg failed, reconciliation required",
		"transfer_id", debit.TransferID,
		"from_account_id", debit.AccountID,
		"to_account_id", toID,
		"amount", amount,
		"err", cause)

	now := e.now().UTC()
	if e.recon != nil {
		rec := &domain.Reconciliation{
			TransferID:    debit.TransferID,
			FromAccountID: debit.AccountID,
			ToAccountID:   toID,
			Amount:        amount,
			DebitedAt:     debit.Timestamp,
			Cause:         cause.Error(),
			RecordedAt:    now,
		}
		if loc, err := e.recon.Record(ctx, rec); err != nil {
			slog.Error("could not record reconciliation", "transfer_id", debit.TransferID, "err", err)
		} else {
			slog.Info("reconciliation recorded", "transfer_id", debit.TransferID, "location", loc)
		}
	}
	e.publish(ctx, &domain.LedgerEvent{
		Type:        domain.EventTransferIncomplete,
		AccountID:   debit.AccountID,
		ToAccountID: toID,
		TransferID:  debit.TransferID,
		Amount:      amount,
		NewBalance:  debit.NewBalance,
		OccurredAt:  now,
	})
}

// publish is best-effort: a failed publish is logged, never surfaced.
func (e *Engine) publish(ctx context.Context, ev *domain.LedgerEvent) {
	if e.events == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = e.now().UTC()
	}
	if err := e.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		slog.Warn("could not publish ledger event", "type", ev.Type, "account_id", ev.AccountID, "err", err)
	}
}

func addBalance(balance, amount int64) (int64, bool) {
	if amount > 0 && balance > math.MaxInt64-amount {
		return 0, false
	}
	return balance + amount, true
}

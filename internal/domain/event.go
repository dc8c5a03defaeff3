package domain

import "time"

const (
	EventDeposit            = "deposit"
	EventWithdrawal         = "withdrawal"
	EventTransfer           = "transfer"
	EventTransferIncomplete = "transfer.incomplete"
)

// LedgerEvent is published after a posting commits, or as an alert when a
// transfer leaves its credit leg unapplied.
type LedgerEvent struct {
	Type        string    `json:"type"`
	AccountID   string    `json:"accountId"`
	ToAccountID string    `json:"toAccountId,omitempty"`
	TransferID  string    `json:"transferId,omitempty"`
	Amount      int64     `json:"amount"`
	NewBalance  int64     `json:"newBalance"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Reconciliation describes a transfer whose debit committed but whose credit
// did not. An operator settles it by hand.
type Reconciliation struct {
	TransferID    string    `json:"transferId"`
	FromAccountID string    `json:"fromAccountId"`
	ToAccountID   string    `json:"toAccountId"`
	Amount        int64     `json:"amount"`
	DebitedAt     int64     `json:"debitedAt"`
	Cause         string    `json:"cause"`
	RecordedAt    time.Time `json:"recordedAt"`
}

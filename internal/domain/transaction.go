package domain

type TransactionType string

const (
	TxInitialDeposit TransactionType = "initial_deposit"
	TxDeposit        TransactionType = "deposit"
	TxWithdrawal     TransactionType = "withdrawal"
	TxTransferOut    TransactionType = "transfer_out"
	TxTransferIn     TransactionType = "transfer_in"
)

// Transaction is one immutable ledger row, keyed by (AccountID, Timestamp).
// Amount is signed: debits are negative. NewBalance is the account balance
// immediately after this row was applied.
type Transaction struct {
	AccountID     string          `json:"accountId" dynamodbav:"account_id"`
	Timestamp     int64           `json:"timestamp" dynamodbav:"timestamp"`
	Amount        int64           `json:"amount" dynamodbav:"amount"`
	Type          TransactionType `json:"type" dynamodbav:"type"`
	NewBalance    int64           `json:"newBalance" dynamodbav:"new_balance"`
	ToAccountID   string          `json:"toAccountId,omitempty" dynamodbav:"to_account_id,omitempty"`
	FromAccountID string          `json:"fromAccountId,omitempty" dynamodbav:"from_account_id,omitempty"`
	TransferID    string          `json:"transferId,omitempty" dynamodbav:"transfer_id,omitempty"`
}

package domain

import "time"

// Account balances are integer minor units (cents).
type Account struct {
	AccountID    string    `json:"accountId" dynamodbav:"account_id"`
	UserID       string    `json:"userId" dynamodbav:"user_id"`
	CustomerName string    `json:"customerName" dynamodbav:"customer_name"`
	Balance      int64     `json:"balance" dynamodbav:"balance"`
	CreatedAt    time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

type CreateAccountRequest struct {
	AccountID      string `json:"accountId" validate:"required,max=64"`
	CustomerName   string `json:"customerName" validate:"required,max=128"`
	InitialBalance int64  `json:"initialBalance" validate:"gte=0"`
}

type AmountRequest struct {
	Amount int64 `json:"amount"`
}

type TransferRequest struct {
	ToAccountID string `json:"toAccountId" validate:"required"`
	Amount      int64  `json:"amount"`
}

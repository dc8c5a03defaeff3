package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/go-api-ledger/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RegisterEnvelope is returned by POST /auth/register.
type RegisterEnvelope struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type AccountEnvelope struct {
	Message string          `json:"message"`
	Account *domain.Account `json:"account"`
}

type AccountListEnvelope struct {
	Accounts []domain.Account `json:"accounts"`
	Count    int              `json:"count"`
}

type BalanceEnvelope struct {
	AccountID string `json:"accountId"`
	Balance   int64  `json:"balance"`
}

type TransactionsEnvelope struct {
	Transactions []domain.Transaction `json:"transactions"`
	Count        int                  `json:"count"`
}

// PostingEnvelope answers deposit, withdraw and transfer. NewBalance is the
// caller's account balance after the posting.
type PostingEnvelope struct {
	Message    string `json:"message"`
	NewBalance int64  `json:"newBalance"`
	TransferID string `json:"transferId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// decodeBody reads a JSON request body into dst. Type mismatches, such as a
// fractional amount, are reported per field.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return domain.Validation("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			if typeErr.Type != nil && typeErr.Type.Kind() == reflect.Int64 {
				return domain.Validation(fmt.Sprintf("%s must be an integer amount in minor units", typeErr.Field))
			}
			return domain.Validation(fmt.Sprintf("%s has the wrong type", typeErr.Field))
		}
		return domain.Validation("invalid request body")
	}
	return nil
}

package validate

import (
	"testing"

	"github.com/go-api-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(domain.RegisterRequest{Email: "a@b.com", Password: "password1"}))
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(domain.RegisterRequest{Email: "nope", Password: "short"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "email must be a valid email address")
	assert.Contains(t, err.Error(), "password must be at least 8 characters")
}

func TestStruct_NegativeInitialBalance(t *testing.T) {
	err := Struct(domain.CreateAccountRequest{AccountID: "a1", CustomerName: "Alice", InitialBalance: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initialBalance must be >= 0")
}

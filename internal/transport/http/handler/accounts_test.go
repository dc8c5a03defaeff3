package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-api-ledger/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAccountSvc struct{ mock.Mock }

func (m *mockAccountSvc) Create(ctx context.Context, userID string, req domain.CreateAccountRequest) (*domain.Account, error) {
	args := m.Called(ctx, userID, req)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountSvc) List(ctx context.Context, userID string) ([]domain.Account, error) {
	args := m.Called(ctx, userID)
	accs, _ := args.Get(0).([]domain.Account)
	return accs, args.Error(1)
}
func (m *mockAccountSvc) Get(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, userID, accountID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountSvc) Balance(ctx context.Context, userID, accountID string) (int64, error) {
	args := m.Called(ctx, userID, accountID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockAccountSvc) Transactions(ctx context.Context, userID, accountID string) ([]domain.Transaction, error) {
	args := m.Called(ctx, userID, accountID)
	txs, _ := args.Get(0).([]domain.Transaction)
	return txs, args.Error(1)
}
func (m *mockAccountSvc) Deposit(ctx context.Context, userID, accountID string, amount int64) (*domain.Transaction, error) {
	return m.posting(m.Called(ctx, userID, accountID, amount))
}
func (m *mockAccountSvc) Withdraw(ctx context.Context, userID, accountID string, amount int64) (*domain.Transaction, error) {
	return m.posting(m.Called(ctx, userID, accountID, amount))
}
func (m *mockAccountSvc) Transfer(ctx context.Context, userID, fromID, toID string, amount int64) (*domain.Transaction, error) {
	return m.posting(m.Called(ctx, userID, fromID, toID, amount))
}

func (m *mockAccountSvc) posting(args mock.Arguments) (*domain.Transaction, error) {
	if tx, _ := args.Get(0).(*domain.Transaction); tx != nil {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

// withAccountID injects the chi URL param "accountId".
func withAccountID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("accountId", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestAccountCreate_MissingClaims(t *testing.T) {
	svc := &mockAccountSvc{}
	h := NewAccountHandler(svc)
	r := httptest.NewRequest(http.MethodPost, "/v1/accounts", bytes.NewBufferString(`{}`))
	rr := httptest.NewRecorder()
	h.Create(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountCreate_OwnerFromToken(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockAccountSvc{}
	req := domain.CreateAccountRequest{AccountID: "acc-1", CustomerName: "Alice", InitialBalance: 500}
	svc.On("Create", mock.Anything, "u1", req).
		Return(&domain.Account{AccountID: "acc-1", UserID: "u1", CustomerName: "Alice", Balance: 500}, nil)
	h := NewAccountHandler(svc)
	body, _ := json.Marshal(req)

	r := bearerReq(t, p, http.MethodPost, "/v1/accounts", "u1", body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Create), rr, r)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp AccountEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(500), resp.Account.Balance)
	svc.AssertExpectations(t)
}

func TestAccountList_EmptyIsArray(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockAccountSvc{}
	svc.On("List", mock.Anything, "u1").Return(nil, nil)
	h := NewAccountHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/accounts", "u1", nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.List), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"accounts":[],"count":0}`, rr.Body.String())
}

func TestAccountBalance_Forbidden(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockAccountSvc{}
	svc.On("Balance", mock.Anything, "u1", "theirs").Return(int64(0), domain.Forbidden("Account not found or access denied"))
	h := NewAccountHandler(svc)

	r := withAccountID(bearerReq(t, p, http.MethodGet, "/v1/accounts/theirs/balance", "u1", nil), "theirs")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Balance), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "Account not found or access denied", decodeError(t, rr))
}

func TestAccountBalance_Owner(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockAccountSvc{}
	svc.On("Balance", mock.Anything, "u1", "a1").Return(int64(1200), nil)
	h := NewAccountHandler(svc)

	r := withAccountID(bearerReq(t, p, http.MethodGet, "/v1/accounts/a1/balance", "u1", nil), "a1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Balance), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"accountId":"a1","balance":1200}`, rr.Body.String())
}

func TestAccountTransactions_NewestFirstPreserved(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockAccountSvc{}
	svc.On("Transactions", mock.Anything, "u1", "a1").Return([]domain.Transaction{
		{AccountID: "a1", Timestamp: 3, Amount: -100, Type: domain.TxWithdrawal, NewBalance: 1100},
		{AccountID: "a1", Timestamp: 2, Amount: 200, Type: domain.TxDeposit, NewBalance: 1200},
	}, nil)
	h := NewAccountHandler(svc)

	r := withAccountID(bearerReq(t, p, http.MethodGet, "/v1/accounts/a1/transactions", "u1", nil), "a1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Transactions), rr, r)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp TransactionsEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, int64(3), resp.Transactions[0].Timestamp)
}

func TestDeposit_FractionalAmountRejected(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockAccountSvc{}
	h := NewAccountHandler(svc)

	r := withAccountID(bearerReq(t, p, http.MethodPost, "/v1/accounts/a1/deposit", "u1", []byte(`{"amount":12.5}`)), "a1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Deposit), rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Deposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeposit_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockAccountSvc{}
	svc.On("Deposit", mock.Anything, "u1", "a1", int64(200)).
		Return(&domain.Transaction{AccountID: "a1", Amount: 200, NewBalance: 1200}, nil)
	h := NewAccountHandler(svc)

	r := withAccountID(bearerReq(t, p, http.MethodPost, "/v1/accounts/a1/deposit", "u1", []byte(`{"amount":200}`)), "a1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Deposit), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Deposit successful","newBalance":1200}`, rr.Body.String())
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockAccountSvc{}
	svc.On("Withdraw", mock.Anything, "u1", "a1", int64(5000)).Return(nil, domain.Validation("Insufficient funds"))
	h := NewAccountHandler(svc)

	r := withAccountID(bearerReq(t, p, http.MethodPost, "/v1/accounts/a1/withdraw", "u1", []byte(`{"amount":5000}`)), "a1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Withdraw), rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Insufficient funds", decodeError(t, rr))
}

func TestTransfer_DestinationNotFound(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockAccountSvc{}
	svc.On("Transfer", mock.Anything, "u1", "a1", "ghost", int64(10)).Return(nil, domain.NotFound("Destination account not found"))
	h := NewAccountHandler(svc)

	r := withAccountID(bearerReq(t, p, http.MethodPost, "/v1/accounts/a1/transfer", "u1", []byte(`{"toAccountId":"ghost","amount":10}`)), "a1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Transfer), rr, r)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTransfer_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockAccountSvc{}
	svc.On("Transfer", mock.Anything, "u1", "a1", "b1", int64(100)).
		Return(&domain.Transaction{AccountID: "a1", Amount: -100, NewBalance: 1000, TransferID: "01TRANSFER"}, nil)
	h := NewAccountHandler(svc)

	r := withAccountID(bearerReq(t, p, http.MethodPost, "/v1/accounts/a1/transfer", "u1", []byte(`{"toAccountId":"b1","amount":100}`)), "a1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Transfer), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Transfer successful","newBalance":1000,"transferId":"01TRANSFER"}`, rr.Body.String())
}

func TestStatusFor_CoversEveryKind(t *testing.T) {
	cases := map[domain.Kind]int{
		domain.KindValidation:   http.StatusBadRequest,
		domain.KindUnauthorized: http.StatusUnauthorized,
		domain.KindForbidden:    http.StatusForbidden,
		domain.KindNotFound:     http.StatusNotFound,
		domain.KindConflict:     http.StatusConflict,
		domain.KindInternal:     http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, statusFor(kind), kind.String())
	}
}

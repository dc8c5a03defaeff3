package handler

import (
	"net/http"

	"github.com/go-api-ledger/internal/application/account"
	"github.com/go-api-ledger/internal/domain"
	"github.com/go-api-ledger/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// AccountHandler serves the account and money-movement endpoints. The caller
// is always taken from the access token, never from the body.
type AccountHandler struct {
	svc account.Service
}

func NewAccountHandler(svc account.Service) *AccountHandler { return &AccountHandler{svc: svc} }

func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok || claims.UserID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return claims.UserID, true
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req domain.CreateAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	acc, err := h.svc.Create(r.Context(), userID, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, AccountEnvelope{Message: "Account created successfully", Account: acc})
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	accounts, err := h.svc.List(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	writeJSON(w, http.StatusOK, AccountListEnvelope{Accounts: accounts, Count: len(accounts)})
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	acc, err := h.svc.Get(r.Context(), userID, chi.URLParam(r, "accountId"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	accountID := chi.URLParam(r, "accountId")
	bal, err := h.svc.Balance(r.Context(), userID, accountID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceEnvelope{AccountID: accountID, Balance: bal})
}

func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	txs, err := h.svc.Transactions(r.Context(), userID, chi.URLParam(r, "accountId"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	writeJSON(w, http.StatusOK, TransactionsEnvelope{Transactions: txs, Count: len(txs)})
}

func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req domain.AmountRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	tx, err := h.svc.Deposit(r.Context(), userID, chi.URLParam(r, "accountId"), req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PostingEnvelope{Message: "Deposit successful", NewBalance: tx.NewBalance})
}

func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req domain.AmountRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	tx, err := h.svc.Withdraw(r.Context(), userID, chi.URLParam(r, "accountId"), req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PostingEnvelope{Message: "Withdrawal successful", NewBalance: tx.NewBalance})
}

func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req domain.TransferRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	tx, err := h.svc.Transfer(r.Context(), userID, chi.URLParam(r, "accountId"), req.ToAccountID, req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PostingEnvelope{Message: "Transfer successful", NewBalance: tx.NewBalance, TransferID: tx.TransferID})
}

package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-api-ledger/internal/config"
	jwtinfra "github.com/go-api-ledger/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, *jwtinfra.Provider) {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:          "router-test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: time.Hour,
		AllowedOrigins:     []string{"*"},
	}
	p, err := jwtinfra.NewProvider(cfg)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewRouter(ctx, cfg, &Deps{JWTProvider: p}), p
}

func TestRouter_Ping(t *testing.T) {
	r, _ := newTestRouter(t)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health-check/ping", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_AccountsRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)
	for _, target := range []string{"/v1/accounts", "/v1/accounts/a1/balance", "/v1/accounts/a1/transactions"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, target)
	}
}

func TestRouter_RefreshTokenCannotReachAccounts(t *testing.T) {
	r, p := newTestRouter(t)
	refresh, _, err := p.IssueRefreshToken("u1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_LogoutRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

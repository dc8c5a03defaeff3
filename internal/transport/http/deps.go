package http

import (
	"github.com/go-api-ledger/internal/application/account"
	"github.com/go-api-ledger/internal/application/session"
	"github.com/go-api-ledger/internal/application/user"
	jwtinfra "github.com/go-api-ledger/internal/infrastructure/jwt"
)

// Deps holds the application services the router exposes.
type Deps struct {
	UserService    user.Service
	SessionService session.Service
	AccountService account.Service
	JWTProvider    *jwtinfra.Provider
}

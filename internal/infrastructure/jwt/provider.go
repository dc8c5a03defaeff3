package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-api-ledger/internal/config"
	"github.com/go-api-ledger/internal/pkg/id"
	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeRefresh marks refresh tokens. Access tokens carry no type.
const TokenTypeRefresh = "refresh"

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims holds the JWT payload fields.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role,omitempty"`
	Type   string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) IsRefresh() bool { return c.Type == TokenTypeRefresh }

// Provider signs and verifies HS256 JWTs with a shared secret.
type Provider struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	return &Provider{
		secret:        []byte(cfg.JWTSecret),
		accessExpiry:  cfg.AccessTokenExpiry,
		refreshExpiry: cfg.RefreshTokenExpiry,
		now:           time.Now,
	}, nil
}

// AccessExpiry is the lifetime of access tokens, reported to clients as expiresIn.
func (p *Provider) AccessExpiry() time.Duration { return p.accessExpiry }

func (p *Provider) IssueAccessToken(userID, role string) (string, error) {
	token, _, err := p.sign(Claims{UserID: userID, Role: role}, p.accessExpiry)
	return token, err
}

// IssueRefreshToken returns the token and its expiry so the caller can
// register it.
func (p *Provider) IssueRefreshToken(userID string) (string, time.Time, error) {
	return p.sign(Claims{UserID: userID, Type: TokenTypeRefresh}, p.refreshExpiry)
}

func (p *Provider) sign(claims Claims, ttl time.Duration) (string, time.Time, error) {
	now := p.now()
	exp := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        id.New(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature and expiry. It returns ErrTokenExpired for a
// well-signed token past its exp and ErrTokenInvalid for everything else.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

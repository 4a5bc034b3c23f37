package domain

import (
	"context"
	"time"
)

// Token kinds
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// AccessTokenTTL is the lifetime of issued access tokens
const AccessTokenTTL = time.Hour

// BearerTokenType is the token_type reported on every token response
const BearerTokenType = "Bearer"

// Token represents an issued access or refresh token. UserID is empty for
// tokens issued through the client credentials grant.
type Token struct {
	Value     string    `json:"value"`
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id,omitempty"`
	ClientID  string    `json:"client_id"`
	Scopes    []string  `json:"scopes"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
}

// IsExpired reports whether the token is past its expiry. Refresh tokens carry
// a zero ExpiresAt and only die by rotation or revocation.
func (t *Token) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// TokenRepository defines the storage contract for issued tokens. Revoke must
// be atomic per token value so concurrent refresh attempts serialize.
type TokenRepository interface {
	// CreateToken stores a new token record
	CreateToken(ctx context.Context, token *Token) error

	// FindToken finds a token by value, returning ErrTokenNotFound when absent
	FindToken(ctx context.Context, value string) (*Token, error)

	// RevokeToken marks a token revoked. Returns ErrTokenNotFound for unknown
	// values and ErrTokenRevoked when the token was already revoked, so the
	// caller can distinguish a lost rotation race from a fresh revocation.
	RevokeToken(ctx context.Context, value string) error

	// RevokeAllForUser marks every token bound to the user revoked
	RevokeAllForUser(ctx context.Context, userID string) error
}

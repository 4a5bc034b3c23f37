package domain

import (
	"context"
	"time"
)

// AuthorizationCodeTTL is how long an issued code stays exchangeable
const AuthorizationCodeTTL = 10 * time.Minute

// AuthorizationCode represents a one-time credential binding a completed
// authorization step to a user, client, scope and redirect URI
type AuthorizationCode struct {
	Code                string    `json:"code"`
	ClientID            string    `json:"client_id"`
	UserID              string    `json:"user_id"`
	RedirectURI         string    `json:"redirect_uri"`
	Scopes              []string  `json:"scopes"`
	CodeChallenge       string    `json:"code_challenge,omitempty"`
	CodeChallengeMethod string    `json:"code_challenge_method,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	ExpiresAt           time.Time `json:"expires_at"`
}

// IsExpired reports whether the code is past its expiry
func (c *AuthorizationCode) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// AuthorizationCodeRepository defines the storage contract for authorization codes.
// Consume must be linearizable: the lookup and the invalidation are a single
// step so concurrent exchange attempts for the same code cannot both succeed.
type AuthorizationCodeRepository interface {
	// CreateAuthorizationCode stores a new code record
	CreateAuthorizationCode(ctx context.Context, code *AuthorizationCode) error

	// ConsumeAuthorizationCode atomically fetches, checks and removes a code.
	// Unknown, expired and already-consumed codes yield ErrInvalidAuthorizationCode.
	// When check fails the code is left untouched, so a rejected exchange
	// (wrong redirect URI, bad verifier) does not burn the code.
	ConsumeAuthorizationCode(ctx context.Context, code string, check func(*AuthorizationCode) error) (*AuthorizationCode, error)
}

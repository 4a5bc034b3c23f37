package domain

import (
	"context"
	"time"
)

// ResponseTypeCode is the only supported authorization response type
const ResponseTypeCode = "code"

// CodeChallengeMethodS256 is the only code challenge method the server accepts
// for new authorization requests; "plain" is rejected at authorize time.
const CodeChallengeMethodS256 = "S256"

// AuthorizationRequest mirrors the query parameters of the authorize endpoint
type AuthorizationRequest struct {
	ClientID            string `json:"client_id"`
	RedirectURI         string `json:"redirect_uri"`
	Scope               string `json:"scope"`
	State               string `json:"state"`
	ResponseType        string `json:"response_type"`
	CodeChallenge       string `json:"code_challenge,omitempty"`
	CodeChallengeMethod string `json:"code_challenge_method,omitempty"`
}

// AuthorizationResponse carries the issued code and the client's opaque state,
// echoed back untouched
type AuthorizationResponse struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

// TokenRequest mirrors the form body of the token endpoint. Fields that do not
// apply to a grant are simply absent.
type TokenRequest struct {
	GrantType    string `json:"grant_type"`
	Code         string `json:"code,omitempty"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret,omitempty"`
	CodeVerifier string `json:"code_verifier,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// TokenResponse matches OAuth token endpoint payloads
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
}

// TokenValidation is the introspection result for an access token
type TokenValidation struct {
	Valid     bool      `json:"valid"`
	UserID    string    `json:"user_id,omitempty"`
	ClientID  string    `json:"client_id,omitempty"`
	Scope     string    `json:"scope,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// OAuthProvider orchestrates the authorization server grants over the client
// registry and the code and token stores
type OAuthProvider interface {
	// Authorize validates an authorization request for the given authenticated
	// user and issues a one-time code
	Authorize(ctx context.Context, req AuthorizationRequest, userID string) (*AuthorizationResponse, error)

	// ExchangeCodeForToken runs the authorization_code grant
	ExchangeCodeForToken(ctx context.Context, req TokenRequest) (*TokenResponse, error)

	// ClientCredentialsGrant issues a user-less access token for a confidential client
	ClientCredentialsGrant(ctx context.Context, clientID, clientSecret, scope string) (*TokenResponse, error)

	// RefreshTokenGrant rotates a refresh token and issues a new token pair
	RefreshTokenGrant(ctx context.Context, refreshToken, clientID, clientSecret, scope string) (*TokenResponse, error)

	// ValidateAccessToken resolves an access token into its bound identity and scope
	ValidateAccessToken(ctx context.Context, value string) *TokenValidation

	// RevokeToken invalidates a single access or refresh token
	RevokeToken(ctx context.Context, value string) error

	// RevokeAllUserTokens invalidates every token bound to the user
	RevokeAllUserTokens(ctx context.Context, userID string) error
}

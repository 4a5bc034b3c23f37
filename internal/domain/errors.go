package domain

import (
	apperrors "github.com/roomhub/identity-service/internal/domain/errors"
)

// Error is the contract every domain failure satisfies: a stable code the HTTP
// layer maps to a status plus a human-readable message.
type Error interface {
	error
	GetCode() string
	GetMessage() string
}

// Client and authorization request errors
var (
	// ErrClientNotFound is returned when the client id does not resolve to a registered client
	ErrClientNotFound = apperrors.New(apperrors.CodeInvalidClient, "Client not found")

	// ErrInvalidRedirectURI is returned when the redirect URI is not registered for the client
	ErrInvalidRedirectURI = apperrors.New(apperrors.CodeInvalidRequest, "Invalid redirect_uri")

	// ErrInvalidScope is returned when a requested scope is outside the client's allowed scopes
	ErrInvalidScope = apperrors.New(apperrors.CodeInvalidScope, "Invalid scope requested")

	// ErrPKCERequired is returned when a PKCE client authorizes without a code challenge
	ErrPKCERequired = apperrors.New(apperrors.CodeInvalidRequest, "PKCE is required")

	// ErrUnsupportedResponseType is returned for any response_type other than "code"
	ErrUnsupportedResponseType = apperrors.New(apperrors.CodeInvalidRequest, "Unsupported response type")

	// ErrUnsupportedGrantType is returned when the client did not declare the requested grant
	ErrUnsupportedGrantType = apperrors.New(apperrors.CodeUnsupportedGrantType, "Unsupported grant type")

	// ErrInvalidClientCredentials is returned on a client secret mismatch
	ErrInvalidClientCredentials = apperrors.New(apperrors.CodeInvalidClient, "Invalid client credentials")
)

// Code and token errors
var (
	// ErrInvalidAuthorizationCode covers unknown, expired and already-consumed codes
	ErrInvalidAuthorizationCode = apperrors.New(apperrors.CodeInvalidGrant, "Invalid or expired authorization code")

	// ErrInvalidCodeVerifier is returned when the PKCE verifier does not match the stored challenge
	ErrInvalidCodeVerifier = apperrors.New(apperrors.CodeInvalidGrant, "Invalid code_verifier")

	// ErrInvalidRefreshToken covers unknown, rotated-away, revoked and expired refresh tokens
	ErrInvalidRefreshToken = apperrors.New(apperrors.CodeInvalidGrant, "Invalid refresh token")

	// ErrScopeExpansion is returned when a refresh requests scopes beyond the original grant
	ErrScopeExpansion = apperrors.New(apperrors.CodeInvalidScope, "Cannot expand scope during token refresh")

	// ErrInvalidToken is returned when an access token is unknown
	ErrInvalidToken = apperrors.New(apperrors.CodeInvalidGrant, "Invalid token")

	// ErrTokenRevoked is returned when a token has been explicitly revoked
	ErrTokenRevoked = apperrors.New(apperrors.CodeInvalidGrant, "Token has been revoked")

	// ErrTokenExpired is returned when a token is past its expiry
	ErrTokenExpired = apperrors.New(apperrors.CodeInvalidGrant, "Token has expired")

	// ErrTokenNotFound is the store-level signal for a missing token record
	ErrTokenNotFound = apperrors.New(apperrors.CodeNotFound, "Token not found")
)

// Social linking errors
var (
	// ErrAccountAlreadyLinked is returned under the single strategy when another user holds the identity
	ErrAccountAlreadyLinked = apperrors.New(apperrors.CodeConflict, "Social account already linked to another user")

	// ErrLinkNotFound is returned when no linked account exists for the lookup
	ErrLinkNotFound = apperrors.New(apperrors.CodeNotFound, "Linked account not found")

	// ErrNoRefreshToken is returned when a stored token expired and no refresh path exists
	ErrNoRefreshToken = apperrors.New(apperrors.CodeInvalidGrant, "Token expired and no refresh token available")

	// ErrProviderNotFound is returned when no adapter is registered for the provider name
	ErrProviderNotFound = apperrors.New(apperrors.CodeNotFound, "Unknown social provider")

	// ErrRefreshNotSupported is returned by adapters whose provider never issues refresh tokens
	ErrRefreshNotSupported = apperrors.New(apperrors.CodeInvalidRequest, "Provider does not support token refresh")
)

// ErrInternal is returned when there is an internal server error
var ErrInternal = apperrors.New(apperrors.CodeInternal, "Internal server error")

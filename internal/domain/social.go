package domain

import (
	"context"
	"time"
)

// Known social provider names
const (
	ProviderGoogle    = "google"
	ProviderGitHub    = "github"
	ProviderMicrosoft = "microsoft"
)

// Account linking strategies
const (
	// LinkingSingle allows a (provider, providerId) identity to be linked to at
	// most one local user system-wide
	LinkingSingle = "single"
	// LinkingMultiple allows one user to hold several links per provider;
	// (provider, providerId) -> userId stays a function either way
	LinkingMultiple = "multiple"
)

// SocialProfile is the normalized identity fetched from an external provider.
// It is produced fresh on every fetch and never persisted as-is.
type SocialProfile struct {
	Provider      string `json:"provider"`
	ProviderID    string `json:"provider_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Username      string `json:"username,omitempty"`
	Picture       string `json:"picture,omitempty"`
}

// ProviderToken is the normalized token bundle returned by an adapter.
// RefreshToken is empty for providers that never issue one.
type ProviderToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// LinkedAccount associates a local user with one external identity
type LinkedAccount struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Provider     string    `json:"provider"`
	ProviderID   string    `json:"provider_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	Picture      string    `json:"picture,omitempty"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuthorizationURLOptions configures a provider authorize URL
type AuthorizationURLOptions struct {
	Scopes []string
	State  string
	// Extra carries provider-specific passthrough parameters such as Google's
	// prompt and access_type
	Extra map[string]string
}

// AuthorizationURLResult is the built URL plus the PKCE verifier for providers
// that generate one
type AuthorizationURLResult struct {
	URL          string `json:"url"`
	CodeVerifier string `json:"code_verifier,omitempty"`
}

// SocialProvider is the capability set every external identity provider
// adapter implements. Providers without a capability fail fast with a
// capability error instead of attempting a network call.
type SocialProvider interface {
	// Name returns the provider identifier (google, github, microsoft)
	Name() string

	// AuthorizationURL builds the provider authorize URL
	AuthorizationURL(opts AuthorizationURLOptions) (*AuthorizationURLResult, error)

	// ExchangeCode posts the authorization code to the provider token endpoint
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*ProviderToken, error)

	// FetchProfile fetches and normalizes the user profile
	FetchProfile(ctx context.Context, accessToken string) (*SocialProfile, error)

	// RefreshToken exchanges a refresh token for a new token bundle
	RefreshToken(ctx context.Context, refreshToken string) (*ProviderToken, error)

	// RevokeToken best-effort revokes an access token at the provider
	RevokeToken(ctx context.Context, accessToken string) error
}

// SocialLoginService is the account-linking and profile-synchronization engine
type SocialLoginService interface {
	// LinkAccount links the fetched identity to the user, enforcing the
	// configured linking strategy
	LinkAccount(ctx context.Context, userID string, profile *SocialProfile, token *ProviderToken) (*LinkedAccount, error)

	// UnlinkAccount removes all linked accounts for the user and provider
	UnlinkAccount(ctx context.Context, userID, provider string) error

	// GetLinkedAccounts lists the user's linked accounts in link order
	GetLinkedAccounts(ctx context.Context, userID string) ([]*LinkedAccount, error)

	// FindUserByProvider resolves an external identity to a local user id
	FindUserByProvider(ctx context.Context, provider, providerID string) (string, error)

	// SyncProfile refetches the provider profile and overwrites the stored
	// email, name and picture
	SyncProfile(ctx context.Context, userID, provider string) (*SocialProfile, error)

	// GetAccessToken returns a currently valid access token for the link,
	// refreshing through the adapter when expired
	GetAccessToken(ctx context.Context, userID, provider string) (string, error)
}

// LinkedAccountRepository defines the storage contract for linked accounts.
// FindByProviderID is the uniqueness point for the single linking strategy and
// must be checked and written under one critical section by callers that the
// implementation serializes (mutex or unique index).
type LinkedAccountRepository interface {
	// CreateLinkedAccount stores a new link
	CreateLinkedAccount(ctx context.Context, account *LinkedAccount) error

	// UpdateLinkedAccount overwrites a link's mutable fields (email, name,
	// picture, token bundle, UpdatedAt)
	UpdateLinkedAccount(ctx context.Context, account *LinkedAccount) error

	// FindByProviderID finds the link holding the external identity,
	// returning ErrLinkNotFound when absent
	FindByProviderID(ctx context.Context, provider, providerID string) (*LinkedAccount, error)

	// FindByUserAndProvider finds the user's first link for the provider
	FindByUserAndProvider(ctx context.Context, userID, provider string) (*LinkedAccount, error)

	// ListByUser lists the user's links in insertion order
	ListByUser(ctx context.Context, userID string) ([]*LinkedAccount, error)

	// DeleteByUserAndProvider removes all links for the user and provider
	DeleteByUserAndProvider(ctx context.Context, userID, provider string) error
}

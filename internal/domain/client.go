package domain

import (
	"context"
	"time"
)

// Grant types a client may declare
const (
	GrantAuthorizationCode = "authorization_code"
	GrantClientCredentials = "client_credentials"
	GrantRefreshToken      = "refresh_token"
)

// OAuthClient represents a registered OAuth2 client
type OAuthClient struct {
	ID           string    `json:"id"`
	SecretHash   string    `json:"-"`
	RedirectURIs []string  `json:"redirect_uris"`
	GrantTypes   []string  `json:"grant_types"`
	Scopes       []string  `json:"scopes"`
	RequirePKCE  bool      `json:"require_pkce"`
	CreatedAt    time.Time `json:"created_at"`
}

// ClientDefinition is the registration input for a new client
type ClientDefinition struct {
	RedirectURIs []string `json:"redirect_uris"`
	GrantTypes   []string `json:"grant_types"`
	Scopes       []string `json:"scopes"`
	RequirePKCE  bool     `json:"require_pkce"`
}

// RegisteredClient is the registration result. Secret is the only place the
// plaintext secret ever appears; the stored record keeps a bcrypt hash.
type RegisteredClient struct {
	*OAuthClient
	Secret string `json:"secret"`
}

// HasGrantType reports whether the client declared the grant type
func (c *OAuthClient) HasGrantType(grantType string) bool {
	for _, g := range c.GrantTypes {
		if g == grantType {
			return true
		}
	}
	return false
}

// AllowsRedirectURI reports whether the URI exactly matches a registered one
func (c *OAuthClient) AllowsRedirectURI(uri string) bool {
	for _, u := range c.RedirectURIs {
		if u == uri {
			return true
		}
	}
	return false
}

// AllowsScopes reports whether every requested scope is in the client's allowed set
func (c *OAuthClient) AllowsScopes(scopes []string) bool {
	return ScopesContain(c.Scopes, scopes)
}

// ClientService defines client registration and lookup operations
type ClientService interface {
	// RegisterClient generates credentials for the definition and stores the client
	RegisterClient(ctx context.Context, def ClientDefinition) (*RegisteredClient, error)

	// GetClient finds a client by id, returning ErrClientNotFound when absent
	GetClient(ctx context.Context, clientID string) (*OAuthClient, error)

	// ValidateSecret checks a presented secret against the stored hash
	ValidateSecret(client *OAuthClient, secret string) bool
}

// ClientRepository defines the storage contract for OAuth2 clients
type ClientRepository interface {
	// CreateClient stores a new client record
	CreateClient(ctx context.Context, client *OAuthClient) error

	// FindClientByID finds a client by id
	FindClientByID(ctx context.Context, id string) (*OAuthClient, error)

	// ListClients lists all registered clients
	ListClients(ctx context.Context) ([]*OAuthClient, error)
}

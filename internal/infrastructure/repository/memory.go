package repository

import (
	"context"
	"sync"
	"time"

	"github.com/roomhub/identity-service/internal/domain"
)

// In-memory implementations of the storage contracts. They are the default
// backend: mutations for a given key happen under one mutex, which is what
// carries the exactly-once consume and rotation guarantees.

// MemoryClientRepository stores OAuth2 clients in a map
type MemoryClientRepository struct {
	mu      sync.RWMutex
	clients map[string]domain.OAuthClient
	order   []string
}

var _ domain.ClientRepository = (*MemoryClientRepository)(nil)

// NewMemoryClientRepository creates an empty in-memory client repository
func NewMemoryClientRepository() *MemoryClientRepository {
	return &MemoryClientRepository{clients: make(map[string]domain.OAuthClient)}
}

func (r *MemoryClientRepository) CreateClient(ctx context.Context, client *domain.OAuthClient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[client.ID]; !exists {
		r.order = append(r.order, client.ID)
	}
	r.clients[client.ID] = *client
	return nil
}

func (r *MemoryClientRepository) FindClientByID(ctx context.Context, id string) (*domain.OAuthClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	return &client, nil
}

func (r *MemoryClientRepository) ListClients(ctx context.Context) ([]*domain.OAuthClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]*domain.OAuthClient, 0, len(r.order))
	for _, id := range r.order {
		client := r.clients[id]
		clients = append(clients, &client)
	}
	return clients, nil
}

// MemoryAuthorizationCodeRepository stores authorization codes in a map
type MemoryAuthorizationCodeRepository struct {
	mu    sync.Mutex
	codes map[string]domain.AuthorizationCode
}

var _ domain.AuthorizationCodeRepository = (*MemoryAuthorizationCodeRepository)(nil)

// NewMemoryAuthorizationCodeRepository creates an empty in-memory code repository
func NewMemoryAuthorizationCodeRepository() *MemoryAuthorizationCodeRepository {
	return &MemoryAuthorizationCodeRepository{codes: make(map[string]domain.AuthorizationCode)}
}

func (r *MemoryAuthorizationCodeRepository) CreateAuthorizationCode(ctx context.Context, code *domain.AuthorizationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[code.Code] = *code
	return nil
}

// ConsumeAuthorizationCode runs lookup, check and removal as one critical
// section. A failed check leaves the code in place; expiry removes it.
func (r *MemoryAuthorizationCodeRepository) ConsumeAuthorizationCode(ctx context.Context, code string, check func(*domain.AuthorizationCode) error) (*domain.AuthorizationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.codes[code]
	if !ok {
		return nil, domain.ErrInvalidAuthorizationCode
	}
	if record.IsExpired(time.Now()) {
		delete(r.codes, code)
		return nil, domain.ErrInvalidAuthorizationCode
	}
	if check != nil {
		if err := check(&record); err != nil {
			return nil, err
		}
	}
	delete(r.codes, code)
	return &record, nil
}

// MemoryTokenRepository stores issued tokens in a map
type MemoryTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]domain.Token
}

var _ domain.TokenRepository = (*MemoryTokenRepository)(nil)

// NewMemoryTokenRepository creates an empty in-memory token repository
func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{tokens: make(map[string]domain.Token)}
}

func (r *MemoryTokenRepository) CreateToken(ctx context.Context, token *domain.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Value] = *token
	return nil
}

func (r *MemoryTokenRepository) FindToken(ctx context.Context, value string) (*domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[value]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return &token, nil
}

// RevokeToken marks the token revoked. The revoked check and the write share
// the lock, so out of any number of concurrent callers exactly one succeeds.
func (r *MemoryTokenRepository) RevokeToken(ctx context.Context, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[value]
	if !ok {
		return domain.ErrTokenNotFound
	}
	if token.Revoked {
		return domain.ErrTokenRevoked
	}
	token.Revoked = true
	r.tokens[value] = token
	return nil
}

func (r *MemoryTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for value, token := range r.tokens {
		if token.UserID == userID {
			token.Revoked = true
			r.tokens[value] = token
		}
	}
	return nil
}

// MemoryLinkedAccountRepository stores linked accounts in insertion order
type MemoryLinkedAccountRepository struct {
	mu       sync.RWMutex
	accounts []domain.LinkedAccount
}

var _ domain.LinkedAccountRepository = (*MemoryLinkedAccountRepository)(nil)

// NewMemoryLinkedAccountRepository creates an empty in-memory linked account repository
func NewMemoryLinkedAccountRepository() *MemoryLinkedAccountRepository {
	return &MemoryLinkedAccountRepository{}
}

func (r *MemoryLinkedAccountRepository) CreateLinkedAccount(ctx context.Context, account *domain.LinkedAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = append(r.accounts, *account)
	return nil
}

func (r *MemoryLinkedAccountRepository) UpdateLinkedAccount(ctx context.Context, account *domain.LinkedAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.accounts {
		if r.accounts[i].ID == account.ID {
			r.accounts[i] = *account
			return nil
		}
	}
	return domain.ErrLinkNotFound
}

func (r *MemoryLinkedAccountRepository) FindByProviderID(ctx context.Context, provider, providerID string) (*domain.LinkedAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.accounts {
		if r.accounts[i].Provider == provider && r.accounts[i].ProviderID == providerID {
			account := r.accounts[i]
			return &account, nil
		}
	}
	return nil, domain.ErrLinkNotFound
}

func (r *MemoryLinkedAccountRepository) FindByUserAndProvider(ctx context.Context, userID, provider string) (*domain.LinkedAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.accounts {
		if r.accounts[i].UserID == userID && r.accounts[i].Provider == provider {
			account := r.accounts[i]
			return &account, nil
		}
	}
	return nil, domain.ErrLinkNotFound
}

func (r *MemoryLinkedAccountRepository) ListByUser(ctx context.Context, userID string) ([]*domain.LinkedAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var accounts []*domain.LinkedAccount
	for i := range r.accounts {
		if r.accounts[i].UserID == userID {
			account := r.accounts[i]
			accounts = append(accounts, &account)
		}
	}
	return accounts, nil
}

func (r *MemoryLinkedAccountRepository) DeleteByUserAndProvider(ctx context.Context, userID, provider string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.accounts[:0]
	removed := false
	for _, account := range r.accounts {
		if account.UserID == userID && account.Provider == provider {
			removed = true
			continue
		}
		kept = append(kept, account)
	}
	r.accounts = kept
	if !removed {
		return domain.ErrLinkNotFound
	}
	return nil
}

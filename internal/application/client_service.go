package application

import (
	"context"
	"time"

	"github.com/roomhub/identity-service/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const clientSecretBytes = 32

// ClientService implements client registration and lookup over a ClientRepository
type ClientService struct {
	clientRepo domain.ClientRepository
	logger     *zap.Logger
}

// NewClientService creates a new ClientService
func NewClientService(clientRepo domain.ClientRepository, logger *zap.Logger) *ClientService {
	return &ClientService{
		clientRepo: clientRepo,
		logger:     logger,
	}
}

// RegisterClient generates client credentials, stores the client and returns
// the full record. The plaintext secret appears only in the returned value;
// the stored record keeps a bcrypt hash.
func (s *ClientService) RegisterClient(ctx context.Context, def domain.ClientDefinition) (*domain.RegisteredClient, error) {
	secret, err := domain.NewSecret(clientSecretBytes)
	if err != nil {
		s.logger.Error("Failed to generate client secret", zap.Error(err))
		return nil, domain.ErrInternal
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Failed to hash client secret", zap.Error(err))
		return nil, domain.ErrInternal
	}

	client := &domain.OAuthClient{
		ID:           domain.NewID(),
		SecretHash:   string(hash),
		RedirectURIs: def.RedirectURIs,
		GrantTypes:   def.GrantTypes,
		Scopes:       def.Scopes,
		RequirePKCE:  def.RequirePKCE,
		CreatedAt:    time.Now(),
	}

	if err := s.clientRepo.CreateClient(ctx, client); err != nil {
		s.logger.Error("Failed to store client", zap.Error(err))
		return nil, domain.ErrInternal
	}

	s.logger.Info("OAuth2 client registered",
		zap.String("client_id", client.ID),
		zap.Strings("grant_types", client.GrantTypes))

	return &domain.RegisteredClient{
		OAuthClient: client,
		Secret:      secret,
	}, nil
}

// GetClient finds a client by id
func (s *ClientService) GetClient(ctx context.Context, clientID string) (*domain.OAuthClient, error) {
	client, err := s.clientRepo.FindClientByID(ctx, clientID)
	if err != nil {
		s.logger.Debug("Client lookup failed",
			zap.String("client_id", clientID),
			zap.Error(err))
		return nil, domain.ErrClientNotFound
	}
	return client, nil
}

// ListClients lists all registered clients
func (s *ClientService) ListClients(ctx context.Context) ([]*domain.OAuthClient, error) {
	clients, err := s.clientRepo.ListClients(ctx)
	if err != nil {
		s.logger.Error("Failed to list clients", zap.Error(err))
		return nil, domain.ErrInternal
	}
	return clients, nil
}

// ValidateSecret checks a presented secret against the stored hash
func (s *ClientService) ValidateSecret(client *domain.OAuthClient, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(client.SecretHash), []byte(secret)) == nil
}

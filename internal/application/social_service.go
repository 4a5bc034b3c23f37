package application

import (
	"context"
	"sync"
	"time"

	"github.com/roomhub/identity-service/internal/domain"
	"go.uber.org/zap"
)

// SocialService is the account-linking and profile-synchronization engine
// sitting above the provider adapters. The linking strategy decides how many
// accounts a user may hold per provider; (provider, providerId) -> userId is a
// function under both strategies.
type SocialService struct {
	linkRepo  domain.LinkedAccountRepository
	providers map[string]domain.SocialProvider
	strategy  string
	logger    *zap.Logger

	// linkMu serializes link attempts so two users cannot both claim the same
	// external identity between the lookup and the write.
	linkMu sync.Mutex
}

var _ domain.SocialLoginService = (*SocialService)(nil)

// NewSocialService creates a new SocialService. Unknown strategies fall back
// to single, the safer default.
func NewSocialService(linkRepo domain.LinkedAccountRepository, providers []domain.SocialProvider, strategy string, logger *zap.Logger) *SocialService {
	if strategy != domain.LinkingSingle && strategy != domain.LinkingMultiple {
		strategy = domain.LinkingSingle
	}

	byName := make(map[string]domain.SocialProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	return &SocialService{
		linkRepo:  linkRepo,
		providers: byName,
		strategy:  strategy,
		logger:    logger,
	}
}

// Provider returns the adapter registered under the given name
func (s *SocialService) Provider(name string) (domain.SocialProvider, error) {
	p, ok := s.providers[name]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return p, nil
}

// LinkAccount links the fetched identity to the user. Re-linking an identity
// the user already holds is an idempotent update of the token bundle and
// profile fields; an identity held by a different user is rejected.
func (s *SocialService) LinkAccount(ctx context.Context, userID string, profile *domain.SocialProfile, token *domain.ProviderToken) (*domain.LinkedAccount, error) {
	s.linkMu.Lock()
	defer s.linkMu.Unlock()

	existing, err := s.linkRepo.FindByProviderID(ctx, profile.Provider, profile.ProviderID)
	if err == nil {
		if existing.UserID != userID {
			s.logger.Warn("Social identity already linked to another user",
				zap.String("provider", profile.Provider),
				zap.String("user_id", userID))
			return nil, domain.ErrAccountAlreadyLinked
		}
		return s.updateLink(ctx, existing, profile, token)
	}

	if s.strategy == domain.LinkingSingle {
		// One link per provider per user: a new identity replaces the old one.
		current, err := s.linkRepo.FindByUserAndProvider(ctx, userID, profile.Provider)
		if err == nil {
			current.ProviderID = profile.ProviderID
			return s.updateLink(ctx, current, profile, token)
		}
	}

	now := time.Now()
	account := &domain.LinkedAccount{
		ID:           domain.NewID(),
		UserID:       userID,
		Provider:     profile.Provider,
		ProviderID:   profile.ProviderID,
		Email:        profile.Email,
		Name:         profile.Name,
		Picture:      profile.Picture,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiresAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.linkRepo.CreateLinkedAccount(ctx, account); err != nil {
		s.logger.Error("Failed to store linked account",
			zap.String("provider", profile.Provider),
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, domain.ErrInternal
	}

	s.logger.Info("Social account linked",
		zap.String("provider", profile.Provider),
		zap.String("user_id", userID))
	return account, nil
}

// UnlinkAccount removes all linked accounts for the user and provider
func (s *SocialService) UnlinkAccount(ctx context.Context, userID, provider string) error {
	if err := s.linkRepo.DeleteByUserAndProvider(ctx, userID, provider); err != nil {
		return err
	}
	s.logger.Info("Social account unlinked",
		zap.String("provider", provider),
		zap.String("user_id", userID))
	return nil
}

// GetLinkedAccounts lists the user's linked accounts in link order
func (s *SocialService) GetLinkedAccounts(ctx context.Context, userID string) ([]*domain.LinkedAccount, error) {
	return s.linkRepo.ListByUser(ctx, userID)
}

// FindUserByProvider resolves an external identity to a local user id. Used
// during the social login callback to decide existing-user vs needs-registration.
func (s *SocialService) FindUserByProvider(ctx context.Context, provider, providerID string) (string, error) {
	link, err := s.linkRepo.FindByProviderID(ctx, provider, providerID)
	if err != nil {
		return "", domain.ErrLinkNotFound
	}
	return link.UserID, nil
}

// SyncProfile refetches the provider profile with a live access token and
// overwrites the stored email, name and picture.
func (s *SocialService) SyncProfile(ctx context.Context, userID, provider string) (*domain.SocialProfile, error) {
	adapter, err := s.Provider(provider)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.GetAccessToken(ctx, userID, provider)
	if err != nil {
		return nil, err
	}

	profile, err := adapter.FetchProfile(ctx, accessToken)
	if err != nil {
		s.logger.Error("Profile fetch failed",
			zap.String("provider", provider),
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, err
	}

	link, err := s.linkRepo.FindByUserAndProvider(ctx, userID, provider)
	if err != nil {
		return nil, domain.ErrLinkNotFound
	}

	link.Email = profile.Email
	link.Name = profile.Name
	link.Picture = profile.Picture
	link.UpdatedAt = time.Now()

	if err := s.linkRepo.UpdateLinkedAccount(ctx, link); err != nil {
		s.logger.Error("Failed to update linked account",
			zap.String("provider", provider),
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, domain.ErrInternal
	}

	return profile, nil
}

// GetAccessToken returns a currently valid access token for the link. An
// expired token is refreshed through the adapter and the rotated bundle is
// persisted; without a refresh token the expiry is terminal.
func (s *SocialService) GetAccessToken(ctx context.Context, userID, provider string) (string, error) {
	link, err := s.linkRepo.FindByUserAndProvider(ctx, userID, provider)
	if err != nil {
		return "", domain.ErrLinkNotFound
	}

	if link.ExpiresAt.IsZero() || time.Now().Before(link.ExpiresAt) {
		return link.AccessToken, nil
	}

	if link.RefreshToken == "" {
		return "", domain.ErrNoRefreshToken
	}

	adapter, err := s.Provider(provider)
	if err != nil {
		return "", err
	}

	refreshed, err := adapter.RefreshToken(ctx, link.RefreshToken)
	if err != nil {
		s.logger.Error("Token refresh failed",
			zap.String("provider", provider),
			zap.String("user_id", userID),
			zap.Error(err))
		return "", err
	}

	link.AccessToken = refreshed.AccessToken
	if refreshed.RefreshToken != "" {
		link.RefreshToken = refreshed.RefreshToken
	}
	link.ExpiresAt = refreshed.ExpiresAt
	link.UpdatedAt = time.Now()

	if err := s.linkRepo.UpdateLinkedAccount(ctx, link); err != nil {
		s.logger.Error("Failed to persist refreshed token",
			zap.String("provider", provider),
			zap.String("user_id", userID),
			zap.Error(err))
		return "", domain.ErrInternal
	}

	s.logger.Debug("Provider token refreshed",
		zap.String("provider", provider),
		zap.String("user_id", userID))
	return refreshed.AccessToken, nil
}

func (s *SocialService) updateLink(ctx context.Context, link *domain.LinkedAccount, profile *domain.SocialProfile, token *domain.ProviderToken) (*domain.LinkedAccount, error) {
	link.Email = profile.Email
	link.Name = profile.Name
	link.Picture = profile.Picture
	link.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		link.RefreshToken = token.RefreshToken
	}
	link.ExpiresAt = token.ExpiresAt
	link.UpdatedAt = time.Now()

	if err := s.linkRepo.UpdateLinkedAccount(ctx, link); err != nil {
		s.logger.Error("Failed to update linked account",
			zap.String("provider", link.Provider),
			zap.String("user_id", link.UserID),
			zap.Error(err))
		return nil, domain.ErrInternal
	}
	return link, nil
}

package application

import (
	"context"
	"testing"
	"time"

	"github.com/roomhub/identity-service/internal/domain"
	"github.com/roomhub/identity-service/internal/infrastructure/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockSocialProvider is a mock implementation of domain.SocialProvider
type MockSocialProvider struct {
	mock.Mock
	name string
}

func (m *MockSocialProvider) Name() string {
	return m.name
}

func (m *MockSocialProvider) AuthorizationURL(opts domain.AuthorizationURLOptions) (*domain.AuthorizationURLResult, error) {
	args := m.Called(opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthorizationURLResult), args.Error(1)
}

func (m *MockSocialProvider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*domain.ProviderToken, error) {
	args := m.Called(ctx, code, codeVerifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProviderToken), args.Error(1)
}

func (m *MockSocialProvider) FetchProfile(ctx context.Context, accessToken string) (*domain.SocialProfile, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SocialProfile), args.Error(1)
}

func (m *MockSocialProvider) RefreshToken(ctx context.Context, refreshToken string) (*domain.ProviderToken, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProviderToken), args.Error(1)
}

func (m *MockSocialProvider) RevokeToken(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

func googleProfile(providerID string) *domain.SocialProfile {
	return &domain.SocialProfile{
		Provider:      domain.ProviderGoogle,
		ProviderID:    providerID,
		Email:         "ana@example.com",
		EmailVerified: true,
		Name:          "Ana Souza",
		Picture:       "https://lh3.example.com/photo.jpg",
	}
}

func liveToken() *domain.ProviderToken {
	return &domain.ProviderToken{
		AccessToken:  "prov-access",
		RefreshToken: "prov-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func newSocialFixture(strategy string, providers ...domain.SocialProvider) (*SocialService, *repository.MemoryLinkedAccountRepository) {
	linkRepo := repository.NewMemoryLinkedAccountRepository()
	return NewSocialService(linkRepo, providers, strategy, zap.NewNop()), linkRepo
}

func TestSocialService_LinkAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("links a new identity", func(t *testing.T) {
		service, _ := newSocialFixture(domain.LinkingSingle)

		account, err := service.LinkAccount(ctx, "user-1", googleProfile("g-1"), liveToken())
		require.NoError(t, err)
		assert.NotEmpty(t, account.ID)
		assert.Equal(t, "user-1", account.UserID)
		assert.Equal(t, domain.ProviderGoogle, account.Provider)
		assert.Equal(t, "ana@example.com", account.Email)

		userID, err := service.FindUserByProvider(ctx, domain.ProviderGoogle, "g-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", userID)
	})

	t.Run("rejects an identity held by another user", func(t *testing.T) {
		service, _ := newSocialFixture(domain.LinkingSingle)

		_, err := service.LinkAccount(ctx, "user-1", googleProfile("g-1"), liveToken())
		require.NoError(t, err)

		_, err = service.LinkAccount(ctx, "user-2", googleProfile("g-1"), liveToken())
		assert.ErrorIs(t, err, domain.ErrAccountAlreadyLinked)

		// The original link is untouched.
		userID, err := service.FindUserByProvider(ctx, domain.ProviderGoogle, "g-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", userID)
	})

	t.Run("re-linking the same identity updates the token bundle", func(t *testing.T) {
		service, _ := newSocialFixture(domain.LinkingSingle)

		first, err := service.LinkAccount(ctx, "user-1", googleProfile("g-1"), liveToken())
		require.NoError(t, err)

		rotated := &domain.ProviderToken{
			AccessToken:  "prov-access-2",
			RefreshToken: "prov-refresh-2",
			ExpiresAt:    time.Now().Add(2 * time.Hour),
		}
		second, err := service.LinkAccount(ctx, "user-1", googleProfile("g-1"), rotated)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "prov-access-2", second.AccessToken)
		assert.Equal(t, "prov-refresh-2", second.RefreshToken)

		accounts, err := service.GetLinkedAccounts(ctx, "user-1")
		require.NoError(t, err)
		assert.Len(t, accounts, 1)
	})

	t.Run("single strategy replaces the provider link", func(t *testing.T) {
		service, _ := newSocialFixture(domain.LinkingSingle)

		first, err := service.LinkAccount(ctx, "user-1", googleProfile("g-1"), liveToken())
		require.NoError(t, err)

		second, err := service.LinkAccount(ctx, "user-1", googleProfile("g-2"), liveToken())
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "g-2", second.ProviderID)

		accounts, err := service.GetLinkedAccounts(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "g-2", accounts[0].ProviderID)

		// The replaced identity no longer resolves.
		_, err = service.FindUserByProvider(ctx, domain.ProviderGoogle, "g-1")
		assert.ErrorIs(t, err, domain.ErrLinkNotFound)
	})

	t.Run("multiple strategy keeps both links", func(t *testing.T) {
		service, _ := newSocialFixture(domain.LinkingMultiple)

		_, err := service.LinkAccount(ctx, "user-1", googleProfile("g-1"), liveToken())
		require.NoError(t, err)
		_, err = service.LinkAccount(ctx, "user-1", googleProfile("g-2"), liveToken())
		require.NoError(t, err)

		accounts, err := service.GetLinkedAccounts(ctx, "user-1")
		require.NoError(t, err)
		assert.Len(t, accounts, 2)
	})

	t.Run("links from different providers coexist", func(t *testing.T) {
		service, _ := newSocialFixture(domain.LinkingSingle)

		_, err := service.LinkAccount(ctx, "user-1", googleProfile("g-1"), liveToken())
		require.NoError(t, err)

		githubProfile := &domain.SocialProfile{
			Provider:   domain.ProviderGitHub,
			ProviderID: "12345",
			Email:      "ana@example.com",
			Username:   "anasouza",
		}
		_, err = service.LinkAccount(ctx, "user-1", githubProfile, &domain.ProviderToken{AccessToken: "gh-access"})
		require.NoError(t, err)

		accounts, err := service.GetLinkedAccounts(ctx, "user-1")
		require.NoError(t, err)
		assert.Len(t, accounts, 2)
	})
}

func TestSocialService_UnlinkAccount(t *testing.T) {
	ctx := context.Background()
	service, _ := newSocialFixture(domain.LinkingSingle)

	_, err := service.LinkAccount(ctx, "user-1", googleProfile("g-1"), liveToken())
	require.NoError(t, err)

	require.NoError(t, service.UnlinkAccount(ctx, "user-1", domain.ProviderGoogle))

	accounts, err := service.GetLinkedAccounts(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, accounts)

	assert.ErrorIs(t, service.UnlinkAccount(ctx, "user-1", domain.ProviderGoogle), domain.ErrLinkNotFound)
}

func TestSocialService_GetAccessToken(t *testing.T) {
	ctx := context.Background()

	t.Run("returns an unexpired token as-is", func(t *testing.T) {
		provider := &MockSocialProvider{name: domain.ProviderGoogle}
		service, _ := newSocialFixture(domain.LinkingSingle, provider)

		_, err := service.LinkAccount(ctx, "user-1", googleProfile("g-1"), liveToken())
		require.NoError(t, err)

		token, err := service.GetAccessToken(ctx, "user-1", domain.ProviderGoogle)
		require.NoError(t, err)
		assert.Equal(t, "prov-access", token)
		provider.AssertNotCalled(t, "RefreshToken", mock.Anything, mock.Anything)
	})

	t.Run("refreshes an expired token and persists the rotation", func(t *testing.T) {
		provider := &MockSocialProvider{name: domain.ProviderGoogle}
		service, _ := newSocialFixture(domain.LinkingSingle, provider)

		expired := &domain.ProviderToken{
			AccessToken:  "stale-access",
			RefreshToken: "prov-refresh",
			ExpiresAt:    time.Now().Add(-time.Minute),
		}
		_, err := service.LinkAccount(ctx, "user-1", googleProfile("g-1"), expired)
		require.NoError(t, err)

		provider.On("RefreshToken", mock.Anything, "prov-refresh").Return(&domain.ProviderToken{
			AccessToken: "fresh-access",
			ExpiresAt:   time.Now().Add(time.Hour),
		}, nil).Once()

		token, err := service.GetAccessToken(ctx, "user-1", domain.ProviderGoogle)
		require.NoError(t, err)
		assert.Equal(t, "fresh-access", token)

		// The rotated bundle is stored; the next call needs no refresh. A
		// provider responding without a refresh token keeps the old one.
		token, err = service.GetAccessToken(ctx, "user-1", domain.ProviderGoogle)
		require.NoError(t, err)
		assert.Equal(t, "fresh-access", token)
		provider.AssertExpectations(t)

		accounts, err := service.GetLinkedAccounts(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "prov-refresh", accounts[0].RefreshToken)
	})

	t.Run("expired token without refresh path is terminal", func(t *testing.T) {
		provider := &MockSocialProvider{name: domain.ProviderGitHub}
		service, _ := newSocialFixture(domain.LinkingSingle, provider)

		expired := &domain.ProviderToken{
			AccessToken: "stale-access",
			ExpiresAt:   time.Now().Add(-time.Minute),
		}
		profile := &domain.SocialProfile{Provider: domain.ProviderGitHub, ProviderID: "12345"}
		_, err := service.LinkAccount(ctx, "user-1", profile, expired)
		require.NoError(t, err)

		_, err = service.GetAccessToken(ctx, "user-1", domain.ProviderGitHub)
		assert.ErrorIs(t, err, domain.ErrNoRefreshToken)
		provider.AssertNotCalled(t, "RefreshToken", mock.Anything, mock.Anything)
	})

	t.Run("zero expiry means the token never expires", func(t *testing.T) {
		service, _ := newSocialFixture(domain.LinkingSingle)

		profile := &domain.SocialProfile{Provider: domain.ProviderGitHub, ProviderID: "12345"}
		_, err := service.LinkAccount(ctx, "user-1", profile, &domain.ProviderToken{AccessToken: "gh-access"})
		require.NoError(t, err)

		token, err := service.GetAccessToken(ctx, "user-1", domain.ProviderGitHub)
		require.NoError(t, err)
		assert.Equal(t, "gh-access", token)
	})

	t.Run("unknown link", func(t *testing.T) {
		service, _ := newSocialFixture(domain.LinkingSingle)
		_, err := service.GetAccessToken(ctx, "user-1", domain.ProviderGoogle)
		assert.ErrorIs(t, err, domain.ErrLinkNotFound)
	})
}

func TestSocialService_SyncProfile(t *testing.T) {
	ctx := context.Background()
	provider := &MockSocialProvider{name: domain.ProviderGoogle}
	service, _ := newSocialFixture(domain.LinkingSingle, provider)

	_, err := service.LinkAccount(ctx, "user-1", googleProfile("g-1"), liveToken())
	require.NoError(t, err)

	updated := googleProfile("g-1")
	updated.Email = "ana.souza@example.com"
	updated.Name = "Ana C. Souza"
	updated.Picture = "https://lh3.example.com/new.jpg"
	provider.On("FetchProfile", mock.Anything, "prov-access").Return(updated, nil).Once()

	profile, err := service.SyncProfile(ctx, "user-1", domain.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, "ana.souza@example.com", profile.Email)

	accounts, err := service.GetLinkedAccounts(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "ana.souza@example.com", accounts[0].Email)
	assert.Equal(t, "Ana C. Souza", accounts[0].Name)
	assert.Equal(t, "https://lh3.example.com/new.jpg", accounts[0].Picture)
	provider.AssertExpectations(t)
}

func TestSocialService_Provider(t *testing.T) {
	provider := &MockSocialProvider{name: domain.ProviderGoogle}
	service, _ := newSocialFixture(domain.LinkingSingle, provider)

	p, err := service.Provider(domain.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGoogle, p.Name())

	_, err = service.Provider("orkut")
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)
}

func TestNewSocialService_UnknownStrategyFallsBackToSingle(t *testing.T) {
	ctx := context.Background()
	service, _ := newSocialFixture("whatever")

	_, err := service.LinkAccount(ctx, "user-1", googleProfile("g-1"), liveToken())
	require.NoError(t, err)
	_, err = service.LinkAccount(ctx, "user-1", googleProfile("g-2"), liveToken())
	require.NoError(t, err)

	accounts, err := service.GetLinkedAccounts(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

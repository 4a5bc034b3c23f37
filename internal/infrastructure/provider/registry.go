package provider

import (
	"github.com/roomhub/identity-service/internal/domain"
	"github.com/roomhub/identity-service/internal/infrastructure/config"
	"go.uber.org/zap"
)

// FromConfig builds the adapters for every provider with credentials
// configured. Providers without a client id are skipped so a deployment can
// enable any subset.
func FromConfig(cfg *config.Config, logger *zap.Logger) []domain.SocialProvider {
	var providers []domain.SocialProvider
	if cfg.Google.ClientID != "" {
		providers = append(providers, NewGoogleProvider(cfg.Google, logger))
	}
	if cfg.GitHub.ClientID != "" {
		providers = append(providers, NewGitHubProvider(cfg.GitHub, logger))
	}
	if cfg.Microsoft.ClientID != "" {
		providers = append(providers, NewMicrosoftProvider(cfg.Microsoft, logger))
	}
	return providers
}

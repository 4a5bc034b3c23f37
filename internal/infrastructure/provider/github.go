package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/roomhub/identity-service/internal/domain"
	"github.com/roomhub/identity-service/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPIBaseURL = "https://api.github.com"

var githubDefaultScopes = []string{"read:user", "user:email"}

// GitHubProvider adapts GitHub's OAuth endpoints. GitHub neither supports
// PKCE for OAuth apps nor issues refresh tokens; the refresh capability fails
// fast without touching the network.
type GitHubProvider struct {
	conf       *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ domain.SocialProvider = (*GitHubProvider)(nil)

// NewGitHubProvider creates a new GitHub adapter
func NewGitHubProvider(cfg config.ProviderConfig, logger *zap.Logger) *GitHubProvider {
	return &GitHubProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       githubDefaultScopes,
			Endpoint:     github.Endpoint,
		},
		apiBaseURL: githubAPIBaseURL,
		httpClient: newHTTPClient(),
		logger:     logger,
	}
}

// Name returns the provider identifier
func (p *GitHubProvider) Name() string {
	return domain.ProviderGitHub
}

// AuthorizationURL builds the GitHub authorize URL. No PKCE verifier is
// generated.
func (p *GitHubProvider) AuthorizationURL(opts domain.AuthorizationURLOptions) (*domain.AuthorizationURLResult, error) {
	conf := *p.conf
	if len(opts.Scopes) > 0 {
		conf.Scopes = opts.Scopes
	}
	return &domain.AuthorizationURLResult{
		URL: conf.AuthCodeURL(opts.State, authCodeOptions(opts.Extra)...),
	}, nil
}

// ExchangeCode posts the code to GitHub's token endpoint
func (p *GitHubProvider) ExchangeCode(ctx context.Context, code, _ string) (*domain.ProviderToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, exchangeError(domain.ProviderGitHub, err)
	}
	return toProviderToken(tok), nil
}

// FetchProfile reconciles GitHub's user and emails endpoints into one profile.
// The primary verified email wins; any verified email is the fallback.
func (p *GitHubProvider) FetchProfile(ctx context.Context, accessToken string) (*domain.SocialProfile, error) {
	var user struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := p.getJSON(ctx, accessToken, "/user", &user); err != nil {
		return nil, err
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := p.getJSON(ctx, accessToken, "/user/emails", &emails); err != nil {
		return nil, err
	}

	var email string
	var verified bool
	for _, e := range emails {
		if e.Primary && e.Verified {
			email = e.Email
			verified = true
			break
		}
	}
	if email == "" {
		for _, e := range emails {
			if e.Verified {
				email = e.Email
				verified = true
				break
			}
		}
	}

	return &domain.SocialProfile{
		Provider:      domain.ProviderGitHub,
		ProviderID:    strconv.FormatInt(user.ID, 10),
		Email:         email,
		EmailVerified: verified,
		Name:          user.Name,
		Username:      user.Login,
		Picture:       user.AvatarURL,
	}, nil
}

// RefreshToken always fails: GitHub OAuth apps never issue refresh tokens.
// No network call is made.
func (p *GitHubProvider) RefreshToken(ctx context.Context, refreshToken string) (*domain.ProviderToken, error) {
	return nil, domain.ErrRefreshNotSupported
}

// RevokeToken deletes the application grant, which revokes every token the
// user authorized for this client.
func (p *GitHubProvider) RevokeToken(ctx context.Context, accessToken string) error {
	body, err := json.Marshal(map[string]string{"access_token": accessToken})
	if err != nil {
		return err
	}

	url := p.apiBaseURL + "/applications/" + p.conf.ClientID + "/grant"
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(p.conf.ClientID, p.conf.ClientSecret)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		return apiError(domain.ProviderGitHub, resp)
	}
	return nil
}

func (p *GitHubProvider) getJSON(ctx context.Context, accessToken, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return apiError(domain.ProviderGitHub, resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

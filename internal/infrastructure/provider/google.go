package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/roomhub/identity-service/internal/domain"
	"github.com/roomhub/identity-service/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	googleRevokeURL   = "https://oauth2.googleapis.com/revoke"
)

var googleDefaultScopes = []string{"openid", "email", "profile"}

// GoogleProvider adapts Google's OAuth 2.0 endpoints. Google flows always use
// PKCE: every authorize URL carries an S256 challenge and the matching
// verifier is returned to the caller.
type GoogleProvider struct {
	conf        *oauth2.Config
	userinfoURL string
	revokeURL   string
	httpClient  *http.Client
	logger      *zap.Logger
}

var _ domain.SocialProvider = (*GoogleProvider)(nil)

// NewGoogleProvider creates a new Google adapter
func NewGoogleProvider(cfg config.ProviderConfig, logger *zap.Logger) *GoogleProvider {
	return &GoogleProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       googleDefaultScopes,
			Endpoint:     google.Endpoint,
		},
		userinfoURL: googleUserinfoURL,
		revokeURL:   googleRevokeURL,
		httpClient:  newHTTPClient(),
		logger:      logger,
	}
}

// Name returns the provider identifier
func (p *GoogleProvider) Name() string {
	return domain.ProviderGoogle
}

// AuthorizationURL builds the Google authorize URL with a fresh PKCE verifier
func (p *GoogleProvider) AuthorizationURL(opts domain.AuthorizationURLOptions) (*domain.AuthorizationURLResult, error) {
	conf := *p.conf
	if len(opts.Scopes) > 0 {
		conf.Scopes = opts.Scopes
	}

	verifier := oauth2.GenerateVerifier()
	authOpts := append(authCodeOptions(opts.Extra), oauth2.S256ChallengeOption(verifier))

	return &domain.AuthorizationURLResult{
		URL:          conf.AuthCodeURL(opts.State, authOpts...),
		CodeVerifier: verifier,
	}, nil
}

// ExchangeCode posts the code and PKCE verifier to Google's token endpoint
func (p *GoogleProvider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*domain.ProviderToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.conf.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, exchangeError(domain.ProviderGoogle, err)
	}
	return toProviderToken(tok), nil
}

// FetchProfile normalizes Google's userinfo payload
func (p *GoogleProvider) FetchProfile(ctx context.Context, accessToken string) (*domain.SocialProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(domain.ProviderGoogle, resp)
	}

	var user struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}

	return &domain.SocialProfile{
		Provider:      domain.ProviderGoogle,
		ProviderID:    user.ID,
		Email:         user.Email,
		EmailVerified: user.VerifiedEmail,
		Name:          user.Name,
		FirstName:     user.GivenName,
		LastName:      user.FamilyName,
		Picture:       user.Picture,
	}, nil
}

// RefreshToken exchanges a refresh token for a new access token
func (p *GoogleProvider) RefreshToken(ctx context.Context, refreshToken string) (*domain.ProviderToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, exchangeError(domain.ProviderGoogle, err)
	}
	return toProviderToken(tok), nil
}

// RevokeToken posts the token to Google's revocation endpoint
func (p *GoogleProvider) RevokeToken(ctx context.Context, accessToken string) error {
	form := url.Values{"token": {accessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return apiError(domain.ProviderGoogle, resp)
	}
	return nil
}

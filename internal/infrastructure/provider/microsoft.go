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
	"golang.org/x/oauth2/microsoft"
)

const (
	microsoftGraphMeURL    = "https://graph.microsoft.com/v1.0/me"
	microsoftLogoutURL     = "https://login.microsoftonline.com/common/oauth2/v2.0/logout"
	microsoftDefaultTenant = "common"
)

var microsoftDefaultScopes = []string{"openid", "profile", "email", "offline_access", "User.Read"}

// MicrosoftProvider adapts the Microsoft identity platform (Azure AD v2.0).
// PKCE is always used, and offline_access is requested by default so refresh
// tokens are issued.
type MicrosoftProvider struct {
	conf       *oauth2.Config
	graphMeURL string
	logoutURL  string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ domain.SocialProvider = (*MicrosoftProvider)(nil)

// NewMicrosoftProvider creates a new Microsoft adapter scoped to the
// configured tenant ("common" when unset).
func NewMicrosoftProvider(cfg config.ProviderConfig, logger *zap.Logger) *MicrosoftProvider {
	tenant := cfg.Tenant
	if tenant == "" {
		tenant = microsoftDefaultTenant
	}
	return &MicrosoftProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       microsoftDefaultScopes,
			Endpoint:     microsoft.AzureADEndpoint(tenant),
		},
		graphMeURL: microsoftGraphMeURL,
		logoutURL:  microsoftLogoutURL,
		httpClient: newHTTPClient(),
		logger:     logger,
	}
}

// Name returns the provider identifier
func (p *MicrosoftProvider) Name() string {
	return domain.ProviderMicrosoft
}

// AuthorizationURL builds the authorize URL with an S256 PKCE challenge and
// returns the verifier alongside it.
func (p *MicrosoftProvider) AuthorizationURL(opts domain.AuthorizationURLOptions) (*domain.AuthorizationURLResult, error) {
	conf := *p.conf
	if len(opts.Scopes) > 0 {
		conf.Scopes = opts.Scopes
	}
	verifier := oauth2.GenerateVerifier()
	options := append(authCodeOptions(opts.Extra), oauth2.S256ChallengeOption(verifier))
	return &domain.AuthorizationURLResult{
		URL:          conf.AuthCodeURL(opts.State, options...),
		CodeVerifier: verifier,
	}, nil
}

// ExchangeCode redeems the code with the PKCE verifier from the matching
// authorization request.
func (p *MicrosoftProvider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*domain.ProviderToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.conf.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, exchangeError(domain.ProviderMicrosoft, err)
	}
	return toProviderToken(tok), nil
}

// FetchProfile reads the signed-in user from Microsoft Graph. Some accounts
// have no mail attribute; userPrincipalName stands in when it looks like an
// address.
func (p *MicrosoftProvider) FetchProfile(ctx context.Context, accessToken string) (*domain.SocialProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.graphMeURL, nil)
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
		return nil, apiError(domain.ProviderMicrosoft, resp)
	}

	var me struct {
		ID                string `json:"id"`
		DisplayName       string `json:"displayName"`
		GivenName         string `json:"givenName"`
		Surname           string `json:"surname"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, err
	}

	email := me.Mail
	if email == "" && strings.Contains(me.UserPrincipalName, "@") {
		email = me.UserPrincipalName
	}

	return &domain.SocialProfile{
		Provider:      domain.ProviderMicrosoft,
		ProviderID:    me.ID,
		Email:         email,
		EmailVerified: email != "",
		Name:          me.DisplayName,
		FirstName:     me.GivenName,
		LastName:      me.Surname,
	}, nil
}

// RefreshToken exchanges the refresh token for a fresh bundle
func (p *MicrosoftProvider) RefreshToken(ctx context.Context, refreshToken string) (*domain.ProviderToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	src := p.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, exchangeError(domain.ProviderMicrosoft, err)
	}
	return toProviderToken(tok), nil
}

// RevokeToken is best effort. The Microsoft identity platform has no
// RFC 7009 revocation endpoint for delegated tokens, so the logout endpoint
// is hit to end the session; failures other than transport errors are
// tolerated.
func (p *MicrosoftProvider) RevokeToken(ctx context.Context, accessToken string) error {
	form := url.Values{"token": {accessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.logoutURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return apiError(domain.ProviderMicrosoft, resp)
	}
	p.logger.Debug("microsoft token revocation requested", zap.Int("status", resp.StatusCode))
	return nil
}

package application

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"time"

	"github.com/roomhub/identity-service/internal/domain"
	"go.uber.org/zap"
)

const tokenValueBytes = 32

// OAuthProviderService orchestrates the authorization server grants. It holds
// no flow state of its own; every state transition lives in the injected
// stores, whose atomicity guarantees carry the single-use and rotation
// invariants.
type OAuthProviderService struct {
	clients   domain.ClientService
	codeRepo  domain.AuthorizationCodeRepository
	tokenRepo domain.TokenRepository
	logger    *zap.Logger
}

var _ domain.OAuthProvider = (*OAuthProviderService)(nil)

// NewOAuthProviderService creates a new OAuthProviderService
func NewOAuthProviderService(
	clients domain.ClientService,
	codeRepo domain.AuthorizationCodeRepository,
	tokenRepo domain.TokenRepository,
	logger *zap.Logger,
) *OAuthProviderService {
	return &OAuthProviderService{
		clients:   clients,
		codeRepo:  codeRepo,
		tokenRepo: tokenRepo,
		logger:    logger,
	}
}

// Authorize validates an authorization request for an already-authenticated
// user and issues a one-time code. The state parameter is client-opaque and is
// echoed back untouched.
func (s *OAuthProviderService) Authorize(ctx context.Context, req domain.AuthorizationRequest, userID string) (*domain.AuthorizationResponse, error) {
	if req.ResponseType != domain.ResponseTypeCode {
		return nil, domain.ErrUnsupportedResponseType
	}

	client, err := s.clients.GetClient(ctx, req.ClientID)
	if err != nil {
		return nil, domain.ErrClientNotFound
	}

	if !client.AllowsRedirectURI(req.RedirectURI) {
		s.logger.Warn("Invalid redirect URI",
			zap.String("client_id", req.ClientID),
			zap.String("redirect_uri", req.RedirectURI))
		return nil, domain.ErrInvalidRedirectURI
	}

	scopes := domain.ParseScopes(req.Scope)
	if !client.AllowsScopes(scopes) {
		s.logger.Warn("Scope not allowed for client",
			zap.String("client_id", req.ClientID),
			zap.String("scope", req.Scope))
		return nil, domain.ErrInvalidScope
	}

	if client.RequirePKCE && req.CodeChallenge == "" {
		return nil, domain.ErrPKCERequired
	}

	method := req.CodeChallengeMethod
	if req.CodeChallenge != "" {
		if method == "" {
			method = domain.CodeChallengeMethodS256
		}
		if method != domain.CodeChallengeMethodS256 {
			return nil, domain.ErrInvalidCodeVerifier
		}
	}

	code, err := domain.NewSecret(tokenValueBytes)
	if err != nil {
		s.logger.Error("Failed to generate authorization code", zap.Error(err))
		return nil, domain.ErrInternal
	}

	now := time.Now()
	authCode := &domain.AuthorizationCode{
		Code:                code,
		ClientID:            client.ID,
		UserID:              userID,
		RedirectURI:         req.RedirectURI,
		Scopes:              scopes,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: method,
		CreatedAt:           now,
		ExpiresAt:           now.Add(domain.AuthorizationCodeTTL),
	}

	if err := s.codeRepo.CreateAuthorizationCode(ctx, authCode); err != nil {
		s.logger.Error("Failed to store authorization code", zap.Error(err))
		return nil, domain.ErrInternal
	}

	s.logger.Debug("Authorization code issued",
		zap.String("client_id", client.ID),
		zap.String("user_id", userID))

	return &domain.AuthorizationResponse{Code: code, State: req.State}, nil
}

// ExchangeCodeForToken runs the authorization_code grant. The code is consumed
// exactly once; all code-bound checks run inside the store's critical section
// so a rejected exchange leaves the code intact while concurrent valid
// exchanges still serialize to a single winner.
func (s *OAuthProviderService) ExchangeCodeForToken(ctx context.Context, req domain.TokenRequest) (*domain.TokenResponse, error) {
	if req.GrantType != domain.GrantAuthorizationCode {
		return nil, domain.ErrUnsupportedGrantType
	}

	client, err := s.clients.GetClient(ctx, req.ClientID)
	if err != nil {
		return nil, domain.ErrClientNotFound
	}

	authCode, err := s.codeRepo.ConsumeAuthorizationCode(ctx, req.Code, func(code *domain.AuthorizationCode) error {
		if code.ClientID != client.ID {
			return domain.ErrInvalidAuthorizationCode
		}
		if code.RedirectURI != req.RedirectURI {
			return domain.ErrInvalidRedirectURI
		}
		if code.CodeChallenge != "" {
			if !verifyPKCE(req.CodeVerifier, code.CodeChallenge) {
				return domain.ErrInvalidCodeVerifier
			}
			return nil
		}
		if !s.clients.ValidateSecret(client, req.ClientSecret) {
			return domain.ErrInvalidClientCredentials
		}
		return nil
	})
	if err != nil {
		s.logger.Debug("Code exchange rejected", zap.String("client_id", req.ClientID), zap.Error(err))
		return nil, err
	}

	resp, err := s.issueTokens(ctx, authCode.UserID, client, authCode.Scopes)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Authorization code exchanged",
		zap.String("client_id", client.ID),
		zap.String("user_id", authCode.UserID))
	return resp, nil
}

// ClientCredentialsGrant issues a user-less access token for a confidential
// client. No refresh token is issued for this grant.
func (s *OAuthProviderService) ClientCredentialsGrant(ctx context.Context, clientID, clientSecret, scope string) (*domain.TokenResponse, error) {
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return nil, domain.ErrClientNotFound
	}

	if !client.HasGrantType(domain.GrantClientCredentials) {
		return nil, domain.ErrUnsupportedGrantType
	}

	if !s.clients.ValidateSecret(client, clientSecret) {
		return nil, domain.ErrInvalidClientCredentials
	}

	scopes := domain.ParseScopes(scope)
	if !client.AllowsScopes(scopes) {
		return nil, domain.ErrInvalidScope
	}

	accessToken, err := s.newToken(ctx, domain.TokenKindAccess, "", client.ID, scopes)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Client credentials grant issued", zap.String("client_id", client.ID))

	return &domain.TokenResponse{
		AccessToken: accessToken.Value,
		TokenType:   domain.BearerTokenType,
		ExpiresIn:   int64(domain.AccessTokenTTL.Seconds()),
		Scope:       domain.JoinScopes(scopes),
	}, nil
}

// RefreshTokenGrant rotates a refresh token. All validation happens before the
// rotation point, so a failed refresh never invalidates the presented token;
// the revocation of the old token is the single atomic step that decides
// concurrent refresh races.
func (s *OAuthProviderService) RefreshTokenGrant(ctx context.Context, refreshToken, clientID, clientSecret, scope string) (*domain.TokenResponse, error) {
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return nil, domain.ErrClientNotFound
	}

	if !client.HasGrantType(domain.GrantRefreshToken) {
		return nil, domain.ErrUnsupportedGrantType
	}

	if !s.clients.ValidateSecret(client, clientSecret) {
		return nil, domain.ErrInvalidClientCredentials
	}

	token, err := s.tokenRepo.FindToken(ctx, refreshToken)
	if err != nil || token.Kind != domain.TokenKindRefresh || token.ClientID != client.ID {
		return nil, domain.ErrInvalidRefreshToken
	}
	if token.Revoked || token.IsExpired(time.Now()) {
		return nil, domain.ErrInvalidRefreshToken
	}

	scopes := token.Scopes
	if scope != "" {
		requested := domain.ParseScopes(scope)
		if !domain.ScopesContain(token.Scopes, requested) {
			return nil, domain.ErrScopeExpansion
		}
		scopes = requested
	}

	// Rotation point. Losing a concurrent race surfaces as an already-revoked
	// token, which is indistinguishable from presenting a stale one.
	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		return nil, domain.ErrInvalidRefreshToken
	}

	resp, err := s.issueTokens(ctx, token.UserID, client, scopes)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Refresh token rotated",
		zap.String("client_id", client.ID),
		zap.String("user_id", token.UserID))
	return resp, nil
}

// ValidateAccessToken resolves an access token into its bound identity and
// scope. Expiry is checked lazily here; there is no background sweep.
func (s *OAuthProviderService) ValidateAccessToken(ctx context.Context, value string) *domain.TokenValidation {
	token, err := s.tokenRepo.FindToken(ctx, value)
	if err != nil || token.Kind != domain.TokenKindAccess {
		return &domain.TokenValidation{Valid: false, Error: domain.ErrInvalidToken.GetMessage()}
	}
	if token.Revoked {
		return &domain.TokenValidation{Valid: false, Error: domain.ErrTokenRevoked.GetMessage()}
	}
	if token.IsExpired(time.Now()) {
		return &domain.TokenValidation{Valid: false, Error: domain.ErrTokenExpired.GetMessage()}
	}
	return &domain.TokenValidation{
		Valid:     true,
		UserID:    token.UserID,
		ClientID:  token.ClientID,
		Scope:     domain.JoinScopes(token.Scopes),
		ExpiresAt: token.ExpiresAt,
	}
}

// RevokeToken invalidates a single token. Revoking an already-revoked token is
// a no-op rather than an error.
func (s *OAuthProviderService) RevokeToken(ctx context.Context, value string) error {
	err := s.tokenRepo.RevokeToken(ctx, value)
	if err != nil && !errors.Is(err, domain.ErrTokenRevoked) {
		return err
	}
	return nil
}

// RevokeAllUserTokens invalidates every token bound to the user
func (s *OAuthProviderService) RevokeAllUserTokens(ctx context.Context, userID string) error {
	if err := s.tokenRepo.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Error("Failed to revoke user tokens",
			zap.String("user_id", userID),
			zap.Error(err))
		return domain.ErrInternal
	}
	s.logger.Info("Revoked all tokens for user", zap.String("user_id", userID))
	return nil
}

// issueTokens mints an access token and, when the client declared the
// refresh_token grant, a refresh token scoped identically.
func (s *OAuthProviderService) issueTokens(ctx context.Context, userID string, client *domain.OAuthClient, scopes []string) (*domain.TokenResponse, error) {
	accessToken, err := s.newToken(ctx, domain.TokenKindAccess, userID, client.ID, scopes)
	if err != nil {
		return nil, err
	}

	resp := &domain.TokenResponse{
		AccessToken: accessToken.Value,
		TokenType:   domain.BearerTokenType,
		ExpiresIn:   int64(domain.AccessTokenTTL.Seconds()),
		Scope:       domain.JoinScopes(scopes),
	}

	if client.HasGrantType(domain.GrantRefreshToken) {
		refresh, err := s.newToken(ctx, domain.TokenKindRefresh, userID, client.ID, scopes)
		if err != nil {
			return nil, err
		}
		resp.RefreshToken = refresh.Value
	}

	return resp, nil
}

func (s *OAuthProviderService) newToken(ctx context.Context, kind, userID, clientID string, scopes []string) (*domain.Token, error) {
	value, err := domain.NewSecret(tokenValueBytes)
	if err != nil {
		s.logger.Error("Failed to generate token value", zap.Error(err))
		return nil, domain.ErrInternal
	}

	now := time.Now()
	token := &domain.Token{
		Value:     value,
		Kind:      kind,
		UserID:    userID,
		ClientID:  clientID,
		Scopes:    scopes,
		CreatedAt: now,
	}
	if kind == domain.TokenKindAccess {
		token.ExpiresAt = now.Add(domain.AccessTokenTTL)
	}

	if err := s.tokenRepo.CreateToken(ctx, token); err != nil {
		s.logger.Error("Failed to store token", zap.Error(err))
		return nil, domain.ErrInternal
	}
	return token, nil
}

// verifyPKCE derives the S256 challenge from the verifier and compares it in
// constant time against the stored challenge.
func verifyPKCE(verifier, challenge string) bool {
	if verifier == "" {
		return false
	}
	hash := sha256.Sum256([]byte(verifier))
	derived := base64.RawURLEncoding.EncodeToString(hash[:])
	return subtle.ConstantTimeCompare([]byte(derived), []byte(challenge)) == 1
}

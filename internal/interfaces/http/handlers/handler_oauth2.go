package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/roomhub/identity-service/internal/domain"
	apperrors "github.com/roomhub/identity-service/internal/domain/errors"
	httperrors "github.com/roomhub/identity-service/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// OAuth2Handler exposes the authorization server endpoints. It only parses,
// dispatches and marshals; grant decisions live in the provider.
type OAuth2Handler struct {
	provider domain.OAuthProvider
	logger   *zap.Logger
}

// NewOAuth2Handler creates a new OAuth2Handler
func NewOAuth2Handler(provider domain.OAuthProvider, logger *zap.Logger) *OAuth2Handler {
	return &OAuth2Handler{
		provider: provider,
		logger:   logger,
	}
}

// AuthorizeHandler handles the authorization endpoint. The authenticated user
// comes from the bearer middleware; on success the browser is redirected back
// to the client with the code and the untouched state.
func (h *OAuth2Handler) AuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := domain.AuthorizationRequest{
		ClientID:            q.Get("client_id"),
		RedirectURI:         q.Get("redirect_uri"),
		Scope:               q.Get("scope"),
		State:               q.Get("state"),
		ResponseType:        q.Get("response_type"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
	}

	var errs httperrors.ValidationErrors
	if req.ClientID == "" {
		errs.Add("client_id", "client_id is required")
	}
	if req.RedirectURI == "" {
		errs.Add("redirect_uri", "redirect_uri is required")
	}
	if errs.HasErrors() {
		errs.Respond(w)
		return
	}

	userID, ok := domain.GetSubject(r.Context())
	if !ok || userID == "" {
		h.logger.Error("User not authenticated on authorize")
		httperrors.RespondWithError(w, apperrors.New(apperrors.CodeUnauthorizedClient, "User not authenticated"))
		return
	}

	resp, err := h.provider.Authorize(r.Context(), req, userID)
	if err != nil {
		h.logger.Error("Authorization failed",
			zap.String("client_id", req.ClientID),
			zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	h.logger.Info("Authorization code issued", zap.String("client_id", req.ClientID))

	redirectURL, err := url.Parse(req.RedirectURI)
	if err != nil {
		httperrors.RespondWithError(w, domain.ErrInvalidRedirectURI)
		return
	}
	values := redirectURL.Query()
	values.Set("code", resp.Code)
	if resp.State != "" {
		values.Set("state", resp.State)
	}
	redirectURL.RawQuery = values.Encode()

	http.Redirect(w, r, redirectURL.String(), http.StatusFound)
}

// TokenHandler handles the token endpoint for all supported grants. Client
// credentials may arrive in the form body or as HTTP basic auth.
func (h *OAuth2Handler) TokenHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Error("Failed to parse token request form", zap.Error(err))
		var v httperrors.ValidationErrors
		v.Add("body", "Invalid form body")
		v.Respond(w)
		return
	}

	req := domain.TokenRequest{
		GrantType:    r.PostFormValue("grant_type"),
		Code:         r.PostFormValue("code"),
		RedirectURI:  r.PostFormValue("redirect_uri"),
		ClientID:     r.PostFormValue("client_id"),
		ClientSecret: r.PostFormValue("client_secret"),
		CodeVerifier: r.PostFormValue("code_verifier"),
		RefreshToken: r.PostFormValue("refresh_token"),
		Scope:        r.PostFormValue("scope"),
	}
	if id, secret, ok := r.BasicAuth(); ok {
		req.ClientID = id
		req.ClientSecret = secret
	}

	h.logger.Debug("Received token request",
		zap.String("grant_type", req.GrantType),
		zap.String("client_id", req.ClientID))

	var resp *domain.TokenResponse
	var err error

	switch req.GrantType {
	case domain.GrantAuthorizationCode:
		resp, err = h.provider.ExchangeCodeForToken(r.Context(), req)
	case domain.GrantClientCredentials:
		resp, err = h.provider.ClientCredentialsGrant(r.Context(), req.ClientID, req.ClientSecret, req.Scope)
	case domain.GrantRefreshToken:
		resp, err = h.provider.RefreshTokenGrant(r.Context(), req.RefreshToken, req.ClientID, req.ClientSecret, req.Scope)
	default:
		h.logger.Error("Unsupported grant type", zap.String("grant_type", req.GrantType))
		httperrors.RespondWithError(w, domain.ErrUnsupportedGrantType)
		return
	}

	if err != nil {
		h.logger.Error("Token request failed",
			zap.String("grant_type", req.GrantType),
			zap.String("client_id", req.ClientID),
			zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(resp)
}

// RevokeHandler invalidates a single token. Per RFC 7009 revoking an unknown
// token is not an error.
func (h *OAuth2Handler) RevokeHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		var v httperrors.ValidationErrors
		v.Add("body", "Invalid form body")
		v.Respond(w)
		return
	}

	token := r.PostFormValue("token")
	if token == "" {
		var v httperrors.ValidationErrors
		v.Add("token", "token is required")
		v.Respond(w)
		return
	}

	if err := h.provider.RevokeToken(r.Context(), token); err != nil && !errors.Is(err, domain.ErrTokenNotFound) {
		h.logger.Error("Failed to revoke token", zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// IntrospectHandler resolves an access token into its bound identity and scope
func (h *OAuth2Handler) IntrospectHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		var v httperrors.ValidationErrors
		v.Add("body", "Invalid form body")
		v.Respond(w)
		return
	}

	token := r.PostFormValue("token")
	if token == "" {
		var v httperrors.ValidationErrors
		v.Add("token", "token is required")
		v.Respond(w)
		return
	}

	validation := h.provider.ValidateAccessToken(r.Context(), token)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(validation)
}

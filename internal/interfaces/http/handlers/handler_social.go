package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/roomhub/identity-service/internal/domain"
	apperrors "github.com/roomhub/identity-service/internal/domain/errors"
	httperrors "github.com/roomhub/identity-service/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// SocialService is the slice of the social login engine the handler needs:
// the linking operations plus adapter lookup for the code exchange.
type SocialService interface {
	domain.SocialLoginService
	Provider(name string) (domain.SocialProvider, error)
}

// SocialLinkRequest carries the callback result of a provider authorization
type SocialLinkRequest struct {
	Code         string `json:"code"`
	CodeVerifier string `json:"code_verifier,omitempty"`
}

// SocialHandler handles social identity linking endpoints
type SocialHandler struct {
	social SocialService
	logger *zap.Logger
}

// NewSocialHandler creates a new SocialHandler
func NewSocialHandler(social SocialService, logger *zap.Logger) *SocialHandler {
	return &SocialHandler{
		social: social,
		logger: logger,
	}
}

// AuthorizationURLHandler builds the provider authorize URL. The returned
// code_verifier, when present, must be sent back on the link request.
func (h *SocialHandler) AuthorizationURLHandler(w http.ResponseWriter, r *http.Request) {
	provider, err := h.social.Provider(chi.URLParam(r, "provider"))
	if err != nil {
		httperrors.RespondWithError(w, err)
		return
	}

	opts := domain.AuthorizationURLOptions{
		State: r.URL.Query().Get("state"),
	}
	if scope := r.URL.Query().Get("scope"); scope != "" {
		opts.Scopes = strings.Fields(scope)
	}

	result, err := provider.AuthorizationURL(opts)
	if err != nil {
		h.logger.Error("Failed to build authorization URL",
			zap.String("provider", provider.Name()),
			zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// LinkAccountHandler exchanges the callback code, fetches the provider
// profile and links the identity to the authenticated user
func (h *SocialHandler) LinkAccountHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := domain.GetSubject(r.Context())
	if !ok || userID == "" {
		httperrors.RespondWithError(w, apperrors.New(apperrors.CodeUnauthorizedClient, "User not authenticated"))
		return
	}

	provider, err := h.social.Provider(chi.URLParam(r, "provider"))
	if err != nil {
		httperrors.RespondWithError(w, err)
		return
	}

	var req SocialLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var v httperrors.ValidationErrors
		v.Add("body", "Invalid request body")
		v.Respond(w)
		return
	}
	if req.Code == "" {
		var v httperrors.ValidationErrors
		v.Add("code", "code is required")
		v.Respond(w)
		return
	}

	token, err := provider.ExchangeCode(r.Context(), req.Code, req.CodeVerifier)
	if err != nil {
		h.logger.Error("Code exchange with provider failed",
			zap.String("provider", provider.Name()),
			zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	profile, err := provider.FetchProfile(r.Context(), token.AccessToken)
	if err != nil {
		h.logger.Error("Failed to fetch provider profile",
			zap.String("provider", provider.Name()),
			zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	account, err := h.social.LinkAccount(r.Context(), userID, profile, token)
	if err != nil {
		h.logger.Error("Failed to link account",
			zap.String("provider", provider.Name()),
			zap.String("user_id", userID),
			zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	h.logger.Info("Social account linked",
		zap.String("provider", provider.Name()),
		zap.String("user_id", userID))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(account)
}

// UnlinkAccountHandler removes the user's links for the provider
func (h *SocialHandler) UnlinkAccountHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := domain.GetSubject(r.Context())
	if !ok || userID == "" {
		httperrors.RespondWithError(w, apperrors.New(apperrors.CodeUnauthorizedClient, "User not authenticated"))
		return
	}

	provider := chi.URLParam(r, "provider")
	if err := h.social.UnlinkAccount(r.Context(), userID, provider); err != nil {
		h.logger.Error("Failed to unlink account",
			zap.String("provider", provider),
			zap.String("user_id", userID),
			zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAccountsHandler lists the authenticated user's linked accounts
func (h *SocialHandler) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := domain.GetSubject(r.Context())
	if !ok || userID == "" {
		httperrors.RespondWithError(w, apperrors.New(apperrors.CodeUnauthorizedClient, "User not authenticated"))
		return
	}

	accounts, err := h.social.GetLinkedAccounts(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list linked accounts",
			zap.String("user_id", userID),
			zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(accounts)
}

// SyncProfileHandler refetches the provider profile and overwrites the stored
// email, name and picture
func (h *SocialHandler) SyncProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := domain.GetSubject(r.Context())
	if !ok || userID == "" {
		httperrors.RespondWithError(w, apperrors.New(apperrors.CodeUnauthorizedClient, "User not authenticated"))
		return
	}

	provider := chi.URLParam(r, "provider")
	profile, err := h.social.SyncProfile(r.Context(), userID, provider)
	if err != nil {
		h.logger.Error("Failed to sync profile",
			zap.String("provider", provider),
			zap.String("user_id", userID),
			zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(profile)
}

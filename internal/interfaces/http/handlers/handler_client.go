package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/roomhub/identity-service/internal/domain"
	httperrors "github.com/roomhub/identity-service/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// ClientRegistry is the slice of the client service the handler needs
type ClientRegistry interface {
	RegisterClient(ctx context.Context, def domain.ClientDefinition) (*domain.RegisteredClient, error)
	GetClient(ctx context.Context, clientID string) (*domain.OAuthClient, error)
	ListClients(ctx context.Context) ([]*domain.OAuthClient, error)
}

// ClientHandler handles OAuth2 client management
type ClientHandler struct {
	clients ClientRegistry
	logger  *zap.Logger
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(clients ClientRegistry, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		clients: clients,
		logger:  logger,
	}
}

// RegisterClientHandler handles the registration of a new OAuth2 client.
// The response is the only place the generated plaintext secret ever appears.
func (h *ClientHandler) RegisterClientHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.ClientDefinition
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request body", zap.Error(err))
		var v httperrors.ValidationErrors
		v.Add("body", "Invalid request body")
		v.Respond(w)
		return
	}

	if errs := validateClientDefinition(req); errs.HasErrors() {
		h.logger.Error("Invalid client definition", zap.Any("validation_errors", errs))
		errs.Respond(w)
		return
	}

	client, err := h.clients.RegisterClient(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to register client", zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	h.logger.Info("OAuth2 client registered", zap.String("client_id", client.ID))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(client)
}

// GetClientHandler handles getting a single OAuth2 client
func (h *ClientHandler) GetClientHandler(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "id")
	if clientID == "" {
		var v httperrors.ValidationErrors
		v.Add("id", "Client ID is required")
		v.Respond(w)
		return
	}

	client, err := h.clients.GetClient(r.Context(), clientID)
	if err != nil {
		h.logger.Error("Failed to find client", zap.String("client_id", clientID), zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(client)
}

// ListClientsHandler handles listing all OAuth2 clients
func (h *ClientHandler) ListClientsHandler(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.ListClients(r.Context())
	if err != nil {
		h.logger.Error("Failed to list clients", zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(clients)
}

func validateClientDefinition(req domain.ClientDefinition) httperrors.ValidationErrors {
	var errs httperrors.ValidationErrors
	if len(req.RedirectURIs) == 0 {
		errs.Add("redirect_uris", "At least one redirect URI is required")
	}
	if len(req.GrantTypes) == 0 {
		errs.Add("grant_types", "At least one grant type is required")
	}
	if len(req.Scopes) == 0 {
		errs.Add("scopes", "At least one scope is required")
	}
	return errs
}

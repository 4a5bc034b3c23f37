package auth

import (
	"net/http"
	"strings"

	"github.com/roomhub/identity-service/internal/domain"
	apperrors "github.com/roomhub/identity-service/internal/domain/errors"
	httperrors "github.com/roomhub/identity-service/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// AuthMiddleware guards routes behind a bearer access token. Tokens are
// opaque; every request resolves the token against the store, so a revoked
// token is rejected immediately.
type AuthMiddleware struct {
	provider domain.OAuthProvider
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(provider domain.OAuthProvider, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{provider: provider, logger: logger}
}

// Authenticator validates the bearer token and stores the bound subject,
// client and scopes on the request context.
func (m *AuthMiddleware) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			httperrors.RespondWithError(w, apperrors.New(apperrors.CodeUnauthorizedClient, "Missing bearer token"))
			return
		}

		validation := m.provider.ValidateAccessToken(r.Context(), token)
		if !validation.Valid {
			m.logger.Debug("Rejected bearer token", zap.String("reason", validation.Error))
			httperrors.RespondWithError(w, apperrors.New(apperrors.CodeUnauthorizedClient, "Invalid access token"))
			return
		}

		ctx := domain.WithSubject(r.Context(), validation.UserID)
		ctx = domain.WithClientID(ctx, validation.ClientID)
		ctx = domain.WithScopes(ctx, domain.ParseScopes(validation.Scope))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireScope rejects requests whose token was not granted the scope
func (m *AuthMiddleware) RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scopes, ok := domain.GetScopes(r.Context())
			if !ok || !domain.ScopesContain(scopes, []string{scope}) {
				httperrors.RespondWithError(w, apperrors.New(apperrors.CodeAccessDenied, "Insufficient scope"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/roomhub/identity-service/internal/application"
	"github.com/roomhub/identity-service/internal/infrastructure/config"
	"github.com/roomhub/identity-service/internal/infrastructure/database"
	"github.com/roomhub/identity-service/internal/infrastructure/provider"
	"github.com/roomhub/identity-service/internal/infrastructure/repository"
	"github.com/roomhub/identity-service/internal/interfaces/http/handlers"
	"github.com/roomhub/identity-service/internal/interfaces/http/middleware/auth"
	"github.com/roomhub/identity-service/internal/interfaces/http/middleware/ratelimit"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

type Router struct {
	router *chi.Mux
	db     *database.Postgres
}

func NewRouter(
	db *database.Postgres,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	clientRepo := repository.NewClientRepository(db, logger)
	codeRepo := repository.NewAuthorizationCodeRepository(db, logger)
	tokenRepo := repository.NewTokenRepository(db, logger)
	linkRepo := repository.NewLinkedAccountRepository(db, logger)

	clientService := application.NewClientService(clientRepo, logger)
	oauthProvider := application.NewOAuthProviderService(clientService, codeRepo, tokenRepo, logger)
	socialService := application.NewSocialService(linkRepo, provider.FromConfig(cfg, logger), cfg.AccountLinkingStrategy, logger)

	authMiddleware := auth.NewAuthMiddleware(oauthProvider, logger)

	// Initialize handlers
	clientHandler := handlers.NewClientHandler(clientService, logger)
	oauth2Handler := handlers.NewOAuth2Handler(oauthProvider, logger)
	socialHandler := handlers.NewSocialHandler(socialService, logger)

	// Create router with middleware
	router := createRouter()

	rateLimiter := ratelimit.NewRateLimiter(100, 200, 3*time.Minute, logger)
	router.Use(rateLimiter.Middleware)

	// Health check endpoints
	router.Group(func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
			// Check database connection
			if err := db.Ping(); err != nil {
				logger.Error("Database health check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("Database connection failed"))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Ready"))
		})

		r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Alive"))
		})
	})

	// Swagger UI configuration
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
		httpSwagger.DeepLinking(true),
		httpSwagger.PersistAuthorization(true),
	))

	// Serve Swagger JSON with CORS headers
	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "docs/swagger.json")
	})

	// API routes without version in URL
	router.Route("/api", func(r chi.Router) {
		// Token endpoint group; clients authenticate with their own
		// credentials, not a bearer token
		r.Group(func(r chi.Router) {
			r.Post("/oauth2/token", oauth2Handler.TokenHandler)
			r.Post("/oauth2/revoke", oauth2Handler.RevokeHandler)
			r.Post("/oauth2/introspect", oauth2Handler.IntrospectHandler)
		})

		// Client management routes
		r.Group(func(r chi.Router) {
			r.Post("/oauth2/clients", clientHandler.RegisterClientHandler)
			r.Get("/oauth2/clients/{id}", clientHandler.GetClientHandler)
			r.Get("/oauth2/clients", clientHandler.ListClientsHandler)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticator)
			r.Get("/oauth2/authorize", oauth2Handler.AuthorizeHandler)

			r.Get("/social/{provider}/url", socialHandler.AuthorizationURLHandler)
			r.Post("/social/{provider}/link", socialHandler.LinkAccountHandler)
			r.Post("/social/{provider}/sync", socialHandler.SyncProfileHandler)
			r.Delete("/social/{provider}", socialHandler.UnlinkAccountHandler)
			r.Get("/social/accounts", socialHandler.ListAccountsHandler)
		})
	})

	return &Router{router: router, db: db}
}

func createRouter() *chi.Mux {
	router := chi.NewRouter()

	// Add middleware
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Timeout(60 * time.Second))

	return router
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

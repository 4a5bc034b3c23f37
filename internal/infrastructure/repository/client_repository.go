package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/roomhub/identity-service/internal/domain"
	"github.com/roomhub/identity-service/internal/infrastructure/database"
	"go.uber.org/zap"
)

// PostgresClientRepository implements ClientRepository using PostgreSQL
type PostgresClientRepository struct {
	db     *database.Postgres
	logger *zap.Logger
}

// NewClientRepository creates a new PostgresClientRepository
func NewClientRepository(db *database.Postgres, logger *zap.Logger) domain.ClientRepository {
	return &PostgresClientRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresClientRepository) CreateClient(ctx context.Context, client *domain.OAuthClient) error {
	redirectURIs, err := json.Marshal(client.RedirectURIs)
	if err != nil {
		return err
	}

	grantTypes, err := json.Marshal(client.GrantTypes)
	if err != nil {
		return err
	}

	scopes, err := json.Marshal(client.Scopes)
	if err != nil {
		return err
	}

	return r.db.Exec(ctx, `
		INSERT INTO oauth_clients (id, secret_hash, redirect_uris, grant_types, scopes, require_pkce, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, client.ID, client.SecretHash, redirectURIs, grantTypes, scopes, client.RequirePKCE, client.CreatedAt)
}

func (r *PostgresClientRepository) FindClientByID(ctx context.Context, id string) (*domain.OAuthClient, error) {
	client := &domain.OAuthClient{}
	var redirectURIs, grantTypes, scopes []byte

	err := r.db.QueryRow(ctx, `
		SELECT id, secret_hash, redirect_uris, grant_types, scopes, require_pkce, created_at
		FROM oauth_clients WHERE id = $1
	`, id).Scan(&client.ID, &client.SecretHash, &redirectURIs, &grantTypes, &scopes, &client.RequirePKCE, &client.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		return nil, err
	}

	if err := unmarshalClientColumns(client, redirectURIs, grantTypes, scopes); err != nil {
		return nil, err
	}
	return client, nil
}

func (r *PostgresClientRepository) ListClients(ctx context.Context) ([]*domain.OAuthClient, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, secret_hash, redirect_uris, grant_types, scopes, require_pkce, created_at
		FROM oauth_clients
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []*domain.OAuthClient
	for rows.Next() {
		client := &domain.OAuthClient{}
		var redirectURIs, grantTypes, scopes []byte

		if err := rows.Scan(&client.ID, &client.SecretHash, &redirectURIs, &grantTypes, &scopes, &client.RequirePKCE, &client.CreatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalClientColumns(client, redirectURIs, grantTypes, scopes); err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

func unmarshalClientColumns(client *domain.OAuthClient, redirectURIs, grantTypes, scopes []byte) error {
	if err := json.Unmarshal(redirectURIs, &client.RedirectURIs); err != nil {
		return err
	}
	if err := json.Unmarshal(grantTypes, &client.GrantTypes); err != nil {
		return err
	}
	return json.Unmarshal(scopes, &client.Scopes)
}

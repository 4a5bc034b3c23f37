package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/roomhub/identity-service/internal/domain"
	"github.com/roomhub/identity-service/internal/infrastructure/database"
	"go.uber.org/zap"
)

// PostgresTokenRepository implements TokenRepository using PostgreSQL
type PostgresTokenRepository struct {
	db     *database.Postgres
	logger *zap.Logger
}

// NewTokenRepository creates a new PostgresTokenRepository
func NewTokenRepository(db *database.Postgres, logger *zap.Logger) domain.TokenRepository {
	return &PostgresTokenRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresTokenRepository) CreateToken(ctx context.Context, token *domain.Token) error {
	scopes, err := json.Marshal(token.Scopes)
	if err != nil {
		return err
	}

	var expiresAt interface{}
	if !token.ExpiresAt.IsZero() {
		expiresAt = token.ExpiresAt
	}

	return r.db.Exec(ctx, `
		INSERT INTO oauth_tokens (value, kind, user_id, client_id, scopes, created_at, expires_at, revoked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, token.Value, token.Kind, token.UserID, token.ClientID, scopes, token.CreatedAt, expiresAt, token.Revoked)
}

func (r *PostgresTokenRepository) FindToken(ctx context.Context, value string) (*domain.Token, error) {
	token := &domain.Token{}
	var scopes []byte
	var expiresAt *time.Time

	err := r.db.QueryRow(ctx, `
		SELECT value, kind, user_id, client_id, scopes, created_at, expires_at, revoked
		FROM oauth_tokens WHERE value = $1
	`, value).Scan(&token.Value, &token.Kind, &token.UserID, &token.ClientID, &scopes, &token.CreatedAt, &expiresAt, &token.Revoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}

	if expiresAt != nil {
		token.ExpiresAt = *expiresAt
	}

	if err := json.Unmarshal(scopes, &token.Scopes); err != nil {
		return nil, err
	}
	return token, nil
}

// RevokeToken flips revoked in a single statement; the WHERE NOT revoked
// predicate makes the rotation race a one-winner update.
func (r *PostgresTokenRepository) RevokeToken(ctx context.Context, value string) error {
	tag, err := r.db.ExecRaw(ctx, `
		UPDATE oauth_tokens SET revoked = TRUE WHERE value = $1 AND NOT revoked
	`, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.FindToken(ctx, value); err != nil {
			return err
		}
		return domain.ErrTokenRevoked
	}
	return nil
}

func (r *PostgresTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	return r.db.Exec(ctx, `
		UPDATE oauth_tokens SET revoked = TRUE WHERE user_id = $1
	`, userID)
}

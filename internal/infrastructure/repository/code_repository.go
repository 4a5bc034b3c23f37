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

// PostgresAuthorizationCodeRepository implements AuthorizationCodeRepository
// using PostgreSQL. Consume takes a row lock so concurrent exchanges for the
// same code serialize on the database.
type PostgresAuthorizationCodeRepository struct {
	db     *database.Postgres
	logger *zap.Logger
}

// NewAuthorizationCodeRepository creates a new PostgresAuthorizationCodeRepository
func NewAuthorizationCodeRepository(db *database.Postgres, logger *zap.Logger) domain.AuthorizationCodeRepository {
	return &PostgresAuthorizationCodeRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresAuthorizationCodeRepository) CreateAuthorizationCode(ctx context.Context, code *domain.AuthorizationCode) error {
	scopes, err := json.Marshal(code.Scopes)
	if err != nil {
		return err
	}

	return r.db.Exec(ctx, `
		INSERT INTO authorization_codes
			(code, client_id, user_id, redirect_uri, scopes, code_challenge, code_challenge_method, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, code.Code, code.ClientID, code.UserID, code.RedirectURI, scopes,
		code.CodeChallenge, code.CodeChallengeMethod, code.CreatedAt, code.ExpiresAt)
}

func (r *PostgresAuthorizationCodeRepository) ConsumeAuthorizationCode(ctx context.Context, code string, check func(*domain.AuthorizationCode) error) (*domain.AuthorizationCode, error) {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	record := &domain.AuthorizationCode{}
	var scopes []byte

	err = tx.QueryRow(ctx, `
		SELECT code, client_id, user_id, redirect_uri, scopes, code_challenge, code_challenge_method, created_at, expires_at
		FROM authorization_codes WHERE code = $1
		FOR UPDATE
	`, code).Scan(&record.Code, &record.ClientID, &record.UserID, &record.RedirectURI, &scopes,
		&record.CodeChallenge, &record.CodeChallengeMethod, &record.CreatedAt, &record.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvalidAuthorizationCode
		}
		return nil, err
	}

	if err := json.Unmarshal(scopes, &record.Scopes); err != nil {
		return nil, err
	}

	if record.IsExpired(time.Now()) {
		if _, err := tx.Exec(ctx, "DELETE FROM authorization_codes WHERE code = $1", code); err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidAuthorizationCode
	}

	if check != nil {
		// Rolling back the transaction leaves the code in place for a later
		// correct exchange.
		if err := check(record); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM authorization_codes WHERE code = $1", code); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("Failed to commit code consumption", zap.Error(err))
		return nil, err
	}
	return record, nil
}

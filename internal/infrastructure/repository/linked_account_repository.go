package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/roomhub/identity-service/internal/domain"
	"github.com/roomhub/identity-service/internal/infrastructure/database"
	"go.uber.org/zap"
)

// PostgresLinkedAccountRepository implements LinkedAccountRepository using
// PostgreSQL. The unique index on (provider, provider_user_id) backs the
// cross-user uniqueness invariant at the storage layer.
type PostgresLinkedAccountRepository struct {
	db     *database.Postgres
	logger *zap.Logger
}

// NewLinkedAccountRepository creates a new PostgresLinkedAccountRepository
func NewLinkedAccountRepository(db *database.Postgres, logger *zap.Logger) domain.LinkedAccountRepository {
	return &PostgresLinkedAccountRepository{
		db:     db,
		logger: logger,
	}
}

const linkedAccountColumns = `id, user_id, provider, provider_user_id, email, name, picture,
	access_token, refresh_token, expires_at, created_at, updated_at`

func (r *PostgresLinkedAccountRepository) CreateLinkedAccount(ctx context.Context, account *domain.LinkedAccount) error {
	return r.db.Exec(ctx, `
		INSERT INTO linked_accounts
			(id, user_id, provider, provider_user_id, email, name, picture, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, account.ID, account.UserID, account.Provider, account.ProviderID, account.Email, account.Name,
		account.Picture, account.AccessToken, account.RefreshToken, account.ExpiresAt, account.CreatedAt, account.UpdatedAt)
}

func (r *PostgresLinkedAccountRepository) UpdateLinkedAccount(ctx context.Context, account *domain.LinkedAccount) error {
	return r.db.Exec(ctx, `
		UPDATE linked_accounts
		SET provider_user_id = $1, email = $2, name = $3, picture = $4,
			access_token = $5, refresh_token = $6, expires_at = $7, updated_at = $8
		WHERE id = $9
	`, account.ProviderID, account.Email, account.Name, account.Picture,
		account.AccessToken, account.RefreshToken, account.ExpiresAt, account.UpdatedAt, account.ID)
}

func (r *PostgresLinkedAccountRepository) FindByProviderID(ctx context.Context, provider, providerID string) (*domain.LinkedAccount, error) {
	return r.scanOne(r.db.QueryRow(ctx, `
		SELECT `+linkedAccountColumns+`
		FROM linked_accounts WHERE provider = $1 AND provider_user_id = $2
	`, provider, providerID))
}

func (r *PostgresLinkedAccountRepository) FindByUserAndProvider(ctx context.Context, userID, provider string) (*domain.LinkedAccount, error) {
	return r.scanOne(r.db.QueryRow(ctx, `
		SELECT `+linkedAccountColumns+`
		FROM linked_accounts WHERE user_id = $1 AND provider = $2
		ORDER BY created_at
		LIMIT 1
	`, userID, provider))
}

func (r *PostgresLinkedAccountRepository) ListByUser(ctx context.Context, userID string) ([]*domain.LinkedAccount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+linkedAccountColumns+`
		FROM linked_accounts WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.LinkedAccount
	for rows.Next() {
		account := &domain.LinkedAccount{}
		if err := rows.Scan(&account.ID, &account.UserID, &account.Provider, &account.ProviderID,
			&account.Email, &account.Name, &account.Picture, &account.AccessToken, &account.RefreshToken,
			&account.ExpiresAt, &account.CreatedAt, &account.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *PostgresLinkedAccountRepository) DeleteByUserAndProvider(ctx context.Context, userID, provider string) error {
	tag, err := r.db.ExecRaw(ctx, `
		DELETE FROM linked_accounts WHERE user_id = $1 AND provider = $2
	`, userID, provider)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLinkNotFound
	}
	return nil
}

func (r *PostgresLinkedAccountRepository) scanOne(row pgx.Row) (*domain.LinkedAccount, error) {
	account := &domain.LinkedAccount{}
	err := row.Scan(&account.ID, &account.UserID, &account.Provider, &account.ProviderID,
		&account.Email, &account.Name, &account.Picture, &account.AccessToken, &account.RefreshToken,
		&account.ExpiresAt, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, err
	}
	return account, nil
}

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-ddd-auth-service/internal/domain/repository"
)

const resetColumns = `id, user_id, token_hash, expires_at, consumed_at, created_at`

type PasswordResetRepository struct {
	pool DB
}

func NewPasswordResetRepository(pool DB) *PasswordResetRepository {
	return &PasswordResetRepository{pool: pool}
}

func (r *PasswordResetRepository) Create(ctx context.Context, pr *entity.PasswordReset) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO password_resets (user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, pr.UserID, pr.TokenHash, pr.ExpiresAt, pr.CreatedAt).Scan(&pr.ID)
}

func (r *PasswordResetRepository) GetActive(ctx context.Context, tokenHash string) (*entity.PasswordReset, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+resetColumns+`
		FROM password_resets
		WHERE token_hash = $1 AND consumed_at IS NULL AND expires_at > now()
	`, tokenHash)
	return scanReset(row)
}

// Redeem runs the conditional consume and the password update in one
// transaction, so a failed update leaves the token usable.
func (r *PasswordResetRepository) Redeem(ctx context.Context, tokenHash, passwordHash string) (pr *entity.PasswordReset, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	pr, err = scanReset(tx.QueryRow(ctx, `
		UPDATE password_resets
		SET consumed_at = now()
		WHERE token_hash = $1 AND consumed_at IS NULL AND expires_at > now()
		RETURNING `+resetColumns, tokenHash))
	if err != nil {
		return nil, err
	}
	res, err := tx.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, passwordHash, pr.UserID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected() == 0 {
		err = repository.ErrNotFound
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return pr, nil
}

func (r *PasswordResetRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM password_resets WHERE user_id = $1`, userID)
	return err
}

func (r *PasswordResetRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.pool.Exec(ctx,
		`DELETE FROM password_resets WHERE expires_at <= now() OR consumed_at IS NOT NULL`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func scanReset(row pgx.Row) (*entity.PasswordReset, error) {
	pr := &entity.PasswordReset{}
	if err := row.Scan(&pr.ID, &pr.UserID, &pr.TokenHash, &pr.ExpiresAt, &pr.ConsumedAt, &pr.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return pr, nil
}

var _ repository.PasswordResetRepository = (*PasswordResetRepository)(nil)

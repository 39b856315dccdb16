package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"loyalty-subscription-core/internal/domain"
	"loyalty-subscription-core/internal/domain/model"
	"loyalty-subscription-core/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.ValidationCodeRepository = (*validationCodeRepo)(nil)

type validationCodeRepo struct {
	pool *pgxpool.Pool
}

func NewValidationCodeRepo(pool *pgxpool.Pool) repository.ValidationCodeRepository {
	return &validationCodeRepo{pool: pool}
}

// Save inserts a new code. The unique index on (code) turns a collision into
// domain.ErrAlreadyExists so the issuer can regenerate.
func (r *validationCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.ValidationCode) error {
	const q = `
INSERT INTO validation_codes (id, code, user_subscription_id, issued_at, expires_at, consumed, consumed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);`
	_, err := execSQL(ctx, r.pool, tx, q,
		code.ID, code.Code, code.UserSubscriptionID, code.IssuedAt, code.ExpiresAt, code.Consumed, code.ConsumedAt,
	)
	if err != nil {
		return mapCodeInsertError(err)
	}
	return nil
}

// mapCodeInsertError classifies insert failures: a code collision is
// retryable by regenerating (23505), an unknown user_subscription_id is a
// permanent input error (23503), anything else is the store misbehaving.
func mapCodeInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return domain.ErrAlreadyExists
		case "23503":
			return domain.ErrSubscriptionNotFound
		}
	}
	if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
		return err
	}
	return domain.ErrTransientStore
}

const validationCodeColumns = `id, code, user_subscription_id, issued_at, expires_at, consumed, consumed_at`

func (r *validationCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ValidationCode, error) {
	const q = `
SELECT ` + validationCodeColumns + `
  FROM validation_codes
 WHERE code = $1;`
	return r.queryOne(ctx, tx, q, code)
}

func (r *validationCodeRepo) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.ValidationCode, error) {
	const q = `
SELECT ` + validationCodeColumns + `
  FROM validation_codes
 WHERE code = $1
   FOR UPDATE;`
	return r.queryOne(ctx, tx, q, code)
}

// MarkConsumed flips the flag exactly once; a second call finds no row.
func (r *validationCodeRepo) MarkConsumed(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	const q = `
UPDATE validation_codes
   SET consumed = TRUE, consumed_at = $2
 WHERE id = $1 AND consumed = FALSE;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		return domain.ErrTransientStore
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCodeConsumed
	}
	return nil
}

func (r *validationCodeRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM validation_codes WHERE expires_at < $1;`
	tag, err := execSQL(ctx, r.pool, repository.NoTX, q, now)
	if err != nil {
		return 0, domain.ErrTransientStore
	}
	return tag.RowsAffected(), nil
}

func (r *validationCodeRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) (*model.ValidationCode, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	c := &model.ValidationCode{}
	if err := row.Scan(&c.ID, &c.Code, &c.UserSubscriptionID, &c.IssuedAt, &c.ExpiresAt, &c.Consumed, &c.ConsumedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}

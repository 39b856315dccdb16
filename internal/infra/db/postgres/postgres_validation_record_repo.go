package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"loyalty-subscription-core/internal/domain"
	"loyalty-subscription-core/internal/domain/model"
	"loyalty-subscription-core/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.ValidationRecordRepository = (*validationRecordRepo)(nil)

type validationRecordRepo struct {
	pool *pgxpool.Pool
}

func NewValidationRecordRepo(pool *pgxpool.Pool) repository.ValidationRecordRepository {
	return &validationRecordRepo{pool: pool}
}

// Save appends one audit record. Plain INSERT, no upsert: records are
// immutable, a duplicate id is a caller bug surfaced as a conflict.
func (r *validationRecordRepo) Save(ctx context.Context, tx repository.Tx, rec *model.ValidationRecord) error {
	const q = `
INSERT INTO validation_records (
  id, subscriber_id, subscription_id, subscription_name, place_id, place_name,
  operator_id, remaining_visits_after, status, start_date, end_date, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12);`
	_, err := execSQL(ctx, r.pool, tx, q,
		rec.ID, rec.SubscriberID, rec.SubscriptionID, rec.SubscriptionName, rec.PlaceID, rec.PlaceName,
		rec.OperatorID, rec.RemainingVisitsAfter, string(rec.Status), rec.StartDate, rec.EndDate, rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrTransientStore
	}
	return nil
}

const validationRecordColumns = `
id, subscriber_id, subscription_id, subscription_name, place_id, place_name,
operator_id, remaining_visits_after, status, start_date, end_date, created_at`

func (r *validationRecordRepo) ListBySubscriber(ctx context.Context, tx repository.Tx, subscriberID string, subscriptionID *string) ([]*model.ValidationRecord, error) {
	q := `
SELECT ` + validationRecordColumns + `
  FROM validation_records
 WHERE subscriber_id = $1`
	args := []interface{}{subscriberID}
	if subscriptionID != nil {
		q += ` AND subscription_id = $2`
		args = append(args, *subscriptionID)
	}
	q += `
 ORDER BY created_at DESC;`

	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, domain.ErrTransientStore
	}
	defer rows.Close()

	var out []*model.ValidationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *validationRecordRepo) CountBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) (int, error) {
	const q = `SELECT COUNT(*) FROM validation_records WHERE subscription_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, subscriptionID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func scanRecord(rows pgx.Rows) (*model.ValidationRecord, error) {
	rec := &model.ValidationRecord{}
	var status string
	if err := rows.Scan(
		&rec.ID, &rec.SubscriberID, &rec.SubscriptionID, &rec.SubscriptionName, &rec.PlaceID, &rec.PlaceName,
		&rec.OperatorID, &rec.RemainingVisitsAfter, &status, &rec.StartDate, &rec.EndDate, &rec.CreatedAt,
	); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	rec.Status = model.UserSubscriptionStatus(status)
	return rec, nil
}

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
var _ repository.LedgerRepository = (*ledgerRepo)(nil)

type ledgerRepo struct {
	pool *pgxpool.Pool
}

func NewLedgerRepo(pool *pgxpool.Pool) repository.LedgerRepository {
	return &ledgerRepo{pool: pool}
}

const userSubscriptionColumns = `
id, subscriber_id, subscription_id, place_id, status, start_date, end_date, remaining_visits, is_active, created_at`

func (r *ledgerRepo) FindUserSubscriptionByID(ctx context.Context, tx repository.Tx, id string) (*model.UserSubscription, error) {
	const q = `
SELECT ` + userSubscriptionColumns + `
  FROM user_subscriptions
 WHERE id = $1;`
	return r.queryOneSub(ctx, tx, q, id)
}

func (r *ledgerRepo) FindUserSubscriptionForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.UserSubscription, error) {
	const q = `
SELECT ` + userSubscriptionColumns + `
  FROM user_subscriptions
 WHERE id = $1
   FOR UPDATE;`
	return r.queryOneSub(ctx, tx, q, id)
}

// DecrementRemainingVisits refuses to take a finite balance below zero: the
// WHERE clause makes the decrement conditional, so an exhausted balance
// yields no row rather than a clamped write.
func (r *ledgerRepo) DecrementRemainingVisits(ctx context.Context, tx repository.Tx, id string) (int, error) {
	const q = `
UPDATE user_subscriptions
   SET remaining_visits = remaining_visits - 1
 WHERE id = $1
   AND remaining_visits IS NOT NULL
   AND remaining_visits > 0
RETURNING remaining_visits;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return 0, err
	}
	var after int
	if err := row.Scan(&after); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNoVisitsRemaining
		}
		return 0, domain.ErrReadDatabaseRow
	}
	return after, nil
}

func (r *ledgerRepo) FindSubscriptionByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	const q = `
SELECT id, place_id, name, benefits, price_cents, visits_per_month, billing_period, created_at
  FROM subscriptions
 WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	s := &model.Subscription{}
	if err := row.Scan(&s.ID, &s.PlaceID, &s.Name, &s.Benefits, &s.PriceCents, &s.VisitsPerMonth, &s.BillingPeriod, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

func (r *ledgerRepo) FindPlaceByID(ctx context.Context, tx repository.Tx, id string) (*model.Place, error) {
	const q = `SELECT id, name FROM places WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	p := &model.Place{}
	if err := row.Scan(&p.ID, &p.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *ledgerRepo) FindSubscriberByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscriber, error) {
	const q = `SELECT id, name FROM subscribers WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	s := &model.Subscriber{}
	if err := row.Scan(&s.ID, &s.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

func (r *ledgerRepo) queryOneSub(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) (*model.UserSubscription, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	s := &model.UserSubscription{}
	var status string
	if err := row.Scan(&s.ID, &s.SubscriberID, &s.SubscriptionID, &s.PlaceID, &status, &s.StartDate, &s.EndDate, &s.RemainingVisits, &s.IsActive, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	s.Status = model.UserSubscriptionStatus(status)
	return s, nil
}

package repository

import (
	"context"

	"loyalty-subscription-core/internal/domain/model"
)

// LedgerRepository is the port onto the subscription ledger: user subscriptions
// plus the catalog, place, and subscriber projections behind them. The ledger
// is the source of truth for remaining visits; the only writer is the
// redemption transaction, through DecrementRemainingVisits.
type LedgerRepository interface {
	FindUserSubscriptionByID(ctx context.Context, tx Tx, id string) (*model.UserSubscription, error)
	// FindUserSubscriptionForUpdate loads the row under a row-level lock.
	// Must be called inside a transaction.
	FindUserSubscriptionForUpdate(ctx context.Context, tx Tx, id string) (*model.UserSubscription, error)
	// DecrementRemainingVisits atomically decrements a finite balance, refusing
	// to go below zero. Returns the balance after the decrement, or
	// domain.ErrNoVisitsRemaining if the balance was already exhausted.
	DecrementRemainingVisits(ctx context.Context, tx Tx, id string) (int, error)

	FindSubscriptionByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	FindPlaceByID(ctx context.Context, tx Tx, id string) (*model.Place, error)
	FindSubscriberByID(ctx context.Context, tx Tx, id string) (*model.Subscriber, error)
}

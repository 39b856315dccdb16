package repository

import (
	"context"

	"loyalty-subscription-core/internal/domain/model"
)

// ValidationRecordRepository is the port for the append-only audit trail.
// Records are never updated or deleted.
type ValidationRecordRepository interface {
	Save(ctx context.Context, tx Tx, rec *model.ValidationRecord) error
	// ListBySubscriber returns records newest first, optionally filtered to one
	// user subscription.
	ListBySubscriber(ctx context.Context, tx Tx, subscriberID string, subscriptionID *string) ([]*model.ValidationRecord, error)
	// CountBySubscription returns the number of successful redemptions recorded
	// against a user subscription.
	CountBySubscription(ctx context.Context, tx Tx, subscriptionID string) (int, error)
}

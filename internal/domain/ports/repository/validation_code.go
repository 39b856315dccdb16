package repository

import (
	"context"
	"time"

	"loyalty-subscription-core/internal/domain/model"
)

// ValidationCodeRepository is the port for the code store.
type ValidationCodeRepository interface {
	// Save inserts a new code. Returns domain.ErrAlreadyExists on a code
	// collision so the issuer can regenerate.
	Save(ctx context.Context, tx Tx, code *model.ValidationCode) error
	// FindByCode loads a code regardless of consumed state.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.ValidationCode, error)
	// FindByCodeForUpdate loads the code row under a row-level lock.
	// Must be called inside a transaction.
	FindByCodeForUpdate(ctx context.Context, tx Tx, code string) (*model.ValidationCode, error)
	// MarkConsumed flips the consumed flag exactly once.
	MarkConsumed(ctx context.Context, tx Tx, id string, at time.Time) error
	// DeleteExpired removes codes past their expiry, consumed or not, and
	// returns the number purged.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"loyalty-subscription-core/internal/domain"
	"loyalty-subscription-core/internal/domain/model"
	"loyalty-subscription-core/internal/domain/ports/repository"
)

// HistoryUseCase reads the audit trail. Pure queries, no business logic.
type HistoryUseCase struct {
	records repository.ValidationRecordRepository
	log     *zerolog.Logger
}

func NewHistoryUseCase(records repository.ValidationRecordRepository, logger *zerolog.Logger) *HistoryUseCase {
	l := logger.With().Str("component", "HistoryUseCase").Logger()
	return &HistoryUseCase{records: records, log: &l}
}

// History returns a subscriber's validation records newest first, optionally
// filtered to a single user subscription.
func (uc *HistoryUseCase) History(ctx context.Context, subscriberID string, subscriptionID *string) ([]*model.ValidationRecord, error) {
	if subscriberID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return uc.records.ListBySubscriber(ctx, repository.NoTX, subscriberID, subscriptionID)
}

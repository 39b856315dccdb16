package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"loyalty-subscription-core/internal/domain"
	"loyalty-subscription-core/internal/domain/model"
	"loyalty-subscription-core/internal/domain/ports/repository"
	ports "loyalty-subscription-core/internal/domain/ports/usecase"
	"loyalty-subscription-core/internal/infra/logging"
)

// RedeemerUseCase is the only writer of the ledger and the audit trail.
// Redeem runs check-and-consume-and-decrement-and-record as one transaction:
// the code row and the subscription row are locked, every eligibility rule is
// re-evaluated under those locks, and either everything commits or nothing
// does. For a given code at most one Redeem ever succeeds.
type RedeemerUseCase struct {
	codes   repository.ValidationCodeRepository
	ledger  repository.LedgerRepository
	records repository.ValidationRecordRepository
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewRedeemerUseCase(
	codes repository.ValidationCodeRepository,
	ledger repository.LedgerRepository,
	records repository.ValidationRecordRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *RedeemerUseCase {
	l := logger.With().Str("component", "RedeemerUseCase").Logger()
	return &RedeemerUseCase{codes: codes, ledger: ledger, records: records, tm: tm, log: &l}
}

func (uc *RedeemerUseCase) Redeem(ctx context.Context, rawCode string, op ports.Operator) (*model.ValidationRecord, error) {
	defer logging.TraceDuration(uc.log, "RedeemerUseCase.Redeem")()

	norm, err := NormalizeCode(rawCode)
	if err != nil {
		return nil, domain.ErrCodeNotFound
	}
	if op.ID == "" {
		return nil, domain.ErrInvalidArgument
	}

	var rec *model.ValidationRecord
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now()

		// Lock the code row first; concurrent redeems of the same code queue
		// here and observe the consumed flag after the winner commits.
		code, err := uc.codes.FindByCodeForUpdate(ctx, tx, norm)
		if err != nil {
			return err
		}
		if err := code.CheckRedeemable(now); err != nil {
			return err
		}

		sub, err := uc.ledger.FindUserSubscriptionForUpdate(ctx, tx, code.UserSubscriptionID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrSubscriptionNotFound
			}
			return err
		}
		if err := sub.CheckEligibility(now); err != nil {
			return err
		}

		if err := uc.codes.MarkConsumed(ctx, tx, code.ID, now); err != nil {
			return err
		}

		var after *int
		if sub.RemainingVisits != nil {
			n, err := uc.ledger.DecrementRemainingVisits(ctx, tx, sub.ID)
			if err != nil {
				return err
			}
			after = &n
		}

		catalog, err := uc.ledger.FindSubscriptionByID(ctx, tx, sub.SubscriptionID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrSubscriptionNotFound
			}
			return err
		}
		place, err := uc.ledger.FindPlaceByID(ctx, tx, sub.PlaceID)
		if err != nil {
			return err
		}

		rec = &model.ValidationRecord{
			ID:                   ulid.Make().String(),
			SubscriberID:         sub.SubscriberID,
			SubscriptionID:       sub.ID,
			SubscriptionName:     catalog.Name,
			PlaceID:              sub.PlaceID,
			PlaceName:            place.Name,
			OperatorID:           op.ID,
			RemainingVisitsAfter: after,
			Status:               sub.Status,
			StartDate:            sub.StartDate,
			EndDate:              sub.EndDate,
			CreatedAt:            now,
		}
		return uc.records.Save(ctx, tx, rec)
	})
	if err != nil {
		return nil, err
	}

	ev := uc.log.Info().
		Str("code", logging.Redact(norm)).
		Str("subscription_id", rec.SubscriptionID).
		Str("operator_id", op.ID).
		Str("record_id", rec.ID)
	if rec.RemainingVisitsAfter != nil {
		ev = ev.Int("remaining_visits", *rec.RemainingVisitsAfter)
	}
	ev.Msg("visit redeemed")
	return rec, nil
}

// Append persists an externally assembled audit record, for clients that still
// call the explicit save-validation endpoint. No ledger mutation happens here.
func (uc *RedeemerUseCase) Append(ctx context.Context, rec *model.ValidationRecord) error {
	if rec == nil {
		return domain.ErrInvalidArgument
	}
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	return uc.records.Save(ctx, repository.NoTX, rec)
}

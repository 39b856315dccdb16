package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"loyalty-subscription-core/internal/domain"
	"loyalty-subscription-core/internal/domain/model"
	"loyalty-subscription-core/internal/domain/ports/repository"
	ports "loyalty-subscription-core/internal/domain/ports/usecase"
)

// ValidatorUseCase is the read-only dry-run check behind the staff
// confirmation screen. It mutates nothing and is safe to call repeatedly;
// the redeemer re-runs every rule inside its transaction.
type ValidatorUseCase struct {
	codes  repository.ValidationCodeRepository
	ledger repository.LedgerRepository
	cache  repository.LedgerCacheRepository // optional, display names only
	log    *zerolog.Logger
}

func NewValidatorUseCase(
	codes repository.ValidationCodeRepository,
	ledger repository.LedgerRepository,
	cache repository.LedgerCacheRepository,
	logger *zerolog.Logger,
) *ValidatorUseCase {
	l := logger.With().Str("component", "ValidatorUseCase").Logger()
	return &ValidatorUseCase{codes: codes, ledger: ledger, cache: cache, log: &l}
}

func (uc *ValidatorUseCase) Check(ctx context.Context, rawCode string) (*ports.EligibilityResult, error) {
	norm, err := NormalizeCode(rawCode)
	if err != nil {
		return nil, domain.ErrCodeNotFound
	}

	code, err := uc.codes.FindByCode(ctx, repository.NoTX, norm)
	if err != nil {
		return nil, err
	}
	if err := code.CheckRedeemable(time.Now()); err != nil {
		return nil, err
	}

	sub, err := uc.ledger.FindUserSubscriptionByID(ctx, repository.NoTX, code.UserSubscriptionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Dangling reference; should not happen under correct GC ordering.
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}
	if err := sub.CheckEligibility(time.Now()); err != nil {
		return nil, err
	}

	return uc.project(ctx, sub)
}

// project assembles the confirmation-screen view of an eligible subscription.
func (uc *ValidatorUseCase) project(ctx context.Context, sub *model.UserSubscription) (*ports.EligibilityResult, error) {
	catalog, err := uc.ledger.FindSubscriptionByID(ctx, repository.NoTX, sub.SubscriptionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}

	res := &ports.EligibilityResult{
		SubscriptionID:   sub.ID,
		SubscriptionName: catalog.Name,
		SubscriberID:     sub.SubscriberID,
		PlaceID:          sub.PlaceID,
		Status:           sub.Status,
		StartDate:        sub.StartDate.Format(time.RFC3339),
		EndDate:          sub.EndDate.Format(time.RFC3339),
	}
	if sub.RemainingVisits != nil {
		n := *sub.RemainingVisits
		res.RemainingVisits = &n
	}
	res.PlaceName = uc.placeName(ctx, sub.PlaceID)
	res.SubscriberName = uc.subscriberName(ctx, sub.SubscriberID)
	return res, nil
}

func (uc *ValidatorUseCase) placeName(ctx context.Context, placeID string) string {
	if uc.cache != nil {
		if d, err := uc.cache.GetPlaceName(ctx, placeID); err == nil && d != nil {
			return d.Name
		}
	}
	place, err := uc.ledger.FindPlaceByID(ctx, repository.NoTX, placeID)
	if err != nil {
		uc.log.Warn().Err(err).Str("place_id", placeID).Msg("place name lookup failed")
		return ""
	}
	if uc.cache != nil {
		if err := uc.cache.SetPlaceName(ctx, &repository.DisplayName{ID: place.ID, Name: place.Name}); err != nil {
			uc.log.Debug().Err(err).Msg("place name cache write failed")
		}
	}
	return place.Name
}

func (uc *ValidatorUseCase) subscriberName(ctx context.Context, subscriberID string) string {
	if uc.cache != nil {
		if d, err := uc.cache.GetSubscriberName(ctx, subscriberID); err == nil && d != nil {
			return d.Name
		}
	}
	subscriber, err := uc.ledger.FindSubscriberByID(ctx, repository.NoTX, subscriberID)
	if err != nil {
		uc.log.Warn().Err(err).Str("subscriber_id", subscriberID).Msg("subscriber name lookup failed")
		return ""
	}
	if uc.cache != nil {
		if err := uc.cache.SetSubscriberName(ctx, &repository.DisplayName{ID: subscriber.ID, Name: subscriber.Name}); err != nil {
			uc.log.Debug().Err(err).Msg("subscriber name cache write failed")
		}
	}
	return subscriber.Name
}

package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"loyalty-subscription-core/internal/domain"
	"loyalty-subscription-core/internal/domain/model"
	"loyalty-subscription-core/internal/domain/ports/repository"
)

// IssuerUseCase mints single-use validation codes bound to one user
// subscription. It writes only to the code store, never to the ledger.
// Re-issuing does not invalidate earlier codes; single use is enforced per
// code by the redeemer.
type IssuerUseCase struct {
	codes repository.ValidationCodeRepository
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewIssuerUseCase(codes repository.ValidationCodeRepository, ttl time.Duration, logger *zerolog.Logger) *IssuerUseCase {
	l := logger.With().Str("component", "IssuerUseCase").Logger()
	return &IssuerUseCase{codes: codes, ttl: ttl, log: &l}
}

// maxIssueAttempts bounds regeneration on a code collision. At 60 bits of
// entropy a single retry is already vanishingly rare.
const maxIssueAttempts = 3

func (uc *IssuerUseCase) Issue(ctx context.Context, userSubscriptionID string) (*model.ValidationCode, error) {
	if userSubscriptionID == "" {
		return nil, domain.ErrInvalidArgument
	}

	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		raw, err := generateValidationCode()
		if err != nil {
			return nil, err
		}
		code, err := model.NewValidationCode(uuid.NewString(), raw, userSubscriptionID, time.Now(), uc.ttl)
		if err != nil {
			return nil, err
		}
		err = uc.codes.Save(ctx, repository.NoTX, code)
		if err == nil {
			uc.log.Debug().Str("user_subscription_id", userSubscriptionID).
				Time("expires_at", code.ExpiresAt).Msg("validation code issued")
			return code, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		uc.log.Warn().Int("attempt", attempt+1).Msg("validation code collision, regenerating")
	}
	return nil, domain.ErrOperationFailed
}

// PurgeExpired removes codes past their expiry, consumed or not. Called by the
// GC worker; an expired code is permanently invalid so deletion is safe even
// mid-redemption (the redeem transaction re-checks expiry under lock).
func (uc *IssuerUseCase) PurgeExpired(ctx context.Context) (int64, error) {
	return uc.codes.DeleteExpired(ctx, time.Now())
}

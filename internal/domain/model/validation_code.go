package model

import (
	"time"

	"loyalty-subscription-core/internal/domain"
)

// ValidationCode is a short-lived, single-use credential binding a redemption
// attempt to one UserSubscription. A code that is consumed or expired is
// permanently invalid.
type ValidationCode struct {
	ID                 string
	Code               string
	UserSubscriptionID string
	IssuedAt           time.Time
	ExpiresAt          time.Time
	Consumed           bool
	ConsumedAt         *time.Time // nil until consumed
}

// NewValidationCode constructs an unconsumed code with a fixed TTL.
func NewValidationCode(id, code, userSubscriptionID string, now time.Time, ttl time.Duration) (*ValidationCode, error) {
	if id == "" || code == "" || userSubscriptionID == "" || ttl <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &ValidationCode{
		ID:                 id,
		Code:               code,
		UserSubscriptionID: userSubscriptionID,
		IssuedAt:           now,
		ExpiresAt:          now.Add(ttl),
		Consumed:           false,
	}, nil
}

func (c *ValidationCode) Expired(now time.Time) bool { return now.After(c.ExpiresAt) }

// CheckRedeemable verifies the code itself (not the subscription behind it).
func (c *ValidationCode) CheckRedeemable(now time.Time) error {
	if c.Consumed {
		return domain.ErrCodeConsumed
	}
	if c.Expired(now) {
		return domain.ErrCodeExpired
	}
	return nil
}

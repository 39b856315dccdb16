package model

import (
	"time"

	"loyalty-subscription-core/internal/domain"
)

// ValidationRecord is the append-only audit entry written once per successful
// redemption. Name and status fields are snapshots: the catalog may change
// later, the audit trail must not.
type ValidationRecord struct {
	ID                   string // ULID, time-ordered
	SubscriberID         string
	SubscriptionID       string // UserSubscription id
	SubscriptionName     string
	PlaceID              string
	PlaceName            string
	OperatorID           string // staff or owner who redeemed
	RemainingVisitsAfter *int   // nil for unlimited quotas
	Status               UserSubscriptionStatus
	StartDate            time.Time
	EndDate              time.Time
	CreatedAt            time.Time
}

func (r *ValidationRecord) Validate() error {
	if r.ID == "" || r.SubscriberID == "" || r.SubscriptionID == "" || r.PlaceID == "" || r.OperatorID == "" {
		return domain.ErrInvalidArgument
	}
	if r.RemainingVisitsAfter != nil && *r.RemainingVisitsAfter < 0 {
		return domain.ErrInvalidArgument
	}
	return nil
}

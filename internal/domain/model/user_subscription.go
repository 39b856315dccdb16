package model

import (
	"time"

	"loyalty-subscription-core/internal/domain"
)

type UserSubscriptionStatus string

const (
	UserSubscriptionStatusActive    UserSubscriptionStatus = "active"
	UserSubscriptionStatusCancelled UserSubscriptionStatus = "cancelled"
	UserSubscriptionStatusExpired   UserSubscriptionStatus = "expired"
)

// UserSubscription is one purchased instance of a catalog Subscription.
// RemainingVisits is nil if and only if the catalog subscription has an
// unlimited visit quota; when present it is never negative.
type UserSubscription struct {
	ID              string
	SubscriberID    string
	SubscriptionID  string
	PlaceID         string
	Status          UserSubscriptionStatus
	StartDate       time.Time
	EndDate         time.Time
	RemainingVisits *int
	IsActive        bool
	CreatedAt       time.Time
}

// NewUserSubscription constructs an active purchased instance from a catalog
// subscription, copying its visit quota as the initial remaining balance.
func NewUserSubscription(id, subscriberID string, sub *Subscription, start, end time.Time) (*UserSubscription, error) {
	if id == "" || subscriberID == "" || sub.IsZero() || !end.After(start) {
		return nil, domain.ErrInvalidArgument
	}
	var remaining *int
	if sub.VisitsPerMonth != nil {
		n := *sub.VisitsPerMonth
		remaining = &n
	}
	return &UserSubscription{
		ID:              id,
		SubscriberID:    subscriberID,
		SubscriptionID:  sub.ID,
		PlaceID:         sub.PlaceID,
		Status:          UserSubscriptionStatusActive,
		StartDate:       start,
		EndDate:         end,
		RemainingVisits: remaining,
		IsActive:        true,
		CreatedAt:       time.Now(),
	}, nil
}

// CheckEligibility evaluates the redemption rules in order, short-circuiting
// on the first failure: active status, validity window, remaining quota.
// It never mutates the subscription.
func (us *UserSubscription) CheckEligibility(now time.Time) error {
	if us.Status != UserSubscriptionStatusActive || !us.IsActive {
		return domain.ErrSubscriptionInactive
	}
	if now.Before(us.StartDate) || now.After(us.EndDate) {
		return domain.ErrSubscriptionExpired
	}
	if us.RemainingVisits != nil && *us.RemainingVisits <= 0 {
		return domain.ErrNoVisitsRemaining
	}
	return nil
}

func (us *UserSubscription) IsZero() bool { return us == nil || us.ID == "" }

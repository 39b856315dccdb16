package model

import (
	"time"

	"loyalty-subscription-core/internal/domain"
)

// Subscription is a catalog offering published by a business place.
// VisitsPerMonth is nil for unlimited-visit subscriptions.
type Subscription struct {
	ID             string
	PlaceID        string
	Name           string
	Benefits       string
	PriceCents     int64
	VisitsPerMonth *int
	BillingPeriod  string // "monthly" | "yearly"
	CreatedAt      time.Time
}

func (s *Subscription) IsZero() bool { return s == nil || s.ID == "" }

// NewSubscription validates and constructs a catalog subscription.
func NewSubscription(id, placeID, name, benefits string, priceCents int64, visitsPerMonth *int, billingPeriod string) (*Subscription, error) {
	if id == "" || placeID == "" || name == "" || priceCents < 0 {
		return nil, domain.ErrInvalidArgument
	}
	if visitsPerMonth != nil && *visitsPerMonth <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if billingPeriod == "" {
		billingPeriod = "monthly"
	}
	return &Subscription{
		ID:             id,
		PlaceID:        placeID,
		Name:           name,
		Benefits:       benefits,
		PriceCents:     priceCents,
		VisitsPerMonth: visitsPerMonth,
		BillingPeriod:  billingPeriod,
		CreatedAt:      time.Now(),
	}, nil
}

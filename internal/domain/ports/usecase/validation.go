package usecase

import (
	"context"

	"loyalty-subscription-core/internal/domain/model"
)

// EligibilityResult is the read-only projection returned by a dry-run check,
// shaped for the staff confirmation screen.
type EligibilityResult struct {
	SubscriptionID   string
	SubscriptionName string
	SubscriberID     string
	SubscriberName   string
	PlaceID          string
	PlaceName        string
	Status           model.UserSubscriptionStatus
	StartDate        string
	EndDate          string
	RemainingVisits  *int
}

// Operator identifies the staff member or owner committing a redemption.
type Operator struct {
	ID      string
	PlaceID string
	Role    string // "staff" | "owner"
}

// CodeIssuer mints single-use validation codes.
type CodeIssuer interface {
	Issue(ctx context.Context, userSubscriptionID string) (*model.ValidationCode, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

// CodeValidator runs the side-effect-free eligibility check.
type CodeValidator interface {
	Check(ctx context.Context, rawCode string) (*EligibilityResult, error)
}

// CodeRedeemer performs the atomic consume-decrement-record commit.
type CodeRedeemer interface {
	Redeem(ctx context.Context, rawCode string, op Operator) (*model.ValidationRecord, error)
	Append(ctx context.Context, rec *model.ValidationRecord) error
}

// HistoryReader serves the audit trail, newest first.
type HistoryReader interface {
	History(ctx context.Context, subscriberID string, subscriptionID *string) ([]*model.ValidationRecord, error)
}

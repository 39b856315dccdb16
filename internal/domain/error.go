package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Validation code errors
	ErrCodeNotFound = errors.New("validation code not found")
	ErrCodeExpired  = errors.New("validation code expired")
	ErrCodeConsumed = errors.New("validation code already consumed")

	// Subscription eligibility errors
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrSubscriptionInactive = errors.New("subscription is not active")
	ErrSubscriptionExpired  = errors.New("subscription validity window has passed")
	ErrNoVisitsRemaining    = errors.New("no visits remaining on subscription")

	// Infrastructure errors
	ErrTransientStore     = errors.New("storage temporarily unavailable")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrRateLimited        = errors.New("rate limit exceeded")
)

package repository

import "context"

// DisplayName is a cached ledger projection used only for presentation
// (confirmation screens, audit snapshots read back for display).
type DisplayName struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LedgerCacheRepository caches place and subscriber display names with a TTL.
// Strictly transient: a miss or a stale entry only costs a ledger read,
// eligibility itself is never served from here.
type LedgerCacheRepository interface {
	GetPlaceName(ctx context.Context, placeID string) (*DisplayName, error)
	SetPlaceName(ctx context.Context, d *DisplayName) error
	GetSubscriberName(ctx context.Context, subscriberID string) (*DisplayName, error)
	SetSubscriberName(ctx context.Context, d *DisplayName) error
}

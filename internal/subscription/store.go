package subscription

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested subscription could not be located.
var ErrNotFound = errors.New("subscription not found")

// Store persists subscriptions. Delete exists for the orchestrator's
// compensation pass; regular lifecycle transitions go through Update.
type Store interface {
	Create(ctx context.Context, sub Subscription) (Subscription, error)
	Get(ctx context.Context, id string) (Subscription, error)
	Update(ctx context.Context, sub Subscription) (Subscription, error)
	Delete(ctx context.Context, id string) error
	// FindByTuple returns subscriptions for the (account, facility, package)
	// tuple regardless of state, newest first.
	FindByTuple(ctx context.Context, accountID, facilityID, packageID string) ([]Subscription, error)
	// FindByPair returns subscriptions for the (account, facility) pair.
	FindByPair(ctx context.Context, accountID, facilityID string) ([]Subscription, error)
	// ListActiveExpiredBefore returns ACTIVE subscriptions whose expiry has
	// passed and which have not yet been flagged for renewal.
	ListActiveExpiredBefore(ctx context.Context, cutoff time.Time, limit int32) ([]Subscription, error)
}

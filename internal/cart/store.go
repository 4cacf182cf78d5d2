package cart

import "context"

// Store is the cart persistence boundary. GetCurrent creates the cart
// lazily, so callers never observe a missing cart for a known account.
type Store interface {
	GetCurrent(ctx context.Context, accountID string) (Cart, error)
	Save(ctx context.Context, cart Cart) (Cart, error)
	// RemoveItem deletes one item; removing an absent item is a no-op so
	// post-purchase pruning stays idempotent.
	RemoveItem(ctx context.Context, accountID, itemID string) error
}

package cart

import (
	"time"

	"github.com/fitspace/backend-fitspace/internal/billing"
)

// Item is one pending package purchase in a cart. Promotions and the
// resulting totals are computed inputs carried along until fulfillment.
type Item struct {
	ID             string
	PackageID      string
	Promotions     []billing.Promotion
	PromotionPrice int64
	TotalPrice     int64
	AddedAt        time.Time
}

// Cart holds an account's pending purchases. One cart per account, created
// lazily on first access. At most one item per distinct package id.
type Cart struct {
	AccountID      string
	Items          []Item
	PromotionPrice int64
	TotalPrice     int64
	UpdatedAt      time.Time
}

// Item returns the cart item with the given id.
func (c Cart) Item(itemID string) (Item, bool) {
	for _, it := range c.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return Item{}, false
}

// HasPackage reports whether any item already targets the package id.
func (c Cart) HasPackage(packageID string) bool {
	for _, it := range c.Items {
		if it.PackageID == packageID {
			return true
		}
	}
	return false
}

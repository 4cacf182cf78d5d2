package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fitspace/backend-fitspace/internal/billing"
	"github.com/fitspace/backend-fitspace/internal/catalog"
	"github.com/fitspace/backend-fitspace/internal/common"
	"github.com/fitspace/backend-fitspace/internal/pricing"
)

// Service encapsulates cart domain operations.
type Service struct {
	Store   Store
	Catalog catalog.Store
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Current returns the account's cart, creating it lazily on first access.
func (s *Service) Current(ctx context.Context, accountID string) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	if accountID == "" {
		return Cart{}, common.BadRequest("account id is required", nil)
	}
	c, err := s.Store.GetCurrent(ctx, accountID)
	if err != nil {
		return Cart{}, common.Internal("load cart", err)
	}
	return c, nil
}

// AddItem appends one pending package purchase. A second item for a package
// already in the cart is rejected before anything is written.
func (s *Service) AddItem(ctx context.Context, accountID, packageID string, promos []billing.Promotion) (Cart, error) {
	if s == nil || s.Store == nil || s.Catalog == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	c, err := s.Current(ctx, accountID)
	if err != nil {
		return Cart{}, err
	}
	if c.HasPackage(packageID) {
		return Cart{}, common.BadRequest("package already in cart", nil)
	}
	detail, err := s.Catalog.GetPackageDetail(ctx, packageID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Cart{}, common.NotFound("package not found", err)
		}
		return Cart{}, common.Internal("resolve package", err)
	}

	discount := billing.SumDiscount(promos)
	item := Item{
		ID:             uuid.NewString(),
		PackageID:      packageID,
		Promotions:     append([]billing.Promotion(nil), promos...),
		PromotionPrice: discount,
		TotalPrice:     pricing.ItemTotal(detail.Package.Price, discount),
		AddedAt:        s.now(),
	}
	c.Items = append(c.Items, item)
	recomputeTotals(&c)
	c.UpdatedAt = s.now()

	saved, err := s.Store.Save(ctx, c)
	if err != nil {
		return Cart{}, common.Internal("persist cart", err)
	}
	return saved, nil
}

// RemoveItem deletes an item from the cart. Removing an item that is already
// gone is a no-op: after a purchase a concurrent fulfillment may have pruned
// the cart first.
func (s *Service) RemoveItem(ctx context.Context, accountID, itemID string) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	if err := s.Store.RemoveItem(ctx, accountID, itemID); err != nil {
		return common.Internal("remove cart item", err)
	}
	c, err := s.Store.GetCurrent(ctx, accountID)
	if err != nil {
		return common.Internal("load cart", err)
	}
	recomputeTotals(&c)
	c.UpdatedAt = s.now()
	if _, err := s.Store.Save(ctx, c); err != nil {
		return common.Internal("persist cart", err)
	}
	return nil
}

// recomputeTotals folds item totals into the cart aggregates. Runs after
// every add, remove, or price-affecting event.
func recomputeTotals(c *Cart) {
	discounts := make([]pricing.Money, 0, len(c.Items))
	totals := make([]pricing.Money, 0, len(c.Items))
	for _, it := range c.Items {
		discounts = append(discounts, it.PromotionPrice)
		totals = append(totals, it.TotalPrice)
	}
	c.PromotionPrice, c.TotalPrice = pricing.CartTotals(discounts, totals)
}

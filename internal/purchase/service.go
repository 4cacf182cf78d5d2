package purchase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/fitspace/backend-fitspace/internal/billing"
	"github.com/fitspace/backend-fitspace/internal/cart"
	"github.com/fitspace/backend-fitspace/internal/common"
	"github.com/fitspace/backend-fitspace/internal/events"
	"github.com/fitspace/backend-fitspace/internal/lock"
	"github.com/fitspace/backend-fitspace/internal/obs"
	"github.com/fitspace/backend-fitspace/internal/payment"
	"github.com/fitspace/backend-fitspace/internal/subscription"
)

// Locker serializes orchestrator runs per account.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Service coordinates the purchase sequence: snapshot receipts, access
// grants, bill aggregation, and cart pruning. Each run holds a per-account
// lock so concurrent purchases against the same cart serialize, and every
// mid-sequence failure triggers compensating deletes of the records created
// so far, so callers observe all-or-nothing.
type Service struct {
	Carts    *cart.Service
	Billing  *billing.Service
	Subs     *subscription.Service
	Payments payment.Authorizer
	Events   *events.Bus
	Locker   Locker
	LockTTL  time.Duration
	Logger   zerolog.Logger
}

func (s *Service) lockTTL() time.Duration {
	if s == nil || s.LockTTL <= 0 {
		return 30 * time.Second
	}
	return s.LockTTL
}

// PurchaseAll fulfills every item in the account's current cart and returns
// the aggregated bill.
func (s *Service) PurchaseAll(ctx context.Context, accountID string, opts billing.PaymentOptions) (billing.Bill, error) {
	if err := s.ready(); err != nil {
		return billing.Bill{}, err
	}
	var bill billing.Bill
	err := s.Locker.WithLock(ctx, lock.AccountKey(accountID), s.lockTTL(), func(ctx context.Context) error {
		current, err := s.Carts.Current(ctx, accountID)
		if err != nil {
			return err
		}
		if len(current.Items) == 0 {
			return common.BadRequest("Have at least one cart-item in cart", nil)
		}
		// The confirmation is consume-on-read, so it is only taken once
		// validation has passed and fulfillment is about to begin.
		if err := s.requireCharge(ctx, accountID); err != nil {
			return err
		}
		bill, err = s.fulfill(ctx, accountID, current.Items, opts)
		return err
	})
	s.observe("purchase_all", err)
	if err != nil {
		return billing.Bill{}, err
	}
	return bill, nil
}

// PurchaseSome fulfills the caller-selected subset of the current cart. The
// full id list is validated against the cart before any mutation begins.
func (s *Service) PurchaseSome(ctx context.Context, accountID string, cartItemIDs []string, opts billing.PaymentOptions) (billing.Bill, error) {
	if err := s.ready(); err != nil {
		return billing.Bill{}, err
	}
	if len(cartItemIDs) == 0 {
		return billing.Bill{}, common.BadRequest("select at least one cart-item to purchase", nil)
	}
	var bill billing.Bill
	err := s.Locker.WithLock(ctx, lock.AccountKey(accountID), s.lockTTL(), func(ctx context.Context) error {
		current, err := s.Carts.Current(ctx, accountID)
		if err != nil {
			return err
		}
		selected := make(map[string]bool, len(cartItemIDs))
		for _, id := range cartItemIDs {
			if _, ok := current.Item(id); !ok {
				return common.BadRequest("Cart Item not found in current cart", nil)
			}
			selected[id] = true
		}
		// Preserve the cart's stored order rather than the caller's.
		items := make([]cart.Item, 0, len(selected))
		for _, it := range current.Items {
			if selected[it.ID] {
				items = append(items, it)
			}
		}
		if err := s.requireCharge(ctx, accountID); err != nil {
			return err
		}
		bill, err = s.fulfill(ctx, accountID, items, opts)
		return err
	})
	s.observe("purchase_some", err)
	if err != nil {
		return billing.Bill{}, err
	}
	return bill, nil
}

// Renew extends an existing grant through a fresh single-item purchase.
func (s *Service) Renew(ctx context.Context, subscriptionID, requester, role string, opts billing.PaymentOptions) (subscription.Subscription, error) {
	if err := s.ready(); err != nil {
		return subscription.Subscription{}, err
	}
	sub, err := s.Subs.Get(ctx, subscriptionID, requester, role)
	if err != nil {
		s.observe("renew", err)
		return subscription.Subscription{}, err
	}
	var renewed subscription.Subscription
	err = s.Locker.WithLock(ctx, lock.AccountKey(sub.AccountID), s.lockTTL(), func(ctx context.Context) error {
		if err := s.requireCharge(ctx, sub.AccountID); err != nil {
			return err
		}
		undo := newCompensator(s)
		item, err := s.Billing.CreateBillItem(ctx, sub.AccountID, sub.PackageID, nil)
		if err != nil {
			return err
		}
		undo.billItem(item.ID)
		renewalBill, err := s.Billing.CreateBill(ctx, sub.AccountID, []billing.BillItem{item}, opts)
		if err != nil {
			undo.run(ctx)
			return err
		}
		undo.bill(renewalBill.ID)
		renewed, err = s.Subs.Renew(ctx, sub.ID, item.ID)
		if err != nil {
			undo.run(ctx)
			return err
		}
		return nil
	})
	s.observe("renew", err)
	if obs.SubscriptionRenewalsTotal != nil {
		result := "ok"
		if err != nil {
			result = common.CodeOf(err)
		}
		obs.SubscriptionRenewalsTotal.WithLabelValues(result).Inc()
	}
	if err != nil {
		return subscription.Subscription{}, err
	}
	s.emit(ctx, events.TopicSubscriptionRenewed, renewed.ID, map[string]any{
		"subscriptionId": renewed.ID,
		"accountId":      renewed.AccountID,
		"expires":        renewed.Expires,
	})
	return renewed, nil
}

// fulfill runs the per-item purchase steps in cart order: receipt first,
// then the grant that references it, then one bill over all receipts.
// Fulfilled items are pruned only after the bill is durable.
func (s *Service) fulfill(ctx context.Context, accountID string, items []cart.Item, opts billing.PaymentOptions) (billing.Bill, error) {
	undo := newCompensator(s)
	billItems := make([]billing.BillItem, 0, len(items))
	for _, it := range items {
		billItem, err := s.Billing.CreateBillItem(ctx, accountID, it.PackageID, it.Promotions)
		if err != nil {
			undo.run(ctx)
			return billing.Bill{}, err
		}
		undo.billItem(billItem.ID)
		sub, err := s.Subs.Create(ctx, accountID, billItem.ID, billItem.PackageID, billItem.FacilityID)
		if err != nil {
			undo.run(ctx)
			return billing.Bill{}, err
		}
		undo.subscription(sub.ID)
		billItems = append(billItems, billItem)
	}
	bill, err := s.Billing.CreateBill(ctx, accountID, billItems, opts)
	if err != nil {
		undo.run(ctx)
		return billing.Bill{}, err
	}
	for _, it := range items {
		if err := s.Carts.RemoveItem(ctx, accountID, it.ID); err != nil {
			// The bill is durable; pruning is idempotent and retried by the
			// next cart read, so a failure here is logged, not fatal.
			s.Logger.Warn().Err(err).Str("cart_item_id", it.ID).Msg("prune fulfilled cart item")
		}
	}
	s.emit(ctx, events.TopicPurchaseCompleted, bill.ID, map[string]any{
		"billId":    bill.ID,
		"accountId": accountID,
		"total":     bill.TotalPrice,
		"items":     len(billItems),
	})
	return bill, nil
}

func (s *Service) requireCharge(ctx context.Context, accountID string) error {
	if s.Payments == nil {
		return nil
	}
	ok, err := s.Payments.Authorized(ctx, accountID)
	if err != nil {
		return common.Internal("check charge authorization", err)
	}
	if !ok {
		return common.BadRequest("charge has not been authorized", nil)
	}
	return nil
}

func (s *Service) ready() error {
	if s == nil || s.Carts == nil || s.Billing == nil || s.Subs == nil || s.Locker == nil {
		return errors.New("purchase service not configured")
	}
	return nil
}

func (s *Service) observe(operation string, err error) {
	if obs.PurchaseTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = common.CodeOf(err)
	}
	obs.PurchaseTotal.WithLabelValues(operation, result).Inc()
}

func (s *Service) emit(ctx context.Context, topic, aggregateID string, payload map[string]any) {
	if s.Events == nil {
		return
	}
	if _, err := s.Events.Emit(ctx, topic, aggregateID, payload); err != nil {
		s.Logger.Warn().Err(err).Str("topic", topic).Msg("emit domain event")
	}
}

// compensator collects undo operations for records created mid-sequence and
// replays them in reverse when a later step fails.
type compensator struct {
	svc  *Service
	undo []func(context.Context)
}

func newCompensator(s *Service) *compensator {
	return &compensator{svc: s}
}

func (c *compensator) billItem(id string) {
	c.undo = append(c.undo, func(ctx context.Context) {
		if err := c.svc.Billing.RemoveBillItem(ctx, id); err != nil {
			c.svc.Logger.Error().Err(err).Str("bill_item_id", id).Msg("compensate bill item")
		}
	})
}

func (c *compensator) bill(id string) {
	c.undo = append(c.undo, func(ctx context.Context) {
		if err := c.svc.Billing.RemoveBill(ctx, id); err != nil {
			c.svc.Logger.Error().Err(err).Str("bill_id", id).Msg("compensate bill")
		}
	})
}

func (c *compensator) subscription(id string) {
	c.undo = append(c.undo, func(ctx context.Context) {
		if err := c.svc.Subs.Remove(ctx, id); err != nil {
			c.svc.Logger.Error().Err(err).Str("subscription_id", id).Msg("compensate subscription")
		}
	})
}

func (c *compensator) run(ctx context.Context) {
	if obs.PurchaseCompensations != nil && len(c.undo) > 0 {
		obs.PurchaseCompensations.Inc()
	}
	for i := len(c.undo) - 1; i >= 0; i-- {
		c.undo[i](ctx)
	}
	c.undo = nil
}

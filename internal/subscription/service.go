package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fitspace/backend-fitspace/internal/catalog"
	"github.com/fitspace/backend-fitspace/internal/common"
	"github.com/fitspace/backend-fitspace/internal/obs"
)

// Service manages the lifecycle of facility access grants.
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

// Create opens a new grant for the tuple, expiring one package duration from
// now. A second concurrently valid grant for the same tuple is a business
// error, not a silent merge.
func (s *Service) Create(ctx context.Context, accountID, billItemID, packageID, facilityID string) (Subscription, error) {
	if s == nil || s.Store == nil || s.Catalog == nil {
		return Subscription{}, errors.New("subscription service not configured")
	}
	now := s.now()

	existing, err := s.Store.FindByTuple(ctx, accountID, facilityID, packageID)
	if err != nil {
		return Subscription{}, common.Internal("lookup subscriptions", err)
	}
	for _, sub := range existing {
		if sub.GrantsAccess(now) {
			return Subscription{}, common.Conflict("subscription already active for this package", nil)
		}
	}

	detail, err := s.Catalog.GetPackageDetail(ctx, packageID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Subscription{}, common.NotFound("package not found", err)
		}
		return Subscription{}, common.Internal("resolve package", err)
	}

	sub := Subscription{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		BillItemID: billItemID,
		PackageID:  packageID,
		FacilityID: facilityID,
		Expires:    now.Add(detail.Package.Duration()),
		Status:     StatusActive,
		Renew:      false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	created, err := s.Store.Create(ctx, sub)
	if err != nil {
		return Subscription{}, common.Internal("persist subscription", err)
	}
	return created, nil
}

// Get loads a subscription and enforces ownership: a requester may only see
// their own grant unless they hold the admin role. Mismatched ownership is
// Forbidden rather than NotFound so authorization failures stay distinct
// from missing entities.
func (s *Service) Get(ctx context.Context, id, requester, role string) (Subscription, error) {
	if s == nil || s.Store == nil {
		return Subscription{}, errors.New("subscription service not configured")
	}
	sub, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Subscription{}, common.NotFound("subscription not found", err)
		}
		return Subscription{}, common.Internal("load subscription", err)
	}
	if sub.AccountID != requester && role != common.RoleAdmin {
		return Subscription{}, common.Forbidden("subscription belongs to another account", nil)
	}
	return sub, nil
}

// CheckAndReconcileExpiry observes the grant's state and flags lapsed ones
// for renewal. Reconciliation only happens on read or the worker sweep,
// never on a timer inside the manager.
func (s *Service) CheckAndReconcileExpiry(ctx context.Context, id string) (Subscription, string, error) {
	if s == nil || s.Store == nil {
		return Subscription{}, "", errors.New("subscription service not configured")
	}
	sub, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Subscription{}, "", common.NotFound("subscription not found", err)
		}
		return Subscription{}, "", common.Internal("load subscription", err)
	}
	now := s.now()
	if sub.Status != StatusActive {
		return sub, "subscription is inactive", nil
	}
	if now.Before(sub.Expires) {
		return sub, "subscription is not expired", nil
	}
	if sub.Renew {
		return sub, "subscription already awaiting renewal", nil
	}
	sub.Renew = true
	sub.UpdatedAt = now
	updated, err := s.Store.Update(ctx, sub)
	if err != nil {
		return Subscription{}, "", common.Internal("flag subscription for renewal", err)
	}
	if obs.SubscriptionExpiryReconciled != nil {
		obs.SubscriptionExpiryReconciled.Inc()
	}
	return updated, "subscription expired, awaiting renewal purchase", nil
}

// Renew extends the grant by one package duration against a fresh receipt.
// The new expiry builds on the previous one when it is still in the future,
// so early renewals keep their unused time; lapsed grants restart from now.
func (s *Service) Renew(ctx context.Context, id, newBillItemID string) (Subscription, error) {
	if s == nil || s.Store == nil || s.Catalog == nil {
		return Subscription{}, errors.New("subscription service not configured")
	}
	sub, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Subscription{}, common.NotFound("subscription not found", err)
		}
		return Subscription{}, common.Internal("load subscription", err)
	}
	if sub.Status != StatusActive {
		return Subscription{}, common.Conflict("cannot renew an inactive subscription", nil)
	}
	detail, err := s.Catalog.GetPackageDetail(ctx, sub.PackageID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Subscription{}, common.NotFound("package not found", err)
		}
		return Subscription{}, common.Internal("resolve package", err)
	}

	now := s.now()
	base := sub.Expires
	if base.Before(now) {
		base = now
	}
	sub.Expires = base.Add(detail.Package.Duration())
	sub.BillItemID = newBillItemID
	sub.Renew = false
	sub.UpdatedAt = now
	updated, err := s.Store.Update(ctx, sub)
	if err != nil {
		return Subscription{}, common.Internal("persist renewal", err)
	}
	return updated, nil
}

// Cancel moves a grant to the terminal INACTIVE state. The core never
// triggers this itself; it is representable for external flows.
func (s *Service) Cancel(ctx context.Context, id string) (Subscription, error) {
	if s == nil || s.Store == nil {
		return Subscription{}, errors.New("subscription service not configured")
	}
	sub, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Subscription{}, common.NotFound("subscription not found", err)
		}
		return Subscription{}, common.Internal("load subscription", err)
	}
	sub.Status = StatusInactive
	sub.Renew = false
	sub.UpdatedAt = s.now()
	updated, err := s.Store.Update(ctx, sub)
	if err != nil {
		return Subscription{}, common.Internal("persist cancellation", err)
	}
	return updated, nil
}

// IsActive reports whether the account currently holds access to the
// facility. This predicate is the sole authorization gate for attendance.
func (s *Service) IsActive(ctx context.Context, facilityID, accountID string) (bool, error) {
	if s == nil || s.Store == nil {
		return false, errors.New("subscription service not configured")
	}
	subs, err := s.Store.FindByPair(ctx, accountID, facilityID)
	if err != nil {
		return false, common.Internal("lookup subscriptions", err)
	}
	now := s.now()
	for _, sub := range subs {
		if sub.GrantsAccess(now) {
			return true, nil
		}
	}
	return false, nil
}

// Remove deletes a grant created earlier in a failed purchase sequence. Only
// the orchestrator's compensation pass calls this.
func (s *Service) Remove(ctx context.Context, id string) error {
	if s == nil || s.Store == nil {
		return errors.New("subscription service not configured")
	}
	return s.Store.Delete(ctx, id)
}

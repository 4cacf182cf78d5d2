package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitspace/backend-fitspace/internal/subscription"
)

// SubscriptionRepo persists access grants.
type SubscriptionRepo struct {
	Pool *pgxpool.Pool
}

var _ subscription.Store = SubscriptionRepo{}

const subscriptionColumns = `id, account_id, bill_item_id, package_id, facility_id, expires, status, renew, created_at, updated_at`

// Create inserts one grant.
func (r SubscriptionRepo) Create(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	ids, err := subscriptionIDs(sub)
	if err != nil {
		return subscription.Subscription{}, err
	}
	const insert = `
INSERT INTO subscriptions (` + subscriptionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.Pool.Exec(ctx, insert,
		ids.id, ids.account, ids.billItem, ids.pkg, ids.facility,
		sub.Expires, string(sub.Status), sub.Renew, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return subscription.Subscription{}, err
	}
	return sub, nil
}

// Get loads one grant.
func (r SubscriptionRepo) Get(ctx context.Context, id string) (subscription.Subscription, error) {
	sID, err := uuidValue(id)
	if err != nil {
		return subscription.Subscription{}, subscription.ErrNotFound
	}
	sub, err := scanSubscription(r.Pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, sID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return subscription.Subscription{}, subscription.ErrNotFound
		}
		return subscription.Subscription{}, err
	}
	return sub, nil
}

// Update persists lifecycle transitions.
func (r SubscriptionRepo) Update(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	ids, err := subscriptionIDs(sub)
	if err != nil {
		return subscription.Subscription{}, err
	}
	const update = `
UPDATE subscriptions
SET bill_item_id = $2, expires = $3, status = $4, renew = $5, updated_at = $6
WHERE id = $1`
	tag, err := r.Pool.Exec(ctx, update,
		ids.id, ids.billItem, sub.Expires, string(sub.Status), sub.Renew, sub.UpdatedAt)
	if err != nil {
		return subscription.Subscription{}, err
	}
	if tag.RowsAffected() == 0 {
		return subscription.Subscription{}, subscription.ErrNotFound
	}
	return sub, nil
}

// Delete removes a grant during the orchestrator's compensation pass.
func (r SubscriptionRepo) Delete(ctx context.Context, id string) error {
	sID, err := uuidValue(id)
	if err != nil {
		return nil
	}
	_, err = r.Pool.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, sID)
	return err
}

// FindByTuple returns grants for the (account, facility, package) tuple, newest first.
func (r SubscriptionRepo) FindByTuple(ctx context.Context, accountID, facilityID, packageID string) ([]subscription.Subscription, error) {
	aID, err := uuidValue(accountID)
	if err != nil {
		return nil, err
	}
	fID, err := uuidValue(facilityID)
	if err != nil {
		return nil, err
	}
	pID, err := uuidValue(packageID)
	if err != nil {
		return nil, err
	}
	return r.list(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
WHERE account_id = $1 AND facility_id = $2 AND package_id = $3
ORDER BY created_at DESC`, aID, fID, pID)
}

// FindByPair returns grants for the (account, facility) pair, newest first.
func (r SubscriptionRepo) FindByPair(ctx context.Context, accountID, facilityID string) ([]subscription.Subscription, error) {
	aID, err := uuidValue(accountID)
	if err != nil {
		return nil, err
	}
	fID, err := uuidValue(facilityID)
	if err != nil {
		return nil, err
	}
	return r.list(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
WHERE account_id = $1 AND facility_id = $2
ORDER BY created_at DESC`, aID, fID)
}

// ListActiveExpiredBefore returns lapsed ACTIVE grants not yet flagged for renewal.
func (r SubscriptionRepo) ListActiveExpiredBefore(ctx context.Context, cutoff time.Time, limit int32) ([]subscription.Subscription, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
WHERE status = 'ACTIVE' AND renew = false AND expires <= $1
ORDER BY expires
LIMIT $2`, cutoff, limit)
}

func (r SubscriptionRepo) list(ctx context.Context, query string, args ...any) ([]subscription.Subscription, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

type subIDs struct {
	id, account, billItem, pkg, facility pgtype.UUID
}

func subscriptionIDs(sub subscription.Subscription) (subIDs, error) {
	var (
		ids subIDs
		err error
	)
	if ids.id, err = uuidValue(sub.ID); err != nil {
		return subIDs{}, err
	}
	if ids.account, err = uuidValue(sub.AccountID); err != nil {
		return subIDs{}, err
	}
	if ids.billItem, err = uuidValue(sub.BillItemID); err != nil {
		return subIDs{}, err
	}
	if ids.pkg, err = uuidValue(sub.PackageID); err != nil {
		return subIDs{}, err
	}
	if ids.facility, err = uuidValue(sub.FacilityID); err != nil {
		return subIDs{}, err
	}
	return ids, nil
}

func scanSubscription(row rowScanner) (subscription.Subscription, error) {
	var (
		sub                           subscription.Subscription
		id, aID, biID, pID, fID       pgtype.UUID
		expires, createdAt, updatedAt pgtype.Timestamptz
		status                        string
	)
	err := row.Scan(&id, &aID, &biID, &pID, &fID, &expires, &status, &sub.Renew, &createdAt, &updatedAt)
	if err != nil {
		return subscription.Subscription{}, err
	}
	sub.ID = uuidString(id)
	sub.AccountID = uuidString(aID)
	sub.BillItemID = uuidString(biID)
	sub.PackageID = uuidString(pID)
	sub.FacilityID = uuidString(fID)
	sub.Expires = expires.Time
	sub.Status = subscription.Status(status)
	sub.CreatedAt = createdAt.Time
	sub.UpdatedAt = updatedAt.Time
	return sub, nil
}

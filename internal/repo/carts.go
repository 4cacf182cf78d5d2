package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitspace/backend-fitspace/internal/billing"
	"github.com/fitspace/backend-fitspace/internal/cart"
)

// CartRepo persists one cart per account. The cart row is created lazily on
// first read so callers never observe a missing cart.
type CartRepo struct {
	Pool *pgxpool.Pool
}

var _ cart.Store = CartRepo{}

// GetCurrent loads the account's cart, creating an empty one when absent.
func (r CartRepo) GetCurrent(ctx context.Context, accountID string) (cart.Cart, error) {
	aID, err := uuidValue(accountID)
	if err != nil {
		return cart.Cart{}, err
	}
	const upsert = `
INSERT INTO carts (account_id, promotion_price, total_price, updated_at)
VALUES ($1, 0, 0, now())
ON CONFLICT (account_id) DO UPDATE SET account_id = EXCLUDED.account_id
RETURNING promotion_price, total_price, updated_at`
	var (
		c         = cart.Cart{AccountID: accountID}
		updatedAt pgtype.Timestamptz
	)
	if err := r.Pool.QueryRow(ctx, upsert, aID).Scan(&c.PromotionPrice, &c.TotalPrice, &updatedAt); err != nil {
		return cart.Cart{}, err
	}
	c.UpdatedAt = updatedAt.Time

	const listItems = `
SELECT id, package_id, promotions, promotion_price, total_price, added_at
FROM cart_items
WHERE account_id = $1
ORDER BY added_at, id`
	rows, err := r.Pool.Query(ctx, listItems, aID)
	if err != nil {
		return cart.Cart{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id, pkgID  pgtype.UUID
			promotions []byte
			item       cart.Item
			addedAt    pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &pkgID, &promotions, &item.PromotionPrice, &item.TotalPrice, &addedAt); err != nil {
			return cart.Cart{}, err
		}
		item.ID = uuidString(id)
		item.PackageID = uuidString(pkgID)
		item.Promotions = fromJSON[[]billing.Promotion](promotions)
		item.AddedAt = addedAt.Time
		c.Items = append(c.Items, item)
	}
	return c, rows.Err()
}

// Save upserts the cart aggregates and its items.
func (r CartRepo) Save(ctx context.Context, c cart.Cart) (cart.Cart, error) {
	aID, err := uuidValue(c.AccountID)
	if err != nil {
		return cart.Cart{}, err
	}
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return cart.Cart{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	updatedAt := c.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	const upsertCart = `
INSERT INTO carts (account_id, promotion_price, total_price, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (account_id) DO UPDATE
SET promotion_price = EXCLUDED.promotion_price,
    total_price = EXCLUDED.total_price,
    updated_at = EXCLUDED.updated_at`
	if _, err := tx.Exec(ctx, upsertCart, aID, c.PromotionPrice, c.TotalPrice, updatedAt); err != nil {
		return cart.Cart{}, err
	}

	const upsertItem = `
INSERT INTO cart_items (id, account_id, package_id, promotions, promotion_price, total_price, added_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE
SET promotions = EXCLUDED.promotions,
    promotion_price = EXCLUDED.promotion_price,
    total_price = EXCLUDED.total_price`
	for _, item := range c.Items {
		iID, err := uuidValue(item.ID)
		if err != nil {
			return cart.Cart{}, err
		}
		pID, err := uuidValue(item.PackageID)
		if err != nil {
			return cart.Cart{}, err
		}
		if _, err := tx.Exec(ctx, upsertItem, iID, aID, pID, toJSON(item.Promotions), item.PromotionPrice, item.TotalPrice, item.AddedAt); err != nil {
			return cart.Cart{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return cart.Cart{}, err
	}
	c.UpdatedAt = updatedAt
	return c, nil
}

// RemoveItem deletes one cart item. Deleting an absent item is a no-op.
func (r CartRepo) RemoveItem(ctx context.Context, accountID, itemID string) error {
	aID, err := uuidValue(accountID)
	if err != nil {
		return err
	}
	iID, err := uuidValue(itemID)
	if err != nil {
		// Unparseable ids cannot reference a stored item; treat as removed.
		return nil
	}
	_, err = r.Pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND account_id = $2`, iID, aID)
	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

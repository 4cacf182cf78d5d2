package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitspace/backend-fitspace/internal/billing"
)

// BillingRepo persists bills and bill items. Snapshots are stored as JSONB
// so the frozen descriptive copy survives any later catalog migration.
type BillingRepo struct {
	Pool *pgxpool.Pool
}

var _ billing.Store = BillingRepo{}

// CreateBillItem inserts one immutable receipt.
func (r BillingRepo) CreateBillItem(ctx context.Context, item billing.BillItem) (billing.BillItem, error) {
	iID, err := uuidValue(item.ID)
	if err != nil {
		return billing.BillItem{}, err
	}
	aID, err := uuidValue(item.AccountID)
	if err != nil {
		return billing.BillItem{}, err
	}
	brandID, err := uuidValue(item.BrandID)
	if err != nil {
		return billing.BillItem{}, err
	}
	facID, err := uuidValue(item.FacilityID)
	if err != nil {
		return billing.BillItem{}, err
	}
	typeID, err := uuidValue(item.PackageTypeID)
	if err != nil {
		return billing.BillItem{}, err
	}
	pkgID, err := uuidValue(item.PackageID)
	if err != nil {
		return billing.BillItem{}, err
	}
	const insert = `
INSERT INTO bill_items (
  id, account_id, brand_id, facility_id, package_type_id, package_id,
  facility_info, package_type_info, package_info,
  promotions, promotion_price, total_price, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = r.Pool.Exec(ctx, insert,
		iID, aID, brandID, facID, typeID, pkgID,
		toJSON(item.Facility), toJSON(item.PackageType), toJSON(item.Package),
		toJSON(item.Promotions), item.PromotionPrice, item.TotalPrice, string(item.Status), item.CreatedAt,
	)
	if err != nil {
		return billing.BillItem{}, err
	}
	return item, nil
}

// GetBillItem loads one receipt.
func (r BillingRepo) GetBillItem(ctx context.Context, id string) (billing.BillItem, error) {
	iID, err := uuidValue(id)
	if err != nil {
		return billing.BillItem{}, billing.ErrNotFound
	}
	const query = `
SELECT id, account_id, brand_id, facility_id, package_type_id, package_id,
       facility_info, package_type_info, package_info,
       promotions, promotion_price, total_price, status, created_at
FROM bill_items WHERE id = $1`
	var (
		item                                     billing.BillItem
		rowID, aID, brandID, facID, typeID, pkgID pgtype.UUID
		facInfo, typeInfo, pkgInfo, promotions   []byte
		status                                   string
		createdAt                                pgtype.Timestamptz
	)
	err = r.Pool.QueryRow(ctx, query, iID).Scan(
		&rowID, &aID, &brandID, &facID, &typeID, &pkgID,
		&facInfo, &typeInfo, &pkgInfo,
		&promotions, &item.PromotionPrice, &item.TotalPrice, &status, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return billing.BillItem{}, billing.ErrNotFound
		}
		return billing.BillItem{}, err
	}
	item.ID = uuidString(rowID)
	item.AccountID = uuidString(aID)
	item.BrandID = uuidString(brandID)
	item.FacilityID = uuidString(facID)
	item.PackageTypeID = uuidString(typeID)
	item.PackageID = uuidString(pkgID)
	item.Facility = fromJSON[billing.FacilityInfo](facInfo)
	item.PackageType = fromJSON[billing.PackageTypeInfo](typeInfo)
	item.Package = fromJSON[billing.PackageInfo](pkgInfo)
	item.Promotions = fromJSON[[]billing.Promotion](promotions)
	item.Status = billing.Status(status)
	item.CreatedAt = createdAt.Time
	return item, nil
}

// DeleteBillItem removes a receipt during the orchestrator's compensation pass.
func (r BillingRepo) DeleteBillItem(ctx context.Context, id string) error {
	iID, err := uuidValue(id)
	if err != nil {
		return nil
	}
	_, err = r.Pool.Exec(ctx, `DELETE FROM bill_items WHERE id = $1`, iID)
	return err
}

// CreateBill inserts one aggregated bill.
func (r BillingRepo) CreateBill(ctx context.Context, bill billing.Bill) (billing.Bill, error) {
	bID, err := uuidValue(bill.ID)
	if err != nil {
		return billing.Bill{}, err
	}
	aID, err := uuidValue(bill.AccountID)
	if err != nil {
		return billing.Bill{}, err
	}
	const insert = `
INSERT INTO bills (
  id, account_id, bill_item_ids, payment_method, taxes, description,
  promotions, promotion_price, total_price, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.Pool.Exec(ctx, insert,
		bID, aID, toJSON(bill.BillItemIDs), bill.PaymentMethod, bill.Taxes, bill.Description,
		toJSON(bill.Promotions), bill.PromotionPrice, bill.TotalPrice, string(bill.Status), bill.CreatedAt,
	)
	if err != nil {
		return billing.Bill{}, err
	}
	return bill, nil
}

// DeleteBill removes a bill during the orchestrator's compensation pass.
func (r BillingRepo) DeleteBill(ctx context.Context, id string) error {
	bID, err := uuidValue(id)
	if err != nil {
		return nil
	}
	_, err = r.Pool.Exec(ctx, `DELETE FROM bills WHERE id = $1`, bID)
	return err
}

// GetBill loads one bill.
func (r BillingRepo) GetBill(ctx context.Context, id string) (billing.Bill, error) {
	bID, err := uuidValue(id)
	if err != nil {
		return billing.Bill{}, billing.ErrNotFound
	}
	const query = `
SELECT id, account_id, bill_item_ids, payment_method, taxes, description,
       promotions, promotion_price, total_price, status, created_at
FROM bills WHERE id = $1`
	bill, err := scanBill(r.Pool.QueryRow(ctx, query, bID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return billing.Bill{}, billing.ErrNotFound
		}
		return billing.Bill{}, err
	}
	return bill, nil
}

// ListBillsByAccount returns the account's bills, newest first.
func (r BillingRepo) ListBillsByAccount(ctx context.Context, accountID string) ([]billing.Bill, error) {
	aID, err := uuidValue(accountID)
	if err != nil {
		return nil, err
	}
	const query = `
SELECT id, account_id, bill_item_ids, payment_method, taxes, description,
       promotions, promotion_price, total_price, status, created_at
FROM bills WHERE account_id = $1
ORDER BY created_at DESC`
	rows, err := r.Pool.Query(ctx, query, aID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bills []billing.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (billing.Bill, error) {
	var (
		bill       billing.Bill
		rowID, aID pgtype.UUID
		itemIDs    []byte
		promotions []byte
		status     string
		createdAt  pgtype.Timestamptz
	)
	err := row.Scan(
		&rowID, &aID, &itemIDs, &bill.PaymentMethod, &bill.Taxes, &bill.Description,
		&promotions, &bill.PromotionPrice, &bill.TotalPrice, &status, &createdAt,
	)
	if err != nil {
		return billing.Bill{}, err
	}
	bill.ID = uuidString(rowID)
	bill.AccountID = uuidString(aID)
	bill.BillItemIDs = fromJSON[[]string](itemIDs)
	bill.Promotions = fromJSON[[]billing.Promotion](promotions)
	bill.Status = billing.Status(status)
	bill.CreatedAt = createdAt.Time
	return bill, nil
}

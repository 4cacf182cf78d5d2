package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fitspace/backend-fitspace/internal/catalog"
	"github.com/fitspace/backend-fitspace/internal/common"
	"github.com/fitspace/backend-fitspace/internal/obs"
	"github.com/fitspace/backend-fitspace/internal/pricing"
)

// Service builds point-in-time purchase receipts and aggregates them into
// payable bills.
type Service struct {
	Store                Store
	Catalog              catalog.Store
	DefaultPaymentMethod string
	// TaxBps is applied to the item subtotal, in basis points, when the
	// caller supplies no explicit taxes.
	TaxBps int
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateBillItem snapshots the current catalog state of one package into an
// immutable receipt for the account. Promotions are attached by the caller;
// direct renewals pass none. Later catalog edits never reach the stored copy.
func (s *Service) CreateBillItem(ctx context.Context, accountID, packageID string, promos []Promotion) (BillItem, error) {
	if s == nil || s.Store == nil || s.Catalog == nil {
		return BillItem{}, errors.New("billing service not configured")
	}
	if accountID == "" {
		return BillItem{}, common.BadRequest("account id is required", nil)
	}
	detail, err := s.Catalog.GetPackageDetail(ctx, packageID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return BillItem{}, common.NotFound("package not found", err)
		}
		return BillItem{}, common.Internal("resolve package", err)
	}

	discount := SumDiscount(promos)
	item := BillItem{
		ID:            uuid.NewString(),
		AccountID:     accountID,
		BrandID:       detail.Brand.ID,
		FacilityID:    detail.Facility.ID,
		PackageTypeID: detail.PackageType.ID,
		PackageID:     detail.Package.ID,
		Facility: FacilityInfo{
			Name:    detail.Facility.Name,
			Address: detail.Facility.Address,
			Phone:   detail.Facility.Phone,
		},
		PackageType: PackageTypeInfo{
			Name:        detail.PackageType.Name,
			Description: detail.PackageType.Description,
		},
		Package: PackageInfo{
			Name:         detail.Package.Name,
			Price:        detail.Package.Price,
			DurationDays: detail.Package.DurationDays,
			Benefits:     append([]string(nil), detail.Package.Benefits...),
		},
		Promotions:     append([]Promotion(nil), promos...),
		PromotionPrice: discount,
		TotalPrice:     pricing.ItemTotal(detail.Package.Price, discount),
		Status:         StatusActive,
		CreatedAt:      s.now(),
	}
	created, err := s.Store.CreateBillItem(ctx, item)
	if err != nil {
		return BillItem{}, common.Internal("persist bill item", err)
	}
	return created, nil
}

// CreateBill aggregates the given bill items into one payable bill. The item
// set must be non-empty; persistence failure surfaces as Internal and the
// caller owns any compensation of already-created items.
func (s *Service) CreateBill(ctx context.Context, accountID string, items []BillItem, opts PaymentOptions) (Bill, error) {
	if s == nil || s.Store == nil {
		return Bill{}, errors.New("billing service not configured")
	}
	if accountID == "" {
		return Bill{}, common.BadRequest("account id is required", nil)
	}
	if len(items) == 0 {
		return Bill{}, common.BadRequest("bill requires at least one bill-item", nil)
	}
	for _, item := range items {
		if item.AccountID != accountID {
			return Bill{}, common.BadRequest("bill item belongs to another account", fmt.Errorf("bill item %s", item.ID))
		}
	}

	method := opts.Method
	if method == "" {
		method = s.DefaultPaymentMethod
	}

	itemIDs := make([]string, 0, len(items))
	totals := make([]int64, 0, len(items))
	var subtotal int64
	for _, item := range items {
		itemIDs = append(itemIDs, item.ID)
		totals = append(totals, item.TotalPrice)
		subtotal += item.TotalPrice
	}

	taxes := opts.Taxes
	if taxes < 0 {
		taxes = 0
	}
	if taxes == 0 && s.TaxBps > 0 {
		taxes = subtotal * int64(s.TaxBps) / 10_000
	}
	discount := SumDiscount(opts.Promotions)
	total := pricing.BillTotal(totals, taxes, discount)

	bill := Bill{
		ID:             uuid.NewString(),
		AccountID:      accountID,
		BillItemIDs:    itemIDs,
		PaymentMethod:  method,
		Taxes:          taxes,
		Description:    opts.Description,
		Promotions:     append([]Promotion(nil), opts.Promotions...),
		PromotionPrice: discount,
		TotalPrice:     total,
		Status:         StatusActive,
		CreatedAt:      s.now(),
	}
	created, err := s.Store.CreateBill(ctx, bill)
	if err != nil {
		return Bill{}, common.Internal("persist bill", err)
	}
	if obs.BillTotalAmount != nil {
		obs.BillTotalAmount.Observe(float64(created.TotalPrice))
	}
	return created, nil
}

// GetBill returns one bill. Ownership is enforced; admins may read any bill.
func (s *Service) GetBill(ctx context.Context, id, requester, role string) (Bill, error) {
	if s == nil || s.Store == nil {
		return Bill{}, errors.New("billing service not configured")
	}
	bill, err := s.Store.GetBill(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Bill{}, common.NotFound("bill not found", err)
		}
		return Bill{}, common.Internal("load bill", err)
	}
	if bill.AccountID != requester && role != common.RoleAdmin {
		return Bill{}, common.Forbidden("bill belongs to another account", nil)
	}
	return bill, nil
}

// ListBills returns the account's bills, newest first.
func (s *Service) ListBills(ctx context.Context, accountID string) ([]Bill, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("billing service not configured")
	}
	bills, err := s.Store.ListBillsByAccount(ctx, accountID)
	if err != nil {
		return nil, common.Internal("load bills", err)
	}
	return bills, nil
}

// RemoveBillItem deletes a receipt created earlier in a failed purchase
// sequence. Only the orchestrator's compensation pass calls this.
func (s *Service) RemoveBillItem(ctx context.Context, id string) error {
	if s == nil || s.Store == nil {
		return errors.New("billing service not configured")
	}
	return s.Store.DeleteBillItem(ctx, id)
}

// RemoveBill deletes a bill created earlier in a failed purchase sequence,
// so no bill survives that references compensated receipts. Only the
// orchestrator's compensation pass calls this.
func (s *Service) RemoveBill(ctx context.Context, id string) error {
	if s == nil || s.Store == nil {
		return errors.New("billing service not configured")
	}
	return s.Store.DeleteBill(ctx, id)
}

package billing

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested bill or bill item is absent.
var ErrNotFound = errors.New("bill not found")

// Store persists bills and bill items. Both are append-only; the delete
// methods exist solely for the orchestrator's compensation pass after a
// failed purchase sequence.
type Store interface {
	CreateBillItem(ctx context.Context, item BillItem) (BillItem, error)
	GetBillItem(ctx context.Context, id string) (BillItem, error)
	DeleteBillItem(ctx context.Context, id string) error
	CreateBill(ctx context.Context, bill Bill) (Bill, error)
	GetBill(ctx context.Context, id string) (Bill, error)
	DeleteBill(ctx context.Context, id string) error
	ListBillsByAccount(ctx context.Context, accountID string) ([]Bill, error)
}

package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fitspace/backend-fitspace/internal/billing"
	"github.com/fitspace/backend-fitspace/internal/catalog"
	"github.com/fitspace/backend-fitspace/internal/common"
)

type memStore struct {
	carts map[string]Cart
}

func newMemStore() *memStore {
	return &memStore{carts: map[string]Cart{}}
}

func (m *memStore) GetCurrent(_ context.Context, accountID string) (Cart, error) {
	c, ok := m.carts[accountID]
	if !ok {
		c = Cart{AccountID: accountID}
		m.carts[accountID] = c
	}
	return c, nil
}

func (m *memStore) Save(_ context.Context, c Cart) (Cart, error) {
	m.carts[c.AccountID] = c
	return c, nil
}

func (m *memStore) RemoveItem(_ context.Context, accountID, itemID string) error {
	c, ok := m.carts[accountID]
	if !ok {
		return nil
	}
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	m.carts[accountID] = c
	return nil
}

type stubCatalog struct {
	details map[string]catalog.PackageDetail
}

func (s stubCatalog) GetPackageDetail(_ context.Context, packageID string) (catalog.PackageDetail, error) {
	detail, ok := s.details[packageID]
	if !ok {
		return catalog.PackageDetail{}, catalog.ErrNotFound
	}
	return detail, nil
}

func newService(store Store, prices map[string]int64) *Service {
	details := map[string]catalog.PackageDetail{}
	for id, price := range prices {
		details[id] = catalog.PackageDetail{
			Package: catalog.Package{ID: id, Name: "monthly", Price: price, DurationDays: 30},
		}
	}
	return &Service{
		Store:   store,
		Catalog: stubCatalog{details: details},
		Now:     func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestAddItemComputesTotals(t *testing.T) {
	svc := newService(newMemStore(), map[string]int64{"pkg-1": 100_000})

	c, err := svc.AddItem(context.Background(), "acc-1", "pkg-1", []billing.Promotion{{ID: "promo", Name: "opening", Discount: 20_000}})
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	require.Equal(t, int64(80_000), c.Items[0].TotalPrice)
	require.Equal(t, int64(20_000), c.PromotionPrice)
	require.Equal(t, int64(80_000), c.TotalPrice)
}

func TestAddItemRejectsDuplicatePackage(t *testing.T) {
	svc := newService(newMemStore(), map[string]int64{"pkg-1": 100_000})

	_, err := svc.AddItem(context.Background(), "acc-1", "pkg-1", nil)
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), "acc-1", "pkg-1", nil)
	require.Error(t, err)
	require.Equal(t, "BAD_REQUEST", common.CodeOf(err))
}

func TestAddItemUnknownPackage(t *testing.T) {
	svc := newService(newMemStore(), nil)

	_, err := svc.AddItem(context.Background(), "acc-1", "missing", nil)
	require.Equal(t, "NOT_FOUND", common.CodeOf(err))
}

func TestRemoveItemRecomputesTotals(t *testing.T) {
	store := newMemStore()
	svc := newService(store, map[string]int64{"pkg-1": 100_000, "pkg-2": 50_000})

	_, err := svc.AddItem(context.Background(), "acc-1", "pkg-1", nil)
	require.NoError(t, err)
	c, err := svc.AddItem(context.Background(), "acc-1", "pkg-2", nil)
	require.NoError(t, err)
	require.Equal(t, int64(150_000), c.TotalPrice)

	require.NoError(t, svc.RemoveItem(context.Background(), "acc-1", c.Items[0].ID))

	c, err = svc.Current(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	require.Equal(t, int64(50_000), c.TotalPrice)
}

func TestRemoveItemIdempotent(t *testing.T) {
	svc := newService(newMemStore(), map[string]int64{"pkg-1": 100_000})

	c, err := svc.AddItem(context.Background(), "acc-1", "pkg-1", nil)
	require.NoError(t, err)
	itemID := c.Items[0].ID

	require.NoError(t, svc.RemoveItem(context.Background(), "acc-1", itemID))
	require.NoError(t, svc.RemoveItem(context.Background(), "acc-1", itemID))

	c, err = svc.Current(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Empty(t, c.Items)
	require.Zero(t, c.TotalPrice)
}

package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fitspace/backend-fitspace/internal/catalog"
	"github.com/fitspace/backend-fitspace/internal/common"
)

type memStore struct {
	subs map[string]Subscription
}

func newMemStore() *memStore {
	return &memStore{subs: map[string]Subscription{}}
}

func (m *memStore) Create(_ context.Context, sub Subscription) (Subscription, error) {
	m.subs[sub.ID] = sub
	return sub, nil
}

func (m *memStore) Get(_ context.Context, id string) (Subscription, error) {
	sub, ok := m.subs[id]
	if !ok {
		return Subscription{}, ErrNotFound
	}
	return sub, nil
}

func (m *memStore) Update(_ context.Context, sub Subscription) (Subscription, error) {
	if _, ok := m.subs[sub.ID]; !ok {
		return Subscription{}, ErrNotFound
	}
	m.subs[sub.ID] = sub
	return sub, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	delete(m.subs, id)
	return nil
}

func (m *memStore) FindByTuple(_ context.Context, accountID, facilityID, packageID string) ([]Subscription, error) {
	var out []Subscription
	for _, sub := range m.subs {
		if sub.AccountID == accountID && sub.FacilityID == facilityID && sub.PackageID == packageID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (m *memStore) FindByPair(_ context.Context, accountID, facilityID string) ([]Subscription, error) {
	var out []Subscription
	for _, sub := range m.subs {
		if sub.AccountID == accountID && sub.FacilityID == facilityID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (m *memStore) ListActiveExpiredBefore(_ context.Context, cutoff time.Time, limit int32) ([]Subscription, error) {
	var out []Subscription
	for _, sub := range m.subs {
		if sub.Status == StatusActive && !sub.Renew && !sub.Expires.After(cutoff) {
			out = append(out, sub)
		}
		if int32(len(out)) == limit {
			break
		}
	}
	return out, nil
}

type stubCatalog struct {
	durationDays int32
}

func (s stubCatalog) GetPackageDetail(_ context.Context, packageID string) (catalog.PackageDetail, error) {
	return catalog.PackageDetail{
		Package: catalog.Package{ID: packageID, Name: "Monthly", Price: 100_000, DurationDays: s.durationDays},
	}, nil
}

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newService(store Store, now time.Time) *Service {
	return &Service{
		Store:   store,
		Catalog: stubCatalog{durationDays: 30},
		Now:     func() time.Time { return now },
	}
}

func TestCreateSetsExpiryFromDuration(t *testing.T) {
	svc := newService(newMemStore(), baseTime)

	sub, err := svc.Create(context.Background(), "acc-1", "bi-1", "pkg-1", "fac-1")
	require.NoError(t, err)
	require.Equal(t, baseTime.Add(30*24*time.Hour), sub.Expires)
	require.Equal(t, StatusActive, sub.Status)
	require.False(t, sub.Renew)
}

func TestCreateRejectsSecondActiveGrant(t *testing.T) {
	svc := newService(newMemStore(), baseTime)

	_, err := svc.Create(context.Background(), "acc-1", "bi-1", "pkg-1", "fac-1")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "acc-1", "bi-2", "pkg-1", "fac-1")
	require.Equal(t, "CONFLICT", common.CodeOf(err))
}

func TestCreateAllowsNewGrantAfterLapse(t *testing.T) {
	store := newMemStore()
	svc := newService(store, baseTime)

	first, err := svc.Create(context.Background(), "acc-1", "bi-1", "pkg-1", "fac-1")
	require.NoError(t, err)

	later := newService(store, first.Expires.Add(time.Hour))
	_, err = later.Create(context.Background(), "acc-1", "bi-2", "pkg-1", "fac-1")
	require.NoError(t, err)
}

func TestGetEnforcesOwnership(t *testing.T) {
	store := newMemStore()
	svc := newService(store, baseTime)

	sub, err := svc.Create(context.Background(), "acc-1", "bi-1", "pkg-1", "fac-1")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), sub.ID, "acc-2", "")
	require.Equal(t, "FORBIDDEN", common.CodeOf(err))

	got, err := svc.Get(context.Background(), sub.ID, "acc-2", common.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, sub.ID, got.ID)

	_, err = svc.Get(context.Background(), "missing", "acc-1", "")
	require.Equal(t, "NOT_FOUND", common.CodeOf(err))
}

func TestCheckAndReconcileExpiry(t *testing.T) {
	store := newMemStore()
	svc := newService(store, baseTime)

	sub, err := svc.Create(context.Background(), "acc-1", "bi-1", "pkg-1", "fac-1")
	require.NoError(t, err)

	_, msg, err := svc.CheckAndReconcileExpiry(context.Background(), sub.ID)
	require.NoError(t, err)
	require.Equal(t, "subscription is not expired", msg)

	lapsed := newService(store, sub.Expires.Add(time.Minute))
	flagged, msg, err := lapsed.CheckAndReconcileExpiry(context.Background(), sub.ID)
	require.NoError(t, err)
	require.Equal(t, "subscription expired, awaiting renewal purchase", msg)
	require.True(t, flagged.Renew)
	require.Equal(t, StatusActive, flagged.Status)

	_, msg, err = lapsed.CheckAndReconcileExpiry(context.Background(), sub.ID)
	require.NoError(t, err)
	require.Equal(t, "subscription already awaiting renewal", msg)

	_, err = lapsed.Cancel(context.Background(), sub.ID)
	require.NoError(t, err)
	_, msg, err = lapsed.CheckAndReconcileExpiry(context.Background(), sub.ID)
	require.NoError(t, err)
	require.Equal(t, "subscription is inactive", msg)
}

func TestRenewBeforeExpiryKeepsUnusedTime(t *testing.T) {
	store := newMemStore()
	svc := newService(store, baseTime)

	sub, err := svc.Create(context.Background(), "acc-1", "bi-1", "pkg-1", "fac-1")
	require.NoError(t, err)
	firstExpiry := sub.Expires

	// Renew ten days in, twenty days of paid time remain.
	early := newService(store, baseTime.Add(10*24*time.Hour))
	renewed, err := early.Renew(context.Background(), sub.ID, "bi-2")
	require.NoError(t, err)
	require.Equal(t, firstExpiry.Add(30*24*time.Hour), renewed.Expires)
	require.Equal(t, "bi-2", renewed.BillItemID)
	require.False(t, renewed.Renew)
}

func TestRenewAfterLapseRestartsFromNow(t *testing.T) {
	store := newMemStore()
	svc := newService(store, baseTime)

	sub, err := svc.Create(context.Background(), "acc-1", "bi-1", "pkg-1", "fac-1")
	require.NoError(t, err)

	lateNow := sub.Expires.Add(5 * 24 * time.Hour)
	late := newService(store, lateNow)
	_, _, err = late.CheckAndReconcileExpiry(context.Background(), sub.ID)
	require.NoError(t, err)

	renewed, err := late.Renew(context.Background(), sub.ID, "bi-2")
	require.NoError(t, err)
	require.Equal(t, lateNow.Add(30*24*time.Hour), renewed.Expires)
	require.False(t, renewed.Renew)
}

func TestRenewInactiveConflicts(t *testing.T) {
	store := newMemStore()
	svc := newService(store, baseTime)

	sub, err := svc.Create(context.Background(), "acc-1", "bi-1", "pkg-1", "fac-1")
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), sub.ID)
	require.NoError(t, err)

	_, err = svc.Renew(context.Background(), sub.ID, "bi-2")
	require.Equal(t, "CONFLICT", common.CodeOf(err))
}

func TestIsActive(t *testing.T) {
	store := newMemStore()
	svc := newService(store, baseTime)

	active, err := svc.IsActive(context.Background(), "fac-1", "acc-1")
	require.NoError(t, err)
	require.False(t, active)

	sub, err := svc.Create(context.Background(), "acc-1", "bi-1", "pkg-1", "fac-1")
	require.NoError(t, err)

	active, err = svc.IsActive(context.Background(), "fac-1", "acc-1")
	require.NoError(t, err)
	require.True(t, active)

	// Expired grants do not admit, even while still flagged ACTIVE.
	lapsed := newService(store, sub.Expires.Add(time.Second))
	active, err = lapsed.IsActive(context.Background(), "fac-1", "acc-1")
	require.NoError(t, err)
	require.False(t, active)

	_, err = svc.Cancel(context.Background(), sub.ID)
	require.NoError(t, err)
	active, err = svc.IsActive(context.Background(), "fac-1", "acc-1")
	require.NoError(t, err)
	require.False(t, active)
}

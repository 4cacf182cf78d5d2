package subscription

import "time"

// Status is the persisted lifecycle state. ACTIVE alone is not authoritative
// for access: expiry is always checked in combination.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Subscription is a time-bound access grant for one (account, facility,
// package) tuple, tied to the bill item that paid for it.
type Subscription struct {
	ID         string
	AccountID  string
	BillItemID string
	PackageID  string
	FacilityID string
	Expires    time.Time
	Status     Status
	Renew      bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// GrantsAccess reports whether the grant admits the member right now.
func (s Subscription) GrantsAccess(now time.Time) bool {
	return s.Status == StatusActive && now.Before(s.Expires)
}

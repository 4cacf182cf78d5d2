package billing

import "time"

// Status marks whether a purchase record still backs an entitlement.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Promotion is an already-computed discount attached to a purchase. The core
// never derives discounts itself; they arrive from the cart or default to none.
type Promotion struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Discount int64  `json:"discount"`
}

// SumDiscount folds the discounts of a promotion set.
func SumDiscount(promos []Promotion) int64 {
	var total int64
	for _, p := range promos {
		total += p.Discount
	}
	return total
}

// FacilityInfo is the frozen facility snapshot carried by a bill item.
type FacilityInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// PackageTypeInfo is the frozen package-type snapshot carried by a bill item.
type PackageTypeInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PackageInfo is the frozen package snapshot carried by a bill item.
type PackageInfo struct {
	Name         string   `json:"name"`
	Price        int64    `json:"price"`
	DurationDays int32    `json:"durationDays"`
	Benefits     []string `json:"benefits"`
}

// BillItem is an immutable priced receipt for exactly one package purchase.
// The descriptive snapshots are copied at creation time and never follow
// later catalog edits.
type BillItem struct {
	ID             string
	AccountID      string
	BrandID        string
	FacilityID     string
	PackageTypeID  string
	PackageID      string
	Facility       FacilityInfo
	PackageType    PackageTypeInfo
	Package        PackageInfo
	Promotions     []Promotion
	PromotionPrice int64
	TotalPrice     int64
	Status         Status
	CreatedAt      time.Time
}

// Bill is one payable transaction grouping one or more bill items.
type Bill struct {
	ID             string
	AccountID      string
	BillItemIDs    []string
	PaymentMethod  string
	Taxes          int64
	Description    string
	Promotions     []Promotion
	PromotionPrice int64
	TotalPrice     int64
	Status         Status
	CreatedAt      time.Time
}

// PaymentOptions carries caller-supplied billing parameters. Zero values fall
// back to configured defaults when the bill is aggregated.
type PaymentOptions struct {
	Method      string
	Taxes       int64
	Description string
	Promotions  []Promotion
}

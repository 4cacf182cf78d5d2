package catalog

import "time"

// Brand is the top of the catalog hierarchy; facilities belong to a brand.
type Brand struct {
	ID   string
	Name string
}

// Facility is a physical location members attend.
type Facility struct {
	ID      string
	BrandID string
	Name    string
	Address string
	Phone   string
}

// PackageType groups packages offered at one facility.
type PackageType struct {
	ID          string
	FacilityID  string
	Name        string
	Description string
}

// Package is a purchasable access plan. Price is in minor currency units and
// DurationDays is the access window granted per purchase.
type Package struct {
	ID            string
	PackageTypeID string
	Name          string
	Price         int64
	DurationDays  int32
	Benefits      []string
}

// Duration converts the package's access window into a time.Duration.
func (p Package) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}

// PackageDetail is one package resolved together with its owning package
// type, facility, and brand. The snapshot builder copies from this chain.
type PackageDetail struct {
	Package     Package
	PackageType PackageType
	Facility    Facility
	Brand       Brand
}

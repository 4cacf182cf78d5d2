package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitspace/backend-fitspace/internal/catalog"
)

// CatalogRepo resolves catalog chains from Postgres. The purchase core only
// reads the catalog; management endpoints live in another service.
type CatalogRepo struct {
	Pool *pgxpool.Pool
}

var _ catalog.Store = CatalogRepo{}

// GetPackageDetail resolves a package with its package type, facility, and brand.
func (r CatalogRepo) GetPackageDetail(ctx context.Context, packageID string) (catalog.PackageDetail, error) {
	pID, err := uuidValue(packageID)
	if err != nil {
		return catalog.PackageDetail{}, catalog.ErrNotFound
	}
	const query = `
SELECT p.id, p.package_type_id, p.name, p.price, p.duration_days, p.benefits,
       pt.id, pt.facility_id, pt.name, pt.description,
       f.id, f.brand_id, f.name, f.address, f.phone,
       b.id, b.name
FROM packages p
JOIN package_types pt ON pt.id = p.package_type_id
JOIN facilities f ON f.id = pt.facility_id
JOIN brands b ON b.id = f.brand_id
WHERE p.id = $1`
	var (
		detail                                                     catalog.PackageDetail
		pkgID, pkgTypeRef, typeID, facRef, facID, brandRef, brandID pgtype.UUID
		benefits                                                   []byte
	)
	row := r.Pool.QueryRow(ctx, query, pID)
	err = row.Scan(
		&pkgID, &pkgTypeRef, &detail.Package.Name, &detail.Package.Price, &detail.Package.DurationDays, &benefits,
		&typeID, &facRef, &detail.PackageType.Name, &detail.PackageType.Description,
		&facID, &brandRef, &detail.Facility.Name, &detail.Facility.Address, &detail.Facility.Phone,
		&brandID, &detail.Brand.Name,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.PackageDetail{}, catalog.ErrNotFound
		}
		return catalog.PackageDetail{}, err
	}
	detail.Package.ID = uuidString(pkgID)
	detail.Package.PackageTypeID = uuidString(pkgTypeRef)
	detail.Package.Benefits = fromJSON[[]string](benefits)
	detail.PackageType.ID = uuidString(typeID)
	detail.PackageType.FacilityID = uuidString(facRef)
	detail.Facility.ID = uuidString(facID)
	detail.Facility.BrandID = uuidString(brandRef)
	detail.Brand.ID = uuidString(brandID)
	return detail, nil
}

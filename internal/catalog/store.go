package catalog

import (
	"context"
	"errors"
)

// ErrNotFound indicates a catalog entity or one of its owning links is absent.
var ErrNotFound = errors.New("catalog: not found")

// Store is the narrow read-only contract the purchase core consumes. Catalog
// management itself (CRUD, pricing rules, promotions) lives outside the core.
type Store interface {
	// GetPackageDetail resolves a package together with its package type,
	// facility, and brand. Returns ErrNotFound when any link is missing.
	GetPackageDetail(ctx context.Context, packageID string) (PackageDetail, error)
}

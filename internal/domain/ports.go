package domain

import "context"

type SearchClient interface {
	SearchPlaces(ctx context.Context, query, placeType string) ([]Place, error)
	GetPlaceDetails(ctx context.Context, placeID string) (PlaceDetails, error)
	FetchPhoto(ctx context.Context, ref string, maxWidth int) (PhotoStream, error)
}

// CatalogWriter is the write surface used inside one sync transaction.
type CatalogWriter interface {
	// UpsertCategory creates or renames the category row and returns its id.
	UpsertCategory(ctx context.Context, slug, name string) (int64, error)
	// UpsertBusiness overwrites every field of the row keyed by ExternalID.
	UpsertBusiness(ctx context.Context, b Business) error
}

type BusinessRepository interface {
	// Write paths
	InTx(ctx context.Context, fn func(w CatalogWriter) error) error

	// Read paths
	ListBusinesses(ctx context.Context, categorySlug string) ([]BusinessView, error)
	GetBusiness(ctx context.Context, externalID string) (BusinessView, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	// Incr atomically bumps an integer counter and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
}

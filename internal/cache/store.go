package cache

import "context"

// Keys for the three persisted metadata documents.
const (
	KeyCities     = "cities"
	KeyFilters    = "filters"
	KeyCategories = "category"
)

// Store persists whole JSON documents under string keys. Save always
// overwrites in full; Load reports absence instead of failing when the key
// has never been written.
type Store interface {
	Load(ctx context.Context, key string, out any) (bool, error)
	Save(ctx context.Context, key string, in any) error
}

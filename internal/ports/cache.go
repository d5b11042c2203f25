package ports

import (
	"context"
	"time"
)

// Cache is a generic key-value capability used for best-effort caching of
// rendered compliance and KPI reports. Adapters may be backed by SQLite or
// other stores; cache failures never fail the surrounding operation.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

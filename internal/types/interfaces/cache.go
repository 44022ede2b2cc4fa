package interfaces

import (
	"context"
	"time"

	"github.com/raghavpatnecha/ragserve/internal/types"
)

// Cache is the best-effort key/value collaborator backing the embedding,
// query-reformulation and search keyspaces. Any transport error must surface
// as a miss on Get and a silent failure on Set; the call site never fails
// because of the cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	InvalidateTenant(ctx context.Context, tenantID string)
	Stats(ctx context.Context) types.CacheStats
}

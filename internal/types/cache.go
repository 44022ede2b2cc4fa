package types

import "time"

// Cache keyspace prefixes. Search keys embed the tenant id so invalidation by
// tenant is a prefix/pattern sweep; embedding and reformulation keys are
// global because their inputs (text) carry no tenant-specific meaning.
const (
	CacheKeyspaceEmbedding   = "embedding"
	CacheKeyspaceQueryReform = "query_reform"
	CacheKeyspaceSearch      = "search"
)

// CacheStats reports the enable-flag, approximate key count, memory and
// hit-rate of the cache, derived from hits/(hits+misses).
type CacheStats struct {
	Enabled     bool    `json:"enabled"`
	ApproxKeys  int64   `json:"approx_keys"`
	MemoryBytes int64   `json:"memory_bytes"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
}

// CacheEntry is the in-process view of a cached value prior to serialization;
// the cache itself stores opaque byte blobs under string keys built by the
// cache package's EmbeddingKey, QueryReformKey and SearchKey.
type CacheEntry struct {
	Key       string
	Value     []byte
	TTL       time.Duration
	CreatedAt time.Time
}

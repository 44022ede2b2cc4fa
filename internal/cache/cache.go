// Package cache implements the best-effort Cache collaborator (§4.1):
// three keyspaces (embedding, query_reform, search), opaque byte-blob
// values, sha256 key derivation and a hit-rate stat, backed by Redis in the
// same client-construction idiom the teacher uses for its stream manager.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/raghavpatnecha/ragserve/internal/config"
	"github.com/raghavpatnecha/ragserve/internal/logger"
	"github.com/raghavpatnecha/ragserve/internal/types"
	"github.com/raghavpatnecha/ragserve/internal/types/interfaces"
)

// RedisCache implements interfaces.Cache. Every operation is best-effort:
// transport errors are logged and degrade to a miss (Get) or a no-op (Set),
// never an error the caller has to handle.
type RedisCache struct {
	client  *redis.Client
	enabled bool
	ttl     struct {
		embedding, queryReform, search time.Duration
	}
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache constructs the cache collaborator from Redis + cache config.
func NewCache(redisCfg *config.RedisConfig, cacheCfg *config.CacheConfig) (interfaces.Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Address,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	c := &RedisCache{client: client, enabled: cacheCfg.Enabled}
	c.ttl.embedding = orDefault(cacheCfg.EmbeddingTTL, time.Hour)
	c.ttl.queryReform = orDefault(cacheCfg.QueryReformTTL, 10*time.Minute)
	c.ttl.search = orDefault(cacheCfg.SearchTTL, 10*time.Minute)
	return c, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Errorf(ctx, "cache get failed key=%s: %v", key, err)
		}
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return data, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !c.enabled {
		return
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Errorf(ctx, "cache set failed key=%s: %v", key, err)
	}
}

// InvalidateTenant sweeps every search key belonging to a tenant; search
// keys embed the tenant id so this is a prefix/pattern scan.
func (c *RedisCache) InvalidateTenant(ctx context.Context, tenantID string) {
	if !c.enabled {
		return
	}
	pattern := fmt.Sprintf("%s:tenant:%s:*", types.CacheKeyspaceSearch, tenantID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Errorf(ctx, "cache invalidate scan failed tenant=%s: %v", tenantID, err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Errorf(ctx, "cache invalidate del failed tenant=%s: %v", tenantID, err)
	}
}

func (c *RedisCache) Stats(ctx context.Context) types.CacheStats {
	hits, misses := c.hits.Load(), c.misses.Load()
	stats := types.CacheStats{Enabled: c.enabled, Hits: hits, Misses: misses}
	if hits+misses > 0 {
		stats.HitRate = float64(hits) / float64(hits+misses)
	}
	if !c.enabled {
		return stats
	}
	if n, err := c.client.DBSize(ctx).Result(); err == nil {
		stats.ApproxKeys = n
	}
	if info, err := c.client.Info(ctx, "memory").Result(); err == nil {
		stats.MemoryBytes = parseUsedMemory(info)
	}
	return stats
}

func parseUsedMemory(info string) int64 {
	const marker = "used_memory:"
	idx := indexOf(info, marker)
	if idx < 0 {
		return 0
	}
	rest := info[idx+len(marker):]
	end := indexOf(rest, "\r\n")
	if end < 0 {
		end = len(rest)
	}
	var n int64
	fmt.Sscanf(rest[:end], "%d", &n)
	return n
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// EmbeddingKey derives the embedding:sha256(text) cache key (§4.1).
func EmbeddingKey(text string) string {
	return fmt.Sprintf("%s:%s", types.CacheKeyspaceEmbedding, sha256Hex(text))
}

// QueryReformKey derives the query_reform:sha256(text) cache key.
func QueryReformKey(text string) string {
	return fmt.Sprintf("%s:%s", types.CacheKeyspaceQueryReform, sha256Hex(text))
}

// SearchKeyParams is the canonical set of inputs hashed into a search cache
// key, per §4.1: mode, top_k, collection_id, tenant_id, rerank flag,
// enable_graph flag, and metadata_filter.
type SearchKeyParams struct {
	Mode           string            `json:"mode"`
	TopK           int               `json:"top_k"`
	CollectionID   string            `json:"collection_id"`
	TenantID       string            `json:"tenant_id"`
	Rerank         bool              `json:"rerank"`
	EnableGraph    bool              `json:"enable_graph"`
	MetadataFilter map[string]string `json:"metadata_filter,omitempty"`
}

// SearchKey derives search:sha256(query || canonical_json(params)). Keys
// embed the tenant id (inside params) so InvalidateTenant's pattern scan can
// find every key belonging to one tenant.
func SearchKey(query string, params SearchKeyParams) string {
	canonical := canonicalJSON(params)
	digest := sha256.Sum256([]byte(query + canonical))
	return fmt.Sprintf("%s:tenant:%s:%s", types.CacheKeyspaceSearch, params.TenantID, hex.EncodeToString(digest[:]))
}

// canonicalJSON produces a stable JSON encoding by marshaling into a
// sorted-key map first; Go's encoding/json already sorts map keys, so this
// only matters because SearchKeyParams itself has a fixed field order.
func canonicalJSON(params SearchKeyParams) string {
	raw, _ := json.Marshal(params)
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make([]byte, 0, len(raw))
	ordered = append(ordered, '{')
	for i, k := range keys {
		if i > 0 {
			ordered = append(ordered, ',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(m[k])
		ordered = append(ordered, kb...)
		ordered = append(ordered, ':')
		ordered = append(ordered, vb...)
	}
	ordered = append(ordered, '}')
	return string(ordered)
}

func sha256Hex(text string) string {
	digest := sha256.Sum256([]byte(text))
	return hex.EncodeToString(digest[:])
}

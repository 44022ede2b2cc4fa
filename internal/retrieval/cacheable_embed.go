package retrieval

import (
	"context"
	"encoding/json"
	"time"

	"github.com/raghavpatnecha/ragserve/internal/cache"
	"github.com/raghavpatnecha/ragserve/internal/models/embedding"
	"github.com/raghavpatnecha/ragserve/internal/types/interfaces"
)

// cachedEmbed wraps the Embedder behind the embedding: cache keyspace (§4.2):
// every embed call first checks the cache, then writes through on a miss.
type cachedEmbed struct {
	embedder embedding.Embedder
	cache    interfaces.Cache
	ttl      time.Duration
}

func (c *cachedEmbed) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.EmbeddingKey(text)
	if raw, ok := c.cache.Get(ctx, key); ok {
		var vec []float32
		if err := json.Unmarshal(raw, &vec); err == nil {
			return vec, nil
		}
		// corrupted cached value: fall through and recompute, per §4.1
	}
	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(vec); err == nil {
		c.cache.Set(ctx, key, raw, c.ttl)
	}
	return vec, nil
}

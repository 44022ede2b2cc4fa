package retrieval

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/raghavpatnecha/ragserve/internal/cache"
	"github.com/raghavpatnecha/ragserve/internal/models/embedding"
	"github.com/raghavpatnecha/ragserve/internal/types"
)

type fakeMemCache struct {
	values map[string][]byte
	sets   int
}

func newFakeMemCache() *fakeMemCache { return &fakeMemCache{values: map[string][]byte{}} }

func (f *fakeMemCache) Get(ctx context.Context, key string) ([]byte, bool) {
	v, ok := f.values[key]
	return v, ok
}
func (f *fakeMemCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	f.sets++
	f.values[key] = value
}
func (f *fakeMemCache) InvalidateTenant(ctx context.Context, tenantID string) {}
func (f *fakeMemCache) Stats(ctx context.Context) types.CacheStats            { return types.CacheStats{} }

type fakeEmbedder struct {
	vector []float32
	calls  int
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}
func (f *fakeEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}
func (f *fakeEmbedder) BatchEmbedWithPool(ctx context.Context, model embedding.Embedder, texts []string) ([][]float32, error) {
	return nil, nil
}
func (f *fakeEmbedder) GetModelName() string { return "fake" }
func (f *fakeEmbedder) GetDimensions() int   { return len(f.vector) }
func (f *fakeEmbedder) GetModelID() string   { return "fake-1" }

func TestCachedEmbedWritesThroughOnMiss(t *testing.T) {
	c := newFakeMemCache()
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2, 0.3}}
	ce := &cachedEmbed{embedder: embedder, cache: c, ttl: time.Minute}

	vec, err := ce.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected the embedder's vector to be returned, got %v", vec)
	}
	if embedder.calls != 1 {
		t.Errorf("expected exactly one embedder call, got %d", embedder.calls)
	}
	if c.sets != 1 {
		t.Errorf("expected the computed vector to be written through to the cache, got %d sets", c.sets)
	}
}

func TestCachedEmbedReturnsCachedVectorWithoutCallingEmbedder(t *testing.T) {
	c := newFakeMemCache()
	raw, _ := json.Marshal([]float32{0.5, 0.6})
	c.values[cache.EmbeddingKey("hello")] = raw
	embedder := &fakeEmbedder{vector: []float32{9, 9, 9}}
	ce := &cachedEmbed{embedder: embedder, cache: c, ttl: time.Minute}

	vec, err := ce.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.5 {
		t.Errorf("expected the cached vector to be returned, got %v", vec)
	}
	if embedder.calls != 0 {
		t.Error("expected a cache hit to skip the embedder call entirely")
	}
}

func TestCachedEmbedFallsThroughOnCorruptedCacheValue(t *testing.T) {
	c := newFakeMemCache()
	c.values[cache.EmbeddingKey("hello")] = []byte("not json")
	embedder := &fakeEmbedder{vector: []float32{0.7}}
	ce := &cachedEmbed{embedder: embedder, cache: c, ttl: time.Minute}

	vec, err := ce.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(vec) != 1 || vec[0] != 0.7 {
		t.Errorf("expected recomputation after a corrupted cache value, got %v", vec)
	}
	if embedder.calls != 1 {
		t.Error("expected the embedder to be called after a corrupted cache value")
	}
}

func TestCachedEmbedPropagatesEmbedderError(t *testing.T) {
	c := newFakeMemCache()
	embedder := &fakeEmbedder{err: context.DeadlineExceeded}
	ce := &cachedEmbed{embedder: embedder, cache: c, ttl: time.Minute}

	_, err := ce.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected the embedder's error to propagate")
	}
	if c.sets != 0 {
		t.Error("expected no cache write on embedder failure")
	}
}

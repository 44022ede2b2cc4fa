package retry

import (
	"context"

	"github.com/raghavpatnecha/ragserve/internal/models/chat"
	"github.com/raghavpatnecha/ragserve/internal/models/embedding"
	"github.com/raghavpatnecha/ragserve/internal/models/rerank"
	"github.com/raghavpatnecha/ragserve/internal/types"
)

// Embedder wraps an embedding.Embedder so Embed/BatchEmbed retry per §7.
// Construction and model-introspection calls pass straight through.
type Embedder struct {
	embedding.Embedder
	retryer *Retryer
}

func WrapEmbedder(inner embedding.Embedder, retryer *Retryer) embedding.Embedder {
	return &Embedder{Embedder: inner, retryer: retryer}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return DoWithResult(ctx, e.retryer, func() ([]float32, error) { return e.Embedder.Embed(ctx, text) })
}

func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	return DoWithResult(ctx, e.retryer, func() ([][]float32, error) { return e.Embedder.BatchEmbed(ctx, texts) })
}

// Reranker wraps a rerank.Reranker so Rerank retries per §7.
type Reranker struct {
	rerank.Reranker
	retryer *Retryer
}

func WrapReranker(inner rerank.Reranker, retryer *Retryer) rerank.Reranker {
	return &Reranker{Reranker: inner, retryer: retryer}
}

func (r *Reranker) Rerank(ctx context.Context, query string, documents []string) ([]rerank.RankResult, error) {
	return DoWithResult(ctx, r.retryer, func() ([]rerank.RankResult, error) {
		return r.Reranker.Rerank(ctx, query, documents)
	})
}

// chatRetrier wraps a chat.Chat so the non-streaming Chat call retries per
// §7. ChatStream passes through unwrapped: deltas are already consumed by
// the time an error would surface, so retrying would duplicate output.
type chatRetrier struct {
	llm     chat.Chat
	retryer *Retryer
}

func WrapChat(inner chat.Chat, retryer *Retryer) chat.Chat {
	return &chatRetrier{llm: inner, retryer: retryer}
}

func (c *chatRetrier) Chat(ctx context.Context, messages []chat.Message, opts *chat.ChatOptions) (*types.ModelChatResult, error) {
	return DoWithResult(ctx, c.retryer, func() (*types.ModelChatResult, error) { return c.llm.Chat(ctx, messages, opts) })
}

func (c *chatRetrier) ChatStream(ctx context.Context, messages []chat.Message, opts *chat.ChatOptions) (<-chan types.LLMStreamChunk, error) {
	return c.llm.ChatStream(ctx, messages, opts)
}

func (c *chatRetrier) GetModelName() string { return c.llm.GetModelName() }
func (c *chatRetrier) GetModelID() string   { return c.llm.GetModelID() }

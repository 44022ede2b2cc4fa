package search

import (
	"context"
	"testing"

	"github.com/raghavpatnecha/ragserve/internal/models/chat"
	"github.com/raghavpatnecha/ragserve/internal/types"
)

type fakeReformulateChat struct {
	content string
	err     error
}

func (f *fakeReformulateChat) Chat(ctx context.Context, messages []chat.Message, opts *chat.ChatOptions) (*types.ModelChatResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.ModelChatResult{Content: f.content}, nil
}
func (f *fakeReformulateChat) ChatStream(ctx context.Context, messages []chat.Message, opts *chat.ChatOptions) (<-chan types.LLMStreamChunk, error) {
	return nil, nil
}
func (f *fakeReformulateChat) GetModelName() string { return "fake" }
func (f *fakeReformulateChat) GetModelID() string   { return "fake-1" }

func TestReformulateReturnsRewrittenQuery(t *testing.T) {
	llm := &fakeReformulateChat{content: "  expanded query  "}
	r := NewReformulator(llm)

	out := r.Reformulate(context.Background(), "orig")
	if out != "expanded query" {
		t.Errorf("expected the trimmed rewritten query, got %q", out)
	}
}

func TestReformulateFallsBackToOriginalOnLLMError(t *testing.T) {
	llm := &fakeReformulateChat{err: context.DeadlineExceeded}
	r := NewReformulator(llm)

	out := r.Reformulate(context.Background(), "orig")
	if out != "orig" {
		t.Errorf("expected the original query on LLM failure, got %q", out)
	}
}

func TestReformulateFallsBackToOriginalOnEmptyResponse(t *testing.T) {
	llm := &fakeReformulateChat{content: "   "}
	r := NewReformulator(llm)

	out := r.Reformulate(context.Background(), "orig")
	if out != "orig" {
		t.Errorf("expected the original query on an empty response, got %q", out)
	}
}

func TestReformulateReturnsOriginalForNilReformulator(t *testing.T) {
	var r *Reformulator
	out := r.Reformulate(context.Background(), "orig")
	if out != "orig" {
		t.Errorf("expected a nil Reformulator to pass the query through unchanged, got %q", out)
	}
}

func TestReformulateReturnsOriginalWhenLLMIsNil(t *testing.T) {
	r := NewReformulator(nil)
	out := r.Reformulate(context.Background(), "orig")
	if out != "orig" {
		t.Errorf("expected a Reformulator with no LLM to pass the query through unchanged, got %q", out)
	}
}

package interfaces

import (
	"context"

	"github.com/raghavpatnecha/ragserve/internal/types"
)

// Retriever is the Retrieval Orchestrator's external surface, consumed
// directly by the synchronous retrieval handler and by the Deep Reasoner's
// iterative-retrieve step.
type Retriever interface {
	Retrieve(ctx context.Context, params types.SearchParams) (*types.RetrievalResponse, error)
}

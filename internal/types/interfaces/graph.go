package interfaces

import (
	"context"

	"github.com/raghavpatnecha/ragserve/internal/types"
)

// GraphInstance is an isolated graph-RAG instance for one (tenant,
// collection) pair.
type GraphInstance interface {
	Insert(ctx context.Context, documentID, content string, meta types.JSONMap) error
	Query(ctx context.Context, query string, mode types.GraphQueryMode) (*types.GraphContext, error)
	Finalize(ctx context.Context) error
}

// GraphManager provides per-(tenant, collection) graph instances, enforcing
// tenant isolation and scheduler affinity at the cache boundary.
type GraphManager interface {
	Get(ctx context.Context, tenantID, collectionID string) (GraphInstance, error)
	DeleteCollection(ctx context.Context, tenantID, collectionID string) error
	DeleteTenant(ctx context.Context, tenantID string) error
	Cleanup(ctx context.Context) error
}

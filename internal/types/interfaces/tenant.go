package interfaces

import (
	"context"

	"github.com/raghavpatnecha/ragserve/internal/types"
)

// TenantService resolves API keys to tenants for the Auth middleware. The
// core treats tenant CRUD as a collaborator concern; this is the minimal
// read surface retrieval and chat need.
type TenantService interface {
	GetTenantByID(ctx context.Context, id string) (*types.Tenant, error)
	ExtractTenantIDFromAPIKey(ctx context.Context, apiKey string) (string, error)
}

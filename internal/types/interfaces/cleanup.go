package interfaces

import (
	"context"

	"github.com/raghavpatnecha/ragserve/internal/types"
)

// ResourceCleaner accumulates teardown steps registered during container
// wiring and runs them, last-registered-first, on shutdown.
type ResourceCleaner interface {
	Register(cleanup types.CleanupFunc)
	RegisterWithName(name string, cleanup types.CleanupFunc)
	Cleanup(ctx context.Context) []error
	Reset()
}

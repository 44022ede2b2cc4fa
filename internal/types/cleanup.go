package types

// CleanupFunc is a single resource teardown step registered with the
// ResourceCleaner collaborator.
type CleanupFunc func() error

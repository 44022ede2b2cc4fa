package interfaces

import (
	"context"
	"time"

	"github.com/raghavpatnecha/ragserve/internal/types"
)

// Store is the persistence collaborator: typed operations over chunks,
// documents, sessions and messages, parameterized by tenant. Vector
// similarity and full-text match are pushed into the underlying store by the
// search package, which holds its own *gorm.DB handle; Store covers the
// record-level CRUD that retrieval and chat need on top of that.
type Store interface {
	GetDocument(ctx context.Context, tenantID, documentID string) (*types.Document, error)
	ListDocumentsByIDs(ctx context.Context, tenantID string, documentIDs []string) ([]*types.Document, error)

	// BeginProcessing acquires a row lock on the document and transitions it
	// pending -> processing, returning false without error if another worker
	// already moved it out of pending.
	BeginProcessing(ctx context.Context, tenantID, documentID string) (bool, error)
	FinishProcessing(ctx context.Context, tenantID, documentID string, status types.DocumentStatus) error

	GetChunksByIDs(ctx context.Context, tenantID string, chunkIDs []string) ([]*types.Chunk, error)
	GetChunkNeighbors(ctx context.Context, tenantID, documentID string, fromIndex, toIndex int) ([]*types.Chunk, error)

	CreateSession(ctx context.Context, session *types.ChatSession) error
	GetSession(ctx context.Context, tenantID, sessionID string) (*types.ChatSession, error)
	TouchSession(ctx context.Context, tenantID, sessionID string) error
	DeleteSession(ctx context.Context, tenantID, sessionID string) error

	AppendMessage(ctx context.Context, message *types.ChatMessage) error
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]*types.ChatMessage, error)

	// SweepStuckProcessing resets documents that have sat in "processing"
	// past staleSince back to "pending" (bumping retry_count), or to
	// "failed" once retry_count reaches maxRetries. It's the ingestion-
	// worker half of the BeginProcessing row-lock contract: retrieval only
	// ever treats status != completed as "not searchable" (§7); reviving a
	// stuck document is this method's job, not retrieval's.
	SweepStuckProcessing(ctx context.Context, staleSince time.Time, maxRetries int) (reset, failed int, err error)
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/raghavpatnecha/ragserve/internal/logger"
	"github.com/raghavpatnecha/ragserve/internal/types"
	"github.com/raghavpatnecha/ragserve/internal/types/interfaces"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrNotPending       = errors.New("document is not pending")
)

// gormStore implements interfaces.Store over a single *gorm.DB handle,
// following the teacher's repository idiom of one struct per collaborator
// wrapping db.WithContext(ctx), rather than splitting into one type per
// table.
type gormStore struct {
	db *gorm.DB
}

// NewStore constructs the persistence collaborator.
func NewStore(db *gorm.DB) interfaces.Store {
	return &gormStore{db: db}
}

func (s *gormStore) GetDocument(ctx context.Context, tenantID, documentID string) (*types.Document, error) {
	var doc types.Document
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, documentID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *gormStore) ListDocumentsByIDs(ctx context.Context, tenantID string, documentIDs []string) ([]*types.Document, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}
	var docs []*types.Document
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, documentIDs).
		Find(&docs).Error
	return docs, err
}

// BeginProcessing acquires a row lock on the document and, only if it is
// still pending, transitions it to processing. A worker observing a
// non-pending state returns (false, nil) without reprocessing, per the
// ingestion-status lock contract in the concurrency model.
func (s *gormStore) BeginProcessing(ctx context.Context, tenantID, documentID string) (bool, error) {
	started := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc types.Document
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND id = ?", tenantID, documentID).
			First(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDocumentNotFound
			}
			return err
		}
		if doc.Status != types.DocumentStatusPending {
			return nil
		}
		if err := tx.Model(&doc).Update("status", types.DocumentStatusProcessing).Error; err != nil {
			return err
		}
		started = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return started, nil
}

func (s *gormStore) FinishProcessing(ctx context.Context, tenantID, documentID string, status types.DocumentStatus) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc types.Document
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND id = ?", tenantID, documentID).
			First(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDocumentNotFound
			}
			return err
		}
		if !doc.Status.CanTransitionTo(status) {
			logger.Errorf(ctx, "refusing non-forward document status transition document_id=%s from=%s to=%s",
				documentID, doc.Status, status)
			return nil
		}
		updates := map[string]any{"status": status}
		if status == types.DocumentStatusPending {
			updates["retry_count"] = doc.RetryCount + 1
		}
		return tx.Model(&doc).Updates(updates).Error
	})
}

// SweepStuckProcessing reclaims documents a worker crashed or hung while
// holding: anything still "processing" past staleSince goes back to
// "pending" (bumping retry_count) for another attempt, or to "failed" once
// retry_count has already reached maxRetries.
func (s *gormStore) SweepStuckProcessing(ctx context.Context, staleSince time.Time, maxRetries int) (reset, failed int, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stuck []types.Document
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ? AND updated_at < ?", types.DocumentStatusProcessing, staleSince).
			Find(&stuck).Error; err != nil {
			return err
		}
		for _, doc := range stuck {
			if doc.RetryCount >= maxRetries {
				if err := tx.Model(&doc).Update("status", types.DocumentStatusFailed).Error; err != nil {
					return err
				}
				failed++
				continue
			}
			if err := tx.Model(&doc).Updates(map[string]any{
				"status":      types.DocumentStatusPending,
				"retry_count": doc.RetryCount + 1,
			}).Error; err != nil {
				return err
			}
			reset++
		}
		return nil
	})
	return reset, failed, err
}

func (s *gormStore) GetChunksByIDs(ctx context.Context, tenantID string, chunkIDs []string) ([]*types.Chunk, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}
	var chunks []*types.Chunk
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, chunkIDs).
		Find(&chunks).Error
	return chunks, err
}

func (s *gormStore) GetChunkNeighbors(ctx context.Context, tenantID, documentID string, fromIndex, toIndex int) ([]*types.Chunk, error) {
	var chunks []*types.Chunk
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND document_id = ? AND chunk_index BETWEEN ? AND ?",
			tenantID, documentID, fromIndex, toIndex).
		Order("chunk_index ASC").
		Find(&chunks).Error
	return chunks, err
}

func (s *gormStore) CreateSession(ctx context.Context, session *types.ChatSession) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *gormStore) GetSession(ctx context.Context, tenantID, sessionID string) (*types.ChatSession, error) {
	var session types.ChatSession
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, sessionID).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	return &session, err
}

func (s *gormStore) TouchSession(ctx context.Context, tenantID, sessionID string) error {
	return s.db.WithContext(ctx).Model(&types.ChatSession{}).
		Where("tenant_id = ? AND id = ?", tenantID, sessionID).
		Update("last_message_at", gorm.Expr("now()")).Error
}

func (s *gormStore) DeleteSession(ctx context.Context, tenantID, sessionID string) error {
	return s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, sessionID).
		Delete(&types.ChatSession{}).Error
}

func (s *gormStore) AppendMessage(ctx context.Context, message *types.ChatMessage) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(message).Error
}

func (s *gormStore) RecentMessages(ctx context.Context, sessionID string, limit int) ([]*types.ChatMessage, error) {
	var messages []*types.ChatMessage
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

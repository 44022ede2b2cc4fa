package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentStatus tracks the ingestion lifecycle. Transitions are strictly
// forward; re-processing resets a document to DocumentStatusPending and bumps
// RetryCount rather than reopening an earlier state in place.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// CanTransitionTo reports whether moving from the receiver to next is a
// forward transition under the spec's state machine. Resetting to pending
// (re-processing) is always allowed from any terminal or stuck state.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	if next == DocumentStatusPending {
		return true
	}
	switch s {
	case DocumentStatusPending:
		return next == DocumentStatusProcessing
	case DocumentStatusProcessing:
		return next == DocumentStatusCompleted || next == DocumentStatusFailed
	default:
		return false
	}
}

// Document is (tenant, collection, document_id, title, filename, content_type,
// status, document_vector?, summary?).
type Document struct {
	ID             string         `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID       string         `gorm:"type:uuid;index:idx_document_scope;not null" json:"tenant_id"`
	CollectionID   string         `gorm:"type:uuid;index:idx_document_scope;not null" json:"collection_id"`
	Title          string         `gorm:"size:512" json:"title"`
	Filename       string         `gorm:"size:512" json:"filename"`
	ContentType    string         `gorm:"size:128" json:"content_type"`
	Status         DocumentStatus `gorm:"size:32;not null;default:pending" json:"status"`
	RetryCount     int            `gorm:"default:0" json:"retry_count"`
	DocumentVector Vector         `gorm:"type:jsonb" json:"document_vector,omitempty"`
	Summary        string         `gorm:"type:text" json:"summary,omitempty"`
	DocumentType   string         `gorm:"size:128;index" json:"document_type,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

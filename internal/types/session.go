package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageRole identifies the speaker of a ChatMessage.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// ChatSession is (session_id, tenant, collection?, title, created_at,
// last_message_at). Deleting a session cascades to its messages.
type ChatSession struct {
	ID            string    `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID      string    `gorm:"type:uuid;index:idx_session_tenant;not null" json:"tenant_id"`
	CollectionID  string    `gorm:"type:uuid;index" json:"collection_id,omitempty"`
	Title         string    `gorm:"size:512" json:"title"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`

	Messages []ChatMessage `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// ChatMessage is an ordered, append-only entry in a ChatSession's history:
// (role, content, chunk_ids?, metadata?, created_at).
type ChatMessage struct {
	ID        string      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID string      `gorm:"type:uuid;index:idx_message_session;not null" json:"session_id"`
	Role      MessageRole `gorm:"size:32;not null" json:"role"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	ChunkIDs  StringArray `gorm:"type:jsonb" json:"chunk_ids,omitempty"`
	Metadata  JSONMap     `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

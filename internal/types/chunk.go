package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chunk is (chunk_id, document_id, collection, tenant, chunk_index, content,
// search_content, vector[D], metadata, chunk_metadata). (document_id,
// chunk_index) is unique and dense (0..N-1) per document. search_content is a
// normalized form of content used for lexical search; the vector column
// itself is a pgvector halfvec managed by the search package via raw SQL, not
// represented here.
type Chunk struct {
	ID             string  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID       string  `gorm:"type:uuid;index:idx_chunk_scope;not null" json:"tenant_id"`
	CollectionID   string  `gorm:"type:uuid;index:idx_chunk_scope;not null" json:"collection_id"`
	DocumentID     string  `gorm:"type:uuid;uniqueIndex:idx_chunk_doc_index;not null" json:"document_id"`
	ChunkIndex     int     `gorm:"uniqueIndex:idx_chunk_doc_index;not null" json:"chunk_index"`
	Content        string  `gorm:"type:text;not null" json:"content"`
	SearchContent  string  `gorm:"type:text" json:"search_content"`
	Metadata       JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	ChunkMetadata  JSONMap `gorm:"type:jsonb" json:"chunk_metadata,omitempty"`
	DocumentTitle  string  `gorm:"-" json:"-"`
	DocumentFile   string  `gorm:"-" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (c *Chunk) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// DocumentRef is the (id, title, filename) projection of a Document embedded
// in a Hit.
type DocumentRef struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Filename string `json:"filename"`
}

package search

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate adds the pgvector/paradedb columns and indexes that back Vector,
// Keyword and hierarchical search. These live outside the gorm-managed
// Chunk/Document structs (same split the teacher's postgres retriever keeps
// between its ORM models and its raw vector-index table) because pgvector's
// halfvec type and paradedb's BM25 index have no portable gorm mapping.
func Migrate(db *gorm.DB, dimension int) error {
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		"CREATE EXTENSION IF NOT EXISTS pg_search",
		fmt.Sprintf("ALTER TABLE chunks ADD COLUMN IF NOT EXISTS embedding halfvec(%d)", dimension),
		fmt.Sprintf("ALTER TABLE documents ADD COLUMN IF NOT EXISTS document_vector_hv halfvec(%d)", dimension),
		"CREATE INDEX IF NOT EXISTS idx_chunk_embedding_hnsw ON chunks USING hnsw (embedding halfvec_cosine_ops)",
		"CREATE INDEX IF NOT EXISTS idx_document_vector_hnsw ON documents USING hnsw (document_vector_hv halfvec_cosine_ops)",
		"CREATE INDEX IF NOT EXISTS idx_chunk_search_content_bm25 ON chunks USING bm25 (id, search_content) WITH (key_field='id')",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("search migrate %q: %w", stmt, err)
		}
	}
	return nil
}

// UpsertChunkEmbedding writes a chunk's embedding after the embed step; kept
// as raw SQL for the same reason the columns are raw SQL.
func UpsertChunkEmbedding(db *gorm.DB, chunkID string, embedding []float32) error {
	return db.Exec("UPDATE chunks SET embedding = ?::halfvec WHERE id = ?", vecLiteral(embedding), chunkID).Error
}

// UpsertDocumentVector writes a document's summary embedding for tier 1 of
// the hierarchical search.
func UpsertDocumentVector(db *gorm.DB, documentID string, embedding []float32) error {
	return db.Exec("UPDATE documents SET document_vector_hv = ?::halfvec WHERE id = ?", vecLiteral(embedding), documentID).Error
}

func vecLiteral(v []float32) string {
	s := "["
	for i, f := range v {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%g", f)
	}
	return s + "]"
}

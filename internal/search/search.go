// Package search implements the Vector, Keyword and Hybrid search
// collaborators (§4.3) plus the hierarchical two-tier search (§4.5), built
// directly against Postgres using the same pgvector halfvec cosine operator
// and paradedb BM25 match clause the teacher's postgres retriever uses. The
// Elasticsearch/Qdrant engine seam the teacher also supported is dropped
// (see DESIGN.md) — Postgres is the only engine here.
package search

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/raghavpatnecha/ragserve/internal/config"
	"github.com/raghavpatnecha/ragserve/internal/types"
)

// Engine runs vector, keyword and hierarchical chunk search against the
// chunks/documents tables. embedding/document_vector_hv are pgvector halfvec
// columns added by a raw-SQL migration (see migrate.go), not gorm struct
// fields, matching how the teacher keeps its vector column outside the
// ORM-managed struct.
type Engine struct {
	db         *gorm.DB
	dimension  int
	cfg        *config.SearchConfig
	hierarchic *config.HierarchicalConfig
}

func NewEngine(db *gorm.DB, dimension int, cfg *config.SearchConfig, hier *config.HierarchicalConfig) *Engine {
	return &Engine{db: db, dimension: dimension, cfg: cfg, hierarchic: hier}
}

type scoredRow struct {
	ChunkID       string
	DocumentID    string
	ChunkIndex    int
	Content       string
	Metadata      types.JSONMap
	ChunkMetadata types.JSONMap
	Score         float64
	DocTitle      string
	DocFilename   string
}

// VectorSearch ranks chunks by cosine similarity (1 - halfvec distance),
// floored at cfg.VectorScoreFloor, restricted to the given document ids when
// docIDs is non-empty (used by the hierarchical search's tier 2).
func (e *Engine) VectorSearch(ctx context.Context, tenantID, collectionID string, embedding []float32, topK int, docType string, docIDs []string) ([]*types.Hit, error) {
	distExpr := fmt.Sprintf("embedding::halfvec(%d) <=> ?::halfvec", e.dimension)
	vec := pgvector.NewHalfVector(embedding)
	maxDistance := 1 - e.cfg.VectorScoreFloor

	q := e.db.WithContext(ctx).Table("chunks c").
		Joins("JOIN documents d ON d.id = c.document_id").
		Where("c.tenant_id = ? AND c.collection_id = ?", tenantID, collectionID).
		Clauses(clause.Expr{SQL: distExpr + " < ?", Vars: []interface{}{vec, maxDistance}})

	if docType != "" {
		q = q.Where("d.document_type = ?", docType)
	}
	if len(docIDs) > 0 {
		q = q.Clauses(clause.IN{Column: "c.document_id", Values: toAnySlice(docIDs)})
	}

	var rows []scoredRow
	err := q.Select(fmt.Sprintf(
		"c.id as chunk_id, c.document_id as document_id, c.chunk_index as chunk_index, c.content as content, "+
			"c.metadata as metadata, c.chunk_metadata as chunk_metadata, d.title as doc_title, d.filename as doc_filename, "+
			"(1 - (%s)) as score", distExpr), vec).
		Order(clause.Expr{SQL: distExpr, Vars: []interface{}{vec}}).
		Limit(topK).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return toHits(rows, "semantic"), nil
}

// KeywordSearch ranks chunks by paradedb BM25 score against search_content,
// floored at cfg.KeywordScoreFloor.
func (e *Engine) KeywordSearch(ctx context.Context, tenantID, collectionID, query string, topK int, docType string, docIDs []string) ([]*types.Hit, error) {
	q := e.db.WithContext(ctx).Table("chunks c").
		Joins("JOIN documents d ON d.id = c.document_id").
		Where("c.tenant_id = ? AND c.collection_id = ?", tenantID, collectionID).
		Clauses(clause.Expr{
			SQL:  "c.search_content @@@ paradedb.match(field => 'search_content', value => ?, distance => 1)",
			Vars: []interface{}{query},
		})

	if docType != "" {
		q = q.Where("d.document_type = ?", docType)
	}
	if len(docIDs) > 0 {
		q = q.Clauses(clause.IN{Column: "c.document_id", Values: toAnySlice(docIDs)})
	}

	var rows []scoredRow
	err := q.Select(
		"c.id as chunk_id, c.document_id as document_id, c.chunk_index as chunk_index, c.content as content, "+
			"c.metadata as metadata, c.chunk_metadata as chunk_metadata, d.title as doc_title, d.filename as doc_filename, "+
			"paradedb.score(c.id) as score").
		Clauses(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "score"}, Desc: true}}}).
		Limit(topK * 3). // over-fetch before the floor filter; paradedb doesn't expose score in WHERE
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	hits := make([]*types.Hit, 0, len(rows))
	for _, r := range rows {
		if r.Score < e.cfg.KeywordScoreFloor {
			continue
		}
		hits = append(hits, rowToHit(r, "keyword"))
		if len(hits) == topK {
			break
		}
	}
	return hits, nil
}

// DocumentVectorSearch ranks whole documents by cosine similarity of their
// summary embedding — tier 1 of the hierarchical search (§4.5).
func (e *Engine) DocumentVectorSearch(ctx context.Context, tenantID, collectionID string, embedding []float32, topKDoc int) ([]string, error) {
	distExpr := fmt.Sprintf("document_vector_hv::halfvec(%d) <=> ?::halfvec", e.dimension)
	vec := pgvector.NewHalfVector(embedding)

	var ids []string
	err := e.db.WithContext(ctx).Table("documents").
		Where("tenant_id = ? AND collection_id = ? AND document_vector_hv IS NOT NULL", tenantID, collectionID).
		Order(clause.Expr{SQL: distExpr, Vars: []interface{}{vec}}).
		Limit(topKDoc).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("document vector search: %w", err)
	}
	return ids, nil
}

func toHits(rows []scoredRow, matchType string) []*types.Hit {
	hits := make([]*types.Hit, 0, len(rows))
	for _, r := range rows {
		hits = append(hits, rowToHit(r, matchType))
	}
	return hits
}

func rowToHit(r scoredRow, matchType string) *types.Hit {
	return &types.Hit{
		ChunkID:       r.ChunkID,
		Content:       r.Content,
		ChunkIndex:    r.ChunkIndex,
		Score:         r.Score,
		Metadata:      r.Metadata,
		ChunkMetadata: r.ChunkMetadata,
		Document:      types.DocumentRef{ID: r.DocumentID, Title: r.DocTitle, Filename: r.DocFilename},
		MatchType:     matchType,
	}
}

func toAnySlice(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

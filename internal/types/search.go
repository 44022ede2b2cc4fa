package types

// SearchMode selects how the base search dispatches across semantic (vector),
// keyword, hybrid and graph retrieval; hierarchical search is a separate flag.
type SearchMode string

const (
	SearchModeSemantic SearchMode = "semantic"
	SearchModeKeyword  SearchMode = "keyword"
	SearchModeHybrid   SearchMode = "hybrid"
	SearchModeGraph    SearchMode = "graph"
)

// GraphQueryMode selects the graph library's retrieval strategy.
type GraphQueryMode string

const (
	GraphModeLocal  GraphQueryMode = "local"
	GraphModeGlobal GraphQueryMode = "global"
	GraphModeHybrid GraphQueryMode = "hybrid"
	GraphModeNaive  GraphQueryMode = "naive"
)

// ContextWindow records how a Hit's content was expanded with neighboring
// chunks from the same document.
type ContextWindow struct {
	OriginalIndex int `json:"original_index"`
	StartIndex    int `json:"start_index"`
	EndIndex      int `json:"end_index"`
	ChunksMerged  int `json:"chunks_merged"`
}

// Hit is the transient retrieval result: (chunk_id, content, chunk_index,
// score, rerank_score?, metadata, chunk_metadata, document{id,title,filename},
// collection_id, expanded_content?, context_window?).
type Hit struct {
	ChunkID         string         `json:"chunk_id"`
	Content         string         `json:"content"`
	ChunkIndex      int            `json:"chunk_index"`
	Score           float64        `json:"score"`
	RerankScore     *float64       `json:"rerank_score,omitempty"`
	Metadata        JSONMap        `json:"metadata,omitempty"`
	ChunkMetadata   JSONMap        `json:"chunk_metadata,omitempty"`
	Document        DocumentRef    `json:"document"`
	CollectionID    string         `json:"collection_id"`
	ExpandedContent string         `json:"expanded_content,omitempty"`
	ContextWindow   *ContextWindow `json:"context_window,omitempty"`

	// MatchType records why the hit is present: semantic, keyword, graph, or
	// hybrid when reciprocal rank fusion saw it in more than one list.
	MatchType string `json:"match_type,omitempty"`
}

// SourceReference is the response-facing projection of a Hit:
// (document_id, title, filename, chunk_index, score).
type SourceReference struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

// MetadataFilter is a small, validated set of equality filters applied to
// chunk metadata. At most 10 keys, each value at most 256 characters.
type MetadataFilter map[string]string

// SearchParams carries every knob a base search dispatch needs. The search
// cache key is built from its query, mode, top_k, collection, tenant, rerank,
// enable_graph and metadata_filter fields, copied into cache.SearchKeyParams.
type SearchParams struct {
	Query            string         `json:"query"`
	Embedding        []float32      `json:"-"`
	TenantID         string         `json:"tenant_id"`
	CollectionID     string         `json:"collection_id,omitempty"`
	Mode             SearchMode     `json:"mode"`
	TopK             int            `json:"top_k"`
	DocumentType     string         `json:"document_type,omitempty"`
	Hierarchical     bool           `json:"hierarchical"`
	Rerank           bool           `json:"rerank"`
	EnableGraph      bool           `json:"enable_graph"`
	ExpandContext    bool           `json:"expand_context"`
	MetadataFilter   MetadataFilter `json:"metadata_filter,omitempty"`
	VectorThreshold  float64        `json:"-"`
	KeywordThreshold float64        `json:"-"`
}

// RetrievalRequest is the synchronous retrieval API request body.
type RetrievalRequest struct {
	Query          string         `json:"query" binding:"required"`
	Mode           SearchMode     `json:"mode"`
	TopK           int            `json:"top_k"`
	CollectionID   string         `json:"collection_id,omitempty"`
	DocumentType   string         `json:"document_type,omitempty"`
	Rerank         *bool          `json:"rerank,omitempty"`
	EnableGraph    *bool          `json:"enable_graph,omitempty"`
	Hierarchical   *bool          `json:"hierarchical,omitempty"`
	ExpandContext  *bool          `json:"expand_context,omitempty"`
	MetadataFilter MetadataFilter `json:"metadata_filter,omitempty"`
}

// RetrievalResponse is the synchronous retrieval API response body, and also
// the payload shape written to and read from the search cache.
type RetrievalResponse struct {
	Results         []*Hit             `json:"results"`
	Query           string             `json:"query"`
	Mode            SearchMode         `json:"mode"`
	TotalResults    int                `json:"total_results"`
	GraphEnhanced   bool               `json:"graph_enhanced"`
	GraphContext    string             `json:"graph_context,omitempty"`
	GraphReferences []*GraphReference  `json:"graph_references,omitempty"`
	RetrievalMs     int64              `json:"-"`
}

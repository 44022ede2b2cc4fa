// Package retrieval implements the Retrieval Orchestrator (§4.7) and the
// Context Expander (§4.8): the nine-step pipeline that turns a query into a
// ranked, optionally graph-enriched and context-expanded set of Hits.
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raghavpatnecha/ragserve/internal/cache"
	"github.com/raghavpatnecha/ragserve/internal/config"
	apperrors "github.com/raghavpatnecha/ragserve/internal/errors"
	"github.com/raghavpatnecha/ragserve/internal/logger"
	"github.com/raghavpatnecha/ragserve/internal/models/embedding"
	"github.com/raghavpatnecha/ragserve/internal/models/rerank"
	"github.com/raghavpatnecha/ragserve/internal/search"
	"github.com/raghavpatnecha/ragserve/internal/types"
	"github.com/raghavpatnecha/ragserve/internal/types/interfaces"
)

// Orchestrator runs the full retrieval pipeline: cache → reformulate → embed
// → base/graph dispatch → graph fusion → rerank → context expansion → cache
// write.
type Orchestrator struct {
	store        interfaces.Store
	cacheClient  interfaces.Cache
	engine       *search.Engine
	reranker     rerank.Reranker
	reformulator *search.Reformulator
	embedder     *cachedEmbed
	graphManager interfaces.GraphManager
	searchCfg    *config.SearchConfig
	hierCfg      *config.HierarchicalConfig
	contextCfg   *config.ContextConfig
	cacheCfg     *config.CacheConfig
}

func NewOrchestrator(
	store interfaces.Store,
	cacheClient interfaces.Cache,
	engine *search.Engine,
	reranker rerank.Reranker,
	reformulator *search.Reformulator,
	embedder embedding.Embedder,
	graphManager interfaces.GraphManager,
	searchCfg *config.SearchConfig,
	hierCfg *config.HierarchicalConfig,
	contextCfg *config.ContextConfig,
	cacheCfg *config.CacheConfig,
) *Orchestrator {
	return &Orchestrator{
		store:        store,
		cacheClient:  cacheClient,
		engine:       engine,
		reranker:     reranker,
		reformulator: reformulator,
		embedder:     &cachedEmbed{embedder: embedder, cache: cacheClient, ttl: cacheCfg.EmbeddingTTL},
		graphManager: graphManager,
		searchCfg:    searchCfg,
		hierCfg:      hierCfg,
		contextCfg:   contextCfg,
		cacheCfg:     cacheCfg,
	}
}

func requiresVector(params types.SearchParams) bool {
	return params.Mode == types.SearchModeSemantic || params.Mode == types.SearchModeHybrid || params.Hierarchical
}

// Retrieve runs the nine-step pipeline from §4.7.
func (o *Orchestrator) Retrieve(ctx context.Context, params types.SearchParams) (*types.RetrievalResponse, error) {
	started := time.Now()
	originalQuery := params.Query

	// Step 1: cache read.
	searchKey := o.searchCacheKey(params)
	if raw, ok := o.cacheClient.Get(ctx, searchKey); ok {
		if resp, ok := decodeCachedResponse(raw); ok {
			resp.RetrievalMs = time.Since(started).Milliseconds()
			return resp, nil
		}
		logger.Warnf(ctx, "search cache value for key %s unparseable, ignoring", searchKey)
	}

	// Step 2: reformulate, keeping the original for cache key + rerank.
	reformulated := originalQuery
	if o.reformulator != nil {
		reformulated = o.reformulator.Reformulate(ctx, originalQuery)
	}

	// Step 3: embed, if the mode needs a vector.
	var queryVector []float32
	if requiresVector(params) {
		vec, err := o.embedder.Embed(ctx, reformulated)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		queryVector = vec
	}

	// Steps 4-6: branch by mode + graph flag.
	var baseHits []*types.Hit
	var graphCtx *types.GraphContext
	var graphEnhanced bool

	switch {
	case params.Mode == types.SearchModeGraph:
		gc, err := o.queryGraph(ctx, params, reformulated)
		if err != nil {
			return nil, err
		}
		graphCtx = gc
		graphEnhanced = true
		baseHits = graphChunksToHits(gc)

	case params.EnableGraph:
		g, egCtx := errgroup.WithContext(ctx)
		var baseErr error
		g.Go(func() error {
			hits, err := o.baseSearch(egCtx, params, queryVector, reformulated)
			baseHits = hits
			baseErr = err
			return nil // graph errors never cancel the base branch
		})
		g.Go(func() error {
			gc, err := o.queryGraph(egCtx, params, reformulated)
			if err != nil {
				logger.Warnf(ctx, "graph enrichment failed, continuing without it: %v", err)
				return nil
			}
			graphCtx = gc
			return nil
		})
		_ = g.Wait()
		if baseErr != nil {
			return nil, fmt.Errorf("base search: %w", baseErr)
		}
		if graphCtx != nil {
			scoreCap := o.searchCfg.GraphFusionScoreCap
			if scoreCap <= 0 {
				scoreCap = 0.70
			}
			baseHits = fuseGraphIntoBase(baseHits, graphCtx, scoreCap)
			graphEnhanced = true
		}

	default:
		hits, err := o.baseSearch(ctx, params, queryVector, reformulated)
		if err != nil {
			return nil, fmt.Errorf("base search: %w", err)
		}
		baseHits = hits
	}

	// Step 7: rerank with the original query.
	if params.Rerank && o.reranker != nil && o.reranker.IsAvailable() {
		reranked, err := search.Rerank(ctx, o.reranker, originalQuery, baseHits)
		if err == nil {
			baseHits = reranked
		}
	}

	// Step 8: context expansion.
	if params.ExpandContext {
		expanded, err := o.expandContext(ctx, params.TenantID, baseHits)
		if err != nil {
			logger.Warnf(ctx, "context expansion failed, returning unexpanded hits: %v", err)
		} else {
			baseHits = expanded
		}
	}

	// Enforce |results| <= top_k (§8): rerank/graph-fusion/expansion may all
	// grow or reorder the slice, so the cap is applied last, right before
	// emission, keeping the top-ranked survivors.
	if params.TopK > 0 && len(baseHits) > params.TopK {
		baseHits = baseHits[:params.TopK]
	}

	resp := &types.RetrievalResponse{
		Results:       baseHits,
		Query:         originalQuery,
		Mode:          params.Mode,
		TotalResults:  len(baseHits),
		GraphEnhanced: graphEnhanced,
		RetrievalMs:   time.Since(started).Milliseconds(),
	}
	if graphCtx != nil {
		resp.GraphContext = graphCtx.NarrativeText
		resp.GraphReferences = graphCtx.References
	}

	// Step 9: cache write (best-effort).
	if raw, err := json.Marshal(resp); err == nil {
		o.cacheClient.Set(ctx, searchKey, raw, o.cacheCfg.SearchTTL)
	}

	return resp, nil
}

func (o *Orchestrator) searchCacheKey(params types.SearchParams) string {
	return cache.SearchKey(params.Query, cache.SearchKeyParams{
		Mode:         string(params.Mode),
		TopK:         params.TopK,
		CollectionID: params.CollectionID,
		TenantID:     params.TenantID,
		Rerank:       params.Rerank,
		EnableGraph:  params.EnableGraph,
		MetadataFilter: map[string]string(params.MetadataFilter),
	})
}

// decodeCachedResponse supports both the legacy bare-list-of-hits shape and
// the current {results, graph_enhanced, graph_context} shape (§4.7 step 1).
func decodeCachedResponse(raw []byte) (*types.RetrievalResponse, bool) {
	var resp types.RetrievalResponse
	if err := json.Unmarshal(raw, &resp); err == nil && resp.Results != nil {
		return &resp, true
	}
	var legacy []*types.Hit
	if err := json.Unmarshal(raw, &legacy); err == nil {
		return &types.RetrievalResponse{Results: legacy, TotalResults: len(legacy)}, true
	}
	return nil, false
}

func (o *Orchestrator) baseSearch(ctx context.Context, params types.SearchParams, queryVector []float32, query string) ([]*types.Hit, error) {
	var docIDs []string
	if params.Hierarchical {
		multiplier := o.hierCfg.DocumentMultiplier
		if multiplier <= 0 {
			multiplier = 3
		}
		ids, err := o.engine.DocumentVectorSearch(ctx, params.TenantID, params.CollectionID, queryVector, params.TopK*multiplier)
		if err == nil {
			docIDs = ids
		}
	}

	switch params.Mode {
	case types.SearchModeKeyword:
		return o.engine.KeywordSearch(ctx, params.TenantID, params.CollectionID, query, params.TopK, params.DocumentType, docIDs)
	case types.SearchModeHybrid:
		vecHits, err := o.engine.VectorSearch(ctx, params.TenantID, params.CollectionID, queryVector, params.TopK*2, params.DocumentType, docIDs)
		if err != nil {
			return nil, err
		}
		kwHits, err := o.engine.KeywordSearch(ctx, params.TenantID, params.CollectionID, query, params.TopK*2, params.DocumentType, docIDs)
		if err != nil {
			return nil, err
		}
		rrfK := o.searchCfg.RRFK
		if rrfK <= 0 {
			rrfK = 60
		}
		fused := search.ReciprocalRankFusion(rrfK, vecHits, kwHits)
		if len(fused) > params.TopK {
			fused = fused[:params.TopK]
		}
		return fused, nil
	default: // semantic
		return o.engine.VectorSearch(ctx, params.TenantID, params.CollectionID, queryVector, params.TopK, params.DocumentType, docIDs)
	}
}

func (o *Orchestrator) queryGraph(ctx context.Context, params types.SearchParams, query string) (*types.GraphContext, error) {
	if o.graphManager == nil {
		return nil, apperrors.NewBadRequestError("graph disabled")
	}
	instance, err := o.graphManager.Get(ctx, params.TenantID, params.CollectionID)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailableError(fmt.Sprintf("graph instance unavailable: %v", err))
	}
	gc, err := instance.Query(ctx, query, types.GraphModeHybrid)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailableError(fmt.Sprintf("graph query failed: %v", err))
	}
	return gc, nil
}

func graphChunksToHits(gc *types.GraphContext) []*types.Hit {
	if gc == nil {
		return nil
	}
	hits := make([]*types.Hit, 0, len(gc.Chunks))
	for _, gch := range gc.Chunks {
		hits = append(hits, &types.Hit{
			ChunkID:   gch.ChunkID,
			Content:   gch.Content,
			Score:     gch.Score,
			Document:  types.DocumentRef{ID: gch.DocumentID, Filename: gch.FilePath},
			MatchType: "graph",
			Metadata:  types.JSONMap{"graph_sourced": true},
		})
	}
	return hits
}

// fuseGraphIntoBase implements step 6: base hits keep their order; any graph
// chunk not already present is clamped to min(score, cap), marked
// graph_sourced, and appended.
func fuseGraphIntoBase(baseHits []*types.Hit, gc *types.GraphContext, cap float64) []*types.Hit {
	present := make(map[string]bool, len(baseHits))
	for _, h := range baseHits {
		present[h.ChunkID] = true
	}
	out := make([]*types.Hit, len(baseHits))
	copy(out, baseHits)
	for _, gch := range gc.Chunks {
		if present[gch.ChunkID] {
			continue
		}
		present[gch.ChunkID] = true
		score := gch.Score
		if score > cap {
			score = cap
		}
		meta := types.JSONMap{"graph_sourced": true}
		out = append(out, &types.Hit{
			ChunkID:   gch.ChunkID,
			Content:   gch.Content,
			Score:     score,
			Document:  types.DocumentRef{ID: gch.DocumentID, Filename: gch.FilePath},
			MatchType: "graph",
			Metadata:  meta,
		})
	}
	return out
}

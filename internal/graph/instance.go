package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v6/neo4j"

	"github.com/raghavpatnecha/ragserve/internal/config"
	"github.com/raghavpatnecha/ragserve/internal/logger"
	"github.com/raghavpatnecha/ragserve/internal/types"
)

// Instance is one tenant+collection's isolated graph-RAG namespace. Content
// inserted through it is tagged with the namespace's labels so Query never
// crosses into another tenant's graph.
type Instance struct {
	driver  neo4j.Driver
	ns      NameSpace
	workDir string
	topK    int
}

func NewInstance(driver neo4j.Driver, ns NameSpace, cfg *config.GraphConfig) *Instance {
	workDir := filepath.Join(cfg.WorkDir, "users", ns.Tenant, "collections", ns.Collection)
	if cfg.WorkDir != "" {
		_ = os.MkdirAll(workDir, 0o755)
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 10
	}
	return &Instance{driver: driver, ns: ns, workDir: workDir, topK: topK}
}

func (i *Instance) labelExpr() string {
	return strings.Join(i.ns.Labels(), ":")
}

// Insert merges a document chunk's entities/relations into this namespace's
// graph, grounded on the teacher's
// apoc.merge.node / apoc.merge.relationship pattern. Entity/relation
// extraction itself happens upstream (ingestion pipeline); Insert here
// expects meta to already carry "entities" and "relations" arrays — when
// absent, Insert is a cheap no-op so callers can pass raw content safely.
func (i *Instance) Insert(ctx context.Context, documentID, content string, meta types.JSONMap) error {
	if i.driver == nil {
		logger.Warnf(ctx, "graph instance has no driver, skipping insert for document %s", documentID)
		return nil
	}
	entities, relations := extractGraphElements(meta)
	if len(entities) == 0 && len(relations) == 0 {
		return nil
	}

	session := i.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		nodeQuery := fmt.Sprintf(`
			UNWIND $data AS row
			CALL apoc.merge.node(row.labels, {name: row.name, ns: row.ns}, row.props, {}) YIELD node
			SET node.chunks = apoc.coll.toSet(apoc.coll.union(coalesce(node.chunks, []), row.chunks))
			RETURN distinct 'done' AS result
		`)
		nodeData := make([]map[string]any, 0, len(entities))
		for _, e := range entities {
			nodeData = append(nodeData, map[string]any{
				"name":   e.Name,
				"ns":     i.ns.key(),
				"props":  map[string]any{"attributes": e.Attributes},
				"chunks": []string{documentID},
				"labels": i.ns.Labels(),
			})
		}
		if len(nodeData) > 0 {
			if _, err := tx.Run(ctx, nodeQuery, map[string]any{"data": nodeData}); err != nil {
				return nil, fmt.Errorf("merge nodes: %w", err)
			}
		}

		relQuery := fmt.Sprintf(`
			UNWIND $data AS row
			CALL apoc.merge.node(row.labels, {name: row.source, ns: row.ns}, {}, {}) YIELD node as source
			CALL apoc.merge.node(row.labels, {name: row.target, ns: row.ns}, {}, {}) YIELD node as target
			CALL apoc.merge.relationship(source, row.type, {}, {}, target) YIELD rel
			RETURN distinct 'done'
		`)
		relData := make([]map[string]any, 0, len(relations))
		for _, r := range relations {
			relData = append(relData, map[string]any{
				"source": r.Source,
				"target": r.Target,
				"type":   r.Type,
				"ns":     i.ns.key(),
				"labels": i.ns.Labels(),
			})
		}
		if len(relData) > 0 {
			if _, err := tx.Run(ctx, relQuery, map[string]any{"data": relData}); err != nil {
				return nil, fmt.Errorf("merge relationships: %w", err)
			}
		}
		return nil, nil
	})
	if err != nil {
		logger.Errorf(ctx, "graph insert failed for document %s: %v", documentID, err)
		return err
	}
	return nil
}

// Query retrieves graph context for a natural-language query. mode selects
// how far the traversal reaches: naive matches node names directly; local
// follows one hop from matched nodes; global and hybrid widen the match set
// (global drops the name filter entirely; hybrid keeps local's name filter
// but matches every node when the query yields no key terms), per the
// spec's GraphQueryMode enum.
func (i *Instance) Query(ctx context.Context, query string, mode types.GraphQueryMode) (*types.GraphContext, error) {
	if i.driver == nil {
		return &types.GraphContext{}, nil
	}
	session := i.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	terms := keyTerms(query)
	labelExpr := i.labelExpr()

	cypher := i.queryForMode(labelExpr, mode)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, cypher, map[string]any{"terms": terms, "limit": i.topK})
		if err != nil {
			return nil, fmt.Errorf("run graph query: %w", err)
		}
		gc := &types.GraphContext{}
		seen := make(map[string]bool)
		var narrative strings.Builder
		for records.Next(ctx) {
			rec := records.Record()
			nVal, _ := rec.Get("n")
			mVal, hasM := rec.Get("m")
			rVal, hasR := rec.Get("r")

			node, ok := nVal.(neo4j.Node)
			if !ok {
				continue
			}
			name := propString(node.Props, "name")
			if name != "" && !seen[name] {
				seen[name] = true
				narrative.WriteString(name)
				narrative.WriteString(": ")
				narrative.WriteString(strings.Join(propStrings(node.Props, "attributes"), ", "))
				narrative.WriteString(". ")
			}
			if hasM && hasR {
				target, ok := mVal.(neo4j.Node)
				rel, ok2 := rVal.(neo4j.Relationship)
				if ok && ok2 {
					targetName := propString(target.Props, "name")
					narrative.WriteString(fmt.Sprintf("%s %s %s. ", name, rel.Type, targetName))
				}
			}
			for _, chunkID := range propStrings(node.Props, "chunks") {
				gc.Chunks = append(gc.Chunks, &types.GraphChunk{ChunkID: chunkID, Content: name})
			}
		}
		gc.NarrativeText = strings.TrimSpace(narrative.String())
		return gc, nil
	})
	if err != nil {
		logger.Errorf(ctx, "graph query failed: %v", err)
		return nil, err
	}
	return result.(*types.GraphContext), nil
}

func (i *Instance) queryForMode(labelExpr string, mode types.GraphQueryMode) string {
	switch mode {
	case types.GraphModeGlobal:
		return fmt.Sprintf(`MATCH (n:%s) OPTIONAL MATCH (n)-[r]-(m:%s) RETURN n, r, m LIMIT $limit`, labelExpr, labelExpr)
	case types.GraphModeHybrid:
		return fmt.Sprintf(`
			MATCH (n:%s)
			WHERE size($terms) = 0 OR ANY(t IN $terms WHERE n.name CONTAINS t)
			OPTIONAL MATCH (n)-[r]-(m:%s)
			RETURN n, r, m LIMIT $limit`, labelExpr, labelExpr)
	case types.GraphModeNaive:
		return fmt.Sprintf(`
			MATCH (n:%s)
			WHERE ANY(t IN $terms WHERE n.name CONTAINS t)
			RETURN n, null as r, null as m LIMIT $limit`, labelExpr)
	default: // local
		return fmt.Sprintf(`
			MATCH (n:%s)
			WHERE ANY(t IN $terms WHERE n.name CONTAINS t)
			OPTIONAL MATCH (n)-[r]-(m:%s)
			RETURN n, r, m LIMIT $limit`, labelExpr, labelExpr)
	}
}

// Finalize closes any resources this instance holds open. The Neo4j driver
// is shared process-wide (owned by the container), so there is nothing to
// close here beyond the per-call sessions already closed in Insert/Query;
// Finalize exists to satisfy interfaces.GraphInstance and give a hook for
// any future on-disk cache this instance's workDir accumulates.
func (i *Instance) Finalize(ctx context.Context) error {
	return nil
}

type graphEntity struct {
	Name       string
	Attributes []string
}

type graphRelation struct {
	Source, Target, Type string
}

func extractGraphElements(meta types.JSONMap) ([]graphEntity, []graphRelation) {
	var entities []graphEntity
	var relations []graphRelation
	if meta == nil {
		return entities, relations
	}
	if raw, ok := meta["entities"].([]any); ok {
		for _, e := range raw {
			m, ok := e.(map[string]any)
			if !ok {
				continue
			}
			name, _ := m["name"].(string)
			if name == "" {
				continue
			}
			var attrs []string
			if rawAttrs, ok := m["attributes"].([]any); ok {
				for _, a := range rawAttrs {
					if s, ok := a.(string); ok {
						attrs = append(attrs, s)
					}
				}
			}
			entities = append(entities, graphEntity{Name: name, Attributes: attrs})
		}
	}
	if raw, ok := meta["relations"].([]any); ok {
		for _, r := range raw {
			m, ok := r.(map[string]any)
			if !ok {
				continue
			}
			src, _ := m["source"].(string)
			tgt, _ := m["target"].(string)
			typ, _ := m["type"].(string)
			if src == "" || tgt == "" {
				continue
			}
			if typ == "" {
				typ = "RELATED_TO"
			}
			relations = append(relations, graphRelation{Source: src, Target: tgt, Type: typ})
		}
	}
	return entities, relations
}

func keyTerms(query string) []string {
	fields := strings.Fields(query)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()")
		if len(f) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}

func propString(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

func propStrings(props map[string]any, key string) []string {
	raw, ok := props[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		out = append(out, fmt.Sprintf("%v", v))
	}
	return out
}

func deleteNamespace(ctx context.Context, driver neo4j.Driver, ns NameSpace) error {
	if driver == nil {
		return nil
	}
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	labelExpr := strings.Join(ns.Labels(), ":")
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		deleteRels := fmt.Sprintf(`
			CALL apoc.periodic.iterate(
				"MATCH (n:%s {ns: $ns})-[r]-(m:%s {ns: $ns}) RETURN r",
				"DELETE r",
				{batchSize: 1000, parallel: true, params: {ns: $ns}}
			) YIELD batches, total
			RETURN total`, labelExpr, labelExpr)
		if _, err := tx.Run(ctx, deleteRels, map[string]any{"ns": ns.key()}); err != nil {
			return nil, fmt.Errorf("delete relationships: %w", err)
		}
		deleteNodes := fmt.Sprintf(`
			CALL apoc.periodic.iterate(
				"MATCH (n:%s {ns: $ns}) RETURN n",
				"DELETE n",
				{batchSize: 1000, parallel: true, params: {ns: $ns}}
			) YIELD batches, total
			RETURN total`, labelExpr)
		if _, err := tx.Run(ctx, deleteNodes, map[string]any{"ns": ns.key()}); err != nil {
			return nil, fmt.Errorf("delete nodes: %w", err)
		}
		return nil, nil
	})
	return err
}

package graph

import (
	"strings"
	"testing"

	"github.com/raghavpatnecha/ragserve/internal/types"
)

func TestExtractGraphElementsParsesEntitiesAndRelations(t *testing.T) {
	meta := types.JSONMap{
		"entities": []any{
			map[string]any{"name": "Acme Corp", "attributes": []any{"company", "customer"}},
			map[string]any{"name": ""}, // no name, skipped
		},
		"relations": []any{
			map[string]any{"source": "Acme Corp", "target": "Jane Doe", "type": "EMPLOYS"},
			map[string]any{"source": "Acme Corp", "target": "Widget", "type": ""},
			map[string]any{"source": "", "target": "x", "type": "IGNORED"},
		},
	}

	entities, relations := extractGraphElements(meta)
	if len(entities) != 1 || entities[0].Name != "Acme Corp" {
		t.Fatalf("expected one entity named Acme Corp, got %+v", entities)
	}
	if len(entities[0].Attributes) != 2 {
		t.Errorf("expected two attributes, got %v", entities[0].Attributes)
	}
	if len(relations) != 2 {
		t.Fatalf("expected two relations (missing source dropped), got %+v", relations)
	}
	if relations[0].Type != "EMPLOYS" {
		t.Errorf("expected explicit type preserved, got %q", relations[0].Type)
	}
	if relations[1].Type != "RELATED_TO" {
		t.Errorf("expected empty type to default to RELATED_TO, got %q", relations[1].Type)
	}
}

func TestExtractGraphElementsReturnsEmptyForNilMeta(t *testing.T) {
	entities, relations := extractGraphElements(nil)
	if len(entities) != 0 || len(relations) != 0 {
		t.Fatalf("expected no entities or relations for nil meta, got %+v %+v", entities, relations)
	}
}

func TestKeyTermsFiltersShortWordsAndTrimsPunctuation(t *testing.T) {
	terms := keyTerms("What is Acme Corp's revenue, exactly?")
	joined := strings.Join(terms, ",")
	if strings.Contains(joined, "is") {
		t.Errorf("expected short words filtered out, got %v", terms)
	}
	if !strings.Contains(joined, "Acme") {
		t.Errorf("expected Acme kept, got %v", terms)
	}
	if strings.Contains(joined, "revenue,") {
		t.Errorf("expected trailing punctuation trimmed, got %v", terms)
	}
}

func TestKeyTermsReturnsEmptySliceForEmptyQuery(t *testing.T) {
	terms := keyTerms("")
	if len(terms) != 0 {
		t.Errorf("expected no terms for empty query, got %v", terms)
	}
}

func TestQueryForModeBuildsExpectedCypherShapePerMode(t *testing.T) {
	inst := &Instance{ns: NameSpace{Tenant: "t1", Collection: "c1"}}
	labelExpr := inst.labelExpr()

	global := inst.queryForMode(labelExpr, types.GraphModeGlobal)
	if strings.Contains(global, "WHERE") {
		t.Errorf("expected global mode to drop the name filter, got %q", global)
	}

	naive := inst.queryForMode(labelExpr, types.GraphModeNaive)
	if strings.Contains(naive, "OPTIONAL MATCH") {
		t.Errorf("expected naive mode to skip the relationship hop, got %q", naive)
	}
	if !strings.Contains(naive, "ANY(t IN $terms") {
		t.Errorf("expected naive mode to filter by terms, got %q", naive)
	}

	local := inst.queryForMode(labelExpr, types.GraphModeLocal)
	if !strings.Contains(local, "OPTIONAL MATCH") || !strings.Contains(local, "ANY(t IN $terms") {
		t.Errorf("expected local mode to filter by terms and hop one relationship, got %q", local)
	}

	hybrid := inst.queryForMode(labelExpr, types.GraphModeHybrid)
	if !strings.Contains(hybrid, "size($terms) = 0") {
		t.Errorf("expected hybrid mode to widen the match when terms are empty, got %q", hybrid)
	}

	fallback := inst.queryForMode(labelExpr, types.GraphQueryMode("unknown"))
	if fallback != local {
		t.Errorf("expected an unrecognized mode to fall back to local's query shape")
	}
}

func TestPropStringReturnsEmptyForMissingOrWrongTypedKey(t *testing.T) {
	props := map[string]any{"name": "Acme", "count": 5}
	if got := propString(props, "name"); got != "Acme" {
		t.Errorf("expected Acme, got %q", got)
	}
	if got := propString(props, "count"); got != "" {
		t.Errorf("expected empty string for a non-string value, got %q", got)
	}
	if got := propString(props, "missing"); got != "" {
		t.Errorf("expected empty string for a missing key, got %q", got)
	}
}

func TestPropStringsConvertsSliceElementsToStrings(t *testing.T) {
	props := map[string]any{"attributes": []any{"a", "b", 3}}
	got := propStrings(props, "attributes")
	if len(got) != 3 || got[2] != "3" {
		t.Errorf("expected elements converted to strings, got %v", got)
	}
}

func TestPropStringsReturnsNilForMissingOrWrongTypedKey(t *testing.T) {
	props := map[string]any{"name": "Acme"}
	if got := propStrings(props, "name"); got != nil {
		t.Errorf("expected nil for a non-slice value, got %v", got)
	}
	if got := propStrings(props, "missing"); got != nil {
		t.Errorf("expected nil for a missing key, got %v", got)
	}
}

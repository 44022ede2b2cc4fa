package handler

import (
	"strings"
	"testing"

	"github.com/raghavpatnecha/ragserve/internal/types"
)

func boolPtr(b bool) *bool { return &b }

func TestValidateRetrievalRequestAcceptsDefaults(t *testing.T) {
	req := &types.RetrievalRequest{Query: "what is ragserve"}
	if err := validateRetrievalRequest(req); err != nil {
		t.Fatalf("expected no error for a minimal valid request, got %v", err)
	}
}

func TestValidateRetrievalRequestRejectsUnknownMode(t *testing.T) {
	req := &types.RetrievalRequest{Query: "q", Mode: "fulltext"}
	if err := validateRetrievalRequest(req); err == nil {
		t.Fatal("expected an error for an unrecognized search mode")
	}
}

func TestValidateRetrievalRequestRejectsOutOfRangeTopK(t *testing.T) {
	for _, topK := range []int{-1, 101} {
		req := &types.RetrievalRequest{Query: "q", TopK: topK}
		if err := validateRetrievalRequest(req); err == nil {
			t.Fatalf("expected an error for top_k=%d", topK)
		}
	}
}

func TestValidateRetrievalRequestRejectsTooManyMetadataFilterKeys(t *testing.T) {
	filter := types.MetadataFilter{}
	for i := 0; i < 11; i++ {
		filter[strings.Repeat("k", i+1)] = "v"
	}
	req := &types.RetrievalRequest{Query: "q", MetadataFilter: filter}
	if err := validateRetrievalRequest(req); err == nil {
		t.Fatal("expected an error for more than 10 metadata_filter keys")
	}
}

func TestValidateRetrievalRequestRejectsOversizedMetadataFilterValue(t *testing.T) {
	req := &types.RetrievalRequest{
		Query:          "q",
		MetadataFilter: types.MetadataFilter{"key": strings.Repeat("v", 257)},
	}
	if err := validateRetrievalRequest(req); err == nil {
		t.Fatal("expected an error for a metadata_filter value over 256 characters")
	}
}

func TestRetrievalParamsFromRequestAppliesDefaults(t *testing.T) {
	req := &types.RetrievalRequest{Query: "q"}
	params := retrievalParamsFromRequest("tenant-1", req)

	if params.Mode != types.SearchModeHybrid {
		t.Errorf("expected default mode hybrid, got %s", params.Mode)
	}
	if params.TopK != 10 {
		t.Errorf("expected default top_k 10, got %d", params.TopK)
	}
	if !params.Hierarchical || !params.Rerank || !params.EnableGraph || !params.ExpandContext {
		t.Error("expected all optional bool flags to default true")
	}
	if params.TenantID != "tenant-1" {
		t.Errorf("expected tenant id to propagate, got %s", params.TenantID)
	}
}

func TestRetrievalParamsFromRequestHonorsExplicitFalse(t *testing.T) {
	req := &types.RetrievalRequest{Query: "q", Rerank: boolPtr(false), EnableGraph: boolPtr(false)}
	params := retrievalParamsFromRequest("tenant-1", req)

	if params.Rerank {
		t.Error("expected explicit rerank=false to be honored")
	}
	if params.EnableGraph {
		t.Error("expected explicit enable_graph=false to be honored")
	}
}

// Package handler implements the HTTP surface named in §6: the synchronous
// Retrieval endpoint and the streaming Chat endpoint, on top of gin.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/raghavpatnecha/ragserve/internal/errors"
	"github.com/raghavpatnecha/ragserve/internal/middleware"
	"github.com/raghavpatnecha/ragserve/internal/quota"
	"github.com/raghavpatnecha/ragserve/internal/types"
	"github.com/raghavpatnecha/ragserve/internal/types/interfaces"
)

const maxMetadataFilterKeys = 10

var validSearchModes = map[types.SearchMode]bool{
	types.SearchModeSemantic: true,
	types.SearchModeKeyword:  true,
	types.SearchModeHybrid:   true,
	types.SearchModeGraph:    true,
}

// RetrievalHandler serves the synchronous retrieval contract (§6).
type RetrievalHandler struct {
	retriever interfaces.Retriever
	quota     *quota.Checker
}

func NewRetrievalHandler(retriever interfaces.Retriever, quotaChecker *quota.Checker) *RetrievalHandler {
	return &RetrievalHandler{retriever: retriever, quota: quotaChecker}
}

// Retrieve handles POST /api/v1/retrieval.
func (h *RetrievalHandler) Retrieve(c *gin.Context) {
	tenantID, err := middleware.TenantIDFromContext(c.Request.Context())
	if err != nil {
		respondError(c, apperrors.NewUnauthorizedError("missing tenant context"))
		return
	}

	var req types.RetrievalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError("invalid request body: "+err.Error()))
		return
	}

	if err := validateRetrievalRequest(&req); err != nil {
		respondError(c, err)
		return
	}

	if err := h.quota.CheckRequest(c.Request.Context(), tenantID); err != nil {
		respondError(c, err)
		return
	}

	params := retrievalParamsFromRequest(tenantID, &req)
	resp, err := h.retriever.Retrieve(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func validateRetrievalRequest(req *types.RetrievalRequest) *apperrors.AppError {
	if req.Mode != "" && !validSearchModes[req.Mode] {
		return apperrors.NewBadRequestError("unknown search mode: " + string(req.Mode))
	}
	if req.TopK < 0 || req.TopK > 100 {
		return apperrors.NewBadRequestError("top_k must be between 1 and 100")
	}
	if len(req.MetadataFilter) > maxMetadataFilterKeys {
		return apperrors.NewBadRequestError("metadata_filter accepts at most 10 keys")
	}
	for key, value := range req.MetadataFilter {
		if len(key) > 256 || len(value) > 256 {
			return apperrors.NewBadRequestError("metadata_filter key/value exceeds 256 characters: " + key)
		}
	}
	return nil
}

func retrievalParamsFromRequest(tenantID string, req *types.RetrievalRequest) types.SearchParams {
	mode := req.Mode
	if mode == "" {
		mode = types.SearchModeHybrid
	}
	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}
	return types.SearchParams{
		Query:          req.Query,
		TenantID:       tenantID,
		CollectionID:   req.CollectionID,
		Mode:           mode,
		TopK:           topK,
		DocumentType:   req.DocumentType,
		Hierarchical:   boolOr(req.Hierarchical, true),
		Rerank:         boolOr(req.Rerank, true),
		EnableGraph:    boolOr(req.EnableGraph, true),
		ExpandContext:  boolOr(req.ExpandContext, true),
		MetadataFilter: req.MetadataFilter,
	}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func respondError(c *gin.Context, err error) {
	appErr, ok := apperrors.IsAppError(err)
	if !ok {
		appErr = apperrors.NewInternalServerError(err.Error())
	}
	c.JSON(appErr.HTTPCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
			"details": appErr.Details,
		},
	})
}

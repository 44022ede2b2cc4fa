package handler

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/raghavpatnecha/ragserve/internal/chat"
	apperrors "github.com/raghavpatnecha/ragserve/internal/errors"
	"github.com/raghavpatnecha/ragserve/internal/logger"
	"github.com/raghavpatnecha/ragserve/internal/middleware"
	"github.com/raghavpatnecha/ragserve/internal/quota"
	"github.com/raghavpatnecha/ragserve/internal/types"
)

// ChatHandler serves the streaming chat contract (§6, §4.12).
type ChatHandler struct {
	orchestrator *chat.Orchestrator
	quota        *quota.Checker
}

func NewChatHandler(orchestrator *chat.Orchestrator, quotaChecker *quota.Checker) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator, quota: quotaChecker}
}

// Chat handles POST /api/v1/chat, responding as an SSE stream per §6 once
// the tenant, request body and quota checks pass; a failed check gets a JSON
// error response instead.
func (h *ChatHandler) Chat(c *gin.Context) {
	tenantID, err := middleware.TenantIDFromContext(c.Request.Context())
	if err != nil {
		respondError(c, apperrors.NewUnauthorizedError("missing tenant context"))
		return
	}

	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError("invalid request body: "+err.Error()))
		return
	}

	if err := h.quota.CheckRequest(c.Request.Context(), tenantID); err != nil {
		respondError(c, err)
		return
	}
	if err := h.quota.CheckTokens(c.Request.Context(), tenantID); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	events := h.orchestrator.Run(c.Request.Context(), tenantID, &req)

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		if ev.Type == types.EventUsage && ev.Usage != nil {
			if overQuota, err := h.quota.ChargeTokens(c.Request.Context(), tenantID, ev.Usage.Total); err == nil && overQuota {
				logger.Infof(c.Request.Context(), "tenant %s crossed daily token quota", tenantID)
			}
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			logger.Errorf(c.Request.Context(), "marshal stream event: %v", err)
			return true
		}
		if _, err := w.Write(append(append([]byte("data: "), payload...), '\n', '\n')); err != nil {
			return false
		}
		return true
	})
}

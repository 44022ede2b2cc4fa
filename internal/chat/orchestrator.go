// Package chat implements the Chat Orchestrator (§4.12): the state machine
// that turns a chat request into a streamed answer, wiring together session
// storage, the Retrieval Orchestrator (or Deep Reasoner), the Judge, and
// Follow-up & Media generation.
package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/raghavpatnecha/ragserve/internal/config"
	"github.com/raghavpatnecha/ragserve/internal/errors"
	"github.com/raghavpatnecha/ragserve/internal/followup"
	"github.com/raghavpatnecha/ragserve/internal/judge"
	"github.com/raghavpatnecha/ragserve/internal/logger"
	"github.com/raghavpatnecha/ragserve/internal/models/chat"
	"github.com/raghavpatnecha/ragserve/internal/reasoning"
	"github.com/raghavpatnecha/ragserve/internal/types"
	"github.com/raghavpatnecha/ragserve/internal/types/interfaces"
)

// Orchestrator runs one chat turn end to end: load/create session, retrieve
// context, stream the LLM answer, validate and correct it, generate
// follow-ups, and persist the turn.
type Orchestrator struct {
	store     interfaces.Store
	retriever interfaces.Retriever
	reasoner  *reasoning.Reasoner
	judge     *judge.Judge
	followups *followup.Generator
	llm       chat.Chat
	cfg       *config.ChatConfig
}

func NewOrchestrator(
	store interfaces.Store,
	retriever interfaces.Retriever,
	reasoner *reasoning.Reasoner,
	j *judge.Judge,
	followups *followup.Generator,
	llm chat.Chat,
	cfg *config.ChatConfig,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		retriever: retriever,
		reasoner:  reasoner,
		judge:     j,
		followups: followups,
		llm:       llm,
		cfg:       cfg,
	}
}

// Run executes the §4.12 state machine, pushing StreamEvents onto the
// returned channel in the exact vocabulary order: reasoning_step*, sub_query*,
// sources, media, delta*, follow_up*, usage, done. The channel is always
// closed, with a final error event emitted first if any stage fails
// unrecoverably. A client disconnect (ctx canceled) stops the stream; the
// partial turn is not persisted, since the spec's persistence guarantee only
// covers messages whose generation fully completed.
func (o *Orchestrator) Run(ctx context.Context, tenantID string, req *types.ChatRequest) <-chan types.StreamEvent {
	out := make(chan types.StreamEvent, 8)
	go func() {
		defer close(out)
		if err := o.run(ctx, tenantID, req, out); err != nil {
			emit(ctx, out, types.StreamEvent{Type: types.EventError, Error: err.Error()})
		}
	}()
	return out
}

func (o *Orchestrator) run(ctx context.Context, tenantID string, req *types.ChatRequest, out chan<- types.StreamEvent) error {
	session, err := o.loadOrCreateSession(ctx, tenantID, req.SessionID, req.CollectionID)
	if err != nil {
		return err
	}

	query := req.LastUserMessage()
	userMsg := &types.ChatMessage{SessionID: session.ID, Role: types.RoleUser, Content: query}
	if err := o.store.AppendMessage(ctx, userMsg); err != nil {
		return fmt.Errorf("persist user message: %w", err)
	}

	historyLimit := o.cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 10
	}
	history, err := o.store.RecentMessages(ctx, session.ID, historyLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	params := retrievalParams(tenantID, session.CollectionID, query, req)

	hits, reasoningTrace, retrievalMs, err := o.retrieve(ctx, params, req.ReasoningMode, out)
	if err != nil {
		return err
	}
	if reasoningTrace != nil {
		emit(ctx, out, types.StreamEvent{Type: types.EventReasoningStep, Step: types.ReasoningStepSynthesize})
	}

	sourceTexts := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.ExpandedContent != "" {
			sourceTexts = append(sourceTexts, h.ExpandedContent)
		} else {
			sourceTexts = append(sourceTexts, h.Content)
		}
	}

	// Judge pre-analysis runs concurrently with prompt assembly and answer
	// generation so its latency hides behind the LLM stream (§4.10).
	var facts *types.FactSheet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var preErr error
		facts, preErr = o.judge.PreAnalyze(gctx, query, sourceTexts)
		return preErr
	})

	contextBlock := joinSourceTexts(sourceTexts)
	graphNarrative := graphNarrativeFrom(hits)
	previousContext := ""
	if req.IsFollowUp {
		previousContext = buildPreviousContext(history, o.cfg)
	}
	prompt := buildPrompt(req, contextBlock, graphNarrative, history, previousContext, o.cfg)

	sources := assembleSources(hits)
	emit(ctx, out, types.StreamEvent{Type: types.EventSources, Sources: sources})

	mediaRefs := followup.ExtractMedia(toFollowupSources(hits))
	emit(ctx, out, types.StreamEvent{Type: types.EventMedia, Media: toMediaPointers(mediaRefs)})

	response, err := o.stream(ctx, prompt, out)
	if err != nil {
		return err
	}

	if err := g.Wait(); err != nil {
		logger.Warnf(ctx, "judge pre_analyze failed, proceeding without fact sheet: %v", err)
		facts = &types.FactSheet{}
	}
	if facts == nil {
		facts = &types.FactSheet{}
	}

	corrected := false
	validation, err := o.judge.Validate(ctx, query, response, facts)
	if err != nil {
		logger.Warnf(ctx, "judge validate failed, skipping correction: %v", err)
	} else if validation.NeedsCorrection {
		correctedResponse, err := o.judge.Correct(ctx, response, validation, facts)
		if err != nil {
			logger.Warnf(ctx, "judge correct failed, keeping original answer: %v", err)
		} else if correctedResponse != response {
			corrected = true
			emit(ctx, out, types.StreamEvent{
				Type:    types.EventDelta,
				Content: "\n\n---\n[Correction Applied]\n" + correctedResponse,
			})
			response = correctedResponse
		}
	}

	followUps := o.followups.Generate(ctx, query, response, sourceTexts, mediaRefs)
	for _, fu := range followUps {
		fu := fu
		emit(ctx, out, types.StreamEvent{Type: types.EventFollowUp, FollowUp: &fu})
	}

	assistantMsg := &types.ChatMessage{
		SessionID: session.ID,
		Role:      types.RoleAssistant,
		Content:   response,
		ChunkIDs:  chunkIDs(hits),
		Metadata:  types.JSONMap{"corrected": corrected},
	}
	if err := o.store.AppendMessage(ctx, assistantMsg); err != nil {
		return fmt.Errorf("persist assistant message: %w", err)
	}
	if err := o.store.TouchSession(ctx, tenantID, session.ID); err != nil {
		logger.Warnf(ctx, "touch session failed: %v", err)
	}

	usage := buildUsage(prompt.messages, contextBlock, response)
	emit(ctx, out, types.StreamEvent{Type: types.EventUsage, Usage: &usage})
	emit(ctx, out, types.StreamEvent{
		Type: types.EventDone,
		Done: true,
		Metadata: types.JSONMap{
			"session_id":     session.ID,
			"corrected":      corrected,
			"retrieval_ms":   retrievalMs,
			"reasoning_mode": req.ReasoningMode,
		},
	})
	return nil
}

func (o *Orchestrator) loadOrCreateSession(ctx context.Context, tenantID, sessionID, collectionID string) (*types.ChatSession, error) {
	if sessionID != "" {
		session, err := o.store.GetSession(ctx, tenantID, sessionID)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, errors.NewNotFoundError("session not found")
		}
		return session, nil
	}
	session := &types.ChatSession{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		CollectionID: collectionID,
	}
	if err := o.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// retrieve dispatches to the Deep Reasoner under reasoning_mode=deep,
// emitting sub_query events as they're decomposed, or to the standard
// Retriever otherwise.
func (o *Orchestrator) retrieve(ctx context.Context, params types.SearchParams, mode types.ReasoningMode, out chan<- types.StreamEvent) ([]*types.Hit, *types.ReasoningTrace, int64, error) {
	start := time.Now()
	if mode == types.ReasoningModeDeep && o.reasoner != nil {
		emit(ctx, out, types.StreamEvent{Type: types.EventReasoningStep, Step: types.ReasoningStepDecompose})
		result, err := o.reasoner.Run(ctx, params, func(sq string) {
			emit(ctx, out, types.StreamEvent{Type: types.EventSubQuery, SubQuery: sq})
		})
		if err != nil {
			return nil, nil, 0, fmt.Errorf("deep reasoning retrieve: %w", err)
		}
		return result.Hits, result.Trace, time.Since(start).Milliseconds(), nil
	}

	resp, err := o.retriever.Retrieve(ctx, params)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("retrieve: %w", err)
	}
	return resp.Results, nil, time.Since(start).Milliseconds(), nil
}

// stream drives the LLM's streaming call, forwarding each answer chunk as a
// delta event in arrival order and accumulating the full response text.
func (o *Orchestrator) stream(ctx context.Context, prompt assembledPrompt, out chan<- types.StreamEvent) (string, error) {
	chunks, err := o.llm.ChatStream(ctx, prompt.messages, prompt.opts)
	if err != nil {
		return "", fmt.Errorf("chat stream: %w", err)
	}

	var response string
	for chunk := range chunks {
		if chunk.Err != nil {
			return response, fmt.Errorf("chat stream: %w", chunk.Err)
		}
		if chunk.Kind != types.LLMChunkAnswer {
			continue
		}
		if chunk.Content != "" {
			response += chunk.Content
			emit(ctx, out, types.StreamEvent{Type: types.EventDelta, Content: chunk.Content})
		}
		if chunk.Done {
			break
		}
	}
	return response, nil
}

// emit sends a StreamEvent, dropping it instead of blocking forever if the
// consumer has gone away (client disconnect).
func emit(ctx context.Context, out chan<- types.StreamEvent, ev types.StreamEvent) {
	select {
	case out <- ev:
	case <-ctx.Done():
	}
}

func retrievalParams(tenantID, collectionID, query string, req *types.ChatRequest) types.SearchParams {
	rc := req.Retrieval
	mode := rc.Mode
	if mode == "" {
		mode = types.SearchModeHybrid
	}
	topK := rc.TopK
	if topK <= 0 {
		topK = 5
	}
	return types.SearchParams{
		Query:          query,
		TenantID:       tenantID,
		CollectionID:   collectionID,
		Mode:           mode,
		TopK:           topK,
		DocumentType:   rc.DocumentType,
		Hierarchical:   boolOr(rc.Hierarchical, false),
		Rerank:         boolOr(rc.Rerank, true),
		EnableGraph:    boolOr(rc.EnableGraph, false),
		ExpandContext:  boolOr(rc.ExpandContext, true),
		MetadataFilter: rc.MetadataFilter,
	}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func joinSourceTexts(texts []string) string {
	out := ""
	for i, t := range texts {
		if i > 0 {
			out += "\n\n---\n\n"
		}
		out += t
	}
	return out
}

func graphNarrativeFrom(hits []*types.Hit) string {
	for _, h := range hits {
		if v, _ := h.Metadata["graph_narrative"].(string); v != "" {
			return v
		}
	}
	return ""
}

func chunkIDs(hits []*types.Hit) types.StringArray {
	ids := make(types.StringArray, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ChunkID)
	}
	return ids
}

func toFollowupSources(hits []*types.Hit) []followup.Source {
	out := make([]followup.Source, 0, len(hits))
	for _, h := range hits {
		content := h.Content
		if h.ExpandedContent != "" {
			content = h.ExpandedContent
		}
		out = append(out, followup.Source{DocumentID: h.Document.ID, Content: content, Metadata: h.Metadata})
	}
	return out
}

func toMediaPointers(media []types.MediaReference) []*types.MediaReference {
	out := make([]*types.MediaReference, 0, len(media))
	for i := range media {
		out = append(out, &media[i])
	}
	return out
}

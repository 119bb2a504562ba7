package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/parley-ai/chat-platform/internal/events"
	"github.com/parley-ai/chat-platform/internal/llm"
	"github.com/parley-ai/chat-platform/internal/model"
	"github.com/parley-ai/chat-platform/internal/prompt"
	"github.com/parley-ai/chat-platform/internal/retrieval"
	"github.com/parley-ai/chat-platform/pkg/logger"
	"github.com/parley-ai/chat-platform/pkg/metrics"
)

// errClientGone stops stream consumption when the requesting connection has
// closed. It is not a turn failure: the accumulated text still finalizes.
var errClientGone = errors.New("client connection closed")

// ContextRetriever fetches grounding snippets for retrieval-eligible
// scenarios.
type ContextRetriever interface {
	Retrieve(ctx context.Context, scenario, query string, k int) ([]string, error)
}

// EventSink receives stream events for delivery to the client. A sink error
// is treated as a client disconnect.
type EventSink func(model.StreamEvent) error

// Options tune the orchestrator.
type Options struct {
	HistoryWindow int
	RetrievalK    int
	TurnTimeout   time.Duration
	PacingDelay   time.Duration
}

func (o Options) withDefaults() Options {
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = 7
	}
	if o.RetrievalK <= 0 {
		o.RetrievalK = 3
	}
	if o.TurnTimeout <= 0 {
		o.TurnTimeout = 120 * time.Second
	}
	return o
}

// Orchestrator sequences one chat turn. All collaborators are injected;
// nothing here is process-wide state.
type Orchestrator struct {
	store     Store
	retriever ContextRetriever
	prompts   *prompt.Builder
	model     llm.Client
	publisher *events.Publisher
	log       *logger.Logger
	opts      Options
}

// NewOrchestrator creates a turn orchestrator. retriever and publisher may
// be nil; retrieval-eligible scenarios then run without context, and turn
// events are dropped.
func NewOrchestrator(store Store, retriever ContextRetriever, prompts *prompt.Builder, modelClient llm.Client, publisher *events.Publisher, log *logger.Logger, opts Options) *Orchestrator {
	return &Orchestrator{
		store:     store,
		retriever: retriever,
		prompts:   prompts,
		model:     modelClient,
		publisher: publisher,
		log:       log,
		opts:      opts.withDefaults(),
	}
}

// RunTurn executes one chat turn for the given user. An error return means
// the turn aborted before streaming began; once tokens flow, failures
// degrade (partial text persists, the sentinel is still emitted) and RunTurn
// returns nil.
func (o *Orchestrator) RunTurn(ctx context.Context, userID int64, req model.ChatRequest, sink EventSink) error {
	start := time.Now()
	log := o.log.WithTurn(userID, req.ConversationID, req.Scenario)

	// An unrecognized scenario can never produce a usable prompt; refuse it
	// before persisting anything.
	if !prompt.Known(req.Scenario) {
		return fmt.Errorf("%w: %q", prompt.ErrUnknownScenario, req.Scenario)
	}

	// Resolve the conversation. Creation is synchronous and must succeed
	// before any model call.
	conversationID := req.ConversationID
	isNew := false
	if conversationID == "" {
		conv, err := o.store.CreateConversation(ctx, userID, model.PlaceholderTitle, req.Scenario)
		if err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}
		conversationID = conv.ID
		isNew = true
		log = o.log.WithTurn(userID, conversationID, req.Scenario)
		metrics.ConversationsTotal.WithLabelValues(req.Scenario).Inc()
	} else {
		if _, err := o.store.GetConversation(ctx, userID, conversationID); err != nil {
			return fmt.Errorf("failed to resolve conversation: %w", err)
		}
	}

	// Persist the user message before anything touches the model.
	if _, err := o.store.AppendMessage(ctx, conversationID, model.RoleUser, req.Message); err != nil {
		return fmt.Errorf("failed to persist user message: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser)).Inc()

	history, err := Window(ctx, o.store, conversationID, o.opts.HistoryWindow)
	if err != nil {
		log.Warn("failed to load history window", zap.Error(err))
		history = ""
	}

	contextText := o.fetchContext(ctx, req.Scenario, req.Message, log)

	promptText, err := o.prompts.Build(req.Scenario, prompt.Fields{
		Context:  contextText,
		History:  history,
		Question: req.Message,
	})
	if err != nil {
		return fmt.Errorf("failed to build prompt: %w", err)
	}

	// Stream under an overall deadline so a stalled upstream model cannot
	// hold the request forever.
	streamCtx, cancelStream := context.WithTimeout(ctx, o.opts.TurnTimeout)
	defer cancelStream()

	var acc strings.Builder
	streamErr := o.model.Stream(streamCtx, promptText, func(token string) error {
		select {
		case <-ctx.Done():
			return errClientGone
		default:
		}

		// Deliver before accumulating: the persisted text is exactly what
		// the client received.
		if err := sink(model.TokenEvent{Token: token}); err != nil {
			return errClientGone
		}
		acc.WriteString(token)
		metrics.TokensStreamed.WithLabelValues(req.Scenario).Inc()

		o.pace(ctx)
		return nil
	})

	cancelled := errors.Is(streamErr, errClientGone) || ctx.Err() != nil
	modelFailed := streamErr != nil && !cancelled
	text := acc.String()

	// Finalize exactly once, whichever way streaming ended. Cancellation and
	// completion converge here; there is deliberately no second persistence
	// path.
	o.finalize(ctx, userID, conversationID, req.Scenario, text, cancelled, modelFailed, log)

	switch {
	case cancelled:
		log.Info("turn cancelled by client", zap.Int("chars", len(text)))
		metrics.RecordTurn(req.Scenario, "cancelled", time.Since(start).Seconds())
	case modelFailed && text == "":
		log.Error("model unavailable", zap.Error(streamErr))
		metrics.RecordTurn(req.Scenario, "model_unavailable", time.Since(start).Seconds())
	case modelFailed:
		log.Warn("model stream ended early, partial text persisted", zap.Error(streamErr), zap.Int("chars", len(text)))
		metrics.RecordTurn(req.Scenario, "partial", time.Since(start).Seconds())
	default:
		if err := sink(model.FullResponseEvent{FullResponse: text, ConversationID: conversationID}); err != nil {
			log.Debug("client gone before full response event", zap.Error(err))
		}
		if isNew {
			o.generateTitle(ctx, userID, conversationID, req.Message, sink, log)
		}
		metrics.RecordTurn(req.Scenario, "completed", time.Since(start).Seconds())
	}

	if err := sink(model.DoneEvent{}); err != nil {
		log.Debug("client gone before done sentinel", zap.Error(err))
	}
	return nil
}

// fetchContext retrieves grounding snippets for retrieval-eligible
// scenarios. Retrieval failures degrade to an empty context; the base chat
// flow never depends on retrieval health.
func (o *Orchestrator) fetchContext(ctx context.Context, scenario, query string, log *logger.Logger) string {
	if o.retriever == nil || !retrieval.Eligible(scenario) {
		return ""
	}

	snippets, err := o.retriever.Retrieve(ctx, scenario, query, o.opts.RetrievalK)
	if err != nil {
		log.Warn("context retrieval degraded, continuing without context", zap.Error(err))
		return ""
	}
	return strings.Join(snippets, "\n\n")
}

// finalize persists the assistant message iff any text accumulated, and
// publishes the turn event. It runs detached from the request context so a
// client disconnect cannot abort persistence.
func (o *Orchestrator) finalize(ctx context.Context, userID int64, conversationID, scenario, text string, cancelled, modelFailed bool, log *logger.Logger) {
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if text != "" {
		if _, err := o.store.AppendMessage(persistCtx, conversationID, model.RoleAssistant, text); err != nil {
			log.Error("failed to persist assistant message", zap.Error(err))
		} else {
			metrics.MessagesTotal.WithLabelValues(string(model.RoleAssistant)).Inc()
		}
	}

	evType := events.TurnCompleted
	switch {
	case cancelled:
		evType = events.TurnCancelled
	case modelFailed:
		evType = events.TurnModelFailed
	}
	if err := o.publisher.Publish(persistCtx, &events.TurnEvent{
		Type:           evType,
		UserID:         userID,
		ConversationID: conversationID,
		Scenario:       scenario,
		Tokens:         len(text),
	}); err != nil {
		log.Warn("failed to publish turn event", zap.Error(err))
	}
}

// generateTitle derives and persists an auto-generated title for a freshly
// created conversation, then announces it to the client. Failures here never
// block the turn; the conversation keeps its placeholder title.
func (o *Orchestrator) generateTitle(ctx context.Context, userID int64, conversationID, question string, sink EventSink, log *logger.Logger) {
	titleCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	raw, err := o.model.Complete(titleCtx, o.prompts.BuildTitle(question))
	if err != nil {
		log.Warn("title generation failed, keeping placeholder", zap.Error(err))
		metrics.TitleGenerations.WithLabelValues("model_error").Inc()
		return
	}

	title := DeriveTitle(raw)
	if title == "" {
		log.Warn("title model produced no usable characters, keeping placeholder")
		metrics.TitleGenerations.WithLabelValues("empty").Inc()
		return
	}

	if err := o.store.RenameConversation(ctx, userID, conversationID, title); err != nil {
		log.Warn("failed to persist generated title", zap.Error(err))
		metrics.TitleGenerations.WithLabelValues("persist_error").Inc()
		return
	}
	metrics.TitleGenerations.WithLabelValues("ok").Inc()

	if err := sink(model.ConversationCreatedEvent{NewConversationID: conversationID, Title: title}); err != nil {
		log.Debug("client gone before title event", zap.Error(err))
	}

	if err := o.publisher.Publish(ctx, &events.TurnEvent{
		Type:           events.ConversationTitled,
		UserID:         userID,
		ConversationID: conversationID,
		Title:          title,
	}); err != nil {
		log.Warn("failed to publish title event", zap.Error(err))
	}
}

// pace yields between token emissions. Cancellation cuts the delay short.
func (o *Orchestrator) pace(ctx context.Context) {
	if o.opts.PacingDelay <= 0 {
		return
	}
	t := time.NewTimer(o.opts.PacingDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

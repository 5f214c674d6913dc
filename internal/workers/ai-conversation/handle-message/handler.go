// internal/workers/ai-conversation/handle-message/handler.go
package handlemessage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "logo-workers/internal/common/errors"
	"logo-workers/internal/common/lexicon"
	"logo-workers/internal/common/llm"
	"logo-workers/internal/common/metrics"
	"logo-workers/internal/common/observability"
	"logo-workers/internal/dialogue"
	"logo-workers/internal/models"
	chatreply "logo-workers/internal/workers/ai-conversation/chat-reply"
	composeprompt "logo-workers/internal/workers/logo-agent/compose-prompt"
)

const (
	TaskType = "handle-chat-message"

	tracerName = "logo-workers/handle-message"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Classifier interface {
	Classify(ctx context.Context, message string, history []llm.Message) models.IntentClassification
	FallbackClassify(message string, history []llm.Message) models.IntentClassification
}

type QueryExtractor interface {
	Extract(ctx context.Context, message string, history []llm.Message) (string, bool)
}

type ReferenceSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error)
	FetchImage(ctx context.Context, result models.SearchResult) (*models.ReferenceImage, error)
}

type PreviewComposer interface {
	Preview(ctx context.Context, message, refinement string) (models.GenerationPreview, error)
}

type ChatResponder interface {
	Reply(ctx context.Context, message string, history []llm.Message) (*chatreply.Reply, error)
	EnhancePrompt(ctx context.Context, prompt string) string
	Acknowledge(ctx context.Context, message string) string
}

// SelectionRecorder archives confirmed reference picks.
type SelectionRecorder interface {
	Index(ctx context.Context, userID, query string, result models.SearchResult) error
}

// Dependencies are the collaborators of the orchestrator. Quota, Selections
// and Observability are optional.
type Dependencies struct {
	Tracker    *dialogue.Tracker
	References *dialogue.ReferenceHolder
	Classifier Classifier
	Extractor  QueryExtractor
	Searcher   ReferenceSearcher
	Composer   PreviewComposer
	Chat       ChatResponder

	Quota         models.QuotaRepository
	Selections    SelectionRecorder
	Observability *observability.Observability
}

type Handler struct {
	config *Config
	deps   Dependencies

	tracer       trace.Tracer
	errorHandler *apperrors.ErrorHandler
	logger       Logger
}

func NewHandler(config *Config, deps Dependencies, log Logger) *Handler {
	scoped := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	if deps.Tracker == nil {
		deps.Tracker = dialogue.NewTracker(dialogue.NewMemoryStore(30 * time.Minute))
	}
	if deps.References == nil {
		deps.References = dialogue.NewReferenceHolder()
	}
	return &Handler{
		config:       config,
		deps:         deps,
		tracer:       otel.Tracer(tracerName),
		errorHandler: apperrors.NewErrorHandler(scoped),
		logger:       scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job,
			apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	outcome, err := h.HandleMessage(ctx, input)
	if err != nil {
		return nil, err
	}
	return &Output{Outcome: outcome}, nil
}

// turn is one message being handled.
type turn struct {
	userID  string
	message string
	history []llm.Message
	web     bool
}

// HandleMessage resolves one user message. Only invalid input is returned as
// an error; every downstream failure becomes a text reply.
func (h *Handler) HandleMessage(ctx context.Context, input *Input) (Outcome, error) {
	t := turn{
		userID:  strings.TrimSpace(input.UserID),
		message: strings.TrimSpace(input.Message),
		history: input.History,
		web:     input.WebSearchEnabled,
	}
	if t.userID == "" {
		return Outcome{}, apperrors.NewInvalidInputError("userId is required")
	}
	if t.message == "" {
		return Outcome{}, apperrors.NewInvalidInputError("message is required")
	}

	start := time.Now()
	ctx, span := h.tracer.Start(ctx, "handle-message", trace.WithAttributes(
		attribute.Bool("web_search", t.web),
		attribute.Int("history_turns", len(t.history)),
	))
	defer span.End()

	unlock := h.deps.Tracker.Lock(t.userID)
	defer unlock()

	offer, err := h.deps.Tracker.Pending(ctx, t.userID)
	if err != nil {
		h.logger.Warn("pending offer unavailable, treating user as idle", map[string]interface{}{
			"userId": t.userID,
			"error":  err.Error(),
		})
		offer = nil
	}

	outcome, handled := h.resolvePending(ctx, t, offer)
	if !handled {
		outcome = h.dispatch(ctx, t, offer)
	}

	span.SetAttributes(
		attribute.String("outcome", string(outcome.Kind)),
		attribute.String("pending_state", string(offer.State())),
	)
	metrics.ConversationOutcomes.WithLabelValues(string(outcome.Kind)).Inc()
	h.deps.Observability.RecordMessage(ctx, string(outcome.Kind), time.Since(start))

	h.logger.Info("message handled", map[string]interface{}{
		"userId":       t.userID,
		"pendingState": string(offer.State()),
		"outcome":      string(outcome.Kind),
		"durationMs":   time.Since(start).Milliseconds(),
	})
	return outcome, nil
}

// resolvePending applies the message to the user's pending offer. It
// reports false when the message is not an answer to that offer.
func (h *Handler) resolvePending(ctx context.Context, t turn, offer *dialogue.PendingOffer) (Outcome, bool) {
	reply := dialogue.Interpret(offer, t.message)
	if reply.Move == dialogue.MoveNone {
		return Outcome{}, false
	}

	switch offer.State() {
	case dialogue.StateAwaitingGenerationConfirmation:
		return h.resolvePreview(ctx, t, offer, reply)
	case dialogue.StateAwaitingSearchSelection:
		return h.resolveSelection(ctx, t, offer, reply)
	default:
		return Outcome{}, false
	}
}

func (h *Handler) resolvePreview(ctx context.Context, t turn, offer *dialogue.PendingOffer, reply dialogue.Reply) (Outcome, bool) {
	switch reply.Move {
	case dialogue.MoveConfirm:
		out := h.generationReady(ctx, t, offer.Preview.FinalPrompt, func() string {
			return confirmedGenerationText
		})
		if out.Kind == OutcomeGenerationReady {
			h.resolve(ctx, t.userID)
		}
		return out, true

	case dialogue.MoveRejectBare:
		return textReply(clarifyPreviewText), true

	case dialogue.MoveRejectWithText:
		return h.refinePreview(ctx, t, offer, reply.Refinement), true
	}
	return Outcome{}, false
}

// refinePreview turns a rejection that carries new text into either a fresh
// search or a recomputed preview.
func (h *Handler) refinePreview(ctx context.Context, t turn, offer *dialogue.PendingOffer, refinement string) Outcome {
	if t.web && !dialogue.HasRefinementKeywords(refinement) {
		if cls := h.deps.Classifier.FallbackClassify(refinement, t.history); cls.Intent == models.IntentSearch {
			return h.search(ctx, t, refinement, "")
		}
	}

	preview, err := h.deps.Composer.Preview(ctx, offer.Preview.Request.RawText, refinement)
	if err != nil {
		return h.failure("preview refinement failed", err)
	}
	return h.offerPreview(ctx, t, preview)
}

func (h *Handler) resolveSelection(ctx context.Context, t turn, offer *dialogue.PendingOffer, reply dialogue.Reply) (Outcome, bool) {
	sel := offer.Selection

	switch reply.Move {
	case dialogue.MoveSelect:
		if reply.Index < 0 || reply.Index >= len(sel.Results) {
			return textReply(outOfRangeText(len(sel.Results))), true
		}
		return h.selectReference(ctx, t, sel, sel.Results[reply.Index]), true

	case dialogue.MoveRejectBare:
		return textReply(askInsteadText), true

	case dialogue.MoveRejectWithText:
		if !t.web {
			return Outcome{}, false
		}
		query, ok := h.deps.Extractor.Extract(ctx, reply.Refinement, t.history)
		if !ok {
			return textReply(askInsteadText), true
		}
		return h.search(ctx, t, reply.Refinement, query), true
	}
	return Outcome{}, false
}

func (h *Handler) selectReference(ctx context.Context, t turn, sel *models.SearchSelection, result models.SearchResult) Outcome {
	ctx, span := h.tracer.Start(ctx, "fetch-reference", trace.WithAttributes(
		attribute.String("hostname", result.Hostname),
	))
	defer span.End()

	ref, err := h.deps.Searcher.FetchImage(ctx, result)
	if err != nil {
		span.RecordError(err)
		return h.failure("reference download failed", err)
	}

	h.deps.References.Hold(t.userID, ref)
	if h.deps.Selections != nil {
		if err := h.deps.Selections.Index(ctx, t.userID, sel.Query, result); err != nil {
			h.logger.Warn("selection archive failed", map[string]interface{}{
				"userId": t.userID,
				"error":  err.Error(),
			})
		}
	}
	h.resolve(ctx, t.userID)

	return Outcome{
		Kind:      OutcomeReferenceSelected,
		Text:      referenceSelectedText(result),
		Selected:  &result,
		Reference: ref,
	}
}

// dispatch handles a message that does not answer a pending offer.
func (h *Handler) dispatch(ctx context.Context, t turn, offer *dialogue.PendingOffer) Outcome {
	cls := h.deps.Classifier.Classify(ctx, t.message, t.history)

	var out Outcome
	switch {
	case cls.Intent == models.IntentConfirmation && cls.Polarity == string(lexicon.PolarityPositive) && offer != nil:
		var handled bool
		if out, handled = h.confirmPending(ctx, t, offer); !handled {
			out = h.converse(ctx, t)
		}
	case cls.Intent == models.IntentRefinement && offer.State() == dialogue.StateAwaitingGenerationConfirmation:
		out = h.refinePreview(ctx, t, offer, t.message)
	case cls.Intent == models.IntentSearch && cls.Confidence >= h.config.SearchThreshold && t.web:
		out = h.search(ctx, t, t.message, "")
	case cls.Intent == models.IntentGenerate && cls.Confidence >= h.config.GenerateThreshold:
		out = h.generate(ctx, t)
	default:
		out = h.converse(ctx, t)
	}

	// A new generation supersedes whatever was still on offer.
	if offer != nil && out.Kind == OutcomeGenerationReady {
		h.resolve(ctx, t.userID)
	}

	out.Intent = &cls
	return out
}

// confirmPending accepts the pending offer for a message the classifier read
// as a yes that was too long for the reply patterns.
func (h *Handler) confirmPending(ctx context.Context, t turn, offer *dialogue.PendingOffer) (Outcome, bool) {
	switch offer.State() {
	case dialogue.StateAwaitingGenerationConfirmation:
		return h.resolvePreview(ctx, t, offer, dialogue.Reply{Move: dialogue.MoveConfirm})
	case dialogue.StateAwaitingSearchSelection:
		return h.resolveSelection(ctx, t, offer, dialogue.Reply{Move: dialogue.MoveSelect})
	}
	return Outcome{}, false
}

func (h *Handler) generate(ctx context.Context, t turn) Outcome {
	if t.web {
		preview, err := h.deps.Composer.Preview(ctx, t.message, "")
		if err != nil {
			return h.failure("preview composition failed", err)
		}
		return h.offerPreview(ctx, t, preview)
	}

	prompt := h.deps.Chat.EnhancePrompt(ctx, t.message)
	return h.generationReady(ctx, t, prompt, func() string {
		return h.deps.Chat.Acknowledge(ctx, t.message)
	})
}

// search extracts a query from text unless one is given, runs the reference
// search and offers the results for selection.
func (h *Handler) search(ctx context.Context, t turn, text, query string) Outcome {
	if query == "" {
		var ok bool
		if query, ok = h.deps.Extractor.Extract(ctx, text, t.history); !ok {
			return textReply("What logo should I search for? Try something like \"show me the Nike logo\".")
		}
	}

	ctx, span := h.tracer.Start(ctx, "reference-search", trace.WithAttributes(
		attribute.String("query", query),
	))
	defer span.End()

	results, err := h.deps.Searcher.Search(ctx, query, h.config.MaxResults)
	if err == nil && len(results) == 0 {
		err = apperrors.NewSearchNoResultsError(query)
	}
	if err != nil {
		span.RecordError(err)
		out := h.failure("reference search failed", err)
		out.Text = searchFailedHeader + out.Text
		return out
	}

	sel := models.SearchSelection{Query: query, Results: results}
	if err := h.deps.Tracker.Offer(ctx, t.userID, dialogue.NewSelectionOffer(sel)); err != nil {
		return h.failure("failed to store search selection", err)
	}

	return Outcome{
		Kind:      OutcomeSearchPreview,
		Text:      photoPreviewText(sel),
		Selection: &sel,
	}
}

func (h *Handler) offerPreview(ctx context.Context, t turn, preview models.GenerationPreview) Outcome {
	if err := h.deps.Tracker.Offer(ctx, t.userID, dialogue.NewPreviewOffer(preview)); err != nil {
		return h.failure("failed to store logo preview", err)
	}
	text := preview.Markdown
	if text == "" {
		text = composeprompt.FormatPreview(preview)
	}
	return Outcome{
		Kind:    OutcomeGenerationPreviewReady,
		Text:    text,
		Preview: &preview,
	}
}

// converse runs the general chat model. An action marker in its answer is
// followed like a classified request.
func (h *Handler) converse(ctx context.Context, t turn) Outcome {
	reply, err := h.deps.Chat.Reply(ctx, t.message, t.history)
	if err != nil {
		return h.failure("chat reply failed", err)
	}

	switch reply.Action {
	case llm.ActionGenerateImage:
		prompt := composeprompt.FitBudget(reply.Prompt)
		return h.generationReady(ctx, t, prompt, func() string {
			if reply.Text != "" {
				return reply.Text
			}
			return h.deps.Chat.Acknowledge(ctx, t.message)
		})
	case llm.ActionWebSearch:
		if t.web {
			return h.search(ctx, t, t.message, reply.Query)
		}
		if reply.Text == "" {
			return textReply("Turn on web search and I can look up existing logos for you.")
		}
	}
	return textReply(reply.Text)
}

// generationReady hands prompt to generation once the user's quota allows
// it. A reference image held for the user is consumed here.
func (h *Handler) generationReady(ctx context.Context, t turn, prompt string, text func() string) Outcome {
	decision := h.consumeQuota(ctx, t.userID)
	if !decision.Allowed {
		limit := decision.Limit
		if limit <= 0 {
			limit = h.config.DailyLimit
		}
		h.logger.Info("generation refused by quota", map[string]interface{}{
			"userId": t.userID,
			"limit":  limit,
		})
		zero := 0
		return Outcome{
			Kind:         OutcomeTextReply,
			Text:         quotaExceededText(limit),
			Remaining:    &zero,
			NeedsUpgrade: true,
		}
	}

	params := models.DefaultStyleParams()
	out := Outcome{
		Kind:      OutcomeGenerationReady,
		Prompt:    prompt,
		Remaining: decision.Remaining,
	}
	if ref, ok := h.deps.References.Take(t.userID); ok {
		params.ReferenceWeight = models.ReferenceImageWeight
		out.Reference = ref
	}
	out.StyleParams = &params
	out.Text = text()
	return out
}

// consumeQuota fails open: a broken quota store never blocks generation.
func (h *Handler) consumeQuota(ctx context.Context, userID string) models.QuotaDecision {
	if h.deps.Quota == nil {
		return models.QuotaDecision{Allowed: true}
	}
	decision, err := h.deps.Quota.CheckAndConsume(ctx, userID)
	if err != nil {
		h.logger.Warn("quota check failed, allowing generation", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return models.QuotaDecision{Allowed: true}
	}
	return decision
}

func (h *Handler) resolve(ctx context.Context, userID string) {
	if err := h.deps.Tracker.Resolve(ctx, userID); err != nil {
		h.logger.Warn("failed to clear pending offer", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) failure(msg string, err error) Outcome {
	code, _ := apperrors.CodeOf(err)
	h.logger.Warn(msg, map[string]interface{}{
		"error":     err.Error(),
		"errorCode": string(code),
	})
	return textReply(apperrors.UserMessage(code))
}

func textReply(text string) Outcome {
	return Outcome{Kind: OutcomeTextReply, Text: text}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to build complete command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, sendErr := cmd.Send(context.Background()); sendErr != nil {
		h.logger.Error("failed to send complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  sendErr.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

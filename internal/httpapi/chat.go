// Package httpapi exposes the conversation pipeline as the POST /api/chat
// JSON endpoint used by the chat window.
package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"strings"

	"github.com/google/uuid"

	apperrors "logo-workers/internal/common/errors"
	"logo-workers/internal/common/llm"
	"logo-workers/internal/models"
	"logo-workers/internal/store"
	handlemessage "logo-workers/internal/workers/ai-conversation/handle-message"
)

const (
	userIDHeader    = "X-User-ID"
	requestIDHeader = "X-Request-ID"

	maxBodyBytes = 64 << 10
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// ChatService resolves one message into an outcome.
type ChatService interface {
	HandleMessage(ctx context.Context, input *handlemessage.Input) (handlemessage.Outcome, error)
}

type chatRequest struct {
	UserID              string        `json:"user_id"`
	ConversationID      string        `json:"conversation_id"`
	Message             string        `json:"message"`
	ConversationHistory []llm.Message `json:"conversation_history"`
	WebSearchEnabled    bool          `json:"web_search_enabled"`
}

type chatResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Response                  string                    `json:"response"`
	IsImageRequest            bool                      `json:"is_image_request"`
	NeedsGeneration           bool                      `json:"needs_generation,omitempty"`
	ImagePrompt               string                    `json:"image_prompt,omitempty"`
	StyleParams               *models.StyleParams       `json:"style_params,omitempty"`
	HasReferenceImage         bool                      `json:"has_reference_image,omitempty"`
	ReferenceImage            *referenceImage           `json:"reference_image,omitempty"`
	AwaitingConfirmation      bool                      `json:"awaiting_confirmation"`
	AwaitingPhotoConfirmation bool                      `json:"awaiting_photo_confirmation"`
	PhotoResult               *models.SearchSelection   `json:"photo_result,omitempty"`
	LogoPreview               *models.GenerationPreview `json:"logo_preview,omitempty"`
	SelectedResult            *models.SearchResult      `json:"selected_result,omitempty"`
	RemainingPrompts          *int                      `json:"remaining_prompts,omitempty"`
	NeedsUpgrade              bool                      `json:"needs_upgrade,omitempty"`
	ChatEntryID               int64                     `json:"chat_entry_id,omitempty"`
}

// ChatHandler serves POST /api/chat. History is optional: without it the
// client-supplied conversation_history is the only context and nothing is
// recorded.
type ChatHandler struct {
	chat          ChatService
	history       models.HistoryRepository
	historyWindow int
	logger        Logger
}

func NewChatHandler(chat ChatService, history models.HistoryRepository, historyWindow int, log Logger) *ChatHandler {
	return &ChatHandler{
		chat:          chat,
		history:       history,
		historyWindow: historyWindow,
		logger:        log.With(map[string]interface{}{"component": "chat-api"}),
	}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, chatResponse{Error: "Method not allowed"})
		return
	}

	requestID := r.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, requestID)
	log := h.logger.With(map[string]interface{}{"requestId": requestID})

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatResponse{Error: "Invalid JSON body"})
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, chatResponse{Error: "Message required"})
		return
	}
	userID := strings.TrimSpace(r.Header.Get(userIDHeader))
	if userID == "" {
		userID = strings.TrimSpace(req.UserID)
	}
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, chatResponse{Error: "User required"})
		return
	}

	ctx := r.Context()
	history := req.ConversationHistory
	if len(history) == 0 {
		history = h.loadHistory(ctx, log, userID)
	}

	outcome, err := h.chat.HandleMessage(ctx, &handlemessage.Input{
		UserID:           userID,
		Message:          req.Message,
		History:          history,
		WebSearchEnabled: req.WebSearchEnabled,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
			status = http.StatusBadRequest
		}
		log.Error("chat message failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		writeJSON(w, status, chatResponse{Error: err.Error()})
		return
	}

	resp := responseFor(outcome)
	resp.ChatEntryID = h.record(ctx, log, userID, req, outcome)
	writeJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) loadHistory(ctx context.Context, log Logger, userID string) []llm.Message {
	if h.history == nil || h.historyWindow <= 0 {
		return nil
	}
	turns, err := h.history.Recent(ctx, userID, h.historyWindow)
	if err != nil {
		log.Warn("history unavailable, continuing without it", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return nil
	}
	return store.HistoryMessages(turns)
}

// record appends the resolved turn. A failed write is logged and the reply
// still goes out.
func (h *ChatHandler) record(ctx context.Context, log Logger, userID string, req chatRequest, out handlemessage.Outcome) int64 {
	if h.history == nil {
		return 0
	}
	id, err := h.history.Append(ctx, userID, models.ConversationTurn{
		UserID:         userID,
		ConversationID: req.ConversationID,
		UserMessage:    req.Message,
		AIResponse:     out.Text,
		ImagePrompt:    out.Prompt,
		MessageType:    out.MessageType(),
	})
	if err != nil {
		log.Warn("failed to record chat turn", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return 0
	}
	return id
}

func responseFor(out handlemessage.Outcome) chatResponse {
	return chatResponse{
		Success:                   true,
		Response:                  out.Text,
		IsImageRequest:            out.IsImageRequest(),
		NeedsGeneration:           out.IsImageRequest(),
		ImagePrompt:               out.Prompt,
		StyleParams:               out.StyleParams,
		HasReferenceImage:         out.Reference != nil,
		ReferenceImage:            referencePayload(out.Reference),
		AwaitingConfirmation:      out.AwaitingConfirmation(),
		AwaitingPhotoConfirmation: out.AwaitingPhotoConfirmation(),
		PhotoResult:               out.Selection,
		LogoPreview:               out.Preview,
		SelectedResult:            out.Selected,
		RemainingPrompts:          out.Remaining,
		NeedsUpgrade:              out.NeedsUpgrade,
	}
}

// referenceImage carries the reference picked from search to the caller that
// runs the diffusion model. Data is a PNG data URI.
type referenceImage struct {
	SourceURL string `json:"source_url"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Data      string `json:"data,omitempty"`
}

func referencePayload(ref *models.ReferenceImage) *referenceImage {
	if ref == nil {
		return nil
	}
	payload := &referenceImage{
		SourceURL: ref.SourceURL,
		Format:    ref.Format,
		Width:     ref.Width,
		Height:    ref.Height,
	}
	if ref.Image != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, ref.Image); err == nil {
			payload.Data = "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
		}
	}
	return payload
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

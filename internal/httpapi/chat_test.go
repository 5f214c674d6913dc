package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "logo-workers/internal/common/errors"
	"logo-workers/internal/common/llm"
	"logo-workers/internal/models"
	"logo-workers/internal/store"
	handlemessage "logo-workers/internal/workers/ai-conversation/handle-message"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return l
}

// ==========================
// Fakes
// ==========================

type fakeChat struct {
	outcome handlemessage.Outcome
	err     error
	inputs  []*handlemessage.Input
}

func (f *fakeChat) HandleMessage(ctx context.Context, input *handlemessage.Input) (handlemessage.Outcome, error) {
	f.inputs = append(f.inputs, input)
	return f.outcome, f.err
}

type fakeHistory struct {
	turns     []models.ConversationTurn
	appended  []models.ConversationTurn
	recentErr error
	appendErr error
}

func (f *fakeHistory) Append(ctx context.Context, userID string, turn models.ConversationTurn) (int64, error) {
	if f.appendErr != nil {
		return 0, f.appendErr
	}
	f.appended = append(f.appended, turn)
	return int64(len(f.appended)), nil
}

func (f *fakeHistory) Recent(ctx context.Context, userID string, limit int) ([]models.ConversationTurn, error) {
	return f.turns, f.recentErr
}

func post(t *testing.T, h http.Handler, body string, header map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

// ==========================
// Chat Endpoint Tests
// ==========================

func TestChatHandler_Outcomes(t *testing.T) {
	remaining := 4
	tests := []struct {
		name           string
		outcome        handlemessage.Outcome
		validateOutput func(t *testing.T, body map[string]interface{}, history *fakeHistory)
	}{
		{
			name: "generation ready",
			outcome: handlemessage.Outcome{
				Kind:        handlemessage.OutcomeGenerationReady,
				Text:        "Sure! I'll be generating that for you.",
				Prompt:      "coffee cup logo, warm brown",
				StyleParams: &models.StyleParams{Steps: 4, Width: 1024, Height: 1024, ReferenceWeight: 0.5},
				Remaining:   &remaining,
			},
			validateOutput: func(t *testing.T, body map[string]interface{}, history *fakeHistory) {
				assert.Equal(t, true, body["is_image_request"])
				assert.Equal(t, true, body["needs_generation"])
				assert.Equal(t, "coffee cup logo, warm brown", body["image_prompt"])
				assert.Equal(t, float64(4), body["remaining_prompts"])
				assert.Equal(t, false, body["awaiting_confirmation"])
				require.Len(t, history.appended, 1)
				assert.Equal(t, models.MessageTypeImage, history.appended[0].MessageType)
				assert.Equal(t, "coffee cup logo, warm brown", history.appended[0].ImagePrompt)
			},
		},
		{
			name: "search preview",
			outcome: handlemessage.Outcome{
				Kind: handlemessage.OutcomeSearchPreview,
				Text: "🔍 **Photos Found from Web Search**",
				Selection: &models.SearchSelection{
					Query:   "Nike logo",
					Results: []models.SearchResult{{ImageURL: "https://upload.wikimedia.org/nike.png"}},
				},
			},
			validateOutput: func(t *testing.T, body map[string]interface{}, history *fakeHistory) {
				assert.Equal(t, false, body["is_image_request"])
				assert.Equal(t, true, body["awaiting_photo_confirmation"])
				photo, ok := body["photo_result"].(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, "Nike logo", photo["query"])
				assert.Equal(t, models.MessageTypePhoto, history.appended[0].MessageType)
			},
		},
		{
			name: "logo preview",
			outcome: handlemessage.Outcome{
				Kind:    handlemessage.OutcomeGenerationPreviewReady,
				Text:    "🎨 **Logo Design Preview**",
				Preview: &models.GenerationPreview{FinalPrompt: "Logo for coffee shop", Confidence: models.ConfidenceHigh},
			},
			validateOutput: func(t *testing.T, body map[string]interface{}, history *fakeHistory) {
				assert.Equal(t, true, body["awaiting_confirmation"])
				preview, ok := body["logo_preview"].(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, "Logo for coffee shop", preview["final_diffusion_prompt"])
			},
		},
		{
			name: "quota refusal",
			outcome: handlemessage.Outcome{
				Kind:         handlemessage.OutcomeTextReply,
				Text:         "Free limit reached (5/day). Upgrade to Pro! [Upgrade](/upgrade)",
				NeedsUpgrade: true,
			},
			validateOutput: func(t *testing.T, body map[string]interface{}, history *fakeHistory) {
				assert.Equal(t, true, body["needs_upgrade"])
				assert.Equal(t, false, body["is_image_request"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &fakeChat{outcome: tt.outcome}
			history := &fakeHistory{}
			h := NewChatHandler(chat, history, 10, &TestLogger{t: t})

			rec, body := post(t, h, `{"message": "hello", "web_search_enabled": true}`, map[string]string{userIDHeader: "alice"})

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, true, body["success"])
			assert.Equal(t, tt.outcome.Text, body["response"])
			assert.Equal(t, float64(1), body["chat_entry_id"])
			assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
			require.Len(t, chat.inputs, 1)
			assert.Equal(t, "alice", chat.inputs[0].UserID)
			assert.True(t, chat.inputs[0].WebSearchEnabled)
			tt.validateOutput(t, body, history)
		})
	}
}

func TestChatHandler_ReturnsReferenceImage(t *testing.T) {
	ref := &models.ReferenceImage{
		Image:     image.NewRGBA(image.Rect(0, 0, 64, 64)),
		Format:    "png",
		Width:     64,
		Height:    64,
		SourceURL: "https://upload.wikimedia.org/nike.png",
	}
	chat := &fakeChat{outcome: handlemessage.Outcome{
		Kind:        handlemessage.OutcomeGenerationReady,
		Prompt:      "running club logo",
		StyleParams: &models.StyleParams{ReferenceWeight: models.ReferenceImageWeight},
		Reference:   ref,
	}}
	h := NewChatHandler(chat, nil, 10, &TestLogger{t})

	rec, body := post(t, h, `{"message": "create a logo for my running club"}`, map[string]string{userIDHeader: "alice"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["has_reference_image"])
	payload, ok := body["reference_image"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "https://upload.wikimedia.org/nike.png", payload["source_url"])
	assert.EqualValues(t, 64, payload["width"])

	data, _ := payload["data"].(string)
	require.True(t, strings.HasPrefix(data, "data:image/png;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(data, "data:image/png;base64,"))
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 64, decoded.Bounds().Dx())
}

func TestChatHandler_BadRequests(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		header     map[string]string
		wantStatus int
		wantError  string
	}{
		{name: "wrong method", method: http.MethodGet, wantStatus: http.StatusMethodNotAllowed, wantError: "Method not allowed"},
		{name: "invalid json", body: `{"message":`, header: map[string]string{userIDHeader: "alice"}, wantStatus: http.StatusBadRequest, wantError: "Invalid JSON body"},
		{name: "empty message", body: `{"message": "   "}`, header: map[string]string{userIDHeader: "alice"}, wantStatus: http.StatusBadRequest, wantError: "Message required"},
		{name: "no user", body: `{"message": "hi"}`, wantStatus: http.StatusBadRequest, wantError: "User required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &fakeChat{}
			h := NewChatHandler(chat, nil, 10, &TestLogger{t: t})

			method := tt.method
			if method == "" {
				method = http.MethodPost
			}
			req := httptest.NewRequest(method, "/api/chat", strings.NewReader(tt.body))
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantError, body["error"])
			assert.Empty(t, chat.inputs)
		})
	}
}

func TestChatHandler_PipelineErrors(t *testing.T) {
	chat := &fakeChat{err: apperrors.NewInvalidInputError("userId is required")}
	h := NewChatHandler(chat, nil, 10, &TestLogger{t: t})

	rec, _ := post(t, h, `{"message": "hi", "user_id": "bob"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	chat.err = errors.New("boom")
	rec, _ = post(t, h, `{"message": "hi", "user_id": "bob"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChatHandler_LoadsHistoryWhenClientSendsNone(t *testing.T) {
	chat := &fakeChat{outcome: handlemessage.Outcome{Kind: handlemessage.OutcomeTextReply, Text: "ok"}}
	history := &fakeHistory{turns: []models.ConversationTurn{
		{UserMessage: "show me the BMW logo", AIResponse: "Found 5 results"},
	}}
	h := NewChatHandler(chat, history, 10, &TestLogger{t: t})

	post(t, h, `{"message": "the red one", "user_id": "alice"}`, nil)

	require.Len(t, chat.inputs, 1)
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleUser, Content: "show me the BMW logo"},
		{Role: llm.RoleAssistant, Content: "Found 5 results"},
	}, chat.inputs[0].History)

	post(t, h, `{"message": "again", "user_id": "alice", "conversation_history": [{"role": "user", "content": "hi"}]}`, nil)
	require.Len(t, chat.inputs, 2)
	assert.Len(t, chat.inputs[1].History, 1)
}

func TestChatHandler_HistoryFailuresDoNotFailTheReply(t *testing.T) {
	chat := &fakeChat{outcome: handlemessage.Outcome{Kind: handlemessage.OutcomeTextReply, Text: "ok"}}
	history := &fakeHistory{
		recentErr: apperrors.NewStoreOperationFailedError("load history", errors.New("down")),
		appendErr: apperrors.NewStoreOperationFailedError("append history", errors.New("down")),
	}
	h := NewChatHandler(chat, history, 10, &TestLogger{t: t})

	rec, body := post(t, h, `{"message": "hi", "user_id": "alice"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["response"])
	_, hasID := body["chat_entry_id"]
	assert.False(t, hasID)
}

func TestChatHandler_PostgresHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM chat_history")).
		WithArgs("alice", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "conversation_id", "user_message", "ai_response", "image_prompt", "message_type", "created_at"}))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO chat_history")).
		WithArgs("alice", nil, "hi", "Hello!", nil, models.MessageTypeText, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(77))

	chat := &fakeChat{outcome: handlemessage.Outcome{Kind: handlemessage.OutcomeTextReply, Text: "Hello!"}}
	h := NewChatHandler(chat, store.NewPostgresHistoryStore(db), 10, &TestLogger{t: t})

	_, body := post(t, h, `{"message": "hi", "user_id": "alice"}`, nil)

	assert.Equal(t, float64(77), body["chat_entry_id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Router Tests
// ==========================

func TestRouter_Ready(t *testing.T) {
	healthy := NewRouter(http.NotFoundHandler(), map[string]ReadinessCheck{
		"redis": func(ctx context.Context) error { return nil },
	})
	rec := httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	broken := NewRouter(http.NotFoundHandler(), map[string]ReadinessCheck{
		"postgres": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	rec = httptest.NewRecorder()
	broken.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")

	rec = httptest.NewRecorder()
	broken.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

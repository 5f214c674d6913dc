// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logo-workers/internal/common/logger"
	"logo-workers/internal/dialogue"
	"logo-workers/internal/httpapi"
	"logo-workers/internal/models"
	"logo-workers/internal/store"

	chatreply "logo-workers/internal/workers/ai-conversation/chat-reply"
	classifyintent "logo-workers/internal/workers/ai-conversation/classify-intent"
	extractsearchquery "logo-workers/internal/workers/ai-conversation/extract-search-query"
	handlemessage "logo-workers/internal/workers/ai-conversation/handle-message"
	composeprompt "logo-workers/internal/workers/logo-agent/compose-prompt"
	searchreferences "logo-workers/internal/workers/logo-agent/search-references"
)

// Logger adapters to bridge logger.Logger to worker-specific Logger interfaces
type classifyLoggerAdapter struct{ logger.Logger }

func (a *classifyLoggerAdapter) With(fields map[string]interface{}) classifyintent.Logger {
	return &classifyLoggerAdapter{a.Logger.With(fields)}
}

type extractLoggerAdapter struct{ logger.Logger }

func (a *extractLoggerAdapter) With(fields map[string]interface{}) extractsearchquery.Logger {
	return &extractLoggerAdapter{a.Logger.With(fields)}
}

type chatReplyLoggerAdapter struct{ logger.Logger }

func (a *chatReplyLoggerAdapter) With(fields map[string]interface{}) chatreply.Logger {
	return &chatReplyLoggerAdapter{a.Logger.With(fields)}
}

type searchLoggerAdapter struct{ logger.Logger }

func (a *searchLoggerAdapter) With(fields map[string]interface{}) searchreferences.Logger {
	return &searchLoggerAdapter{a.Logger.With(fields)}
}

type composeLoggerAdapter struct{ logger.Logger }

func (a *composeLoggerAdapter) With(fields map[string]interface{}) composeprompt.Logger {
	return &composeLoggerAdapter{a.Logger.With(fields)}
}

type handleMessageLoggerAdapter struct{ logger.Logger }

func (a *handleMessageLoggerAdapter) With(fields map[string]interface{}) handlemessage.Logger {
	return &handleMessageLoggerAdapter{a.Logger.With(fields)}
}

type httpLoggerAdapter struct{ logger.Logger }

func (a *httpLoggerAdapter) With(fields map[string]interface{}) httpapi.Logger {
	return &httpLoggerAdapter{a.Logger.With(fields)}
}

// ==========================
// 1. Environment
// ==========================

const dailyLimit = 2

type environment struct {
	api         *httptest.Server
	search      *httptest.Server
	redis       *miniredis.Miniredis
	searchCalls int32
}

func pngBytes(t *testing.T, w, h int) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// newSearchServer serves both the image search API and the images it
// points at, so a pick can be downloaded and decoded.
func (env *environment) newSearchServer(t *testing.T) *httptest.Server {
	logo := pngBytes(t, 128, 128)
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/images/search":
			atomic.AddInt32(&env.searchCalls, 1)
			assert.Equal(t, "e2e-token", r.Header.Get("X-Subscription-Token"))
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"results": [
			  {"title": "Nike swoosh", "url": "%[1]s/page/1",
			   "properties": {"url": "%[1]s/img/nike.png", "width": 800, "height": 600},
			   "thumbnail": {"src": "%[1]s/img/nike-thumb.png"}},
			  {"title": "Nike vector", "url": "%[1]s/page/2",
			   "properties": {"url": "%[1]s/img/nike-vector.png", "width": 400, "height": 400},
			   "thumbnail": {"src": "%[1]s/img/nike-vector-thumb.png"}}
			]}`, server.URL)
		case "/web/search":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"web": {"results": []}}`)
		default:
			w.Header().Set("Content-Type", "image/png")
			w.Write(logo)
		}
	}))
	return server
}

func setupEnvironment(t *testing.T) *environment {
	t.Helper()
	env := &environment{}

	env.redis = miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: env.redis.Addr()})
	t.Cleanup(func() { rdb.Close() })

	env.search = env.newSearchServer(t)
	t.Cleanup(env.search.Close)

	log := logger.NewTestLogger(t)

	searchCfg := searchreferences.LoadConfig()
	searchCfg.BaseURL = env.search.URL
	searchCfg.APIKey = "e2e-token"
	searchCfg.Timeout = 2 * time.Second
	searchCfg.FetchTimeout = 2 * time.Second
	searchCfg.MinInterval = 0
	searchClient := searchreferences.NewClient(searchCfg, &searchLoggerAdapter{log})

	composeCfg := composeprompt.LoadConfig()
	composeCfg.DesignSearch = false

	messageCfg := handlemessage.LoadConfig()
	messageCfg.DailyLimit = dailyLimit

	orchestrator := handlemessage.NewHandler(messageCfg, handlemessage.Dependencies{
		Tracker:    dialogue.NewTracker(dialogue.NewRedisStore(rdb, 30*time.Minute)),
		References: dialogue.NewReferenceHolder(),
		Classifier: classifyintent.NewHandler(classifyintent.LoadConfig(), nil, &classifyLoggerAdapter{log}),
		Extractor:  extractsearchquery.NewHandler(extractsearchquery.LoadConfig(), nil, &extractLoggerAdapter{log}),
		Searcher:   searchClient,
		Composer:   composeprompt.NewHandler(composeCfg, nil, &composeLoggerAdapter{log}),
		Chat:       chatreply.NewHandler(chatreply.LoadConfig(), nil, &chatReplyLoggerAdapter{log}),
		Quota:      store.NewRedisQuotaStore(rdb, dailyLimit),
	}, &handleMessageLoggerAdapter{log})

	chat := httpapi.NewChatHandler(orchestrator, nil, 10, &httpLoggerAdapter{log})
	env.api = httptest.NewServer(httpapi.NewRouter(chat, map[string]httpapi.ReadinessCheck{
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}))
	t.Cleanup(env.api.Close)

	t.Log("✅ chat API, search API and redis ready")
	return env
}

func (env *environment) chat(t *testing.T, user, message string, web bool) map[string]interface{} {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"message":            message,
		"web_search_enabled": web,
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, env.api.URL+"/api/chat", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", user)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, true, out["success"])
	return out
}

// ==========================
// 2. Full conversation
// ==========================

func TestFullE2E(t *testing.T) {
	env := setupEnvironment(t)

	t.Run("health and readiness", func(t *testing.T) {
		for _, path := range []string{"/health", "/ready"} {
			resp, err := http.Get(env.api.URL + path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		}
	})

	t.Run("preview then confirm", func(t *testing.T) {
		preview := env.chat(t, "alice", "create a modern logo for my coffee shop", true)
		assert.Equal(t, true, preview["awaiting_confirmation"])
		assert.Equal(t, false, preview["is_image_request"])
		assert.NotNil(t, preview["logo_preview"])
		assert.True(t, env.redis.Exists("dialogue:pending:alice"), "pending preview is stored in redis")

		confirmed := env.chat(t, "alice", "yes", true)
		assert.Equal(t, true, confirmed["is_image_request"])
		assert.Equal(t, true, confirmed["needs_generation"])
		assert.NotEmpty(t, confirmed["image_prompt"])
		assert.Equal(t, false, confirmed["awaiting_confirmation"])
		assert.EqualValues(t, 1, confirmed["remaining_prompts"])
		assert.False(t, env.redis.Exists("dialogue:pending:alice"))
	})

	t.Run("search, pick and generate with the reference", func(t *testing.T) {
		found := env.chat(t, "alice", "show me the Nike logo", true)
		assert.Equal(t, true, found["awaiting_photo_confirmation"])
		assert.Contains(t, found["response"], "Photos Found from Web Search")
		photos, ok := found["photo_result"].(map[string]interface{})
		require.True(t, ok)
		assert.Len(t, photos["results"], 2)
		assert.EqualValues(t, 1, atomic.LoadInt32(&env.searchCalls))

		picked := env.chat(t, "alice", "use image 1", true)
		assert.Equal(t, false, picked["awaiting_photo_confirmation"])
		assert.Equal(t, true, picked["has_reference_image"])
		require.NotNil(t, picked["selected_result"])

		generated := env.chat(t, "alice", "create a logo for my running club", false)
		assert.Equal(t, true, generated["is_image_request"])
		assert.Equal(t, true, generated["has_reference_image"])
		style, ok := generated["style_params"].(map[string]interface{})
		require.True(t, ok)
		assert.InDelta(t, models.ReferenceImageWeight, style["reference_weight"], 1e-9)
		ref, ok := generated["reference_image"].(map[string]interface{})
		require.True(t, ok)
		assert.Contains(t, ref["data"], "data:image/png;base64,")
		assert.EqualValues(t, 0, generated["remaining_prompts"])
	})

	t.Run("quota exhausted", func(t *testing.T) {
		refused := env.chat(t, "alice", "create a logo for my book shop", false)
		assert.Equal(t, false, refused["is_image_request"])
		assert.Equal(t, true, refused["needs_upgrade"])
		assert.Contains(t, refused["response"], fmt.Sprintf("Free limit reached (%d/day)", dailyLimit))
	})

	t.Run("quota is per user", func(t *testing.T) {
		other := env.chat(t, "bob", "create a logo for my book shop", false)
		assert.Equal(t, true, other["is_image_request"])
		assert.EqualValues(t, 1, other["remaining_prompts"])
	})

	t.Run("pro users are unlimited", func(t *testing.T) {
		_, err := env.redis.SAdd(store.ProUsersKey, "carol")
		require.NoError(t, err)
		for i := 0; i < dailyLimit+1; i++ {
			out := env.chat(t, "carol", "create a logo for my bike shop", false)
			assert.Equal(t, true, out["is_image_request"])
			assert.Nil(t, out["remaining_prompts"])
		}
	})
}

// ==========================
// 3. Benchmarks
// ==========================

func BenchmarkChat_PatternClassifier(b *testing.B) {
	classifier := classifyintent.NewHandler(classifyintent.LoadConfig(), nil, &classifyLoggerAdapter{logger.NewNoOpLogger()})
	messages := []string{
		"create a modern logo for my coffee shop",
		"show me the Nike logo",
		"what colors work well for a bakery?",
		"yes",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		classifier.FallbackClassify(messages[i%len(messages)], nil)
	}
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iammorganparry/feel/internal/analyzer"
	"github.com/iammorganparry/feel/internal/emoji"
	"github.com/iammorganparry/feel/internal/engine"
	"github.com/iammorganparry/feel/internal/models"
	"github.com/iammorganparry/feel/internal/storage"
	"github.com/iammorganparry/feel/internal/testutil"
	"github.com/iammorganparry/feel/internal/visual"
)

type fixture struct {
	router http.Handler
	eng    *engine.Engine
	gemini *testutil.FakeGemini
	hub    *testutil.FakeEmojiHub
}

func newFixture(t *testing.T, apiKey string, replies ...testutil.GeminiReply) *fixture {
	t.Helper()
	log := zerolog.Nop()
	gemini := testutil.NewFakeGemini(t, replies...)
	hub := testutil.NewFakeEmojiHub(t)
	store := storage.NewStore(storage.NewMemoryBackend(0), storage.TextSafe, log)
	eng := engine.New(
		analyzer.New(analyzer.NewGeminiREST(gemini.URL, "k", 5*time.Second), log),
		emoji.NewCache(emoji.NewHubClient(hub.URL, 5*time.Second), log),
		visual.NewStateMachine(log, func(int) int { return 0 }),
		store,
		log,
	)
	require.NoError(t, eng.Initialize(context.Background()))
	return &fixture{
		router: NewRouter(eng, models.SupportedModels, apiKey, log),
		eng:    eng,
		gemini: gemini,
		hub:    hub,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func analysisReply(group models.MoodGroup, summary string) testutil.GeminiReply {
	return testutil.GeminiReply{Text: testutil.AnalysisJSON(testutil.SampleAnalysis(group, summary))}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Initialized)

	f.eng.Dispose()
	rec = f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decode[HealthResponse](t, rec).Status)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, "secret")
	rec := f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestBearerAuth(t *testing.T) {
	f := newFixture(t, "secret")

	rec := f.do(t, http.MethodGet, "/state", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set("Authorization", "Bearer secret")
	ok := httptest.NewRecorder()
	f.router.ServeHTTP(ok, req)
	assert.Equal(t, http.StatusOK, ok.Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, "secret")
	rec := f.do(t, http.MethodOptions, "/messages", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSendMessage(t *testing.T) {
	f := newFixture(t, "", analysisReply(models.GroupFacePositive, "Content."))

	rec := f.do(t, http.MethodPost, "/messages", `{"message":"Je suis content"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	turn := decode[engine.Turn](t, rec)
	assert.Equal(t, models.GroupFacePositive, turn.Result.Group)
	assert.True(t, turn.Persisted)
	assert.NotEmpty(t, turn.FloatingEmojis)

	rec = f.do(t, http.MethodGet, "/context", "")
	assert.Equal(t, "Content.", decode[ContextResponse](t, rec).Summary)

	rec = f.do(t, http.MethodGet, "/history", "")
	hist := decode[HistoryResponse](t, rec)
	assert.Equal(t, 1, hist.Total)
	assert.Equal(t, "Je suis content", hist.Entries[0].UserMessage)

	rec = f.do(t, http.MethodGet, "/state", "")
	assert.Equal(t, "😄", decode[models.VisualState](t, rec).UserEmoji)
}

func TestSendMessageErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		reply  testutil.GeminiReply
		status int
		kind   string
	}{
		{name: "malformed body", body: `{`, status: http.StatusBadRequest},
		{name: "empty message", body: `{"message":"   "}`, status: http.StatusBadRequest, kind: "invalid_input"},
		{name: "too long", body: `{"message":"` + strings.Repeat("a", 501) + `"}`, status: http.StatusBadRequest, kind: "invalid_input"},
		{
			name:   "upstream rate limited",
			body:   `{"message":"hello"}`,
			reply:  testutil.GeminiReply{Status: http.StatusTooManyRequests, Raw: `{}`},
			status: http.StatusBadGateway,
			kind:   "http_status",
		},
		{
			name:   "invalid analysis",
			body:   `{"message":"hello"}`,
			reply:  testutil.GeminiReply{Text: `{"mood":"x"}`},
			status: http.StatusBadGateway,
			kind:   "schema_validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "", tt.reply)
			rec := f.do(t, http.MethodPost, "/messages", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.kind, resp.Kind)
			assert.NotEmpty(t, resp.Error)
			if tt.kind != "" {
				assert.NotEmpty(t, resp.UserMessage)
			}
		})
	}
}

func TestNotInitialized(t *testing.T) {
	f := newFixture(t, "")
	f.eng.Dispose()
	rec := f.do(t, http.MethodPost, "/messages", `{"message":"hello"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_initialized", decode[ErrorResponse](t, rec).Kind)
}

func TestExportImportRoundTrip(t *testing.T) {
	f := newFixture(t, "",
		analysisReply(models.GroupFacePositive, "Un."),
		analysisReply(models.GroupFacePositive, "Deux."),
	)
	for _, msg := range []string{"un", "deux"} {
		rec := f.do(t, http.MethodPost, "/messages", `{"message":"`+msg+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := f.do(t, http.MethodGet, "/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	exported := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "feel-history.json")

	rec = f.do(t, http.MethodDelete, "/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.eng.History())
	assert.Empty(t, f.eng.CurrentContext())

	rec = f.do(t, http.MethodPost, "/import", exported)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	hist := decode[HistoryResponse](t, rec)
	assert.Equal(t, 2, hist.Total)
	assert.Equal(t, "deux", hist.Entries[0].UserMessage)
	assert.Equal(t, "Deux.", f.eng.CurrentContext())
}

func TestImportRejectsInvalidPayload(t *testing.T) {
	f := newFixture(t, "", analysisReply(models.GroupFacePositive, "Un."))
	rec := f.do(t, http.MethodPost, "/messages", `{"message":"un"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/import", `{"not":"an array"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "import_validation", decode[ErrorResponse](t, rec).Kind)

	rec = f.do(t, http.MethodPost, "/import", `[{"id":"a","timestamp":"2024-01-01T00:00:00Z","userMessage":""}]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, f.eng.History(), 1, "history untouched")
}

func TestCleanup(t *testing.T) {
	f := newFixture(t, "",
		analysisReply(models.GroupFacePositive, "Un."),
		analysisReply(models.GroupFacePositive, "Deux."),
		analysisReply(models.GroupFacePositive, "Trois."),
	)
	for _, msg := range []string{"un", "deux", "trois"} {
		require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/messages", `{"message":"`+msg+`"}`).Code)
	}

	rec := f.do(t, http.MethodPost, "/cleanup", `{"keepCount":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/cleanup", `{"keepCount":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[CleanupResponse](t, rec).Removed)
	require.Len(t, f.eng.History(), 1)
	assert.Equal(t, "trois", f.eng.History()[0].UserMessage)

	rec = f.do(t, http.MethodPost, "/cleanup", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[CleanupResponse](t, rec).Removed)
}

func TestCleanupChunkedEmptyBody(t *testing.T) {
	f := newFixture(t, "")

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := make([]models.ConversationEntry, storage.DefaultKeepCount+5)
	for i := range entries {
		entries[i] = models.ConversationEntry{
			ID:          fmt.Sprintf("entry-%03d", i),
			Timestamp:   base.Add(-time.Duration(i) * time.Minute),
			UserMessage: fmt.Sprintf("message %d", i),
			Analysis:    testutil.SampleAnalysis(models.GroupFacePositive, "s"),
		}
	}
	payload, err := json.Marshal(entries)
	require.NoError(t, err)
	require.True(t, f.eng.ImportData(string(payload)))

	want := []int{5, 0}
	for i, body := range []string{"", "  \n"} {
		req := httptest.NewRequest(http.MethodPost, "/cleanup", strings.NewReader(body))
		req.ContentLength = -1
		req.TransferEncoding = []string{"chunked"}
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, want[i], decode[CleanupResponse](t, rec).Removed)
	}
	assert.Len(t, f.eng.History(), storage.DefaultKeepCount)

	rec := f.do(t, http.MethodPost, "/cleanup", `{"keepCount":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettings(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodGet, "/settings", "")
	assert.Equal(t, engine.Settings{Language: models.LanguageFR, Model: models.DefaultModel}, decode[engine.Settings](t, rec))

	rec = f.do(t, http.MethodPut, "/settings", `{"language":"en","model":"gemini-2.5-flash"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, engine.Settings{Language: models.LanguageEN, Model: "gemini-2.5-flash"}, decode[engine.Settings](t, rec))

	rec = f.do(t, http.MethodPut, "/settings", `{"language":"de"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(t, http.MethodPut, "/settings", `{"model":"gpt-2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.LanguageEN, f.eng.Language())

	rec = f.do(t, http.MethodGet, "/models", "")
	resp := decode[ModelsResponse](t, rec)
	assert.Equal(t, "gemini-2.5-flash", resp.Current)
	assert.Len(t, resp.Models, len(models.SupportedModels))

	rec = f.do(t, http.MethodPost, "/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.DefaultModel, decode[engine.Statistics](t, rec).Settings.Model)
}

func TestStats(t *testing.T) {
	f := newFixture(t, "", analysisReply(models.GroupFacePositive, "Un."))
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/messages", `{"message":"un"}`).Code)

	rec := f.do(t, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[engine.Statistics](t, rec)
	assert.Equal(t, 1, st.Storage.Count)
	assert.Positive(t, st.Storage.Size)
	assert.Equal(t, 1, st.EmojiCache.Size)
	assert.Equal(t, models.AnimationBounce, st.UI.CurrentAnimation)
}

func TestRecoveryReturns500(t *testing.T) {
	h := Recovery(zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

package analyzer

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iammorganparry/feel/internal/apperr"
	"github.com/iammorganparry/feel/internal/models"
	"github.com/iammorganparry/feel/internal/testutil"
)

func newTestAnalyzer(t *testing.T, replies ...testutil.GeminiReply) (*Analyzer, *testutil.FakeGemini) {
	t.Helper()
	fake := testutil.NewFakeGemini(t, replies...)
	gen := NewGeminiREST(fake.URL, "test-key", 5*time.Second)
	return New(gen, zerolog.Nop()), fake
}

func TestAnalyzeSuccess(t *testing.T) {
	want := testutil.SampleAnalysis(models.GroupFacePositive, "L'utilisateur est heureux.")
	a, fake := newTestAnalyzer(t, testutil.GeminiReply{Text: testutil.AnalysisJSON(want)})

	got, err := a.Analyze(context.Background(), "Je suis content", models.LanguageFR, models.DefaultModel)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "L'utilisateur est heureux.", a.CurrentContext())

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, models.DefaultModel, calls[0].Model)
	assert.Equal(t, "test-key", calls[0].APIKey)
	assert.Equal(t, "user", calls[0].Role)
	assert.Contains(t, calls[0].Prompt, `"Je suis content"`)
}

func TestAnalyzeCarriesContextIntoNextPrompt(t *testing.T) {
	first := testutil.SampleAnalysis(models.GroupFacePositive, "Premier résumé")
	second := testutil.SampleAnalysis(models.GroupFaceNeutral, "Second résumé")
	a, fake := newTestAnalyzer(t,
		testutil.GeminiReply{Text: testutil.AnalysisJSON(first)},
		testutil.GeminiReply{Text: testutil.AnalysisJSON(second)},
	)
	ctx := context.Background()

	_, err := a.Analyze(ctx, "un", models.LanguageEN, models.DefaultModel)
	require.NoError(t, err)
	_, err = a.Analyze(ctx, "deux", models.LanguageEN, models.DefaultModel)
	require.NoError(t, err)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].Prompt, "You don't have context yet.")
	assert.Contains(t, calls[1].Prompt, "Premier résumé")
	assert.Contains(t, calls[1].Prompt, "Answer me in English")
	assert.Equal(t, "Second résumé", a.CurrentContext())
}

func TestAnalyzeStripsCodeFences(t *testing.T) {
	want := testutil.SampleAnalysis(models.GroupCatFace, "ctx")
	a, _ := newTestAnalyzer(t, testutil.GeminiReply{Text: "```json\n" + testutil.AnalysisJSON(want) + "\n```"})

	got, err := a.Analyze(context.Background(), "miaou", models.LanguageFR, models.DefaultModel)
	require.NoError(t, err)
	assert.Equal(t, models.GroupCatFace, got.Group)
}

func TestAnalyzeHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		lang   models.Language
		want   string
	}{
		{http.StatusBadRequest, models.LanguageFR, "Requête invalide. Le format du message n'est pas accepté par l'API."},
		{http.StatusUnauthorized, models.LanguageFR, "Clé API invalide. Veuillez vérifier votre clé API Gemini dans les paramètres."},
		{http.StatusForbidden, models.LanguageEN, "Access denied. Your API key lacks the required permissions."},
		{http.StatusNotFound, models.LanguageFR, "Modèle non trouvé. Vérifiez que le modèle sélectionné existe."},
		{http.StatusTooManyRequests, models.LanguageFR, "Limite de requêtes atteinte. Veuillez patienter quelques instants avant de réessayer."},
		{http.StatusTooManyRequests, models.LanguageEN, "Request limit reached. Please wait a moment before trying again."},
		{http.StatusServiceUnavailable, models.LanguageFR, "Erreur serveur de l'API Gemini. Veuillez réessayer dans quelques instants."},
		{http.StatusTeapot, models.LanguageFR, "Erreur API (418). Veuillez réessayer."},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status)+"/"+string(tt.lang), func(t *testing.T) {
			a, _ := newTestAnalyzer(t, testutil.GeminiReply{
				Status: tt.status,
				Raw:    `{"error":{"message":"upstream says no"}}`,
			})
			a.RestoreContext("keep me")

			_, err := a.Analyze(context.Background(), "hello", tt.lang, models.DefaultModel)
			require.Error(t, err)

			e, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.HTTPStatus, e.Kind)
			assert.Equal(t, tt.status, e.StatusCode)
			assert.Equal(t, tt.want, e.UserMessage)
			assert.Contains(t, e.Message, "upstream says no")
			assert.Equal(t, "keep me", a.CurrentContext(), "context unchanged on failure")
		})
	}
}

func TestAnalyzeNetworkError(t *testing.T) {
	fake := testutil.NewFakeGemini(t)
	fake.Close()
	a := New(NewGeminiREST(fake.URL, "k", time.Second), zerolog.Nop())

	_, err := a.Analyze(context.Background(), "hello", models.LanguageEN, models.DefaultModel)
	require.Error(t, err)
	assert.Equal(t, apperr.Network, apperr.KindOf(err))
	assert.Equal(t, "Connection error. Check your internet connection and try again.", apperr.UserMessage(err, ""))
}

func TestAnalyzeMissingContent(t *testing.T) {
	a, _ := newTestAnalyzer(t, testutil.GeminiReply{Raw: `{"candidates":[]}`})

	_, err := a.Analyze(context.Background(), "hello", models.LanguageFR, models.DefaultModel)
	require.Error(t, err)
	assert.Equal(t, apperr.SchemaValidation, apperr.KindOf(err))
	assert.Equal(t, 0, apperr.StatusCode(err))
	assert.ErrorIs(t, err, ErrMissingContent)
	assert.Equal(t, "L'API n'a pas retourné de contenu. Veuillez réessayer.", apperr.UserMessage(err, ""))
}

func TestAnalyzeUnparseable(t *testing.T) {
	a, _ := newTestAnalyzer(t, testutil.GeminiReply{Text: "I feel great!"})

	_, err := a.Analyze(context.Background(), "hello", models.LanguageEN, models.DefaultModel)
	require.Error(t, err)
	assert.Equal(t, apperr.SchemaValidation, apperr.KindOf(err))
	assert.Equal(t, "The API response was not in the expected format. Please try again.", apperr.UserMessage(err, ""))
	assert.Empty(t, a.CurrentContext())
}

func TestAnalyzeRejectsInvalidResult(t *testing.T) {
	bad := testutil.SampleAnalysis(models.GroupFacePositive, "ctx")
	bad.Intensity = 11
	bad.BackgroundColors = bad.BackgroundColors[:3]
	a, _ := newTestAnalyzer(t, testutil.GeminiReply{Text: testutil.AnalysisJSON(bad)})

	_, err := a.Analyze(context.Background(), "hello", models.LanguageEN, models.DefaultModel)
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.SchemaValidation, e.Kind)
	assert.Equal(t, []string{"backgroundColors", "intensity"}, e.Fields)
	assert.True(t, strings.Contains(e.UserMessage, "backgroundColors, intensity"))
	assert.Empty(t, a.CurrentContext())
}

func TestHistory(t *testing.T) {
	a := New(nil, zerolog.Nop())
	first := a.AddToHistory("un", testutil.SampleAnalysis(models.GroupFacePositive, "s1"))
	second := a.AddToHistory("deux", testutil.SampleAnalysis(models.GroupFaceNeutral, "s2"))

	h := a.History()
	require.Len(t, h, 2)
	assert.Equal(t, second.ID, h[0].ID, "newest first")
	assert.Equal(t, first.ID, h[1].ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "s2", h[0].ContextSummary)

	h[0].UserMessage = "mutated"
	assert.Equal(t, "deux", a.History()[0].UserMessage)

	a.SetHistory(h[1:])
	assert.Equal(t, "s1", a.CurrentContext())
	assert.Len(t, a.History(), 1)

	a.SetHistory(nil)
	assert.Empty(t, a.CurrentContext())

	a.RestoreContext("restored")
	a.ClearHistory()
	assert.Empty(t, a.History())
	assert.Empty(t, a.CurrentContext())
}

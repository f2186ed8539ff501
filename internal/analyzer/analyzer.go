// Package analyzer turns a user message into a validated mood analysis
// and keeps the rolling context summary that makes successive analyses
// cumulative.
package analyzer

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iammorganparry/feel/internal/apperr"
	"github.com/iammorganparry/feel/internal/i18n"
	"github.com/iammorganparry/feel/internal/metrics"
	"github.com/iammorganparry/feel/internal/models"
)

// Analyzer is safe for concurrent use.
type Analyzer struct {
	gen Generator
	log zerolog.Logger
	now func() time.Time

	mu      sync.RWMutex
	summary string
	history []models.ConversationEntry
}

func New(gen Generator, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		gen:     gen,
		log:     log.With().Str("component", "analyzer").Logger(),
		now:     time.Now,
		history: []models.ConversationEntry{},
	}
}

// Analyze sends message with the current context summary and returns the
// validated result. The context summary advances only on success.
func (a *Analyzer) Analyze(ctx context.Context, message string, lang models.Language, model string) (models.MoodAnalysis, error) {
	prompt := buildPrompt(message, lang, a.CurrentContext())

	start := time.Now()
	text, err := a.gen.Generate(ctx, model, prompt)
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return models.MoodAnalysis{}, a.fail(localize(err, lang), model)
	}

	result, err := parseAnalysis(text)
	if err != nil {
		return models.MoodAnalysis{}, a.fail(localize(err, lang), model)
	}

	a.mu.Lock()
	a.summary = result.ContextSummary
	a.mu.Unlock()

	metrics.AnalysisTotal.WithLabelValues("ok").Inc()
	a.log.Info().
		Str("model", model).
		Str("mood", result.Mood).
		Int("intensity", result.Intensity).
		Str("group", string(result.Group)).
		Dur("duration", time.Since(start)).
		Msg("analysis complete")
	return result, nil
}

func (a *Analyzer) fail(err error, model string) error {
	kind := apperr.KindOf(err)
	metrics.AnalysisTotal.WithLabelValues(kind.String()).Inc()
	a.log.Error().Err(err).Str("model", model).Str("kind", kind.String()).Msg("analysis failed")
	return err
}

// localize attaches the user-facing message for lang to err.
func localize(err error, lang models.Language) error {
	e, ok := apperr.As(err)
	if !ok {
		return apperr.Wrap(apperr.Unexpected, err, "unexpected error", i18n.T(lang, "error.unexpected"))
	}

	out := *e
	switch out.Kind {
	case apperr.Network:
		out.UserMessage = i18n.T(lang, "error.network")
	case apperr.HTTPStatus:
		out.UserMessage = statusMessage(lang, out.StatusCode)
	case apperr.SchemaValidation:
		switch {
		case errors.Is(err, ErrMissingContent):
			out.UserMessage = i18n.T(lang, "error.missing_content")
		case len(out.Fields) > 0:
			out.UserMessage = i18n.T(lang, "error.invalid_response", strings.Join(out.Fields, ", "))
		default:
			out.UserMessage = i18n.T(lang, "error.unparseable")
		}
	default:
		if out.UserMessage == "" {
			out.UserMessage = i18n.T(lang, "error.unexpected")
		}
	}
	return &out
}

func statusMessage(lang models.Language, code int) string {
	switch code {
	case http.StatusBadRequest:
		return i18n.T(lang, "error.bad_request")
	case http.StatusUnauthorized:
		return i18n.T(lang, "error.unauthorized")
	case http.StatusForbidden:
		return i18n.T(lang, "error.forbidden")
	case http.StatusNotFound:
		return i18n.T(lang, "error.not_found")
	case http.StatusTooManyRequests:
		return i18n.T(lang, "error.rate_limited")
	case http.StatusServiceUnavailable:
		return i18n.T(lang, "error.unavailable")
	default:
		return i18n.T(lang, "error.http_generic", code)
	}
}

// AddToHistory records a successful turn at the front of the history and
// returns the new entry. Nothing is persisted here.
func (a *Analyzer) AddToHistory(message string, result models.MoodAnalysis) models.ConversationEntry {
	entry := models.ConversationEntry{
		ID:             newEntryID(),
		Timestamp:      a.now().UTC().Round(0),
		UserMessage:    message,
		Analysis:       result,
		ContextSummary: result.ContextSummary,
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append([]models.ConversationEntry{entry}, a.history...)
	return entry
}

func newEntryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// History returns a copy of the history, newest first.
func (a *Analyzer) History() []models.ConversationEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]models.ConversationEntry{}, a.history...)
}

// SetHistory replaces the history and re-derives the context summary from
// its newest entry.
func (a *Analyzer) SetHistory(entries []models.ConversationEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append([]models.ConversationEntry{}, entries...)
	a.summary = ""
	if len(a.history) > 0 {
		a.summary = a.history[0].ContextSummary
	}
}

// ClearHistory empties the history and the context summary.
func (a *Analyzer) ClearHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = []models.ConversationEntry{}
	a.summary = ""
}

// CurrentContext returns the rolling context summary.
func (a *Analyzer) CurrentContext() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.summary
}

// RestoreContext overwrites the rolling context summary, used to undo an
// analysis whose turn was abandoned.
func (a *Analyzer) RestoreContext(summary string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summary = summary
}

// Package engine runs a message through analysis, emoji lookup, visual
// update and persistence, and exposes the resulting state to the
// presentation surfaces.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/iammorganparry/feel/internal/analyzer"
	"github.com/iammorganparry/feel/internal/apperr"
	"github.com/iammorganparry/feel/internal/emoji"
	"github.com/iammorganparry/feel/internal/i18n"
	"github.com/iammorganparry/feel/internal/metrics"
	"github.com/iammorganparry/feel/internal/models"
	"github.com/iammorganparry/feel/internal/storage"
	"github.com/iammorganparry/feel/internal/visual"
)

// Turn is the outcome of one processed message.
type Turn struct {
	Result         models.MoodAnalysis      `json:"result"`
	FloatingEmojis []models.FloatingEmoji   `json:"floatingEmojis"`
	Entry          models.ConversationEntry `json:"entry"`
	Persisted      bool                     `json:"persisted"`
}

// Settings are the per-session choices.
type Settings struct {
	Language models.Language `json:"language"`
	Model    string          `json:"model"`
}

// UIStats summarizes the visual state.
type UIStats struct {
	ActiveLayer      models.Layer     `json:"activeLayer"`
	CurrentAnimation models.Animation `json:"currentAnimation"`
	UserEmoji        string           `json:"userEmoji"`
	FloatingCount    int              `json:"floatingCount"`
}

// Statistics aggregates every component's counters.
type Statistics struct {
	Storage    storage.Stats    `json:"storage"`
	EmojiCache emoji.CacheStats `json:"emojiCache"`
	UI         UIStats          `json:"ui"`
	Settings   Settings         `json:"settings"`
}

// Engine wires the components together. Only one message is processed at
// a time; overlapping calls fail with apperr.Busy.
type Engine struct {
	analyzer *analyzer.Analyzer
	cache    *emoji.Cache
	visual   *visual.StateMachine
	store    *storage.Store
	log      zerolog.Logger

	defaults   Settings
	validModel func(string) bool

	turn sync.Mutex

	mu          sync.RWMutex
	initialized bool
	settings    Settings
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaults sets the language and model restored by Reset.
func WithDefaults(lang models.Language, model string) Option {
	return func(e *Engine) {
		e.defaults = Settings{Language: lang, Model: model}
	}
}

// WithModelValidator replaces the supported-model check used by SetModel.
func WithModelValidator(valid func(string) bool) Option {
	return func(e *Engine) { e.validModel = valid }
}

func New(a *analyzer.Analyzer, c *emoji.Cache, v *visual.StateMachine, s *storage.Store, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		analyzer:   a,
		cache:      c,
		visual:     v,
		store:      s,
		log:        log.With().Str("component", "engine").Logger(),
		defaults:   Settings{Language: models.DefaultLanguage, Model: models.DefaultModel},
		validModel: models.IsSupportedModel,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.settings = e.defaults
	return e
}

// Initialize loads the persisted history and picks the startup emoji.
// Calling it again is a no-op.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		e.log.Warn().Msg("already initialized")
		return nil
	}

	history := e.store.Load()
	e.analyzer.SetHistory(history)
	e.visual.UpdateUserEmoji(e.cache.DefaultEmoji(ctx), models.AnimationNone)
	e.initialized = true

	e.log.Info().Int("history", len(history)).Msg("initialized")
	return nil
}

// Initialized reports whether Initialize has run.
func (e *Engine) Initialized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.initialized
}

// ProcessMessage analyzes message, fetches emojis for the detected group,
// updates the visual state and appends to the persisted history. Any
// failure leaves history, context and visual state as they were.
func (e *Engine) ProcessMessage(ctx context.Context, message string) (Turn, error) {
	settings := e.Settings()
	lang := settings.Language

	if !e.Initialized() {
		return Turn{}, e.reject(apperr.New(apperr.NotInitialized,
			"engine not initialized, call Initialize first", i18n.T(lang, "error.not_initialized")))
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return Turn{}, e.reject(apperr.New(apperr.InvalidInput, "empty message", i18n.T(lang, "error.empty_message")))
	}
	if n := utf8.RuneCountInString(message); n > models.MaxMessageLength {
		return Turn{}, e.reject(apperr.New(apperr.InvalidInput,
			fmt.Sprintf("message has %d characters, limit is %d", n, models.MaxMessageLength),
			i18n.T(lang, "error.message_too_long", models.MaxMessageLength)))
	}

	if !e.turn.TryLock() {
		return Turn{}, e.reject(apperr.New(apperr.Busy, "a message is already being processed", i18n.T(lang, "error.busy")))
	}
	defer e.turn.Unlock()

	prevContext := e.analyzer.CurrentContext()

	result, err := e.analyzer.Analyze(ctx, message, lang, settings.Model)
	if err != nil {
		metrics.TurnsTotal.WithLabelValues("analysis_failed").Inc()
		return Turn{}, err
	}

	items, err := e.cache.GetEmojisForMood(ctx, result.Group)
	if err != nil {
		// The analysis succeeded but the turn is abandoned: undo its
		// context update so the next prompt does not build on it.
		e.analyzer.RestoreContext(prevContext)
		metrics.TurnsTotal.WithLabelValues("emoji_failed").Inc()
		e.log.Error().Stack().Err(err).Str("group", string(result.Group)).Msg("emoji fetch failed, turn discarded")
		return Turn{}, withUserMessage(err, i18n.T(lang, "error.emoji_unavailable"))
	}
	floating := e.cache.CreateFloatingEmojiData(items, emoji.DefaultFloatingCount)

	e.visual.UpdateUserEmoji(result.Emoji, result.Animation)
	e.visual.UpdateFloatingEmojis(floating)
	e.visual.UpdateBackgroundColors(result.BackgroundColors)

	entry := e.analyzer.AddToHistory(message, result)
	persisted := e.store.Save(e.analyzer.History())
	if !persisted {
		e.log.Warn().Str("entry", entry.ID).Msg("history not persisted")
	}

	metrics.TurnsTotal.WithLabelValues("ok").Inc()
	return Turn{Result: result, FloatingEmojis: floating, Entry: entry, Persisted: persisted}, nil
}

func (e *Engine) reject(err *apperr.Error) error {
	metrics.TurnsTotal.WithLabelValues(err.Kind.String()).Inc()
	return err
}

func withUserMessage(err error, msg string) error {
	ae, ok := apperr.As(err)
	if !ok {
		return apperr.Wrap(apperr.Unexpected, err, "unexpected error", msg)
	}
	if ae.UserMessage != "" {
		return err
	}
	out := *ae
	out.UserMessage = msg
	return &out
}

// ClearHistory empties the in-memory and persisted history.
func (e *Engine) ClearHistory() bool {
	e.turn.Lock()
	defer e.turn.Unlock()
	e.analyzer.ClearHistory()
	return e.store.Clear()
}

// ImportData replaces the history with an exported payload. Invalid
// payloads change nothing.
func (e *Engine) ImportData(data string) bool {
	e.turn.Lock()
	defer e.turn.Unlock()
	ok := e.store.Import(data)
	e.analyzer.SetHistory(e.store.Load())
	return ok
}

// ExportData returns the persisted history as indented JSON.
func (e *Engine) ExportData() (string, error) {
	return e.store.Export()
}

// Cleanup keeps the keepCount newest entries and returns how many were
// dropped.
func (e *Engine) Cleanup(keepCount int) int {
	e.turn.Lock()
	defer e.turn.Unlock()
	removed := e.store.Cleanup(keepCount)
	e.analyzer.SetHistory(e.store.Load())
	return removed
}

// Reset clears history and cache, reseeds the visuals and restores the
// default settings.
func (e *Engine) Reset() {
	e.turn.Lock()
	defer e.turn.Unlock()

	e.analyzer.ClearHistory()
	e.store.Clear()
	e.cache.ClearCache()
	e.visual.Reset()

	e.mu.Lock()
	e.settings = e.defaults
	e.mu.Unlock()
	e.log.Info().Msg("reset")
}

// Dispose releases cached data. Initialize must be called again before
// processing further messages.
func (e *Engine) Dispose() {
	e.cache.ClearCache()
	e.mu.Lock()
	e.initialized = false
	e.mu.Unlock()
	e.log.Info().Msg("disposed")
}

// SetLanguage selects the output language.
func (e *Engine) SetLanguage(lang models.Language) error {
	if !lang.IsValid() {
		return apperr.New(apperr.InvalidInput, fmt.Sprintf("unsupported language %q", lang), "")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Language = lang
	return nil
}

// SetModel selects the LLM model.
func (e *Engine) SetModel(model string) error {
	if !e.validModel(model) {
		return apperr.New(apperr.InvalidInput, fmt.Sprintf("unsupported model %q", model), "")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Model = model
	return nil
}

func (e *Engine) Settings() Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

func (e *Engine) Language() models.Language { return e.Settings().Language }
func (e *Engine) Model() string             { return e.Settings().Model }

func (e *Engine) CurrentContext() string { return e.analyzer.CurrentContext() }

func (e *Engine) History() []models.ConversationEntry { return e.analyzer.History() }

func (e *Engine) State() models.VisualState { return e.visual.State() }

// Statistics aggregates storage, cache, visual and settings state.
func (e *Engine) Statistics() Statistics {
	st := e.visual.State()
	return Statistics{
		Storage:    e.store.Stats(),
		EmojiCache: e.cache.Stats(),
		UI: UIStats{
			ActiveLayer:      st.ActiveLayer,
			CurrentAnimation: st.CurrentAnimation,
			UserEmoji:        st.UserEmoji,
			FloatingCount:    len(st.FloatingEmojis),
		},
		Settings: e.Settings(),
	}
}

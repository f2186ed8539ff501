// Package visual owns the background crossfade and emoji presentation
// state. Two colour layers alternate: each update lands on the hidden
// layer, which then becomes the active one, so the previous gradient
// stays intact underneath while the new one fades in.
package visual

import (
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iammorganparry/feel/internal/models"
)

// Palettes seed the background before any analysis has run.
var Palettes = [][]string{
	{"#667eea", "#764ba2", "#f093fb", "#f5576c"},
	{"#4facfe", "#00f2fe", "#43e97b", "#38f9d7"},
	{"#fa709a", "#fee140", "#a8edea", "#fed6e3"},
	{"#ff9a9e", "#fecfef", "#a8e6cf", "#dcedc8"},
	{"#a8edea", "#fed6e3", "#d299c2", "#fef9d7"},
	{"#ffecd2", "#fcb69f", "#ff9a9e", "#fecfef"},
}

// StateMachine is safe for concurrent use.
type StateMachine struct {
	mu    sync.RWMutex
	state models.VisualState
	pick  func(n int) int
	log   zerolog.Logger
}

// NewStateMachine seeds both layers from a random palette. pick returns a
// value in [0,n); nil means math/rand.
func NewStateMachine(log zerolog.Logger, pick func(n int) int) *StateMachine {
	if pick == nil {
		pick = rand.IntN
	}
	m := &StateMachine{pick: pick, log: log.With().Str("component", "visual").Logger()}
	m.state = m.initialState(models.FallbackEmoji)
	return m
}

func (m *StateMachine) initialState(userEmoji string) models.VisualState {
	p := Palettes[m.pick(len(Palettes))]
	return models.VisualState{
		BackgroundColors:     clone(p[:2]),
		PrevBackgroundColors: clone(p[:3]),
		ActiveLayer:          models.LayerCurrent,
		CurrentAnimation:     models.AnimationNone,
		UserEmoji:            userEmoji,
		FloatingEmojis:       []models.FloatingEmoji{},
	}
}

// UpdateBackgroundColors writes colors into the inactive layer and makes
// it active. The layer that was showing is left untouched.
func (m *StateMachine) UpdateBackgroundColors(colors []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.ActiveLayer == models.LayerCurrent {
		m.state.PrevBackgroundColors = clone(colors)
		m.state.ActiveLayer = models.LayerPrev
	} else {
		m.state.BackgroundColors = clone(colors)
		m.state.ActiveLayer = models.LayerCurrent
	}
	m.log.Debug().Str("active", string(m.state.ActiveLayer)).Strs("colors", colors).Msg("background updated")
}

// UpdateUserEmoji sets the mood emoji and its animation. An empty
// animation means none.
func (m *StateMachine) UpdateUserEmoji(emoji string, animation models.Animation) {
	if animation == "" {
		animation = models.AnimationNone
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.UserEmoji = emoji
	m.state.CurrentAnimation = animation
}

// UpdateFloatingEmojis replaces the floating decorations.
func (m *StateMachine) UpdateFloatingEmojis(items []models.FloatingEmoji) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.FloatingEmojis = append([]models.FloatingEmoji{}, items...)
}

// Reset reseeds from a random palette and clears emoji state.
func (m *StateMachine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = m.initialState(models.FallbackEmoji)
	m.log.Info().Msg("visual state reset")
}

// State returns a deep copy of the current state.
func (m *StateMachine) State() models.VisualState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.state
	s.BackgroundColors = clone(s.BackgroundColors)
	s.PrevBackgroundColors = clone(s.PrevBackgroundColors)
	s.FloatingEmojis = append([]models.FloatingEmoji{}, s.FloatingEmojis...)
	return s
}

func clone(s []string) []string {
	return append([]string{}, s...)
}

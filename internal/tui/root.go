// Package tui is the terminal front end. It renders engine state and
// forwards input; it holds no mood logic of its own.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/iammorganparry/feel/internal/apperr"
	"github.com/iammorganparry/feel/internal/engine"
	"github.com/iammorganparry/feel/internal/i18n"
	"github.com/iammorganparry/feel/internal/models"
)

// Engine is the part of engine.Engine the UI consumes.
type Engine interface {
	ProcessMessage(ctx context.Context, message string) (engine.Turn, error)
	State() models.VisualState
	History() []models.ConversationEntry
	Language() models.Language
	SetLanguage(lang models.Language) error
}

// Messages
type turnDoneMsg struct {
	turn engine.Turn
	err  error
}

type spinnerTickMsg struct{}

// Spinner animation frames
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// animationTags stand in for the motion a graphical front end would play.
var animationTags = map[models.Animation]string{
	models.AnimationRotation: "↻",
	models.AnimationZoom:     "⤢",
	models.AnimationShake:    "≋",
	models.AnimationBounce:   "⤒",
	models.AnimationPulse:    "◉",
	models.AnimationWiggle:   "∿",
}

// Model is the root Bubble Tea model
type Model struct {
	ctx context.Context
	eng Engine
	log zerolog.Logger

	// Terminal dimensions
	width  int
	height int

	input    textinput.Model
	viewport viewport.Model
	keys     KeyMap

	showHistory  bool
	busy         bool
	spinnerIndex int

	lastTurn *engine.Turn
	errMsg   string
}

// NewRootModel creates a new root model over an initialized engine.
func NewRootModel(ctx context.Context, eng Engine, log zerolog.Logger) Model {
	ti := textinput.New()
	ti.Prompt = "❯ "
	ti.PromptStyle = InputPromptStyle
	ti.CharLimit = models.MaxMessageLength
	ti.Width = 80 // Default width, will be updated on WindowSizeMsg
	ti.Placeholder = i18n.T(eng.Language(), "ui.placeholder")
	ti.Focus()

	return Model{
		ctx:      ctx,
		eng:      eng,
		log:      log.With().Str("component", "tui").Logger(),
		input:    ti,
		viewport: viewport.New(80, 10),
		keys:     DefaultKeyMap(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, spinnerTickCmd())
}

// spinnerTickCmd returns a fast tick command for spinner animation
func spinnerTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

// processCmd runs one turn off the UI goroutine.
func (m Model) processCmd(message string) tea.Cmd {
	ctx, eng := m.ctx, m.eng
	return func() tea.Msg {
		turn, err := eng.ProcessMessage(ctx, message)
		return turnDoneMsg{turn: turn, err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		inputWidth := m.width - 8 // 4 for border/padding, 4 for prompt "❯ "
		if inputWidth < 10 {
			inputWidth = 10
		}
		m.input.Width = inputWidth
		m.viewport.Width = max(m.width-4, 10)
		m.viewport.Height = max(m.height/3, 3)
		m.viewport.SetContent(m.renderHistory())
		return m, nil

	case spinnerTickMsg:
		if m.busy {
			m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
		}
		return m, spinnerTickCmd()

	case turnDoneMsg:
		m.busy = false
		if msg.err != nil {
			lang := m.eng.Language()
			m.errMsg = apperr.UserMessage(msg.err, i18n.T(lang, "error.fallback"))
			m.log.Error().Err(msg.err).Msg("turn failed")
			return m, nil
		}
		turn := msg.turn
		m.lastTurn = &turn
		m.errMsg = ""
		m.input.Reset()
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Send):
		text := strings.TrimSpace(m.input.Value())
		if m.busy || text == "" {
			return m, nil
		}
		m.busy = true
		m.errMsg = ""
		return m, m.processCmd(text)

	case key.Matches(msg, m.keys.History):
		m.showHistory = !m.showHistory
		m.viewport.SetContent(m.renderHistory())
		return m, nil

	case key.Matches(msg, m.keys.Language):
		next := models.LanguageEN
		if m.eng.Language() == models.LanguageEN {
			next = models.LanguageFR
		}
		if err := m.eng.SetLanguage(next); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.input.Placeholder = i18n.T(next, "ui.placeholder")
		m.viewport.SetContent(m.renderHistory())
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.errMsg = ""
		m.input.Reset()
		return m, nil

	case m.showHistory && (key.Matches(msg, m.keys.PageUp) || key.Matches(msg, m.keys.PageDown)):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.busy {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the UI
func (m Model) View() string {
	lang := m.eng.Language()
	state := m.eng.State()

	sections := []string{
		HeaderStyle.Render("feel") + DimStyle.Render(" · "+i18n.T(lang, "language_name")),
		m.renderMood(state, lang),
		m.renderLayers(state),
		m.renderFloating(state),
	}
	if m.showHistory {
		sections = append(sections, HistoryStyle.Render(
			HistoryTitleStyle.Render(i18n.T(lang, "ui.history"))+"\n"+m.viewport.View()))
	}
	sections = append(sections, m.renderInput(), m.renderStatus(lang))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderMood(state models.VisualState, lang models.Language) string {
	var b strings.Builder
	b.WriteString(state.UserEmoji)
	if tag, ok := animationTags[state.CurrentAnimation]; ok {
		b.WriteString(" " + AnimationTagStyle.Render(tag+" "+string(state.CurrentAnimation)))
	}
	if m.lastTurn != nil {
		r := m.lastTurn.Result
		fmt.Fprintf(&b, "\n%s  %s %d/%d",
			MoodTitleStyle.Render(r.Mood), i18n.T(lang, "ui.intensity"), r.Intensity, models.MaxIntensity)
		if r.SupportMessage != "" {
			b.WriteString("\n\n" + SupportStyle.Render(r.SupportMessage))
		}
	}
	return MoodStyle.Render(b.String())
}

func (m Model) renderLayers(state models.VisualState) string {
	row := func(layer models.Layer, colors []string) string {
		label := LayerLabelStyle.Render("  " + string(layer))
		if state.ActiveLayer == layer {
			label = ActiveLayerStyle.Render("● " + string(layer))
		}
		blocks := make([]string, len(colors))
		for i, c := range colors {
			blocks[i] = swatch(c)
		}
		return label + strings.Join(blocks, " ")
	}
	return row(models.LayerCurrent, state.BackgroundColors) + "\n" +
		row(models.LayerPrev, state.PrevBackgroundColors)
}

func (m Model) renderFloating(state models.VisualState) string {
	if len(state.FloatingEmojis) == 0 {
		return ""
	}
	glyphs := make([]string, len(state.FloatingEmojis))
	for i, f := range state.FloatingEmojis {
		glyphs[i] = f.Emoji
	}
	return " " + strings.Join(glyphs, "  ")
}

func (m Model) renderHistory() string {
	lang := m.eng.Language()
	history := m.eng.History()
	if len(history) == 0 {
		return DimStyle.Render(i18n.T(lang, "ui.empty_history"))
	}
	var b strings.Builder
	for i, e := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s %s\n  %s",
			e.Analysis.Emoji,
			UserTextStyle.Render(e.UserMessage),
			DimStyle.Render(humanize.Time(e.Timestamp)),
			DimStyle.Render(e.Analysis.Mood+" · "+e.ContextSummary))
	}
	return b.String()
}

func (m Model) renderInput() string {
	n := utf8.RuneCountInString(m.input.Value())
	counter := CounterStyle
	if n >= models.MaxMessageLength {
		counter = CounterFullStyle
	}
	return InputStyle.Render(m.input.View()) +
		counter.Render(fmt.Sprintf(" %d/%d", n, models.MaxMessageLength))
}

func (m Model) renderStatus(lang models.Language) string {
	switch {
	case m.busy:
		return StatusBarStyle.Render(StatusRunningStyle.Render(spinnerFrames[m.spinnerIndex] + " " + i18n.T(lang, "ui.thinking")))
	case m.errMsg != "":
		return StatusBarStyle.Render(ErrorStyle.Render(m.errMsg))
	default:
		return StatusBarStyle.Render(i18n.T(lang, "ui.help"))
	}
}

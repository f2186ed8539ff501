package models

import "time"

// MoodAnalysis is the validated result of one analysis call.
type MoodAnalysis struct {
	Mood             string    `json:"mood" jsonschema:"description=One word describing the mood"`
	Intensity        int       `json:"intensity" jsonschema:"description=Integer from 1 to 10"`
	Emoji            string    `json:"emoji" jsonschema:"description=A single emoji representing the situation"`
	Group            MoodGroup `json:"group"`
	BackgroundColors []string  `json:"backgroundColors" jsonschema:"description=Exactly four #RRGGBB colours ordered from main tone to accents"`
	Animation        Animation `json:"animation"`
	SupportMessage   string    `json:"supportMessage" jsonschema:"description=A message digging into what the person feels and why"`
	ContextSummary   string    `json:"contextSummary" jsonschema:"description=Short rewording combining the previous context with the new information"`
}

// ConversationEntry is one successful turn in the history.
// Entries are immutable once created.
type ConversationEntry struct {
	ID             string       `json:"id"`
	Timestamp      time.Time    `json:"timestamp"`
	UserMessage    string       `json:"userMessage"`
	Analysis       MoodAnalysis `json:"geminiResponse"`
	ContextSummary string       `json:"contextSummary"`
}

// EmojiItem is a catalog record.
type EmojiItem struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Group    string   `json:"group"`
	HTMLCode []string `json:"htmlCode"`
	Unicode  []string `json:"unicode"`
	Emoji    string   `json:"emoji,omitempty"`
}

// FloatingEmoji describes one decorative emoji drifting across the view.
type FloatingEmoji struct {
	ID       string  `json:"id"`
	Emoji    string  `json:"emoji"`
	Left     float64 `json:"left"`
	Size     float64 `json:"size"`
	Duration float64 `json:"duration"`
	Delay    float64 `json:"delay"`
}

// VisualState is a snapshot of the presentation state.
type VisualState struct {
	BackgroundColors     []string        `json:"backgroundColors"`
	PrevBackgroundColors []string        `json:"prevBackgroundColors"`
	ActiveLayer          Layer           `json:"activeLayer"`
	CurrentAnimation     Animation       `json:"currentAnimation"`
	UserEmoji            string          `json:"userEmoji"`
	FloatingEmojis       []FloatingEmoji `json:"floatingEmojis"`
}

// ActiveColors returns the colours of the layer currently shown.
func (s VisualState) ActiveColors() []string {
	if s.ActiveLayer == LayerPrev {
		return s.PrevBackgroundColors
	}
	return s.BackgroundColors
}

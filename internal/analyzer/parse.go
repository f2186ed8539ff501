package analyzer

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"

	"github.com/iammorganparry/feel/internal/apperr"
	"github.com/iammorganparry/feel/internal/models"
)

var fencePattern = regexp.MustCompile("```json\\n?|```\\n?")

// rawAnalysis mirrors models.MoodAnalysis with a numeric intensity so
// fractional values are reported as violations rather than parse errors.
type rawAnalysis struct {
	Mood             string   `json:"mood"`
	Intensity        *float64 `json:"intensity"`
	Emoji            string   `json:"emoji"`
	Group            string   `json:"group"`
	BackgroundColors []string `json:"backgroundColors"`
	Animation        string   `json:"animation"`
	SupportMessage   string   `json:"supportMessage"`
	ContextSummary   string   `json:"contextSummary"`
}

// decodeModelJSON strips code fences and unmarshals the model output,
// falling back to the first top-level JSON object in the text.
func decodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(fencePattern.ReplaceAllString(outputText, ""))
	if s == "" {
		return io.ErrUnexpectedEOF
	}

	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}

	sub := s[start : end+1]
	if err := json.Unmarshal([]byte(sub), v); err != nil {
		return fmt.Errorf("failed to unmarshal extracted JSON (len=%d): %w", len(sub), err)
	}
	return nil
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type rule struct {
	field string
	valid func(r *rawAnalysis) bool
}

var rules = []rule{
	{"backgroundColors", func(r *rawAnalysis) bool {
		if len(r.BackgroundColors) != models.RequiredColorCount {
			return false
		}
		for _, c := range r.BackgroundColors {
			if !hexColor.MatchString(c) {
				return false
			}
		}
		return true
	}},
	{"mood", func(r *rawAnalysis) bool { return strings.TrimSpace(r.Mood) != "" }},
	{"emoji", func(r *rawAnalysis) bool { return strings.TrimSpace(r.Emoji) != "" }},
	{"group", func(r *rawAnalysis) bool { return models.MoodGroup(r.Group).IsValid() }},
	{"intensity", func(r *rawAnalysis) bool {
		if r.Intensity == nil {
			return false
		}
		v := *r.Intensity
		return v == math.Trunc(v) && v >= models.MinIntensity && v <= models.MaxIntensity
	}},
	{"animation", func(r *rawAnalysis) bool {
		return r.Animation == "" || models.Animation(r.Animation).IsValid()
	}},
}

// violations lists the fields of r that break the result invariants.
func violations(r *rawAnalysis) []string {
	var out []string
	for _, rl := range rules {
		if !rl.valid(r) {
			out = append(out, rl.field)
		}
	}
	return out
}

// parseAnalysis decodes and validates model output. Errors carry no
// localized message; the analyzer attaches one.
func parseAnalysis(text string) (models.MoodAnalysis, error) {
	var raw rawAnalysis
	if err := decodeModelJSON(text, &raw); err != nil {
		return models.MoodAnalysis{}, apperr.Wrap(apperr.SchemaValidation, err, "unable to parse model response", "")
	}

	if fields := violations(&raw); len(fields) > 0 {
		return models.MoodAnalysis{}, apperr.NewValidationError(fields, "invalid mood analysis", "")
	}

	animation := models.Animation(raw.Animation)
	if animation == "" {
		animation = models.AnimationNone
	}
	return models.MoodAnalysis{
		Mood:             raw.Mood,
		Intensity:        int(*raw.Intensity),
		Emoji:            raw.Emoji,
		Group:            models.MoodGroup(raw.Group),
		BackgroundColors: raw.BackgroundColors,
		Animation:        animation,
		SupportMessage:   raw.SupportMessage,
		ContextSummary:   raw.ContextSummary,
	}, nil
}

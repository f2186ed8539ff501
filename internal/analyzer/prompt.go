package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iammorganparry/feel/internal/i18n"
	"github.com/iammorganparry/feel/internal/models"
)

var schemaJSON = func() string {
	b, err := json.MarshalIndent(GenerateSchema[models.MoodAnalysis](), "", "  ")
	if err != nil {
		panic(err)
	}
	return string(b)
}()

const promptHeader = `Analyze the sentence below and return ONLY a valid JSON object matching this JSON schema exactly (no markdown, no code fences, no extra text):
%s

Field guidance:
- "mood": one word describing the mood (joyful, sad, anxious, calm, energetic, melancholic, stressed, peaceful, content, angry, in love, serene, ...).
- "intensity": an integer between %d and %d.
- "emoji": one emoji that represents the context summary as well as possible given the intensity.
- "group": the emoji group that best expresses "emoji", one of [%s].
- "backgroundColors": exactly %d colours in the form "#RRGGBB".
- "animation": one of rotation, zoom, shake, bounce, pulse, wiggle, whichever best fits the context.
- "supportMessage": a message that digs into what the person is telling you and tries to understand what they feel and why. If they ask you to do something, do it.
- "contextSummary": a short rewording that combines the previous context with the new information to describe the user's current situation.`

const promptInstructions = `Important instructions:
- backgroundColors: return exactly %d hexadecimal colours (#RRGGBB) matching the intensity and mood (very happy -> bright greens or luminous yellows, calm -> soft blues and soothing greens, intense anger -> deep contrasted reds, inspiring travel -> ocean blues and turquoises, love -> warm pinks and reds). The colours must be harmonious, ordered from the main tone to the accents and ready for a gradient. They must represent the subject of the message. Never return white.
1. Use the cumulative context provided to understand what already happened.
2. Interpret the new sentence in light of that context.
3. Update "contextSummary" in %s so it describes the complete situation after adding the new information. Keep it short, clear and natural.`

func quotedGroups() string {
	quoted := make([]string, len(models.MoodGroups))
	for i, g := range models.MoodGroups {
		quoted[i] = `"` + string(g) + `"`
	}
	return strings.Join(quoted, ",")
}

// buildPrompt assembles the single-turn prompt for message given the
// current context summary.
func buildPrompt(message string, lang models.Language, summary string) string {
	langName := i18n.T(lang, "language_name")

	header := fmt.Sprintf(promptHeader, schemaJSON, models.MinIntensity, models.MaxIntensity,
		quotedGroups(), models.RequiredColorCount)
	instructions := fmt.Sprintf(promptInstructions, models.RequiredColorCount, langName)

	return strings.Join([]string{
		header,
		instructions,
		formatContext(lang, summary),
		fmt.Sprintf("Sentence to analyze: %q", message),
		i18n.T(lang, "prompt.answer_language", langName),
	}, "\n\n")
}

func formatContext(lang models.Language, summary string) string {
	if summary == "" {
		return i18n.T(lang, "prompt.no_context")
	}
	return i18n.T(lang, "prompt.context_header", i18n.T(lang, "language_name")) + "\n" + summary
}

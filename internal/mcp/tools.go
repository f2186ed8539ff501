package mcp

// ToolDefinitions returns the MCP tool definitions for the mood server.
func ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name: "mood_analyze",
			Description: "Analyze the emotional tone of a sentence in the context of the conversation so far. " +
				"Returns mood, intensity, emoji, palette, animation and a short supportive reply.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"message": {Type: "string", Description: "Sentence to analyze (500 characters max)"},
					"language": {Type: "string", Description: "Language of the generated text",
						Enum: []string{"fr", "en"}},
				},
				Required: []string{"message"},
			},
		},
		{
			Name:        "mood_history",
			Description: "List past analyzed messages, newest first.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"limit": {Type: "number", Description: "Maximum entries to return (default 10)",
						Default: 10},
				},
			},
		},
		{
			Name:        "mood_stats",
			Description: "Report storage usage, emoji cache contents, current visual state and settings.",
			InputSchema: InputSchema{Type: "object"},
		},
		{
			Name:        "mood_clear",
			Description: "Delete the conversation history and reset the rolling context.",
			InputSchema: InputSchema{Type: "object"},
		},
	}
}

package analyzer

import (
	"context"
	"fmt"

	"github.com/iammorganparry/feel/internal/config"
)

// NewGenerator builds the generator selected by cfg.Provider.
func NewGenerator(ctx context.Context, cfg *config.Config) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiREST(cfg.LLMBaseURL, cfg.GeminiAPIKey, cfg.HTTPTimeout), nil
	case config.ProviderGeminiSDK:
		return NewGeminiSDK(ctx, cfg.GeminiAPIKey, "")
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

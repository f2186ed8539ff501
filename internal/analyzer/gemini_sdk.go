package analyzer

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/iammorganparry/feel/internal/apperr"
)

// GeminiSDK generates through the official Gemini client and asks for a
// JSON response.
type GeminiSDK struct {
	client *genai.Client
}

func NewGeminiSDK(ctx context.Context, apiKey, baseURL string) (*GeminiSDK, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiSDK{client: client}, nil
}

func (g *GeminiSDK) Generate(ctx context.Context, model, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	res, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", classifySDKError(err)
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil ||
		len(res.Candidates[0].Content.Parts) == 0 || res.Candidates[0].Content.Parts[0].Text == "" {
		return "", apperr.Wrap(apperr.SchemaValidation, ErrMissingContent, "gemini response missing content text", "")
	}
	return res.Candidates[0].Content.Parts[0].Text, nil
}

func classifySDKError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code > 0 {
		return statusError(apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr.Code > 0 {
		return statusError(apiErrPtr.Code, apiErrPtr.Message)
	}
	return apperr.NewNetworkError("gemini", err, "")
}

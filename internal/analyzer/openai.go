package analyzer

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/iammorganparry/feel/internal/apperr"
	"github.com/iammorganparry/feel/internal/models"
)

// OpenAI generates through the Responses API with a strict JSON schema
// derived from models.MoodAnalysis.
type OpenAI struct {
	client openai.Client
	schema map[string]any
}

func NewOpenAI(apiKey, baseURL string) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		schema: GenerateSchema[models.MoodAnalysis](),
	}
}

func (o *OpenAI) Generate(ctx context.Context, model, prompt string) (string, error) {
	params := responses.ResponseNewParams{
		Model: model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "MoodAnalysis",
					Schema:      o.schema,
					Strict:      openai.Bool(true),
					Description: openai.String("Mood analysis JSON"),
					Type:        "json_schema",
				},
			},
		},
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", statusError(apiErr.StatusCode, apiErr.Message)
		}
		return "", apperr.NewNetworkError("openai", err, "")
	}

	text := resp.OutputText()
	if text == "" {
		return "", apperr.Wrap(apperr.SchemaValidation, ErrMissingContent, "openai response missing output text", "")
	}
	return text, nil
}

package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/iammorganparry/feel/internal/apperr"
)

// Generator sends one single-turn prompt to an LLM and returns the raw
// text of the first candidate.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// ErrMissingContent means the upstream answered 2xx without any text.
var ErrMissingContent = errors.New("response missing content text")

// GeminiREST calls the generateContent endpoint directly.
type GeminiREST struct {
	client *resty.Client
	apiKey string
}

func NewGeminiREST(baseURL, apiKey string, timeout time.Duration) *GeminiREST {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &GeminiREST{client: c, apiKey: apiKey}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type upstreamError struct {
	Error struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (g *GeminiREST) Generate(ctx context.Context, model, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetBody(&reqBody).
		Post("/" + model + ":generateContent")
	if err != nil {
		return "", apperr.NewNetworkError("gemini", err, "")
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return "", statusError(resp.StatusCode(), upstreamMessage(resp.Body()))
	}

	var gr generateResponse
	if err := json.Unmarshal(resp.Body(), &gr); err != nil {
		return "", apperr.Wrap(apperr.SchemaValidation, err, "decode gemini response", "")
	}
	if len(gr.Candidates) == 0 || gr.Candidates[0].Content == nil ||
		len(gr.Candidates[0].Content.Parts) == 0 || gr.Candidates[0].Content.Parts[0].Text == "" {
		return "", apperr.Wrap(apperr.SchemaValidation, ErrMissingContent, "gemini response missing content text", "")
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

func upstreamMessage(body []byte) string {
	var ue upstreamError
	if err := json.Unmarshal(body, &ue); err != nil || ue.Error.Message == "" {
		return "Unknown error"
	}
	return ue.Error.Message
}

// statusError builds the technical side of an HTTP failure. The
// analyzer attaches the localized message.
func statusError(code int, upstream string) error {
	var label string
	switch code {
	case http.StatusBadRequest:
		label = "Bad Request"
	case http.StatusUnauthorized:
		label = "Unauthorized"
	case http.StatusForbidden:
		label = "Forbidden"
	case http.StatusNotFound:
		label = "Not Found"
	case http.StatusTooManyRequests:
		label = "Rate Limit Exceeded"
	case http.StatusServiceUnavailable:
		label = "Server Error"
	default:
		label = fmt.Sprintf("HTTP Error %d", code)
	}
	return apperr.NewHTTPError(code, label+": "+upstream, "")
}

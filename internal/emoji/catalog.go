package emoji

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/iammorganparry/feel/internal/apperr"
	"github.com/iammorganparry/feel/internal/models"
)

// Catalog looks up emojis by group.
type Catalog interface {
	ByGroup(ctx context.Context, group models.MoodGroup) ([]models.EmojiItem, error)
	Random(ctx context.Context) (models.EmojiItem, error)
}

// HubClient calls the emojihub REST API.
type HubClient struct {
	client *resty.Client
}

func NewHubClient(baseURL string, timeout time.Duration) *HubClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &HubClient{client: c}
}

// ByGroup fetches every emoji in group.
func (h *HubClient) ByGroup(ctx context.Context, group models.MoodGroup) ([]models.EmojiItem, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		Get("/all/group/" + url.PathEscape(string(group)))
	if err != nil {
		return nil, apperr.NewNetworkError("emoji catalog", err, "")
	}
	if !resp.IsSuccess() {
		return nil, apperr.NewHTTPError(resp.StatusCode(),
			fmt.Sprintf("emoji catalog request failed (%d)", resp.StatusCode()), "")
	}

	if resp.StatusCode() == http.StatusNoContent || len(resp.Body()) == 0 {
		return []models.EmojiItem{}, nil
	}
	var items []models.EmojiItem
	if err := json.Unmarshal(resp.Body(), &items); err != nil {
		return nil, apperr.Wrap(apperr.SchemaValidation, err, "decode emoji catalog response", "")
	}
	return items, nil
}

// Random fetches one random emoji.
func (h *HubClient) Random(ctx context.Context) (models.EmojiItem, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		Get("/random")
	if err != nil {
		return models.EmojiItem{}, apperr.NewNetworkError("emoji catalog", err, "")
	}
	if !resp.IsSuccess() {
		return models.EmojiItem{}, apperr.NewHTTPError(resp.StatusCode(),
			fmt.Sprintf("emoji catalog request failed (%d)", resp.StatusCode()), "")
	}

	var item models.EmojiItem
	if err := json.Unmarshal(resp.Body(), &item); err != nil {
		return models.EmojiItem{}, apperr.Wrap(apperr.SchemaValidation, err, "decode emoji catalog response", "")
	}
	return item, nil
}

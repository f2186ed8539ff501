// Package emoji fetches emoji sets from the catalog, caches them per
// group and lays them out as floating decorations.
package emoji

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iammorganparry/feel/internal/metrics"
	"github.com/iammorganparry/feel/internal/models"
)

// TTL is how long a fetched group stays valid.
const TTL = time.Hour

// DefaultFloatingCount caps the floating decorations per turn.
const DefaultFloatingCount = 7

type entry struct {
	items     []models.EmojiItem
	fetchedAt time.Time
}

// CacheStats describes the cached groups.
type CacheStats struct {
	Size   int      `json:"size"`
	Groups []string `json:"groups"`
}

// Cache memoizes catalog lookups per group for TTL.
type Cache struct {
	catalog Catalog
	log     zerolog.Logger
	now     func() time.Time
	rand    func() float64

	mu      sync.RWMutex
	entries map[models.MoodGroup]entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithRand replaces the uniform [0,1) source used for layout and picks.
func WithRand(r func() float64) Option {
	return func(c *Cache) { c.rand = r }
}

func NewCache(catalog Catalog, log zerolog.Logger, opts ...Option) *Cache {
	c := &Cache{
		catalog: catalog,
		log:     log.With().Str("component", "emoji").Logger(),
		now:     time.Now,
		rand:    rand.Float64,
		entries: make(map[models.MoodGroup]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) lookup(group models.MoodGroup) ([]models.EmojiItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[group]
	if !ok || c.now().Sub(e.fetchedAt) >= TTL {
		return nil, false
	}
	return cloneItems(e.items), true
}

// cloneItems copies items so callers cannot reach cached storage.
func cloneItems(items []models.EmojiItem) []models.EmojiItem {
	out := make([]models.EmojiItem, len(items))
	for i, item := range items {
		item.HTMLCode = append([]string(nil), item.HTMLCode...)
		item.Unicode = append([]string(nil), item.Unicode...)
		out[i] = item
	}
	return out
}

// GetEmojisForMood returns the catalog items for group, fetching them when
// the cached copy is missing or older than TTL.
func (c *Cache) GetEmojisForMood(ctx context.Context, group models.MoodGroup) ([]models.EmojiItem, error) {
	if items, ok := c.lookup(group); ok {
		c.log.Debug().Str("group", string(group)).Msg("cache hit")
		metrics.EmojiCacheTotal.WithLabelValues("hit").Inc()
		return items, nil
	}

	c.log.Debug().Str("group", string(group)).Msg("fetching emojis")
	items, err := c.catalog.ByGroup(ctx, group)
	if err != nil {
		metrics.EmojiCacheTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch emojis for %q: %w", group, err)
	}
	metrics.EmojiCacheTotal.WithLabelValues("miss").Inc()

	c.mu.Lock()
	c.entries[group] = entry{items: cloneItems(items), fetchedAt: c.now()}
	c.mu.Unlock()

	return items, nil
}

// RandomEmoji returns one random glyph from the catalog.
func (c *Cache) RandomEmoji(ctx context.Context) (string, error) {
	item, err := c.catalog.Random(ctx)
	if err != nil {
		return "", fmt.Errorf("random emoji: %w", err)
	}
	return ConvertHTMLToEmoji(item.HTMLCode...), nil
}

// DefaultEmoji picks a random glyph from the default group. It never
// fails: any error or an empty group yields models.FallbackEmoji.
func (c *Cache) DefaultEmoji(ctx context.Context) string {
	items, err := c.GetEmojisForMood(ctx, models.DefaultMoodGroup)
	if err != nil {
		c.log.Warn().Err(err).Msg("default emoji unavailable")
		return models.FallbackEmoji
	}
	if len(items) == 0 {
		return models.FallbackEmoji
	}
	idx := int(c.rand() * float64(len(items)))
	if idx >= len(items) {
		idx = len(items) - 1
	}
	return ConvertHTMLToEmoji(items[idx].HTMLCode...)
}

// CreateFloatingEmojiData lays out the first maxCount items as floating
// decorations. Horizontal position is 10-90%, size 1.5-3.0, duration
// 4-12s and delay 0-4s. It returns an empty slice rather than failing.
func (c *Cache) CreateFloatingEmojiData(items []models.EmojiItem, maxCount int) (out []models.FloatingEmoji) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("create floating emoji data")
			out = []models.FloatingEmoji{}
		}
	}()

	if maxCount < 0 {
		maxCount = 0
	}
	if len(items) > maxCount {
		items = items[:maxCount]
	}

	ts := c.now().UnixMilli()
	out = make([]models.FloatingEmoji, 0, len(items))
	for idx, item := range items {
		glyph := ConvertHTMLToEmoji(item.HTMLCode...)
		out = append(out, models.FloatingEmoji{
			ID:       fmt.Sprintf("%s-%d-%d", glyph, idx, ts),
			Emoji:    glyph,
			Left:     c.rand()*80 + 10,
			Size:     c.rand()*1.5 + 1.5,
			Duration: c.rand()*8 + 4,
			Delay:    c.rand() * 4,
		})
	}
	return out
}

// ClearCache drops every cached group.
func (c *Cache) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[models.MoodGroup]entry)
	c.log.Info().Msg("cache cleared")
}

// Stats reports the cached groups, sorted.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	groups := make([]string, 0, len(c.entries))
	for g := range c.entries {
		groups = append(groups, string(g))
	}
	sort.Strings(groups)
	return CacheStats{Size: len(c.entries), Groups: groups}
}

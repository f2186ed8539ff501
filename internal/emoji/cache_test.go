package emoji

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iammorganparry/feel/internal/apperr"
	"github.com/iammorganparry/feel/internal/models"
)

type fakeHub struct {
	mu     sync.Mutex
	hits   map[string]int
	status int
	items  []models.EmojiItem
}

func newFakeHub(t *testing.T, items []models.EmojiItem) (*fakeHub, *httptest.Server) {
	t.Helper()
	h := &fakeHub{hits: make(map[string]int), status: http.StatusOK, items: items}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		h.hits[r.URL.Path]++
		status := h.status
		h.mu.Unlock()

		if status < 200 || status > 299 || status == http.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if r.URL.Path == "/random" {
			json.NewEncoder(w).Encode(h.items[0])
			return
		}
		json.NewEncoder(w).Encode(h.items)
	}))
	t.Cleanup(srv.Close)
	return h, srv
}

func (h *fakeHub) count(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hits[path]
}

func (h *fakeHub) setStatus(s int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = s
}

func sampleItems(n int) []models.EmojiItem {
	items := make([]models.EmojiItem, n)
	for i := range items {
		items[i] = models.EmojiItem{
			Name:     "grinning face",
			Category: "smileys and people",
			Group:    "face positive",
			HTMLCode: []string{"&#128512;"},
			Unicode:  []string{"U+1F600"},
		}
	}
	return items
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestGetEmojisForMoodCachesWithinTTL(t *testing.T) {
	hub, srv := newFakeHub(t, sampleItems(3))
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCache(NewHubClient(srv.URL, 5*time.Second), zerolog.Nop(), WithClock(clock.Now))
	ctx := context.Background()

	items, err := c.GetEmojisForMood(ctx, models.GroupFacePositive)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	clock.Advance(TTL - time.Millisecond)
	_, err = c.GetEmojisForMood(ctx, models.GroupFacePositive)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.count("/all/group/face positive"))

	clock.Advance(time.Millisecond)
	_, err = c.GetEmojisForMood(ctx, models.GroupFacePositive)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.count("/all/group/face positive"))
}

func TestGetEmojisForMoodPerGroup(t *testing.T) {
	hub, srv := newFakeHub(t, sampleItems(1))
	c := NewCache(NewHubClient(srv.URL, 5*time.Second), zerolog.Nop())
	ctx := context.Background()

	_, err := c.GetEmojisForMood(ctx, models.GroupFacePositive)
	require.NoError(t, err)
	_, err = c.GetEmojisForMood(ctx, models.GroupAnimalBird)
	require.NoError(t, err)

	assert.Equal(t, 1, hub.count("/all/group/face positive"))
	assert.Equal(t, 1, hub.count("/all/group/animal bird"))

	st := c.Stats()
	assert.Equal(t, 2, st.Size)
	assert.Equal(t, []string{"animal bird", "face positive"}, st.Groups)

	c.ClearCache()
	assert.Equal(t, 0, c.Stats().Size)
	_, err = c.GetEmojisForMood(ctx, models.GroupFacePositive)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.count("/all/group/face positive"))
}

func TestGetEmojisForMoodHTTPError(t *testing.T) {
	hub, srv := newFakeHub(t, sampleItems(1))
	hub.setStatus(http.StatusServiceUnavailable)
	c := NewCache(NewHubClient(srv.URL, 5*time.Second), zerolog.Nop())

	_, err := c.GetEmojisForMood(context.Background(), models.GroupFacePositive)
	require.Error(t, err)
	assert.Equal(t, apperr.HTTPStatus, apperr.KindOf(err))
	assert.Equal(t, http.StatusServiceUnavailable, apperr.StatusCode(err))
	assert.Equal(t, 0, c.Stats().Size)
}

func TestGetEmojisForMoodAcceptsAny2xx(t *testing.T) {
	hub, srv := newFakeHub(t, sampleItems(2))
	hub.setStatus(http.StatusCreated)
	c := NewCache(NewHubClient(srv.URL, 5*time.Second), zerolog.Nop())
	ctx := context.Background()

	items, err := c.GetEmojisForMood(ctx, models.GroupFacePositive)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	emoji, err := c.RandomEmoji(ctx)
	require.NoError(t, err)
	assert.Equal(t, "😀", emoji)

	hub.setStatus(http.StatusNoContent)
	items, err = c.GetEmojisForMood(ctx, models.GroupFaceNegative)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGetEmojisForMoodReturnsCopies(t *testing.T) {
	hub, srv := newFakeHub(t, sampleItems(2))
	c := NewCache(NewHubClient(srv.URL, 5*time.Second), zerolog.Nop())
	ctx := context.Background()

	first, err := c.GetEmojisForMood(ctx, models.GroupFacePositive)
	require.NoError(t, err)
	want := first[0].HTMLCode[0]
	first[0].HTMLCode[0] = "X"
	first[1].Name = "changed"

	hit, err := c.GetEmojisForMood(ctx, models.GroupFacePositive)
	require.NoError(t, err)
	assert.Equal(t, want, hit[0].HTMLCode[0])
	assert.Equal(t, "grinning face", hit[1].Name)

	hit[0].HTMLCode[0] = "Y"
	again, err := c.GetEmojisForMood(ctx, models.GroupFacePositive)
	require.NoError(t, err)
	assert.Equal(t, want, again[0].HTMLCode[0])
	assert.Equal(t, 1, hub.count("/all/group/face positive"))
}

func TestGetEmojisForMoodNetworkError(t *testing.T) {
	_, srv := newFakeHub(t, sampleItems(1))
	srv.Close()
	c := NewCache(NewHubClient(srv.URL, time.Second), zerolog.Nop())

	_, err := c.GetEmojisForMood(context.Background(), models.GroupFacePositive)
	require.Error(t, err)
	assert.Equal(t, apperr.Network, apperr.KindOf(err))
}

func TestDefaultEmoji(t *testing.T) {
	_, srv := newFakeHub(t, sampleItems(4))
	c := NewCache(NewHubClient(srv.URL, 5*time.Second), zerolog.Nop(), WithRand(func() float64 { return 0.99 }))
	assert.Equal(t, "😀", c.DefaultEmoji(context.Background()))
}

func TestDefaultEmojiFallbacks(t *testing.T) {
	_, empty := newFakeHub(t, []models.EmojiItem{})
	c := NewCache(NewHubClient(empty.URL, 5*time.Second), zerolog.Nop())
	assert.Equal(t, models.FallbackEmoji, c.DefaultEmoji(context.Background()))

	hub, failing := newFakeHub(t, sampleItems(1))
	hub.setStatus(http.StatusInternalServerError)
	c = NewCache(NewHubClient(failing.URL, 5*time.Second), zerolog.Nop())
	assert.Equal(t, models.FallbackEmoji, c.DefaultEmoji(context.Background()))
}

func TestRandomEmoji(t *testing.T) {
	hub, srv := newFakeHub(t, sampleItems(1))
	c := NewCache(NewHubClient(srv.URL, 5*time.Second), zerolog.Nop())

	glyph, err := c.RandomEmoji(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "😀", glyph)
	assert.Equal(t, 1, hub.count("/random"))
}

func TestCreateFloatingEmojiData(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(1700000000000)}
	seq := []float64{0, 0.5, 0.999}
	i := 0
	next := func() float64 {
		v := seq[i%len(seq)]
		i++
		return v
	}
	c := NewCache(nil, zerolog.Nop(), WithClock(clock.Now), WithRand(next))

	out := c.CreateFloatingEmojiData(sampleItems(10), DefaultFloatingCount)
	require.Len(t, out, 7)
	for idx, f := range out {
		assert.Equal(t, "😀", f.Emoji)
		assert.GreaterOrEqual(t, f.Left, 10.0)
		assert.LessOrEqual(t, f.Left, 90.0)
		assert.GreaterOrEqual(t, f.Size, 1.5)
		assert.LessOrEqual(t, f.Size, 3.0)
		assert.GreaterOrEqual(t, f.Duration, 4.0)
		assert.LessOrEqual(t, f.Duration, 12.0)
		assert.GreaterOrEqual(t, f.Delay, 0.0)
		assert.LessOrEqual(t, f.Delay, 4.0)
		if idx == 0 {
			assert.Equal(t, "😀-0-1700000000000", f.ID)
		}
	}

	assert.Len(t, c.CreateFloatingEmojiData(sampleItems(3), 7), 3)
	assert.Empty(t, c.CreateFloatingEmojiData(nil, 7))
}

func TestCreateFloatingEmojiDataRecovers(t *testing.T) {
	c := NewCache(nil, zerolog.Nop(), WithRand(func() float64 { panic("entropy exhausted") }))
	out := c.CreateFloatingEmojiData(sampleItems(2), 7)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

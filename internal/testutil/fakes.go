// Package testutil provides fake upstream servers for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/iammorganparry/feel/internal/models"
)

// GeminiReply is one scripted answer from FakeGemini.
type GeminiReply struct {
	Status int    // 0 means 200
	Text   string // candidate text, ignored when Raw is set
	Raw    string // raw response body
}

// GeminiCall records one request received by FakeGemini.
type GeminiCall struct {
	Model  string
	APIKey string
	Role   string
	Prompt string
}

// FakeGemini serves generateContent with scripted replies. When the
// script runs out the last reply repeats.
type FakeGemini struct {
	*httptest.Server

	mu      sync.Mutex
	replies []GeminiReply
	calls   []GeminiCall
}

func NewFakeGemini(t *testing.T, replies ...GeminiReply) *FakeGemini {
	t.Helper()
	f := &FakeGemini{replies: replies}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Close)
	return f
}

func (f *FakeGemini) handle(w http.ResponseWriter, r *http.Request) {
	model, ok := strings.CutSuffix(strings.TrimPrefix(r.URL.Path, "/"), ":generateContent")
	if !ok || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req struct {
		Contents []struct {
			Role  string `json:"role"`
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	call := GeminiCall{Model: model, APIKey: r.URL.Query().Get("key")}
	if len(req.Contents) > 0 {
		call.Role = req.Contents[0].Role
		if len(req.Contents[0].Parts) > 0 {
			call.Prompt = req.Contents[0].Parts[0].Text
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	reply := GeminiReply{Status: http.StatusInternalServerError, Raw: `{"error":{"message":"no scripted reply"}}`}
	if len(f.replies) > 0 {
		reply = f.replies[0]
		if len(f.replies) > 1 {
			f.replies = f.replies[1:]
		}
	}
	f.mu.Unlock()

	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if reply.Raw != "" {
		fmt.Fprint(w, reply.Raw)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": reply.Text}}}},
		},
	})
}

// Calls returns the requests received so far.
func (f *FakeGemini) Calls() []GeminiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]GeminiCall{}, f.calls...)
}

// Script replaces the pending replies.
func (f *FakeGemini) Script(replies ...GeminiReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = replies
}

// AnalysisJSON renders a as model output text.
func AnalysisJSON(a models.MoodAnalysis) string {
	b, err := json.Marshal(a)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// SampleAnalysis returns a valid analysis in the given group.
func SampleAnalysis(group models.MoodGroup, summary string) models.MoodAnalysis {
	return models.MoodAnalysis{
		Mood:             "joyeux",
		Intensity:        8,
		Emoji:            "😄",
		Group:            group,
		BackgroundColors: []string{"#43e97b", "#38f9d7", "#fee140", "#fa709a"},
		Animation:        models.AnimationBounce,
		SupportMessage:   "Qu'est-ce qui te rend si heureux aujourd'hui ?",
		ContextSummary:   summary,
	}
}

// FakeEmojiHub serves the emoji catalog endpoints.
type FakeEmojiHub struct {
	*httptest.Server

	mu     sync.Mutex
	status int
	groups map[string][]models.EmojiItem
	hits   map[string]int
}

func NewFakeEmojiHub(t *testing.T) *FakeEmojiHub {
	t.Helper()
	f := &FakeEmojiHub{status: http.StatusOK, groups: make(map[string][]models.EmojiItem), hits: make(map[string]int)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Close)
	return f
}

func (f *FakeEmojiHub) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[r.URL.Path]++

	if f.status != http.StatusOK {
		w.WriteHeader(f.status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Path == "/random" {
		json.NewEncoder(w).Encode(Items(1, "&#128512;")[0])
		return
	}
	group, ok := strings.CutPrefix(r.URL.Path, "/all/group/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	items, ok := f.groups[group]
	if !ok {
		items = Items(10, "&#128512;")
	}
	json.NewEncoder(w).Encode(items)
}

// SetGroup scripts the items returned for group.
func (f *FakeEmojiHub) SetGroup(group models.MoodGroup, items []models.EmojiItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups[string(group)] = items
}

// SetStatus makes every request answer with status.
func (f *FakeEmojiHub) SetStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// Hits returns how many requests hit the group endpoint for group.
func (f *FakeEmojiHub) Hits(group models.MoodGroup) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits["/all/group/"+string(group)]
}

// Items builds n catalog records sharing one HTML code.
func Items(n int, htmlCode string) []models.EmojiItem {
	items := make([]models.EmojiItem, n)
	for i := range items {
		items[i] = models.EmojiItem{
			Name:     fmt.Sprintf("emoji %d", i),
			Category: "smileys and people",
			Group:    "face positive",
			HTMLCode: []string{htmlCode},
			Unicode:  []string{"U+1F600"},
		}
	}
	return items
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iammorganparry/feel/internal/models"
	"github.com/iammorganparry/feel/internal/storage"
	"github.com/iammorganparry/feel/internal/testutil"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STORAGE_DRIVER", "file")
	t.Setenv("FEEL_DATA_DIR", dir)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeExport(t *testing.T, dir string, n int) string {
	t.Helper()
	entries := make([]models.ConversationEntry, n)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := range entries {
		a := testutil.SampleAnalysis(models.GroupFacePositive, "Résumé.")
		entries[i] = models.ConversationEntry{
			ID:             "id-" + string(rune('a'+i)),
			Timestamp:      base.Add(-time.Duration(i) * time.Hour),
			UserMessage:    "message " + string(rune('a'+i)),
			Analysis:       a,
			ContextSummary: a.ContextSummary,
		}
	}
	data, err := json.Marshal(entries)
	require.NoError(t, err)
	path := filepath.Join(dir, "export.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestImportHistoryStatsCleanupClear(t *testing.T) {
	dir := setupEnv(t)
	path := writeExport(t, dir, 3)

	out, err := execute(t, "import", path)
	require.NoError(t, err)
	assert.Equal(t, "imported 3 conversations\n", out)

	out, err = execute(t, "history", "--json", "-n", "2")
	require.NoError(t, err)
	var entries []models.ConversationEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "message a", entries[0].UserMessage)

	out, err = execute(t, "history")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "joyeux"))

	out, err = execute(t, "stats", "--json")
	require.NoError(t, err)
	var st storage.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 3, st.Count)
	assert.Positive(t, st.Size)

	out, err = execute(t, "cleanup", "--keep", "1")
	require.NoError(t, err)
	assert.Equal(t, "removed 2 conversations\n", out)

	out, err = execute(t, "clear")
	require.NoError(t, err)
	assert.Equal(t, "history cleared\n", out)

	out, err = execute(t, "history")
	require.NoError(t, err)
	assert.Equal(t, "no conversations\n", out)
}

func TestImportRejectsInvalidFile(t *testing.T) {
	dir := setupEnv(t)
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"id":"x"}]`), 0o644))

	_, err := execute(t, "import", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timestamp")

	_, err = execute(t, "cleanup", "--keep", "-1")
	require.Error(t, err)
}

func TestExportToFile(t *testing.T) {
	dir := setupEnv(t)
	_, err := execute(t, "import", writeExport(t, dir, 2))
	require.NoError(t, err)

	target := filepath.Join(dir, "out.json")
	_, err = execute(t, "export", "-o", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	entries, err := storage.ParseImport(string(data))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSend(t *testing.T) {
	setupEnv(t)
	gemini := testutil.NewFakeGemini(t, testutil.GeminiReply{
		Text: testutil.AnalysisJSON(testutil.SampleAnalysis(models.GroupFacePositive, "Content.")),
	})
	hub := testutil.NewFakeEmojiHub(t)
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("LLM_BASE_URL", gemini.URL)
	t.Setenv("EMOJI_API_URL", hub.URL)

	out, err := execute(t, "send", "--lang", "en", "Je", "suis", "content")
	require.NoError(t, err)
	assert.Contains(t, out, "😄  joyeux (8/10) [face positive]")
	require.Len(t, gemini.Calls(), 1)
	assert.Contains(t, gemini.Calls()[0].Prompt, `"Je suis content"`)

	out, err = execute(t, "history", "--json")
	require.NoError(t, err)
	var entries []models.ConversationEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Je suis content", entries[0].UserMessage)
}

func TestSendReportsUserMessage(t *testing.T) {
	setupEnv(t)
	gemini := testutil.NewFakeGemini(t, testutil.GeminiReply{Status: 401, Raw: `{}`})
	hub := testutil.NewFakeEmojiHub(t)
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("LLM_BASE_URL", gemini.URL)
	t.Setenv("EMOJI_API_URL", hub.URL)

	_, err := execute(t, "send", "bonjour")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Clé API invalide")
	assert.Contains(t, err.Error(), "http_status")
}

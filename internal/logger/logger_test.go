package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "feel-test", "debug")
	log.Info().Str("component", "engine").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "feel-test", line["service"])
	assert.Equal(t, "engine", line["component"])
	assert.Equal(t, "hello", line["message"])
	assert.Contains(t, line, "time")
}

func TestNewWithWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "feel-test", "warn")
	log.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("kept")
	assert.NotZero(t, buf.Len())
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "feel-test", "chatty")
	log.Debug().Msg("dropped")
	assert.Zero(t, buf.Len())
	log.Info().Msg("kept")
	assert.NotZero(t, buf.Len())
}

func TestErrorStack(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "feel-test", "info")
	log.Error().Stack().Err(errors.New("boom")).Msg("save history")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "boom", line["error"])
	require.Contains(t, line, "stack")
	frames, ok := line["stack"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, frames)
}

func TestErrorWithoutStack(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "feel-test", "info")
	log.Error().Err(errors.New("boom")).Msg("plain")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.NotContains(t, line, "stack")
}

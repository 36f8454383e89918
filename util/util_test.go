package util

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLogLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, ParseLogLevel("nonsense"))
}

func TestNewLoggerToFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "warn", "json")
	log.Info().Msg("hidden")
	log.Warn().Str("k", "v").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"k":"v"`)
}

func TestAppendToFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.jsonl")
	require.NoError(t, AppendToFile(p, "a"))
	require.NoError(t, AppendToFile(p, "b", "c"))

	bs, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", string(bs))
}

func TestWriteJSONCreatesFolders(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "dir", "v.json")
	require.NoError(t, WriteJSON(p, map[string]int{"x": 1}))

	bs, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(bs))
}

package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerWritesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New("solver", Options{Level: "debug", Out: &buf})
	l.With("season", 2025).Infof("solved in %d nodes", 12)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "solver", line["component"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "solved in 12 nodes", line["message"])
	assert.EqualValues(t, 2025, line["season"])
}

func TestZerologLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New("distance", Options{Level: "warn", Out: &buf})
	l.Debugf("hidden")
	l.Infof("hidden")
	l.Debugw("hidden", map[string]any{"k": 1})
	assert.Zero(t, buf.Len())

	l.Warnf("missing distance for %s", "Bills")
	assert.Contains(t, buf.String(), "missing distance for Bills")
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New("cli", Options{Format: "console", Out: &buf})
	l.Errorf("boom")
	assert.True(t, strings.Contains(buf.String(), "boom"))
	assert.False(t, strings.HasPrefix(buf.String(), "{"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l.With("k", "v").Infof("nothing")
}

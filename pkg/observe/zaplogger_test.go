package observe

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))

	return entry
}

func TestZapLogger_EmitsAppNameAndZone(t *testing.T) {
	var buf bytes.Buffer
	l := NewZapLogger("test-app", "staging", &buf)

	l.Info("hello", map[string]any{"crop": "wheat"})

	entry := logLine(t, &buf)
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "test-app", entry["app_name"])
	assert.Equal(t, "staging", entry["app_zone"])
	assert.Equal(t, "wheat", entry["crop"])
	assert.Contains(t, entry, "caller_func")
}

func TestZapLogger_ErrorCarriesZone(t *testing.T) {
	var buf bytes.Buffer
	l := NewZapLogger("test-app", "production", &buf)

	l.Error(errors.New("boom"), map[string]any{"stage": "train"})

	entry := logLine(t, &buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "production", entry["app_zone"])
	assert.Equal(t, "train", entry["stage"])
}

func TestZapLogger_WarningLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewZapLogger("test-app", "test", &buf)

	l.Warning("careful")

	entry := logLine(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "careful", entry["msg"])
}

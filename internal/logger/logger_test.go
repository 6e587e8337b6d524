package logger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggingWritesRequestID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	InitLogging(path, "debug")

	ctx := WithRequestID(context.Background(), "req-42")
	InfoLog(ctx, "created task %s", "t1")
	DebugLog(context.Background(), "no id here")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "created task t1", first["message"])
	assert.Equal(t, "req-42", first["request_id"])

	var second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.NotContains(t, second, "request_id")
}

func TestInitLoggingLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	InitLogging(path, "warn")
	t.Cleanup(func() { InitLogging("", "info") })

	InfoLog(context.Background(), "dropped")
	WarnLog(context.Background(), "kept")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestCloseReleasesLogFile(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "second.log")

	InitLogging(first, "info")
	InitLogging(second, "info")
	t.Cleanup(func() { InitLogging("", "info") })

	InfoLog(context.Background(), "to second")
	require.NoError(t, Close())
	InfoLog(context.Background(), "to stdout")
	assert.NoError(t, Close())

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Empty(t, data)

	data, err = os.ReadFile(second)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to second")
	assert.NotContains(t, string(data), "to stdout")
}

package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("chatty")
	assert.Error(t, err)
}

func TestNewFile_WritesJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, err := NewFile("warn", dir)
	require.NoError(t, err)

	logger.Info("dropped below level")
	logger.Warn("fallback used", zap.String("system", "placidus"), zap.Float64("latitude", 70))
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "fallback used", entry["msg"])
	assert.Equal(t, "placidus", entry["system"])
	assert.Equal(t, "natal", entry["logger"])
	assert.Contains(t, entry, "time")
}

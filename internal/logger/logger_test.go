package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"gearrent-backend/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("bogus"))
}

func TestStoreResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger.InitializeWithWriter(&buf, "debug", "json")
	defer logger.Initialize("info", "text")

	logger.StoreResult("put", "inventory", errors.New("boom"), "id", "cam-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "inventory", entry["collection"])
	assert.Equal(t, "cam-1", entry["id"])
	assert.Equal(t, "boom", entry["error"])
}

func TestInfo_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger.InitializeWithWriter(&buf, "error", "text")
	defer logger.Initialize("info", "text")

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Error("shown", "k", "v")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "k=v")
}

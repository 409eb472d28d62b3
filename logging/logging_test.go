package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/icodeforyou/spothub-go/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySaver struct {
	rows []database.LogEntryRow
}

func (m *memorySaver) SaveLogEntry(_ context.Context, r database.LogEntryRow) error {
	m.rows = append(m.rows, r)
	return nil
}

func strPtr(s string) *string { return &s }

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, ParseLevel(nil, slog.LevelInfo))
	assert.Equal(t, slog.LevelError, ParseLevel(nil, slog.LevelError))
	assert.Equal(t, slog.LevelDebug, ParseLevel(strPtr("debug"), slog.LevelInfo))
	assert.Equal(t, slog.LevelWarn, ParseLevel(strPtr("WARN"), slog.LevelInfo))
	assert.Equal(t, slog.LevelWarn, ParseLevel(strPtr(" warning "), slog.LevelInfo))
	assert.Equal(t, slog.LevelError, ParseLevel(strPtr("Error"), slog.LevelInfo))
	assert.Equal(t, slog.LevelInfo+2, ParseLevel(strPtr("info+2"), slog.LevelInfo))
	assert.Equal(t, slog.LevelDebug, ParseLevel(strPtr("verbose"), slog.LevelDebug))
	assert.Equal(t, slog.LevelInfo, ParseLevel(strPtr(""), slog.LevelInfo))
}

func TestSQLiteHandlerJSON(t *testing.T) {
	saver := &memorySaver{}
	logger := slog.New(NewSQLiteHandler(saver, slog.LevelInfo, LogAttrFormatJSON)).
		With(slog.String("module", "widget"))

	logger.Debug("dropped")
	logger.Info("prices fetched", slog.Int("intervals", 96))

	require.Len(t, saver.rows, 1)
	assert.Equal(t, "prices fetched", saver.rows[0].Message)
	assert.Equal(t, int(slog.LevelInfo), saver.rows[0].Level)
	assert.JSONEq(t, `[{"module":"widget"},{"intervals":"96"}]`, saver.rows[0].Attrs)
}

func TestSQLiteHandlerText(t *testing.T) {
	saver := &memorySaver{}
	logger := slog.New(NewSQLiteHandler(saver, slog.LevelDebug, LogAttrFormatText))

	logger.Warn("odd", slog.String("key", "a=b;c"), slog.Bool("ok", false))

	require.Len(t, saver.rows, 1)
	assert.Equal(t, `key=a\=b\;c; ok=false`, saver.rows[0].Attrs)
}

func TestMultiHandler(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger := slog.New(h).With(slog.String("module", "test"))

	logger.Info("info message")
	logger.Warn("warn message")

	assert.Contains(t, debugBuf.String(), "info message")
	assert.Contains(t, debugBuf.String(), "warn message")
	assert.Contains(t, debugBuf.String(), "module=test")
	assert.NotContains(t, warnBuf.String(), "info message")
	assert.Contains(t, warnBuf.String(), "warn message")

	assert.False(t, slog.New(NewMultiHandler(
		slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)).Enabled(context.Background(), slog.LevelInfo))
}

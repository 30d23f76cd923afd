package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, flush, err := Setup(Options{Level: "warn", Format: "json", Out: &buf})
	require.NoError(t, err)
	defer flush()

	logger.Info("hidden")
	logger.Warn("section load failed", "section", "invoice")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "section load failed", entry["msg"])
	assert.Equal(t, "invoice", entry["section"])
}

func TestSetupText(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := Setup(Options{Out: &buf})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("login", "vendor_id", "1234")
	assert.Contains(t, buf.String(), "vendor_id=1234")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestSetupRejectsBadInput(t *testing.T) {
	_, _, err := Setup(Options{Out: &bytes.Buffer{}, Level: "loud"})
	assert.Error(t, err)
	_, _, err = Setup(Options{Out: &bytes.Buffer{}, Format: "xml"})
	assert.Error(t, err)
	_, _, err = Setup(Options{})
	assert.Error(t, err)
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	logger := slog.New(h).With("component", "portal")

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))
	logger.Info("first-event")
	logger.Error("second-event")

	assert.Contains(t, a.String(), "first-event")
	assert.Contains(t, a.String(), "component=portal")
	assert.NotContains(t, b.String(), "first-event")
	assert.Contains(t, b.String(), "second-event")
}

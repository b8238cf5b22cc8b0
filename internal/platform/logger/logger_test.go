package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Setup(LogConfig{Level: "debug", Format: "json", Output: &buf}))
	defer func() { _ = Setup(DefaultConfig()) }()

	l := WithComponent("payroll")
	l.Info().Str("period", "2024-05").Msg("generated")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "payroll", entry["component"])
	assert.Equal(t, "2024-05", entry["period"])
	assert.Equal(t, "generated", entry["message"])
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Setup(LogConfig{Level: "loud"}))
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)

	var buf bytes.Buffer
	scoped := log.Output(&buf).With().Str("request_id", "r1").Logger()
	ctx := WithContext(context.Background(), scoped)
	FromContext(ctx).Info().Msg("scoped")
	assert.Contains(t, buf.String(), `"request_id":"r1"`)
}

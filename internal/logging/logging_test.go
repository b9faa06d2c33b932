package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, Config{Level: "info", Format: "json"})
	require.NoError(t, err)

	l.Debug().Msg("hidden")
	cl := WithComponent(l, "schema")
	cl.Info().Str("path", "a.json").Msg("compiled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "schema", entry["component"])
	require.Equal(t, "a.json", entry["path"])
	require.Equal(t, "compiled", entry["message"])
}

func TestNew_console(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, Config{Level: "warn", Format: "console"})
	require.NoError(t, err)

	l.Info().Msg("hidden")
	l.Warn().Msg("slow")
	require.Contains(t, buf.String(), "slow")
	require.NotContains(t, buf.String(), "hidden")
}

func TestNew_invalid(t *testing.T) {
	var buf bytes.Buffer
	_, err := New(&buf, Config{Level: "loud", Format: "json"})
	require.Error(t, err)
	_, err = New(&buf, Config{Level: "info", Format: "xml"})
	require.Error(t, err)
}

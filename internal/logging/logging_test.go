package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	require.NoError(t, SetupWriter(&buf, "warn", "json"))

	log.Info().Msg("dropped")
	log.Warn().Str("camp", "7").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "7", entry["camp"])
	assert.Equal(t, "warn", entry["level"])
}

func TestSetupRejectsBadInput(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	assert.Error(t, SetupWriter(&buf, "loud", "json"))
	assert.Error(t, SetupWriter(&buf, "info", "xml"))
	assert.NoError(t, SetupWriter(&buf, "", "console"))
}

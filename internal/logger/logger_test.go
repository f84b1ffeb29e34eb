package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := build(&buf, "production", "")
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())

	log.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Info().Msg("shown")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["severity"])
	assert.Equal(t, "biolink", line["app"])
}

func TestBuildLevelOverride(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, build(&bytes.Buffer{}, "development", "").GetLevel())
	assert.Equal(t, zerolog.WarnLevel, build(&bytes.Buffer{}, "development", " WARN ").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, build(&bytes.Buffer{}, "production", "bogus").GetLevel())
}

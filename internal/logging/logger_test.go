package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("info"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("shouting"), "unknown levels fall back to info")
}

func TestSetup_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(Options{Level: "warn", Out: &buf})

	log.Info().Msg("quiet")
	log.Warn().Msg("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(Options{Level: "info", Out: &buf})

	component := Component(log, "query")
	component.Info().Msg("hello")

	assert.Contains(t, buf.String(), `"component":"query"`)
}

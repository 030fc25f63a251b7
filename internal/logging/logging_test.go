package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Levels(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var buf bytes.Buffer
	logger, err := Setup("info", &buf)
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Int("cells", 3).Msg("solve complete")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "solve complete")
	assert.Contains(t, out, "cells=")
}

func TestSetup_ComponentLogger(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var buf bytes.Buffer
	_, err := Setup("debug", &buf)
	require.NoError(t, err)

	GetLogger("store").Info().Msg("opened")
	assert.Contains(t, buf.String(), "component=")
	assert.Contains(t, buf.String(), "store")
}

func TestSetup_InvalidLevel(t *testing.T) {
	_, err := Setup("chatty", &bytes.Buffer{})
	assert.Error(t, err)
}

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_DefaultsToInfoJSON(t *testing.T) {
	log, err := New(Config{})
	require.NoError(t, err)
	require.NotNil(t, log)

	assert.True(t, log.Core().Enabled(zap.InfoLevel))
	assert.False(t, log.Core().Enabled(zap.DebugLevel))
}

func TestNew_InvalidLevelFallsBack(t *testing.T) {
	log, err := New(Config{Level: "chatty", Encoding: "console"})
	require.NoError(t, err)

	assert.True(t, log.Core().Enabled(zap.InfoLevel))
	assert.False(t, log.Core().Enabled(zap.DebugLevel))
}

func TestNew_DebugLevel(t *testing.T) {
	log, err := New(Config{Level: "DEBUG"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.DebugLevel))
}

func TestNormalizeEncoding(t *testing.T) {
	assert.Equal(t, "json", normalizeEncoding(""))
	assert.Equal(t, "json", normalizeEncoding("xml"))
	assert.Equal(t, "console", normalizeEncoding(" Console "))
}

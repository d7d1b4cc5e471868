// internal/platform/logging/logging_test.go
package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	log, err := New("json", "debug")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = New("console", "")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))

	_, err = New("xml", "info")
	assert.Error(t, err)
	_, err = New("json", "loud")
	assert.Error(t, err)
}

func TestMaskID(t *testing.T) {
	assert.Equal(t, "short", MaskID("short"))
	assert.Equal(t, "0123abcd…", MaskID("0123abcd-4567-89ef"))
}

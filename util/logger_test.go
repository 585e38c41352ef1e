package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("debug", "json")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = NewLogger("", "console")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))

	_, err = NewLogger("loud", "json")
	assert.Error(t, err)
}

func TestSetLogger_NilResetsToNop(t *testing.T) {
	prev := Log()
	t.Cleanup(func() { SetLogger(prev) })

	SetLogger(nil)
	assert.NotNil(t, Log())
	assert.False(t, Log().Core().Enabled(zapcore.ErrorLevel))
}

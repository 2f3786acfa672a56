package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDebugIsSafeBeforeInit(t *testing.T) {
	require.NotPanics(t, func() { Debug("startup smoke message") })
}

func TestInitSetsLevel(t *testing.T) {
	require.NoError(t, Init("debug"))
	require.True(t, WithModule("http").Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init("warn"))
	require.False(t, WithModule("http").Core().Enabled(zapcore.InfoLevel))
}

func TestInitFallsBackToInfoOnUnknownLevel(t *testing.T) {
	require.NoError(t, Init("chatty"))

	core := WithModule("maintenance").Core()
	require.True(t, core.Enabled(zapcore.InfoLevel))
	require.False(t, core.Enabled(zapcore.DebugLevel))
}

package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitRejectsBadSettings(t *testing.T) {
	_, err := Init("loud", "json")
	require.Error(t, err)

	_, err = Init("info", "xml")
	require.Error(t, err)
}

func TestSetLevel(t *testing.T) {
	l, err := Init("info", "json")
	require.NoError(t, err)
	require.Same(t, l, L())
	require.False(t, L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, SetLevel("debug"))
	require.True(t, L().Core().Enabled(zap.DebugLevel))
	require.NoError(t, SetLevel("info"))
}

func TestNamed(t *testing.T) {
	_, err := Init("error", "console")
	require.NoError(t, err)
	require.NotNil(t, Named("gorm"))
}

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	t.Parallel()

	for _, prod := range []bool{true, false} {
		l, sync, err := New("debug", prod)
		require.NoError(t, err)
		require.NotNil(t, l)
		require.NotNil(t, sync)
	}

	_, _, err := New("", false)
	assert.NoError(t, err)
}

func TestNewBadLevel(t *testing.T) {
	t.Parallel()

	_, _, err := New("chatty", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log level")
}

func TestFromCoreFiltersByLevel(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	l := FromCore(core)

	l.Info("ignored")
	l.Warn("stop-out", "price", 60.0)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "stop-out", entries[0].Message)
	assert.Equal(t, 60.0, entries[0].ContextMap()["price"])
}

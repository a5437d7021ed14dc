package remote

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHostKeyCallback_WarnsWithoutKnownHosts(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	cb, err := hostKeyCallback("game.example.com:22", Config{Logger: zap.New(core)})
	require.NoError(t, err)
	assert.NotNil(t, cb)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Contains(t, entry.Message, "not verified")
	assert.Equal(t, "game.example.com:22", entry.ContextMap()["host"])
}

func TestHostKeyCallback_MissingKnownHostsFile(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	_, err := hostKeyCallback("game.example.com:22", Config{
		KnownHostsFile: filepath.Join(t.TempDir(), "known_hosts"),
		Logger:         zap.New(core),
	})
	assert.Error(t, err)
	assert.Equal(t, 0, logs.Len())
}

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Defaults(t *testing.T) {
	log, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	require.NotNil(t, log)
	// Smoke: no panic on every level with mixed field types.
	log.Debug("d", String("k", "v"))
	log.Info("i", Int("n", 1), Float64("f", 0.5))
	log.Warn("w", Bool("b", true))
	log.Error("e", Err(nil))
}

func TestNewLogger_InvalidOutputPath(t *testing.T) {
	_, err := NewLogger(LogConfig{OutputPaths: []string{"/dev/null/nope/x.log"}})
	assert.Error(t, err)
}

func TestObservedFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewLoggerFromCore(core)

	log.Named("cache").With(String("org_id", "org-1")).Info("cache hit", Int("ttl_s", 60))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "cache hit", entry.Message)
	assert.Equal(t, "cache", entry.LoggerName)

	fields := entry.ContextMap()
	assert.Equal(t, "org-1", fields["org_id"])
	assert.EqualValues(t, 60, fields["ttl_s"])
}

func TestErrField(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestNopLogger_NoPanic(t *testing.T) {
	log := NewNopLogger()
	log.Debug("x")
	log.Info("x")
	log.Warn("x")
	log.Error("x")
	assert.NotNil(t, log.With(String("a", "b")).Named("n"))
}

package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := NewLogger(Config{Level: "loud", ServiceName: "ctf-datagen"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(Config{Level: "warn", Format: "console", Output: "stderr", ServiceName: "ctf-datagen"})
	require.NoError(t, err)
	assert.Equal(t, "ctf-datagen", logger.ServiceName())
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestScopedLoggersCarryFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := Wrap(zap.New(core), "ctf-datagen")

	logger.WithComponent("composer").
		WithExercise("hello-kql").
		WithError(errors.New("boom")).
		LogDatasetEvent("generated", "Dataset generated", Int("records", 1000))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "composer", fields["component"])
	assert.Equal(t, "hello-kql", fields["exercise"])
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, "generated", fields["step"])
	assert.EqualValues(t, 1000, fields["records"])
}

func TestLogPerformance(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := Wrap(zap.New(core), "ctf-datagen")

	logger.LogPerformance("compose", 1500*time.Millisecond, String("exercise", "port-scanner"))

	entries := logs.FilterField(zap.String("operation", "compose")).All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 1500, entries[0].ContextMap()["duration_ms"])
}

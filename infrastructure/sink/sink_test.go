package sink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isectech/ctf-datagen/config"
	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/infrastructure/compose"
	"github.com/isectech/ctf-datagen/pkg/logging"
)

var refTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testLogger(t *testing.T) *logging.Logger {
	return logging.Wrap(zaptest.NewLogger(t), "ctf-datagen")
}

func composeDataset(t *testing.T, id entity.ExerciseID) *entity.Dataset {
	t.Helper()
	ds, err := compose.NewRegistry().Compose(id, 42, refTime)
	require.NoError(t, err)
	return ds
}

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"AzureNetworkAnalytics_CL": "azure_network_analytics_cl",
		"SigninLogs":               "signin_logs",
		"SecurityEvent":            "security_event",
		"hello-kql":                "hello_kql",
		"brute-force-101":          "brute_force_101",
	}
	for in, want := range cases {
		assert.Equal(t, want, snakeCase(in), in)
	}
}

func TestNewEnabledWithNothingEnabled(t *testing.T) {
	sinks, err := NewEnabled(context.Background(), config.SinksConfig{}, testLogger(t))
	require.NoError(t, err)
	assert.Empty(t, sinks)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	assert.Equal(t, 8000, c.Server.Port)
	assert.Equal(t, 2*time.Second, c.Governance.CycleInterval)
	assert.Equal(t, 20, c.Governance.LogWindow)
	assert.InDelta(t, 0.05, c.Governance.MeanReversionProbability, 1e-12)
	assert.InDelta(t, 0.8, c.Governance.CorrelationSpikeThreshold, 1e-12)
	assert.InDelta(t, 0.42, c.Governance.InitialMetrics.Drawdown, 1e-12)
	assert.Equal(t, "mock", c.Scanner.Source)
	assert.True(t, c.Server.CORS)
	assert.False(t, c.Kafka.Enabled)
}

func TestParse_OverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
environment: production
server:
  port: 9090
  cors: false
governance:
  cycle_interval: 500ms
  log_window: 5
redis:
  enabled: true
  addr: redis:6379
`))
	require.NoError(t, err)
	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 9090, c.Server.Port)
	assert.False(t, c.Server.CORS)
	assert.Equal(t, 500*time.Millisecond, c.Governance.CycleInterval)
	assert.Equal(t, 5, c.Governance.LogWindow)
	assert.Equal(t, "redis:6379", c.Redis.Addr)
	assert.Equal(t, "omnitrade", c.Redis.Prefix)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad source", "scanner:\n  source: bloomberg\n"},
		{"bad probability", "governance:\n  mean_reversion_probability: 1.5\n"},
		{"kafka without brokers", "kafka:\n  enabled: true\n"},
		{"sheets without id", "scanner:\n  source: sheets\n"},
		{"bad level", "log:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"OMNITRADE_ENV":  "staging",
		"HTTP_PORT":      "8100",
		"SCANNER_SOURCE": "CLICKHOUSE",
		"REDIS_ADDR":     "cache:6379",
		"KAFKA_BROKERS":  "k1:9092,k2:9092",
		"LOG_LEVEL":      "DEBUG",
	}
	c := Default()
	require.NoError(t, c.applyEnv(func(k string) string { return env[k] }))
	require.NoError(t, c.Validate())

	assert.Equal(t, "staging", c.Environment)
	assert.Equal(t, 8100, c.Server.Port)
	assert.Equal(t, "clickhouse", c.Scanner.Source)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, "debug", c.Log.Level)

	bad := Default()
	assert.Error(t, bad.applyEnv(func(k string) string {
		if k == "HTTP_PORT" {
			return "eighty"
		}
		return ""
	}))
}

func TestLoad_ShippedConfig(t *testing.T) {
	c, err := Load("../../config/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, "console", c.Log.Format)
	assert.Equal(t, []string{"localhost:9092"}, c.Kafka.Brokers)
	assert.False(t, c.ClickHouseRequired())
	assert.Equal(t, 64, c.Kafka.Consumer.BufferSize)
}

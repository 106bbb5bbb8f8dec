package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/tally/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/home/tester/.local/share/tally/tally.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "tally:", cfg.Redis.Prefix)
	assert.Equal(t, int64(1000), cfg.Classification.MinInvestmentAmount)
	assert.InDelta(t, 0.6, cfg.Classification.LearnedRuleThreshold, 1e-9)
	assert.Equal(t, 2, cfg.Learning.MinAssignments)
	assert.InDelta(t, 0.5, cfg.Learning.FrequencyFloor, 1e-9)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
storage:
  backend: Memory
classification:
  min_investment_amount: 5000
  learned_rule_threshold: 0.75
learning:
  min_assignments: 3
server:
  addr: 127.0.0.1:9000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, int64(5000), cfg.Classification.MinInvestmentAmount)
	assert.InDelta(t, 0.75, cfg.Classification.LearnedRuleThreshold, 1e-9)
	assert.Equal(t, 3, cfg.Learning.MinAssignments)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"unknown backend", "storage.backend", "postgres"},
		{"zero threshold", "classification.learned_rule_threshold", 0.0},
		{"threshold above one", "classification.learned_rule_threshold", 1.5},
		{"negative investment minimum", "classification.min_investment_amount", -1},
		{"zero min assignments", "learning.min_assignments", 0},
		{"frequency floor of one", "learning.frequency_floor", 1.0},
		{"empty redis url", "redis.url", ""},
		{"bad log level", "logging.level", "loud"},
		{"bad log format", "logging.format", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)
			if tt.key == "redis.url" {
				v.Set("storage.backend", BackendRedis)
			}

			_, err := Load(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("TALLY_DIR", "/srv/tally")

	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"~", "/home/tester"},
		{"~/data/tally.db", "/home/tester/data/tally.db"},
		{"$TALLY_DIR/tally.db", "/srv/tally/tally.db"},
		{"/abs/path.db", "/abs/path.db"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.input))
		})
	}
}

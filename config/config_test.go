package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/hedge-rl/hedge"
	"github.com/zeu5/hedge-rl/types"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, hedge.DefaultConfig(), cfg.Environment)
	assert.Equal(t, 0.1, cfg.Agent.LearningRate)
	assert.Equal(t, 0.95, cfg.Agent.DiscountFactor)
	assert.Equal(t, 1.0, cfg.Agent.Epsilon)
	assert.Equal(t, 0.9999, cfg.Agent.EpsilonDecay)
	assert.Equal(t, 0.01, cfg.Agent.MinEpsilon)
	assert.Equal(t, 20000, cfg.Training.Episodes)
	assert.Equal(t, StoreFile, cfg.Store.Kind)
	assert.Equal(t, time.Duration(0), cfg.Store.TTL)

	assert.Equal(t, cfg, Default())
}

func TestYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hedge.yaml")
	content := `
environment:
  sigma: 0.3
  steps: 10
  features: price-time
agent:
  learning_rate: 0.5
training:
  episodes: 300
store:
  kind: redis
  ttl: 1h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.Environment.Sigma)
	assert.Equal(t, 10, cfg.Environment.Steps)
	assert.Equal(t, hedge.FeaturesPriceTime, cfg.Environment.Features)
	assert.Equal(t, 100.0, cfg.Environment.S0)
	assert.Equal(t, 0.5, cfg.Agent.LearningRate)
	assert.Equal(t, 300, cfg.Training.Episodes)
	assert.Equal(t, StoreRedis, cfg.Store.Kind)
	assert.Equal(t, time.Hour, cfg.Store.TTL)

	agent := cfg.AgentConfig(7)
	assert.Equal(t, []int{100, 11}, agent.ObservationDims)
	assert.Equal(t, hedge.NumActions, agent.Actions)
	assert.Equal(t, uint64(7), agent.Seed)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("HEDGE_TRAINING_EPISODES", "77")
	t.Setenv("HEDGE_ENVIRONMENT_TRANSACTION_COST", "0.01")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 77, cfg.Training.Episodes)
	assert.Equal(t, 0.01, cfg.Environment.TransactionCost)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("HEDGE_TRAINING_EPISODES", "77")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("episodes", 10, "")
	flags.Int("runs", 3, "")
	require.NoError(t, flags.SetAnnotation("episodes", FlagKey, []string{"training.episodes"}))
	require.NoError(t, flags.SetAnnotation("runs", FlagKey, []string{"training.runs"}))
	require.NoError(t, flags.Parse([]string{"--episodes", "5"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Training.Episodes)
	// unset flags keep the configured value
	assert.Equal(t, 1, cfg.Training.Runs)
}

func TestInvalid(t *testing.T) {
	t.Setenv("HEDGE_ENVIRONMENT_SIGMA", "-1")
	_, err := Load("", nil)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestInvalidStoreKind(t *testing.T) {
	t.Setenv("HEDGE_STORE_KIND", "s3")
	_, err := Load("", nil)
	assert.ErrorIs(t, err, types.ErrConfiguration)

	kind, err := ParseStoreKind("")
	require.NoError(t, err)
	assert.Equal(t, StoreFile, kind)
}

func TestMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

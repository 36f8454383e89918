// Package config loads the settings of the hedging experiments.
// Values are layered: defaults, an optional YAML file, an optional .env file,
// HEDGE_* environment variables and finally bound command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/zeu5/hedge-rl/hedge"
	"github.com/zeu5/hedge-rl/policies"
	"github.com/zeu5/hedge-rl/types"
)

// EnvPrefix of the environment variables, HEDGE_TRAINING_EPISODES sets training.episodes
const EnvPrefix = "HEDGE"

const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

type Config struct {
	Environment hedge.Config          `mapstructure:"environment"`
	Agent       policies.QAgentConfig `mapstructure:"agent"`
	Training    TrainingConfig        `mapstructure:"training"`
	Log         LogConfig             `mapstructure:"log"`
	Store       StoreConfig           `mapstructure:"store"`
	Server      ServerConfig          `mapstructure:"server"`
}

type TrainingConfig struct {
	Episodes     int    `mapstructure:"episodes"`
	Runs         int    `mapstructure:"runs"`
	Seed         uint64 `mapstructure:"seed"`
	SavePath     string `mapstructure:"save_path"`
	LogEvery     int    `mapstructure:"log_every"`
	EvalEpisodes int    `mapstructure:"eval_episodes"`
	RecordTraces bool   `mapstructure:"record_traces"`
	// name the learnt table is stored under
	TableName string `mapstructure:"table_name"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StoreConfig struct {
	Kind      string        `mapstructure:"kind"`
	Dir       string        `mapstructure:"dir"`
	RedisAddr string        `mapstructure:"redis_addr"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	env := hedge.DefaultConfig()
	v.SetDefault("environment.s0", env.S0)
	v.SetDefault("environment.k", env.K)
	v.SetDefault("environment.r", env.R)
	v.SetDefault("environment.sigma", env.Sigma)
	v.SetDefault("environment.steps", env.Steps)
	v.SetDefault("environment.transaction_cost", env.TransactionCost)
	v.SetDefault("environment.max_stocks", env.MaxStocks)
	v.SetDefault("environment.num_price_bins", env.NumPriceBins)
	v.SetDefault("environment.num_delta_bins", env.NumDeltaBins)
	v.SetDefault("environment.features", string(env.Features))

	agent := policies.DefaultQAgentConfig()
	v.SetDefault("agent.learning_rate", agent.LearningRate)
	v.SetDefault("agent.discount_factor", agent.DiscountFactor)
	v.SetDefault("agent.epsilon", agent.Epsilon)
	v.SetDefault("agent.epsilon_decay", agent.EpsilonDecay)
	v.SetDefault("agent.min_epsilon", agent.MinEpsilon)

	v.SetDefault("training.episodes", 20000)
	v.SetDefault("training.runs", 1)
	v.SetDefault("training.seed", 42)
	v.SetDefault("training.save_path", "results")
	v.SetDefault("training.log_every", 1000)
	v.SetDefault("training.eval_episodes", 1000)
	v.SetDefault("training.record_traces", false)
	v.SetDefault("training.table_name", "qlearning")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("store.kind", StoreFile)
	v.SetDefault("store.dir", "tables")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.key_prefix", "hedge-rl:")
	v.SetDefault("store.ttl", time.Duration(0))

	v.SetDefault("server.addr", "localhost:8080")
}

// Default configuration, without reading any file or the environment
func Default() *Config {
	cfg, _ := decode(newViper())
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrConfiguration, err)
	}
	return cfg, nil
}

// Load reads the configuration. path may be empty, a YAML file is then optional.
// flags, when given, override everything else for the flags that were set;
// a flag maps to a key through its annotation or, when absent, its name.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := newViper()
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: reading %s: %s", types.ErrConfiguration, path, err)
		}
	}
	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FlagKey annotates a flag with the configuration key it overrides
const FlagKey = "config_key"

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		keys, ok := f.Annotations[FlagKey]
		if !ok || len(keys) == 0 {
			return
		}
		err = v.BindPFlag(keys[0], f)
	})
	return err
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Environment.Validate(); err != nil {
		return err
	}
	if err := c.Agent.Validate(); err != nil {
		return err
	}
	if c.Training.Episodes <= 0 || c.Training.Runs <= 0 {
		return fmt.Errorf("%w: episodes and runs must be positive", types.ErrConfiguration)
	}
	if c.Training.EvalEpisodes < 0 || c.Training.LogEvery < 0 {
		return fmt.Errorf("%w: eval episodes and log frequency cannot be negative", types.ErrConfiguration)
	}
	if _, err := ParseStoreKind(c.Store.Kind); err != nil {
		return err
	}
	return nil
}

// AgentConfig completes the agent hyperparameters with the table shape of the environment
func (c *Config) AgentConfig(seed uint64) policies.QAgentConfig {
	a := c.Agent
	a.ObservationDims = c.Environment.ObservationDims()
	a.Actions = hedge.NumActions
	a.Seed = seed
	return a
}

func ParseStoreKind(kind string) (string, error) {
	switch strings.ToLower(kind) {
	case StoreFile, "":
		return StoreFile, nil
	case StoreRedis:
		return StoreRedis, nil
	}
	return "", fmt.Errorf("%w: unknown store kind %q", types.ErrConfiguration, kind)
}

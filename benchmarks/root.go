package benchmarks

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/zeu5/hedge-rl/config"
	"github.com/zeu5/hedge-rl/util"
)

var (
	configFile string
	cpuprofile string
	memprofile string
)

// bind makes the flag override the configuration key when set
func bind(flags *pflag.FlagSet, name, key string) {
	if err := flags.SetAnnotation(name, config.FlagKey, []string{key}); err != nil {
		panic(err)
	}
}

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:          "hedge-rl",
		Short:        "Learn to hedge a written call option with tabular Q-learning",
		SilenceUsage: true,
	}
	flags := rootCommand.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console or json)")
	flags.IntP("episodes", "e", 20000, "Number of episodes to run")
	flags.Int("runs", 1, "Number of experiment runs")
	flags.StringP("save", "s", "results", "Save the result data in the specified folder")
	flags.Uint64("seed", 42, "Seed of the price paths")
	flags.Int("steps", 30, "Days to maturity")
	flags.String("store", config.StoreFile, "Table store (file or redis)")
	flags.String("table", "qlearning", "Name of the learnt table in the store")
	bind(flags, "log-level", "log.level")
	bind(flags, "log-format", "log.format")
	bind(flags, "episodes", "training.episodes")
	bind(flags, "runs", "training.runs")
	bind(flags, "save", "training.save_path")
	bind(flags, "seed", "training.seed")
	bind(flags, "steps", "environment.steps")
	bind(flags, "store", "store.kind")
	bind(flags, "table", "training.table_name")

	// adding the subcommands here
	rootCommand.AddCommand(TrainCommand())
	rootCommand.AddCommand(EvaluateCommand())
	rootCommand.AddCommand(SimulateCommand())
	rootCommand.AddCommand(ServeCommand())
	return rootCommand
}

// loadConfig reads the layered configuration for the command being run
func loadConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, util.NewLogger(cfg.Log.Level, cfg.Log.Format), nil
}

// interruptContext is cancelled on SIGINT or SIGTERM
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

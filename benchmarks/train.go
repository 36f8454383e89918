package benchmarks

import (
	"context"
	"fmt"
	"path"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/zeu5/hedge-rl/config"
	"github.com/zeu5/hedge-rl/hedge"
	"github.com/zeu5/hedge-rl/policies"
	"github.com/zeu5/hedge-rl/store"
	"github.com/zeu5/hedge-rl/types"
)

// Train compares the Q-learning agent against a random baseline on the same price paths
// and stores the table learnt in the last run. st may be nil to skip storing.
func Train(ctx context.Context, cfg *config.Config, st store.Store, log zerolog.Logger) (*policies.QTable, error) {
	seed := cfg.Training.Seed
	saveFile := cfg.Training.SavePath

	agent, err := policies.NewQAgent(cfg.AgentConfig(seed))
	if err != nil {
		return nil, err
	}
	qEnv, err := hedge.NewEnvironment(cfg.Environment, hedge.WithSeed(seed))
	if err != nil {
		return nil, err
	}
	randomEnv, err := hedge.NewEnvironment(cfg.Environment, hedge.WithSeed(seed))
	if err != nil {
		return nil, err
	}

	c, err := types.NewComparison(&types.ComparisonConfig{
		Runs:       cfg.Training.Runs,
		Episodes:   cfg.Training.Episodes,
		Horizon:    cfg.Environment.Steps,
		Seed:       &seed,
		RecordPath: saveFile,
		LogEvery:   cfg.Training.LogEvery,
		// record flags
		RecordTraces: cfg.Training.RecordTraces,
		RecordPolicy: true,
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}
	window := max(1, cfg.Training.Episodes/100)
	c.AddAnalysis("Rewards", hedge.NewRewardAnalyzer(), hedge.RewardPlotComparator(path.Join(saveFile, "plots"), window))
	c.AddAnalysis("PnL", hedge.NewPnLAnalyzer(), hedge.PnLSummaryComparator(saveFile, log))
	c.AddAnalysis("Actions", hedge.NewActionAnalyzer(), hedge.ActionCountComparator(saveFile))

	c.AddExperiment(types.NewExperiment("qlearning", agent, qEnv))
	c.AddExperiment(types.NewExperiment("random", types.NewSeededRandomPolicy(seed), randomEnv))

	if err := c.Run(ctx); err != nil {
		return nil, err
	}

	if st != nil {
		if err := st.Save(ctx, cfg.Training.TableName, agent.Table()); err != nil {
			return nil, fmt.Errorf("storing table %s: %w", cfg.Training.TableName, err)
		}
		log.Info().Str("table", cfg.Training.TableName).Msg("stored learnt table")
	}
	return agent.Table(), nil
}

func TrainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the Q-learning agent and compare it with a random policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := interruptContext(cmd.Context())
			defer cancel()

			stopProfiling, err := startProfiling(cfg.Training.SavePath, log)
			if err != nil {
				return err
			}
			defer stopProfiling()

			st, closeStore, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			_, err = Train(ctx, cfg, st, log)
			return err
		},
	}
	cmd.Flags().Bool("record-traces", false, "Record the trace of every episode")
	bind(cmd.Flags(), "record-traces", "training.record_traces")
	cmd.Flags().Int("log-every", 1000, "Log progress every N episodes")
	bind(cmd.Flags(), "log-every", "training.log_every")
	cmd.Flags().StringVar(&cpuprofile, "cpuprofile", "", "write cpu profile to `file` in the save folder")
	cmd.Flags().StringVar(&memprofile, "memprofile", "", "write memory profile to `file` in the save folder")
	return cmd
}

package benchmarks

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/zeu5/hedge-rl/config"
	"github.com/zeu5/hedge-rl/hedge"
	"github.com/zeu5/hedge-rl/policies"
	"github.com/zeu5/hedge-rl/store"
	"github.com/zeu5/hedge-rl/types"
)

// evalSeed is past the seeds of the training runs, so the greedy policy is scored on unseen paths
func evalSeed(cfg *config.Config) uint64 {
	return cfg.Training.Seed + uint64(cfg.Training.Runs)
}

// Evaluate follows a stored table greedily and summarizes the terminal hedge P&L
func Evaluate(ctx context.Context, cfg *config.Config, st store.Store, name string, log zerolog.Logger) (hedge.Summary, error) {
	episodes := cfg.Training.EvalEpisodes
	if episodes <= 0 {
		return hedge.Summary{}, fmt.Errorf("%w: no evaluation episodes", types.ErrConfiguration)
	}
	table, err := loadTable(ctx, cfg, st, name)
	if err != nil {
		return hedge.Summary{}, err
	}
	env, err := hedge.NewEnvironment(cfg.Environment)
	if err != nil {
		return hedge.Summary{}, err
	}
	agent := types.NewAgent(&types.AgentConfig{
		Episodes:    episodes,
		Horizon:     cfg.Environment.Steps,
		Policy:      policies.NewGreedyPolicy(table),
		Environment: env,
	})

	pnls := make([]float64, 0, episodes)
	rewards := make([]float64, 0, episodes)
	for episode := 0; episode < episodes; episode++ {
		eCtx := types.NewEpisodeContext(ctx, 0, episode, "evaluate")
		if episode == 0 {
			eCtx.WithSeed(evalSeed(cfg))
		}
		agent.RunEpisode(eCtx)
		if eCtx.Err != nil {
			return hedge.Summary{}, fmt.Errorf("episode %d: %w", episode, eCtx.Err)
		}
		rewards = append(rewards, eCtx.TotalReward)
		if pnl, ok := hedge.TerminalPnL(eCtx.Trace); ok {
			pnls = append(pnls, pnl)
		}
	}

	s := hedge.Summarize(pnls)
	r := hedge.Summarize(rewards)
	log.Info().
		Str("table", name).
		Int("episodes", s.Episodes).
		Float64("reward_mean", r.Mean).
		Float64("pnl_mean", s.Mean).
		Float64("pnl_std", s.StdDev).
		Float64("pnl_min", s.Min).
		Float64("pnl_median", s.Median).
		Float64("pnl_max", s.Max).
		Msg("evaluation")
	return s, nil
}

func EvaluateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run the greedy policy of a stored table and report the hedge P&L",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := interruptContext(cmd.Context())
			defer cancel()

			st, closeStore, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			s, err := Evaluate(ctx, cfg, st, cfg.Training.TableName, log)
			if err != nil {
				return err
			}
			return writeJSON(cmd, s)
		},
	}
	cmd.Flags().Int("eval-episodes", 1000, "Number of greedy episodes")
	bind(cmd.Flags(), "eval-episodes", "training.eval_episodes")
	return cmd
}

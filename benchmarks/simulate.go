package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/zeu5/hedge-rl/config"
	"github.com/zeu5/hedge-rl/hedge"
	"github.com/zeu5/hedge-rl/types"
)

// Simulate plays one episode with random trades and prints every step to out.
// A non-empty recordPath also stores the trace there as JSON.
func Simulate(ctx context.Context, cfg *config.Config, seed uint64, out io.Writer, recordPath string) (float64, error) {
	env, err := hedge.NewEnvironment(cfg.Environment)
	if err != nil {
		return 0, err
	}
	agent := types.NewAgent(&types.AgentConfig{
		Episodes:    1,
		Horizon:     cfg.Environment.Steps,
		Policy:      types.NewSeededRandomPolicy(seed),
		Environment: env,
	})
	eCtx := types.NewEpisodeContext(ctx, 0, 0, "simulate").WithSeed(seed)
	agent.RunEpisode(eCtx)
	if eCtx.Err != nil {
		return 0, eCtx.Err
	}

	if state, _, _, ok := eCtx.Trace.Get(0); ok {
		fmt.Fprintf(out, "initial state: %s, price: %.2f\n", state.Hash(), env.Path()[0])
	}
	for i := 0; i < eCtx.Trace.Len(); i++ {
		_, action, next, _ := eCtx.Trace.Get(i)
		info := eCtx.Trace.Info(i)
		fmt.Fprintf(out, "step: %d, action: %s, state: %s, reward: %.2f, price: %.2f, position: %d, cash: %.2f\n",
			int(info[hedge.InfoStep]),
			action.Hash(),
			next.Hash(),
			eCtx.Trace.Reward(i),
			info[hedge.InfoCurrentPrice],
			int(info[hedge.InfoStockPosition]),
			info[hedge.InfoCashBalance],
		)
	}
	fmt.Fprintf(out, "simulation finished, total reward: %.2f\n", eCtx.TotalReward)

	if recordPath != "" {
		if err := eCtx.Trace.Record(recordPath); err != nil {
			return 0, fmt.Errorf("recording trace: %w", err)
		}
	}
	return eCtx.TotalReward, nil
}

func SimulateCommand() *cobra.Command {
	var recordPath string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play one episode with random trades and print every step",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			_, err = Simulate(cmd.Context(), cfg, cfg.Training.Seed, cmd.OutOrStdout(), recordPath)
			return err
		},
	}
	cmd.Flags().StringVar(&recordPath, "record", "", "Write the trace of the episode as JSON to `file`")
	return cmd
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

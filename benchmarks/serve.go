package benchmarks

import (
	"github.com/spf13/cobra"
	"github.com/zeu5/hedge-rl/policies"
	"github.com/zeu5/hedge-rl/server"
)

func ServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the greedy actions of a stored table over HTTP",
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

			table, err := loadTable(ctx, cfg, st, cfg.Training.TableName)
			if err != nil {
				return err
			}
			s := server.New(cfg.Server.Addr, policies.NewGreedyPolicy(table), cfg.Environment.Contract(), st, log)
			return s.Run(ctx)
		},
	}
	cmd.Flags().String("addr", "localhost:8080", "Address to listen on")
	bind(cmd.Flags(), "addr", "server.addr")
	return cmd
}

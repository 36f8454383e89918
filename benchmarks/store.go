package benchmarks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/zeu5/hedge-rl/config"
	"github.com/zeu5/hedge-rl/hedge"
	"github.com/zeu5/hedge-rl/policies"
	"github.com/zeu5/hedge-rl/store"
	"github.com/zeu5/hedge-rl/types"
)

const redisWait = 10 * time.Second

// openStore returns the configured table store and the function releasing it
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, func(), error) {
	kind, err := config.ParseStoreKind(cfg.Store.Kind)
	if err != nil {
		return nil, nil, err
	}
	if kind == config.StoreRedis {
		rs := store.NewRedisStore(cfg.Store.RedisAddr, cfg.Store.KeyPrefix, cfg.Store.TTL)
		if err := rs.WaitReady(ctx, redisWait); err != nil {
			rs.Close()
			return nil, nil, err
		}
		log.Info().Str("addr", cfg.Store.RedisAddr).Msg("using redis table store")
		return rs, func() { rs.Close() }, nil
	}
	log.Debug().Str("dir", cfg.Store.Dir).Msg("using file table store")
	return store.NewFileStore(cfg.Store.Dir), func() {}, nil
}

// loadTable loads a table and checks it fits the configured environment
func loadTable(ctx context.Context, cfg *config.Config, st store.Store, name string) (*policies.QTable, error) {
	table, err := st.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	want := append(cfg.Environment.ObservationDims(), hedge.NumActions)
	got := table.Shape()
	if len(got) != len(want) {
		return nil, fmt.Errorf("%w: table %s has shape %v, environment needs %v", types.ErrConfiguration, name, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			return nil, fmt.Errorf("%w: table %s has shape %v, environment needs %v", types.ErrConfiguration, name, got, want)
		}
	}
	return table, nil
}

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/hedge-rl/policies"
)

func sampleTable(t *testing.T) *policies.QTable {
	t.Helper()
	q, err := policies.NewQTable([]int{4, 3}, 3)
	require.NoError(t, err)
	require.NoError(t, q.Set([]int{3, 2}, 1, -42.125))
	require.NoError(t, q.Set([]int{0, 1}, 0, 1e-9))
	return q
}

func roundTrip(t *testing.T, s Store) {
	ctx := context.Background()
	q := sampleTable(t)
	require.NoError(t, s.Save(ctx, "qlearning_0", q))

	loaded, err := s.Load(ctx, "qlearning_0")
	require.NoError(t, err)
	assert.True(t, q.Equal(loaded))

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.Save(ctx, "../escape", q))
	_, err = s.Load(ctx, "")
	assert.Error(t, err)
}

func TestFileStore(t *testing.T) {
	roundTrip(t, NewFileStore(t.TempDir()))
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("HEDGE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("HEDGE_TEST_REDIS_ADDR not set")
	}
	s := NewRedisStore(addr, "hedge-rl-test:"+time.Now().Format("150405.000")+":", time.Minute)
	defer s.Close()
	require.NoError(t, s.WaitReady(context.Background(), 5*time.Second))
	roundTrip(t, s)
}

func TestRedisStoreUnreachable(t *testing.T) {
	s := NewRedisStore("127.0.0.1:1", "hedge-rl:", 0)
	defer s.Close()
	err := s.WaitReady(context.Background(), 200*time.Millisecond)
	assert.Error(t, err)
}

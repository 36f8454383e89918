package policies

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/hedge-rl/hedge"
	"github.com/zeu5/hedge-rl/types"
)

func testConfig() QAgentConfig {
	cfg := DefaultQAgentConfig()
	cfg.ObservationDims = []int{100, 31, 21, 20}
	cfg.Actions = 3
	cfg.Seed = 1
	return cfg
}

func TestGreedyChoiceBreaksTiesByLowestIndex(t *testing.T) {
	cfg := testConfig()
	cfg.Epsilon = 0
	cfg.MinEpsilon = 0
	agent, err := NewQAgent(cfg)
	require.NoError(t, err)

	obs := []int{0, 0, 10, 0}
	require.NoError(t, agent.Table().Set(obs, 0, 5))
	require.NoError(t, agent.Table().Set(obs, 1, 5))
	require.NoError(t, agent.Table().Set(obs, 2, 3))

	for i := 0; i < 20; i++ {
		action, err := agent.ChooseAction(obs)
		require.NoError(t, err)
		assert.Equal(t, 0, action)
	}

	require.NoError(t, agent.Table().Set(obs, 2, 6))
	action, err := agent.ChooseAction(obs)
	require.NoError(t, err)
	assert.Equal(t, 2, action)
}

func TestFullExplorationCoversAllActions(t *testing.T) {
	cfg := testConfig()
	agent, err := NewQAgent(cfg)
	require.NoError(t, err)

	seen := make(map[int]int)
	for i := 0; i < 300; i++ {
		action, err := agent.ChooseAction([]int{1, 2, 3, 4})
		require.NoError(t, err)
		seen[action]++
	}
	assert.Len(t, seen, 3)
}

func TestChooseActionOutOfRange(t *testing.T) {
	agent, err := NewQAgent(testConfig())
	require.NoError(t, err)
	_, err = agent.ChooseAction([]int{100, 0, 0, 0})
	assert.ErrorIs(t, err, types.ErrOutOfRange)
	_, err = agent.ChooseAction([]int{0, 0})
	assert.ErrorIs(t, err, types.ErrOutOfRange)
}

func TestLearnMovesTowardTarget(t *testing.T) {
	for _, alpha := range []float64{0.05, 0.1, 0.5, 1} {
		cfg := testConfig()
		cfg.LearningRate = alpha
		agent, err := NewQAgent(cfg)
		require.NoError(t, err)

		obs := []int{10, 5, 10, 3}
		next := []int{11, 4, 10, 3}
		require.NoError(t, agent.Table().Set(obs, 1, 2))
		require.NoError(t, agent.Table().Set(next, 0, -4))
		require.NoError(t, agent.Table().Set(next, 2, 8))

		reward := -3.0
		target := reward + cfg.DiscountFactor*8
		old, _ := agent.Table().Get(obs, 1)
		require.NoError(t, agent.Learn(obs, 1, reward, next))
		updated, _ := agent.Table().Get(obs, 1)

		assert.Less(t, math.Abs(updated-target), math.Abs(old-target), "alpha %v", alpha)
		assert.InDelta(t, (1-alpha)*old+alpha*target, updated, 1e-12)
	}
}

func TestLearnDoesNotZeroTerminalContinuation(t *testing.T) {
	cfg := testConfig()
	cfg.LearningRate = 1
	agent, err := NewQAgent(cfg)
	require.NoError(t, err)

	terminal := []int{50, 0, 10, 0}
	require.NoError(t, agent.Table().Set(terminal, 1, 10))
	require.NoError(t, agent.Learn([]int{50, 1, 10, 0}, 1, -1, terminal))
	v, _ := agent.Table().Get([]int{50, 1, 10, 0}, 1)
	assert.InDelta(t, -1+cfg.DiscountFactor*10, v, 1e-12)
}

func TestLearnOutOfRange(t *testing.T) {
	agent, err := NewQAgent(testConfig())
	require.NoError(t, err)
	assert.ErrorIs(t, agent.Learn([]int{0, 0, 0, 0}, 3, 0, []int{0, 0, 0, 0}), types.ErrOutOfRange)
	assert.ErrorIs(t, agent.Learn([]int{0, 0, 0, 0}, 0, 0, []int{0, 31, 0, 0}), types.ErrOutOfRange)
}

func TestEpsilonDecayIsMonotoneAndFloored(t *testing.T) {
	cfg := testConfig()
	cfg.EpsilonDecay = 0.5
	cfg.MinEpsilon = 0.1
	agent, err := NewQAgent(cfg)
	require.NoError(t, err)

	prev := agent.Epsilon()
	for i := 0; i < 20; i++ {
		agent.DecayEpsilon()
		assert.LessOrEqual(t, agent.Epsilon(), prev)
		assert.GreaterOrEqual(t, agent.Epsilon(), cfg.MinEpsilon)
		assert.LessOrEqual(t, agent.Epsilon(), 1.0)
		prev = agent.Epsilon()
	}
	assert.Equal(t, 0.1, agent.Epsilon())

	require.NoError(t, agent.Table().Set([]int{0, 0, 0, 0}, 0, 1))
	agent.Reset()
	assert.Equal(t, cfg.Epsilon, agent.Epsilon())
	v, _ := agent.Table().Get([]int{0, 0, 0, 0}, 0)
	assert.Equal(t, 0.0, v)
}

func TestConfigValidation(t *testing.T) {
	mutate := map[string]func(*QAgentConfig){
		"zero learning rate":   func(c *QAgentConfig) { c.LearningRate = 0 },
		"large learning rate":  func(c *QAgentConfig) { c.LearningRate = 1.5 },
		"discount":             func(c *QAgentConfig) { c.DiscountFactor = 1.1 },
		"epsilon above one":    func(c *QAgentConfig) { c.Epsilon = 1.2 },
		"epsilon below floor":  func(c *QAgentConfig) { c.Epsilon = 0.001 },
		"decay":                func(c *QAgentConfig) { c.EpsilonDecay = 0 },
		"negative min epsilon": func(c *QAgentConfig) { c.MinEpsilon = -0.1 },
		"no dims":              func(c *QAgentConfig) { c.ObservationDims = nil },
		"no actions":           func(c *QAgentConfig) { c.Actions = 0 },
	}
	for name, m := range mutate {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			m(&cfg)
			_, err := NewQAgent(cfg)
			assert.ErrorIs(t, err, types.ErrConfiguration)
		})
	}
}

func TestAgentLoopTrainsAndDecaysOncePerEpisode(t *testing.T) {
	envCfg := hedge.DefaultConfig()
	envCfg.Steps = 5
	env, err := hedge.NewEnvironment(envCfg, hedge.WithSeed(3))
	require.NoError(t, err)

	cfg := DefaultQAgentConfig()
	cfg.ObservationDims = env.ObservationDims()
	cfg.Actions = hedge.NumActions
	cfg.EpsilonDecay = 0.9
	agent, err := NewQAgent(cfg)
	require.NoError(t, err)

	loop := types.NewAgent(&types.AgentConfig{
		Episodes:    4,
		Horizon:     envCfg.Steps,
		Policy:      agent,
		Environment: env,
	})
	for episode := 0; episode < 4; episode++ {
		eCtx := types.NewEpisodeContext(context.Background(), 0, episode, "q")
		loop.RunEpisode(eCtx)
		require.NoError(t, eCtx.Err)
		assert.True(t, eCtx.Terminated)
		assert.Equal(t, envCfg.Steps, eCtx.Trace.Len())
		assert.InDelta(t, math.Pow(0.9, float64(episode+1)), agent.Epsilon(), 1e-12)
	}

	greedy := types.NewAgent(&types.AgentConfig{
		Episodes:    1,
		Horizon:     envCfg.Steps,
		Policy:      NewGreedyPolicy(agent.Table()),
		Environment: env,
	})
	eCtx := types.NewEpisodeContext(context.Background(), 0, 0, "greedy")
	greedy.RunEpisode(eCtx)
	require.NoError(t, eCtx.Err)
	assert.True(t, eCtx.Terminated)
	assert.Equal(t, 0.0, eCtx.Trace.Reward(0))
}

func TestQAgentAsPolicyRejectsForeignStates(t *testing.T) {
	agent, err := NewQAgent(testConfig())
	require.NoError(t, err)
	_, err = agent.NextAction(nil, opaqueState{})
	assert.Error(t, err)
	assert.Error(t, agent.Update(nil, opaqueState{}, hedge.Hold, 0, opaqueState{}))
}

type opaqueState struct{}

func (opaqueState) Hash() string            { return "opaque" }
func (opaqueState) Actions() []types.Action { return hedge.AllActions }

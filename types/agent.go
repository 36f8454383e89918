package types

import (
	"fmt"
	"time"
)

type AgentConfig struct {
	Episodes    int
	Horizon     int
	Policy      Policy
	Environment Environment
}

// RL Agent configured with the corresponding
// policy and environment
type Agent struct {
	config      *AgentConfig
	policy      Policy
	environment Environment
}

// Instantiates a new Agent
func NewAgent(config *AgentConfig) *Agent {
	return &Agent{
		config:      config,
		policy:      config.Policy,
		environment: config.Environment,
	}
}

// RunEpisode resets the environment and steps through it until a terminal state
// or the horizon. The outcome is stored in the episode context.
// Policies with an exploration schedule are decayed once the episode completes.
func (a *Agent) RunEpisode(eCtx *EpisodeContext) {
	start := time.Now()
	defer func() {
		eCtx.RunDuration = time.Since(start)
	}()

	state, _, err := a.environment.Reset(eCtx)
	if err != nil {
		eCtx.SetError(fmt.Errorf("reset: %w", err))
		return
	}

	for i := 0; i < a.config.Horizon; i++ {
		select {
		case <-eCtx.Context.Done():
			eCtx.SetError(eCtx.Context.Err())
			return
		default:
		}

		sCtx := NewStepContext(eCtx, i)
		action, err := a.policy.NextAction(sCtx, state)
		if err != nil {
			eCtx.SetError(fmt.Errorf("step %d: next action: %w", i, err))
			return
		}
		result, err := a.environment.Step(action, sCtx)
		if err != nil {
			eCtx.SetError(fmt.Errorf("step %d: %w", i, err))
			return
		}
		if err := a.policy.Update(sCtx, state, action, result.Reward, result.State); err != nil {
			eCtx.SetError(fmt.Errorf("step %d: update: %w", i, err))
			return
		}

		eCtx.Trace.Append(i, state, action, result.Reward, result.State, result.Info)
		eCtx.Timesteps += 1
		eCtx.TotalReward += result.Reward
		state = result.State

		if result.Done() {
			eCtx.Terminated = true
			break
		}
	}
	if !eCtx.Terminated {
		eCtx.HorizonEnd = true
	}

	if d, ok := a.policy.(EpsilonDecayer); ok {
		d.DecayEpsilon()
	}
}

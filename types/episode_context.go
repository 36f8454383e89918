package types

import (
	"context"
	"time"
)

// EpisodeContext wraps static and dynamic information of the episode
// Static: run, episode number, experiment and optional seed
// Dynamic: info collected while running - trace, timesteps, error
type EpisodeContext struct {
	Context context.Context

	Run            int
	Episode        int
	ExperimentName string
	// Seed, when set, reseeds the environment random source on Reset
	Seed *uint64

	Trace       *Trace
	Timesteps   int
	Terminated  bool // reached a terminal state before the horizon
	HorizonEnd  bool
	TotalReward float64
	RunDuration time.Duration
	Err         error
}

// NewEpisodeContext creates a new episode context
func NewEpisodeContext(ctx context.Context, run, episode int, experimentName string) *EpisodeContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &EpisodeContext{
		Context:        ctx,
		Run:            run,
		Episode:        episode,
		ExperimentName: experimentName,
		Trace:          NewTrace(),
	}
}

// SeededEpisode is a standalone episode context carrying only a seed
func SeededEpisode(seed uint64) *EpisodeContext {
	eCtx := NewEpisodeContext(context.Background(), 0, 0, "")
	eCtx.WithSeed(seed)
	return eCtx
}

func (e *EpisodeContext) WithSeed(seed uint64) *EpisodeContext {
	e.Seed = &seed
	return e
}

func (e *EpisodeContext) SetError(err error) {
	e.Err = err
}

// StepContext is passed to the environment and the policy at each step
type StepContext struct {
	Step int
	*EpisodeContext
}

func NewStepContext(eCtx *EpisodeContext, step int) *StepContext {
	return &StepContext{
		Step:           step,
		EpisodeContext: eCtx,
	}
}

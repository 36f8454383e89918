package types

import (
	"fmt"

	"golang.org/x/exp/rand"
)

type Policy interface {
	// NextAction picks the action to take from the state
	NextAction(*StepContext, State) (Action, error)
	// Update is called after every transition with the observed reward
	Update(*StepContext, State, Action, float64, State) error
	// Reset drops everything learnt so far
	Reset()
	// Record stores the policy under the given path
	Record(string) error
}

// EpsilonDecayer is implemented by policies with an exploration schedule.
// The agent calls DecayEpsilon once per completed episode.
type EpsilonDecayer interface {
	DecayEpsilon()
	Epsilon() float64
}

// RandomPolicy picks actions uniformly at random and learns nothing
type RandomPolicy struct {
	rand *rand.Rand
}

var _ Policy = &RandomPolicy{}

func NewSeededRandomPolicy(seed uint64) *RandomPolicy {
	return &RandomPolicy{
		rand: rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomPolicy) Reset() {

}

func (r *RandomPolicy) Record(_ string) error {
	return nil
}

func (r *RandomPolicy) NextAction(_ *StepContext, state State) (Action, error) {
	actions := state.Actions()
	if len(actions) == 0 {
		return nil, fmt.Errorf("no actions available in state %s", state.Hash())
	}
	return actions[r.rand.Intn(len(actions))], nil
}

func (r *RandomPolicy) Update(_ *StepContext, _ State, _ Action, _ float64, _ State) error {
	return nil
}

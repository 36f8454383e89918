package types

import (
	"encoding/json"
	"os"
)

// Trace of an episode as tuples (state, action, reward, nextState, info)
type Trace struct {
	states     []State
	actions    []Action
	rewards    []float64
	nextStates []State
	infos      []Info
}

func NewTrace() *Trace {
	return &Trace{
		states:     make([]State, 0),
		actions:    make([]Action, 0),
		rewards:    make([]float64, 0),
		nextStates: make([]State, 0),
		infos:      make([]Info, 0),
	}
}

func (t *Trace) Slice(from, to int) *Trace {
	slicedTrace := NewTrace()
	for i := from; i < to; i++ {
		slicedTrace.Append(i-from, t.states[i], t.actions[i], t.rewards[i], t.nextStates[i], t.infos[i])
	}
	return slicedTrace
}

func (t *Trace) Append(step int, state State, action Action, reward float64, nextState State, info Info) {
	t.states = append(t.states, state)
	t.actions = append(t.actions, action)
	t.rewards = append(t.rewards, reward)
	t.nextStates = append(t.nextStates, nextState)
	t.infos = append(t.infos, info)
}

func (t *Trace) Len() int {
	return len(t.states)
}

func (t *Trace) Get(i int) (State, Action, State, bool) {
	if i >= len(t.states) {
		return nil, nil, nil, false
	}
	return t.states[i], t.actions[i], t.nextStates[i], true
}

// Reward at step i, zero when out of bounds
func (t *Trace) Reward(i int) float64 {
	if i < 0 || i >= len(t.rewards) {
		return 0
	}
	return t.rewards[i]
}

// Info at step i, nil when out of bounds
func (t *Trace) Info(i int) Info {
	if i < 0 || i >= len(t.infos) {
		return nil
	}
	return t.infos[i]
}

// TotalReward is the undiscounted sum of rewards in the trace
func (t *Trace) TotalReward() float64 {
	total := 0.0
	for _, r := range t.rewards {
		total += r
	}
	return total
}

func (t *Trace) Last() (State, Action, State, bool) {
	if len(t.states) < 1 {
		return nil, nil, nil, false
	}
	lastIndex := len(t.states) - 1
	return t.states[lastIndex], t.actions[lastIndex], t.nextStates[lastIndex], true
}

func (t *Trace) GetPrefix(i int) (*Trace, bool) {
	if i > len(t.states) {
		return nil, false
	}
	return &Trace{
		states:     t.states[0:i],
		actions:    t.actions[0:i],
		rewards:    t.rewards[0:i],
		nextStates: t.nextStates[0:i],
		infos:      t.infos[0:i],
	}, true
}

type traceStep struct {
	State     string  `json:"state"`
	Action    string  `json:"action"`
	Reward    float64 `json:"reward"`
	NextState string  `json:"next_state"`
	Info      Info    `json:"info,omitempty"`
}

func (t *Trace) MarshalJSON() ([]byte, error) {
	steps := make([]traceStep, t.Len())
	for i := range steps {
		steps[i] = traceStep{
			State:     t.states[i].Hash(),
			Action:    t.actions[i].Hash(),
			Reward:    t.rewards[i],
			NextState: t.nextStates[i].Hash(),
			Info:      t.infos[i],
		}
	}
	return json.Marshal(steps)
}

// Record writes the trace as JSON to the given path
func (t *Trace) Record(p string) error {
	bs, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(p, bs, 0644)
}

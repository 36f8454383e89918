package types

// Environment explored by the RL agent
type Environment interface {
	// Reset called at the start of each episode.
	// When the episode context carries a seed the environment reseeds its random source
	Reset(*EpisodeContext) (State, Info, error)
	// Step applies the action and returns the resulting transition
	Step(Action, *StepContext) (StepResult, error)
}

// State of the system that RL policies observe
type State interface {
	// Indexed by the Hash
	// Should be deterministic
	Hash() string
	// Actions possible from the state, ordered by action index
	Actions() []Action
}

// DiscreteState is a state that maps onto the coordinates of a dense table
type DiscreteState interface {
	State
	Coords() []int
}

// And Action that RL policy can take
type Action interface {
	// Index of the action
	// Should be deterministic
	Hash() string
}

// DiscreteAction is an action with a position in a fixed action set
type DiscreteAction interface {
	Action
	Index() int
}

// Info carries auxiliary numeric values about the environment (prices, balances)
type Info map[string]float64

// StepResult is the outcome of a single Environment.Step
type StepResult struct {
	State      State
	Reward     float64
	Terminated bool
	Truncated  bool
	Info       Info
}

// Done is true when the episode cannot continue
func (s StepResult) Done() bool {
	return s.Terminated || s.Truncated
}

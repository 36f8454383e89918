package policies

import (
	"fmt"

	"github.com/zeu5/hedge-rl/types"
	"golang.org/x/exp/rand"
)

// QAgentConfig holds the hyperparameters and table shape of a QAgent
type QAgentConfig struct {
	LearningRate   float64 `mapstructure:"learning_rate" json:"learning_rate"`
	DiscountFactor float64 `mapstructure:"discount_factor" json:"discount_factor"`
	Epsilon        float64 `mapstructure:"epsilon" json:"epsilon"`
	EpsilonDecay   float64 `mapstructure:"epsilon_decay" json:"epsilon_decay"`
	MinEpsilon     float64 `mapstructure:"min_epsilon" json:"min_epsilon"`

	// only used to allocate the table
	ObservationDims []int `mapstructure:"-" json:"observation_dims"`
	Actions         int   `mapstructure:"-" json:"actions"`

	// Seed of the exploration source
	Seed uint64 `mapstructure:"-" json:"seed"`
}

func DefaultQAgentConfig() QAgentConfig {
	return QAgentConfig{
		LearningRate:   0.1,
		DiscountFactor: 0.95,
		Epsilon:        1.0,
		EpsilonDecay:   0.9999,
		MinEpsilon:     0.01,
	}
}

func (c QAgentConfig) Validate() error {
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("%w: learning rate must be in (0, 1], got %v", types.ErrConfiguration, c.LearningRate)
	}
	if c.DiscountFactor < 0 || c.DiscountFactor > 1 {
		return fmt.Errorf("%w: discount factor must be in [0, 1], got %v", types.ErrConfiguration, c.DiscountFactor)
	}
	if c.MinEpsilon < 0 || c.MinEpsilon > 1 {
		return fmt.Errorf("%w: min epsilon must be in [0, 1], got %v", types.ErrConfiguration, c.MinEpsilon)
	}
	if c.Epsilon < c.MinEpsilon || c.Epsilon > 1 {
		return fmt.Errorf("%w: epsilon must be in [min epsilon, 1], got %v", types.ErrConfiguration, c.Epsilon)
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("%w: epsilon decay must be in (0, 1], got %v", types.ErrConfiguration, c.EpsilonDecay)
	}
	return nil
}

// QAgent is an epsilon-greedy tabular Q-learning agent that owns its table
type QAgent struct {
	config  QAgentConfig
	qTable  *QTable
	epsilon float64
	rand    *rand.Rand
}

var _ types.Policy = &QAgent{}
var _ types.EpsilonDecayer = &QAgent{}

func NewQAgent(config QAgentConfig) (*QAgent, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	qTable, err := NewQTable(config.ObservationDims, config.Actions)
	if err != nil {
		return nil, err
	}
	return &QAgent{
		config:  config,
		qTable:  qTable,
		epsilon: config.Epsilon,
		rand:    rand.New(rand.NewSource(config.Seed)),
	}, nil
}

// Table learnt so far, shared with the agent
func (q *QAgent) Table() *QTable {
	return q.qTable
}

func (q *QAgent) Epsilon() float64 {
	return q.epsilon
}

// ChooseAction explores with probability epsilon, otherwise picks the best known action
func (q *QAgent) ChooseAction(coords []int) (int, error) {
	if _, err := q.qTable.Row(coords); err != nil {
		return 0, err
	}
	if q.rand.Float64() < q.epsilon {
		return q.rand.Intn(q.qTable.Actions()), nil
	}
	action, _, err := q.qTable.Max(coords)
	return action, err
}

// Learn moves Q(s, a) toward r + gamma * max_a' Q(s', a').
// Terminal observations are not special cased, their row is looked up like any other.
func (q *QAgent) Learn(coords []int, action int, reward float64, next []int) error {
	old, err := q.qTable.Get(coords, action)
	if err != nil {
		return err
	}
	_, nextMax, err := q.qTable.Max(next)
	if err != nil {
		return err
	}
	target := reward + q.config.DiscountFactor*nextMax
	alpha := q.config.LearningRate
	return q.qTable.Set(coords, action, (1-alpha)*old+alpha*target)
}

// DecayEpsilon shrinks epsilon geometrically down to its floor
func (q *QAgent) DecayEpsilon() {
	q.epsilon = max(q.config.MinEpsilon, q.epsilon*q.config.EpsilonDecay)
}

// Reset forgets the table and restores the initial epsilon
func (q *QAgent) Reset() {
	q.qTable.Reset()
	q.epsilon = q.config.Epsilon
}

func (q *QAgent) Record(path string) error {
	return q.qTable.Record(path + ".qtable")
}

func (q *QAgent) NextAction(_ *types.StepContext, state types.State) (types.Action, error) {
	ds, ok := state.(types.DiscreteState)
	if !ok {
		return nil, fmt.Errorf("state %s has no table coordinates", state.Hash())
	}
	i, err := q.ChooseAction(ds.Coords())
	if err != nil {
		return nil, err
	}
	return actionAt(state, i)
}

func (q *QAgent) Update(_ *types.StepContext, state types.State, action types.Action, reward float64, nextState types.State) error {
	ds, ok := state.(types.DiscreteState)
	if !ok {
		return fmt.Errorf("state %s has no table coordinates", state.Hash())
	}
	next, ok := nextState.(types.DiscreteState)
	if !ok {
		return fmt.Errorf("state %s has no table coordinates", nextState.Hash())
	}
	da, ok := action.(types.DiscreteAction)
	if !ok {
		return fmt.Errorf("action %s has no index", action.Hash())
	}
	return q.Learn(ds.Coords(), da.Index(), reward, next.Coords())
}

func actionAt(state types.State, i int) (types.Action, error) {
	actions := state.Actions()
	if i < 0 || i >= len(actions) {
		return nil, fmt.Errorf("%w: action %d, state %s has %d actions", types.ErrOutOfRange, i, state.Hash(), len(actions))
	}
	return actions[i], nil
}

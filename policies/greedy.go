package policies

import (
	"fmt"
	"sync"

	"github.com/zeu5/hedge-rl/types"
)

// GreedyPolicy always follows the best action of a fixed table and never learns.
// The table can be swapped while the policy is in use.
type GreedyPolicy struct {
	lock   sync.RWMutex
	qTable *QTable
}

var _ types.Policy = &GreedyPolicy{}

func NewGreedyPolicy(qTable *QTable) *GreedyPolicy {
	return &GreedyPolicy{qTable: qTable}
}

func (g *GreedyPolicy) Table() *QTable {
	g.lock.RLock()
	defer g.lock.RUnlock()
	return g.qTable
}

func (g *GreedyPolicy) SetTable(qTable *QTable) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.qTable = qTable
}

// Best returns the greedy action of the observation together with all its action values
func (g *GreedyPolicy) Best(coords []int) (int, []float64, error) {
	g.lock.RLock()
	defer g.lock.RUnlock()
	values, err := g.qTable.Values(coords)
	if err != nil {
		return 0, nil, err
	}
	action, _, err := g.qTable.Max(coords)
	return action, values, err
}

func (g *GreedyPolicy) NextAction(_ *types.StepContext, state types.State) (types.Action, error) {
	ds, ok := state.(types.DiscreteState)
	if !ok {
		return nil, fmt.Errorf("state %s has no table coordinates", state.Hash())
	}
	i, _, err := g.Best(ds.Coords())
	if err != nil {
		return nil, err
	}
	return actionAt(state, i)
}

func (g *GreedyPolicy) Update(_ *types.StepContext, _ types.State, _ types.Action, _ float64, _ types.State) error {
	return nil
}

func (g *GreedyPolicy) Reset() {}

func (g *GreedyPolicy) Record(path string) error {
	return g.Table().Record(path + ".qtable")
}

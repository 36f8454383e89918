package hedge

import (
	"fmt"

	"github.com/zeu5/hedge-rl/types"
)

// Action is a hedge trade of one unit of the underlying
type Action int

const (
	Sell Action = iota
	Hold
	Buy
)

// NumActions is the size of the action set
const NumActions = 3

var _ types.DiscreteAction = Hold

var AllActions = []types.Action{Sell, Hold, Buy}

func (a Action) Hash() string {
	switch a {
	case Sell:
		return "sell"
	case Hold:
		return "hold"
	case Buy:
		return "buy"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

func (a Action) Index() int {
	return int(a)
}

func (a Action) Valid() bool {
	return a >= Sell && a <= Buy
}

// ParseAction maps an action index back to the hedge action
func ParseAction(i int) (Action, error) {
	a := Action(i)
	if !a.Valid() {
		return 0, fmt.Errorf("%w: action %d not in [0, %d)", types.ErrOutOfRange, i, NumActions)
	}
	return a, nil
}

package hedge

import (
	"fmt"
	"math"
	"time"

	"github.com/zeu5/hedge-rl/market"
	"github.com/zeu5/hedge-rl/types"
	"golang.org/x/exp/rand"
)

// Info keys reported by the environment
const (
	InfoCurrentPrice     = "current_price"
	InfoStep             = "step"
	InfoStockPosition    = "stock_position"
	InfoCashBalance      = "cash_balance"
	InfoHedgePnL         = "hedge_pnl"
	InfoOptionPayoff     = "option_payoff"
	InfoLiquidationValue = "liquidation_value"
)

// Environment simulates hedging a written call until maturity.
// The only reward is paid at maturity: minus the squared hedge P&L.
type Environment struct {
	cfg       Config
	encoder   encoder
	generator market.PathGenerator
	rand      *rand.Rand

	path          market.PricePath
	stockPosition int
	cashBalance   float64
	currentStep   int
}

var _ types.Environment = &Environment{}

// Option customizes an Environment at construction
type Option func(*Environment)

// WithSeed seeds the random source that draws the path of each episode
func WithSeed(seed uint64) Option {
	return func(e *Environment) {
		e.rand = rand.New(rand.NewSource(seed))
	}
}

// WithGenerator replaces the GBM path generator
func WithGenerator(g market.PathGenerator) Option {
	return func(e *Environment) {
		e.generator = g
	}
}

// NewEnvironment validates the configuration and creates the environment.
// Reset must be called before the first Step.
func NewEnvironment(cfg Config, opts ...Option) (*Environment, error) {
	if cfg.Features == "" {
		cfg.Features = FeaturesFull
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Environment{
		cfg:       cfg,
		encoder:   newEncoder(cfg),
		generator: cfg.gbm(),
		rand:      rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

func (e *Environment) Config() Config {
	return e.cfg
}

// ObservationDims is the bin count of each observation coordinate
func (e *Environment) ObservationDims() []int {
	return e.cfg.ObservationDims()
}

// Reset draws a fresh price path and empties the portfolio.
// A seed on the episode context reseeds the environment before drawing.
func (e *Environment) Reset(eCtx *types.EpisodeContext) (types.State, types.Info, error) {
	if eCtx != nil && eCtx.Seed != nil {
		e.rand = rand.New(rand.NewSource(*eCtx.Seed))
	}
	path, err := e.generator.Generate(e.rand.Uint64())
	if err != nil {
		return nil, nil, fmt.Errorf("generating price path: %w", err)
	}
	if len(path) != e.cfg.Steps+1 {
		return nil, nil, fmt.Errorf("%w: price path has %d prices, want %d", types.ErrOutOfRange, len(path), e.cfg.Steps+1)
	}
	e.path = path
	e.stockPosition = 0
	e.cashBalance = 0
	e.currentStep = 0
	return e.Observation(), e.info(), nil
}

// Step trades one unit according to the action and advances one day.
// Once maturity is reached further steps are no-ops returning reward 0.
func (e *Environment) Step(a types.Action, _ *types.StepContext) (types.StepResult, error) {
	if e.path == nil {
		return types.StepResult{}, fmt.Errorf("step called before reset")
	}
	if e.currentStep >= e.cfg.Steps {
		return types.StepResult{
			State:      e.Observation(),
			Reward:     0,
			Terminated: true,
			Info:       e.info(),
		}, nil
	}

	action, err := toAction(a)
	if err != nil {
		return types.StepResult{}, err
	}

	price := e.path[e.currentStep]
	switch action {
	case Buy:
		e.stockPosition += 1
		e.cashBalance -= price * (1 + e.cfg.TransactionCost)
	case Sell:
		e.stockPosition -= 1
		e.cashBalance += price * (1 - e.cfg.TransactionCost)
	case Hold:
	}
	e.currentStep += 1

	info := e.info()
	reward := 0.0
	if e.currentStep == e.cfg.Steps {
		finalPrice := e.path[e.currentStep]
		liquidation := e.cashBalance + float64(e.stockPosition)*finalPrice
		payoff := math.Max(finalPrice-e.cfg.K, 0)
		pnl := liquidation + payoff
		reward = -(pnl * pnl)

		info[InfoLiquidationValue] = liquidation
		info[InfoOptionPayoff] = payoff
		info[InfoHedgePnL] = pnl
	}

	return types.StepResult{
		State:      e.Observation(),
		Reward:     reward,
		Terminated: e.currentStep >= e.cfg.Steps,
		Truncated:  false,
		Info:       info,
	}, nil
}

func toAction(a types.Action) (Action, error) {
	switch act := a.(type) {
	case Action:
		if !act.Valid() {
			return 0, fmt.Errorf("%w: unknown hedge action %d", types.ErrOutOfRange, int(act))
		}
		return act, nil
	case types.DiscreteAction:
		return ParseAction(act.Index())
	case nil:
		return 0, fmt.Errorf("%w: nil action", types.ErrOutOfRange)
	}
	return 0, fmt.Errorf("%w: unsupported action %s", types.ErrOutOfRange, a.Hash())
}

// Observation of the current step
func (e *Environment) Observation() Observation {
	return e.encoder.encode(e.CurrentPrice(), e.currentStep, e.stockPosition)
}

func (e *Environment) info() types.Info {
	return types.Info{
		InfoCurrentPrice:  e.CurrentPrice(),
		InfoStep:          float64(e.currentStep),
		InfoStockPosition: float64(e.stockPosition),
		InfoCashBalance:   e.cashBalance,
	}
}

// CurrentPrice is the realized price at the current step
func (e *Environment) CurrentPrice() float64 {
	if len(e.path) == 0 {
		return e.cfg.S0
	}
	i := e.currentStep
	if i >= len(e.path) {
		i = len(e.path) - 1
	}
	return e.path[i]
}

// Path of the current episode
func (e *Environment) Path() market.PricePath {
	return e.path.Clone()
}

func (e *Environment) Position() int {
	return e.stockPosition
}

func (e *Environment) Cash() float64 {
	return e.cashBalance
}

func (e *Environment) CurrentStep() int {
	return e.currentStep
}

// Done is true once maturity has been reached
func (e *Environment) Done() bool {
	return e.path != nil && e.currentStep >= e.cfg.Steps
}

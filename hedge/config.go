// Package hedge models delta-hedging of a written European call as an MDP.
package hedge

import (
	"fmt"

	"github.com/zeu5/hedge-rl/market"
	"github.com/zeu5/hedge-rl/types"
)

// Features selects which dimensions the observation exposes
type Features string

const (
	// FeaturesFull observes price, time to maturity, position and delta
	FeaturesFull Features = "full"
	// FeaturesPriceTime observes only price and time to maturity
	FeaturesPriceTime Features = "price-time"
)

// Config holds the simulation parameters of an environment
type Config struct {
	S0              float64  `mapstructure:"s0" json:"s0"`
	K               float64  `mapstructure:"k" json:"k"`
	R               float64  `mapstructure:"r" json:"r"`
	Sigma           float64  `mapstructure:"sigma" json:"sigma"`
	Steps           int      `mapstructure:"steps" json:"steps"` // days to maturity
	TransactionCost float64  `mapstructure:"transaction_cost" json:"transaction_cost"`
	MaxStocks       int      `mapstructure:"max_stocks" json:"max_stocks"`
	NumPriceBins    int      `mapstructure:"num_price_bins" json:"num_price_bins"`
	NumDeltaBins    int      `mapstructure:"num_delta_bins" json:"num_delta_bins"`
	Features        Features `mapstructure:"features" json:"features"`
}

func DefaultConfig() Config {
	return Config{
		S0:              100,
		K:               100,
		R:               0.05,
		Sigma:           0.2,
		Steps:           30,
		TransactionCost: 0.001,
		MaxStocks:       10,
		NumPriceBins:    100,
		NumDeltaBins:    20,
		Features:        FeaturesFull,
	}
}

func (c Config) Validate() error {
	if err := c.gbm().Validate(); err != nil {
		return err
	}
	if c.K <= 0 {
		return fmt.Errorf("%w: strike must be positive, got %v", types.ErrConfiguration, c.K)
	}
	if c.TransactionCost < 0 || c.TransactionCost >= 1 {
		return fmt.Errorf("%w: transaction cost must be in [0, 1), got %v", types.ErrConfiguration, c.TransactionCost)
	}
	if c.MaxStocks <= 0 {
		return fmt.Errorf("%w: max stocks must be positive, got %d", types.ErrConfiguration, c.MaxStocks)
	}
	if c.NumPriceBins <= 0 || c.NumDeltaBins <= 0 {
		return fmt.Errorf("%w: bin counts must be positive, got price=%d delta=%d", types.ErrConfiguration, c.NumPriceBins, c.NumDeltaBins)
	}
	switch c.Features {
	case FeaturesFull, FeaturesPriceTime, "":
	default:
		return fmt.Errorf("%w: unknown observation features %q", types.ErrConfiguration, c.Features)
	}
	return nil
}

// ObservationDims is the number of values each observation coordinate can take
func (c Config) ObservationDims() []int {
	if c.Features == FeaturesPriceTime {
		return []int{c.NumPriceBins, c.Steps + 1}
	}
	return []int{c.NumPriceBins, c.Steps + 1, c.numPositionBins(), c.NumDeltaBins}
}

func (c Config) numPositionBins() int {
	return 2*c.MaxStocks + 1
}

func (c Config) gbm() market.GBM {
	return market.GBM{S0: c.S0, Rate: c.R, Sigma: c.Sigma, Steps: c.Steps}
}

// Contract is the written call priced by the delta oracle
func (c Config) Contract() market.Option {
	return market.Option{Strike: c.K, Rate: c.R, Sigma: c.Sigma}
}

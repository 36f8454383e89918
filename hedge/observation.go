package hedge

import (
	"fmt"
	"math"

	"github.com/zeu5/hedge-rl/types"
)

// Observation is the discretized view of the environment the agent sees
type Observation struct {
	PriceBin       int
	TimeToMaturity int
	PositionBin    int
	DeltaBin       int

	features Features
}

var _ types.DiscreteState = Observation{}

// Coords are the table coordinates of the observation, two or four depending on the features
func (o Observation) Coords() []int {
	if o.features == FeaturesPriceTime {
		return []int{o.PriceBin, o.TimeToMaturity}
	}
	return []int{o.PriceBin, o.TimeToMaturity, o.PositionBin, o.DeltaBin}
}

func (o Observation) Hash() string {
	if o.features == FeaturesPriceTime {
		return fmt.Sprintf("(%d, %d)", o.PriceBin, o.TimeToMaturity)
	}
	return fmt.Sprintf("(%d, %d, %d, %d)", o.PriceBin, o.TimeToMaturity, o.PositionBin, o.DeltaBin)
}

func (o Observation) Actions() []types.Action {
	return AllActions
}

// encoder discretizes raw environment values into an Observation
type encoder struct {
	cfg      Config
	low      float64
	binWidth float64
}

func newEncoder(cfg Config) encoder {
	e := encoder{
		cfg: cfg,
		low: 0.5 * cfg.S0,
	}
	if cfg.NumPriceBins > 1 {
		e.binWidth = cfg.S0 / float64(cfg.NumPriceBins-1)
	}
	return e
}

// priceBin places price on the edges spanning [0.5*S0, 1.5*S0], clamping out-of-range prices
func (e encoder) priceBin(price float64) int {
	if e.binWidth == 0 {
		return 0
	}
	bin := math.Floor((price - e.low) / e.binWidth)
	if math.IsNaN(bin) {
		return 0
	}
	return clampFloat(bin, e.cfg.NumPriceBins-1)
}

func (e encoder) positionBin(position int) int {
	return clamp(position+e.cfg.MaxStocks, e.cfg.numPositionBins()-1)
}

func (e encoder) deltaBin(delta float64) int {
	return clampFloat(math.Floor(delta*float64(e.cfg.NumDeltaBins-1)), e.cfg.NumDeltaBins-1)
}

func (e encoder) encode(price float64, step, position int) Observation {
	ttm := e.cfg.Steps - step
	return Observation{
		PriceBin:       e.priceBin(price),
		TimeToMaturity: clamp(ttm, e.cfg.Steps),
		PositionBin:    e.positionBin(position),
		DeltaBin:       e.deltaBin(e.cfg.Contract().Delta(price, ttm)),
		features:       e.cfg.Features,
	}
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v float64, hi int) int {
	if v < 0 {
		return 0
	}
	if v > float64(hi) {
		return hi
	}
	return int(v)
}

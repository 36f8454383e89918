// Package market simulates the underlying of the hedged option and prices its delta.
package market

import (
	"fmt"
	"math"

	"github.com/zeu5/hedge-rl/types"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// DaysPerYear is the Actual/365 day count used to turn steps into years
const DaysPerYear = 365.0

// PricePath is a discretized sample path, one price per step including the start
type PricePath []float64

// Final price of the path
func (p PricePath) Final() float64 {
	return p[len(p)-1]
}

// Clone returns a copy that can be handed out without exposing the path
func (p PricePath) Clone() PricePath {
	c := make(PricePath, len(p))
	copy(c, p)
	return c
}

// PathGenerator produces one price path per seed
type PathGenerator interface {
	Generate(seed uint64) (PricePath, error)
}

// GBM simulates a geometric Brownian motion under the risk-neutral measure.
// Steps are calendar days, so maturity in years is Steps/365.
type GBM struct {
	S0    float64
	Rate  float64
	Sigma float64
	Steps int
}

var _ PathGenerator = GBM{}

func (g GBM) Validate() error {
	if g.S0 <= 0 {
		return fmt.Errorf("%w: initial price must be positive, got %v", types.ErrConfiguration, g.S0)
	}
	if g.Sigma <= 0 {
		return fmt.Errorf("%w: sigma must be positive, got %v", types.ErrConfiguration, g.Sigma)
	}
	if g.Steps <= 0 {
		return fmt.Errorf("%w: steps to maturity must be positive, got %d", types.ErrConfiguration, g.Steps)
	}
	return nil
}

// Generate a path of Steps+1 strictly positive prices.
// The same seed always yields the same path.
func (g GBM) Generate(seed uint64) (PricePath, error) {
	return GeneratePath(g, seed)
}

// GeneratePath simulates the log-price increments of g with a source seeded by seed
func GeneratePath(g GBM, seed uint64) (PricePath, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	dt := (float64(g.Steps) / DaysPerYear) / float64(g.Steps)
	drift := (g.Rate - 0.5*g.Sigma*g.Sigma) * dt
	vol := g.Sigma * math.Sqrt(dt)

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(seed)}
	path := make(PricePath, g.Steps+1)
	path[0] = g.S0
	for i := 1; i <= g.Steps; i++ {
		path[i] = path[i-1] * math.Exp(drift+vol*normal.Rand())
	}
	return path, nil
}

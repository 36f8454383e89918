package market

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var (
	minDelta = math.Nextafter(0, 1)
	maxDelta = math.Nextafter(1, 0)
)

// Option is a European call priced under Black-Scholes
type Option struct {
	Strike float64
	Rate   float64
	Sigma  float64
}

// Delta of the call, N(d1), with the time to maturity given in calendar days.
// At maturity the delta is 1 strictly in the money and 0 otherwise,
// at the money included. Before maturity it stays strictly inside (0, 1).
func (o Option) Delta(price float64, daysToMaturity int) float64 {
	if daysToMaturity <= 0 {
		if price > o.Strike {
			return 1.0
		}
		return 0.0
	}
	tau := float64(daysToMaturity) / DaysPerYear
	d1 := (math.Log(price/o.Strike) + (o.Rate+0.5*o.Sigma*o.Sigma)*tau) / (o.Sigma * math.Sqrt(tau))
	delta := distuv.UnitNormal.CDF(d1)
	if math.IsNaN(delta) {
		return minDelta
	}
	// N(d1) rounds to exactly 0 or 1 deep out of or in the money
	return math.Min(math.Max(delta, minDelta), maxDelta)
}

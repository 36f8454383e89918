package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/hedge-rl/types"
)

func defaultGBM() GBM {
	return GBM{S0: 100, Rate: 0.05, Sigma: 0.2, Steps: 30}
}

func TestGeneratePathLengthAndPositivity(t *testing.T) {
	path, err := defaultGBM().Generate(7)
	require.NoError(t, err)
	require.Len(t, path, 31)
	assert.Equal(t, 100.0, path[0])
	for i, p := range path {
		assert.Greater(t, p, 0.0, "price at step %d", i)
	}
}

func TestGeneratePathIsReproducible(t *testing.T) {
	g := defaultGBM()
	first, err := GeneratePath(g, 42)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := g.Generate(42)
		require.NoError(t, err)
		for j := range first {
			assert.Equal(t, math.Float64bits(first[j]), math.Float64bits(again[j]))
		}
	}

	other, err := g.Generate(43)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestGeneratePathRejectsBadParameters(t *testing.T) {
	cases := map[string]GBM{
		"zero sigma":     {S0: 100, Rate: 0.05, Sigma: 0, Steps: 30},
		"negative sigma": {S0: 100, Rate: 0.05, Sigma: -0.1, Steps: 30},
		"zero steps":     {S0: 100, Rate: 0.05, Sigma: 0.2, Steps: 0},
		"zero spot":      {S0: 0, Rate: 0.05, Sigma: 0.2, Steps: 30},
	}
	for name, g := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := g.Generate(1)
			assert.ErrorIs(t, err, types.ErrConfiguration)
		})
	}
}

func TestGeneratePathDriftMatchesRiskNeutralMean(t *testing.T) {
	// E[S_T] = S0 * exp(r*T) under the risk-neutral measure
	g := GBM{S0: 100, Rate: 0.05, Sigma: 0.2, Steps: 365}
	n := 4000
	sum := 0.0
	for seed := 0; seed < n; seed++ {
		path, err := g.Generate(uint64(seed))
		require.NoError(t, err)
		sum += path.Final()
	}
	assert.InDelta(t, 100*math.Exp(0.05), sum/float64(n), 1.5)
}

func TestPricePathClone(t *testing.T) {
	p := PricePath{1, 2, 3}
	c := p.Clone()
	c[0] = 10
	assert.Equal(t, 1.0, p[0])
	assert.Equal(t, 3.0, p.Final())
}

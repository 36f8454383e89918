package policies

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/hedge-rl/types"
)

func TestNewQTableShape(t *testing.T) {
	q, err := NewQTable([]int{100, 31, 21, 20}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{100, 31, 21, 20, 3}, q.Shape())
	assert.Equal(t, []int{100, 31, 21, 20}, q.ObservationDims())
	assert.Equal(t, 3, q.Actions())

	v, err := q.Get([]int{99, 30, 20, 19}, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestNewQTableRejectsBadShapes(t *testing.T) {
	_, err := NewQTable(nil, 3)
	assert.ErrorIs(t, err, types.ErrConfiguration)
	_, err = NewQTable([]int{4, 0}, 3)
	assert.ErrorIs(t, err, types.ErrConfiguration)
	_, err = NewQTable([]int{4}, 0)
	assert.ErrorIs(t, err, types.ErrConfiguration)
	_, err = NewQTable([]int{1 << 16, 1 << 16}, 3)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestRowIsRangeChecked(t *testing.T) {
	q, err := NewQTable([]int{2, 3}, 2)
	require.NoError(t, err)

	rows := make(map[int]bool)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			row, err := q.Row([]int{i, j})
			require.NoError(t, err)
			rows[row] = true
		}
	}
	assert.Len(t, rows, 6)

	for _, coords := range [][]int{{2, 0}, {0, 3}, {-1, 0}, {0}, {0, 0, 0}} {
		_, err := q.Row(coords)
		assert.ErrorIs(t, err, types.ErrOutOfRange, "coords %v", coords)
	}
	assert.ErrorIs(t, q.Set([]int{0, 0}, 2, 1), types.ErrOutOfRange)
	_, err = q.Get([]int{0, 0}, -1)
	assert.ErrorIs(t, err, types.ErrOutOfRange)
}

func TestMaxBreaksTiesByLowestIndex(t *testing.T) {
	q, err := NewQTable([]int{2}, 3)
	require.NoError(t, err)

	action, val, err := q.Max([]int{0})
	require.NoError(t, err)
	assert.Equal(t, 0, action)
	assert.Equal(t, 0.0, val)

	require.NoError(t, q.Set([]int{1}, 1, 4))
	require.NoError(t, q.Set([]int{1}, 2, 4))
	action, val, err = q.Max([]int{1})
	require.NoError(t, err)
	assert.Equal(t, 1, action)
	assert.Equal(t, 4.0, val)

	values, err := q.Values([]int{1})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 4, 4}, values)
	values[0] = 100
	v, _ := q.Get([]int{1}, 0)
	assert.Equal(t, 0.0, v)
}

func TestBinaryRoundTripIsLossless(t *testing.T) {
	q, err := NewQTable([]int{3, 4, 2}, 3)
	require.NoError(t, err)
	special := []float64{math.Pi, -1e-300, math.MaxFloat64, math.SmallestNonzeroFloat64, -0.0, 12345.678901234567}
	k := 0
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			for a := 0; a < 3; a++ {
				require.NoError(t, q.Set([]int{i, j, k % 2}, a, special[k%len(special)]*float64(i+1)))
				k++
			}
		}
	}

	bs, err := q.MarshalBinary()
	require.NoError(t, err)
	restored := &QTable{}
	require.NoError(t, restored.UnmarshalBinary(bs))
	assert.True(t, q.Equal(restored))
	assert.Equal(t, q.Shape(), restored.Shape())

	_, err = restored.Row([]int{2, 3, 1})
	assert.NoError(t, err)
}

func TestUnmarshalRejectsMalformedInput(t *testing.T) {
	q, err := NewQTable([]int{2, 2}, 3)
	require.NoError(t, err)
	bs, err := q.MarshalBinary()
	require.NoError(t, err)

	assert.Error(t, (&QTable{}).UnmarshalBinary(nil))
	assert.Error(t, (&QTable{}).UnmarshalBinary([]byte("nope, not a table")))
	assert.Error(t, (&QTable{}).UnmarshalBinary(bs[:len(bs)-5]))

	corrupt := append([]byte{}, bs...)
	corrupt[8] = 3 // first dim no longer matches the stored rows
	assert.Error(t, (&QTable{}).UnmarshalBinary(corrupt))
}

func TestRecordAndLoad(t *testing.T) {
	q, err := NewQTable([]int{5}, 3)
	require.NoError(t, err)
	require.NoError(t, q.Set([]int{4}, 2, -7.5))

	p := filepath.Join(t.TempDir(), "nested", "table.qtable")
	require.NoError(t, q.Record(p))
	loaded, err := LoadQTable(p)
	require.NoError(t, err)
	assert.True(t, q.Equal(loaded))

	_, err = LoadQTable(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	q, err := NewQTable([]int{2}, 2)
	require.NoError(t, err)
	require.NoError(t, q.Set([]int{1}, 1, 3))
	q.Reset()
	v, err := q.Get([]int{1}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

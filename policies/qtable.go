package policies

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeu5/hedge-rl/types"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// maxRows bounds the number of observations a table can index
const maxRows = 1 << 28

var tableMagic = [4]byte{'Q', 'T', 'B', 'L'}

// QTable is a dense action-value table. Each observation, given as coordinates
// within ObservationDims, maps to one row with a column per action.
type QTable struct {
	dims    []int
	strides []int
	actions int
	values  *mat.Dense
}

// NewQTable allocates a zeroed table for the observation dims and action count
func NewQTable(dims []int, actions int) (*QTable, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: table needs at least one observation dimension", types.ErrConfiguration)
	}
	if actions <= 0 {
		return nil, fmt.Errorf("%w: action count must be positive, got %d", types.ErrConfiguration, actions)
	}
	strides := make([]int, len(dims))
	rows := 1
	for i := len(dims) - 1; i >= 0; i-- {
		if dims[i] <= 0 {
			return nil, fmt.Errorf("%w: dimension %d must be positive, got %d", types.ErrConfiguration, i, dims[i])
		}
		strides[i] = rows
		rows *= dims[i]
		if rows > maxRows {
			return nil, fmt.Errorf("%w: table with dims %v is too large", types.ErrConfiguration, dims)
		}
	}
	d := make([]int, len(dims))
	copy(d, dims)
	return &QTable{
		dims:    d,
		strides: strides,
		actions: actions,
		values:  mat.NewDense(rows, actions, nil),
	}, nil
}

// Shape is the observation dims followed by the action count
func (q *QTable) Shape() []int {
	shape := make([]int, 0, len(q.dims)+1)
	shape = append(shape, q.dims...)
	return append(shape, q.actions)
}

func (q *QTable) ObservationDims() []int {
	d := make([]int, len(q.dims))
	copy(d, q.dims)
	return d
}

func (q *QTable) Actions() int {
	return q.actions
}

// Row converts observation coordinates to the table row.
// Every access goes through here; coordinates outside the dims are an error, never wrapped.
func (q *QTable) Row(coords []int) (int, error) {
	if len(coords) != len(q.dims) {
		return 0, fmt.Errorf("%w: observation has %d coordinates, table expects %d", types.ErrOutOfRange, len(coords), len(q.dims))
	}
	row := 0
	for i, c := range coords {
		if c < 0 || c >= q.dims[i] {
			return 0, fmt.Errorf("%w: coordinate %d is %d, must be in [0, %d)", types.ErrOutOfRange, i, c, q.dims[i])
		}
		row += c * q.strides[i]
	}
	return row, nil
}

func (q *QTable) checkAction(action int) error {
	if action < 0 || action >= q.actions {
		return fmt.Errorf("%w: action %d, must be in [0, %d)", types.ErrOutOfRange, action, q.actions)
	}
	return nil
}

func (q *QTable) Get(coords []int, action int) (float64, error) {
	row, err := q.Row(coords)
	if err != nil {
		return 0, err
	}
	if err := q.checkAction(action); err != nil {
		return 0, err
	}
	return q.values.At(row, action), nil
}

func (q *QTable) Set(coords []int, action int, val float64) error {
	row, err := q.Row(coords)
	if err != nil {
		return err
	}
	if err := q.checkAction(action); err != nil {
		return err
	}
	q.values.Set(row, action, val)
	return nil
}

// Values returns a copy of the action values of the observation
func (q *QTable) Values(coords []int) ([]float64, error) {
	row, err := q.Row(coords)
	if err != nil {
		return nil, err
	}
	return mat.Row(nil, row, q.values), nil
}

// Max returns the best action of the observation and its value.
// Ties go to the lowest action index.
func (q *QTable) Max(coords []int) (int, float64, error) {
	row, err := q.Row(coords)
	if err != nil {
		return 0, 0, err
	}
	vals := q.values.RawRowView(row)
	i := floats.MaxIdx(vals)
	return i, vals[i], nil
}

// Reset zeroes every value
func (q *QTable) Reset() {
	q.values.Zero()
}

// Equal reports whether both tables have the same shape and identical values
func (q *QTable) Equal(other *QTable) bool {
	if other == nil || q.actions != other.actions || len(q.dims) != len(other.dims) {
		return false
	}
	for i := range q.dims {
		if q.dims[i] != other.dims[i] {
			return false
		}
	}
	return mat.Equal(q.values, other.values)
}

// MarshalBinary encodes the shape header followed by the raw float64 values
func (q *QTable) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(tableMagic[:])
	header := make([]uint32, 0, len(q.dims)+2)
	header = append(header, uint32(len(q.dims)))
	for _, d := range q.dims {
		header = append(header, uint32(d))
	}
	header = append(header, uint32(q.actions))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, err
	}
	if _, err := q.values.MarshalBinaryTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary restores a table written by MarshalBinary
func (q *QTable) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	var magic [4]byte
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil || magic != tableMagic {
		return fmt.Errorf("not a q-table: bad header")
	}
	var rank uint32
	if err := binary.Read(r, binary.LittleEndian, &rank); err != nil {
		return fmt.Errorf("reading q-table rank: %w", err)
	}
	if rank == 0 || rank > 16 {
		return fmt.Errorf("q-table rank %d not supported", rank)
	}
	header := make([]uint32, rank+1)
	if err := binary.Read(r, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("reading q-table shape: %w", err)
	}
	dims := make([]int, rank)
	for i := range dims {
		dims[i] = int(header[i])
	}
	table, err := NewQTable(dims, int(header[rank]))
	if err != nil {
		return err
	}

	var values mat.Dense
	if _, err := values.UnmarshalBinaryFrom(r); err != nil {
		return fmt.Errorf("reading q-table values: %w", err)
	}
	rows, cols := values.Dims()
	wantRows, wantCols := table.values.Dims()
	if rows != wantRows || cols != wantCols {
		return fmt.Errorf("q-table values are %dx%d, shape %v needs %dx%d", rows, cols, table.Shape(), wantRows, wantCols)
	}
	table.values = &values
	*q = *table
	return nil
}

// Record writes the encoded table to the given file
func (q *QTable) Record(p string) error {
	bs, err := q.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0777); err != nil {
		return err
	}
	return os.WriteFile(p, bs, 0644)
}

// LoadQTable reads a table written by Record
func LoadQTable(p string) (*QTable, error) {
	bs, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	q := &QTable{}
	if err := q.UnmarshalBinary(bs); err != nil {
		return nil, fmt.Errorf("loading %s: %w", p, err)
	}
	return q, nil
}

package corpus

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense embedding matrix, one row per speech, row-aligned with a
// Table. Any filtering of the table must filter the matrix with the same mask.
type Matrix struct {
	m *mat.Dense
}

// NewMatrix builds a Matrix from row vectors. All rows must share one
// dimension and at least one row is required.
func NewMatrix(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("corpus: empty embedding matrix")
	}
	dim := len(rows[0])
	if dim == 0 {
		return nil, fmt.Errorf("corpus: zero-dimensional embeddings")
	}
	data := make([]float64, 0, len(rows)*dim)
	for i, r := range rows {
		if len(r) != dim {
			return nil, fmt.Errorf("corpus: embedding row %d has dim %d, want %d", i, len(r), dim)
		}
		data = append(data, r...)
	}
	return &Matrix{m: mat.NewDense(len(rows), dim, data)}, nil
}

// Rows returns the row count.
func (e *Matrix) Rows() int {
	r, _ := e.m.Dims()
	return r
}

// Dim returns the embedding dimension.
func (e *Matrix) Dim() int {
	_, c := e.m.Dims()
	return c
}

// Row returns a copy of row i.
func (e *Matrix) Row(i int) []float64 {
	return mat.Row(nil, i, e.m)
}

// Dense exposes the underlying matrix for read-only numeric code.
func (e *Matrix) Dense() *mat.Dense { return e.m }

// Select returns a new Matrix containing the rows where mask is true.
func (e *Matrix) Select(mask []bool) (*Matrix, error) {
	r, c := e.m.Dims()
	if len(mask) != r {
		return nil, fmt.Errorf("corpus: mask has %d rows, matrix has %d", len(mask), r)
	}
	n := 0
	for _, keep := range mask {
		if keep {
			n++
		}
	}
	if n == 0 {
		return nil, fmt.Errorf("corpus: mask selects no rows")
	}
	out := mat.NewDense(n, c, nil)
	j := 0
	for i, keep := range mask {
		if keep {
			out.SetRow(j, mat.Row(nil, i, e.m))
			j++
		}
	}
	return &Matrix{m: out}, nil
}

// MeanRows returns the mean embedding over the rows where mask is true.
// A mask selecting no rows yields the zero vector, never NaN.
func (e *Matrix) MeanRows(mask []bool) []float64 {
	r, c := e.m.Dims()
	sum := make([]float64, c)
	n := 0
	for i := 0; i < r && i < len(mask); i++ {
		if !mask[i] {
			continue
		}
		row := e.m.RawRowView(i)
		for j, v := range row {
			sum[j] += v
		}
		n++
	}
	if n == 0 {
		return sum
	}
	for j := range sum {
		sum[j] /= float64(n)
	}
	return sum
}

// Mean returns the mean embedding over all rows.
func (e *Matrix) Mean() []float64 {
	mask := make([]bool, e.Rows())
	for i := range mask {
		mask[i] = true
	}
	return e.MeanRows(mask)
}

// SelectAligned filters a table and its embedding matrix with one mask,
// preserving the row-alignment invariant.
func SelectAligned(t *Table, e *Matrix, mask []bool) (*Table, *Matrix, error) {
	if e != nil && t.Len() != e.Rows() {
		return nil, nil, fmt.Errorf("corpus: table has %d rows, matrix has %d", t.Len(), e.Rows())
	}
	ft, err := t.Select(mask)
	if err != nil {
		return nil, nil, err
	}
	if e == nil {
		return ft, nil, nil
	}
	fe, err := e.Select(mask)
	if err != nil {
		return nil, nil, err
	}
	return ft, fe, nil
}

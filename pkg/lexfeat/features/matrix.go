package features

import (
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a binary sparse matrix in compressed-row form: one row per
// candidate, one column per feature. Cells are 0 or 1.
type Matrix struct {
	rows, cols int
	indptr     []int
	indices    []int
}

var _ mat.Matrix = (*Matrix)(nil)

// newMatrix builds a matrix from per-row column lists. Duplicate columns in a
// row collapse to a single 1.
func newMatrix(rows [][]int, cols int) *Matrix {
	m := &Matrix{
		rows:   len(rows),
		cols:   cols,
		indptr: make([]int, 1, len(rows)+1),
	}
	for _, r := range rows {
		r = slices.Clone(r)
		slices.Sort(r)
		r = slices.Compact(r)
		m.indices = append(m.indices, r...)
		m.indptr = append(m.indptr, len(m.indices))
	}
	return m
}

// Dims returns the number of rows and columns.
func (m *Matrix) Dims() (r, c int) {
	return m.rows, m.cols
}

// At returns 1 when candidate i has feature j. It panics on out-of-range
// indexes like the dense gonum types.
func (m *Matrix) At(i, j int) float64 {
	if m.Has(i, j) {
		return 1
	}
	return 0
}

// T returns an implicit transpose.
func (m *Matrix) T() mat.Matrix {
	return mat.Transpose{Matrix: m}
}

// Has reports whether cell (i, j) is set.
func (m *Matrix) Has(i, j int) bool {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(mat.ErrIndexOutOfRange)
	}
	_, found := slices.BinarySearch(m.Row(i), j)
	return found
}

// Row returns the sorted set columns of row i. The slice must not be modified.
func (m *Matrix) Row(i int) []int {
	return m.indices[m.indptr[i]:m.indptr[i+1]]
}

// NNZ returns the number of set cells.
func (m *Matrix) NNZ() int {
	return len(m.indices)
}

// DoNonZero calls fn for every set cell in row-major order.
func (m *Matrix) DoNonZero(fn func(i, j int)) {
	for i := 0; i < m.rows; i++ {
		for _, j := range m.Row(i) {
			fn(i, j)
		}
	}
}

// Equal reports whether both matrices have the same shape and cells.
func (m *Matrix) Equal(o *Matrix) bool {
	return m.rows == o.rows && m.cols == o.cols &&
		slices.Equal(m.indptr, o.indptr) && slices.Equal(m.indices, o.indices)
}

// Dense copies the matrix into a gonum dense matrix.
func (m *Matrix) Dense() *mat.Dense {
	if m.rows == 0 || m.cols == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(m.rows, m.cols, nil)
	m.DoNonZero(func(i, j int) { d.Set(i, j, 1) })
	return d
}

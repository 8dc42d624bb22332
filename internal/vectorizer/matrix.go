package vectorizer

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Entry is one (row, column, value) triple of a sparse matrix
type Entry struct {
	Row   int     `json:"row"`
	Col   int     `json:"col"`
	Value float64 `json:"value"`
}

// Matrix is a compressed sparse row matrix. Row i holds the features of the
// i-th message of a batch.
type Matrix struct {
	rows, cols int
	indptr     []int
	indices    []int
	data       []float64
}

var _ mat.Matrix = (*Matrix)(nil)

// NewMatrix assembles a rows×cols matrix from triples. Entries sharing a
// position are summed. It panics if an entry lies outside the matrix.
func NewMatrix(rows, cols int, entries []Entry) *Matrix {
	perRow := make([]map[int]float64, rows)
	for _, e := range entries {
		if e.Row < 0 || e.Row >= rows || e.Col < 0 || e.Col >= cols {
			panic(mat.ErrIndexOutOfRange)
		}
		if perRow[e.Row] == nil {
			perRow[e.Row] = make(map[int]float64)
		}
		perRow[e.Row][e.Col] += e.Value
	}

	m := &Matrix{
		rows:   rows,
		cols:   cols,
		indptr: make([]int, rows+1),
	}
	for i, row := range perRow {
		keys := make([]int, 0, len(row))
		for j := range row {
			keys = append(keys, j)
		}
		sort.Ints(keys)
		for _, j := range keys {
			m.indices = append(m.indices, j)
			m.data = append(m.data, row[j])
		}
		m.indptr[i+1] = len(m.indices)
	}
	return m
}

// Dims returns the number of rows and columns
func (m *Matrix) Dims() (r, c int) {
	return m.rows, m.cols
}

// At returns the value at row i, column j
func (m *Matrix) At(i, j int) float64 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(mat.ErrIndexOutOfRange)
	}
	start, end := m.indptr[i], m.indptr[i+1]
	k := sort.SearchInts(m.indices[start:end], j)
	if k < end-start && m.indices[start+k] == j {
		return m.data[start+k]
	}
	return 0
}

// T returns the transpose of the matrix
func (m *Matrix) T() mat.Matrix {
	return mat.Transpose{Matrix: m}
}

// NNZ returns the number of stored non-zero entries
func (m *Matrix) NNZ() int {
	return len(m.data)
}

// DoNonZero calls fn for each stored entry in row-major order
func (m *Matrix) DoNonZero(fn func(i, j int, v float64)) {
	for i := 0; i < m.rows; i++ {
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			fn(i, m.indices[k], m.data[k])
		}
	}
}

// Row returns the stored entries of row i
func (m *Matrix) Row(i int) []Entry {
	if i < 0 || i >= m.rows {
		panic(mat.ErrRowAccess)
	}
	entries := make([]Entry, 0, m.indptr[i+1]-m.indptr[i])
	for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
		entries = append(entries, Entry{Row: i, Col: m.indices[k], Value: m.data[k]})
	}
	return entries
}

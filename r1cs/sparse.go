package r1cs

import (
	"fmt"
	"sort"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// SparseMatrix is a row-major CSR matrix of interned coefficients. Within a
// row, columns are strictly increasing and no explicit zeros are stored.
type SparseMatrix struct {
	NumRows int
	NumCols int
	// RowStarts[r] is the index of the first entry of row r; row r ends at
	// RowStarts[r+1], or at len(Cols) for the last row.
	RowStarts []uint32
	Cols      []uint32
	Values    []InternedElement
}

func NewSparseMatrix(rows, cols int) *SparseMatrix {
	return &SparseMatrix{
		NumRows:   rows,
		NumCols:   cols,
		RowStarts: make([]uint32, rows),
	}
}

func (m *SparseMatrix) rowRange(r int) (int, int) {
	start := int(m.RowStarts[r])
	end := len(m.Cols)
	if r+1 < m.NumRows {
		end = int(m.RowStarts[r+1])
	}
	return start, end
}

// Grow extends the matrix. Shrinking is disallowed.
func (m *SparseMatrix) Grow(rows, cols int) {
	if rows < m.NumRows || cols < m.NumCols {
		panic(fmt.Sprintf("sparse matrix: cannot shrink %dx%d to %dx%d", m.NumRows, m.NumCols, rows, cols))
	}
	for r := m.NumRows; r < rows; r++ {
		m.RowStarts = append(m.RowStarts, uint32(len(m.Cols)))
	}
	m.NumRows = rows
	m.NumCols = cols
}

// Set inserts or overwrites the entry at (row, col). Callers must Grow
// first; out-of-bounds indices panic.
func (m *SparseMatrix) Set(row, col int, v InternedElement) {
	if row >= m.NumRows || col >= m.NumCols {
		panic(fmt.Sprintf("sparse matrix: set (%d,%d) out of bounds %dx%d", row, col, m.NumRows, m.NumCols))
	}
	start, end := m.rowRange(row)
	seg := m.Cols[start:end]
	pos := start + sort.Search(len(seg), func(i int) bool { return seg[i] >= uint32(col) })
	if pos < end && m.Cols[pos] == uint32(col) {
		m.Values[pos] = v
		return
	}
	m.Cols = append(m.Cols, 0)
	copy(m.Cols[pos+1:], m.Cols[pos:])
	m.Cols[pos] = uint32(col)
	m.Values = append(m.Values, 0)
	copy(m.Values[pos+1:], m.Values[pos:])
	m.Values[pos] = v
	for r := row + 1; r < m.NumRows; r++ {
		m.RowStarts[r]++
	}
}

// Row returns the column indices and values of row r in ascending column
// order. The returned slices alias the matrix.
func (m *SparseMatrix) Row(r int) ([]uint32, []InternedElement) {
	start, end := m.rowRange(r)
	return m.Cols[start:end], m.Values[start:end]
}

// NumNonZero returns the number of stored entries.
func (m *SparseMatrix) NumNonZero() int {
	return len(m.Cols)
}

// RemapColumns replaces every column index c by f(c) and restores the
// per-row ordering. Values are untouched.
func (m *SparseMatrix) RemapColumns(f func(int) int) {
	for i := range m.Cols {
		m.Cols[i] = uint32(f(int(m.Cols[i])))
	}
	for r := 0; r < m.NumRows; r++ {
		start, end := m.rowRange(r)
		rv := rowView{cols: m.Cols[start:end], vals: m.Values[start:end]}
		sort.Sort(rv)
	}
}

type rowView struct {
	cols []uint32
	vals []InternedElement
}

func (v rowView) Len() int           { return len(v.cols) }
func (v rowView) Less(i, j int) bool { return v.cols[i] < v.cols[j] }
func (v rowView) Swap(i, j int) {
	v.cols[i], v.cols[j] = v.cols[j], v.cols[i]
	v.vals[i], v.vals[j] = v.vals[j], v.vals[i]
}

// MulRight computes M*z, materializing coefficients through the interner.
func (m *SparseMatrix) MulRight(t *Interner, z []fr.Element) []fr.Element {
	if len(z) != m.NumCols {
		panic(fmt.Sprintf("sparse matrix: vector length %d != %d cols", len(z), m.NumCols))
	}
	out := make([]fr.Element, m.NumRows)
	for r := 0; r < m.NumRows; r++ {
		start, end := m.rowRange(r)
		var acc, term fr.Element
		for i := start; i < end; i++ {
			v := t.Get(m.Values[i])
			term.Mul(&v, &z[m.Cols[i]])
			acc.Add(&acc, &term)
		}
		out[r] = acc
	}
	return out
}

// MulLeft computes x*M for a dense row vector x.
func (m *SparseMatrix) MulLeft(t *Interner, x []fr.Element) []fr.Element {
	if len(x) != m.NumRows {
		panic(fmt.Sprintf("sparse matrix: vector length %d != %d rows", len(x), m.NumRows))
	}
	out := make([]fr.Element, m.NumCols)
	var term fr.Element
	for r := 0; r < m.NumRows; r++ {
		start, end := m.rowRange(r)
		for i := start; i < end; i++ {
			v := t.Get(m.Values[i])
			term.Mul(&v, &x[r])
			c := m.Cols[i]
			out[c].Add(&out[c], &term)
		}
	}
	return out
}

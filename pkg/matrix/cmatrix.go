package matrix

import (
	"fmt"
	"sort"
)

// CMatrix is a sparse complex matrix in compressed-row form, 0-based.
// It holds the network admittance matrices; the Newton system itself is
// real and lives in System.
type CMatrix struct {
	rows, cols int
	rowPtr     []int
	colIdx     []int
	vals       []complex128
}

type CBuilder struct {
	rows, cols int
	ri, ci     []int
	vals       []complex128
}

func NewCBuilder(rows, cols int) *CBuilder {
	return &CBuilder{rows: rows, cols: cols}
}

func (b *CBuilder) Add(i, j int, v complex128) {
	if i < 0 || j < 0 || i >= b.rows || j >= b.cols {
		fmt.Printf("Warning: matrix index out of bounds (i=%d, j=%d, rows=%d, cols=%d)\n", i, j, b.rows, b.cols)
		return
	}
	b.ri = append(b.ri, i)
	b.ci = append(b.ci, j)
	b.vals = append(b.vals, v)
}

// Build sorts and merges the accumulated entries into compressed-row form.
func (b *CBuilder) Build() *CMatrix {
	order := make([]int, len(b.vals))
	for k := range order {
		order[k] = k
	}
	sort.Slice(order, func(x, y int) bool {
		kx, ky := order[x], order[y]
		if b.ri[kx] != b.ri[ky] {
			return b.ri[kx] < b.ri[ky]
		}
		return b.ci[kx] < b.ci[ky]
	})

	m := &CMatrix{rows: b.rows, cols: b.cols, rowPtr: make([]int, b.rows+1)}
	prevRow, prevCol := -1, -1
	for _, k := range order {
		i, j, v := b.ri[k], b.ci[k], b.vals[k]
		if i == prevRow && j == prevCol {
			m.vals[len(m.vals)-1] += v
			continue
		}
		m.colIdx = append(m.colIdx, j)
		m.vals = append(m.vals, v)
		prevRow, prevCol = i, j
		m.rowPtr[i+1] = len(m.vals)
	}
	for i := 1; i <= b.rows; i++ {
		if m.rowPtr[i] == 0 {
			m.rowPtr[i] = m.rowPtr[i-1]
		}
	}
	return m
}

func (m *CMatrix) Rows() int { return m.rows }
func (m *CMatrix) Cols() int { return m.cols }

func (m *CMatrix) At(i, j int) complex128 {
	for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
		if m.colIdx[k] == j {
			return m.vals[k]
		}
	}
	return 0
}

// MulVec computes y = M*x.
func (m *CMatrix) MulVec(x []complex128) []complex128 {
	y := make([]complex128, m.rows)
	for i := 0; i < m.rows; i++ {
		var sum complex128
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			sum += m.vals[k] * x[m.colIdx[k]]
		}
		y[i] = sum
	}
	return y
}

// Nonzeros visits every stored entry in row order.
func (m *CMatrix) Nonzeros(fn func(i, j int, v complex128)) {
	for i := 0; i < m.rows; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			fn(i, m.colIdx[k], m.vals[k])
		}
	}
}

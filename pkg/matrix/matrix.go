package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
	"gonum.org/v1/gonum/mat"
)

type Backend int

const (
	BackendSparse Backend = iota
	BackendDense
)

// System is the real-valued linear system J*dx = rhs solved once per Newton
// iteration. Entries are accumulated with 1-based indices and kept in
// coordinate form; Solve loads them into the selected backend.
type System struct {
	Size    int
	backend Backend

	rows []int
	cols []int
	vals []float64
	slot map[int]int

	sp        *sparse.Matrix
	spRHS     []float64
	ordered   bool
	relThresh float64
	diagPivot bool
}

func NewSystem(size int, backend Backend, pivotThreshold float64, diagPivoting bool) (*System, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid system size: %d", size)
	}

	s := &System{
		Size:      size,
		backend:   backend,
		slot:      make(map[int]int),
		relThresh: pivotThreshold,
		diagPivot: diagPivoting,
	}

	if backend == BackendSparse {
		// Translate must stay on: entries are restamped by external index
		// every iteration, after the first factorization has reordered the
		// matrix internally.
		config := &sparse.Configuration{
			Real:           true,
			Complex:        false,
			Expandable:     true,
			Translate:      true,
			ModifiedNodal:  false,
			TiesMultiplier: 5,
			PrinterWidth:   140,
			Annotate:       0,
		}

		m, err := sparse.Create(int64(size), config)
		if err != nil {
			return nil, fmt.Errorf("creating sparse matrix: %v", err)
		}
		s.sp = m
		s.spRHS = make([]float64, size+1) // 1-based indexing
	}

	return s, nil
}

// Add accumulates value at (i, j), 1-based.
func (s *System) Add(i, j int, value float64) {
	if i <= 0 || j <= 0 || i > s.Size || j > s.Size {
		fmt.Printf("Warning: matrix index out of bounds (i=%d, j=%d, size=%d)\n", i, j, s.Size)
		return
	}

	key := (i-1)*s.Size + (j - 1)
	if k, ok := s.slot[key]; ok {
		s.vals[k] += value
		return
	}
	s.slot[key] = len(s.vals)
	s.rows = append(s.rows, i)
	s.cols = append(s.cols, j)
	s.vals = append(s.vals, value)
}

func (s *System) Clear() {
	s.rows = s.rows[:0]
	s.cols = s.cols[:0]
	s.vals = s.vals[:0]
	for k := range s.slot {
		delete(s.slot, k)
	}
}

// Solve solves J*x = rhs for x. rhs and the returned solution are 0-based.
// A singular matrix is a terminal error.
func (s *System) Solve(rhs []float64) ([]float64, error) {
	if len(rhs) != s.Size {
		return nil, fmt.Errorf("rhs size %d does not match system size %d", len(rhs), s.Size)
	}

	if s.backend == BackendDense {
		return s.solveDense(rhs)
	}
	return s.solveSparse(rhs)
}

func (s *System) solveSparse(rhs []float64) ([]float64, error) {
	s.sp.Clear()
	for k := range s.vals {
		s.sp.GetElement(int64(s.rows[k]), int64(s.cols[k])).Real += s.vals[k]
	}

	for i := 0; i < s.Size; i++ {
		s.spRHS[i+1] = rhs[i]
	}

	var err error
	if !s.ordered {
		err = s.sp.OrderAndFactor(s.spRHS, s.relThresh, 0.0, s.diagPivot)
		s.ordered = err == nil
	} else {
		err = s.sp.Factor()
	}
	if err != nil {
		return nil, fmt.Errorf("matrix factorization failed: %v", err)
	}

	solution, err := s.sp.Solve(s.spRHS)
	if err != nil {
		return nil, fmt.Errorf("matrix solve failed: %v", err)
	}

	x := make([]float64, s.Size)
	for i := 0; i < s.Size; i++ {
		x[i] = solution[i+1]
	}
	return x, nil
}

func (s *System) solveDense(rhs []float64) ([]float64, error) {
	a := mat.NewDense(s.Size, s.Size, nil)
	for k := range s.vals {
		i, j := s.rows[k]-1, s.cols[k]-1
		a.Set(i, j, a.At(i, j)+s.vals[k])
	}

	var lu mat.LU
	lu.Factorize(a)

	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, mat.NewVecDense(s.Size, rhs)); err != nil {
		return nil, fmt.Errorf("matrix solve failed: %v", err)
	}

	out := make([]float64, s.Size)
	for i := 0; i < s.Size; i++ {
		out[i] = x.AtVec(i)
	}
	return out, nil
}

// Snapshot returns a copy of the current entries in coordinate form.
func (s *System) Snapshot() *Coo {
	c := &Coo{
		Size: s.Size,
		Rows: make([]int, len(s.rows)),
		Cols: make([]int, len(s.cols)),
		Vals: make([]float64, len(s.vals)),
	}
	copy(c.Rows, s.rows)
	copy(c.Cols, s.cols)
	copy(c.Vals, s.vals)
	return c
}

func (s *System) Destroy() {
	if s.sp != nil {
		s.sp.Destroy()
	}
}

// Coo is a square real matrix in coordinate form, 1-based indices.
type Coo struct {
	Size int
	Rows []int
	Cols []int
	Vals []float64
}

func (c *Coo) At(i, j int) float64 {
	v := 0.0
	for k := range c.Vals {
		if c.Rows[k] == i && c.Cols[k] == j {
			v += c.Vals[k]
		}
	}
	return v
}

func (c *Coo) Dense() *mat.Dense {
	d := mat.NewDense(c.Size, c.Size, nil)
	for k := range c.Vals {
		i, j := c.Rows[k]-1, c.Cols[k]-1
		d.Set(i, j, d.At(i, j)+c.Vals[k])
	}
	return d
}

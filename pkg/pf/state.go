package pf

import (
	"math/cmplx"
)

// state holds the iterate of one solve: complex bus voltages with their
// magnitude/angle decomposition, the distributed-slack scalar and the
// per-branch temperature block, plus the optional debug trace.
type state struct {
	v      []complex128
	vm, va []float64
	slack  float64
	temp   []float64 // per-unit conductor temperatures

	debug  bool
	vmHist [][]float64
	vaHist [][]float64
}

func newState(v0 []complex128, debug bool) *state {
	st := &state{
		v:     append([]complex128{}, v0...),
		vm:    make([]float64, len(v0)),
		va:    make([]float64, len(v0)),
		debug: debug,
	}
	for i, v := range v0 {
		st.vm[i] = cmplx.Abs(v)
		st.va[i] = cmplx.Phase(v)
	}
	if debug {
		st.pushTrace()
	}
	return st
}

// applyDelta adds the Newton step to the unknowns segment by segment.
func (st *state) applyDelta(dx []float64, p *Partition) {
	seg := p.Seg
	for i, b := range p.PV {
		st.va[b] += dx[seg.J1+i]
	}
	for i, b := range p.PQ {
		st.va[b] += dx[seg.J3+i]
		st.vm[b] += dx[seg.J5+i]
	}
	for k := seg.J7; k < seg.J8; k++ {
		st.slack += dx[k]
	}
	if seg.TempIdx >= 0 {
		for k := 0; k < seg.NBranch; k++ {
			st.temp[k] += dx[seg.TempIdx+k]
		}
	}
}

// recompose rebuilds the complex voltages from magnitude and angle, then
// re-derives both from the rectangular form. A step that drives a
// magnitude negative is corrected here instead of leaking into the next
// mismatch evaluation.
func (st *state) recompose() {
	for i := range st.v {
		st.v[i] = cmplx.Rect(st.vm[i], st.va[i])
		st.vm[i] = cmplx.Abs(st.v[i])
		st.va[i] = cmplx.Phase(st.v[i])
	}
	if st.debug {
		st.pushTrace()
	}
}

func (st *state) pushTrace() {
	st.vmHist = append(st.vmHist, append([]float64{}, st.vm...))
	st.vaHist = append(st.vaHist, append([]float64{}, st.va...))
}

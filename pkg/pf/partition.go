package pf

import (
	"fmt"

	"github.com/gridkit/powerflow/pkg/jacobian"
)

// Segments marks the boundaries of the Newton unknown vector: angle deltas
// for voltage-controlled buses [J1:J2), angle deltas for load buses
// [J3:J4), magnitude deltas for load buses [J5:J6), the distributed-slack
// scalar [J7:J8) and the branch temperature block starting at TempIdx.
type Segments struct {
	J1, J2, J3, J4, J5, J6, J7, J8 int
	TempIdx                        int // -1 when thermal coupling is off
	NBranch                        int
	Size                           int
	HasSlack                       bool
}

// Partition is the immutable bus classification of one solve: the category
// index sets after distributed-slack reclassification, the row/column maps
// consumed by mismatch evaluation and Jacobian assembly, and the segment
// offsets of the unknown vector.
type Partition struct {
	N          int
	Ref, PV, PQ []int
	Maps       *jacobian.Maps
	Seg        Segments
}

// NewPartition classifies buses and builds the index maps. With distributed
// slack, every reference bus but the first is reclassified as
// voltage-controlled and the remaining one anchors the slack variable.
func NewPartition(n int, ref, pv, pq []int, distSlack bool, nBranch int, thermal bool) (*Partition, error) {
	if len(ref) == 0 {
		return nil, fmt.Errorf("no reference bus")
	}
	if len(ref)+len(pv)+len(pq) != n {
		return nil, fmt.Errorf("bus sets cover %d buses, admittance matrix has %d",
			len(ref)+len(pv)+len(pq), n)
	}

	seen := make([]bool, n)
	for _, set := range [][]int{ref, pv, pq} {
		for _, b := range set {
			if b < 0 || b >= n {
				return nil, fmt.Errorf("bus index %d out of range [0, %d)", b, n)
			}
			if seen[b] {
				return nil, fmt.Errorf("bus %d appears in more than one category", b)
			}
			seen[b] = true
		}
	}

	p := &Partition{N: n}
	p.Ref = append(p.Ref, ref...)
	p.PV = append(p.PV, pv...)
	p.PQ = append(p.PQ, pq...)

	if distSlack && len(p.Ref) > 1 {
		p.PV = append(append([]int{}, p.Ref[1:]...), p.PV...)
		p.Ref = p.Ref[:1]
	}

	nref, npv, npq := len(p.Ref), len(p.PV), len(p.PQ)

	seg := Segments{
		J1: 0, J2: npv,
		J3: npv, J4: npv + npq,
		J5: npv + npq, J6: npv + 2*npq,
		J7: npv + 2*npq, J8: npv + 2*npq,
		TempIdx:  -1,
		NBranch:  nBranch,
		HasSlack: distSlack,
	}
	if distSlack {
		seg.J8 = seg.J7 + nref
	}
	seg.Size = seg.J8
	if thermal {
		seg.TempIdx = seg.Size
		seg.Size += nBranch
	}

	m := &jacobian.Maps{
		PRow:     make([]int, n),
		QRow:     make([]int, n),
		VaCol:    make([]int, n),
		VmCol:    make([]int, n),
		SlackCol: -1,
	}
	for i := range m.PRow {
		m.PRow[i], m.QRow[i], m.VaCol[i], m.VmCol[i] = -1, -1, -1, -1
	}

	// P rows: reference buses first when the slack is distributed, then
	// voltage-controlled, then load buses. Columns follow the segment order.
	row := 0
	if distSlack {
		for _, b := range p.Ref {
			m.PRow[b] = row
			row++
		}
		m.SlackCol = seg.J7
	}
	for i, b := range p.PV {
		m.PRow[b] = row
		row++
		m.VaCol[b] = seg.J1 + i
	}
	for i, b := range p.PQ {
		m.PRow[b] = row
		row++
		m.VaCol[b] = seg.J3 + i
		m.VmCol[b] = seg.J5 + i
	}
	for i, b := range p.PQ {
		m.QRow[b] = row + i
	}

	p.Maps = m
	p.Seg = seg
	return p, nil
}

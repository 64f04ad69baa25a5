// Package jacobian builds the power-flow Jacobian in the reduced ordering
// of the Newton system: dP/dVa and dP/dVm rows for every bus with a real
// power equation, dQ rows for load buses, plus the distributed-slack column
// and the thermal extension blocks when those unknowns are present.
package jacobian

import (
	"math/cmplx"

	"github.com/gridkit/powerflow/pkg/matrix"
)

// Maps translates network bus indices into Newton-system positions.
// All positions are 0-based; -1 marks a bus without that row or column.
type Maps struct {
	PRow  []int // real power mismatch row per bus
	QRow  []int // reactive power mismatch row per bus
	VaCol []int // voltage angle column per bus
	VmCol []int // voltage magnitude column per bus

	SlackCol int // distributed slack column, -1 when inactive
}

// Assemble stamps dS/dVa and dS/dVm for every nonzero of the admittance
// matrix, iterating the sparse structure directly.
func Assemble(a matrix.Assembler, y *matrix.CMatrix, v []complex128, m *Maps, slackWeights []float64) {
	ibus := y.MulVec(v)
	vnorm := make([]complex128, len(v))
	for i := range v {
		vnorm[i] = v[i] / complex(cmplx.Abs(v[i]), 0)
	}

	y.Nonzeros(func(i, j int, yv complex128) {
		var dva, dvm complex128
		if i == j {
			dva = 1i * v[i] * cmplx.Conj(ibus[i]-yv*v[i])
			dvm = v[i]*cmplx.Conj(yv*vnorm[i]) + cmplx.Conj(ibus[i])*vnorm[i]
		} else {
			dva = 1i * v[i] * cmplx.Conj(-yv*v[j])
			dvm = v[i] * cmplx.Conj(yv*vnorm[j])
		}

		if r := m.PRow[i]; r >= 0 {
			if c := m.VaCol[j]; c >= 0 {
				a.Add(r+1, c+1, real(dva))
			}
			if c := m.VmCol[j]; c >= 0 {
				a.Add(r+1, c+1, real(dvm))
			}
		}
		if r := m.QRow[i]; r >= 0 {
			if c := m.VaCol[j]; c >= 0 {
				a.Add(r+1, c+1, imag(dva))
			}
			if c := m.VmCol[j]; c >= 0 {
				a.Add(r+1, c+1, imag(dvm))
			}
		}
	})

	if m.SlackCol >= 0 {
		for i := range v {
			if r := m.PRow[i]; r >= 0 {
				a.Add(r+1, m.SlackCol+1, slackWeights[i])
			}
		}
	}
}

// AssembleDense is the reference strategy: it forms the full dS/dV
// matrices densely before reduction. Slower, kept for cross-checking the
// sparse assembly.
func AssembleDense(a matrix.Assembler, y *matrix.CMatrix, v []complex128, m *Maps, slackWeights []float64) {
	n := len(v)
	ibus := y.MulVec(v)

	dva := make([][]complex128, n)
	dvm := make([][]complex128, n)
	for i := 0; i < n; i++ {
		dva[i] = make([]complex128, n)
		dvm[i] = make([]complex128, n)
		vni := v[i] / complex(cmplx.Abs(v[i]), 0)
		for j := 0; j < n; j++ {
			yv := y.At(i, j)
			vnj := v[j] / complex(cmplx.Abs(v[j]), 0)
			if i == j {
				dva[i][j] = 1i * v[i] * cmplx.Conj(ibus[i]-yv*v[i])
				dvm[i][j] = v[i]*cmplx.Conj(yv*vni) + cmplx.Conj(ibus[i])*vni
			} else {
				dva[i][j] = 1i * v[i] * cmplx.Conj(-yv*v[j])
				dvm[i][j] = v[i] * cmplx.Conj(yv*vnj)
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if r := m.PRow[i]; r >= 0 {
				if c := m.VaCol[j]; c >= 0 {
					a.Add(r+1, c+1, real(dva[i][j]))
				}
				if c := m.VmCol[j]; c >= 0 {
					a.Add(r+1, c+1, real(dvm[i][j]))
				}
			}
			if r := m.QRow[i]; r >= 0 {
				if c := m.VaCol[j]; c >= 0 {
					a.Add(r+1, c+1, imag(dva[i][j]))
				}
				if c := m.VmCol[j]; c >= 0 {
					a.Add(r+1, c+1, imag(dvm[i][j]))
				}
			}
		}
	}

	if m.SlackCol >= 0 {
		for i := 0; i < n; i++ {
			if r := m.PRow[i]; r >= 0 {
				a.Add(r+1, m.SlackCol+1, slackWeights[i])
			}
		}
	}
}

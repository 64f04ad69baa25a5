package jacobian

import (
	"math"
	"math/cmplx"

	"github.com/gridkit/powerflow/internal/consts"
	"github.com/gridkit/powerflow/pkg/matrix"
)

// TDPFData carries the per-branch quantities the thermal augmentation
// needs. A1 and A2 are the heat-balance coefficients already scaled to the
// per-unit system of the Newton vector (a1*iBase^2/TBASE, a2*iBase^4/TBASE);
// G is the transient attenuation factor, 1 in steady state.
type TDPFData struct {
	FBus, TBus []int
	RPU, XPU   []float64 // present branch impedance
	RRefPU     []float64 // resistance at the reference temperature
	Alpha      []float64 // temperature coefficient (1/K)
	A1, A2     []float64
	G          []float64
	IPU        []float64 // present branch current magnitude
}

// AugmentTDPF extends the Jacobian with the thermal blocks: sensitivity of
// the power mismatches to branch temperature through R(T), and of the
// thermal residual rows to voltage and temperature. tempIdx is the 0-based
// position of the first temperature unknown, which equals the first thermal
// residual row.
func AugmentTDPF(a matrix.Assembler, d *TDPFData, v []complex128, m *Maps, tempIdx int) {
	for k := range d.FBus {
		f, t := d.FBus[k], d.TBus[k]
		r, x := d.RPU[k], d.XPU[k]

		y := 1 / complex(r, x)
		dydr := -y * y
		drdT := d.RRefPU[k] * d.Alpha[k] * consts.TBASE

		// power mismatch sensitivity to branch temperature
		dsf := v[f] * cmplx.Conj((v[f]-v[t])*dydr) * complex(drdT, 0)
		dst := v[t] * cmplx.Conj((v[t]-v[f])*dydr) * complex(drdT, 0)

		col := tempIdx + k
		if rw := m.PRow[f]; rw >= 0 {
			a.Add(rw+1, col+1, real(dsf))
		}
		if rw := m.QRow[f]; rw >= 0 {
			a.Add(rw+1, col+1, imag(dsf))
		}
		if rw := m.PRow[t]; rw >= 0 {
			a.Add(rw+1, col+1, real(dst))
		}
		if rw := m.QRow[t]; rw >= 0 {
			a.Add(rw+1, col+1, imag(dst))
		}

		// thermal residual row: T_calc(I(V, T)) - T
		vmf, vmt := cmplx.Abs(v[f]), cmplx.Abs(v[t])
		theta := cmplx.Phase(v[f]) - cmplx.Phase(v[t])
		yy := 1 / (r*r + x*x)
		u := vmf*vmf + vmt*vmt - 2*vmf*vmt*math.Cos(theta)

		c2 := (d.A1[k] + 2*d.A2[k]*d.IPU[k]*d.IPU[k]) * d.G[k]

		di2dTheta := yy * 2 * vmf * vmt * math.Sin(theta)
		di2dVmf := yy * 2 * (vmf - vmt*math.Cos(theta))
		di2dVmt := yy * 2 * (vmt - vmf*math.Cos(theta))
		di2dT := -2 * r * yy * yy * u * drdT

		row := tempIdx + k
		if c := m.VaCol[f]; c >= 0 {
			a.Add(row+1, c+1, c2*di2dTheta)
		}
		if c := m.VaCol[t]; c >= 0 {
			a.Add(row+1, c+1, -c2*di2dTheta)
		}
		if c := m.VmCol[f]; c >= 0 {
			a.Add(row+1, c+1, c2*di2dVmf)
		}
		if c := m.VmCol[t]; c >= 0 {
			a.Add(row+1, c+1, c2*di2dVmt)
		}
		a.Add(row+1, col+1, c2*di2dT-1)
	}
}

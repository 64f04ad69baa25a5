package pf

import (
	"math"
	"math/cmplx"

	"github.com/gridkit/powerflow/pkg/matrix"
)

// evaluateFx computes the power mismatch V*conj(Y*V) - Sbus and scatters
// its components into the residual via the partition maps: real parts at
// buses with a P row, imaginary parts at load buses. With distributed
// slack the weighted slack power is folded in first. Thermal rows are left
// zero for the caller to fill.
func evaluateFx(y *matrix.CMatrix, v, sbus []complex128, p *Partition, slackWeights []float64, slack float64) []float64 {
	iv := y.MulVec(v)
	f := make([]float64, p.Seg.Size)

	for i := range v {
		mis := v[i]*cmplx.Conj(iv[i]) - sbus[i]
		if p.Seg.HasSlack {
			mis += complex(slackWeights[i]*slack, 0)
		}
		if r := p.Maps.PRow[i]; r >= 0 {
			f[r] = real(mis)
		}
		if r := p.Maps.QRow[i]; r >= 0 {
			f[r] = imag(mis)
		}
	}
	return f
}

// converged is the infinity-norm test, strict less-than.
func converged(f []float64, tol float64) bool {
	norm := 0.0
	for _, v := range f {
		if a := math.Abs(v); a > norm {
			norm = a
		}
	}
	return norm < tol
}

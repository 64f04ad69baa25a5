package pf

import (
	"math"
	"math/cmplx"

	"github.com/gridkit/powerflow/pkg/matrix"
)

// iwamotoStep applies the Newton step scaled by the Iwamoto acceleration
// multiplier. The power mismatch is exactly quadratic in the voltage
// unknowns, so F(x + mu*dx) = (1-mu)*F + mu^2*c with c the mismatch form
// of the step itself; the multiplier minimizes the squared norm of that
// expansion (Iwamoto & Tamura, 1981).
func iwamotoStep(y *matrix.CMatrix, f, dx []float64, p *Partition, st *state) {
	n := p.N
	dvm := make([]float64, n)
	dva := make([]float64, n)
	for i, b := range p.PV {
		dva[b] = dx[p.Seg.J1+i]
	}
	for i, b := range p.PQ {
		dva[b] = dx[p.Seg.J3+i]
		dvm[b] = dx[p.Seg.J5+i]
	}

	dv := make([]complex128, n)
	for i := 0; i < n; i++ {
		dv[i] = cmplx.Rect(dvm[i], dva[i])
	}

	// second-order mismatch term of the step
	idv := y.MulVec(dv)
	c := make([]float64, p.Seg.Size)
	for i := 0; i < n; i++ {
		mis := dv[i] * cmplx.Conj(idv[i])
		if r := p.Maps.PRow[i]; r >= 0 {
			c[r] = real(mis)
		}
		if r := p.Maps.QRow[i]; r >= 0 {
			c[r] = imag(mis)
		}
	}

	var saa, sac, scc float64
	for r := range f {
		saa += f[r] * f[r]
		sac += f[r] * c[r]
		scc += c[r] * c[r]
	}

	g0 := -saa
	g1 := saa + 2*sac
	g2 := -3 * sac
	g3 := 2 * scc

	mu := 1.0
	if math.Abs(g3) > 1e-12 {
		for range 20 {
			gv := g0 + mu*(g1+mu*(g2+mu*g3))
			gd := g1 + mu*(2*g2+3*mu*g3)
			if math.Abs(gd) < 1e-12 {
				break
			}
			next := mu - gv/gd
			if math.Abs(next-mu) < 1e-9 {
				mu = next
				break
			}
			mu = next
		}
	}

	for _, b := range p.PV {
		st.va[b] += mu * dva[b]
	}
	for _, b := range p.PQ {
		st.va[b] += mu * dva[b]
		st.vm[b] += mu * dvm[b]
	}
}

// Package tdpf implements the conductor heat-balance model of the
// temperature-dependent power flow: steady-state and transient temperature
// as a function of branch current, and the branch flow and current
// calculations that feed it.
package tdpf

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/gridkit/powerflow/internal/consts"
	"github.com/gridkit/powerflow/pkg/matrix"
	"github.com/gridkit/powerflow/pkg/network"
)

// Coeffs holds the per-branch heat-balance coefficients of the quartic
// temperature law T_ss = A0 + A1*I^2 + A2*I^4 (T in C, I in A) and the
// thermal time constant Tau in seconds.
type Coeffs struct {
	A0, A1, A2 []float64
	Tau        []float64
}

// HeatBalanceCoeffs linearizes the conductor heat balance around the film
// temperature. The convective term follows a forced-convection Nusselt
// correlation with the IEEE 738 wind-angle factor; radiation is linearized
// at the film temperature.
func HeatBalanceCoeffs(n *network.Network) (*Coeffs, error) {
	th := n.Thermal
	if th == nil {
		return nil, fmt.Errorf("thermal coupling requested but network has no thermal parameters")
	}
	if th.DiameterM <= 0 || th.MCJoulePerMK <= 0 {
		return nil, fmt.Errorf("thermal parameters incomplete: diameter=%g, mc=%g", th.DiameterM, th.MCJoulePerMK)
	}

	emis := th.Emissivity
	if emis == 0 {
		emis = 0.5
	}
	absorp := th.Absorptivity
	if absorp == 0 {
		absorp = 0.5
	}

	tFilm := (th.TMax + th.TAmb) / 2
	lambdaAir := 0.02436 + 7.2e-5*tFilm  // air thermal conductivity (W/m K)
	kinVisc := 1.32e-5 + 9.5e-8*tFilm    // air kinematic viscosity (m^2/s)

	phi := th.WindAngleDeg * math.Pi / 180
	kAngle := 1.194 - math.Cos(phi) + 0.194*math.Cos(2*phi) + 0.368*math.Sin(2*phi)

	re := th.WindMPerS * th.DiameterM / kinVisc
	nu := 0.65*math.Pow(re, 0.2) + 0.23*math.Pow(re, 0.61)
	if nu < 0.5 {
		nu = 0.5 // natural convection floor at low wind
	}

	hConv := math.Pi * lambdaAir * nu * kAngle
	tFilmK := tFilm + consts.KELVIN
	hRad := 4 * math.Pi * th.DiameterM * emis * consts.SIGMA * tFilmK * tFilmK * tFilmK
	h := hConv + hRad

	qSolar := absorp * th.SolarWPerM2 * th.DiameterM

	nl := len(n.Branches)
	c := &Coeffs{
		A0:  make([]float64, nl),
		A1:  make([]float64, nl),
		A2:  make([]float64, nl),
		Tau: make([]float64, nl),
	}

	for k, br := range n.Branches {
		if br.ROhmPerKm <= 0 {
			return nil, fmt.Errorf("branch %d: thermal coupling needs r_ohm_per_km > 0", k)
		}
		alpha := br.Alpha
		if alpha == 0 {
			alpha = consts.ALPHA
		}

		rRef := br.ROhmPerKm * 1e-3 // per meter
		rAmb := rRef * (1 + alpha*(th.TAmb-consts.TREF))
		kr := rRef * alpha

		base := rAmb + qSolar*kr/h
		c.A0[k] = th.TAmb + qSolar/h
		c.A1[k] = base / h
		c.A2[k] = base * kr / (h * h)
		c.Tau[k] = th.MCJoulePerMK / h
	}

	return c, nil
}

// TempFromCurrent evaluates the heat-balance temperature for each branch
// current. With a delay the transient response from t0 is returned instead
// of the steady state.
func TempFromCurrent(iAmp []float64, c *Coeffs, delayS *float64, t0 []float64) []float64 {
	t := make([]float64, len(iAmp))
	for k := range iAmp {
		i2 := iAmp[k] * iAmp[k]
		tss := c.A0[k] + c.A1[k]*i2 + c.A2[k]*i2*i2
		if delayS != nil {
			t[k] = tss - (tss-t0[k])*math.Exp(-*delayS/c.Tau[k])
		} else {
			t[k] = tss
		}
	}
	return t
}

// TransientFactor returns the attenuation 1-exp(-delay/tau) applied to the
// temperature sensitivities, per branch; all ones in steady state.
func TransientFactor(c *Coeffs, delayS *float64) []float64 {
	g := make([]float64, len(c.Tau))
	for k := range g {
		if delayS != nil {
			g[k] = 1 - math.Exp(-*delayS/c.Tau[k])
		} else {
			g[k] = 1
		}
	}
	return g
}

// BranchFlows computes the complex power entering each branch at the from
// and to ends, in MVA.
func BranchFlows(yf, yt *matrix.CMatrix, n *network.Network, v []complex128) (sf, st []complex128) {
	ifv := yf.MulVec(v)
	itv := yt.MulVec(v)
	sf = make([]complex128, len(n.Branches))
	st = make([]complex128, len(n.Branches))
	for k, br := range n.Branches {
		sf[k] = v[br.From] * cmplx.Conj(ifv[k]) * complex(n.BaseMVA, 0)
		st[k] = v[br.To] * cmplx.Conj(itv[k]) * complex(n.BaseMVA, 0)
	}
	return sf, st
}

// BranchCurrents converts from-end flows to current magnitudes in amps.
// Near-zero voltage magnitudes are clamped to keep the result finite.
func BranchCurrents(sf []complex128, n *network.Network, v []complex128) []float64 {
	i := make([]float64, len(n.Branches))
	for k, br := range n.Branches {
		vm := cmplx.Abs(v[br.From])
		if vm < 1e-9 {
			i[k] = 0
			continue
		}
		vBase := n.Buses[br.From].BaseKV
		i[k] = cmplx.Abs(sf[k]) / (vm * vBase * math.Sqrt(3)) * 1e3
	}
	return i
}

// BaseCurrents returns the per-branch current base in amps, taken at the
// from-bus voltage level.
func BaseCurrents(n *network.Network) []float64 {
	ib := make([]float64, len(n.Branches))
	for k, br := range n.Branches {
		vBase := n.Buses[br.From].BaseKV
		ib[k] = n.BaseMVA / (vBase * math.Sqrt(3)) * 1e3
	}
	return ib
}

package pf

import (
	"fmt"

	"github.com/gridkit/powerflow/internal/consts"
	"github.com/gridkit/powerflow/pkg/jacobian"
	"github.com/gridkit/powerflow/pkg/matrix"
	"github.com/gridkit/powerflow/pkg/network"
	"github.com/gridkit/powerflow/pkg/tdpf"
)

// thermal owns the conductor temperature side of one solve: heat-balance
// coefficients, the reference resistances, branch flow bookkeeping and the
// per-unit scaled data handed to the Jacobian augmentation.
type thermal struct {
	net   *network.Network
	coef  *tdpf.Coeffs
	iBase []float64
	rRef  []float64 // per-unit branch resistance at TREF
	alpha []float64
	t0    []float64 // initial temperatures (C)
	g     []float64
	delay *float64

	yf, yt *matrix.CMatrix
	sf, st []complex128
	iAmp   []float64
	iPU    []float64
}

func newThermal(net *network.Network, yf, yt *matrix.CMatrix, v0 []complex128, opt Options) (*thermal, error) {
	if net == nil {
		return nil, fmt.Errorf("thermal coupling requires network data")
	}
	coef, err := tdpf.HeatBalanceCoeffs(net)
	if err != nil {
		return nil, err
	}
	for k, br := range net.Branches {
		if net.Buses[br.From].BaseKV <= 0 {
			return nil, fmt.Errorf("branch %d: from bus has no base voltage", k)
		}
	}

	nl := len(net.Branches)
	th := &thermal{
		net:   net,
		coef:  coef,
		iBase: tdpf.BaseCurrents(net),
		rRef:  make([]float64, nl),
		alpha: make([]float64, nl),
		t0:    make([]float64, nl),
		g:     tdpf.TransientFactor(coef, opt.TDPFDelayS),
		delay: opt.TDPFDelayS,
		yf:    yf,
		yt:    yt,
		iPU:   make([]float64, nl),
	}
	for k, br := range net.Branches {
		th.rRef[k] = br.R
		th.alpha[k] = br.Alpha
		if th.alpha[k] == 0 {
			th.alpha[k] = consts.ALPHA
		}
		th.t0[k] = consts.TREF
	}

	th.updateCurrents(v0)
	return th, nil
}

// initialTemp seeds the temperature unknowns from the heat balance at the
// initial branch currents, scaled to per unit.
func (th *thermal) initialTemp() []float64 {
	t := tdpf.TempFromCurrent(th.iAmp, th.coef, th.delay, th.t0)
	for k := range t {
		t[k] /= consts.TBASE
	}
	return t
}

func (th *thermal) updateCurrents(v []complex128) {
	th.sf, th.st = tdpf.BranchFlows(th.yf, th.yt, th.net, v)
	th.iAmp = tdpf.BranchCurrents(th.sf, th.net, v)
	for k := range th.iAmp {
		th.iPU[k] = th.iAmp[k] / th.iBase[k]
	}
}

// updateResistance writes the temperature-corrected branch resistances
// back into the network, so the next admittance rebuild sees them.
func (th *thermal) updateResistance(tPU []float64) {
	for k := range th.net.Branches {
		tC := tPU[k] * consts.TBASE
		th.net.Branches[k].R = th.rRef[k] * (1 + th.alpha[k]*(tC-consts.TREF))
	}
}

// residual fills the thermal mismatch rows: heat-balance temperature at
// the present currents minus the present temperature unknown, in per unit.
func (th *thermal) residual(f []float64, tempIdx int, tPU []float64) {
	tc := tdpf.TempFromCurrent(th.iAmp, th.coef, th.delay, th.t0)
	for k := range tc {
		f[tempIdx+k] = (tc[k] - tPU[k]*consts.TBASE) / consts.TBASE
	}
}

// augmentData assembles the per-unit view of the thermal model for the
// Jacobian augmentation.
func (th *thermal) augmentData() *jacobian.TDPFData {
	nl := len(th.net.Branches)
	d := &jacobian.TDPFData{
		FBus:   make([]int, nl),
		TBus:   make([]int, nl),
		RPU:    make([]float64, nl),
		XPU:    make([]float64, nl),
		RRefPU: th.rRef,
		Alpha:  th.alpha,
		A1:     make([]float64, nl),
		A2:     make([]float64, nl),
		G:      th.g,
		IPU:    th.iPU,
	}
	for k, br := range th.net.Branches {
		d.FBus[k] = br.From
		d.TBus[k] = br.To
		d.RPU[k] = br.R
		d.XPU[k] = br.X
		ib2 := th.iBase[k] * th.iBase[k]
		d.A1[k] = th.coef.A1[k] * ib2 / consts.TBASE
		d.A2[k] = th.coef.A2[k] * ib2 * ib2 / consts.TBASE
	}
	return d
}

// temperatures converts the per-unit temperature block back to the
// caller's units.
func (th *thermal) temperatures(tPU []float64) []float64 {
	t := make([]float64, len(tPU))
	for k := range tPU {
		t[k] = tPU[k] * consts.TBASE
	}
	return t
}

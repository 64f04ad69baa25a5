package pf

import (
	"fmt"

	"github.com/gridkit/powerflow/pkg/jacobian"
	"github.com/gridkit/powerflow/pkg/matrix"
	"github.com/gridkit/powerflow/pkg/network"
)

type Result struct {
	V          []complex128
	Converged  bool
	Iterations int
	Jacobian   *matrix.Coo

	// per-iteration voltage history, only with Options.VDebug
	VmHistory [][]float64
	VaHistory [][]float64

	// converged branch temperatures (C), only with Options.TDPF
	T []float64
}

// Solve runs a full Newton-Raphson power flow: given the admittance
// matrix, the per-unit injection vector, an initial voltage guess and the
// bus category sets, it iterates until the mismatch infinity norm drops
// below the tolerance or the iteration cap is reached. Reaching the cap is
// reported through Result.Converged, not as an error; a singular Jacobian
// is. net may be nil unless distributed slack, voltage-dependent loads or
// thermal coupling are enabled.
func Solve(ybus *matrix.CMatrix, sbus, v0 []complex128, ref, pv, pq []int, net *network.Network, opt Options) (*Result, error) {
	n := ybus.Rows()
	if ybus.Cols() != n {
		return nil, fmt.Errorf("admittance matrix is %dx%d, must be square", n, ybus.Cols())
	}
	if len(sbus) != n || len(v0) != n {
		return nil, fmt.Errorf("injection and voltage vectors (%d, %d) must match %d buses", len(sbus), len(v0), n)
	}

	nBranch := 0
	if net != nil {
		if len(net.Buses) != n {
			return nil, fmt.Errorf("network has %d buses, admittance matrix has %d", len(net.Buses), n)
		}
		nBranch = len(net.Branches)
	}
	p, err := NewPartition(n, ref, pv, pq, opt.DistributedSlack, nBranch, opt.TDPF)
	if err != nil {
		return nil, fmt.Errorf("bus partition: %v", err)
	}

	st := newState(v0, opt.VDebug)

	var slackWeights []float64
	if opt.DistributedSlack {
		if net == nil {
			return nil, fmt.Errorf("distributed slack requires network data")
		}
		slackWeights, err = net.SlackWeights()
		if err != nil {
			return nil, fmt.Errorf("distributed slack: %v", err)
		}
		for _, g := range net.Gens {
			st.slack += g.P / net.BaseMVA
		}
		for i := range net.Buses {
			st.slack -= net.Buses[i].Pd / net.BaseMVA
		}
	}
	if opt.VoltageDependLoads && net == nil {
		return nil, fmt.Errorf("voltage-dependent loads require network data")
	}

	var th *thermal
	if opt.TDPF {
		if net == nil {
			return nil, fmt.Errorf("thermal coupling requires network data")
		}
		var yf, yt *matrix.CMatrix
		ybus, yf, yt, err = network.MakeYbus(net)
		if err != nil {
			return nil, fmt.Errorf("rebuilding admittance matrix: %v", err)
		}
		th, err = newThermal(net, yf, yt, st.v, opt)
		if err != nil {
			return nil, fmt.Errorf("thermal coupling: %v", err)
		}
		st.temp = th.initialTemp()
	}

	assemble := jacobian.Assemble
	if opt.Jacobian == JacobianDense {
		assemble = jacobian.AssembleDense
	}
	iwamoto := opt.Algorithm == AlgorithmIwamoto && !opt.TDPF

	f := evaluateFx(ybus, st.v, sbus, p, slackWeights, st.slack)
	if opt.TDPF {
		th.residual(f, p.Seg.TempIdx, st.temp)
	}
	done := converged(f, opt.Tolerance)

	var sys *matrix.System
	defer func() {
		if sys != nil {
			sys.Destroy()
		}
	}()

	iter := 0
	for !done && iter < opt.MaxIterations {
		iter++

		if opt.TDPF {
			th.updateResistance(st.temp)
			ybus, th.yf, th.yt, err = network.MakeYbus(net)
			if err != nil {
				return nil, fmt.Errorf("rebuilding admittance matrix: %v", err)
			}
		}

		if sys == nil {
			sys, err = matrix.NewSystem(p.Seg.Size, opt.Backend, opt.PivotThreshold, opt.DiagPivoting)
			if err != nil {
				return nil, fmt.Errorf("creating linear system: %v", err)
			}
		}
		sys.Clear()
		assemble(sys, ybus, st.v, p.Maps, slackWeights)
		if opt.TDPF {
			jacobian.AugmentTDPF(sys, th.augmentData(), st.v, p.Maps, p.Seg.TempIdx)
		}

		rhs := make([]float64, len(f))
		for r := range f {
			rhs[r] = -f[r]
		}
		dx, err := sys.Solve(rhs)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %v", iter, err)
		}

		if iwamoto {
			iwamotoStep(ybus, f, dx, p, st)
			for k := p.Seg.J7; k < p.Seg.J8; k++ {
				st.slack += dx[k]
			}
		} else {
			st.applyDelta(dx, p)
		}
		st.recompose()

		if opt.VoltageDependLoads {
			sbus = network.MakeSbus(net, st.vm)
		}

		f = evaluateFx(ybus, st.v, sbus, p, slackWeights, st.slack)
		if opt.TDPF {
			th.updateCurrents(st.v)
			th.residual(f, p.Seg.TempIdx, st.temp)
		}
		done = converged(f, opt.Tolerance)
	}

	res := &Result{
		V:          st.v,
		Converged:  done,
		Iterations: iter,
		VmHistory:  st.vmHist,
		VaHistory:  st.vaHist,
	}
	if sys != nil {
		res.Jacobian = sys.Snapshot()
	}
	if opt.TDPF {
		res.T = th.temperatures(st.temp)
	}
	return res, nil
}

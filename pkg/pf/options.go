package pf

import (
	"github.com/gridkit/powerflow/pkg/matrix"
)

type Algorithm int

const (
	AlgorithmNR Algorithm = iota
	AlgorithmIwamoto
)

type JacobianMode int

const (
	JacobianCSR JacobianMode = iota // iterate the sparse admittance structure
	JacobianDense                   // dense reference assembly
)

type Options struct {
	Tolerance     float64 // stopping threshold on the mismatch infinity norm
	MaxIterations int

	Algorithm          Algorithm
	VoltageDependLoads bool // re-evaluate injections from present Vm each iteration
	DistributedSlack   bool
	VDebug             bool // collect per-iteration Vm/Va history

	TDPF       bool     // thermal coupling
	TDPFDelayS *float64 // transient response delay, nil means steady state

	Backend        matrix.Backend
	PivotThreshold float64 // relative pivot threshold hint for the sparse backend
	DiagPivoting   bool
	Jacobian       JacobianMode
}

func DefaultOptions() Options {
	return Options{
		Tolerance:     1e-8,
		MaxIterations: 10,
		DiagPivoting:  true,
	}
}

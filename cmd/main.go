package main

import (
	"flag"
	"fmt"
	"log"
	"math/cmplx"

	"github.com/gridkit/powerflow/pkg/caseformat"
	"github.com/gridkit/powerflow/pkg/matrix"
	"github.com/gridkit/powerflow/pkg/network"
	"github.com/gridkit/powerflow/pkg/pf"
	"github.com/gridkit/powerflow/pkg/util"
)

var (
	tol       = flag.Float64("tol", 1e-8, "mismatch tolerance (pu)")
	maxIter   = flag.Int("maxiter", 10, "maximum Newton iterations")
	iwamoto   = flag.Bool("iwamoto", false, "use the Iwamoto accelerated step")
	distSlack = flag.Bool("dist-slack", false, "distribute the slack power over weighted buses")
	vdl       = flag.Bool("vdl", false, "re-evaluate voltage-dependent loads each iteration")
	tdpfFlag  = flag.Bool("tdpf", false, "enable thermal coupling")
	tdpfDelay = flag.Float64("tdpf-delay", -1, "transient thermal delay in seconds, negative for steady state")
	backend   = flag.String("backend", "sparse", "linear solve backend: sparse or dense")
	pivot     = flag.Float64("pivot", 0, "relative pivot threshold for the sparse backend")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("Usage: pflow [options] <case_file.json>")
	}

	net, err := caseformat.Load(flag.Arg(0))
	if err != nil {
		log.Fatalf("Error loading case: %v", err)
	}

	ybus, _, _, err := network.MakeYbus(net)
	if err != nil {
		log.Fatalf("Error building admittance matrix: %v", err)
	}
	sbus := network.MakeSbus(net, nil)
	v0 := net.InitialVoltage()
	ref, pv, pq := net.BusSets()

	opt := pf.DefaultOptions()
	opt.Tolerance = *tol
	opt.MaxIterations = *maxIter
	opt.VoltageDependLoads = *vdl
	opt.DistributedSlack = *distSlack
	opt.TDPF = *tdpfFlag
	opt.PivotThreshold = *pivot
	if *iwamoto {
		opt.Algorithm = pf.AlgorithmIwamoto
	}
	if *tdpfDelay >= 0 {
		d := *tdpfDelay
		opt.TDPFDelayS = &d
	}
	switch *backend {
	case "sparse":
		opt.Backend = matrix.BackendSparse
	case "dense":
		opt.Backend = matrix.BackendDense
	default:
		log.Fatalf("Unknown backend %q", *backend)
	}

	result, err := pf.Solve(ybus, sbus, v0, ref, pv, pq, net, opt)
	if err != nil {
		log.Fatalf("Power flow failed: %v", err)
	}

	printResults(net, result)
}

func printResults(net *network.Network, result *pf.Result) {
	fmt.Printf("\nPower Flow Results (%s):\n", net.Name)
	fmt.Println("========================")
	if result.Converged {
		fmt.Printf("Converged in %d iterations\n", result.Iterations)
	} else {
		fmt.Printf("DID NOT CONVERGE after %d iterations\n", result.Iterations)
	}

	fmt.Println("\nBus Voltages:")
	for i, v := range result.V {
		fmt.Printf("  bus %3d  %s\n", i, util.FormatVoltage(cmplx.Abs(v), cmplx.Phase(v)))
	}

	if result.T != nil {
		fmt.Println("\nBranch Temperatures:")
		for k, t := range result.T {
			br := net.Branches[k]
			fmt.Printf("  branch %3d (%d-%d)  %s\n", k, br.From, br.To, util.FormatTemperature(t))
		}
	}
}

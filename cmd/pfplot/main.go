// pfplot runs a power flow with the debug trace enabled and renders the
// per-iteration voltage magnitudes to a PNG.
package main

import (
	"flag"
	"fmt"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/gridkit/powerflow/pkg/caseformat"
	"github.com/gridkit/powerflow/pkg/network"
	"github.com/gridkit/powerflow/pkg/pf"
)

var out = flag.String("out", "convergence.png", "output image file")

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("Usage: pfplot [options] <case_file.json>")
	}

	net, err := caseformat.Load(flag.Arg(0))
	if err != nil {
		log.Fatalf("Error loading case: %v", err)
	}

	ybus, _, _, err := network.MakeYbus(net)
	if err != nil {
		log.Fatalf("Error building admittance matrix: %v", err)
	}

	opt := pf.DefaultOptions()
	opt.VDebug = true

	ref, pv, pq := net.BusSets()
	result, err := pf.Solve(ybus, network.MakeSbus(net, nil), net.InitialVoltage(), ref, pv, pq, net, opt)
	if err != nil {
		log.Fatalf("Power flow failed: %v", err)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Voltage convergence (%s)", net.Name)
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "Vm (pu)"

	nBus := len(result.V)
	for b := 0; b < nBus; b++ {
		pts := make(plotter.XYs, len(result.VmHistory))
		for it, col := range result.VmHistory {
			pts[it].X = float64(it)
			pts[it].Y = col[b]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			log.Fatalf("Error plotting bus %d: %v", b, err)
		}
		line.Color = plotutil.Color(b)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("bus %d", b), line)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, *out); err != nil {
		log.Fatalf("Error saving plot: %v", err)
	}
	fmt.Printf("Wrote %s (%d iterations, converged=%v)\n", *out, result.Iterations, result.Converged)
}

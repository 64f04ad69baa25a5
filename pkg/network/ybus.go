package network

import (
	"math/cmplx"

	"github.com/gridkit/powerflow/pkg/matrix"
)

// MakeYbus builds the bus admittance matrix and the branch from/to
// admittance matrices from the per-unit branch and shunt data. Diagonal
// entries exist for every bus so Jacobian assembly always finds them.
func MakeYbus(n *Network) (ybus, yf, yt *matrix.CMatrix, err error) {
	if err := n.validBranches(); err != nil {
		return nil, nil, nil, err
	}

	nb := len(n.Buses)
	nl := len(n.Branches)

	bb := matrix.NewCBuilder(nb, nb)
	bf := matrix.NewCBuilder(nl, nb)
	bt := matrix.NewCBuilder(nl, nb)

	for i := 0; i < nb; i++ {
		bb.Add(i, i, complex(n.Buses[i].Gs/n.BaseMVA, n.Buses[i].Bs/n.BaseMVA))
	}

	for k, br := range n.Branches {
		ys := 1 / complex(br.R, br.X)
		bc := complex(0, br.B/2)

		tap := complex(1, 0)
		if br.Tap != 0 {
			tap = cmplx.Rect(br.Tap, br.Shift)
		} else if br.Shift != 0 {
			tap = cmplx.Rect(1, br.Shift)
		}

		ytt := ys + bc
		yff := ytt / (tap * cmplx.Conj(tap))
		yft := -ys / cmplx.Conj(tap)
		ytf := -ys / tap

		f, t := br.From, br.To
		bb.Add(f, f, yff)
		bb.Add(f, t, yft)
		bb.Add(t, f, ytf)
		bb.Add(t, t, ytt)

		bf.Add(k, f, yff)
		bf.Add(k, t, yft)
		bt.Add(k, f, ytf)
		bt.Add(k, t, ytt)
	}

	return bb.Build(), bf.Build(), bt.Build(), nil
}

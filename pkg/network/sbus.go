package network

// MakeSbus builds the per-unit complex power injection vector, generation
// minus load. When vm is non-nil the load term is re-evaluated from the
// present voltage magnitudes using the ZIP composition of each bus.
func MakeSbus(n *Network, vm []float64) []complex128 {
	s := make([]complex128, len(n.Buses))

	for i := range n.Buses {
		b := &n.Buses[i]
		scale := 1.0
		if vm != nil {
			cp, ci, cz := b.CP, b.CI, b.CZ
			if cp == 0 && ci == 0 && cz == 0 {
				cp = 1
			}
			scale = cp + ci*vm[i] + cz*vm[i]*vm[i]
		}
		s[i] -= complex(b.Pd*scale/n.BaseMVA, b.Qd*scale/n.BaseMVA)
	}

	for _, g := range n.Gens {
		s[g.Bus] += complex(g.P/n.BaseMVA, g.Q/n.BaseMVA)
	}

	return s
}

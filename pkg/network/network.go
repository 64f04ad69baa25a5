package network

import (
	"fmt"
	"math"
	"math/cmplx"
)

type BusType int

const (
	Ref BusType = iota
	PV
	PQ
)

type Bus struct {
	Type        BusType
	BaseKV      float64
	Pd, Qd      float64 // load (MW, MVAr)
	Gs, Bs      float64 // shunt (MW, MVAr at V=1 pu)
	Vm, Va      float64 // initial voltage (pu, rad)
	SlackWeight float64 // distributed slack contribution factor

	// ZIP load composition as fractions of Pd/Qd. Zero-valued buses are
	// treated as constant power.
	CP, CI, CZ float64
}

type Branch struct {
	From, To int
	R, X, B  float64 // per unit
	Tap      float64 // off-nominal tap ratio, 0 means 1
	Shift    float64 // phase shift (rad)

	// conductor data for thermal coupling
	ROhmPerKm float64
	Alpha     float64 // resistance temperature coefficient (1/K), 0 means default
}

type Gen struct {
	Bus  int
	P, Q float64 // MW, MVAr
	VSet float64 // voltage set point (pu)
}

// Thermal carries the ambient and conductor parameters of the
// temperature-dependent power flow. One set applies to all branches.
type Thermal struct {
	TAmb         float64 // ambient temperature (C)
	TMax         float64 // conductor design temperature (C)
	WindMPerS    float64
	WindAngleDeg float64
	SolarWPerM2  float64
	DiameterM    float64 // conductor outer diameter
	MCJoulePerMK float64 // mass times specific heat per meter
	Emissivity   float64
	Absorptivity float64
}

type Network struct {
	Name     string
	BaseMVA  float64
	Buses    []Bus
	Branches []Branch
	Gens     []Gen
	Thermal  *Thermal
}

// BusSets returns the reference, voltage-controlled and load bus indices.
func (n *Network) BusSets() (ref, pv, pq []int) {
	for i := range n.Buses {
		switch n.Buses[i].Type {
		case Ref:
			ref = append(ref, i)
		case PV:
			pv = append(pv, i)
		default:
			pq = append(pq, i)
		}
	}
	return ref, pv, pq
}

// SlackWeights returns the per-bus slack contribution factors normalized to
// sum 1.
func (n *Network) SlackWeights() ([]float64, error) {
	w := make([]float64, len(n.Buses))
	sum := 0.0
	for i := range n.Buses {
		w[i] = n.Buses[i].SlackWeight
		sum += w[i]
	}
	if sum <= 0 {
		return nil, fmt.Errorf("slack weights sum to %g, need a positive total", sum)
	}
	for i := range w {
		w[i] /= sum
	}
	return w, nil
}

// InitialVoltage builds the starting complex voltage vector from the bus
// data, with generator set points overriding the magnitude at their buses.
func (n *Network) InitialVoltage() []complex128 {
	v := make([]complex128, len(n.Buses))
	for i := range n.Buses {
		vm := n.Buses[i].Vm
		if vm == 0 {
			vm = 1.0
		}
		v[i] = cmplx.Rect(vm, n.Buses[i].Va)
	}
	for _, g := range n.Gens {
		if g.VSet > 0 && n.Buses[g.Bus].Type != PQ {
			v[g.Bus] = cmplx.Rect(g.VSet, math.Atan2(imag(v[g.Bus]), real(v[g.Bus])))
		}
	}
	return v
}

func (n *Network) validBranches() error {
	nb := len(n.Buses)
	for k, br := range n.Branches {
		if br.From < 0 || br.From >= nb || br.To < 0 || br.To >= nb {
			return fmt.Errorf("branch %d connects %d-%d, network has %d buses", k, br.From, br.To, nb)
		}
		if br.R == 0 && br.X == 0 {
			return fmt.Errorf("branch %d has zero impedance", k)
		}
	}
	return nil
}

// Package caseformat loads power-flow cases from JSON files. Powers are
// in MW/MVAr, impedances in per unit on the system base, angles in
// degrees.
package caseformat

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/gridkit/powerflow/pkg/network"
)

type busJSON struct {
	Type        string  `json:"type"` // "ref", "pv", "pq"
	BaseKV      float64 `json:"base_kv"`
	Pd          float64 `json:"pd"`
	Qd          float64 `json:"qd"`
	Gs          float64 `json:"gs"`
	Bs          float64 `json:"bs"`
	Vm          float64 `json:"vm"`
	VaDeg       float64 `json:"va_deg"`
	SlackWeight float64 `json:"slack_weight"`
	CP          float64 `json:"cp"`
	CI          float64 `json:"ci"`
	CZ          float64 `json:"cz"`
}

type branchJSON struct {
	From      int     `json:"from"`
	To        int     `json:"to"`
	R         float64 `json:"r"`
	X         float64 `json:"x"`
	B         float64 `json:"b"`
	Tap       float64 `json:"tap"`
	ShiftDeg  float64 `json:"shift_deg"`
	ROhmPerKm float64 `json:"r_ohm_per_km"`
	Alpha     float64 `json:"alpha"`
}

type genJSON struct {
	Bus  int     `json:"bus"`
	P    float64 `json:"p"`
	Q    float64 `json:"q"`
	VSet float64 `json:"vset"`
}

type thermalJSON struct {
	TAmb         float64 `json:"t_amb"`
	TMax         float64 `json:"t_max"`
	WindMPerS    float64 `json:"wind_m_per_s"`
	WindAngleDeg float64 `json:"wind_angle_deg"`
	SolarWPerM2  float64 `json:"solar_w_per_m2"`
	DiameterM    float64 `json:"diameter_m"`
	MC           float64 `json:"mc_joule_per_m_k"`
	Emissivity   float64 `json:"emissivity"`
	Absorptivity float64 `json:"absorptivity"`
}

type caseJSON struct {
	Name     string       `json:"name"`
	BaseMVA  float64      `json:"base_mva"`
	Buses    []busJSON    `json:"buses"`
	Branches []branchJSON `json:"branches"`
	Gens     []genJSON    `json:"gens"`
	Thermal  *thermalJSON `json:"thermal"`
}

func Load(path string) (*network.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading case file: %v", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*network.Network, error) {
	var c caseJSON
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing case file: %v", err)
	}
	if c.BaseMVA <= 0 {
		return nil, fmt.Errorf("base_mva must be positive, got %g", c.BaseMVA)
	}
	if len(c.Buses) == 0 {
		return nil, fmt.Errorf("case has no buses")
	}

	net := &network.Network{
		Name:    c.Name,
		BaseMVA: c.BaseMVA,
	}

	refSeen := false
	for i, b := range c.Buses {
		var bt network.BusType
		switch b.Type {
		case "ref":
			bt = network.Ref
			refSeen = true
		case "pv":
			bt = network.PV
		case "pq", "":
			bt = network.PQ
		default:
			return nil, fmt.Errorf("bus %d: unknown type %q", i, b.Type)
		}
		vm := b.Vm
		if vm == 0 {
			vm = 1.0
		}
		net.Buses = append(net.Buses, network.Bus{
			Type:        bt,
			BaseKV:      b.BaseKV,
			Pd:          b.Pd,
			Qd:          b.Qd,
			Gs:          b.Gs,
			Bs:          b.Bs,
			Vm:          vm,
			Va:          b.VaDeg * math.Pi / 180,
			SlackWeight: b.SlackWeight,
			CP:          b.CP,
			CI:          b.CI,
			CZ:          b.CZ,
		})
	}
	if !refSeen {
		return nil, fmt.Errorf("case has no reference bus")
	}

	for k, br := range c.Branches {
		if br.From < 0 || br.From >= len(c.Buses) || br.To < 0 || br.To >= len(c.Buses) {
			return nil, fmt.Errorf("branch %d: buses %d-%d out of range", k, br.From, br.To)
		}
		net.Branches = append(net.Branches, network.Branch{
			From:      br.From,
			To:        br.To,
			R:         br.R,
			X:         br.X,
			B:         br.B,
			Tap:       br.Tap,
			Shift:     br.ShiftDeg * math.Pi / 180,
			ROhmPerKm: br.ROhmPerKm,
			Alpha:     br.Alpha,
		})
	}

	for k, g := range c.Gens {
		if g.Bus < 0 || g.Bus >= len(c.Buses) {
			return nil, fmt.Errorf("gen %d: bus %d out of range", k, g.Bus)
		}
		net.Gens = append(net.Gens, network.Gen{Bus: g.Bus, P: g.P, Q: g.Q, VSet: g.VSet})
	}

	if c.Thermal != nil {
		net.Thermal = &network.Thermal{
			TAmb:         c.Thermal.TAmb,
			TMax:         c.Thermal.TMax,
			WindMPerS:    c.Thermal.WindMPerS,
			WindAngleDeg: c.Thermal.WindAngleDeg,
			SolarWPerM2:  c.Thermal.SolarWPerM2,
			DiameterM:    c.Thermal.DiameterM,
			MCJoulePerMK: c.Thermal.MC,
			Emissivity:   c.Thermal.Emissivity,
			Absorptivity: c.Thermal.Absorptivity,
		}
	}

	return net, nil
}

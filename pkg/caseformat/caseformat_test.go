package caseformat

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridkit/powerflow/pkg/network"
)

func TestLoad(t *testing.T) {
	n, err := Load(filepath.Join("testdata", "case3.json"))
	require.NoError(t, err)

	assert.Equal(t, "three bus", n.Name)
	assert.Equal(t, 100.0, n.BaseMVA)
	require.Len(t, n.Buses, 3)
	require.Len(t, n.Branches, 3)
	require.Len(t, n.Gens, 1)
	require.NotNil(t, n.Thermal)

	assert.Equal(t, network.Ref, n.Buses[0].Type)
	assert.Equal(t, network.PV, n.Buses[1].Type)
	assert.Equal(t, network.PQ, n.Buses[2].Type)
	assert.InDelta(t, 1.02, n.Buses[0].Vm, 1e-12)
	assert.InDelta(t, 0.5, n.Buses[2].CP, 1e-12)

	assert.InDelta(t, 1.02, n.Branches[1].Tap, 1e-12)
	assert.InDelta(t, 3*math.Pi/180, n.Branches[1].Shift, 1e-12)

	assert.Equal(t, 1, n.Gens[0].Bus)
	assert.InDelta(t, 1.01, n.Gens[0].VSet, 1e-12)

	assert.InDelta(t, 525.0, n.Thermal.MCJoulePerMK, 1e-12)
	assert.InDelta(t, 0.0182, n.Thermal.DiameterM, 1e-12)
}

func TestParseDefaults(t *testing.T) {
	n, err := Parse([]byte(`{
		"base_mva": 100,
		"buses": [
			{"type": "ref"},
			{"base_kv": 110, "pd": 10, "va_deg": -5}
		],
		"branches": [{"from": 0, "to": 1, "x": 0.1}]
	}`))
	require.NoError(t, err)

	// omitted type means load bus, omitted vm means flat
	assert.Equal(t, network.PQ, n.Buses[1].Type)
	assert.InDelta(t, 1.0, n.Buses[1].Vm, 1e-12)
	assert.InDelta(t, -5*math.Pi/180, n.Buses[1].Va, 1e-12)
	assert.Nil(t, n.Thermal)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"bad json":       `{`,
		"no base":        `{"buses": [{"type": "ref"}]}`,
		"no buses":       `{"base_mva": 100}`,
		"no ref":         `{"base_mva": 100, "buses": [{"type": "pq"}]}`,
		"bad type":       `{"base_mva": 100, "buses": [{"type": "slack"}]}`,
		"branch range":   `{"base_mva": 100, "buses": [{"type": "ref"}], "branches": [{"from": 0, "to": 3, "x": 0.1}]}`,
		"gen range":      `{"base_mva": 100, "buses": [{"type": "ref"}], "gens": [{"bus": 7}]}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "does-not-exist.json"))
	assert.Error(t, err)
}

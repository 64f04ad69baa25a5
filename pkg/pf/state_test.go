package pf

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateApplyDelta(t *testing.T) {
	p, err := NewPartition(4, []int{0}, []int{1}, []int{2, 3}, false, 0, false)
	require.NoError(t, err)

	st := newState([]complex128{1, 1, 1, 1}, false)
	dx := []float64{0.1, -0.2, 0.3, 0.05, -0.05}
	st.applyDelta(dx, p)

	assert.InDelta(t, 0.1, st.va[1], 1e-12)
	assert.InDelta(t, -0.2, st.va[2], 1e-12)
	assert.InDelta(t, 0.3, st.va[3], 1e-12)
	assert.InDelta(t, 1.05, st.vm[2], 1e-12)
	assert.InDelta(t, 0.95, st.vm[3], 1e-12)
	// reference bus untouched
	assert.InDelta(t, 0.0, st.va[0], 1e-12)
	assert.InDelta(t, 1.0, st.vm[0], 1e-12)
}

func TestStateApplyDeltaSlackAndTemp(t *testing.T) {
	p, err := NewPartition(2, []int{0}, nil, []int{1}, true, 1, true)
	require.NoError(t, err)

	st := newState([]complex128{1, 1}, false)
	st.temp = []float64{0.2}
	// [dVa(pq) | dVm(pq) | dSlack | dT]
	st.applyDelta([]float64{-0.1, 0.02, 0.5, 0.3}, p)

	assert.InDelta(t, -0.1, st.va[1], 1e-12)
	assert.InDelta(t, 1.02, st.vm[1], 1e-12)
	assert.InDelta(t, 0.5, st.slack, 1e-12)
	assert.InDelta(t, 0.5, st.temp[0], 1e-12)
}

func TestStateRecompose(t *testing.T) {
	st := newState([]complex128{cmplx.Rect(1.05, 0.3)}, false)
	st.vm[0] = 0.98
	st.va[0] = -0.4
	st.recompose()

	assert.InDelta(t, 0.98, cmplx.Abs(st.v[0]), 1e-12)
	assert.InDelta(t, -0.4, cmplx.Phase(st.v[0]), 1e-12)
}

func TestStateRecomposeNegativeMagnitude(t *testing.T) {
	st := newState([]complex128{1}, false)
	st.vm[0] = -0.5
	st.va[0] = 0.1
	st.recompose()

	// a negative magnitude folds into a half-turn angle shift
	assert.InDelta(t, 0.5, st.vm[0], 1e-12)
	assert.InDelta(t, 0.1-math.Pi, st.va[0], 1e-12)
	assert.InDelta(t, -0.5*math.Cos(0.1), real(st.v[0]), 1e-12)
}

func TestStateTrace(t *testing.T) {
	st := newState([]complex128{1, 1}, true)
	require.Len(t, st.vmHist, 1)

	st.vm[1] = 0.97
	st.recompose()
	st.vm[1] = 0.95
	st.recompose()

	require.Len(t, st.vmHist, 3)
	require.Len(t, st.vaHist, 3)
	assert.InDelta(t, 1.0, st.vmHist[0][1], 1e-12)
	assert.InDelta(t, 0.97, st.vmHist[1][1], 1e-12)
	assert.InDelta(t, 0.95, st.vmHist[2][1], 1e-12)
}

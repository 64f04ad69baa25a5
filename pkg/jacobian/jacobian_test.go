package jacobian

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridkit/powerflow/pkg/matrix"
	"github.com/gridkit/powerflow/pkg/network"
)

// three buses: reference, voltage-controlled, load
func testCase(t *testing.T) (*matrix.CMatrix, []complex128, *Maps, int) {
	t.Helper()
	n := &network.Network{
		BaseMVA: 100,
		Buses: []network.Bus{
			{Type: network.Ref, Bs: -10},
			{Type: network.PV},
			{Type: network.PQ, Gs: 2},
		},
		Branches: []network.Branch{
			{From: 0, To: 1, R: 0.02, X: 0.08, B: 0.04},
			{From: 0, To: 2, R: 0.05, X: 0.2, Tap: 1.02},
			{From: 1, To: 2, R: 0.04, X: 0.16, B: 0.02},
		},
	}
	y, _, _, err := network.MakeYbus(n)
	require.NoError(t, err)

	v := []complex128{
		cmplx.Rect(1.0, 0),
		cmplx.Rect(1.02, 0.05),
		cmplx.Rect(0.97, -0.08),
	}
	m := &Maps{
		PRow:     []int{-1, 0, 1},
		QRow:     []int{-1, -1, 2},
		VaCol:    []int{-1, 0, 1},
		VmCol:    []int{-1, -1, 2},
		SlackCol: -1,
	}
	return y, v, m, 3
}

// mismatch for the finite-difference reference; the constant injection term
// drops out of the derivative so it is omitted
func mismatchAt(y *matrix.CMatrix, v []complex128, m *Maps, size int) []float64 {
	iv := y.MulVec(v)
	f := make([]float64, size)
	for i := range v {
		mis := v[i] * cmplx.Conj(iv[i])
		if r := m.PRow[i]; r >= 0 {
			f[r] = real(mis)
		}
		if r := m.QRow[i]; r >= 0 {
			f[r] = imag(mis)
		}
	}
	return f
}

func assembleDense(t *testing.T, fn func(matrix.Assembler, *matrix.CMatrix, []complex128, *Maps, []float64),
	y *matrix.CMatrix, v []complex128, m *Maps, size int) *matrix.Coo {
	t.Helper()
	sys, err := matrix.NewSystem(size, matrix.BackendDense, 0, true)
	require.NoError(t, err)
	fn(sys, y, v, m, nil)
	return sys.Snapshot()
}

func TestAssembleMatchesDense(t *testing.T) {
	y, v, m, size := testCase(t)

	sparse := assembleDense(t, Assemble, y, v, m, size)
	dense := assembleDense(t, AssembleDense, y, v, m, size)

	for i := 1; i <= size; i++ {
		for j := 1; j <= size; j++ {
			assert.InDelta(t, dense.At(i, j), sparse.At(i, j), 1e-12, "entry (%d,%d)", i, j)
		}
	}
}

func TestAssembleFiniteDifference(t *testing.T) {
	y, v, m, size := testCase(t)
	jac := assembleDense(t, Assemble, y, v, m, size)

	vm := make([]float64, len(v))
	va := make([]float64, len(v))
	for i := range v {
		vm[i] = cmplx.Abs(v[i])
		va[i] = cmplx.Phase(v[i])
	}
	rebuild := func() []complex128 {
		w := make([]complex128, len(v))
		for i := range w {
			w[i] = cmplx.Rect(vm[i], va[i])
		}
		return w
	}

	const h = 1e-6
	perturb := func(bus int, angle bool) []float64 {
		if angle {
			va[bus] += h
		} else {
			vm[bus] += h
		}
		fp := mismatchAt(y, rebuild(), m, size)
		if angle {
			va[bus] -= 2 * h
		} else {
			vm[bus] -= 2 * h
		}
		fn := mismatchAt(y, rebuild(), m, size)
		if angle {
			va[bus] += h
		} else {
			vm[bus] += h
		}
		d := make([]float64, size)
		for r := range d {
			d[r] = (fp[r] - fn[r]) / (2 * h)
		}
		return d
	}

	for bus := range v {
		if c := m.VaCol[bus]; c >= 0 {
			d := perturb(bus, true)
			for r := 0; r < size; r++ {
				assert.InDelta(t, d[r], jac.At(r+1, c+1), 1e-4, "dF%d/dVa%d", r, bus)
			}
		}
		if c := m.VmCol[bus]; c >= 0 {
			d := perturb(bus, false)
			for r := 0; r < size; r++ {
				assert.InDelta(t, d[r], jac.At(r+1, c+1), 1e-4, "dF%d/dVm%d", r, bus)
			}
		}
	}
}

func TestAssembleSlackColumn(t *testing.T) {
	b := matrix.NewCBuilder(2, 2)
	b.Add(0, 0, complex(0, -10))
	b.Add(0, 1, complex(0, 10))
	b.Add(1, 0, complex(0, 10))
	b.Add(1, 1, complex(0, -10))
	y := b.Build()

	m := &Maps{
		PRow:     []int{0, 1},
		QRow:     []int{-1, 2},
		VaCol:    []int{-1, 0},
		VmCol:    []int{-1, 1},
		SlackCol: 2,
	}
	v := []complex128{1, cmplx.Rect(0.98, -0.05)}
	weights := []float64{0.6, 0.4}

	sys, err := matrix.NewSystem(3, matrix.BackendDense, 0, true)
	require.NoError(t, err)
	Assemble(sys, y, v, m, weights)
	snap := sys.Snapshot()

	assert.InDelta(t, 0.6, snap.At(1, 3), 1e-12)
	assert.InDelta(t, 0.4, snap.At(2, 3), 1e-12)
	assert.InDelta(t, 0.0, snap.At(3, 3), 1e-12) // no weight on the Q row
}

func TestAugmentTDPFTransientOff(t *testing.T) {
	m := &Maps{
		PRow:     []int{-1, 0},
		QRow:     []int{-1, 1},
		VaCol:    []int{-1, 0},
		VmCol:    []int{-1, 1},
		SlackCol: -1,
	}
	v := []complex128{1, cmplx.Rect(0.97, -0.06)}

	d := &TDPFData{
		FBus:   []int{0},
		TBus:   []int{1},
		RPU:    []float64{0.05},
		XPU:    []float64{0.2},
		RRefPU: []float64{0.05},
		Alpha:  []float64{0.004},
		A1:     []float64{0.1},
		A2:     []float64{0.001},
		G:      []float64{0}, // zero delay: temperature stays put
		IPU:    []float64{0.5},
	}

	sys, err := matrix.NewSystem(3, matrix.BackendDense, 0, true)
	require.NoError(t, err)
	AugmentTDPF(sys, d, v, m, 2)
	snap := sys.Snapshot()

	// voltage sensitivities of the thermal row vanish, diagonal is -1
	assert.InDelta(t, 0.0, snap.At(3, 1), 1e-12)
	assert.InDelta(t, 0.0, snap.At(3, 2), 1e-12)
	assert.InDelta(t, -1.0, snap.At(3, 3), 1e-12)
	// the power rows still see the resistance change
	assert.NotZero(t, snap.At(1, 3))
}

func TestAugmentTDPFThermalRowSigns(t *testing.T) {
	m := &Maps{
		PRow:     []int{-1, 0},
		QRow:     []int{-1, 1},
		VaCol:    []int{-1, 0},
		VmCol:    []int{-1, 1},
		SlackCol: -1,
	}
	v := []complex128{1, cmplx.Rect(0.97, -0.06)}

	d := &TDPFData{
		FBus:   []int{0},
		TBus:   []int{1},
		RPU:    []float64{0.05},
		XPU:    []float64{0.2},
		RRefPU: []float64{0.05},
		Alpha:  []float64{0.004},
		A1:     []float64{0.1},
		A2:     []float64{0.001},
		G:      []float64{1},
		IPU:    []float64{0.5},
	}

	sys, err := matrix.NewSystem(3, matrix.BackendDense, 0, true)
	require.NoError(t, err)
	AugmentTDPF(sys, d, v, m, 2)
	snap := sys.Snapshot()

	// heating grows with angle spread and shrinks toward -1 on the diagonal
	assert.Less(t, snap.At(3, 3), 0.0)
	assert.NotZero(t, snap.At(3, 1))
	assert.NotZero(t, snap.At(3, 2))
}

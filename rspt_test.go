package diven

import (
	"math"
	"math/big"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// Two-level system W = [[0, v], [v, 0]] over E = (0, d). The exact
// ground energy (d - sqrt(d^2+4v^2))/2 expands into
// -sum_k C_k v^(2k+2)/d^(2k+1) with C_k the Catalan numbers, which
// fixes every series coefficient in closed form.
func TestSeriesTwoLevel(t *testing.T) {
	t.Parallel()
	const v, d = 1.0, 10.0
	states := []State{
		{V: []int{0}, E: 0},
		{V: []int{1}, E: d},
	}
	w := mat.NewSymDense(2, []float64{0, v, v, 0})

	const nmax = 10
	e, err := Series(0, states, w, nmax, 50)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	catalan := []float64{1, 1, 2, 5, 14}
	for i := 0; i < nmax; i++ {
		var want float64
		if i%2 == 1 {
			k := (i - 1) / 2
			want = -catalan[k] * math.Pow(v, float64(2*k+2)) / math.Pow(d, float64(2*k+1))
		}
		got, _ := e[i].Float64()
		if math.Abs(got-want) > 1e-12*math.Max(1, math.Abs(want)) {
			t.Fatalf("e[%d] = %v, want %v", i, got, want)
		}
	}

	// The partial sum reproduces the exact ground eigenvalue.
	sum := new(big.Float).SetPrec(200)
	for _, c := range e {
		sum.Add(sum, c)
	}
	got, _ := sum.Float64()
	exact := (d - math.Sqrt(d*d+4*v*v)) / 2
	if math.Abs(got-exact) > 1e-9 {
		t.Fatalf("series sum %v, exact %v", got, exact)
	}
}

// For a diagonally dominant Hamiltonian the series converges, and its
// sum added to the zero-order energy must match the variational
// eigenvalue of the same state.
func TestSeriesMatchesVariational(t *testing.T) {
	t.Parallel()
	states := []State{
		{V: []int{0}, E: 0},
		{V: []int{1}, E: 2},
		{V: []int{2}, E: 5},
		{V: []int{3}, E: 9},
	}
	w := mat.NewSymDense(4, []float64{
		0.03, 0.10, 0.05, 0.02,
		0.10, -0.02, 0.08, 0.03,
		0.05, 0.08, 0.01, 0.11,
		0.02, 0.03, 0.11, -0.04,
	})

	for q := 0; q < 4; q++ {
		e, err := Series(q, states, w, 40, 60)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		sum := new(big.Float).SetPrec(256).SetFloat64(states[q].E)
		for _, c := range e {
			sum.Add(sum, c)
		}
		got, _ := sum.Float64()

		h, err := AddZeroOrder(w, states)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		levels, _, err := DiagonalizeFrom(h, states, 0)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if math.Abs(got-levels[q].E) > 1e-10 {
			t.Fatalf("state %d: series %v, variational %v", q, got, levels[q].E)
		}
	}
}

// First orders have closed forms: e0 = W[q][q] and
// e1 = sum_{i!=q} W[q][i]^2/(E_q-E_i).
func TestSeriesLowOrders(t *testing.T) {
	t.Parallel()
	states := []State{
		{V: []int{0}, E: 1},
		{V: []int{1}, E: 3},
		{V: []int{2}, E: 7},
	}
	w := mat.NewSymDense(3, []float64{
		0.4, 0.2, -0.1,
		0.2, 0.3, 0.25,
		-0.1, 0.25, -0.2,
	})
	const q = 1
	e, err := Series(q, states, w, 2, 0) // digits <= 0 takes the default
	if err != nil {
		t.Fatalf("%+v", err)
	}

	e0, _ := e[0].Float64()
	if e0 != w.At(q, q) {
		t.Fatalf("e0 = %v, want %v", e0, w.At(q, q))
	}
	var want float64
	for i, s := range states {
		if i == q {
			continue
		}
		want += w.At(q, i) * w.At(q, i) / (states[q].E - s.E)
	}
	e1, _ := e[1].Float64()
	if math.Abs(e1-want) > 1e-14 {
		t.Fatalf("e1 = %v, want %v", e1, want)
	}
}

func TestSeriesErrors(t *testing.T) {
	t.Parallel()
	states := []State{
		{V: []int{0}, E: 0},
		{V: []int{1}, E: 1},
	}
	w := mat.NewSymDense(2, []float64{0, 0.1, 0.1, 0})
	if _, err := Series(0, states, w, 1, 50); err == nil {
		t.Fatalf("expected error for nmax < 2")
	}
	if _, err := Series(2, states, w, 5, 50); err == nil {
		t.Fatalf("expected error for target state out of range")
	}
	if _, err := Series(0, nil, w, 5, 50); err == nil {
		t.Fatalf("expected error for empty basis")
	}

	// Degenerate zero-order energies make the denominators singular;
	// the resonance shift exists to remove them beforehand.
	degenerate := []State{
		{V: []int{0}, E: 1},
		{V: []int{1}, E: 1},
	}
	if _, err := Series(0, degenerate, w, 5, 50); err == nil {
		t.Fatalf("expected error for degenerate states")
	}
}

package diven

import (
	"math"
	"slices"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestDiagonalizeTwoLevel(t *testing.T) {
	t.Parallel()
	states := []State{
		{V: []int{0}, E: 0},
		{V: []int{1}, E: 1},
	}
	h := mat.NewSymDense(2, []float64{0, 0.1, 0.1, 1})

	levels, vecs, err := Diagonalize(h, states)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	// Exact eigenvalues of [[0, 0.1], [0.1, 1]].
	lo := (1 - math.Sqrt(1.04)) / 2
	hi := (1 + math.Sqrt(1.04)) / 2
	if math.Abs(levels[0].E-0) > 1e-12 {
		t.Fatalf("ground level %v, want 0", levels[0].E)
	}
	if math.Abs(levels[1].E-(hi-lo)) > 1e-12 {
		t.Fatalf("level 1 = %v, want %v", levels[1].E, hi-lo)
	}
	if !slices.Equal(levels[0].V, []int{0}) || !slices.Equal(levels[1].V, []int{1}) {
		t.Fatalf("labels %v %v", levels[0].V, levels[1].V)
	}

	// Columns are unit eigenvectors in the relabeled order.
	for j := 0; j < 2; j++ {
		var norm float64
		for i := 0; i < 2; i++ {
			norm += vecs.At(i, j) * vecs.At(i, j)
		}
		if math.Abs(norm-1) > 1e-12 {
			t.Fatalf("column %d norm %v", j, norm)
		}
	}
}

// Eigenvectors are assigned to the basis state they overlap most with,
// not to their eigenvalue rank.
func TestDiagonalizeRelabel(t *testing.T) {
	t.Parallel()
	states := []State{
		{V: []int{0}, E: 0},
		{V: []int{1}, E: 1},
	}
	// Diagonal Hamiltonian with inverted order: the higher eigenvalue
	// belongs to basis state 0.
	h := mat.NewSymDense(2, []float64{2, 0, 0, 1})

	levels, _, err := Diagonalize(h, states)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !slices.Equal(levels[0].V, []int{0}) || math.Abs(levels[0].E-1) > 1e-12 {
		t.Fatalf("level 0: %v %v", levels[0].V, levels[0].E)
	}
	if !slices.Equal(levels[1].V, []int{1}) || math.Abs(levels[1].E-0) > 1e-12 {
		t.Fatalf("level 1: %v %v", levels[1].V, levels[1].E)
	}
}

// Strong mixing makes both eigenvectors overlap basis state 0 most:
// both levels keep the claimed label, in ascending eigenvalue order.
func TestDiagonalizeDuplicateLabel(t *testing.T) {
	t.Parallel()
	states := []State{
		{V: []int{0}, E: 0},
		{V: []int{1}, E: 1},
	}
	// Eigenvectors (1,-1)/sqrt2 at -9 and (1,1)/sqrt2 at 11: the
	// squared coefficients tie, so the lower basis index wins twice.
	h := mat.NewSymDense(2, []float64{1, 10, 10, 1})

	levels, _, err := Diagonalize(h, states)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !slices.Equal(levels[0].V, []int{0}) || !slices.Equal(levels[1].V, []int{0}) {
		t.Fatalf("labels %v %v, want [0] [0]", levels[0].V, levels[1].V)
	}
	if math.Abs(levels[0].E-0) > 1e-12 || math.Abs(levels[1].E-20) > 1e-12 {
		t.Fatalf("energies %v %v, want 0 20", levels[0].E, levels[1].E)
	}
}

func TestDiagonalizeFrom(t *testing.T) {
	t.Parallel()
	states := []State{
		{V: []int{0}, E: 0.5},
		{V: []int{1}, E: 1.5},
		{V: []int{2}, E: 2.5},
	}
	h := mat.NewSymDense(3, []float64{
		0.5, 0.05, 0.02,
		0.05, 1.5, 0.05,
		0.02, 0.05, 2.5,
	})
	const e0 = 0.3
	levels, _, err := DiagonalizeFrom(h, states, e0)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	// Eigenvalues preserve the trace, so the corrected energies plus
	// N*E0 reproduce it exactly.
	var sum float64
	for _, l := range levels {
		sum += l.E
	}
	var trace float64
	for i := 0; i < 3; i++ {
		trace += h.At(i, i)
	}
	if math.Abs(sum+3*e0-trace) > 1e-10 {
		t.Fatalf("sum %v + 3*E0 != trace %v", sum, trace)
	}
}

func TestDiagonalizeErrors(t *testing.T) {
	t.Parallel()
	if _, _, err := Diagonalize(mat.NewSymDense(2, nil), []State{{V: []int{0}, E: 0}}); err == nil {
		t.Fatalf("expected error for size mismatch")
	}
}

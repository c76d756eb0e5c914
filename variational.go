package diven

import (
	"cmp"
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Level is a vibrational state after diagonalization: the quantum
// numbers of the zero-order state it overlaps most with, and the
// corrected energy relative to the reference energy.
type Level struct {
	V []int
	E float64
}

// Diagonalize solves the Hamiltonian variationally with energies
// reported relative to the lowest eigenvalue, so the ground level is
// exactly zero.
func Diagonalize(h *mat.SymDense, states []State) ([]Level, *mat.Dense, error) {
	return diagonalize(h, states, nil)
}

// DiagonalizeFrom is Diagonalize with a caller-supplied reference
// energy subtracted from every level instead of the lowest eigenvalue.
func DiagonalizeFrom(h *mat.SymDense, states []State, e0 float64) ([]Level, *mat.Dense, error) {
	return diagonalize(h, states, &e0)
}

// diagonalize performs the symmetric eigendecomposition and relabels
// the eigenvectors diabatically: each eigenvector is assigned to the
// basis index of the zero-order state with the largest squared
// coefficient. Two eigenvectors can claim the same index when states
// are near-degenerate or strongly mixed; the result is a stable sort
// by (claimed index, eigenvalue order), so duplicate claims stay
// adjacent in ascending eigenvalue order. The tie-break is a labeling
// convention, not physics.
func diagonalize(h *mat.SymDense, states []State, e0 *float64) ([]Level, *mat.Dense, error) {
	n := h.SymmetricDim()
	if n == 0 {
		return nil, nil, errors.Errorf("empty basis")
	}
	if n != len(states) {
		return nil, nil, errors.Errorf("matrix of size %d for %d states", n, len(states))
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(h, true); !ok {
		return nil, nil, errors.Errorf("eigendecomposition failed")
	}
	vals := eig.Values(nil) // ascending
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	ref := vals[0]
	if e0 != nil {
		ref = *e0
	}

	// col is the original eigenvalue index, label the claimed basis
	// index of the dominant coefficient.
	type assigned struct {
		label int
		col   int
	}
	order := make([]assigned, n)
	for j := 0; j < n; j++ {
		label, best := 0, 0.0
		for i := 0; i < n; i++ {
			c := vecs.At(i, j)
			if c*c > best {
				best, label = c*c, i
			}
		}
		order[j] = assigned{label: label, col: j}
	}
	slices.SortStableFunc(order, func(a, b assigned) int {
		return cmp.Compare(a.label, b.label)
	})

	levels := make([]Level, n)
	perm := mat.NewDense(n, n, nil)
	for i, a := range order {
		levels[i] = Level{V: slices.Clone(states[a.label].V), E: vals[a.col] - ref}
		for k := 0; k < n; k++ {
			perm.Set(k, i, vecs.At(k, a.col))
		}
	}
	return levels, perm, nil
}

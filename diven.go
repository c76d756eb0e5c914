// Package diven computes vibrational energy levels of polyatomic
// molecules by variational diagonalization of an anharmonic Hamiltonian
// in a harmonic-oscillator product basis, and by high-order
// Rayleigh-Schrodinger perturbation theory for single target states.
//
// References:
//   - Resummation of divergent perturbation series for vibrational
//     energy levels, A. V. Duchko and A. D. Bykov.
package diven

import (
	"slices"

	"github.com/pkg/errors"
)

// State is a zero-order vibrational basis state: one quantum number per
// normal mode, plus the zero-order energy E = sum_i freq_i*(v_i+1/2).
type State struct {
	V []int
	E float64
}

// ZeroPoint returns the zero-point energy sum(freqs)/2.
func ZeroPoint(freqs []float64) float64 {
	var e float64
	for _, f := range freqs {
		e += f / 2
	}
	return e
}

// Enumerate generates every basis state whose zero-order energy,
// zero-point term included, is at most emax. The result is sorted by
// (E, v1, ..., vM) ascending and indexed densely from zero, the
// ordering all downstream matrices rely on.
//
// An emax below the zero-point energy admits no states at all, which is
// a configuration error rather than an empty matrix.
func Enumerate(emax float64, freqs []float64) ([]State, error) {
	if len(freqs) == 0 {
		return nil, errors.Errorf("no mode frequencies")
	}
	for i, f := range freqs {
		if f <= 0 {
			return nil, errors.Errorf("mode %d: frequency %g is not positive", i+1, f)
		}
	}

	states := generate(nil, ZeroPoint(freqs), emax, freqs)
	if len(states) == 0 {
		return nil, errors.Errorf("no states below emax %g, zero-point energy is %g", emax, ZeroPoint(freqs))
	}

	slices.SortFunc(states, compareStates)
	return states, nil
}

// generate appends to dst all quantum-number tuples whose energy,
// accumulated from e0, stays at or below emax. At each mode the search
// first descends to the next mode with the current quantum number, then
// increments the current mode and retries, so the pre-sort order is
// deterministic. Recursion depth equals the mode count.
func generate(dst []State, e0, emax float64, freqs []float64) []State {
	v := make([]int, len(freqs))
	var rec func(mode int, e float64)
	rec = func(mode int, e float64) {
		if mode == len(freqs) {
			dst = append(dst, State{V: slices.Clone(v), E: e})
			return
		}
		for q := 0; ; q++ {
			v[mode] = q
			eq := e + float64(q)*freqs[mode]
			if eq > emax {
				break
			}
			rec(mode+1, eq)
		}
		v[mode] = 0
	}
	if e0 <= emax {
		rec(0, e0)
	}
	return dst
}

func compareStates(a, b State) int {
	switch {
	case a.E < b.E:
		return -1
	case a.E > b.E:
		return 1
	}
	return slices.Compare(a.V, b.V)
}

package diven

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/FuffiKFuffiK/DivEn/oscill"
)

// Term is one monomial of the anharmonic potential expansion: a power
// per normal mode and a real coefficient. A list of Terms, order
// irrelevant, is the full perturbation operator.
type Term struct {
	Powers []int
	K      float64
}

// MaxV returns the largest quantum number appearing in the basis,
// the vmax to precompute weight tables for.
func MaxV(states []State) int {
	vmax := 0
	for _, s := range states {
		for _, v := range s.V {
			if v > vmax {
				vmax = v
			}
		}
	}
	return vmax
}

// MaxOrder returns the largest coupling power appearing in terms.
func MaxOrder(terms []Term) int {
	nmax := 0
	for _, t := range terms {
		for _, p := range t.Powers {
			if p > nmax {
				nmax = p
			}
		}
	}
	return nmax
}

// BuildMatrix assembles the symmetric perturbation matrix W coupling
// the basis states through the anharmonic terms. W[i][i] excludes the
// zero-order energies; see AddZeroOrder. A nil table falls back to the
// closed-form weights on every lookup, which is the slow reference
// path.
func BuildMatrix(terms []Term, states []State, tbl *oscill.Table) (*mat.SymDense, error) {
	return BuildMatrixCtx(context.Background(), terms, states, tbl)
}

// BuildMatrixCtx is BuildMatrix with a cancellation hook around the
// O(N^2*K*M) assembly loop, which dominates the wall-clock time of the
// whole calculation. Rows are assembled concurrently; entries of W are
// written once each and rows are disjoint, so no locking is needed.
func BuildMatrixCtx(ctx context.Context, terms []Term, states []State, tbl *oscill.Table) (*mat.SymDense, error) {
	n := len(states)
	if n == 0 {
		return nil, errors.Errorf("empty basis")
	}
	modes := len(states[0].V)
	for i, t := range terms {
		if len(t.Powers) != modes {
			return nil, errors.Errorf("term %d: %d powers for %d modes", i, len(t.Powers), modes)
		}
	}

	w := mat.NewSymDense(n, nil)
	rows := make(chan int)
	var wg sync.WaitGroup
	for worker := 0; worker < runtime.GOMAXPROCS(0); worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rows {
				buildRow(w, i, terms, states, tbl)
			}
		}()
	}
feed:
	for i := 0; i < n; i++ {
		select {
		case rows <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(rows)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return w, nil
}

// buildRow fills W[i][j] for j >= i. The matrix element factorizes
// across modes because the basis is a tensor product, so a term
// contributes only when every per-mode weight is nonzero.
func buildRow(w *mat.SymDense, i int, terms []Term, states []State, tbl *oscill.Table) {
	n := len(states)
	modes := len(states[i].V)
	vi := states[i].V

	// Per-mode quantum-number differences and maxima against row i,
	// shared by every term of the inner loop.
	dv := make([]int, n*modes)
	vm := make([]int, n*modes)
	for j := i; j < n; j++ {
		vj := states[j].V
		for k := 0; k < modes; k++ {
			d := vi[k] - vj[k]
			m := vi[k]
			if d < 0 {
				d = -d
				m = vj[k]
			}
			dv[j*modes+k], vm[j*modes+k] = d, m
		}
	}

	for j := i; j < n; j++ {
		var wij float64
		for _, t := range terms {
			prod := t.K
			for k, p := range t.Powers {
				d := dv[j*modes+k]
				if oscill.IsZero(p, d) {
					prod = 0
					break
				}
				var wt float64
				if tbl != nil {
					wt = tbl.Weight(p, d, vm[j*modes+k])
				} else {
					wt = oscill.Weight(p, d, vm[j*modes+k])
				}
				if wt == 0 {
					prod = 0
					break
				}
				prod *= wt
			}
			wij += prod
		}
		w.SetSym(i, j, wij)
	}
}

// AddZeroOrder returns the Hamiltonian H: a copy of W with the
// zero-order energies added along the diagonal. W is not mutated.
func AddZeroOrder(w *mat.SymDense, states []State) (*mat.SymDense, error) {
	n := w.SymmetricDim()
	if n != len(states) {
		return nil, errors.Errorf("matrix of size %d for %d states", n, len(states))
	}
	h := mat.NewSymDense(n, nil)
	h.CopySym(w)
	for i, s := range states {
		h.SetSym(i, i, w.At(i, i)+s.E)
	}
	return h, nil
}

// ShiftFrequencies redistributes energy between the zero-order
// reference and the perturbation: for each state the amount
// dot(v+1/2, shifts) moves from the diagonal of W into the state's
// zero-order energy. The Hamiltonian W+diag(E) is unchanged up to
// floating-point rounding. Used to separate near-resonant zero-order
// energies before diagonalization or an RSPT expansion.
func ShiftFrequencies(shifts []float64, states []State, w *mat.SymDense) error {
	if len(states) == 0 {
		return errors.Errorf("empty basis")
	}
	if len(shifts) != len(states[0].V) {
		return errors.Errorf("%d shifts for %d modes", len(shifts), len(states[0].V))
	}
	if w.SymmetricDim() != len(states) {
		return errors.Errorf("matrix of size %d for %d states", w.SymmetricDim(), len(states))
	}
	for i := range states {
		var d float64
		for k, s := range shifts {
			d += (float64(states[i].V[k]) + 0.5) * s
		}
		states[i].E += d
		w.SetSym(i, i, w.At(i, i)-d)
	}
	return nil
}

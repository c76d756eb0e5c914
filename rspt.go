package diven

import (
	"math"
	"math/big"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DefaultDigits is the decimal precision of the RSPT recurrence when
// the caller does not configure one.
const DefaultDigits = 50

// Series produces the Rayleigh-Schrodinger perturbation coefficients
// e_0..e_{nmax-1} for the target state q: e_0 is the first-order
// energy W[q][q], e_1 the second-order sum, and so on. The recurrence
//
//	psi_n = Ed o (psi_{n-1}*W - sum_{m=1..n-1} e_{m-1} psi_{n-m})
//	e_n   = psi_n . W[q][:]
//
// runs entirely in big.Float arithmetic with the given decimal digit
// count (DefaultDigits when digits <= 0). The series is frequently
// asymptotically divergent with factorially growing coefficients, and
// deep orders cancel almost completely, so double precision is not an
// option for the accumulation even though W and the energies enter as
// float64. Ed[i] = 1/(E_q-E_i) with Ed[q] = 0, which excludes the
// self-term by construction rather than by branching in the hot loop.
//
// Truncating at nmax says nothing about the reliability of the tail;
// resummation callers choose both nmax and digits for themselves.
func Series(q int, states []State, w *mat.SymDense, nmax, digits int) ([]*big.Float, error) {
	n := len(states)
	if n == 0 {
		return nil, errors.Errorf("empty basis")
	}
	if w.SymmetricDim() != n {
		return nil, errors.Errorf("matrix of size %d for %d states", w.SymmetricDim(), n)
	}
	if q < 0 || q >= n {
		return nil, errors.Errorf("target state %d outside basis of %d states", q, n)
	}
	if nmax < 2 {
		return nil, errors.Errorf("nmax %d, need at least 2 orders", nmax)
	}
	if digits <= 0 {
		digits = DefaultDigits
	}
	prec := uint(math.Ceil(float64(digits)*math.Log2(10))) + 16

	zero := func() *big.Float { return new(big.Float).SetPrec(prec) }
	f := func(x float64) *big.Float { return new(big.Float).SetPrec(prec).SetFloat64(x) }

	// Energy denominators 1/(E_q - E_i), zero at q itself.
	ed := make([]*big.Float, n)
	for i := range ed {
		if i == q {
			ed[i] = zero()
			continue
		}
		d := zero().Sub(f(states[q].E), f(states[i].E))
		if d.Sign() == 0 {
			return nil, errors.Errorf("states %d and %d are degenerate at E=%g; shift frequencies first", q, i, states[i].E)
		}
		ed[i] = zero().Quo(f(1), d)
	}

	wq := make([]*big.Float, n)
	for i := range wq {
		wq[i] = f(w.At(q, i))
	}

	dot := func(a, b []*big.Float) *big.Float {
		s, t := zero(), zero()
		for i := range a {
			s.Add(s, t.Mul(a[i], b[i]))
		}
		return s
	}

	e := make([]*big.Float, nmax)
	psi := make([][]*big.Float, nmax)

	e[0] = f(w.At(q, q))
	psi[1] = make([]*big.Float, n)
	for i := range psi[1] {
		psi[1][i] = zero().Mul(wq[i], ed[i])
	}
	e[1] = dot(psi[1], wq)

	t, u := zero(), zero()
	for ord := 2; ord < nmax; ord++ {
		cur := make([]*big.Float, n)
		for i := 0; i < n; i++ {
			// (psi_{ord-1} * W)[i]
			t.SetInt64(0)
			for k := 0; k < n; k++ {
				t.Add(t, u.Mul(psi[ord-1][k], f(w.At(k, i))))
			}
			// minus the renormalization sum over lower orders
			for m := 1; m < ord; m++ {
				t.Sub(t, u.Mul(e[m-1], psi[ord-m][i]))
			}
			cur[i] = zero().Mul(t, ed[i])
		}
		psi[ord] = cur
		e[ord] = dot(cur, wq)
	}
	return e, nil
}

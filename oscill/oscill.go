// Package oscill provides matrix-element weights of one-dimensional
// harmonic-oscillator ladder operators up to eighth order.
//
// A weight is the matrix element <v1|q^n|v2> stripped of the mode
// frequency, keyed by the power n, the difference dv = |v1-v2| and the
// larger quantum number v = max(v1, v2). Elements with dv > n, with
// (n-dv) odd, or with n > 8 are exactly zero. The n <= 8 bound is a
// limitation of the closed-form table, not of the physics; coefficients
// of higher order contribute nothing rather than failing.
package oscill

import "math"

// MaxOrder is the largest power of the coordinate operator for which
// closed-form weights are known to this package.
const MaxOrder = 8

// IsZero reports whether the (n, dv) weight vanishes identically.
// It is cheap and should be consulted before Weight in hot loops.
func IsZero(n, dv int) bool {
	return dv > n || (n-dv)%2 != 0 || n > MaxOrder
}

// falling is the falling factorial v*(v-1)*...*(v-k+1).
func falling(v float64, k int) float64 {
	p := 1.0
	for i := 0; i < k; i++ {
		p *= v - float64(i)
	}
	return p
}

// Weight returns the closed-form weight for power n, quantum-number
// difference dv and larger quantum number v. It returns exactly 0
// whenever IsZero(n, dv) holds.
func Weight(n, dv, vi int) float64 {
	if IsZero(n, dv) {
		return 0
	}
	v := float64(vi)
	switch n {
	case 0:
		return 1
	case 1:
		return math.Sqrt(v / 2)
	case 2:
		if dv == 0 {
			return v + 0.5
		}
		return 0.5 * math.Sqrt(v*(v-1))
	case 3:
		if dv == 1 {
			return 0.75 * math.Sqrt2 * v * math.Sqrt(v)
		}
		return 0.25 * math.Sqrt(2*falling(v, 3))
	case 4:
		switch dv {
		case 0:
			return 1.5*v*v + 1.5*v + 0.75
		case 2:
			return (v - 0.5) * math.Sqrt(v*(v-1))
		}
		return 0.25 * math.Sqrt(falling(v, 4))
	case 5:
		switch dv {
		case 1:
			return (1.25*v*v + 0.625) * math.Sqrt(2*v)
		case 3:
			return (0.625*v - 0.625) * math.Sqrt(2*falling(v, 3))
		}
		return 0.125 * math.Sqrt(2*falling(v, 5))
	case 6:
		switch dv {
		case 0:
			return 0.625 * (2*v + 1) * (2*v*v + 2*v + 3)
		case 2:
			return 1.875 * (v*v - v + 1) * math.Sqrt(v*(v-1))
		case 4:
			return (0.75*v - 1.125) * math.Sqrt(falling(v, 4))
		}
		return 0.125 * math.Sqrt(falling(v, 6))
	case 7:
		switch dv {
		case 1:
			return 2.1875 * (v*v + 2) * v * math.Sqrt(2*v)
		case 3:
			return 1.3125 * (v*v - 2*v + 2) * math.Sqrt(2*falling(v, 3))
		case 5:
			return 0.4375 * (v - 2) * math.Sqrt(2*falling(v, 5))
		}
		return 0.0625 * math.Sqrt(2*falling(v, 7))
	default: // n == 8
		switch dv {
		case 0:
			return 4.375 * (v*v*v*v + 2*v*v*v + 5*v*v + 4*v + 1.5)
		case 2:
			return 1.75 * (2*v - 1) * (v*v - v + 3) * math.Sqrt(v*(v-1))
		case 4:
			return 0.875 * (2*v*v - 6*v + 7) * math.Sqrt(falling(v, 4))
		case 6:
			return (0.5*v - 1.25) * math.Sqrt(falling(v, 6))
		}
		return 0.0625 * math.Sqrt(falling(v, 8))
	}
}

// Table memoizes weights for all valid (n, dv, v) keys with n <= nmax
// and v <= vmax. It is read-only after construction and safe to share
// across goroutines.
type Table struct {
	vmax int
	nmax int
	m    map[[3]int]float64
}

// NewTable precomputes a weight table. nmax is clamped to MaxOrder,
// since every higher order is identically zero.
func NewTable(vmax, nmax int) *Table {
	if nmax > MaxOrder {
		nmax = MaxOrder
	}
	t := &Table{vmax: vmax, nmax: nmax, m: make(map[[3]int]float64)}
	for n := 0; n <= nmax; n++ {
		for dv := n % 2; dv <= n; dv += 2 {
			for v := 0; v <= vmax; v++ {
				t.m[[3]int{n, dv, v}] = Weight(n, dv, v)
			}
		}
	}
	return t
}

// Weight looks up a memoized weight, falling back to the closed form
// for keys outside the precomputed range.
func (t *Table) Weight(n, dv, v int) float64 {
	if IsZero(n, dv) {
		return 0
	}
	if w, ok := t.m[[3]int{n, dv, v}]; ok {
		return w
	}
	return Weight(n, dv, v)
}

// Package sumcheck provides the primitives of the Spartan cubic sumcheck:
// equality-polynomial tables, per-round evaluation of the cubic round
// polynomial at 0, -1 and infinity, coefficient recovery from those
// evaluations, and sparse partial evaluation of the R1CS matrices.
package sumcheck

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/sync/errgroup"

	"github.com/worldfnd/noir-r1cs/r1cs"
)

// EqEvals returns the table of eq(r, x) over the boolean hypercube,
// leading variable first.
func EqEvals(r []fr.Element) []fr.Element {
	out := make([]fr.Element, 1<<len(r))
	var one fr.Element
	one.SetOne()
	evalEq(r, out, one)
	return out
}

func evalEq(r []fr.Element, out []fr.Element, scalar fr.Element) {
	if len(r) == 0 {
		out[0].Add(&out[0], &scalar)
		return
	}
	var s1, s0 fr.Element
	s1.Mul(&scalar, &r[0])
	s0.Sub(&scalar, &s1)
	half := len(out) / 2
	evalEq(r[1:], out[:half], s0)
	evalEq(r[1:], out[half:], s1)
}

// EvalEqPoint computes eq(r, alpha) = prod(r_i*a_i + (1-r_i)(1-a_i)).
func EvalEqPoint(r, alpha []fr.Element) fr.Element {
	var acc, term, u, v fr.Element
	acc.SetOne()
	var one fr.Element
	one.SetOne()
	for i := range r {
		term.Mul(&r[i], &alpha[i])
		u.Sub(&one, &r[i])
		v.Sub(&one, &alpha[i])
		u.Mul(&u, &v)
		term.Add(&term, &u)
		acc.Mul(&acc, &term)
	}
	return acc
}

// EvalCubic evaluates c0 + c1*x + c2*x^2 + c3*x^3 by Horner.
func EvalCubic(c [4]fr.Element, x fr.Element) fr.Element {
	out := c[3]
	out.Mul(&out, &x)
	out.Add(&out, &c[2])
	out.Mul(&out, &x)
	out.Add(&out, &c[1])
	out.Mul(&out, &x)
	out.Add(&out, &c[0])
	return out
}

// Fold fixes the leading variable of a multilinear evaluation list to alpha,
// halving it: out[i] = v[i] + alpha*(v[i+half] - v[i]).
func Fold(v []fr.Element, alpha fr.Element) []fr.Element {
	half := len(v) / 2
	out := make([]fr.Element, half)
	var d fr.Element
	for i := 0; i < half; i++ {
		d.Sub(&v[half+i], &v[i])
		d.Mul(&d, &alpha)
		out[i].Add(&v[i], &d)
	}
	return out
}

// RoundEvals sums eq(x)*(a(x)*b(x) - c(x)) [+ rho*g(x)] over the hypercube
// with the leading variable fixed to 0, to -1 and "to infinity" (the cubic
// leading coefficient). g may be nil.
func RoundEvals(eq, a, b, c, g []fr.Element, rho fr.Element) (f0, fm1, finf fr.Element) {
	half := len(a) / 2
	var t1, t2, t3, t4 fr.Element
	for i := 0; i < half; i++ {
		// x = 0
		t1.Mul(&a[i], &b[i])
		t1.Sub(&t1, &c[i])
		t1.Mul(&t1, &eq[i])
		f0.Add(&f0, &t1)

		// x = -1: each multilinear evaluates to 2*lo - hi
		t1.Double(&a[i])
		t1.Sub(&t1, &a[half+i])
		t2.Double(&b[i])
		t2.Sub(&t2, &b[half+i])
		t1.Mul(&t1, &t2)
		t3.Double(&c[i])
		t3.Sub(&t3, &c[half+i])
		t1.Sub(&t1, &t3)
		t4.Double(&eq[i])
		t4.Sub(&t4, &eq[half+i])
		t1.Mul(&t1, &t4)
		fm1.Add(&fm1, &t1)

		// leading coefficient: (eq1-eq0)(a1-a0)(b1-b0)
		t1.Sub(&a[half+i], &a[i])
		t2.Sub(&b[half+i], &b[i])
		t1.Mul(&t1, &t2)
		t3.Sub(&eq[half+i], &eq[i])
		t1.Mul(&t1, &t3)
		finf.Add(&finf, &t1)
	}
	if g != nil {
		var g0, gm1 fr.Element
		for i := 0; i < half; i++ {
			g0.Add(&g0, &g[i])
			t1.Double(&g[i])
			t1.Sub(&t1, &g[half+i])
			gm1.Add(&gm1, &t1)
		}
		g0.Mul(&g0, &rho)
		gm1.Mul(&gm1, &rho)
		f0.Add(&f0, &g0)
		fm1.Add(&fm1, &gm1)
	}
	return f0, fm1, finf
}

// CubicFromEvals recovers the four coefficients of the round polynomial
// from its evaluations at 0, -1 and infinity plus the running claim
// f(0) + f(1) = claim.
func CubicFromEvals(claim, f0, fm1, finf fr.Element) [4]fr.Element {
	var c [4]fr.Element
	c[0] = f0
	c[3] = finf
	// c1 + c2 = claim - 2*c0 - c3, c2 - c1 = fm1 - c0 + c3
	var s, d fr.Element
	s.Double(&c[0])
	s.Sub(&claim, &s)
	s.Sub(&s, &c[3])
	d.Sub(&fm1, &c[0])
	d.Add(&d, &c[3])
	c[2].Add(&s, &d)
	c[2].Halve()
	c[1].Sub(&s, &c[2])
	return c
}

// CheckRound verifies f(0) + f(1) == claim for the received coefficients.
func CheckRound(claim fr.Element, c [4]fr.Element) bool {
	var sum fr.Element
	sum.Double(&c[0])
	sum.Add(&sum, &c[1])
	sum.Add(&sum, &c[2])
	sum.Add(&sum, &c[3])
	return sum.Equal(&claim)
}

// WitnessBounds computes a = A*z, b = B*z and derives c = a o b, each
// padded to a power of two. Deriving c from the relation is cheaper than a
// third multiplication and is what the sumcheck claim requires.
func WitnessBounds(r *r1cs.R1CS, z []fr.Element) (a, b, c []fr.Element) {
	var g errgroup.Group
	g.Go(func() error {
		a = r.A.MulRight(r.Interner, z)
		return nil
	})
	g.Go(func() error {
		b = r.B.MulRight(r.Interner, z)
		return nil
	})
	_ = g.Wait()
	c = make([]fr.Element, len(a))
	for i := range c {
		c[i].Mul(&a[i], &b[i])
	}
	return pad(a), pad(b), pad(c)
}

func pad(v []fr.Element) []fr.Element {
	n := 1
	for n < len(v) {
		n <<= 1
	}
	if n == len(v) {
		return v
	}
	out := make([]fr.Element, n)
	copy(out, v)
	return out
}

// ExternalRows computes the partial evaluations A(alpha, .), B(alpha, .)
// and C(alpha, .) of the three matrix multilinears, in time linear in the
// number of non-zero entries: each is eq(alpha, .) times the matrix.
func ExternalRows(alpha []fr.Element, r *r1cs.R1CS) (ar, br, cr []fr.Element) {
	eqAlpha := EqEvals(alpha)[:r.NumConstraints()]
	var g errgroup.Group
	g.Go(func() error {
		ar = r.A.MulLeft(r.Interner, eqAlpha)
		return nil
	})
	g.Go(func() error {
		br = r.B.MulLeft(r.Interner, eqAlpha)
		return nil
	})
	g.Go(func() error {
		cr = r.C.MulLeft(r.Interner, eqAlpha)
		return nil
	})
	_ = g.Wait()
	return ar, br, cr
}

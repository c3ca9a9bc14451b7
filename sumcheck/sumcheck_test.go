package sumcheck

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worldfnd/noir-r1cs/field"
	"github.com/worldfnd/noir-r1cs/r1cs"
)

func random(t *testing.T, n int) []fr.Element {
	t.Helper()
	out := make([]fr.Element, n)
	for i := range out {
		_, err := out[i].SetRandom()
		require.NoError(t, err)
	}
	return out
}

func TestEqEvalsMatchesPointEvaluation(t *testing.T) {
	r := random(t, 3)
	table := EqEvals(r)
	require.Len(t, table, 8)
	var sum fr.Element
	for x := 0; x < 8; x++ {
		pt := make([]fr.Element, 3)
		for i := 0; i < 3; i++ {
			if x&(1<<(2-i)) != 0 {
				pt[i] = field.One()
			}
		}
		want := EvalEqPoint(r, pt)
		assert.True(t, table[x].Equal(&want), "index %d", x)
		sum.Add(&sum, &table[x])
	}
	// eq sums to one over the hypercube
	assert.True(t, sum.IsOne())
}

func TestFoldMatchesMultilinearEvaluation(t *testing.T) {
	v := random(t, 8)
	alphas := random(t, 3)
	folded := v
	for _, a := range alphas {
		folded = Fold(folded, a)
	}
	require.Len(t, folded, 1)

	// Direct evaluation via the eq table.
	eq := EqEvals(alphas)
	var want, term fr.Element
	for i := range v {
		term.Mul(&eq[i], &v[i])
		want.Add(&want, &term)
	}
	assert.True(t, folded[0].Equal(&want))
}

func TestCubicRoundIdentity(t *testing.T) {
	eq := random(t, 8)
	a := random(t, 8)
	b := random(t, 8)
	c := random(t, 8)

	// claim = sum over the hypercube of eq*(a*b - c)
	var claim, term fr.Element
	for i := range a {
		term.Mul(&a[i], &b[i])
		term.Sub(&term, &c[i])
		term.Mul(&term, &eq[i])
		claim.Add(&claim, &term)
	}

	f0, fm1, finf := RoundEvals(eq, a, b, c, nil, fr.Element{})
	coeffs := CubicFromEvals(claim, f0, fm1, finf)
	require.True(t, CheckRound(claim, coeffs))

	// Folding by any alpha must evaluate the round polynomial at alpha.
	alpha := random(t, 1)[0]
	next := EvalCubic(coeffs, alpha)
	eqF, aF, bF, cF := Fold(eq, alpha), Fold(a, alpha), Fold(b, alpha), Fold(c, alpha)
	var folded fr.Element
	for i := range aF {
		term.Mul(&aF[i], &bF[i])
		term.Sub(&term, &cF[i])
		term.Mul(&term, &eqF[i])
		folded.Add(&folded, &term)
	}
	assert.True(t, folded.Equal(&next))

	// Tampered coefficients must fail the round check.
	coeffs[1].Add(&coeffs[1], &eq[0])
	if !eq[0].IsZero() {
		assert.False(t, CheckRound(claim, coeffs))
	}
}

func TestExternalRowsMatchDenseEvaluation(t *testing.T) {
	r := r1cs.New()
	r.AddWitnesses(3)
	r.AddConstraint([]r1cs.Term{r1cs.T(1, 1)}, []r1cs.Term{r1cs.T(1, 2)}, []r1cs.Term{r1cs.T(1, 3)})
	r.AddConstraint([]r1cs.Term{r1cs.T(2, 1), r1cs.T(3, 2)}, []r1cs.Term{r1cs.T(1, 0)}, []r1cs.Term{r1cs.T(1, 3)})
	require.Equal(t, 2, r.NumConstraints())

	alpha := random(t, 1)
	eq := EqEvals(alpha)
	ar, br, cr := ExternalRows(alpha, r)

	z := random(t, 4)
	az := r.A.MulRight(r.Interner, z)
	bz := r.B.MulRight(r.Interner, z)
	cz := r.C.MulRight(r.Interner, z)

	check := func(rows []fr.Element, mz []fr.Element) {
		// eq-weighted row combination applied to z equals the eq-weighted
		// combination of M*z.
		var want, got, term fr.Element
		for i := range mz {
			term.Mul(&eq[i], &mz[i])
			want.Add(&want, &term)
		}
		for y := range rows {
			term.Mul(&rows[y], &z[y])
			got.Add(&got, &term)
		}
		assert.True(t, got.Equal(&want))
	}
	check(ar, az)
	check(br, bz)
	check(cr, cz)
}

func TestWitnessBoundsDerivesProduct(t *testing.T) {
	r := r1cs.New()
	r.AddWitnesses(3)
	r.AddConstraint([]r1cs.Term{r1cs.T(1, 1)}, []r1cs.Term{r1cs.T(1, 2)}, []r1cs.Term{r1cs.T(1, 3)})
	z := []fr.Element{field.One(), field.FromUint64(3), field.FromUint64(5), field.FromUint64(15)}
	a, b, c := WitnessBounds(r, z)
	require.Len(t, a, 1)
	var ab fr.Element
	ab.Mul(&a[0], &b[0])
	assert.True(t, ab.Equal(&c[0]))
}

package pcs

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldfnd/noir-r1cs/transcript"
)

func randomVec(t *testing.T, n int) []fr.Element {
	t.Helper()
	out := make([]fr.Element, n)
	for i := range out {
		_, err := out[i].SetRandom()
		require.NoError(t, err)
	}
	return out
}

func TestRawSchemeRoundTrip(t *testing.T) {
	var s RawScheme
	values := randomVec(t, 8)
	weights := [][]fr.Element{randomVec(t, 8), randomVec(t, 8)}
	sums := []fr.Element{WeightedSum(weights[0], values), WeightedSum(weights[1], values)}

	c := s.Commit(values)
	tr := transcript.New("pcs-test")
	proof, err := s.Open(tr, c, values, weights, sums)
	require.NoError(t, err)

	tr2 := transcript.New("pcs-test")
	assert.NoError(t, s.Verify(tr2, c, weights, sums, proof))
}

func TestRawSchemeCommitmentIsBinding(t *testing.T) {
	var s RawScheme
	values := randomVec(t, 4)
	c := s.Commit(values)

	// Different vectors give different roots.
	other := randomVec(t, 4)
	c2 := s.Commit(other)
	assert.False(t, c.Root.Equal(&c2.Root))

	// Tampering with a value after committing is detected.
	c.Values[1].Add(&c.Values[1], &c.Values[0])
	if !c.Values[0].IsZero() {
		tr := transcript.New("pcs-test")
		assert.ErrorIs(t, s.Verify(tr, c, nil, nil, Proof{}), ErrCommitmentMismatch)
	}
}

func TestRawSchemeRejectsWrongSum(t *testing.T) {
	var s RawScheme
	values := randomVec(t, 4)
	weights := [][]fr.Element{randomVec(t, 4)}
	sums := []fr.Element{WeightedSum(weights[0], values)}
	var one fr.Element
	one.SetOne()
	sums[0].Add(&sums[0], &one)

	c := s.Commit(values)
	tr := transcript.New("pcs-test")
	_, err := s.Open(tr, c, values, weights, sums)
	assert.ErrorIs(t, err, ErrEvaluationMismatch)

	tr2 := transcript.New("pcs-test")
	assert.ErrorIs(t, s.Verify(tr2, c, weights, sums, Proof{}), ErrEvaluationMismatch)
}

func TestWeightedSumRequiresEqualLengths(t *testing.T) {
	values := []fr.Element{el(1), el(2), el(3)}
	weights := []fr.Element{el(10), el(10), el(10)}
	got := WeightedSum(weights, values)
	want := el(60)
	assert.True(t, got.Equal(&want))

	assert.Panics(t, func() { WeightedSum(weights[:2], values) })
}

// A commitment to a short vector must not pass as a zero-extension of the
// full one.
func TestRawSchemeRejectsShortVector(t *testing.T) {
	var s RawScheme
	values := randomVec(t, 4)
	weights := [][]fr.Element{randomVec(t, 4)}
	sums := []fr.Element{WeightedSum(weights[0], values)}

	short := append([]fr.Element(nil), values[:3]...)
	c := s.Commit(short)
	tr := transcript.New("pcs-test")
	_, err := s.Open(tr, c, short, weights, sums)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	tr2 := transcript.New("pcs-test")
	assert.ErrorIs(t, s.Verify(tr2, c, weights, sums, Proof{}), ErrLengthMismatch)
}

func el(x uint64) fr.Element {
	var e fr.Element
	e.SetUint64(x)
	return e
}

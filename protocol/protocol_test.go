package protocol

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldfnd/noir-r1cs/acir"
	"github.com/worldfnd/noir-r1cs/pcs"
)

func el(x uint64) fr.Element {
	var e fr.Element
	e.SetUint64(x)
	return e
}

func negOne() fr.Element {
	var e fr.Element
	e.SetOne()
	e.Neg(&e)
	return e
}

func prove(t *testing.T, circuit *acir.Circuit, w acir.WitnessMap) (*Scheme, *Proof, []fr.Element) {
	t.Helper()
	s, err := Compile(circuit)
	require.NoError(t, err)
	proof, err := s.Prove(pcs.RawScheme{}, w)
	require.NoError(t, err)
	pub, err := s.PublicValues(w)
	require.NoError(t, err)
	return s, proof, pub
}

func TestProveVerifyMultiplication(t *testing.T) {
	circuit := &acir.Circuit{
		NumWitnesses: 3,
		PublicInputs: []acir.Witness{2},
		Opcodes: []acir.Opcode{{
			Kind: acir.OpAssertZero,
			Expr: &acir.Expression{
				Mul:    []acir.MulTerm{{Coeff: el(1), A: 0, B: 1}},
				Linear: []acir.LinearTerm{{Coeff: negOne(), W: 2}},
			},
		}},
	}
	w := acir.WitnessMap{0: el(3), 1: el(5), 2: el(15)}
	s, proof, pub := prove(t, circuit, w)
	assert.NoError(t, s.Verify(pcs.RawScheme{}, pub, proof))

	// Wrong statement.
	assert.Error(t, s.Verify(pcs.RawScheme{}, []fr.Element{el(16)}, proof))

	// Unsatisfying assignment never leaves the prover.
	_, err := s.Prove(pcs.RawScheme{}, acir.WitnessMap{0: el(3), 1: el(5), 2: el(16)})
	var pe *ProveError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ProveUnsatisfied, pe.Kind)

	// Missing assignment.
	_, err = s.Prove(pcs.RawScheme{}, acir.WitnessMap{0: el(3), 2: el(15)})
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ProveSolveFailed, pe.Kind)
}

func TestRangeCheckLookup(t *testing.T) {
	// Six 4-bit checks: enough values in one bucket to take the lookup
	// path, which draws challenges and exercises the second phase.
	circuit := &acir.Circuit{NumWitnesses: 6}
	w := acir.WitnessMap{}
	values := []uint64{0, 1, 5, 9, 15, 3}
	for i, v := range values {
		circuit.Opcodes = append(circuit.Opcodes, acir.Opcode{
			Kind: acir.OpRange, Input: acir.Witness(i), Bits: 4,
		})
		w[acir.Witness(i)] = el(v)
	}
	s, proof, pub := prove(t, circuit, w)
	require.Greater(t, s.NumChallenges(), 0)
	require.Greater(t, s.R1CS.NumWitnesses()-s.W1Witnesses, 0)
	assert.NoError(t, s.Verify(pcs.RawScheme{}, pub, proof))

	// Out-of-range value fails during solving.
	bad := acir.WitnessMap{}
	for k, v := range w {
		bad[k] = v
	}
	bad[0] = el(17)
	_, err := s.Prove(pcs.RawScheme{}, bad)
	var pe *ProveError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, []ProveErrorKind{ProveSolveFailed, ProveUnsatisfied}, pe.Kind)
}

func TestReadOnlyMemory(t *testing.T) {
	// Four-entry ROM, two reads.
	circuit := &acir.Circuit{
		NumWitnesses: 8,
		Opcodes: []acir.Opcode{
			{Kind: acir.OpMemoryInit, BlockID: 0, Init: []acir.Witness{0, 1, 2, 3}, ReadOnly: true},
			{Kind: acir.OpMemoryOp, BlockID: 0, Access: acir.MemRead, Addr: 4, Value: 5},
			{Kind: acir.OpMemoryOp, BlockID: 0, Access: acir.MemRead, Addr: 6, Value: 7},
		},
	}
	w := acir.WitnessMap{
		0: el(10), 1: el(20), 2: el(30), 3: el(40),
		4: el(2), 5: el(30),
		6: el(0), 7: el(10),
	}
	s, proof, pub := prove(t, circuit, w)
	assert.NoError(t, s.Verify(pcs.RawScheme{}, pub, proof))

	// A read returning the wrong value cannot be proven.
	bad := acir.WitnessMap{}
	for k, v := range w {
		bad[k] = v
	}
	bad[5] = el(31)
	_, err := s.Prove(pcs.RawScheme{}, bad)
	assert.Error(t, err)
}

func TestReadWriteMemory(t *testing.T) {
	// Two-entry RAM: overwrite address 0, then read it back.
	circuit := &acir.Circuit{
		NumWitnesses: 6,
		Opcodes: []acir.Opcode{
			{Kind: acir.OpMemoryInit, BlockID: 0, Init: []acir.Witness{0, 1}},
			{Kind: acir.OpMemoryOp, BlockID: 0, Access: acir.MemWrite, Addr: 2, Value: 3},
			{Kind: acir.OpMemoryOp, BlockID: 0, Access: acir.MemRead, Addr: 4, Value: 5},
		},
	}
	w := acir.WitnessMap{
		0: el(7), 1: el(8),
		2: el(0), 3: el(99),
		4: el(0), 5: el(99),
	}
	s, proof, pub := prove(t, circuit, w)
	assert.NoError(t, s.Verify(pcs.RawScheme{}, pub, proof))

	// Reading the pre-store value must fail.
	bad := acir.WitnessMap{}
	for k, v := range w {
		bad[k] = v
	}
	bad[5] = el(7)
	_, err := s.Prove(pcs.RawScheme{}, bad)
	assert.Error(t, err)
}

func TestBitwiseOps(t *testing.T) {
	// AND and XOR over the same operand pair share one table row.
	circuit := &acir.Circuit{
		NumWitnesses: 4,
		Opcodes: []acir.Opcode{
			{Kind: acir.OpAnd, Bits: 8, Lhs: 0, Rhs: 1, Output: 2},
			{Kind: acir.OpXor, Bits: 8, Lhs: 0, Rhs: 1, Output: 3},
		},
	}
	w := acir.WitnessMap{
		0: el(0xA5), 1: el(0x0F),
		2: el(0xA5 & 0x0F), 3: el(0xA5 ^ 0x0F),
	}
	s, proof, pub := prove(t, circuit, w)
	assert.NoError(t, s.Verify(pcs.RawScheme{}, pub, proof))

	bad := acir.WitnessMap{}
	for k, v := range w {
		bad[k] = v
	}
	bad[2] = el(0xFF)
	_, err := s.Prove(pcs.RawScheme{}, bad)
	assert.Error(t, err)
}

func TestRepeatedBitwiseOutputsBound(t *testing.T) {
	// The same AND twice with distinct output witnesses: both outputs are
	// bound, so neither can be assigned freely.
	circuit := &acir.Circuit{
		NumWitnesses: 4,
		Opcodes: []acir.Opcode{
			{Kind: acir.OpAnd, Bits: 8, Lhs: 0, Rhs: 1, Output: 2},
			{Kind: acir.OpAnd, Bits: 8, Lhs: 0, Rhs: 1, Output: 3},
		},
	}
	w := acir.WitnessMap{
		0: el(0xA5), 1: el(0x0F),
		2: el(0xA5 & 0x0F), 3: el(0xA5 & 0x0F),
	}
	s, proof, pub := prove(t, circuit, w)
	assert.NoError(t, s.Verify(pcs.RawScheme{}, pub, proof))

	for _, out := range []acir.Witness{2, 3} {
		bad := acir.WitnessMap{}
		for k, v := range w {
			bad[k] = v
		}
		bad[out] = el(0xDEAD)
		_, err := s.Prove(pcs.RawScheme{}, bad)
		var pe *ProveError
		require.ErrorAs(t, err, &pe, "output %d", out)
		assert.Contains(t, []ProveErrorKind{ProveSolveFailed, ProveUnsatisfied}, pe.Kind)
	}
}

func TestBitwiseOps32(t *testing.T) {
	// 32-bit operands decompose into four 8-bit limbs, one table query per
	// limb place.
	circuit := &acir.Circuit{
		NumWitnesses: 4,
		Opcodes: []acir.Opcode{
			{Kind: acir.OpAnd, Bits: 32, Lhs: 0, Rhs: 1, Output: 2},
			{Kind: acir.OpXor, Bits: 32, Lhs: 0, Rhs: 1, Output: 3},
		},
	}
	x, y := uint64(0xF0F0_A5A5), uint64(0x0FF0_FF00)
	w := acir.WitnessMap{
		0: el(x), 1: el(y),
		2: el(x & y), 3: el(x ^ y),
	}
	s, proof, pub := prove(t, circuit, w)
	assert.NoError(t, s.Verify(pcs.RawScheme{}, pub, proof))

	bad := acir.WitnessMap{}
	for k, v := range w {
		bad[k] = v
	}
	bad[2] = el((x & y) ^ 0x10000)
	_, err := s.Prove(pcs.RawScheme{}, bad)
	assert.Error(t, err)
}

func TestTamperedProofRejected(t *testing.T) {
	// Two chained multiplications give a two-row system with one sumcheck
	// round, enough to exercise every rejection path.
	circuit := &acir.Circuit{
		NumWitnesses: 4,
		PublicInputs: []acir.Witness{3},
		Opcodes: []acir.Opcode{
			{Kind: acir.OpAssertZero, Expr: &acir.Expression{
				Mul:    []acir.MulTerm{{Coeff: el(1), A: 0, B: 1}},
				Linear: []acir.LinearTerm{{Coeff: negOne(), W: 2}},
			}},
			{Kind: acir.OpAssertZero, Expr: &acir.Expression{
				Mul:    []acir.MulTerm{{Coeff: el(1), A: 2, B: 1}},
				Linear: []acir.LinearTerm{{Coeff: negOne(), W: 3}},
			}},
		},
	}
	w := acir.WitnessMap{0: el(2), 1: el(3), 2: el(6), 3: el(18)}
	s, base, pub := prove(t, circuit, w)
	require.Equal(t, 1, s.NumRounds())
	require.NoError(t, s.Verify(pcs.RawScheme{}, pub, base))

	reprove := func() *Proof {
		p, err := s.Prove(pcs.RawScheme{}, w)
		require.NoError(t, err)
		return p
	}
	kind := func(err error) VerifyErrorKind {
		var ve *VerifyError
		require.True(t, errors.As(err, &ve), "expected a VerifyError, got %v", err)
		return ve.Kind
	}

	p := reprove()
	p.Rounds[0][1].Add(&p.Rounds[0][1], &pub[0])
	assert.Equal(t, VerifyRoundMismatch, kind(s.Verify(pcs.RawScheme{}, pub, p)))

	p = reprove()
	p.VC.Add(&p.VC, &pub[0])
	assert.Equal(t, VerifyTerminalMismatch, kind(s.Verify(pcs.RawScheme{}, pub, p)))

	p = reprove()
	p.W1Sums[0].Add(&p.W1Sums[0], &pub[0])
	assert.Equal(t, VerifyClaimSplit, kind(s.Verify(pcs.RawScheme{}, pub, p)))

	p = reprove()
	p.W1.Values[2].Add(&p.W1.Values[2], &pub[0])
	assert.Equal(t, VerifyPCSRejected, kind(s.Verify(pcs.RawScheme{}, pub, p)))

	p = reprove()
	p.Rounds = p.Rounds[:0]
	assert.Equal(t, VerifyMalformedProof, kind(s.Verify(pcs.RawScheme{}, pub, p)))
}

func TestPublicInputPrefix(t *testing.T) {
	circuit := &acir.Circuit{
		NumWitnesses: 3,
		PublicInputs: []acir.Witness{2},
		Opcodes: []acir.Opcode{{
			Kind: acir.OpAssertZero,
			Expr: &acir.Expression{
				Mul:    []acir.MulTerm{{Coeff: el(1), A: 0, B: 1}},
				Linear: []acir.LinearTerm{{Coeff: negOne(), W: 2}},
			},
		}},
	}
	w := acir.WitnessMap{0: el(4), 1: el(6), 2: el(24)}
	_, proof, pub := prove(t, circuit, w)

	// The first committed vector starts with the constant one and the
	// public inputs.
	require.GreaterOrEqual(t, len(proof.W1.Values), 2)
	assert.True(t, proof.W1.Values[0].IsOne())
	assert.True(t, proof.W1.Values[1].Equal(&pub[0]))
}

// multChain builds a circuit of n chained multiplications, each taking the
// previous product times witness 1, with the final product public. It also
// returns a satisfying assignment starting from the given operands.
func multChain(n int, x, y uint64) (*acir.Circuit, acir.WitnessMap) {
	circuit := &acir.Circuit{
		NumWitnesses: n + 2,
		PublicInputs: []acir.Witness{acir.Witness(n + 1)},
	}
	w := acir.WitnessMap{0: el(x), 1: el(y)}
	yv := el(y)
	acc := el(x)
	prev := acir.Witness(0)
	for i := 0; i < n; i++ {
		out := acir.Witness(i + 2)
		circuit.Opcodes = append(circuit.Opcodes, acir.Opcode{
			Kind: acir.OpAssertZero,
			Expr: &acir.Expression{
				Mul:    []acir.MulTerm{{Coeff: el(1), A: prev, B: 1}},
				Linear: []acir.LinearTerm{{Coeff: negOne(), W: out}},
			},
		})
		acc.Mul(&acc, &yv)
		w[out] = acc
		prev = out
	}
	return circuit, w
}

func TestProveVerifyProperty(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 30
	properties := gopter.NewProperties(params)

	properties.Property("honest proofs verify, shifted statements do not", prop.ForAll(
		func(seed int64) bool {
			rng := rand.New(rand.NewSource(seed))
			circuit, w := multChain(1+rng.Intn(8), 2+uint64(rng.Intn(100)), 2+uint64(rng.Intn(100)))
			s, err := Compile(circuit)
			if err != nil {
				return false
			}
			proof, err := s.Prove(pcs.RawScheme{}, w)
			if err != nil {
				return false
			}
			pub, err := s.PublicValues(w)
			if err != nil {
				return false
			}
			if s.Verify(pcs.RawScheme{}, pub, proof) != nil {
				return false
			}
			wrong := []fr.Element{pub[0]}
			wrong[0].Add(&wrong[0], &wrong[0])
			return s.Verify(pcs.RawScheme{}, wrong, proof) != nil
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestLargeCircuitRoundCount(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping 2^10-constraint scenario in short mode")
	}
	circuit, w := multChain(1024, 3, 7)
	s, proof, pub := prove(t, circuit, w)

	require.Equal(t, 1024, s.R1CS.NumConstraints())
	require.Equal(t, 10, s.NumRounds())
	require.Len(t, proof.Rounds, 10)
	assert.NoError(t, s.Verify(pcs.RawScheme{}, pub, proof))
}

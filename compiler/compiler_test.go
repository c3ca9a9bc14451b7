package compiler

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldfnd/noir-r1cs/acir"
	"github.com/worldfnd/noir-r1cs/r1cs"
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

func countType(builders []r1cs.WitnessBuilder, t r1cs.BuilderType) int {
	n := 0
	for i := range builders {
		if builders[i].Type == t {
			n++
		}
	}
	return n
}

func assertZeroCircuit(exprs ...*acir.Expression) *acir.Circuit {
	c := &acir.Circuit{NumWitnesses: 16}
	for _, e := range exprs {
		c.Opcodes = append(c.Opcodes, acir.Opcode{Kind: acir.OpAssertZero, Expr: e})
	}
	return c
}

func TestAssertZeroSingleConstraint(t *testing.T) {
	// Three multiplication terms: two become Product witnesses (one
	// constraint each), the last rides the assertion itself.
	res, err := Compile(assertZeroCircuit(&acir.Expression{
		QC: el(7),
		Mul: []acir.MulTerm{
			{Coeff: el(1), A: 0, B: 1},
			{Coeff: el(2), A: 2, B: 3},
			{Coeff: el(3), A: 4, B: 5},
		},
		Linear: []acir.LinearTerm{{Coeff: negOne(), W: 6}},
	}))
	require.NoError(t, err)
	assert.Equal(t, 3, res.R1CS.NumConstraints())
	assert.Equal(t, 2, countType(res.Builders, r1cs.BuilderProduct))
}

func TestAssertZeroLinearOnly(t *testing.T) {
	res, err := Compile(assertZeroCircuit(&acir.Expression{
		Linear: []acir.LinearTerm{
			{Coeff: el(2), W: 0},
			{Coeff: negOne(), W: 1},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, res.R1CS.NumConstraints())
	assert.Equal(t, 0, countType(res.Builders, r1cs.BuilderProduct))
}

func TestAssertZeroNilExpression(t *testing.T) {
	_, err := Compile(assertZeroCircuit(nil))
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrMalformedExpression, ce.Kind)
}

func TestPublicInputsComeFirst(t *testing.T) {
	circuit := assertZeroCircuit(&acir.Expression{
		Linear: []acir.LinearTerm{{Coeff: el(1), W: 4}, {Coeff: negOne(), W: 9}},
	})
	circuit.PublicInputs = []acir.Witness{9, 4}
	res, err := Compile(circuit)
	require.NoError(t, err)
	// Constant one at 0, then the public inputs in declaration order.
	assert.Equal(t, 1, res.AcirMap[9])
	assert.Equal(t, 2, res.AcirMap[4])
}

func rangeCircuit(bits int, n int) *acir.Circuit {
	c := &acir.Circuit{NumWitnesses: n}
	for i := 0; i < n; i++ {
		c.Opcodes = append(c.Opcodes, acir.Opcode{Kind: acir.OpRange, Input: acir.Witness(i), Bits: bits})
	}
	return c
}

func TestRangeCheckNaivePath(t *testing.T) {
	// At most five values in a bucket stay on the product chain: no
	// challenges, no multiplicity counters.
	res, err := Compile(rangeCircuit(3, 4))
	require.NoError(t, err)
	assert.Equal(t, 0, countType(res.Builders, r1cs.BuilderChallenge))
	assert.Equal(t, 0, countType(res.Builders, r1cs.BuilderMultiplicitiesForRange))
	assert.Greater(t, countType(res.Builders, r1cs.BuilderProductLinear), 0)
}

func TestRangeCheckLookupPath(t *testing.T) {
	res, err := Compile(rangeCircuit(4, 6))
	require.NoError(t, err)
	assert.Equal(t, 1, countType(res.Builders, r1cs.BuilderChallenge))
	assert.Equal(t, 1, countType(res.Builders, r1cs.BuilderMultiplicitiesForRange))
	// One inverse per table entry plus one per query.
	assert.Equal(t, 16+6, countType(res.Builders, r1cs.BuilderLogUpInverse))
}

func TestRangeCheckWideDecomposes(t *testing.T) {
	res, err := Compile(rangeCircuit(20, 1))
	require.NoError(t, err)
	require.Equal(t, 1, countType(res.Builders, r1cs.BuilderDigitalDecomposition))
	for i := range res.Builders {
		if res.Builders[i].Type == r1cs.BuilderDigitalDecomposition {
			assert.Equal(t, []int{8, 8, 4}, res.Builders[i].Decomposition.LogBases)
		}
	}
}

func TestRangeCheckZeroBits(t *testing.T) {
	res, err := Compile(rangeCircuit(0, 1))
	require.NoError(t, err)
	// v * 1 = 0
	assert.Equal(t, 1, res.R1CS.NumConstraints())
}

func TestRangeCheckTooWide(t *testing.T) {
	_, err := Compile(rangeCircuit(65, 1))
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrRangeBitsTooLarge, ce.Kind)
}

func TestMemoryBlockErrors(t *testing.T) {
	cases := []struct {
		name    string
		opcodes []acir.Opcode
	}{
		{"duplicate init", []acir.Opcode{
			{Kind: acir.OpMemoryInit, BlockID: 0, Init: []acir.Witness{0}},
			{Kind: acir.OpMemoryInit, BlockID: 0, Init: []acir.Witness{1}},
		}},
		{"op before init", []acir.Opcode{
			{Kind: acir.OpMemoryOp, BlockID: 3, Access: acir.MemRead, Addr: 0, Value: 1},
		}},
		{"store into read-only", []acir.Opcode{
			{Kind: acir.OpMemoryInit, BlockID: 0, Init: []acir.Witness{0}, ReadOnly: true},
			{Kind: acir.OpMemoryOp, BlockID: 0, Access: acir.MemWrite, Addr: 1, Value: 2},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile(&acir.Circuit{NumWitnesses: 4, Opcodes: tc.opcodes})
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, ErrInconsistentMemoryBlock, ce.Kind)
		})
	}
}

func TestROMEmission(t *testing.T) {
	circuit := &acir.Circuit{
		NumWitnesses: 8,
		Opcodes: []acir.Opcode{
			{Kind: acir.OpMemoryInit, BlockID: 0, Init: []acir.Witness{0, 1, 2, 3}, ReadOnly: true},
			{Kind: acir.OpMemoryOp, BlockID: 0, Access: acir.MemRead, Addr: 4, Value: 5},
			{Kind: acir.OpMemoryOp, BlockID: 0, Access: acir.MemRead, Addr: 6, Value: 7},
		},
	}
	res, err := Compile(circuit)
	require.NoError(t, err)
	assert.Equal(t, 1, countType(res.Builders, r1cs.BuilderMultiplicitiesForRange))
	// One denominator per load plus one per table entry.
	assert.Equal(t, 2+4, countType(res.Builders, r1cs.BuilderIndexedLogUpDenominator))
	assert.Equal(t, 0, countType(res.Builders, r1cs.BuilderSpiceWitnesses))
}

func TestROMWithoutOpsEmitsNothing(t *testing.T) {
	circuit := &acir.Circuit{
		NumWitnesses: 2,
		Opcodes: []acir.Opcode{
			{Kind: acir.OpMemoryInit, BlockID: 0, Init: []acir.Witness{0, 1}, ReadOnly: true},
		},
	}
	res, err := Compile(circuit)
	require.NoError(t, err)
	assert.Equal(t, 0, countType(res.Builders, r1cs.BuilderChallenge))
	assert.Equal(t, 0, res.R1CS.NumConstraints())
}

func TestRAMEmission(t *testing.T) {
	circuit := &acir.Circuit{
		NumWitnesses: 6,
		Opcodes: []acir.Opcode{
			{Kind: acir.OpMemoryInit, BlockID: 0, Init: []acir.Witness{0, 1}},
			{Kind: acir.OpMemoryOp, BlockID: 0, Access: acir.MemWrite, Addr: 2, Value: 3},
			{Kind: acir.OpMemoryOp, BlockID: 0, Access: acir.MemRead, Addr: 4, Value: 5},
		},
	}
	res, err := Compile(circuit)
	require.NoError(t, err)
	require.Equal(t, 1, countType(res.Builders, r1cs.BuilderSpiceWitnesses))
	// Initial and final tuples per address, plus read and write tuples
	// per operation.
	assert.Equal(t, 2+2+2*2, countType(res.Builders, r1cs.BuilderSpiceMultisetFactor))
}

func TestWritableBlockWithOnlyReadsUsesROM(t *testing.T) {
	circuit := &acir.Circuit{
		NumWitnesses: 4,
		Opcodes: []acir.Opcode{
			{Kind: acir.OpMemoryInit, BlockID: 0, Init: []acir.Witness{0, 1}},
			{Kind: acir.OpMemoryOp, BlockID: 0, Access: acir.MemRead, Addr: 2, Value: 3},
		},
	}
	res, err := Compile(circuit)
	require.NoError(t, err)
	assert.Equal(t, 0, countType(res.Builders, r1cs.BuilderSpiceWitnesses))
	assert.Equal(t, 1+2, countType(res.Builders, r1cs.BuilderIndexedLogUpDenominator))
}

func TestBinopEmission(t *testing.T) {
	circuit := &acir.Circuit{
		NumWitnesses: 4,
		Opcodes: []acir.Opcode{
			{Kind: acir.OpAnd, Bits: 8, Lhs: 0, Rhs: 1, Output: 2},
			{Kind: acir.OpXor, Bits: 8, Lhs: 0, Rhs: 1, Output: 3},
		},
	}
	res, err := Compile(circuit)
	require.NoError(t, err)
	// sz, rs
	assert.Equal(t, 2, countType(res.Builders, r1cs.BuilderChallenge))
	assert.Equal(t, 1, countType(res.Builders, r1cs.BuilderMultiplicitiesForBinOp))
	// The shared operand pair needs neither a complementary And nor Xor
	// builder: both outputs come from the opcodes.
	assert.Equal(t, 0, countType(res.Builders, r1cs.BuilderAnd))
	assert.Equal(t, 0, countType(res.Builders, r1cs.BuilderXor))
	// One denominator per recorded op plus the full byte-pair table.
	assert.Equal(t, 2+65536, countType(res.Builders, r1cs.BuilderBinOpLookupDenominator))
}

func TestBinopComplementaryOutput(t *testing.T) {
	circuit := &acir.Circuit{
		NumWitnesses: 3,
		Opcodes: []acir.Opcode{
			{Kind: acir.OpAnd, Bits: 8, Lhs: 0, Rhs: 1, Output: 2},
		},
	}
	res, err := Compile(circuit)
	require.NoError(t, err)
	// The xor column of the queried row has no ACIR output backing it.
	assert.Equal(t, 1, countType(res.Builders, r1cs.BuilderXor))
	assert.Equal(t, 0, countType(res.Builders, r1cs.BuilderAnd))
}

func TestBinopU32Decomposes(t *testing.T) {
	circuit := &acir.Circuit{
		NumWitnesses: 3,
		Opcodes: []acir.Opcode{
			{Kind: acir.OpAnd, Bits: 32, Lhs: 0, Rhs: 1, Output: 2},
		},
	}
	res, err := Compile(circuit)
	require.NoError(t, err)
	// One decomposition covering lhs, rhs and out, four 8-bit limbs each.
	require.Equal(t, 1, countType(res.Builders, r1cs.BuilderDigitalDecomposition))
	for i := range res.Builders {
		if res.Builders[i].Type == r1cs.BuilderDigitalDecomposition {
			assert.Equal(t, []int{8, 8, 8, 8}, res.Builders[i].Decomposition.LogBases)
			assert.Len(t, res.Builders[i].Decomposition.Witnesses, 3)
		}
	}
	// One byte row per limb place, each missing its xor column.
	for i := range res.Builders {
		if res.Builders[i].Type == r1cs.BuilderMultiplicitiesForBinOp {
			assert.Len(t, res.Builders[i].Pairs, 4)
		}
	}
	assert.Equal(t, 4, countType(res.Builders, r1cs.BuilderXor))
	assert.Equal(t, 4+65536, countType(res.Builders, r1cs.BuilderBinOpLookupDenominator))
}

func TestBinopDuplicateOutputsBound(t *testing.T) {
	single := &acir.Circuit{
		NumWitnesses: 3,
		Opcodes: []acir.Opcode{
			{Kind: acir.OpAnd, Bits: 8, Lhs: 0, Rhs: 1, Output: 2},
		},
	}
	base, err := Compile(single)
	require.NoError(t, err)

	dup := &acir.Circuit{
		NumWitnesses: 4,
		Opcodes: []acir.Opcode{
			{Kind: acir.OpAnd, Bits: 8, Lhs: 0, Rhs: 1, Output: 2},
			{Kind: acir.OpAnd, Bits: 8, Lhs: 0, Rhs: 1, Output: 3},
		},
	}
	res, err := Compile(dup)
	require.NoError(t, err)
	// The second op adds its own query denominator and inverse, plus the
	// equality binding its output to the row's recorded one.
	assert.Equal(t, base.R1CS.NumConstraints()+3, res.R1CS.NumConstraints())
	assert.Equal(t, 2+65536, countType(res.Builders, r1cs.BuilderBinOpLookupDenominator))
}

func TestBinopUnsupportedWidth(t *testing.T) {
	circuit := &acir.Circuit{
		NumWitnesses: 3,
		Opcodes: []acir.Opcode{
			{Kind: acir.OpAnd, Bits: 16, Lhs: 0, Rhs: 1, Output: 2},
		},
	}
	_, err := Compile(circuit)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrUnsupportedOpcode, ce.Kind)
}

func TestBlackBoxRejected(t *testing.T) {
	circuit := &acir.Circuit{
		NumWitnesses: 1,
		Opcodes:      []acir.Opcode{{Kind: acir.OpBlackBox, Name: "sha256"}},
	}
	_, err := Compile(circuit)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrUnsupportedOpcode, ce.Kind)
}

func TestBrilligCallIgnored(t *testing.T) {
	circuit := &acir.Circuit{
		NumWitnesses: 1,
		Opcodes:      []acir.Opcode{{Kind: acir.OpBrilligCall, Name: "directive_invert"}},
	}
	res, err := Compile(circuit)
	require.NoError(t, err)
	assert.Equal(t, 0, res.R1CS.NumConstraints())
}

package store

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldfnd/noir-r1cs/acir"
	"github.com/worldfnd/noir-r1cs/pcs"
	"github.com/worldfnd/noir-r1cs/protocol"
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

// testCircuit exercises range checks and memory so the scheme carries every
// builder family with challenge-dependent witnesses.
func testCircuit() (*acir.Circuit, acir.WitnessMap) {
	circuit := &acir.Circuit{
		NumWitnesses: 12,
		PublicInputs: []acir.Witness{2},
		Opcodes: []acir.Opcode{
			{Kind: acir.OpAssertZero, Expr: &acir.Expression{
				Mul:    []acir.MulTerm{{Coeff: el(1), A: 0, B: 1}},
				Linear: []acir.LinearTerm{{Coeff: negOne(), W: 2}},
			}},
			{Kind: acir.OpMemoryInit, BlockID: 0, Init: []acir.Witness{0, 1}},
			{Kind: acir.OpMemoryOp, BlockID: 0, Access: acir.MemWrite, Addr: 3, Value: 4},
			{Kind: acir.OpMemoryOp, BlockID: 0, Access: acir.MemRead, Addr: 5, Value: 6},
		},
	}
	w := acir.WitnessMap{
		0: el(3), 1: el(5), 2: el(15),
		3: el(1), 4: el(42),
		5: el(1), 6: el(42),
	}
	for i := 7; i < 12; i++ {
		circuit.Opcodes = append(circuit.Opcodes, acir.Opcode{
			Kind: acir.OpRange, Input: acir.Witness(i), Bits: 4,
		})
		w[acir.Witness(i)] = el(uint64(i))
	}
	return circuit, w
}

func TestSchemeRoundTrip(t *testing.T) {
	circuit, witness := testCircuit()
	s, err := protocol.Compile(circuit)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteScheme(&buf, s))
	restored, err := ReadScheme(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, s.R1CS.NumPublicInputs, restored.R1CS.NumPublicInputs)
	assert.Equal(t, s.R1CS.NumConstraints(), restored.R1CS.NumConstraints())
	assert.Equal(t, s.R1CS.NumWitnesses(), restored.R1CS.NumWitnesses())
	assert.Equal(t, s.W1Witnesses, restored.W1Witnesses)
	assert.Equal(t, len(s.Builders), len(restored.Builders))
	assert.Equal(t, s.AcirMap, restored.AcirMap)

	// The restored scheme must prove and verify like the original, and the
	// two must agree across the boundary.
	proof, err := restored.Prove(pcs.RawScheme{}, witness)
	require.NoError(t, err)
	pub, err := restored.PublicValues(witness)
	require.NoError(t, err)
	assert.NoError(t, s.Verify(pcs.RawScheme{}, pub, proof))
}

func TestProofRoundTrip(t *testing.T) {
	circuit, witness := testCircuit()
	s, err := protocol.Compile(circuit)
	require.NoError(t, err)
	proof, err := s.Prove(pcs.RawScheme{}, witness)
	require.NoError(t, err)
	pub, err := s.PublicValues(witness)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteProof(&buf, proof))
	restored, err := ReadProof(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.NoError(t, s.Verify(pcs.RawScheme{}, pub, restored))
}

func TestFileRoundTrip(t *testing.T) {
	circuit, witness := testCircuit()
	s, err := protocol.Compile(circuit)
	require.NoError(t, err)
	proof, err := s.Prove(pcs.RawScheme{}, witness)
	require.NoError(t, err)

	dir := t.TempDir()
	schemePath := filepath.Join(dir, "circuit"+Extension)
	proofPath := filepath.Join(dir, "proof"+Extension)
	require.NoError(t, SaveScheme(schemePath, s))
	require.NoError(t, SaveProof(proofPath, proof))

	s2, err := LoadScheme(schemePath)
	require.NoError(t, err)
	p2, err := LoadProof(proofPath)
	require.NoError(t, err)
	pub, err := s2.PublicValues(witness)
	require.NoError(t, err)
	assert.NoError(t, s2.Verify(pcs.RawScheme{}, pub, p2))
}

func TestHeaderChecks(t *testing.T) {
	circuit, _ := testCircuit()
	s, err := protocol.Compile(circuit)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteScheme(&buf, s))
	data := buf.Bytes()

	// Wrong kind.
	_, err = ReadProof(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrBadFormat)

	// Corrupt magic.
	bad := append([]byte(nil), data...)
	bad[0] ^= 0xFF
	_, err = ReadScheme(bytes.NewReader(bad))
	assert.ErrorIs(t, err, ErrBadMagic)

	// Future major version.
	bad = append([]byte(nil), data...)
	bad[16]++
	_, err = ReadScheme(bytes.NewReader(bad))
	assert.ErrorIs(t, err, ErrBadVersion)

	// Truncated.
	_, err = ReadScheme(bytes.NewReader(data[:10]))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestProofJSON(t *testing.T) {
	circuit, witness := testCircuit()
	s, err := protocol.Compile(circuit)
	require.NoError(t, err)
	proof, err := s.Prove(pcs.RawScheme{}, witness)
	require.NoError(t, err)

	out, err := ProofJSON(proof)
	require.NoError(t, err)
	assert.Contains(t, string(out), "blinding_sum")

	out, err = SchemeJSON(s)
	require.NoError(t, err)
	assert.Contains(t, string(out), "w1_witnesses")
}

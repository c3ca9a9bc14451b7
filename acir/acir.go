// Package acir models the arithmetic-circuit IR consumed by the compiler:
// an opcode stream over opaque 32-bit witness handles, plus the witness map
// produced by an external ACIR solver.
package acir

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Witness is an opaque ACIR witness handle.
type Witness uint32

// LinearTerm is coeff * witness.
type LinearTerm struct {
	Coeff fr.Element
	W     Witness
}

// MulTerm is coeff * a * b.
type MulTerm struct {
	Coeff fr.Element
	A, B  Witness
}

// Expression is the polynomial q_c + sum(linear) + sum(mul) asserted to be
// zero by an AssertZero opcode.
type Expression struct {
	QC     fr.Element
	Linear []LinearTerm
	Mul    []MulTerm
}

// OpcodeKind enumerates the supported opcode stream entries.
type OpcodeKind int

const (
	OpAssertZero OpcodeKind = iota + 1
	OpRange
	OpAnd
	OpXor
	OpMemoryInit
	OpMemoryOp
	OpBrilligCall
	OpBlackBox
)

func (k OpcodeKind) String() string {
	switch k {
	case OpAssertZero:
		return "AssertZero"
	case OpRange:
		return "Range"
	case OpAnd:
		return "And"
	case OpXor:
		return "Xor"
	case OpMemoryInit:
		return "MemoryInit"
	case OpMemoryOp:
		return "MemoryOp"
	case OpBrilligCall:
		return "BrilligCall"
	case OpBlackBox:
		return "BlackBox"
	default:
		return "Unknown"
	}
}

// MemAccessKind distinguishes memory reads from writes.
type MemAccessKind int

const (
	MemRead MemAccessKind = iota + 1
	MemWrite
)

// Opcode is one entry of the opcode stream; the populated fields depend on
// Kind.
type Opcode struct {
	Kind OpcodeKind

	Expr *Expression // AssertZero

	Input Witness // Range
	Bits  int     // Range, And, Xor operand width

	Lhs, Rhs, Output Witness // And, Xor

	BlockID  int       // MemoryInit, MemoryOp
	Init     []Witness // MemoryInit
	ReadOnly bool      // MemoryInit

	Access MemAccessKind // MemoryOp
	Addr   Witness       // MemoryOp
	Value  Witness       // MemoryOp

	Name string // BrilligCall / BlackBox function name
}

// Circuit is an ACIR program.
type Circuit struct {
	NumWitnesses int
	PublicInputs []Witness
	Opcodes      []Opcode
}

// WitnessMap holds the ACIR witness values produced by the external solver.
type WitnessMap map[Witness]fr.Element

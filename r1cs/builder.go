package r1cs

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// BuilderType enumerates the witness-builder recipes.
type BuilderType int

const (
	BuilderConstant BuilderType = iota + 1
	BuilderAcir
	BuilderChallenge
	BuilderSum
	BuilderProduct
	BuilderInverse
	BuilderProductLinear
	BuilderLogUpInverse
	BuilderIndexedLogUpDenominator
	BuilderMultiplicitiesForRange
	BuilderDigitalDecomposition
	BuilderSpiceWitnesses
	BuilderSpiceMultisetFactor
	BuilderBinOpLookupDenominator
	BuilderMultiplicitiesForBinOp
	BuilderAnd
	BuilderXor
	BuilderU32Addition
)

// BinopAtomicBits is the operand width of one combined AND/XOR table row.
const BinopAtomicBits = 8

// Operand is a constant or a witness reference.
type Operand struct {
	IsConst  bool
	Constant fr.Element
	Witness  int
}

func Const(v fr.Element) Operand {
	return Operand{IsConst: true, Constant: v}
}

func Wit(w int) Operand {
	return Operand{Witness: w}
}

// CoeffWitness is a coefficient times a witness value.
type CoeffWitness struct {
	Coeff   fr.Element
	Witness int
}

// SumTerm is one summand of a Sum builder.
type SumTerm struct {
	Coeff   fr.Element
	Witness int
}

// BinOpPair is one (lhs, rhs) operand pair of a binop multiplicity count.
type BinOpPair struct {
	Lhs, Rhs Operand
}

// DigitalDecomposition describes a block of little-endian mixed-base digit
// witnesses. The digit for place p of the o-th decomposed value lives at
// FirstWitness + p*len(Witnesses) + o.
type DigitalDecomposition struct {
	LogBases     []int
	Witnesses    []int
	FirstWitness int
}

func (dd *DigitalDecomposition) NumWitnesses() int {
	return len(dd.LogBases) * len(dd.Witnesses)
}

func (dd *DigitalDecomposition) DigitWitness(place, offset int) int {
	return dd.FirstWitness + place*len(dd.Witnesses) + offset
}

// MemOpKind distinguishes loads from stores.
type MemOpKind int

const (
	MemLoad MemOpKind = iota + 1
	MemStore
)

// SpiceOp is one timestamped memory operation. Addr and Value reference
// witnesses solved elsewhere; OldValue (stores only) and ReadTimestamp are
// written by the owning SpiceWitnesses block.
type SpiceOp struct {
	Kind          MemOpKind
	Addr          int
	Value         int
	OldValue      int
	ReadTimestamp int
}

// SpiceWitnesses lays out the auxiliary witnesses of one read-write memory
// block: per-op read timestamps (and pre-store values), then the final value
// and final timestamp of every address.
type SpiceWitnesses struct {
	MemoryLength  int
	InitialValues []int
	Operations    []SpiceOp
	FirstWitness  int
	RvFinalFirst  int
	RtFinalFirst  int
}

// NewSpiceWitnesses assigns the block's witness layout starting at
// firstWitness. Operations must carry Kind, Addr and Value; the per-op slots
// are filled in here.
func NewSpiceWitnesses(firstWitness int, memoryLength int, initialValues []int, ops []SpiceOp) *SpiceWitnesses {
	sw := &SpiceWitnesses{
		MemoryLength:  memoryLength,
		InitialValues: initialValues,
		Operations:    make([]SpiceOp, len(ops)),
		FirstWitness:  firstWitness,
	}
	next := firstWitness
	for i, op := range ops {
		if op.Kind == MemStore {
			op.OldValue = next
			next++
		}
		op.ReadTimestamp = next
		next++
		sw.Operations[i] = op
	}
	sw.RvFinalFirst = next
	sw.RtFinalFirst = next + memoryLength
	return sw
}

func (sw *SpiceWitnesses) NumWitnesses() int {
	n := 2 * sw.MemoryLength
	for _, op := range sw.Operations {
		if op.Kind == MemStore {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// WitnessBuilder is a recipe for computing one or more witness cells from
// earlier cells, ACIR-provided values or transcript challenges. It writes
// the contiguous range [Index, Index+NumWitnesses()).
type WitnessBuilder struct {
	Type  BuilderType
	Index int

	Value     fr.Element // Constant
	AcirIndex int        // Acir

	Terms []SumTerm // Sum

	A, B int // Product operands; Inverse and LogUpInverse operand in A

	// ProductLinear computes (LinA*z[A]+LinB)*(LinC*z[B]+LinD).
	LinA, LinB, LinC, LinD fr.Element

	// Challenge witness indices for lookup denominators.
	Sz, Rs, RsSquared, RsCubed int

	Coeff fr.Element // index coefficient of LogUp denominators

	RangeSize int   // MultiplicitiesForRange bin count
	Witnesses []int // MultiplicitiesForRange inputs

	Decomposition *DigitalDecomposition
	Spice         *SpiceWitnesses

	Addr, Time CoeffWitness // SpiceMultisetFactor

	Lhs, Rhs, AndOp, XorOp Operand // binop builders and U32Addition

	Pairs []BinOpPair // MultiplicitiesForBinOp
}

func NewConstantBuilder(index int, value fr.Element) WitnessBuilder {
	return WitnessBuilder{Type: BuilderConstant, Index: index, Value: value}
}

func NewAcirBuilder(index, acirIndex int) WitnessBuilder {
	return WitnessBuilder{Type: BuilderAcir, Index: index, AcirIndex: acirIndex}
}

func NewChallengeBuilder(index int) WitnessBuilder {
	return WitnessBuilder{Type: BuilderChallenge, Index: index}
}

func NewSumBuilder(index int, terms []SumTerm) WitnessBuilder {
	return WitnessBuilder{Type: BuilderSum, Index: index, Terms: terms}
}

func NewProductBuilder(index, a, b int) WitnessBuilder {
	return WitnessBuilder{Type: BuilderProduct, Index: index, A: a, B: b}
}

func NewInverseBuilder(index, operand int) WitnessBuilder {
	return WitnessBuilder{Type: BuilderInverse, Index: index, A: operand}
}

func NewProductLinearBuilder(index, x, y int, a, b, c, d fr.Element) WitnessBuilder {
	return WitnessBuilder{Type: BuilderProductLinear, Index: index, A: x, B: y, LinA: a, LinB: b, LinC: c, LinD: d}
}

// NewLogUpInverseBuilder computes 1/(z[sz] - coeff*z[value]).
func NewLogUpInverseBuilder(index, sz int, coeff fr.Element, value int) WitnessBuilder {
	return WitnessBuilder{Type: BuilderLogUpInverse, Index: index, Sz: sz, Coeff: coeff, A: value}
}

// NewIndexedLogUpDenominatorBuilder computes
// z[sz] - (coeff*z[idx] + z[rs]*z[value]).
func NewIndexedLogUpDenominatorBuilder(index, sz int, coeff fr.Element, idx, rs, value int) WitnessBuilder {
	return WitnessBuilder{Type: BuilderIndexedLogUpDenominator, Index: index, Sz: sz, Coeff: coeff, A: idx, Rs: rs, B: value}
}

func NewMultiplicitiesForRangeBuilder(index, rangeSize int, values []int) WitnessBuilder {
	return WitnessBuilder{Type: BuilderMultiplicitiesForRange, Index: index, RangeSize: rangeSize, Witnesses: values}
}

func NewDigitalDecompositionBuilder(dd *DigitalDecomposition) WitnessBuilder {
	return WitnessBuilder{Type: BuilderDigitalDecomposition, Index: dd.FirstWitness, Decomposition: dd}
}

func NewSpiceWitnessesBuilder(sw *SpiceWitnesses) WitnessBuilder {
	return WitnessBuilder{Type: BuilderSpiceWitnesses, Index: sw.FirstWitness, Spice: sw}
}

// NewSpiceMultisetFactorBuilder computes
// z[sz] - (addr.Coeff*z[addr.W] + z[rs]*z[value] + z[rsSquared]*time.Coeff*z[time.W]).
func NewSpiceMultisetFactorBuilder(index, sz, rs, rsSquared int, addr CoeffWitness, value int, time CoeffWitness) WitnessBuilder {
	return WitnessBuilder{Type: BuilderSpiceMultisetFactor, Index: index, Sz: sz, Rs: rs, RsSquared: rsSquared, Addr: addr, B: value, Time: time}
}

// NewBinOpLookupDenominatorBuilder computes
// z[sz] - (lhs + z[rs]*rhs + z[rsSquared]*and + z[rsCubed]*xor).
func NewBinOpLookupDenominatorBuilder(index, sz, rs, rsSquared, rsCubed int, lhs, rhs, and, xor Operand) WitnessBuilder {
	return WitnessBuilder{
		Type: BuilderBinOpLookupDenominator, Index: index,
		Sz: sz, Rs: rs, RsSquared: rsSquared, RsCubed: rsCubed,
		Lhs: lhs, Rhs: rhs, AndOp: and, XorOp: xor,
	}
}

func NewMultiplicitiesForBinOpBuilder(index int, pairs []BinOpPair) WitnessBuilder {
	return WitnessBuilder{Type: BuilderMultiplicitiesForBinOp, Index: index, Pairs: pairs}
}

func NewAndBuilder(index int, lhs, rhs Operand) WitnessBuilder {
	return WitnessBuilder{Type: BuilderAnd, Index: index, Lhs: lhs, Rhs: rhs}
}

func NewXorBuilder(index int, lhs, rhs Operand) WitnessBuilder {
	return WitnessBuilder{Type: BuilderXor, Index: index, Lhs: lhs, Rhs: rhs}
}

// NewU32AdditionBuilder writes result = (lhs+rhs) mod 2^32 at index and the
// carry bit at index+1.
func NewU32AdditionBuilder(index int, lhs, rhs Operand) WitnessBuilder {
	return WitnessBuilder{Type: BuilderU32Addition, Index: index, Lhs: lhs, Rhs: rhs}
}

// NumWitnesses returns the number of cells this builder writes.
func (b *WitnessBuilder) NumWitnesses() int {
	switch b.Type {
	case BuilderMultiplicitiesForRange:
		return b.RangeSize
	case BuilderDigitalDecomposition:
		return b.Decomposition.NumWitnesses()
	case BuilderSpiceWitnesses:
		return b.Spice.NumWitnesses()
	case BuilderMultiplicitiesForBinOp:
		return 1 << (2 * BinopAtomicBits)
	case BuilderU32Addition:
		return 2
	default:
		return 1
	}
}

func appendOperand(reads []int, op Operand) []int {
	if !op.IsConst {
		reads = append(reads, op.Witness)
	}
	return reads
}

// Reads returns the witness indices this builder depends on, excluding its
// own writes.
func (b *WitnessBuilder) Reads() []int {
	var reads []int
	switch b.Type {
	case BuilderConstant, BuilderAcir, BuilderChallenge:
	case BuilderSum:
		for _, t := range b.Terms {
			reads = append(reads, t.Witness)
		}
	case BuilderProduct:
		reads = append(reads, b.A, b.B)
	case BuilderInverse:
		reads = append(reads, b.A)
	case BuilderProductLinear:
		reads = append(reads, b.A, b.B)
	case BuilderLogUpInverse:
		reads = append(reads, b.Sz, b.A)
	case BuilderIndexedLogUpDenominator:
		reads = append(reads, b.Sz, b.Rs, b.A, b.B)
	case BuilderMultiplicitiesForRange:
		reads = append(reads, b.Witnesses...)
	case BuilderDigitalDecomposition:
		reads = append(reads, b.Decomposition.Witnesses...)
	case BuilderSpiceWitnesses:
		reads = append(reads, b.Spice.InitialValues...)
		for _, op := range b.Spice.Operations {
			reads = append(reads, op.Addr, op.Value)
		}
	case BuilderSpiceMultisetFactor:
		reads = append(reads, b.Sz, b.Rs, b.RsSquared, b.Addr.Witness, b.B, b.Time.Witness)
	case BuilderBinOpLookupDenominator:
		reads = append(reads, b.Sz, b.Rs, b.RsSquared, b.RsCubed)
		reads = appendOperand(reads, b.Lhs)
		reads = appendOperand(reads, b.Rhs)
		reads = appendOperand(reads, b.AndOp)
		reads = appendOperand(reads, b.XorOp)
	case BuilderMultiplicitiesForBinOp:
		for _, p := range b.Pairs {
			reads = appendOperand(reads, p.Lhs)
			reads = appendOperand(reads, p.Rhs)
		}
	case BuilderAnd, BuilderXor, BuilderU32Addition:
		reads = appendOperand(reads, b.Lhs)
		reads = appendOperand(reads, b.Rhs)
	default:
		panic(fmt.Sprintf("unknown builder type %d", b.Type))
	}
	return reads
}

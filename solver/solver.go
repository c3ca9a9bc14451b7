// Package solver evaluates witness-builder schedules: it executes layers in
// order, batching every inversion layer through one Montgomery batch
// inversion, and draws challenge values from the transcript in builder
// order.
package solver

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/worldfnd/noir-r1cs/acir"
	"github.com/worldfnd/noir-r1cs/field"
	"github.com/worldfnd/noir-r1cs/r1cs"
	"github.com/worldfnd/noir-r1cs/sched"
	"github.com/worldfnd/noir-r1cs/transcript"
)

// SolveErrorKind classifies solving failures. All of them are fatal to the
// prover.
type SolveErrorKind int

const (
	ErrMissingAcirWitness SolveErrorKind = iota + 1
	ErrInversionOfZero
	ErrValueOutOfRange
)

func (k SolveErrorKind) String() string {
	switch k {
	case ErrMissingAcirWitness:
		return "missing acir witness"
	case ErrInversionOfZero:
		return "inversion of zero"
	case ErrValueOutOfRange:
		return "value out of range"
	default:
		return "unknown"
	}
}

// SolveError reports a failure while solving one builder.
type SolveError struct {
	Kind    SolveErrorKind
	Builder int
	Detail  string
}

func (e *SolveError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("solve: %s in builder %d", e.Kind, e.Builder)
	}
	return fmt.Sprintf("solve: %s in builder %d: %s", e.Kind, e.Builder, e.Detail)
}

// Solver executes layered schedules over a witness vector.
type Solver struct {
	Builders []r1cs.WitnessBuilder
}

func New(builders []r1cs.WitnessBuilder) *Solver {
	return &Solver{Builders: builders}
}

// SolveLayers executes the given layers in order, writing into z. Challenge
// builders squeeze the transcript, so the caller must have absorbed the
// preceding commitment first.
func (s *Solver) SolveLayers(z []fr.Element, layers []sched.Layer, t *transcript.Transcript, acirWitness acir.WitnessMap) error {
	for _, layer := range layers {
		if layer.Kind == sched.LayerInverse {
			if err := s.solveInverseLayer(z, layer.Builders); err != nil {
				return err
			}
			continue
		}
		for _, bi := range layer.Builders {
			if err := s.solveOne(z, bi, t, acirWitness); err != nil {
				return err
			}
		}
	}
	return nil
}

// solveInverseLayer computes every denominator of the layer, then inverts
// them all with a single field inversion.
func (s *Solver) solveInverseLayer(z []fr.Element, builders []int) error {
	denoms := make([]fr.Element, len(builders))
	for i, bi := range builders {
		b := &s.Builders[bi]
		switch b.Type {
		case r1cs.BuilderInverse:
			denoms[i] = z[b.A]
		case r1cs.BuilderLogUpInverse:
			var term fr.Element
			term.Mul(&b.Coeff, &z[b.A])
			denoms[i].Sub(&z[b.Sz], &term)
		default:
			return &SolveError{Kind: ErrValueOutOfRange, Builder: bi, Detail: "non-inverse builder in inverse layer"}
		}
		if denoms[i].IsZero() {
			return &SolveError{Kind: ErrInversionOfZero, Builder: bi}
		}
	}
	inverted := fr.BatchInvert(denoms)
	for i, bi := range builders {
		z[s.Builders[bi].Index] = inverted[i]
	}
	return nil
}

func (s *Solver) operand(z []fr.Element, op r1cs.Operand) fr.Element {
	if op.IsConst {
		return op.Constant
	}
	return z[op.Witness]
}

func (s *Solver) operandUint(z []fr.Element, op r1cs.Operand, bi int) (uint64, error) {
	v, err := field.ToUint64(s.operand(z, op))
	if err != nil {
		return 0, &SolveError{Kind: ErrValueOutOfRange, Builder: bi, Detail: err.Error()}
	}
	return v, nil
}

func (s *Solver) solveOne(z []fr.Element, bi int, t *transcript.Transcript, acirWitness acir.WitnessMap) error {
	b := &s.Builders[bi]
	switch b.Type {
	case r1cs.BuilderConstant:
		z[b.Index] = b.Value

	case r1cs.BuilderAcir:
		v, ok := acirWitness[acir.Witness(b.AcirIndex)]
		if !ok {
			return &SolveError{Kind: ErrMissingAcirWitness, Builder: bi, Detail: fmt.Sprintf("acir witness %d", b.AcirIndex)}
		}
		z[b.Index] = v

	case r1cs.BuilderChallenge:
		z[b.Index] = t.Challenge()

	case r1cs.BuilderSum:
		var acc, term fr.Element
		for _, st := range b.Terms {
			term.Mul(&st.Coeff, &z[st.Witness])
			acc.Add(&acc, &term)
		}
		z[b.Index] = acc

	case r1cs.BuilderProduct:
		z[b.Index].Mul(&z[b.A], &z[b.B])

	case r1cs.BuilderInverse, r1cs.BuilderLogUpInverse:
		// Normally batched; solve singly when scheduled in a plain layer.
		return s.solveInverseLayer(z, []int{bi})

	case r1cs.BuilderProductLinear:
		var lhs, rhs fr.Element
		lhs.Mul(&b.LinA, &z[b.A])
		lhs.Add(&lhs, &b.LinB)
		rhs.Mul(&b.LinC, &z[b.B])
		rhs.Add(&rhs, &b.LinD)
		z[b.Index].Mul(&lhs, &rhs)

	case r1cs.BuilderIndexedLogUpDenominator:
		var idx, val fr.Element
		idx.Mul(&b.Coeff, &z[b.A])
		val.Mul(&z[b.Rs], &z[b.B])
		idx.Add(&idx, &val)
		z[b.Index].Sub(&z[b.Sz], &idx)

	case r1cs.BuilderMultiplicitiesForRange:
		counts := make([]uint64, b.RangeSize)
		for _, w := range b.Witnesses {
			v, err := field.ToUint64(z[w])
			if err != nil || v >= uint64(b.RangeSize) {
				return &SolveError{Kind: ErrValueOutOfRange, Builder: bi, Detail: fmt.Sprintf("witness %d outside range %d", w, b.RangeSize)}
			}
			counts[v]++
		}
		for i, n := range counts {
			z[b.Index+i] = field.FromUint64(n)
		}

	case r1cs.BuilderDigitalDecomposition:
		dd := b.Decomposition
		for o, w := range dd.Witnesses {
			digits, err := field.DecomposeIntoDigits(z[w], dd.LogBases)
			if err != nil {
				return &SolveError{Kind: ErrValueOutOfRange, Builder: bi, Detail: err.Error()}
			}
			for p := range dd.LogBases {
				z[dd.DigitWitness(p, o)] = digits[p]
			}
		}

	case r1cs.BuilderSpiceWitnesses:
		return s.solveSpice(z, bi)

	case r1cs.BuilderSpiceMultisetFactor:
		var acc, term fr.Element
		acc.Mul(&b.Addr.Coeff, &z[b.Addr.Witness])
		term.Mul(&z[b.Rs], &z[b.B])
		acc.Add(&acc, &term)
		term.Mul(&b.Time.Coeff, &z[b.Time.Witness])
		term.Mul(&term, &z[b.RsSquared])
		acc.Add(&acc, &term)
		z[b.Index].Sub(&z[b.Sz], &acc)

	case r1cs.BuilderBinOpLookupDenominator:
		lhs := s.operand(z, b.Lhs)
		rhs := s.operand(z, b.Rhs)
		and := s.operand(z, b.AndOp)
		xor := s.operand(z, b.XorOp)
		var acc, term fr.Element
		acc = lhs
		term.Mul(&z[b.Rs], &rhs)
		acc.Add(&acc, &term)
		term.Mul(&z[b.RsSquared], &and)
		acc.Add(&acc, &term)
		term.Mul(&z[b.RsCubed], &xor)
		acc.Add(&acc, &term)
		z[b.Index].Sub(&z[b.Sz], &acc)

	case r1cs.BuilderMultiplicitiesForBinOp:
		counts := make([]uint64, 1<<(2*r1cs.BinopAtomicBits))
		for _, p := range b.Pairs {
			lhs, err := s.operandUint(z, p.Lhs, bi)
			if err != nil {
				return err
			}
			rhs, err := s.operandUint(z, p.Rhs, bi)
			if err != nil {
				return err
			}
			if lhs >= 1<<r1cs.BinopAtomicBits || rhs >= 1<<r1cs.BinopAtomicBits {
				return &SolveError{Kind: ErrValueOutOfRange, Builder: bi, Detail: "binop operand exceeds atomic width"}
			}
			counts[lhs<<r1cs.BinopAtomicBits|rhs]++
		}
		for i, n := range counts {
			z[b.Index+i] = field.FromUint64(n)
		}

	case r1cs.BuilderAnd, r1cs.BuilderXor:
		lhs, err := s.operandUint(z, b.Lhs, bi)
		if err != nil {
			return err
		}
		rhs, err := s.operandUint(z, b.Rhs, bi)
		if err != nil {
			return err
		}
		if b.Type == r1cs.BuilderAnd {
			z[b.Index] = field.FromUint64(lhs & rhs)
		} else {
			z[b.Index] = field.FromUint64(lhs ^ rhs)
		}

	case r1cs.BuilderU32Addition:
		lhs, err := s.operandUint(z, b.Lhs, bi)
		if err != nil {
			return err
		}
		rhs, err := s.operandUint(z, b.Rhs, bi)
		if err != nil {
			return err
		}
		sum := lhs + rhs
		z[b.Index] = field.FromUint64(sum & 0xffffffff)
		z[b.Index+1] = field.FromUint64(sum >> 32)

	default:
		return &SolveError{Kind: ErrValueOutOfRange, Builder: bi, Detail: "unknown builder type"}
	}
	return nil
}

// solveSpice replays the memory trace: per-op read timestamps (and pre-store
// values), then the final value and timestamp of every address.
func (s *Solver) solveSpice(z []fr.Element, bi int) error {
	sw := s.Builders[bi].Spice
	values := make([]fr.Element, sw.MemoryLength)
	times := make([]uint64, sw.MemoryLength)
	for j, w := range sw.InitialValues {
		values[j] = z[w]
	}
	for k, op := range sw.Operations {
		addr, err := field.ToUint64(z[op.Addr])
		if err != nil || addr >= uint64(sw.MemoryLength) {
			return &SolveError{Kind: ErrValueOutOfRange, Builder: bi, Detail: "memory address out of bounds"}
		}
		z[op.ReadTimestamp] = field.FromUint64(times[addr])
		if op.Kind == r1cs.MemStore {
			z[op.OldValue] = values[addr]
			values[addr] = z[op.Value]
		} else {
			values[addr] = z[op.Value]
		}
		times[addr] = uint64(k + 1)
	}
	for j := 0; j < sw.MemoryLength; j++ {
		z[sw.RvFinalFirst+j] = values[j]
		z[sw.RtFinalFirst+j] = field.FromUint64(times[j])
	}
	return nil
}

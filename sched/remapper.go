package sched

import (
	"fmt"

	"github.com/worldfnd/noir-r1cs/r1cs"
)

// Remap is the witness renumbering induced by a phase split: w1 builders'
// writes occupy [0, W1Witnesses) and w2 builders' writes follow.
type Remap struct {
	OldToNew    []int
	W1Witnesses int
}

// NewRemap walks w1 then w2 in order and assigns each written witness the
// next new index. The result must be a permutation of [0, numWitnesses)
// fixing index 0.
func NewRemap(builders []r1cs.WitnessBuilder, w1, w2 []int, numWitnesses int) (*Remap, error) {
	m := &Remap{OldToNew: make([]int, numWitnesses)}
	for i := range m.OldToNew {
		m.OldToNew[i] = -1
	}
	next := 0
	assign := func(list []int) error {
		for _, b := range list {
			start := builders[b].Index
			for w := start; w < start+builders[b].NumWitnesses(); w++ {
				if m.OldToNew[w] != -1 {
					return fmt.Errorf("witness %d remapped twice", w)
				}
				m.OldToNew[w] = next
				next++
			}
		}
		return nil
	}
	if err := assign(w1); err != nil {
		return nil, err
	}
	m.W1Witnesses = next
	if err := assign(w2); err != nil {
		return nil, err
	}
	if next != numWitnesses {
		return nil, fmt.Errorf("remapped %d of %d witnesses", next, numWitnesses)
	}
	for w, nw := range m.OldToNew {
		if nw == -1 {
			return nil, fmt.Errorf("witness %d not remapped", w)
		}
	}
	if m.OldToNew[0] != 0 {
		return nil, fmt.Errorf("constant-one witness remapped to %d", m.OldToNew[0])
	}
	return m, nil
}

// Index maps an old witness index to its new position.
func (m *Remap) Index(old int) int {
	return m.OldToNew[old]
}

func (m *Remap) operand(op r1cs.Operand) r1cs.Operand {
	if op.IsConst {
		return op
	}
	return r1cs.Wit(m.OldToNew[op.Witness])
}

func (m *Remap) coeffWitness(cw r1cs.CoeffWitness) r1cs.CoeffWitness {
	return r1cs.CoeffWitness{Coeff: cw.Coeff, Witness: m.OldToNew[cw.Witness]}
}

func (m *Remap) indices(ws []int) []int {
	out := make([]int, len(ws))
	for i, w := range ws {
		out[i] = m.OldToNew[w]
	}
	return out
}

// Builder returns a copy of b with every witness reference rewritten.
// Builder writes stay contiguous because the remap assigns them in order.
func (m *Remap) Builder(b r1cs.WitnessBuilder) r1cs.WitnessBuilder {
	out := b
	out.Index = m.OldToNew[b.Index]
	switch b.Type {
	case r1cs.BuilderConstant, r1cs.BuilderAcir, r1cs.BuilderChallenge:
	case r1cs.BuilderSum:
		out.Terms = make([]r1cs.SumTerm, len(b.Terms))
		for i, t := range b.Terms {
			out.Terms[i] = r1cs.SumTerm{Coeff: t.Coeff, Witness: m.OldToNew[t.Witness]}
		}
	case r1cs.BuilderProduct, r1cs.BuilderProductLinear:
		out.A = m.OldToNew[b.A]
		out.B = m.OldToNew[b.B]
	case r1cs.BuilderInverse:
		out.A = m.OldToNew[b.A]
	case r1cs.BuilderLogUpInverse:
		out.Sz = m.OldToNew[b.Sz]
		out.A = m.OldToNew[b.A]
	case r1cs.BuilderIndexedLogUpDenominator:
		out.Sz = m.OldToNew[b.Sz]
		out.Rs = m.OldToNew[b.Rs]
		out.A = m.OldToNew[b.A]
		out.B = m.OldToNew[b.B]
	case r1cs.BuilderMultiplicitiesForRange:
		out.Witnesses = m.indices(b.Witnesses)
	case r1cs.BuilderDigitalDecomposition:
		dd := *b.Decomposition
		dd.FirstWitness = m.OldToNew[dd.FirstWitness]
		dd.Witnesses = m.indices(b.Decomposition.Witnesses)
		out.Decomposition = &dd
	case r1cs.BuilderSpiceWitnesses:
		sw := *b.Spice
		sw.FirstWitness = m.OldToNew[sw.FirstWitness]
		sw.RvFinalFirst = m.OldToNew[sw.RvFinalFirst]
		sw.RtFinalFirst = m.OldToNew[sw.RtFinalFirst]
		sw.InitialValues = m.indices(b.Spice.InitialValues)
		sw.Operations = make([]r1cs.SpiceOp, len(b.Spice.Operations))
		for i, op := range b.Spice.Operations {
			op.Addr = m.OldToNew[op.Addr]
			op.Value = m.OldToNew[op.Value]
			if op.Kind == r1cs.MemStore {
				op.OldValue = m.OldToNew[op.OldValue]
			}
			op.ReadTimestamp = m.OldToNew[op.ReadTimestamp]
			sw.Operations[i] = op
		}
		out.Spice = &sw
	case r1cs.BuilderSpiceMultisetFactor:
		out.Sz = m.OldToNew[b.Sz]
		out.Rs = m.OldToNew[b.Rs]
		out.RsSquared = m.OldToNew[b.RsSquared]
		out.Addr = m.coeffWitness(b.Addr)
		out.B = m.OldToNew[b.B]
		out.Time = m.coeffWitness(b.Time)
	case r1cs.BuilderBinOpLookupDenominator:
		out.Sz = m.OldToNew[b.Sz]
		out.Rs = m.OldToNew[b.Rs]
		out.RsSquared = m.OldToNew[b.RsSquared]
		out.RsCubed = m.OldToNew[b.RsCubed]
		out.Lhs = m.operand(b.Lhs)
		out.Rhs = m.operand(b.Rhs)
		out.AndOp = m.operand(b.AndOp)
		out.XorOp = m.operand(b.XorOp)
	case r1cs.BuilderMultiplicitiesForBinOp:
		out.Pairs = make([]r1cs.BinOpPair, len(b.Pairs))
		for i, p := range b.Pairs {
			out.Pairs[i] = r1cs.BinOpPair{Lhs: m.operand(p.Lhs), Rhs: m.operand(p.Rhs)}
		}
	case r1cs.BuilderAnd, r1cs.BuilderXor, r1cs.BuilderU32Addition:
		out.Lhs = m.operand(b.Lhs)
		out.Rhs = m.operand(b.Rhs)
	default:
		panic(fmt.Sprintf("unknown builder type %d", b.Type))
	}
	return out
}

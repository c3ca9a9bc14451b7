// Package compiler lowers an ACIR opcode stream into an R1CS together with
// the witness-builder recipes needed to solve it. Lookup-based arguments
// (range checks, memory checking, bitwise ops) are accumulated during the
// opcode walk and emitted in a finalization pass, since they depend on
// transcript challenges drawn after the first witness commitment.
package compiler

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	"github.com/worldfnd/noir-r1cs/acir"
	"github.com/worldfnd/noir-r1cs/field"
	"github.com/worldfnd/noir-r1cs/r1cs"
)

// NumWitnessThresholdForLookup is the bucket size above which a range check
// switches from the naive product chain to a LogUp lookup.
const NumWitnessThresholdForLookup = 5

// NumBitsThresholdForDecomposition is the largest width checked directly;
// wider values are split into digits first.
const NumBitsThresholdForDecomposition = 8

// Result is the output of a successful compilation, before phase splitting.
type Result struct {
	R1CS     *r1cs.R1CS
	Builders []r1cs.WitnessBuilder
	AcirMap  map[acir.Witness]int
}

type memoryBlock struct {
	id       int
	readOnly bool
	initial  []int
	ops      []r1cs.SpiceOp
}

type binopOp struct {
	kind          r1cs.BuilderType
	lhs, rhs, out r1cs.Operand
}

// Compiler carries the mutable state of one compilation.
type Compiler struct {
	r        *r1cs.R1CS
	builders []r1cs.WitnessBuilder
	next     int

	acirMap     map[acir.Witness]int
	rangeChecks map[int][]int
	memOrder    []int
	memories    map[int]*memoryBlock
	binops      []binopOp

	log zerolog.Logger
}

func New() *Compiler {
	c := &Compiler{
		r:           r1cs.New(),
		acirMap:     make(map[acir.Witness]int),
		rangeChecks: make(map[int][]int),
		memories:    make(map[int]*memoryBlock),
		log:         logger.Logger().With().Str("component", "compiler").Logger(),
	}
	// Witness 0 is the constant one.
	c.builders = append(c.builders, r1cs.NewConstantBuilder(0, field.One()))
	c.next = 1
	return c
}

// WitnessOne is the index of the constant-one witness.
const WitnessOne = 0

// AddBuilder appends a builder writing at the next free witness index and
// grows the matrices accordingly. Returns the first written index.
func (c *Compiler) AddBuilder(b r1cs.WitnessBuilder) int {
	idx := b.Index
	c.builders = append(c.builders, b)
	c.next += b.NumWitnesses()
	return idx
}

// NextWitness returns the index the next builder will write at.
func (c *Compiler) NextWitness() int {
	return c.next
}

// fetch lazily materializes the R1CS witness backing an ACIR witness.
func (c *Compiler) fetch(w acir.Witness) int {
	if idx, ok := c.acirMap[w]; ok {
		return idx
	}
	idx := c.AddBuilder(r1cs.NewAcirBuilder(c.next, int(w)))
	c.acirMap[w] = idx
	return idx
}

// AddChallenge allocates a transcript-challenge witness.
func (c *Compiler) AddChallenge() int {
	return c.AddBuilder(r1cs.NewChallengeBuilder(c.next))
}

// AddConstant allocates a constant witness.
func (c *Compiler) AddConstant(v fr.Element) int {
	return c.AddBuilder(r1cs.NewConstantBuilder(c.next, v))
}

// AddProduct allocates p = z[a]*z[b] and constrains it.
func (c *Compiler) AddProduct(a, b int) int {
	p := c.AddBuilder(r1cs.NewProductBuilder(c.next, a, b))
	c.r.AddWitnesses(c.next - c.r.NumWitnesses())
	c.r.AddConstraint(
		[]r1cs.Term{r1cs.T(1, a)},
		[]r1cs.Term{r1cs.T(1, b)},
		[]r1cs.Term{r1cs.T(1, p)},
	)
	return p
}

// AddSum allocates s = sum(coeff*witness) and constrains it.
func (c *Compiler) AddSum(terms []r1cs.SumTerm) int {
	s := c.AddBuilder(r1cs.NewSumBuilder(c.next, terms))
	c.r.AddWitnesses(c.next - c.r.NumWitnesses())
	a := make([]r1cs.Term, len(terms))
	for i, t := range terms {
		a[i] = r1cs.Term{Coeff: t.Coeff, Witness: t.Witness}
	}
	c.r.AddConstraint(a, []r1cs.Term{r1cs.T(1, WitnessOne)}, []r1cs.Term{r1cs.T(1, s)})
	return s
}

// AddInverseChecked allocates inv = 1/z[x] with the fused constraint
// z[x]*inv = 1.
func (c *Compiler) AddInverseChecked(x int) int {
	inv := c.AddBuilder(r1cs.NewInverseBuilder(c.next, x))
	c.r.AddWitnesses(c.next - c.r.NumWitnesses())
	c.r.AddConstraint(
		[]r1cs.Term{r1cs.T(1, x)},
		[]r1cs.Term{r1cs.T(1, inv)},
		[]r1cs.Term{r1cs.T(1, WitnessOne)},
	)
	return inv
}

func (c *Compiler) syncWitnesses() {
	if d := c.next - c.r.NumWitnesses(); d > 0 {
		c.r.AddWitnesses(d)
	}
}

func neg(v fr.Element) fr.Element {
	var out fr.Element
	out.Neg(&v)
	return out
}

// assertZero lowers one AssertZero expression. Every multiplication term
// except the last becomes a Product witness folded into the linear side, so
// the whole assertion costs exactly one constraint of its own.
func (c *Compiler) assertZero(e *acir.Expression) error {
	if e == nil {
		return &CompileError{Kind: ErrMalformedExpression, Detail: "nil expression"}
	}
	if len(e.Mul) == 0 {
		a := make([]r1cs.Term, 0, len(e.Linear)+1)
		for _, lt := range e.Linear {
			a = append(a, r1cs.Term{Coeff: lt.Coeff, Witness: c.fetch(lt.W)})
		}
		if !e.QC.IsZero() {
			a = append(a, r1cs.Term{Coeff: e.QC, Witness: WitnessOne})
		}
		c.syncWitnesses()
		c.r.AddConstraint(a, []r1cs.Term{r1cs.T(1, WitnessOne)}, nil)
		return nil
	}

	// Negated remainder that ends up on the C side.
	rest := make([]r1cs.Term, 0, len(e.Mul)+len(e.Linear))
	for _, mt := range e.Mul[:len(e.Mul)-1] {
		p := c.AddProduct(c.fetch(mt.A), c.fetch(mt.B))
		rest = append(rest, r1cs.Term{Coeff: neg(mt.Coeff), Witness: p})
	}
	for _, lt := range e.Linear {
		rest = append(rest, r1cs.Term{Coeff: neg(lt.Coeff), Witness: c.fetch(lt.W)})
	}
	if !e.QC.IsZero() {
		rest = append(rest, r1cs.Term{Coeff: neg(e.QC), Witness: WitnessOne})
	}
	last := e.Mul[len(e.Mul)-1]
	a := c.fetch(last.A)
	b := c.fetch(last.B)
	c.syncWitnesses()
	c.r.AddConstraint(
		[]r1cs.Term{{Coeff: last.Coeff, Witness: a}},
		[]r1cs.Term{r1cs.T(1, b)},
		rest,
	)
	return nil
}

// RecordRangeCheck queues witness w for a b-bit range check, resolved during
// finalization.
func (c *Compiler) RecordRangeCheck(w int, bits int) error {
	if bits < 0 || bits > 64 {
		return &CompileError{Kind: ErrRangeBitsTooLarge, Detail: "range width out of bounds"}
	}
	c.rangeChecks[bits] = append(c.rangeChecks[bits], w)
	return nil
}

func (c *Compiler) opcode(op *acir.Opcode) error {
	switch op.Kind {
	case acir.OpAssertZero:
		return c.assertZero(op.Expr)
	case acir.OpRange:
		return c.RecordRangeCheck(c.fetch(op.Input), op.Bits)
	case acir.OpAnd, acir.OpXor:
		return c.binop(op)
	case acir.OpMemoryInit:
		if _, ok := c.memories[op.BlockID]; ok {
			return &CompileError{Kind: ErrInconsistentMemoryBlock, Detail: "duplicate memory init"}
		}
		blk := &memoryBlock{id: op.BlockID, readOnly: op.ReadOnly}
		for _, w := range op.Init {
			blk.initial = append(blk.initial, c.fetch(w))
		}
		c.memories[op.BlockID] = blk
		c.memOrder = append(c.memOrder, op.BlockID)
		return nil
	case acir.OpMemoryOp:
		blk, ok := c.memories[op.BlockID]
		if !ok {
			return &CompileError{Kind: ErrInconsistentMemoryBlock, Detail: "memory op before init"}
		}
		kind := r1cs.MemLoad
		if op.Access == acir.MemWrite {
			kind = r1cs.MemStore
		}
		if blk.readOnly && kind == r1cs.MemStore {
			return &CompileError{Kind: ErrInconsistentMemoryBlock, Detail: "store into read-only block"}
		}
		blk.ops = append(blk.ops, r1cs.SpiceOp{
			Kind:  kind,
			Addr:  c.fetch(op.Addr),
			Value: c.fetch(op.Value),
		})
		return nil
	case acir.OpBrilligCall:
		// Unconstrained hints; their outputs surface as ACIR witness values.
		return nil
	case acir.OpBlackBox:
		return &CompileError{Kind: ErrUnsupportedOpcode, Detail: op.Name}
	default:
		return &CompileError{Kind: ErrUnsupportedOpcode, Detail: op.Kind.String()}
	}
}

// Compile walks the circuit once, then finalizes memory checking, binop
// lookups and range checks in that order (memory and binops queue further
// range checks of their own).
func Compile(circuit *acir.Circuit) (*Result, error) {
	c := New()
	c.r.NumPublicInputs = len(circuit.PublicInputs)
	// Public inputs occupy the indices right after the constant one.
	for _, w := range circuit.PublicInputs {
		c.fetch(w)
	}
	for i := range circuit.Opcodes {
		if err := c.opcode(&circuit.Opcodes[i]); err != nil {
			return nil, err
		}
	}
	for _, id := range c.memOrder {
		blk := c.memories[id]
		if len(blk.ops) == 0 {
			continue
		}
		hasStore := false
		for _, op := range blk.ops {
			if op.Kind == r1cs.MemStore {
				hasStore = true
				break
			}
		}
		if hasStore {
			if err := c.emitRAM(blk); err != nil {
				return nil, err
			}
		} else {
			if err := c.emitROM(blk); err != nil {
				return nil, err
			}
		}
	}
	c.emitBinopLookup()
	if err := c.emitRangeChecks(); err != nil {
		return nil, err
	}
	c.syncWitnesses()

	c.log.Debug().
		Int("constraints", c.r.NumConstraints()).
		Int("witnesses", c.r.NumWitnesses()).
		Int("builders", len(c.builders)).
		Int("nonzeros", c.r.A.NumNonZero()+c.r.B.NumNonZero()+c.r.C.NumNonZero()).
		Msg("compiled circuit")

	return &Result{R1CS: c.r, Builders: c.builders, AcirMap: c.acirMap}, nil
}

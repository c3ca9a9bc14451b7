package compiler

import (
	"github.com/worldfnd/noir-r1cs/acir"
	"github.com/worldfnd/noir-r1cs/field"
	"github.com/worldfnd/noir-r1cs/r1cs"
)

// binop records the byte-level lookups of one AND/XOR opcode. Byte-wide
// operands are looked up directly; 32-bit operands are first decomposed into
// four 8-bit limbs.
func (c *Compiler) binop(op *acir.Opcode) error {
	kind := r1cs.BuilderAnd
	if op.Kind == acir.OpXor {
		kind = r1cs.BuilderXor
	}
	lhs := c.fetch(op.Lhs)
	rhs := c.fetch(op.Rhs)
	out := c.fetch(op.Output)

	switch {
	case op.Bits > 0 && op.Bits <= r1cs.BinopAtomicBits:
		if op.Bits < r1cs.BinopAtomicBits {
			// The table only proves byte range; narrower operands need
			// their own checks.
			if err := c.RecordRangeCheck(lhs, op.Bits); err != nil {
				return err
			}
			if err := c.RecordRangeCheck(rhs, op.Bits); err != nil {
				return err
			}
		}
		c.binops = append(c.binops, binopOp{kind: kind, lhs: r1cs.Wit(lhs), rhs: r1cs.Wit(rhs), out: r1cs.Wit(out)})
		return nil
	case op.Bits == 32:
		logBases := []int{8, 8, 8, 8}
		dd := c.AddDigitalDecomposition([]int{lhs, rhs, out}, logBases)
		for p := range logBases {
			c.binops = append(c.binops, binopOp{
				kind: kind,
				lhs:  r1cs.Wit(dd.DigitWitness(p, 0)),
				rhs:  r1cs.Wit(dd.DigitWitness(p, 1)),
				out:  r1cs.Wit(dd.DigitWitness(p, 2)),
			})
		}
		return nil
	default:
		return &CompileError{Kind: ErrUnsupportedOpcode, Detail: "bitwise op width"}
	}
}

// bindEqual constrains two operands to carry the same value.
func (c *Compiler) bindEqual(a, b r1cs.Operand) {
	if a == b {
		return
	}
	c.r.AddConstraint(
		[]r1cs.Term{r1cs.T(1, WitnessOne)},
		[]r1cs.Term{operandTerm(a, 1)},
		[]r1cs.Term{operandTerm(b, 1)},
	)
}

type combinedRow struct {
	lhs, rhs r1cs.Operand
	and, xor r1cs.Operand
	hasAnd   bool
	hasXor   bool
	andTerm  int
	xorTerm  int
}

// emitBinopLookup finalizes all recorded byte ops against one combined
// AND+XOR table: a row is (a, b, a&b, a^b) for all byte pairs, compressed
// by powers of rs. Ops that exercised only one of the two outputs get the
// complementary output solved by a dedicated builder so every queried row
// is total.
func (c *Compiler) emitBinopLookup() {
	if len(c.binops) == 0 {
		return
	}
	sz := c.AddChallenge()
	rs := c.AddChallenge()
	rsSq := c.AddProduct(rs, rs)
	rsCube := c.AddProduct(rsSq, rs)

	type pairKey struct{ lhs, rhs r1cs.Operand }
	rows := make(map[pairKey]*combinedRow)
	var order []pairKey
	c.syncWitnesses()
	for _, op := range c.binops {
		key := pairKey{op.lhs, op.rhs}
		row, ok := rows[key]
		if !ok {
			row = &combinedRow{lhs: op.lhs, rhs: op.rhs}
			rows[key] = row
			order = append(order, key)
		}
		// A repeated op on the same pair reuses the row's recorded output;
		// its own output witness is bound to it by an equality constraint so
		// no output escapes the lookup.
		if op.kind == r1cs.BuilderAnd {
			if row.hasAnd {
				c.bindEqual(row.and, op.out)
			} else {
				row.and = op.out
				row.hasAnd = true
			}
		} else {
			if row.hasXor {
				c.bindEqual(row.xor, op.out)
			} else {
				row.xor = op.out
				row.hasXor = true
			}
		}
	}
	// Complete partial rows and precompute the challenge-weighted output
	// products shared by all queries of the row.
	for _, key := range order {
		row := rows[key]
		if !row.hasAnd {
			row.and = r1cs.Wit(c.AddBuilder(r1cs.NewAndBuilder(c.next, row.lhs, row.rhs)))
		}
		if !row.hasXor {
			row.xor = r1cs.Wit(c.AddBuilder(r1cs.NewXorBuilder(c.next, row.lhs, row.rhs)))
		}
		row.andTerm = c.AddProduct(rsSq, row.and.Witness)
		row.xorTerm = c.AddProduct(rsCube, row.xor.Witness)
	}

	pairs := make([]r1cs.BinOpPair, len(c.binops))
	for i, op := range c.binops {
		pairs[i] = r1cs.BinOpPair{Lhs: op.lhs, Rhs: op.rhs}
	}
	multStart := c.AddBuilder(r1cs.NewMultiplicitiesForBinOpBuilder(c.next, pairs))

	tableSize := 1 << (2 * r1cs.BinopAtomicBits)
	terminal := make([]r1cs.Term, 0, tableSize+len(c.binops))

	// One query denominator per recorded op.
	for _, op := range c.binops {
		key := pairKey{op.lhs, op.rhs}
		row := rows[key]
		d := c.AddBuilder(r1cs.NewBinOpLookupDenominatorBuilder(
			c.next, sz, rs, rsSq, rsCube, row.lhs, row.rhs, row.and, row.xor))
		c.syncWitnesses()
		// -rs*rhs = d - sz + lhs + rsSq*and + rsCube*xor
		c.r.AddConstraint(
			[]r1cs.Term{{Coeff: field.FromInt64(-1), Witness: rs}},
			[]r1cs.Term{operandTerm(row.rhs, 1)},
			[]r1cs.Term{
				r1cs.T(1, d),
				{Coeff: field.FromInt64(-1), Witness: sz},
				operandTerm(row.lhs, 1),
				r1cs.T(1, row.andTerm),
				r1cs.T(1, row.xorTerm),
			},
		)
		inv := c.AddInverseChecked(d)
		terminal = append(terminal, r1cs.T(1, inv))
	}

	// Full table: all operands constant, so the denominator is linear in the
	// challenge powers.
	for a := 0; a < 1<<r1cs.BinopAtomicBits; a++ {
		for b := 0; b < 1<<r1cs.BinopAtomicBits; b++ {
			la := field.FromUint64(uint64(a))
			lb := field.FromUint64(uint64(b))
			land := field.FromUint64(uint64(a & b))
			lxor := field.FromUint64(uint64(a ^ b))
			d := c.AddBuilder(r1cs.NewBinOpLookupDenominatorBuilder(
				c.next, sz, rs, rsSq, rsCube,
				r1cs.Const(la), r1cs.Const(lb), r1cs.Const(land), r1cs.Const(lxor)))
			c.syncWitnesses()
			// d = sz - a - b*rs - (a&b)*rsSq - (a^b)*rsCube
			c.r.AddConstraint(
				[]r1cs.Term{r1cs.T(1, d)},
				[]r1cs.Term{r1cs.T(1, WitnessOne)},
				[]r1cs.Term{
					r1cs.T(1, sz),
					{Coeff: neg(la), Witness: WitnessOne},
					{Coeff: neg(lb), Witness: rs},
					{Coeff: neg(land), Witness: rsSq},
					{Coeff: neg(lxor), Witness: rsCube},
				},
			)
			inv := c.AddInverseChecked(d)
			prod := c.AddProduct(multStart+(a<<r1cs.BinopAtomicBits|b), inv)
			terminal = append(terminal, r1cs.Term{Coeff: field.FromInt64(-1), Witness: prod})
		}
	}
	c.syncWitnesses()
	c.r.AddConstraint(terminal, []r1cs.Term{r1cs.T(1, WitnessOne)}, nil)
}

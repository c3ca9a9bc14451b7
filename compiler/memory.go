package compiler

import (
	"github.com/worldfnd/noir-r1cs/field"
	"github.com/worldfnd/noir-r1cs/r1cs"
)

// emitROM checks a read-only block with a LogUp argument over (addr, value)
// pairs: the initial image is the table, each load is a query. Load
// addresses are additionally range-checked to the address width.
func (c *Compiler) emitROM(blk *memoryBlock) error {
	memLen := len(blk.initial)
	addrBits := field.CeilLog2(memLen)

	addrs := make([]int, len(blk.ops))
	for i, op := range blk.ops {
		addrs[i] = op.Addr
		if err := c.RecordRangeCheck(op.Addr, addrBits); err != nil {
			return err
		}
	}
	multStart := c.AddBuilder(r1cs.NewMultiplicitiesForRangeBuilder(c.next, memLen, addrs))
	rs := c.AddChallenge()
	sz := c.AddChallenge()

	terminal := make([]r1cs.Term, 0, memLen+len(blk.ops))
	for _, op := range blk.ops {
		d := c.AddBuilder(r1cs.NewIndexedLogUpDenominatorBuilder(
			c.next, sz, field.One(), op.Addr, rs, op.Value))
		c.syncWitnesses()
		// rs*value = sz - addr - d
		c.r.AddConstraint(
			[]r1cs.Term{r1cs.T(1, rs)},
			[]r1cs.Term{r1cs.T(1, op.Value)},
			[]r1cs.Term{
				r1cs.T(1, sz),
				{Coeff: field.FromInt64(-1), Witness: op.Addr},
				{Coeff: field.FromInt64(-1), Witness: d},
			},
		)
		inv := c.AddInverseChecked(d)
		terminal = append(terminal, r1cs.T(1, inv))
	}
	for j := 0; j < memLen; j++ {
		jc := field.FromUint64(uint64(j))
		d := c.AddBuilder(r1cs.NewIndexedLogUpDenominatorBuilder(
			c.next, sz, jc, WitnessOne, rs, blk.initial[j]))
		c.syncWitnesses()
		// rs*m_j = sz - j - d
		c.r.AddConstraint(
			[]r1cs.Term{r1cs.T(1, rs)},
			[]r1cs.Term{r1cs.T(1, blk.initial[j])},
			[]r1cs.Term{
				r1cs.T(1, sz),
				{Coeff: neg(jc), Witness: WitnessOne},
				{Coeff: field.FromInt64(-1), Witness: d},
			},
		)
		inv := c.AddInverseChecked(d)
		prod := c.AddProduct(multStart+j, inv)
		terminal = append(terminal, r1cs.Term{Coeff: field.FromInt64(-1), Witness: prod})
	}
	// sum of query inverses equals sum of multiplicity-weighted table inverses
	c.syncWitnesses()
	c.r.AddConstraint(terminal, []r1cs.Term{r1cs.T(1, WitnessOne)}, nil)
	return nil
}

// emitRAM checks a read-write block with Spice offline memory checking: the
// multiset identity init+writes = reads+final over (addr, value, time)
// tuples, compressed to products of challenge factors.
func (c *Compiler) emitRAM(blk *memoryBlock) error {
	memLen := len(blk.initial)
	numOps := len(blk.ops)

	sw := r1cs.NewSpiceWitnesses(c.next, memLen, blk.initial, blk.ops)
	c.AddBuilder(r1cs.NewSpiceWitnessesBuilder(sw))
	rs := c.AddChallenge()
	sz := c.AddChallenge()
	rsSq := c.AddProduct(rs, rs)

	one := field.One()
	var wsFactors, rsFactors []int

	factor := func(addr r1cs.CoeffWitness, value int, time r1cs.CoeffWitness) int {
		f := c.AddBuilder(r1cs.NewSpiceMultisetFactorBuilder(c.next, sz, rs, rsSq, addr, value, time))
		// rs*(-value) = f - sz + addr + rsSq*time
		timeTerm := c.AddProduct(rsSq, time.Witness)
		c.syncWitnesses()
		c.r.AddConstraint(
			[]r1cs.Term{{Coeff: field.FromInt64(-1), Witness: rs}},
			[]r1cs.Term{r1cs.T(1, value)},
			[]r1cs.Term{
				r1cs.T(1, f),
				{Coeff: field.FromInt64(-1), Witness: sz},
				{Coeff: addr.Coeff, Witness: addr.Witness},
				{Coeff: time.Coeff, Witness: timeTerm},
			},
		)
		return f
	}

	// Init tuples (j, m_j, 0).
	for j := 0; j < memLen; j++ {
		wsFactors = append(wsFactors, factor(
			r1cs.CoeffWitness{Coeff: field.FromUint64(uint64(j)), Witness: WitnessOne},
			blk.initial[j],
			r1cs.CoeffWitness{Coeff: field.Zero(), Witness: WitnessOne},
		))
	}
	// Per-operation read and write tuples; t = k+1.
	timestampBits := field.CeilLog2(numOps + 1)
	for k, op := range sw.Operations {
		t := uint64(k + 1)
		readValue := op.Value
		if op.Kind == r1cs.MemStore {
			readValue = op.OldValue
		}
		rsFactors = append(rsFactors, factor(
			r1cs.CoeffWitness{Coeff: one, Witness: op.Addr},
			readValue,
			r1cs.CoeffWitness{Coeff: one, Witness: op.ReadTimestamp},
		))
		wsFactors = append(wsFactors, factor(
			r1cs.CoeffWitness{Coeff: one, Witness: op.Addr},
			op.Value,
			r1cs.CoeffWitness{Coeff: field.FromUint64(t), Witness: WitnessOne},
		))
		// Read timestamps are bounded: rt in range and rt < t via t-1-rt.
		if err := c.RecordRangeCheck(op.ReadTimestamp, timestampBits); err != nil {
			return err
		}
		diff := c.AddSum([]r1cs.SumTerm{
			{Coeff: field.FromUint64(t - 1), Witness: WitnessOne},
			{Coeff: field.FromInt64(-1), Witness: op.ReadTimestamp},
		})
		if err := c.RecordRangeCheck(diff, timestampBits); err != nil {
			return err
		}
	}
	// Audit tuples (j, rv_final_j, rt_final_j).
	for j := 0; j < memLen; j++ {
		rsFactors = append(rsFactors, factor(
			r1cs.CoeffWitness{Coeff: field.FromUint64(uint64(j)), Witness: WitnessOne},
			sw.RvFinalFirst+j,
			r1cs.CoeffWitness{Coeff: one, Witness: sw.RtFinalFirst + j},
		))
		if err := c.RecordRangeCheck(sw.RtFinalFirst+j, timestampBits); err != nil {
			return err
		}
	}

	wsHash := c.productChain(wsFactors)
	rsHash := c.productChain(rsFactors)
	c.syncWitnesses()
	c.r.AddConstraint(
		[]r1cs.Term{r1cs.T(1, wsHash)},
		[]r1cs.Term{r1cs.T(1, WitnessOne)},
		[]r1cs.Term{r1cs.T(1, rsHash)},
	)
	return nil
}

func (c *Compiler) productChain(factors []int) int {
	acc := factors[0]
	for _, f := range factors[1:] {
		acc = c.AddProduct(acc, f)
	}
	return acc
}

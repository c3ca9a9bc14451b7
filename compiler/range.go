package compiler

import (
	"sort"

	"github.com/worldfnd/noir-r1cs/field"
	"github.com/worldfnd/noir-r1cs/r1cs"
)

// emitRangeChecks resolves every queued range check. Widths above the
// decomposition threshold are split into 8-bit digits (plus a short top
// digit) whose checks land in the narrow buckets; each narrow bucket then
// uses either the naive product chain or a LogUp lookup depending on size.
func (c *Compiler) emitRangeChecks() error {
	var wide []int
	for bits := range c.rangeChecks {
		if bits > NumBitsThresholdForDecomposition {
			wide = append(wide, bits)
		}
	}
	sort.Ints(wide)
	for _, bits := range wide {
		values := c.rangeChecks[bits]
		delete(c.rangeChecks, bits)
		logBases := make([]int, 0, bits/8+1)
		for covered := 0; covered < bits; covered += NumBitsThresholdForDecomposition {
			lb := NumBitsThresholdForDecomposition
			if bits-covered < lb {
				lb = bits - covered
			}
			logBases = append(logBases, lb)
		}
		dd := c.AddDigitalDecomposition(values, logBases)
		for p, lb := range logBases {
			for o := range values {
				c.rangeChecks[lb] = append(c.rangeChecks[lb], dd.DigitWitness(p, o))
			}
		}
	}

	var narrow []int
	for bits := range c.rangeChecks {
		narrow = append(narrow, bits)
	}
	sort.Ints(narrow)
	for _, bits := range narrow {
		values := c.rangeChecks[bits]
		if len(values) == 0 {
			continue
		}
		switch {
		case bits == 0:
			for _, v := range values {
				c.syncWitnesses()
				c.r.AddConstraint([]r1cs.Term{r1cs.T(1, v)}, []r1cs.Term{r1cs.T(1, WitnessOne)}, nil)
			}
		case len(values) <= NumWitnessThresholdForLookup:
			for _, v := range values {
				c.emitNaiveRangeCheck(v, bits)
			}
		default:
			c.emitLookupRangeCheck(values, bits)
		}
	}
	c.rangeChecks = make(map[int][]int)
	return nil
}

// emitNaiveRangeCheck constrains prod_{i=0}^{2^bits-1} (v-i) = 0 through a
// chain of ProductLinear witnesses.
func (c *Compiler) emitNaiveRangeCheck(v int, bits int) {
	last := uint64(1)<<bits - 1
	c.syncWitnesses()
	if last == 1 {
		// v*(v-1) = 0 directly.
		c.r.AddConstraint(
			[]r1cs.Term{r1cs.T(1, v)},
			[]r1cs.Term{r1cs.T(1, v), {Coeff: field.FromInt64(-1), Witness: WitnessOne}},
			nil,
		)
		return
	}
	// acc = v*(v-1)
	acc := c.AddBuilder(r1cs.NewProductLinearBuilder(
		c.next, v, v, field.One(), field.Zero(), field.One(), field.FromInt64(-1)))
	c.syncWitnesses()
	c.r.AddConstraint(
		[]r1cs.Term{r1cs.T(1, v)},
		[]r1cs.Term{r1cs.T(1, v), {Coeff: field.FromInt64(-1), Witness: WitnessOne}},
		[]r1cs.Term{r1cs.T(1, acc)},
	)
	for i := uint64(2); i < last; i++ {
		next := c.AddBuilder(r1cs.NewProductLinearBuilder(
			c.next, acc, v, field.One(), field.Zero(), field.One(), field.FromInt64(-int64(i))))
		c.syncWitnesses()
		c.r.AddConstraint(
			[]r1cs.Term{r1cs.T(1, acc)},
			[]r1cs.Term{r1cs.T(1, v), {Coeff: field.FromInt64(-int64(i)), Witness: WitnessOne}},
			[]r1cs.Term{r1cs.T(1, next)},
		)
		acc = next
	}
	c.r.AddConstraint(
		[]r1cs.Term{r1cs.T(1, acc)},
		[]r1cs.Term{r1cs.T(1, v), {Coeff: field.FromInt64(-int64(last)), Witness: WitnessOne}},
		nil,
	)
}

// emitLookupRangeCheck proves every value lies in [0, 2^bits) with a
// log-derivative lookup against the full table of that range.
func (c *Compiler) emitLookupRangeCheck(values []int, bits int) {
	tableSize := 1 << bits
	sz := c.AddChallenge()
	multStart := c.AddBuilder(r1cs.NewMultiplicitiesForRangeBuilder(c.next, tableSize, values))

	terminal := make([]r1cs.Term, 0, tableSize+len(values))
	for t := 0; t < tableSize; t++ {
		tc := field.FromUint64(uint64(t))
		inv := c.AddBuilder(r1cs.NewLogUpInverseBuilder(c.next, sz, tc, WitnessOne))
		c.syncWitnesses()
		// (sz - t)*inv = 1
		c.r.AddConstraint(
			[]r1cs.Term{r1cs.T(1, sz), {Coeff: neg(tc), Witness: WitnessOne}},
			[]r1cs.Term{r1cs.T(1, inv)},
			[]r1cs.Term{r1cs.T(1, WitnessOne)},
		)
		prod := c.AddProduct(multStart+t, inv)
		terminal = append(terminal, r1cs.T(1, prod))
	}
	for _, v := range values {
		inv := c.AddBuilder(r1cs.NewLogUpInverseBuilder(c.next, sz, field.One(), v))
		c.syncWitnesses()
		// (sz - v)*inv = 1
		c.r.AddConstraint(
			[]r1cs.Term{r1cs.T(1, sz), {Coeff: field.FromInt64(-1), Witness: v}},
			[]r1cs.Term{r1cs.T(1, inv)},
			[]r1cs.Term{r1cs.T(1, WitnessOne)},
		)
		terminal = append(terminal, r1cs.Term{Coeff: field.FromInt64(-1), Witness: inv})
	}
	// sum of table terms equals sum of query terms
	c.syncWitnesses()
	c.r.AddConstraint(terminal, []r1cs.Term{r1cs.T(1, WitnessOne)}, nil)
}

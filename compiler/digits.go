package compiler

import (
	"github.com/worldfnd/noir-r1cs/field"
	"github.com/worldfnd/noir-r1cs/r1cs"
)

// AddDigitalDecomposition allocates the digit witnesses of every value in
// values and emits one recomposition constraint per value:
// sum(multiplier_p * digit_p) = value.
func (c *Compiler) AddDigitalDecomposition(values []int, logBases []int) *r1cs.DigitalDecomposition {
	dd := &r1cs.DigitalDecomposition{LogBases: logBases, Witnesses: values, FirstWitness: c.next}
	c.AddBuilder(r1cs.NewDigitalDecompositionBuilder(dd))
	c.syncWitnesses()
	mult := field.DigitMultipliers(logBases)
	for o, v := range values {
		a := make([]r1cs.Term, len(logBases))
		for p := range logBases {
			a[p] = r1cs.Term{Coeff: mult[p], Witness: dd.DigitWitness(p, o)}
		}
		c.r.AddConstraint(a, []r1cs.Term{r1cs.T(1, WitnessOne)}, []r1cs.Term{r1cs.T(1, v)})
	}
	return dd
}

// operandTerm turns scale*operand into a constraint term; constants ride the
// constant-one witness.
func operandTerm(op r1cs.Operand, scale uint64) r1cs.Term {
	if op.IsConst {
		s := field.FromUint64(scale)
		s.Mul(&s, &op.Constant)
		return r1cs.Term{Coeff: s, Witness: WitnessOne}
	}
	return r1cs.T(scale, op.Witness)
}

// AddU32Addition allocates result = (lhs+rhs) mod 2^32 and its carry bit,
// constrains lhs + rhs = result + 2^32*carry and carry*(carry-1) = 0, and
// queues a 32-bit range check on the result. Used by black-box hash
// lowerings built on modular 32-bit arithmetic.
func (c *Compiler) AddU32Addition(lhs, rhs r1cs.Operand) (result, carry int, err error) {
	result = c.AddBuilder(r1cs.NewU32AdditionBuilder(c.next, lhs, rhs))
	carry = result + 1
	c.syncWitnesses()
	c.r.AddConstraint(
		[]r1cs.Term{operandTerm(lhs, 1), operandTerm(rhs, 1)},
		[]r1cs.Term{r1cs.T(1, WitnessOne)},
		[]r1cs.Term{r1cs.T(1, result), {Coeff: field.PowerOfTwo(32), Witness: carry}},
	)
	c.r.AddConstraint(
		[]r1cs.Term{r1cs.T(1, carry)},
		[]r1cs.Term{r1cs.T(1, carry), {Coeff: field.FromInt64(-1), Witness: WitnessOne}},
		nil,
	)
	if err = c.RecordRangeCheck(result, 32); err != nil {
		return 0, 0, err
	}
	return result, carry, nil
}

// Package r1cs holds the Rank-1 Constraint System data model: an interner of
// field constants, CSR sparse matrices, the (A,B,C) triple and the
// witness-builder recipes that describe how to solve each witness cell.
package r1cs

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Term is one coefficient*witness summand of a constraint row.
type Term struct {
	Coeff   fr.Element
	Witness int
}

// T builds a term from a uint64 coefficient.
func T(coeff uint64, witness int) Term {
	var c fr.Element
	c.SetUint64(coeff)
	return Term{Coeff: c, Witness: witness}
}

// R1CS is the constraint system (A,B,C): a witness z satisfies it iff
// (A*z) o (B*z) = C*z elementwise. Witness 0 is the constant one; public
// inputs occupy the following indices.
type R1CS struct {
	NumPublicInputs int
	Interner        *Interner
	A, B, C         *SparseMatrix
}

func New() *R1CS {
	// One column for the constant-one witness.
	return &R1CS{
		Interner: NewInterner(),
		A:        NewSparseMatrix(0, 1),
		B:        NewSparseMatrix(0, 1),
		C:        NewSparseMatrix(0, 1),
	}
}

func (r *R1CS) NumConstraints() int {
	return r.A.NumRows
}

func (r *R1CS) NumWitnesses() int {
	return r.A.NumCols
}

// AddWitnesses grows all three matrices by n columns.
func (r *R1CS) AddWitnesses(n int) {
	cols := r.A.NumCols + n
	r.A.Grow(r.A.NumRows, cols)
	r.B.Grow(r.B.NumRows, cols)
	r.C.Grow(r.C.NumRows, cols)
}

// AddConstraint appends the row (a)*(b) = (c). Zero coefficients are
// dropped; duplicate witnesses within one side accumulate.
func (r *R1CS) AddConstraint(a, b, c []Term) {
	row := r.A.NumRows
	r.A.Grow(row+1, r.A.NumCols)
	r.B.Grow(row+1, r.B.NumCols)
	r.C.Grow(row+1, r.C.NumCols)
	r.setRow(r.A, row, a)
	r.setRow(r.B, row, b)
	r.setRow(r.C, row, c)
}

func (r *R1CS) setRow(m *SparseMatrix, row int, terms []Term) {
	// Accumulate duplicates before interning so the stored row is canonical.
	acc := make(map[int]fr.Element, len(terms))
	order := make([]int, 0, len(terms))
	for _, t := range terms {
		if old, ok := acc[t.Witness]; ok {
			old.Add(&old, &t.Coeff)
			acc[t.Witness] = old
			continue
		}
		acc[t.Witness] = t.Coeff
		order = append(order, t.Witness)
	}
	for _, w := range order {
		coeff := acc[w]
		if coeff.IsZero() {
			continue
		}
		m.Set(row, w, r.Interner.Intern(coeff))
	}
}

// UnsolvedConstraintError reports the first unsatisfied constraint row.
type UnsolvedConstraintError struct {
	Row int
}

func (e *UnsolvedConstraintError) Error() string {
	return fmt.Sprintf("constraint %d not satisfied", e.Row)
}

// VerifyWitness checks (A*z) o (B*z) = C*z and returns an
// UnsolvedConstraintError naming the first failing row.
func (r *R1CS) VerifyWitness(z []fr.Element) error {
	if len(z) != r.NumWitnesses() {
		return fmt.Errorf("witness length %d, expected %d", len(z), r.NumWitnesses())
	}
	if !z[0].IsOne() {
		return fmt.Errorf("witness 0 must be one")
	}
	a := r.A.MulRight(r.Interner, z)
	b := r.B.MulRight(r.Interner, z)
	c := r.C.MulRight(r.Interner, z)
	var ab fr.Element
	for i := range a {
		ab.Mul(&a[i], &b[i])
		if !ab.Equal(&c[i]) {
			return &UnsolvedConstraintError{Row: i}
		}
	}
	return nil
}

// RemapWitnesses permutes the columns of all three matrices.
func (r *R1CS) RemapWitnesses(f func(int) int) {
	r.A.RemapColumns(f)
	r.B.RemapColumns(f)
	r.C.RemapColumns(f)
}

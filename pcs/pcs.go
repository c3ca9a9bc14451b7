// Package pcs defines the polynomial commitment interface consumed by the
// prover and verifier, together with the transparent raw scheme used as the
// default instantiation. Opening claims are weighted sums over the committed
// values, which covers multilinear evaluations (eq weights) as well as the
// sparse matrix rows produced by the sumcheck.
package pcs

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	"github.com/worldfnd/noir-r1cs/transcript"
)

var (
	ErrCommitmentMismatch = errors.New("pcs: commitment does not match values")
	ErrEvaluationMismatch = errors.New("pcs: claimed sum does not match evaluation")
	ErrLengthMismatch     = errors.New("pcs: weight vector length does not match committed vector")
)

// Commitment binds a vector of field elements. Root is what the transcript
// absorbs; Values is scheme-specific payload carried in the proof (the raw
// scheme ships the vector itself, a succinct scheme would leave it empty).
type Commitment struct {
	Root   fr.Element
	Values []fr.Element
}

// Proof is an opening proof. The raw scheme needs none; succinct schemes
// carry their query responses here.
type Proof struct {
	Elements []fr.Element
}

// Scheme is a vector commitment with batched weighted-sum openings. One
// Open/Verify pair covers several claims against the same commitment:
// sums[j] must equal the inner product of weights[j] with the committed
// vector.
type Scheme interface {
	Commit(values []fr.Element) Commitment
	Open(t *transcript.Transcript, c Commitment, values []fr.Element, weights [][]fr.Element, sums []fr.Element) (Proof, error)
	Verify(t *transcript.Transcript, c Commitment, weights [][]fr.Element, sums []fr.Element, p Proof) error
}

// WeightedSum computes the inner product of weights and values. The slices
// must have equal length; schemes validate claim shapes before summing.
func WeightedSum(weights, values []fr.Element) fr.Element {
	if len(weights) != len(values) {
		panic("pcs: weighted sum over mismatched lengths")
	}
	var sum, term fr.Element
	for i := range weights {
		term.Mul(&weights[i], &values[i])
		sum.Add(&sum, &term)
	}
	return sum
}

// RawScheme is the transparent commitment: the committed vector travels in
// the clear and the root is a MiMC hash binding it. It has no succinctness,
// only binding, and serves as the baseline instantiation and the test
// vehicle for the protocol.
type RawScheme struct{}

func (RawScheme) Commit(values []fr.Element) Commitment {
	return Commitment{Root: hashValues(values), Values: values}
}

// Open checks the claims against the vector and returns an empty proof.
// A mismatch here means a prover-side bug, not a soundness event.
func (RawScheme) Open(t *transcript.Transcript, c Commitment, values []fr.Element, weights [][]fr.Element, sums []fr.Element) (Proof, error) {
	for j := range weights {
		if len(weights[j]) != len(values) {
			return Proof{}, fmt.Errorf("%w: claim %d has %d weights for %d values", ErrLengthMismatch, j, len(weights[j]), len(values))
		}
		got := WeightedSum(weights[j], values)
		if !got.Equal(&sums[j]) {
			return Proof{}, fmt.Errorf("%w: claim %d", ErrEvaluationMismatch, j)
		}
	}
	return Proof{}, nil
}

func (RawScheme) Verify(t *transcript.Transcript, c Commitment, weights [][]fr.Element, sums []fr.Element, p Proof) error {
	root := hashValues(c.Values)
	if !root.Equal(&c.Root) {
		return ErrCommitmentMismatch
	}
	if len(weights) != len(sums) {
		return fmt.Errorf("%w: %d weight vectors against %d sums", ErrEvaluationMismatch, len(weights), len(sums))
	}
	for j := range weights {
		if len(weights[j]) != len(c.Values) {
			return fmt.Errorf("%w: claim %d has %d weights for %d values", ErrLengthMismatch, j, len(weights[j]), len(c.Values))
		}
		got := WeightedSum(weights[j], c.Values)
		if !got.Equal(&sums[j]) {
			return fmt.Errorf("%w: claim %d", ErrEvaluationMismatch, j)
		}
	}
	return nil
}

func hashValues(values []fr.Element) fr.Element {
	h := mimc.NewMiMC()
	var length fr.Element
	length.SetUint64(uint64(len(values)))
	buf := length.Bytes()
	_, _ = h.Write(buf[:])
	for i := range values {
		b := values[i].Bytes()
		_, _ = h.Write(b[:])
	}
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out
}

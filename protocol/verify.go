package protocol

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/worldfnd/noir-r1cs/pcs"
	"github.com/worldfnd/noir-r1cs/sumcheck"
	"github.com/worldfnd/noir-r1cs/transcript"
)

// Verify replays the transcript against the proof and rejects at the first
// inconsistency. publicInputs are the statement being proven, in the order
// the circuit declares them.
func (s *Scheme) Verify(cs pcs.Scheme, publicInputs []fr.Element, p *Proof) error {
	m0 := s.NumRounds()
	if len(publicInputs) != s.R1CS.NumPublicInputs ||
		len(p.Rounds) != m0 ||
		len(p.W1Sums) != 3 || len(p.W2Sums) != 3 {
		return &VerifyError{Kind: VerifyMalformedProof, Round: -1}
	}

	t := transcript.New(TranscriptLabel)
	t.Append(publicInputs...)
	t.Append(p.W1.Root)
	// The prover's second solving phase squeezes one challenge per challenge
	// builder; replay them to stay aligned.
	for i := s.NumChallenges(); i > 0; i-- {
		t.Challenge()
	}
	t.Append(p.W2.Root)
	t.Append(p.Blinding.Root)
	t.Append(p.BlindingSum)
	rho := t.Challenge()
	r := t.ChallengeVector(m0)

	var claim fr.Element
	claim.Mul(&rho, &p.BlindingSum)
	alphas := make([]fr.Element, 0, m0)
	for i, coeffs := range p.Rounds {
		if !sumcheck.CheckRound(claim, coeffs) {
			return &VerifyError{Kind: VerifyRoundMismatch, Round: i}
		}
		t.Append(coeffs[0], coeffs[1], coeffs[2], coeffs[3])
		alpha := t.Challenge()
		claim = sumcheck.EvalCubic(coeffs, alpha)
		alphas = append(alphas, alpha)
	}
	t.Append(p.VA, p.VB, p.VC, p.VG)

	// Terminal identity: the surviving claim must equal
	// eq(r, alpha)*(vA*vB - vC) + rho*vG.
	eqRA := sumcheck.EvalEqPoint(r, alphas)
	var want, term fr.Element
	want.Mul(&p.VA, &p.VB)
	want.Sub(&want, &p.VC)
	want.Mul(&want, &eqRA)
	term.Mul(&rho, &p.VG)
	want.Add(&want, &term)
	if !claim.Equal(&want) {
		return &VerifyError{Kind: VerifyTerminalMismatch, Round: -1}
	}

	// Each matrix evaluation splits across the two phase openings.
	evals := [3]fr.Element{p.VA, p.VB, p.VC}
	for j := range evals {
		var sum fr.Element
		sum.Add(&p.W1Sums[j], &p.W2Sums[j])
		if !sum.Equal(&evals[j]) {
			return &VerifyError{Kind: VerifyClaimSplit, Round: -1}
		}
	}

	ar, br, cr := sumcheck.ExternalRows(alphas, s.R1CS)
	k := s.W1Witnesses
	if err := cs.Verify(t, p.W1, [][]fr.Element{ar[:k], br[:k], cr[:k]}, p.W1Sums, p.W1Opening); err != nil {
		return &VerifyError{Kind: VerifyPCSRejected, Round: -1, Err: err}
	}
	if err := cs.Verify(t, p.W2, [][]fr.Element{ar[k:], br[k:], cr[k:]}, p.W2Sums, p.W2Opening); err != nil {
		return &VerifyError{Kind: VerifyPCSRejected, Round: -1, Err: err}
	}
	ones := make([]fr.Element, 1<<m0)
	for i := range ones {
		ones[i].SetOne()
	}
	gWeights := [][]fr.Element{ones, sumcheck.EqEvals(alphas)}
	gSums := []fr.Element{p.BlindingSum, p.VG}
	if err := cs.Verify(t, p.Blinding, gWeights, gSums, p.BlindingOpening); err != nil {
		return &VerifyError{Kind: VerifyPCSRejected, Round: -1, Err: err}
	}

	// When the scheme ships the first-phase vector in the clear, its prefix
	// must be the constant one followed by the public inputs.
	if vals := p.W1.Values; len(vals) > 0 {
		if len(vals) < 1+len(publicInputs) || !vals[0].IsOne() {
			return &VerifyError{Kind: VerifyPublicInputs, Round: -1}
		}
		for i := range publicInputs {
			if !vals[1+i].Equal(&publicInputs[i]) {
				return &VerifyError{Kind: VerifyPublicInputs, Round: -1}
			}
		}
	}
	return nil
}

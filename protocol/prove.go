package protocol

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/worldfnd/noir-r1cs/acir"
	"github.com/worldfnd/noir-r1cs/field"
	"github.com/worldfnd/noir-r1cs/pcs"
	"github.com/worldfnd/noir-r1cs/solver"
	"github.com/worldfnd/noir-r1cs/sumcheck"
	"github.com/worldfnd/noir-r1cs/transcript"
)

// TranscriptLabel is the domain separator seeding every proof transcript.
const TranscriptLabel = "noir-r1cs-spartan-v1"

// Proof is a complete argument of knowledge of a satisfying witness. The
// sumcheck runs over the constraint hypercube blinded by a random
// multilinear; the final evaluations are settled through the commitment
// openings.
type Proof struct {
	W1       pcs.Commitment
	W2       pcs.Commitment
	Blinding pcs.Commitment

	// BlindingSum is the claimed hypercube sum of the blinding multilinear;
	// it seeds the running sumcheck claim.
	BlindingSum fr.Element

	Rounds [][4]fr.Element

	// Folded evaluations of A*z, B*z, (A*z)o(B*z) and the blinding at the
	// sumcheck point.
	VA, VB, VC, VG fr.Element

	// Per-phase parts of the weighted openings, one per matrix; the two
	// parts of each claim must add up to the matching evaluation.
	W1Sums []fr.Element
	W2Sums []fr.Element

	W1Opening       pcs.Proof
	W2Opening       pcs.Proof
	BlindingOpening pcs.Proof
}

// NumRounds is the number of sumcheck rounds, the log of the padded
// constraint count.
func (s *Scheme) NumRounds() int {
	return field.CeilLog2(s.R1CS.NumConstraints())
}

// Prove solves the witness in two phases, commits each phase, and runs the
// blinded cubic sumcheck down to commitment openings.
func (s *Scheme) Prove(cs pcs.Scheme, witness acir.WitnessMap) (*Proof, error) {
	pub, err := s.PublicValues(witness)
	if err != nil {
		return nil, err
	}
	t := transcript.New(TranscriptLabel)
	t.Append(pub...)

	// Phase one: everything solvable before any challenge exists.
	z := make([]fr.Element, s.R1CS.NumWitnesses())
	solv := solver.New(s.Builders)
	if err := solv.SolveLayers(z, s.W1Layers, t, witness); err != nil {
		return nil, &ProveError{Kind: ProveSolveFailed, Err: err}
	}
	w1 := append([]fr.Element(nil), z[:s.W1Witnesses]...)
	c1 := cs.Commit(w1)
	t.Append(c1.Root)

	// Phase two: challenge-dependent witnesses.
	if err := solv.SolveLayers(z, s.W2Layers, t, witness); err != nil {
		return nil, &ProveError{Kind: ProveSolveFailed, Err: err}
	}
	w2 := append([]fr.Element(nil), z[s.W1Witnesses:]...)
	c2 := cs.Commit(w2)
	t.Append(c2.Root)

	if err := s.R1CS.VerifyWitness(z); err != nil {
		return nil, &ProveError{Kind: ProveUnsatisfied, Err: err}
	}

	a, b, c := sumcheck.WitnessBounds(s.R1CS, z)
	m0 := s.NumRounds()

	// Blinding multilinear over the same hypercube.
	g := make([]fr.Element, len(a))
	var gSum fr.Element
	for i := range g {
		if _, err := g[i].SetRandom(); err != nil {
			return nil, &ProveError{Kind: ProveCommitFailed, Detail: "sampling blinding", Err: err}
		}
		gSum.Add(&gSum, &g[i])
	}
	gOrig := append([]fr.Element(nil), g...)
	cg := cs.Commit(gOrig)
	t.Append(cg.Root)
	t.Append(gSum)
	rho := t.Challenge()
	r := t.ChallengeVector(m0)

	eq := sumcheck.EqEvals(r)
	var claim fr.Element
	claim.Mul(&rho, &gSum)

	rounds := make([][4]fr.Element, 0, m0)
	alphas := make([]fr.Element, 0, m0)
	for i := 0; i < m0; i++ {
		f0, fm1, finf := sumcheck.RoundEvals(eq, a, b, c, g, rho)
		coeffs := sumcheck.CubicFromEvals(claim, f0, fm1, finf)
		t.Append(coeffs[0], coeffs[1], coeffs[2], coeffs[3])
		alpha := t.Challenge()
		claim = sumcheck.EvalCubic(coeffs, alpha)
		eq = sumcheck.Fold(eq, alpha)
		a = sumcheck.Fold(a, alpha)
		b = sumcheck.Fold(b, alpha)
		c = sumcheck.Fold(c, alpha)
		g = sumcheck.Fold(g, alpha)
		rounds = append(rounds, coeffs)
		alphas = append(alphas, alpha)
	}
	vA, vB, vC, vG := a[0], b[0], c[0], g[0]
	t.Append(vA, vB, vC, vG)

	// Settle vA, vB, vC against the two witness commitments and vG plus the
	// claimed sum against the blinding commitment.
	ar, br, cr := sumcheck.ExternalRows(alphas, s.R1CS)
	k := s.W1Witnesses
	w1Weights := [][]fr.Element{ar[:k], br[:k], cr[:k]}
	w2Weights := [][]fr.Element{ar[k:], br[k:], cr[k:]}
	w1Sums := make([]fr.Element, 3)
	w2Sums := make([]fr.Element, 3)
	for j := 0; j < 3; j++ {
		w1Sums[j] = pcs.WeightedSum(w1Weights[j], w1)
		w2Sums[j] = pcs.WeightedSum(w2Weights[j], w2)
	}

	o1, err := cs.Open(t, c1, w1, w1Weights, w1Sums)
	if err != nil {
		return nil, &ProveError{Kind: ProveCommitFailed, Err: err}
	}
	o2, err := cs.Open(t, c2, w2, w2Weights, w2Sums)
	if err != nil {
		return nil, &ProveError{Kind: ProveCommitFailed, Err: err}
	}
	ones := make([]fr.Element, 1<<m0)
	for i := range ones {
		ones[i].SetOne()
	}
	gWeights := [][]fr.Element{ones, sumcheck.EqEvals(alphas)}
	og, err := cs.Open(t, cg, gOrig, gWeights, []fr.Element{gSum, vG})
	if err != nil {
		return nil, &ProveError{Kind: ProveCommitFailed, Err: err}
	}

	return &Proof{
		W1:              c1,
		W2:              c2,
		Blinding:        cg,
		BlindingSum:     gSum,
		Rounds:          rounds,
		VA:              vA,
		VB:              vB,
		VC:              vC,
		VG:              vG,
		W1Sums:          w1Sums,
		W2Sums:          w2Sums,
		W1Opening:       o1,
		W2Opening:       o2,
		BlindingOpening: og,
	}, nil
}

package protocol

import "fmt"

// ProveErrorKind classifies prover failures.
type ProveErrorKind int

const (
	ProveMissingInput ProveErrorKind = iota + 1
	ProveSolveFailed
	ProveUnsatisfied
	ProveCommitFailed
)

func (k ProveErrorKind) String() string {
	switch k {
	case ProveMissingInput:
		return "missing input"
	case ProveSolveFailed:
		return "witness solving failed"
	case ProveUnsatisfied:
		return "solved witness does not satisfy the constraints"
	case ProveCommitFailed:
		return "commitment opening failed"
	default:
		return "unknown"
	}
}

// ProveError reports a prover failure, optionally wrapping the cause.
type ProveError struct {
	Kind   ProveErrorKind
	Detail string
	Err    error
}

func (e *ProveError) Error() string {
	msg := fmt.Sprintf("prove: %s", e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProveError) Unwrap() error { return e.Err }

// VerifyErrorKind classifies verifier rejections.
type VerifyErrorKind int

const (
	// VerifyMalformedProof means the proof does not even have the right
	// shape for this scheme.
	VerifyMalformedProof VerifyErrorKind = iota + 1
	// VerifyRoundMismatch means a sumcheck round polynomial is inconsistent
	// with the running claim.
	VerifyRoundMismatch
	// VerifyTerminalMismatch means the final sumcheck claim does not match
	// the evaluations the prover sent.
	VerifyTerminalMismatch
	// VerifyClaimSplit means the two phase openings do not add up to a
	// claimed evaluation.
	VerifyClaimSplit
	// VerifyPublicInputs means the first commitment does not start with the
	// constant one followed by the public inputs.
	VerifyPublicInputs
	// VerifyPCSRejected means a polynomial commitment opening failed.
	VerifyPCSRejected
)

func (k VerifyErrorKind) String() string {
	switch k {
	case VerifyMalformedProof:
		return "malformed proof"
	case VerifyRoundMismatch:
		return "sumcheck round mismatch"
	case VerifyTerminalMismatch:
		return "terminal claim mismatch"
	case VerifyClaimSplit:
		return "phase openings do not sum to the claimed evaluation"
	case VerifyPublicInputs:
		return "public input prefix mismatch"
	case VerifyPCSRejected:
		return "commitment opening rejected"
	default:
		return "unknown"
	}
}

// VerifyError reports why a proof was rejected. Round is the failing
// sumcheck round for VerifyRoundMismatch, -1 otherwise.
type VerifyError struct {
	Kind  VerifyErrorKind
	Round int
	Err   error
}

func (e *VerifyError) Error() string {
	msg := fmt.Sprintf("verify: %s", e.Kind)
	if e.Kind == VerifyRoundMismatch {
		msg = fmt.Sprintf("verify: %s in round %d", e.Kind, e.Round)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *VerifyError) Unwrap() error { return e.Err }

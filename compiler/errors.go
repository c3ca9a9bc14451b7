package compiler

import "fmt"

// CompileErrorKind classifies compilation failures.
type CompileErrorKind int

const (
	ErrUnsupportedOpcode CompileErrorKind = iota + 1
	ErrMalformedExpression
	ErrRangeBitsTooLarge
	ErrInconsistentMemoryBlock
)

func (k CompileErrorKind) String() string {
	switch k {
	case ErrUnsupportedOpcode:
		return "unsupported opcode"
	case ErrMalformedExpression:
		return "malformed expression"
	case ErrRangeBitsTooLarge:
		return "range bits too large"
	case ErrInconsistentMemoryBlock:
		return "inconsistent memory block"
	default:
		return "unknown"
	}
}

// CompileError aborts compilation immediately; there is no recovery.
type CompileError struct {
	Kind   CompileErrorKind
	Detail string
}

func (e *CompileError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("compile: %s", e.Kind)
	}
	return fmt.Sprintf("compile: %s: %s", e.Kind, e.Detail)
}

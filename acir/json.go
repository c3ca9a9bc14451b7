package acir

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// JSON input form of a circuit and its witness assignment. Field constants
// are decimal or 0x-prefixed strings; negative values are reduced into the
// field.

type linearTermJSON struct {
	Coeff   string  `json:"coeff"`
	Witness Witness `json:"witness"`
}

type mulTermJSON struct {
	Coeff string  `json:"coeff"`
	A     Witness `json:"a"`
	B     Witness `json:"b"`
}

type expressionJSON struct {
	QC     string           `json:"qc,omitempty"`
	Linear []linearTermJSON `json:"linear,omitempty"`
	Mul    []mulTermJSON    `json:"mul,omitempty"`
}

type opcodeJSON struct {
	Kind string          `json:"kind"`
	Expr *expressionJSON `json:"expr,omitempty"`

	Input Witness `json:"input,omitempty"`
	Bits  int     `json:"bits,omitempty"`

	Lhs    Witness `json:"lhs,omitempty"`
	Rhs    Witness `json:"rhs,omitempty"`
	Output Witness `json:"output,omitempty"`

	Block    int       `json:"block,omitempty"`
	Init     []Witness `json:"init,omitempty"`
	ReadOnly bool      `json:"read_only,omitempty"`

	Access string  `json:"access,omitempty"`
	Addr   Witness `json:"addr,omitempty"`
	Value  Witness `json:"value,omitempty"`

	Name string `json:"name,omitempty"`
}

type circuitJSON struct {
	NumWitnesses int          `json:"num_witnesses"`
	PublicInputs []Witness    `json:"public_inputs,omitempty"`
	Opcodes      []opcodeJSON `json:"opcodes"`
}

func parseElement(s string) (fr.Element, error) {
	var e fr.Element
	if s == "" {
		return e, nil
	}
	b, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return e, fmt.Errorf("acir: invalid field constant %q", s)
	}
	e.SetBigInt(b)
	return e, nil
}

// ParseCircuitJSON decodes the JSON circuit form.
func ParseCircuitJSON(data []byte) (*Circuit, error) {
	var cj circuitJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return nil, err
	}
	c := &Circuit{
		NumWitnesses: cj.NumWitnesses,
		PublicInputs: cj.PublicInputs,
	}
	for i, oj := range cj.Opcodes {
		op, err := parseOpcode(&oj)
		if err != nil {
			return nil, fmt.Errorf("acir: opcode %d: %w", i, err)
		}
		c.Opcodes = append(c.Opcodes, op)
	}
	return c, nil
}

func parseOpcode(oj *opcodeJSON) (Opcode, error) {
	var op Opcode
	switch oj.Kind {
	case "assert_zero":
		if oj.Expr == nil {
			return op, fmt.Errorf("assert_zero without expr")
		}
		expr := &Expression{}
		var err error
		if expr.QC, err = parseElement(oj.Expr.QC); err != nil {
			return op, err
		}
		for _, lt := range oj.Expr.Linear {
			coeff, err := parseElement(lt.Coeff)
			if err != nil {
				return op, err
			}
			expr.Linear = append(expr.Linear, LinearTerm{Coeff: coeff, W: lt.Witness})
		}
		for _, mt := range oj.Expr.Mul {
			coeff, err := parseElement(mt.Coeff)
			if err != nil {
				return op, err
			}
			expr.Mul = append(expr.Mul, MulTerm{Coeff: coeff, A: mt.A, B: mt.B})
		}
		op = Opcode{Kind: OpAssertZero, Expr: expr}
	case "range":
		op = Opcode{Kind: OpRange, Input: oj.Input, Bits: oj.Bits}
	case "and":
		op = Opcode{Kind: OpAnd, Bits: oj.Bits, Lhs: oj.Lhs, Rhs: oj.Rhs, Output: oj.Output}
	case "xor":
		op = Opcode{Kind: OpXor, Bits: oj.Bits, Lhs: oj.Lhs, Rhs: oj.Rhs, Output: oj.Output}
	case "memory_init":
		op = Opcode{Kind: OpMemoryInit, BlockID: oj.Block, Init: oj.Init, ReadOnly: oj.ReadOnly}
	case "memory_op":
		var access MemAccessKind
		switch oj.Access {
		case "read":
			access = MemRead
		case "write":
			access = MemWrite
		default:
			return op, fmt.Errorf("unknown memory access %q", oj.Access)
		}
		op = Opcode{Kind: OpMemoryOp, BlockID: oj.Block, Access: access, Addr: oj.Addr, Value: oj.Value}
	case "brillig_call":
		op = Opcode{Kind: OpBrilligCall, Name: oj.Name}
	case "black_box":
		op = Opcode{Kind: OpBlackBox, Name: oj.Name}
	default:
		return op, fmt.Errorf("unknown opcode kind %q", oj.Kind)
	}
	return op, nil
}

// ParseWitnessJSON decodes a witness assignment: an object keyed by witness
// index with field-constant values.
func ParseWitnessJSON(data []byte) (WitnessMap, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	w := make(WitnessMap, len(raw))
	for k, v := range raw {
		idx, err := strconv.ParseUint(k, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("acir: invalid witness index %q", k)
		}
		e, err := parseElement(v)
		if err != nil {
			return nil, err
		}
		w[Witness(idx)] = e
	}
	return w, nil
}

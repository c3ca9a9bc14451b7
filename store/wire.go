package store

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/worldfnd/noir-r1cs/acir"
	"github.com/worldfnd/noir-r1cs/field"
	"github.com/worldfnd/noir-r1cs/pcs"
	"github.com/worldfnd/noir-r1cs/protocol"
	"github.com/worldfnd/noir-r1cs/r1cs"
	"github.com/worldfnd/noir-r1cs/sched"
	"github.com/worldfnd/noir-r1cs/utils"
)

// Wire mirrors of the in-memory types. Field elements travel as canonical
// 32-byte little-endian strings, vectors of them as one concatenated string.

func packElem(e fr.Element) []byte {
	b := field.ToLEBytes(e)
	return b[:]
}

func unpackElem(b []byte) (fr.Element, error) {
	return field.FromLEBytes(b)
}

func packElems(vs []fr.Element) []byte {
	var o utils.OutputBuf
	o.AppendElements(vs)
	return o.Bytes()
}

func unpackElems(b []byte) ([]fr.Element, error) {
	if len(b)%field.Bytes != 0 {
		return nil, fmt.Errorf("store: element payload of %d bytes", len(b))
	}
	i := utils.NewInputBuf(b)
	out := i.ReadElements(len(b) / field.Bytes)
	return out, i.Finish()
}

type matrixWire struct {
	NumRows   int      `json:"num_rows"`
	NumCols   int      `json:"num_cols"`
	RowStarts []uint32 `json:"row_starts"`
	Cols      []uint32 `json:"cols"`
	Values    []uint32 `json:"values"`
}

func matrixToWire(m *r1cs.SparseMatrix) matrixWire {
	values := make([]uint32, len(m.Values))
	for i, v := range m.Values {
		values[i] = uint32(v)
	}
	return matrixWire{
		NumRows:   m.NumRows,
		NumCols:   m.NumCols,
		RowStarts: m.RowStarts,
		Cols:      m.Cols,
		Values:    values,
	}
}

func matrixFromWire(w matrixWire, interned int) (*r1cs.SparseMatrix, error) {
	if len(w.RowStarts) != w.NumRows || len(w.Cols) != len(w.Values) {
		return nil, fmt.Errorf("store: inconsistent matrix shape")
	}
	values := make([]r1cs.InternedElement, len(w.Values))
	for i, v := range w.Values {
		if int(v) >= interned {
			return nil, fmt.Errorf("store: interned handle %d out of range", v)
		}
		values[i] = r1cs.InternedElement(v)
	}
	for _, c := range w.Cols {
		if int(c) >= w.NumCols {
			return nil, fmt.Errorf("store: column %d out of range", c)
		}
	}
	return &r1cs.SparseMatrix{
		NumRows:   w.NumRows,
		NumCols:   w.NumCols,
		RowStarts: w.RowStarts,
		Cols:      w.Cols,
		Values:    values,
	}, nil
}

type operandWire struct {
	IsConst  bool   `json:"is_const,omitempty"`
	Constant []byte `json:"constant,omitempty"`
	Witness  int    `json:"witness,omitempty"`
}

func operandToWire(op r1cs.Operand) operandWire {
	w := operandWire{IsConst: op.IsConst, Witness: op.Witness}
	if op.IsConst {
		w.Constant = packElem(op.Constant)
	}
	return w
}

func operandFromWire(w operandWire) (r1cs.Operand, error) {
	op := r1cs.Operand{IsConst: w.IsConst, Witness: w.Witness}
	if w.IsConst {
		var err error
		op.Constant, err = unpackElem(w.Constant)
		if err != nil {
			return op, err
		}
	}
	return op, nil
}

type coeffWitnessWire struct {
	Coeff   []byte `json:"coeff"`
	Witness int    `json:"witness"`
}

type ddWire struct {
	LogBases     []int `json:"log_bases"`
	Witnesses    []int `json:"witnesses"`
	FirstWitness int   `json:"first_witness"`
}

type spiceOpWire struct {
	Kind          int `json:"kind"`
	Addr          int `json:"addr"`
	Value         int `json:"value"`
	OldValue      int `json:"old_value"`
	ReadTimestamp int `json:"read_timestamp"`
}

type spiceWire struct {
	MemoryLength  int           `json:"memory_length"`
	InitialValues []int         `json:"initial_values"`
	Operations    []spiceOpWire `json:"operations"`
	FirstWitness  int           `json:"first_witness"`
	RvFinalFirst  int           `json:"rv_final_first"`
	RtFinalFirst  int           `json:"rt_final_first"`
}

type pairWire struct {
	Lhs operandWire `json:"lhs"`
	Rhs operandWire `json:"rhs"`
}

type builderWire struct {
	Type      int    `json:"type"`
	Index     int    `json:"index"`
	Value     []byte `json:"value,omitempty"`
	AcirIndex int    `json:"acir_index,omitempty"`

	Terms []coeffWitnessWire `json:"terms,omitempty"`

	A int `json:"a,omitempty"`
	B int `json:"b,omitempty"`

	LinA []byte `json:"lin_a,omitempty"`
	LinB []byte `json:"lin_b,omitempty"`
	LinC []byte `json:"lin_c,omitempty"`
	LinD []byte `json:"lin_d,omitempty"`

	Sz        int `json:"sz,omitempty"`
	Rs        int `json:"rs,omitempty"`
	RsSquared int `json:"rs_squared,omitempty"`
	RsCubed   int `json:"rs_cubed,omitempty"`

	Coeff []byte `json:"coeff,omitempty"`

	RangeSize int   `json:"range_size,omitempty"`
	Witnesses []int `json:"witnesses,omitempty"`

	Decomposition *ddWire    `json:"decomposition,omitempty"`
	Spice         *spiceWire `json:"spice,omitempty"`

	Addr coeffWitnessWire `json:"addr,omitempty"`
	Time coeffWitnessWire `json:"time,omitempty"`

	Lhs   operandWire `json:"lhs,omitempty"`
	Rhs   operandWire `json:"rhs,omitempty"`
	AndOp operandWire `json:"and_op,omitempty"`
	XorOp operandWire `json:"xor_op,omitempty"`

	Pairs []pairWire `json:"pairs,omitempty"`
}

func builderToWire(b r1cs.WitnessBuilder) builderWire {
	w := builderWire{
		Type:      int(b.Type),
		Index:     b.Index,
		Value:     packElem(b.Value),
		AcirIndex: b.AcirIndex,
		A:         b.A,
		B:         b.B,
		LinA:      packElem(b.LinA),
		LinB:      packElem(b.LinB),
		LinC:      packElem(b.LinC),
		LinD:      packElem(b.LinD),
		Sz:        b.Sz,
		Rs:        b.Rs,
		RsSquared: b.RsSquared,
		RsCubed:   b.RsCubed,
		Coeff:     packElem(b.Coeff),
		RangeSize: b.RangeSize,
		Witnesses: b.Witnesses,
		Addr:      coeffWitnessWire{Coeff: packElem(b.Addr.Coeff), Witness: b.Addr.Witness},
		Time:      coeffWitnessWire{Coeff: packElem(b.Time.Coeff), Witness: b.Time.Witness},
		Lhs:       operandToWire(b.Lhs),
		Rhs:       operandToWire(b.Rhs),
		AndOp:     operandToWire(b.AndOp),
		XorOp:     operandToWire(b.XorOp),
	}
	for _, t := range b.Terms {
		w.Terms = append(w.Terms, coeffWitnessWire{Coeff: packElem(t.Coeff), Witness: t.Witness})
	}
	if b.Decomposition != nil {
		w.Decomposition = &ddWire{
			LogBases:     b.Decomposition.LogBases,
			Witnesses:    b.Decomposition.Witnesses,
			FirstWitness: b.Decomposition.FirstWitness,
		}
	}
	if b.Spice != nil {
		sp := &spiceWire{
			MemoryLength:  b.Spice.MemoryLength,
			InitialValues: b.Spice.InitialValues,
			FirstWitness:  b.Spice.FirstWitness,
			RvFinalFirst:  b.Spice.RvFinalFirst,
			RtFinalFirst:  b.Spice.RtFinalFirst,
		}
		for _, op := range b.Spice.Operations {
			sp.Operations = append(sp.Operations, spiceOpWire{
				Kind:          int(op.Kind),
				Addr:          op.Addr,
				Value:         op.Value,
				OldValue:      op.OldValue,
				ReadTimestamp: op.ReadTimestamp,
			})
		}
		w.Spice = sp
	}
	for _, p := range b.Pairs {
		w.Pairs = append(w.Pairs, pairWire{Lhs: operandToWire(p.Lhs), Rhs: operandToWire(p.Rhs)})
	}
	return w
}

func builderFromWire(w builderWire) (r1cs.WitnessBuilder, error) {
	b := r1cs.WitnessBuilder{
		Type:      r1cs.BuilderType(w.Type),
		Index:     w.Index,
		AcirIndex: w.AcirIndex,
		A:         w.A,
		B:         w.B,
		Sz:        w.Sz,
		Rs:        w.Rs,
		RsSquared: w.RsSquared,
		RsCubed:   w.RsCubed,
		RangeSize: w.RangeSize,
		Witnesses: w.Witnesses,
	}
	var err error
	if b.Value, err = unpackElem(w.Value); err != nil {
		return b, err
	}
	if b.LinA, err = unpackElem(w.LinA); err != nil {
		return b, err
	}
	if b.LinB, err = unpackElem(w.LinB); err != nil {
		return b, err
	}
	if b.LinC, err = unpackElem(w.LinC); err != nil {
		return b, err
	}
	if b.LinD, err = unpackElem(w.LinD); err != nil {
		return b, err
	}
	if b.Coeff, err = unpackElem(w.Coeff); err != nil {
		return b, err
	}
	for _, t := range w.Terms {
		coeff, err := unpackElem(t.Coeff)
		if err != nil {
			return b, err
		}
		b.Terms = append(b.Terms, r1cs.SumTerm{Coeff: coeff, Witness: t.Witness})
	}
	if b.Addr.Coeff, err = unpackElem(w.Addr.Coeff); err != nil {
		return b, err
	}
	b.Addr.Witness = w.Addr.Witness
	if b.Time.Coeff, err = unpackElem(w.Time.Coeff); err != nil {
		return b, err
	}
	b.Time.Witness = w.Time.Witness
	if w.Decomposition != nil {
		b.Decomposition = &r1cs.DigitalDecomposition{
			LogBases:     w.Decomposition.LogBases,
			Witnesses:    w.Decomposition.Witnesses,
			FirstWitness: w.Decomposition.FirstWitness,
		}
	}
	if w.Spice != nil {
		sp := &r1cs.SpiceWitnesses{
			MemoryLength:  w.Spice.MemoryLength,
			InitialValues: w.Spice.InitialValues,
			FirstWitness:  w.Spice.FirstWitness,
			RvFinalFirst:  w.Spice.RvFinalFirst,
			RtFinalFirst:  w.Spice.RtFinalFirst,
		}
		for _, op := range w.Spice.Operations {
			sp.Operations = append(sp.Operations, r1cs.SpiceOp{
				Kind:          r1cs.MemOpKind(op.Kind),
				Addr:          op.Addr,
				Value:         op.Value,
				OldValue:      op.OldValue,
				ReadTimestamp: op.ReadTimestamp,
			})
		}
		b.Spice = sp
	}
	if b.Lhs, err = operandFromWire(w.Lhs); err != nil {
		return b, err
	}
	if b.Rhs, err = operandFromWire(w.Rhs); err != nil {
		return b, err
	}
	if b.AndOp, err = operandFromWire(w.AndOp); err != nil {
		return b, err
	}
	if b.XorOp, err = operandFromWire(w.XorOp); err != nil {
		return b, err
	}
	for _, p := range w.Pairs {
		lhs, err := operandFromWire(p.Lhs)
		if err != nil {
			return b, err
		}
		rhs, err := operandFromWire(p.Rhs)
		if err != nil {
			return b, err
		}
		b.Pairs = append(b.Pairs, r1cs.BinOpPair{Lhs: lhs, Rhs: rhs})
	}
	return b, nil
}

type layerWire struct {
	Kind     int   `json:"kind"`
	Builders []int `json:"builders"`
}

func layersToWire(layers []sched.Layer) []layerWire {
	out := make([]layerWire, len(layers))
	for i, l := range layers {
		out[i] = layerWire{Kind: int(l.Kind), Builders: l.Builders}
	}
	return out
}

func layersFromWire(ws []layerWire) []sched.Layer {
	out := make([]sched.Layer, len(ws))
	for i, w := range ws {
		out[i] = sched.Layer{Kind: sched.LayerKind(w.Kind), Builders: w.Builders}
	}
	return out
}

type schemeWire struct {
	NumPublicInputs int            `json:"num_public_inputs"`
	Interner        []byte         `json:"interner"`
	A               matrixWire     `json:"a"`
	B               matrixWire     `json:"b"`
	C               matrixWire     `json:"c"`
	Builders        []builderWire  `json:"builders"`
	W1Witnesses     int            `json:"w1_witnesses"`
	W1Layers        []layerWire    `json:"w1_layers"`
	W2Layers        []layerWire    `json:"w2_layers"`
	PublicInputs    []uint32       `json:"public_inputs"`
	AcirMap         map[uint32]int `json:"acir_map"`
}

func schemeToWire(s *protocol.Scheme) schemeWire {
	w := schemeWire{
		NumPublicInputs: s.R1CS.NumPublicInputs,
		Interner:        packElems(s.R1CS.Interner.Values()),
		A:               matrixToWire(s.R1CS.A),
		B:               matrixToWire(s.R1CS.B),
		C:               matrixToWire(s.R1CS.C),
		W1Witnesses:     s.W1Witnesses,
		W1Layers:        layersToWire(s.W1Layers),
		W2Layers:        layersToWire(s.W2Layers),
		AcirMap:         make(map[uint32]int, len(s.AcirMap)),
	}
	for _, b := range s.Builders {
		w.Builders = append(w.Builders, builderToWire(b))
	}
	for _, p := range s.PublicInputs {
		w.PublicInputs = append(w.PublicInputs, uint32(p))
	}
	for a, idx := range s.AcirMap {
		w.AcirMap[uint32(a)] = idx
	}
	return w
}

func schemeFromWire(w schemeWire) (*protocol.Scheme, error) {
	values, err := unpackElems(w.Interner)
	if err != nil {
		return nil, err
	}
	interner, err := r1cs.RestoreInterner(values)
	if err != nil {
		return nil, err
	}
	a, err := matrixFromWire(w.A, interner.Len())
	if err != nil {
		return nil, err
	}
	b, err := matrixFromWire(w.B, interner.Len())
	if err != nil {
		return nil, err
	}
	c, err := matrixFromWire(w.C, interner.Len())
	if err != nil {
		return nil, err
	}
	s := &protocol.Scheme{
		R1CS: &r1cs.R1CS{
			NumPublicInputs: w.NumPublicInputs,
			Interner:        interner,
			A:               a,
			B:               b,
			C:               c,
		},
		W1Witnesses: w.W1Witnesses,
		W1Layers:    layersFromWire(w.W1Layers),
		W2Layers:    layersFromWire(w.W2Layers),
		AcirMap:     make(map[acir.Witness]int, len(w.AcirMap)),
	}
	for _, bw := range w.Builders {
		builder, err := builderFromWire(bw)
		if err != nil {
			return nil, err
		}
		s.Builders = append(s.Builders, builder)
	}
	for _, p := range w.PublicInputs {
		s.PublicInputs = append(s.PublicInputs, acir.Witness(p))
	}
	for aw, idx := range w.AcirMap {
		s.AcirMap[acir.Witness(aw)] = idx
	}
	return s, nil
}

type commitmentWire struct {
	Root   []byte `json:"root"`
	Values []byte `json:"values,omitempty"`
}

func commitmentToWire(c pcs.Commitment) commitmentWire {
	return commitmentWire{Root: packElem(c.Root), Values: packElems(c.Values)}
}

func commitmentFromWire(w commitmentWire) (pcs.Commitment, error) {
	root, err := unpackElem(w.Root)
	if err != nil {
		return pcs.Commitment{}, err
	}
	values, err := unpackElems(w.Values)
	if err != nil {
		return pcs.Commitment{}, err
	}
	return pcs.Commitment{Root: root, Values: values}, nil
}

type proofWire struct {
	W1       commitmentWire `json:"w1"`
	W2       commitmentWire `json:"w2"`
	Blinding commitmentWire `json:"blinding"`

	BlindingSum []byte `json:"blinding_sum"`
	Rounds      []byte `json:"rounds"`

	VA []byte `json:"v_a"`
	VB []byte `json:"v_b"`
	VC []byte `json:"v_c"`
	VG []byte `json:"v_g"`

	W1Sums []byte `json:"w1_sums"`
	W2Sums []byte `json:"w2_sums"`

	W1Opening       []byte `json:"w1_opening,omitempty"`
	W2Opening       []byte `json:"w2_opening,omitempty"`
	BlindingOpening []byte `json:"blinding_opening,omitempty"`
}

func proofToWire(p *protocol.Proof) proofWire {
	var rounds utils.OutputBuf
	for _, r := range p.Rounds {
		rounds.AppendElements(r[:])
	}
	return proofWire{
		W1:              commitmentToWire(p.W1),
		W2:              commitmentToWire(p.W2),
		Blinding:        commitmentToWire(p.Blinding),
		BlindingSum:     packElem(p.BlindingSum),
		Rounds:          rounds.Bytes(),
		VA:              packElem(p.VA),
		VB:              packElem(p.VB),
		VC:              packElem(p.VC),
		VG:              packElem(p.VG),
		W1Sums:          packElems(p.W1Sums),
		W2Sums:          packElems(p.W2Sums),
		W1Opening:       packElems(p.W1Opening.Elements),
		W2Opening:       packElems(p.W2Opening.Elements),
		BlindingOpening: packElems(p.BlindingOpening.Elements),
	}
}

func proofFromWire(w proofWire) (*protocol.Proof, error) {
	p := &protocol.Proof{}
	var err error
	if p.W1, err = commitmentFromWire(w.W1); err != nil {
		return nil, err
	}
	if p.W2, err = commitmentFromWire(w.W2); err != nil {
		return nil, err
	}
	if p.Blinding, err = commitmentFromWire(w.Blinding); err != nil {
		return nil, err
	}
	if p.BlindingSum, err = unpackElem(w.BlindingSum); err != nil {
		return nil, err
	}
	flat, err := unpackElems(w.Rounds)
	if err != nil {
		return nil, err
	}
	if len(flat)%4 != 0 {
		return nil, fmt.Errorf("store: round payload of %d elements", len(flat))
	}
	for i := 0; i+4 <= len(flat); i += 4 {
		var round [4]fr.Element
		copy(round[:], flat[i:i+4])
		p.Rounds = append(p.Rounds, round)
	}
	if p.VA, err = unpackElem(w.VA); err != nil {
		return nil, err
	}
	if p.VB, err = unpackElem(w.VB); err != nil {
		return nil, err
	}
	if p.VC, err = unpackElem(w.VC); err != nil {
		return nil, err
	}
	if p.VG, err = unpackElem(w.VG); err != nil {
		return nil, err
	}
	if p.W1Sums, err = unpackElems(w.W1Sums); err != nil {
		return nil, err
	}
	if p.W2Sums, err = unpackElems(w.W2Sums); err != nil {
		return nil, err
	}
	if p.W1Opening.Elements, err = unpackElems(w.W1Opening); err != nil {
		return nil, err
	}
	if p.W2Opening.Elements, err = unpackElems(w.W2Opening); err != nil {
		return nil, err
	}
	if p.BlindingOpening.Elements, err = unpackElems(w.BlindingOpening); err != nil {
		return nil, err
	}
	return p, nil
}

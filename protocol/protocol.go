// Package protocol ties the pipeline together: it compiles an ACIR circuit
// into a proving scheme (R1CS, witness builders, phase split and layered
// schedules) and runs the Spartan-style prover and verifier over it.
package protocol

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	"github.com/worldfnd/noir-r1cs/acir"
	"github.com/worldfnd/noir-r1cs/compiler"
	"github.com/worldfnd/noir-r1cs/r1cs"
	"github.com/worldfnd/noir-r1cs/sched"
)

// Scheme is everything the prover and verifier share about one circuit:
// the constraint system with witnesses renumbered into the two commitment
// phases, the builders in the new numbering, and the layered execution
// schedules for each phase.
type Scheme struct {
	R1CS     *r1cs.R1CS
	Builders []r1cs.WitnessBuilder

	// W1Witnesses is the split point: witnesses [0, W1Witnesses) belong to
	// the first commitment, the rest to the second.
	W1Witnesses int
	W1Layers    []sched.Layer
	W2Layers    []sched.Layer

	PublicInputs []acir.Witness
	AcirMap      map[acir.Witness]int
}

// Compile lowers the circuit and prepares the two-phase schedules. The
// returned scheme is deterministic in the circuit, so prover and verifier
// can derive it independently.
func Compile(circuit *acir.Circuit) (*Scheme, error) {
	res, err := compiler.Compile(circuit)
	if err != nil {
		return nil, err
	}
	dep, err := sched.Analyze(res.Builders, res.R1CS.NumWitnesses())
	if err != nil {
		return nil, err
	}
	w1, w2 := sched.Split(dep, res.Builders, res.R1CS.NumPublicInputs)
	remap, err := sched.NewRemap(res.Builders, w1, w2, res.R1CS.NumWitnesses())
	if err != nil {
		return nil, err
	}

	builders := make([]r1cs.WitnessBuilder, len(res.Builders))
	for i, b := range res.Builders {
		builders[i] = remap.Builder(b)
	}
	res.R1CS.RemapWitnesses(remap.Index)
	acirMap := make(map[acir.Witness]int, len(res.AcirMap))
	used := make(map[int]acir.Witness, len(res.AcirMap))
	for w, idx := range res.AcirMap {
		ri := remap.Index(idx)
		if ri <= 0 || ri >= res.R1CS.NumWitnesses() {
			return nil, fmt.Errorf("witness map entry %d lands on reserved or out-of-range index %d", w, ri)
		}
		if prev, dup := used[ri]; dup {
			return nil, fmt.Errorf("witness map entries %d and %d collide on index %d", prev, w, ri)
		}
		used[ri] = w
		acirMap[w] = ri
	}

	// The partitions are builder indices and survive the renumbering, but
	// the dependency graph has to be rebuilt over the remapped builders.
	dep, err = sched.Analyze(builders, res.R1CS.NumWitnesses())
	if err != nil {
		return nil, err
	}
	w1Layers, err := sched.Schedule(dep, builders, w1)
	if err != nil {
		return nil, err
	}
	w2Layers, err := sched.Schedule(dep, builders, w2)
	if err != nil {
		return nil, err
	}

	s := &Scheme{
		R1CS:         res.R1CS,
		Builders:     builders,
		W1Witnesses:  remap.W1Witnesses,
		W1Layers:     w1Layers,
		W2Layers:     w2Layers,
		PublicInputs: append([]acir.Witness(nil), circuit.PublicInputs...),
		AcirMap:      acirMap,
	}
	s.logStats()
	return s, nil
}

func (s *Scheme) logStats() {
	log := protocolLogger()
	log.Debug().
		Int("constraints", s.R1CS.NumConstraints()).
		Int("witnesses", s.R1CS.NumWitnesses()).
		Int("w1_witnesses", s.W1Witnesses).
		Int("w1_layers", len(s.W1Layers)).
		Int("w2_layers", len(s.W2Layers)).
		Msg("compiled scheme")
}

func protocolLogger() zerolog.Logger {
	return logger.Logger().With().Str("component", "protocol").Logger()
}

// NumChallenges counts the transcript challenges the second solving phase
// draws. The verifier squeezes the same number to stay aligned.
func (s *Scheme) NumChallenges() int {
	n := 0
	for i := range s.Builders {
		if s.Builders[i].Type == r1cs.BuilderChallenge {
			n++
		}
	}
	return n
}

// PublicValues extracts the public input values from an ACIR witness map,
// in declaration order.
func (s *Scheme) PublicValues(w acir.WitnessMap) ([]fr.Element, error) {
	out := make([]fr.Element, len(s.PublicInputs))
	for i, pw := range s.PublicInputs {
		v, ok := w[pw]
		if !ok {
			return nil, &ProveError{Kind: ProveMissingInput, Detail: "public input witness missing from assignment"}
		}
		out[i] = v
	}
	return out, nil
}

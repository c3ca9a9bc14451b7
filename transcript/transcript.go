// Package transcript implements the Fiat-Shamir sponge threading randomness
// from commitments to challenges. Prover and verifier must issue the exact
// same absorb/squeeze sequence; any divergence changes every later
// challenge.
package transcript

import (
	"encoding/binary"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// Transcript is a duplex sponge over the scalar field built on the MiMC
// field hasher. Absorbed elements are buffered and folded into the running
// state at the next squeeze.
type Transcript struct {
	state    fr.Element
	buffered []fr.Element
	count    uint64
}

// New creates a transcript seeded by a domain-separation label.
func New(label string) *Transcript {
	t := &Transcript{}
	h := mimc.NewMiMC()
	var pad [fr.Bytes]byte
	copy(pad[fr.Bytes-len(label):], []byte(label))
	_, _ = h.Write(pad[:])
	t.state.SetBytes(h.Sum(nil))
	return t
}

// Append absorbs field elements.
func (t *Transcript) Append(vs ...fr.Element) {
	t.buffered = append(t.buffered, vs...)
}

// Challenge squeezes one field element. The state absorbs everything
// buffered since the previous squeeze; squeezing twice in a row keeps
// ratcheting the state so consecutive challenges differ.
func (t *Transcript) Challenge() fr.Element {
	h := mimc.NewMiMC()
	buf := t.state.Bytes()
	_, _ = h.Write(buf[:])
	var cnt [fr.Bytes]byte
	binary.BigEndian.PutUint64(cnt[fr.Bytes-8:], t.count)
	_, _ = h.Write(cnt[:])
	for i := range t.buffered {
		b := t.buffered[i].Bytes()
		_, _ = h.Write(b[:])
	}
	t.buffered = t.buffered[:0]
	t.count++
	t.state.SetBytes(h.Sum(nil))
	return t.state
}

// ChallengeVector squeezes n field elements.
func (t *Transcript) ChallengeVector(n int) []fr.Element {
	out := make([]fr.Element, n)
	for i := range out {
		out[i] = t.Challenge()
	}
	return out
}

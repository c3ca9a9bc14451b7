package r1cs

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// InternedElement is a 32-bit handle into an Interner. Handle equality is
// value equality.
type InternedElement uint32

// Interner is an append-only store of field elements. It is populated during
// compilation and frozen before proving.
type Interner struct {
	values []fr.Element
	index  map[fr.Element]InternedElement
}

func NewInterner() *Interner {
	return &Interner{index: make(map[fr.Element]InternedElement)}
}

// Intern returns the handle for v, allocating one if v is new.
func (t *Interner) Intern(v fr.Element) InternedElement {
	if id, ok := t.index[v]; ok {
		return id
	}
	id := InternedElement(len(t.values))
	t.values = append(t.values, v)
	t.index[v] = id
	return id
}

// Get returns the value behind id. An unknown id is an internal invariant
// violation and panics.
func (t *Interner) Get(id InternedElement) fr.Element {
	if int(id) >= len(t.values) {
		panic(fmt.Sprintf("interner: unknown id %d (have %d values)", id, len(t.values)))
	}
	return t.values[id]
}

func (t *Interner) Len() int {
	return len(t.values)
}

// Values exposes the backing store for serialization.
func (t *Interner) Values() []fr.Element {
	return t.values
}

// RestoreInterner rebuilds an interner from its serialized value list.
func RestoreInterner(values []fr.Element) (*Interner, error) {
	t := NewInterner()
	for i, v := range values {
		if id := t.Intern(v); int(id) != i {
			return nil, fmt.Errorf("interner: duplicate value at position %d", i)
		}
	}
	return t, nil
}

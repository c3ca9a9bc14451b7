package utils

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufRoundTrip(t *testing.T) {
	var e1, e2 fr.Element
	_, err := e1.SetRandom()
	require.NoError(t, err)
	e2.SetUint64(42)

	var o OutputBuf
	o.AppendUint32(7)
	o.AppendUint64(1 << 40)
	o.AppendElements([]fr.Element{e1, e2})

	i := NewInputBuf(o.Bytes())
	assert.Equal(t, uint32(7), i.ReadUint32())
	assert.Equal(t, uint64(1<<40), i.ReadUint64())
	got := i.ReadElements(2)
	require.NoError(t, i.Finish())
	assert.True(t, got[0].Equal(&e1))
	assert.True(t, got[1].Equal(&e2))
}

func TestBufShortRead(t *testing.T) {
	i := NewInputBuf([]byte{1, 2})
	_ = i.ReadUint32()
	assert.Error(t, i.Err())
	// The error sticks.
	_ = i.ReadElement()
	assert.Error(t, i.Finish())
}

func TestBufTrailingBytes(t *testing.T) {
	var o OutputBuf
	o.AppendUint64(5)
	i := NewInputBuf(o.Bytes())
	_ = i.ReadUint32()
	assert.Error(t, i.Finish())
}

func TestBufRejectsNonCanonical(t *testing.T) {
	raw := make([]byte, fr.Bytes)
	for j := range raw {
		raw[j] = 0xFF
	}
	i := NewInputBuf(raw)
	_ = i.ReadElement()
	assert.Error(t, i.Err())
}

// Package utils holds small shared helpers with no better home.
package utils

import (
	"encoding/binary"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/worldfnd/noir-r1cs/field"
)

// OutputBuf builds flat little-endian byte payloads: fixed-width integers
// and 32-byte canonical field elements.
type OutputBuf struct {
	buf []byte
}

func (o *OutputBuf) AppendUint32(x uint32) {
	o.buf = binary.LittleEndian.AppendUint32(o.buf, x)
}

func (o *OutputBuf) AppendUint64(x uint64) {
	o.buf = binary.LittleEndian.AppendUint64(o.buf, x)
}

func (o *OutputBuf) AppendElement(e fr.Element) {
	b := field.ToLEBytes(e)
	o.buf = append(o.buf, b[:]...)
}

func (o *OutputBuf) AppendElements(vs []fr.Element) {
	for i := range vs {
		o.AppendElement(vs[i])
	}
}

func (o *OutputBuf) Bytes() []byte {
	return o.buf
}

// InputBuf consumes payloads written by OutputBuf. The first failure sticks;
// check Err (or Finish) after reading.
type InputBuf struct {
	buf []byte
	err error
}

func NewInputBuf(buf []byte) *InputBuf {
	return &InputBuf{buf: buf}
}

func (i *InputBuf) take(n int) []byte {
	if i.err != nil {
		return nil
	}
	if len(i.buf) < n {
		i.err = fmt.Errorf("buf: need %d bytes, have %d", n, len(i.buf))
		return nil
	}
	out := i.buf[:n]
	i.buf = i.buf[n:]
	return out
}

func (i *InputBuf) ReadUint32() uint32 {
	b := i.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (i *InputBuf) ReadUint64() uint64 {
	b := i.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (i *InputBuf) ReadElement() fr.Element {
	b := i.take(fr.Bytes)
	if b == nil {
		return fr.Element{}
	}
	e, err := field.FromLEBytes(b)
	if err != nil && i.err == nil {
		i.err = err
	}
	return e
}

func (i *InputBuf) ReadElements(n int) []fr.Element {
	out := make([]fr.Element, n)
	for j := range out {
		out[j] = i.ReadElement()
	}
	return out
}

func (i *InputBuf) Err() error {
	return i.err
}

// Finish reports the sticky error, or leftover bytes as an error.
func (i *InputBuf) Finish() error {
	if i.err != nil {
		return i.err
	}
	if len(i.buf) != 0 {
		return fmt.Errorf("buf: %d trailing bytes", len(i.buf))
	}
	return nil
}

// Package field provides helpers over the BN254 scalar field used by the
// whole pipeline: canonical little-endian encoding, power-of-two sizing,
// batched inversion and digit decomposition.
package field

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Bytes is the canonical serialized size of a field element.
const Bytes = fr.Bytes

// One returns the multiplicative identity.
func One() fr.Element {
	var e fr.Element
	e.SetOne()
	return e
}

// Zero returns the additive identity.
func Zero() fr.Element {
	var e fr.Element
	return e
}

// FromUint64 converts x to a field element.
func FromUint64(x uint64) fr.Element {
	var e fr.Element
	e.SetUint64(x)
	return e
}

// FromInt64 converts x to a field element, mapping negatives to p-|x|.
func FromInt64(x int64) fr.Element {
	var e fr.Element
	e.SetInt64(x)
	return e
}

// PowerOfTwo returns 2^bits as a field element.
func PowerOfTwo(bits int) fr.Element {
	var e fr.Element
	one := big.NewInt(1)
	e.SetBigInt(new(big.Int).Lsh(one, uint(bits)))
	return e
}

// ToUint64 converts e to a uint64, failing when the value does not fit.
func ToUint64(e fr.Element) (uint64, error) {
	var b big.Int
	e.BigInt(&b)
	if !b.IsUint64() {
		return 0, fmt.Errorf("field element %s does not fit in uint64", e.String())
	}
	return b.Uint64(), nil
}

// ToLEBytes returns the canonical 32-byte little-endian form of e.
func ToLEBytes(e fr.Element) [Bytes]byte {
	be := e.Bytes()
	var le [Bytes]byte
	for i := 0; i < Bytes; i++ {
		le[i] = be[Bytes-1-i]
	}
	return le
}

// FromLEBytes parses a canonical 32-byte little-endian encoding.
func FromLEBytes(buf []byte) (fr.Element, error) {
	var e fr.Element
	if len(buf) != Bytes {
		return e, fmt.Errorf("expected %d bytes, got %d", Bytes, len(buf))
	}
	var be [Bytes]byte
	for i := 0; i < Bytes; i++ {
		be[i] = buf[Bytes-1-i]
	}
	var b big.Int
	b.SetBytes(be[:])
	if b.Cmp(fr.Modulus()) >= 0 {
		return e, fmt.Errorf("encoding is not a canonical field element")
	}
	e.SetBigInt(&b)
	return e, nil
}

// NextPowerOfTwo returns the smallest power of two >= n, and 1 for n == 0.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// CeilLog2 returns ceil(log2(n)) for n >= 1.
func CeilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// PadToPowerOfTwo extends v with zeros so its length is a power of two.
func PadToPowerOfTwo(v []fr.Element) []fr.Element {
	n := NextPowerOfTwo(len(v))
	if n == len(v) {
		return v
	}
	out := make([]fr.Element, n)
	copy(out, v)
	return out
}

// BatchInvert inverts every element of v in a single field inversion.
// It fails if any element is zero.
func BatchInvert(v []fr.Element) ([]fr.Element, error) {
	for i := range v {
		if v[i].IsZero() {
			return nil, fmt.Errorf("batch inversion of zero at position %d", i)
		}
	}
	return fr.BatchInvert(v), nil
}

// DigitMultipliers returns the place values of a mixed-base little-endian
// decomposition: multiplier[i] = 2^(logBases[0] + ... + logBases[i-1]).
func DigitMultipliers(logBases []int) []fr.Element {
	out := make([]fr.Element, len(logBases))
	shift := 0
	for i, lb := range logBases {
		out[i] = PowerOfTwo(shift)
		shift += lb
	}
	return out
}

// DecomposeIntoDigits splits e into little-endian digits of the given bit
// widths. It fails if e has set bits beyond the covered range.
func DecomposeIntoDigits(e fr.Element, logBases []int) ([]fr.Element, error) {
	var b big.Int
	e.BigInt(&b)
	digits := make([]fr.Element, len(logBases))
	shift := 0
	for i, lb := range logBases {
		d := new(big.Int).Rsh(&b, uint(shift))
		d.And(d, new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(lb)), big.NewInt(1)))
		digits[i].SetBigInt(d)
		shift += lb
	}
	if new(big.Int).Rsh(&b, uint(shift)).Sign() != 0 {
		return nil, fmt.Errorf("value %s exceeds %d bits", e.String(), shift)
	}
	return digits, nil
}

// Package store reads and writes the on-disk container for proving schemes
// and proofs: a fixed header identifying the payload kind and version,
// followed by a zstd-compressed CBOR body. Field elements are canonical
// 32-byte little-endian strings throughout.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/worldfnd/noir-r1cs/protocol"
)

// Extension is the conventional file extension for both payload kinds.
const Extension = ".nps"

// magic opens every container: two sentinel bytes, the format family name
// and a two-byte epoch.
var magic = [8]byte{0xDC, 0xDF, 'W', 'H', 'I', 'R', 0x01, 0x00}

// FormatTag names the payload kind inside the container.
type FormatTag [8]byte

var (
	FormatScheme = FormatTag{'n', 'r', '-', 's', 'c', 'h', 'm', 0}
	FormatProof  = FormatTag{'n', 'r', '-', 'p', 'r', 'o', 'o', 'f'}
)

// The minor version may grow without breaking readers; a major bump does.
const (
	VersionMajor uint16 = 1
	VersionMinor uint16 = 0
)

var (
	ErrBadMagic   = errors.New("store: not a container file")
	ErrBadFormat  = errors.New("store: unexpected payload kind")
	ErrBadVersion = errors.New("store: unsupported container version")
)

func writeContainer(w io.Writer, tag FormatTag, body any) error {
	raw, err := cbor.Marshal(body)
	if err != nil {
		return fmt.Errorf("store: encoding body: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return err
	}
	compressed := enc.EncodeAll(raw, nil)
	_ = enc.Close()

	var header bytes.Buffer
	header.Write(magic[:])
	header.Write(tag[:])
	var v [4]byte
	binary.LittleEndian.PutUint16(v[0:2], VersionMajor)
	binary.LittleEndian.PutUint16(v[2:4], VersionMinor)
	header.Write(v[:])
	if _, err := w.Write(header.Bytes()); err != nil {
		return err
	}
	_, err = w.Write(compressed)
	return err
}

func readContainer(r io.Reader, tag FormatTag, body any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(data) < len(magic)+len(tag)+4 {
		return ErrBadMagic
	}
	if !bytes.Equal(data[:8], magic[:]) {
		return ErrBadMagic
	}
	if !bytes.Equal(data[8:16], tag[:]) {
		return ErrBadFormat
	}
	if binary.LittleEndian.Uint16(data[16:18]) != VersionMajor {
		return ErrBadVersion
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return err
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(data[20:], nil)
	if err != nil {
		return fmt.Errorf("store: decompressing body: %w", err)
	}
	if err := cbor.Unmarshal(raw, body); err != nil {
		return fmt.Errorf("store: decoding body: %w", err)
	}
	return nil
}

// WriteScheme serializes a compiled proving scheme.
func WriteScheme(w io.Writer, s *protocol.Scheme) error {
	return writeContainer(w, FormatScheme, schemeToWire(s))
}

// ReadScheme deserializes a proving scheme.
func ReadScheme(r io.Reader) (*protocol.Scheme, error) {
	var w schemeWire
	if err := readContainer(r, FormatScheme, &w); err != nil {
		return nil, err
	}
	return schemeFromWire(w)
}

// WriteProof serializes a proof.
func WriteProof(w io.Writer, p *protocol.Proof) error {
	return writeContainer(w, FormatProof, proofToWire(p))
}

// ReadProof deserializes a proof.
func ReadProof(r io.Reader) (*protocol.Proof, error) {
	var w proofWire
	if err := readContainer(r, FormatProof, &w); err != nil {
		return nil, err
	}
	return proofFromWire(w)
}

// SaveScheme writes a scheme container to path.
func SaveScheme(path string, s *protocol.Scheme) error {
	return saveFile(path, func(f io.Writer) error { return WriteScheme(f, s) })
}

// LoadScheme reads a scheme container from path.
func LoadScheme(path string) (*protocol.Scheme, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadScheme(f)
}

// SaveProof writes a proof container to path.
func SaveProof(path string, p *protocol.Proof) error {
	return saveFile(path, func(f io.Writer) error { return WriteProof(f, p) })
}

// LoadProof reads a proof container from path.
func LoadProof(path string) (*protocol.Proof, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadProof(f)
}

func saveFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ProofJSON renders a proof in the human-readable debug form. The byte
// payloads come out base64 encoded.
func ProofJSON(p *protocol.Proof) ([]byte, error) {
	return json.MarshalIndent(proofToWire(p), "", "  ")
}

// SchemeJSON renders a scheme in the human-readable debug form.
func SchemeJSON(s *protocol.Scheme) ([]byte, error) {
	return json.MarshalIndent(schemeToWire(s), "", "  ")
}

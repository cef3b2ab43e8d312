// Package archive provides types and functions for working with TRP trophy archives.
//
// A TRP archive is a header followed by a flat directory of fixed-size
// entries. Each entry names a payload file and gives its byte range within
// the archive.
package archive

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/goopsie/trophyFileTools/pkg/binrec"
)

// Magic identifies a TRP archive header.
const Magic uint32 = 0xDCA24D00

const (
	// HeaderSize is the fixed binary size of an archive header.
	HeaderSize = 64 // 4 + 4 + 8 + 4 + 4 + 4 + 20 + 16 bytes

	// EntrySize is the fixed binary size of a directory entry.
	EntrySize = 64 // 32 + 8 + 8 + 4 + 12 bytes

	// NameSize is the width of the NUL-padded entry name field.
	NameSize = 32
)

var (
	// ErrInvalidMagic is returned when the header does not start with Magic.
	ErrInvalidMagic = errors.New("invalid archive magic")

	// ErrMalformed is returned when the header or directory is inconsistent with the file.
	ErrMalformed = errors.New("malformed archive")

	// ErrClosed is returned when payloads are read after Close.
	ErrClosed = errors.New("archive is closed")
)

// Header represents the header of a TRP archive.
type Header struct {
	Magic      uint32
	Version    uint32
	FileSize   uint64 // Total archive size in bytes
	EntryCount uint32
	EntrySize  uint32 // Byte size of one directory entry, 64
	DevFlag    uint32
	SHA1       [20]byte
	Padding    [16]byte
}

var _ binrec.Record = (*Header)(nil)

// Size returns the binary size of the header.
func (h *Header) Size() int {
	return HeaderSize
}

// Validate checks the header for validity.
func (h *Header) Validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("%w: expected %#x, got %#x", ErrInvalidMagic, Magic, h.Magic)
	}
	return nil
}

// EncodeTo writes the header to the given buffer.
// The buffer must be at least HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) {
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	binary.BigEndian.PutUint32(buf[4:8], h.Version)
	binary.BigEndian.PutUint64(buf[8:16], h.FileSize)
	binary.BigEndian.PutUint32(buf[16:20], h.EntryCount)
	binary.BigEndian.PutUint32(buf[20:24], h.EntrySize)
	binary.BigEndian.PutUint32(buf[24:28], h.DevFlag)
	copy(buf[28:48], h.SHA1[:])
	copy(buf[48:64], h.Padding[:])
}

// DecodeFrom reads the header from the given buffer.
// Does not validate - use UnmarshalBinary for validation.
func (h *Header) DecodeFrom(data []byte) {
	h.Magic = binary.BigEndian.Uint32(data[0:4])
	h.Version = binary.BigEndian.Uint32(data[4:8])
	h.FileSize = binary.BigEndian.Uint64(data[8:16])
	h.EntryCount = binary.BigEndian.Uint32(data[16:20])
	h.EntrySize = binary.BigEndian.Uint32(data[20:24])
	h.DevFlag = binary.BigEndian.Uint32(data[24:28])
	copy(h.SHA1[:], data[28:48])
	copy(h.Padding[:], data[48:64])
}

// MarshalBinary encodes the header to binary format.
func (h *Header) MarshalBinary() ([]byte, error) {
	return binrec.Marshal(h), nil
}

// UnmarshalBinary decodes and validates the header.
func (h *Header) UnmarshalBinary(data []byte) error {
	if err := binrec.Unmarshal(data, h); err != nil {
		return err
	}
	return h.Validate()
}

// Entry describes one named payload inside the archive.
type Entry struct {
	RawName  [NameSize]byte
	Offset   uint64
	Length   uint64
	Reserved uint32
	Padding  [12]byte
}

var _ binrec.Record = (*Entry)(nil)

// Name returns the entry name without NUL padding.
func (e *Entry) Name() string {
	return binrec.CString(e.RawName[:])
}

// SetName stores name, truncated or zero-padded to NameSize bytes.
func (e *Entry) SetName(name string) {
	binrec.PutCString(e.RawName[:], name)
}

// Size returns the binary size of an entry.
func (e *Entry) Size() int {
	return EntrySize
}

// EncodeTo writes the entry to the given buffer.
func (e *Entry) EncodeTo(buf []byte) {
	copy(buf[0:32], e.RawName[:])
	binary.BigEndian.PutUint64(buf[32:40], e.Offset)
	binary.BigEndian.PutUint64(buf[40:48], e.Length)
	binary.BigEndian.PutUint32(buf[48:52], e.Reserved)
	copy(buf[52:64], e.Padding[:])
}

// DecodeFrom reads the entry from the given buffer.
func (e *Entry) DecodeFrom(data []byte) {
	copy(e.RawName[:], data[0:32])
	e.Offset = binary.BigEndian.Uint64(data[32:40])
	e.Length = binary.BigEndian.Uint64(data[40:48])
	e.Reserved = binary.BigEndian.Uint32(data[48:52])
	copy(e.Padding[:], data[52:64])
}

// NewEntry creates an entry for the given name and byte range.
func NewEntry(name string, offset, length uint64) Entry {
	var e Entry
	e.SetName(name)
	e.Offset = offset
	e.Length = length
	return e
}

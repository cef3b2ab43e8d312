// Package progress provides types and functions for working with TROPUSR trophy progress files.
//
// A progress container is a header, a directory of typed tables and one
// fixed-size record array per table. Table kind 4 holds trophy definitions
// and kind 6 holds per-trophy unlock progress; other kinds are carried
// through untouched.
package progress

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/goopsie/trophyFileTools/pkg/binrec"
)

const (
	// Magic identifies a progress container header.
	Magic uint32 = 0x818F54AD

	// Version is the format version written by Generate.
	Version uint32 = 0x00010000
)

const (
	// HeaderSize is the fixed binary size of the container header.
	HeaderSize = 0x30 // 4 + 4 + 4 + 4 + 32 bytes

	// DirectoryOffset is where the table directory starts.
	DirectoryOffset = HeaderSize

	// TableHeaderSize is the fixed binary size of one directory entry.
	TableHeaderSize = 32 // 4 + 4 + 4 + 4 + 8 + 8 bytes

	// RecordHeaderSize is the size of the type/size/index/reserved prefix
	// shared by every record. Record sizes stored on disk exclude it.
	RecordHeaderSize = 0x10

	// maxTables bounds the directory independently of the file size.
	maxTables = 1024
)

var (
	// ErrInvalidMagic is returned when the header does not start with Magic.
	ErrInvalidMagic = errors.New("invalid progress magic")

	// ErrMalformed is returned when the header, directory or a record array is
	// inconsistent with the file.
	ErrMalformed = errors.New("malformed progress container")

	// ErrOutOfRange is returned by accessors given a trophy position outside
	// the progress table.
	ErrOutOfRange = errors.New("trophy index out of range")

	// ErrDefinitions is returned when the trophy definitions source is
	// unreadable or malformed.
	ErrDefinitions = errors.New("invalid trophy definitions")
)

// Header represents the progress container header.
type Header struct {
	Magic      uint32
	Version    uint32
	TableCount uint32
	Reserved   uint32
	Padding    [32]byte
}

var _ binrec.Record = (*Header)(nil)

// Size returns the binary size of the header.
func (h *Header) Size() int {
	return HeaderSize
}

// Validate checks the magic.
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
	binary.BigEndian.PutUint32(buf[8:12], h.TableCount)
	binary.BigEndian.PutUint32(buf[12:16], h.Reserved)
	copy(buf[16:48], h.Padding[:])
}

// DecodeFrom reads the header from the given buffer.
// Does not validate - use Validate.
func (h *Header) DecodeFrom(data []byte) {
	h.Magic = binary.BigEndian.Uint32(data[0:4])
	h.Version = binary.BigEndian.Uint32(data[4:8])
	h.TableCount = binary.BigEndian.Uint32(data[8:12])
	h.Reserved = binary.BigEndian.Uint32(data[12:16])
	copy(h.Padding[:], data[16:48])
}

// TableKind is the type tag of a table and of every record in it.
type TableKind uint32

const (
	// KindDefinition tables hold TrophyDefinition records.
	KindDefinition TableKind = 4
	// KindProgress tables hold TrophyProgress records.
	KindProgress TableKind = 6
)

// String returns a short name for the kind.
func (k TableKind) String() string {
	switch k {
	case KindDefinition:
		return "definition"
	case KindProgress:
		return "progress"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(k))
	}
}

// TableHeader is one entry of the table directory.
type TableHeader struct {
	Kind         TableKind
	RecordSize   uint32 // Payload bytes per record, excluding the record header
	Ordinal      uint32 // Always 1 in generated files
	EntriesCount uint32
	Offset       uint64 // Absolute offset of the record array
	Reserved     uint64
}

var _ binrec.Record = (*TableHeader)(nil)

// Size returns the binary size of a table header.
func (t *TableHeader) Size() int {
	return TableHeaderSize
}

// EncodeTo writes the table header to the given buffer.
func (t *TableHeader) EncodeTo(buf []byte) {
	binary.BigEndian.PutUint32(buf[0:4], uint32(t.Kind))
	binary.BigEndian.PutUint32(buf[4:8], t.RecordSize)
	binary.BigEndian.PutUint32(buf[8:12], t.Ordinal)
	binary.BigEndian.PutUint32(buf[12:16], t.EntriesCount)
	binary.BigEndian.PutUint64(buf[16:24], t.Offset)
	binary.BigEndian.PutUint64(buf[24:32], t.Reserved)
}

// DecodeFrom reads the table header from the given buffer.
func (t *TableHeader) DecodeFrom(data []byte) {
	t.Kind = TableKind(binary.BigEndian.Uint32(data[0:4]))
	t.RecordSize = binary.BigEndian.Uint32(data[4:8])
	t.Ordinal = binary.BigEndian.Uint32(data[8:12])
	t.EntriesCount = binary.BigEndian.Uint32(data[12:16])
	t.Offset = binary.BigEndian.Uint64(data[16:24])
	t.Reserved = binary.BigEndian.Uint64(data[24:32])
}

// ArraySize returns the byte length of the table's record array.
func (t *TableHeader) ArraySize() uint64 {
	return uint64(t.EntriesCount) * (uint64(t.RecordSize) + RecordHeaderSize)
}

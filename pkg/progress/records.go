package progress

import (
	"encoding/binary"
	"fmt"

	"github.com/goopsie/trophyFileTools/pkg/binrec"
)

const (
	// DefinitionSize is the full size of a kind 4 record.
	DefinitionSize = 0x60
	// ProgressSize is the full size of a kind 6 record.
	ProgressSize = 0x70

	// DefinitionPayloadSize is the record size stored for kind 4 tables.
	DefinitionPayloadSize = DefinitionSize - RecordHeaderSize
	// ProgressPayloadSize is the record size stored for kind 6 tables.
	ProgressPayloadSize = ProgressSize - RecordHeaderSize

	// definitionSentinel fills the unused word after the grade.
	definitionSentinel = 0xFFFFFFFF
)

// Grade is the numeric trophy grade stored in definition records.
type Grade uint32

// Grades as stored on disk.
const (
	GradeUnknown  Grade = 0
	GradePlatinum Grade = 1
	GradeGold     Grade = 2
	GradeSilver   Grade = 3
	GradeBronze   Grade = 4
)

// GradeFromCode maps a grade letter to its numeric grade.
// Anything other than B, S, G or P maps to GradeUnknown.
func GradeFromCode(code byte) Grade {
	switch code {
	case 'B':
		return GradeBronze
	case 'S':
		return GradeSilver
	case 'G':
		return GradeGold
	case 'P':
		return GradePlatinum
	default:
		return GradeUnknown
	}
}

// String returns the grade name.
func (g Grade) String() string {
	switch g {
	case GradeBronze:
		return "bronze"
	case GradeSilver:
		return "silver"
	case GradeGold:
		return "gold"
	case GradePlatinum:
		return "platinum"
	default:
		return "unknown"
	}
}

// State is the unlock flag of a progress record.
type State uint32

// Unlock states as stored on disk.
const (
	StateLocked   State = 0
	StateUnlocked State = 1
)

// String returns "locked", "unlocked" or the raw value.
func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	default:
		return fmt.Sprintf("state(%d)", uint32(s))
	}
}

// TrophyDefinition is a kind 4 record.
type TrophyDefinition struct {
	Kind        TableKind
	PayloadSize uint32 // Always DefinitionPayloadSize
	Index       uint32 // Position within the table
	Reserved    uint32
	TrophyID    uint32
	Grade       Grade
	Sentinel    uint32 // 0xFFFFFFFF in generated files
	Padding     [68]byte
}

var _ binrec.Record = (*TrophyDefinition)(nil)

// Size returns the binary size of a definition record, header included.
func (d *TrophyDefinition) Size() int {
	return DefinitionSize
}

// EncodeTo writes the record to the given buffer.
func (d *TrophyDefinition) EncodeTo(buf []byte) {
	binary.BigEndian.PutUint32(buf[0x00:0x04], uint32(d.Kind))
	binary.BigEndian.PutUint32(buf[0x04:0x08], d.PayloadSize)
	binary.BigEndian.PutUint32(buf[0x08:0x0C], d.Index)
	binary.BigEndian.PutUint32(buf[0x0C:0x10], d.Reserved)
	binary.BigEndian.PutUint32(buf[0x10:0x14], d.TrophyID)
	binary.BigEndian.PutUint32(buf[0x14:0x18], uint32(d.Grade))
	binary.BigEndian.PutUint32(buf[0x18:0x1C], d.Sentinel)
	copy(buf[0x1C:0x60], d.Padding[:])
}

// DecodeFrom reads the record from the given buffer.
// Does not check the record type - the table does that.
func (d *TrophyDefinition) DecodeFrom(data []byte) {
	d.Kind = TableKind(binary.BigEndian.Uint32(data[0x00:0x04]))
	d.PayloadSize = binary.BigEndian.Uint32(data[0x04:0x08])
	d.Index = binary.BigEndian.Uint32(data[0x08:0x0C])
	d.Reserved = binary.BigEndian.Uint32(data[0x0C:0x10])
	d.TrophyID = binary.BigEndian.Uint32(data[0x10:0x14])
	d.Grade = Grade(binary.BigEndian.Uint32(data[0x14:0x18]))
	d.Sentinel = binary.BigEndian.Uint32(data[0x18:0x1C])
	copy(d.Padding[:], data[0x1C:0x60])
}

// TrophyProgress is a kind 6 record.
type TrophyProgress struct {
	Kind        TableKind
	PayloadSize uint32 // Always ProgressPayloadSize
	Index       uint32 // Position within the table
	Reserved    uint32
	TrophyID    uint32
	State       State
	Unknown1    uint32
	Unknown2    uint32
	Timestamp1  uint64
	Timestamp2  uint64
	Padding     [64]byte
}

var _ binrec.Record = (*TrophyProgress)(nil)

// Size returns the binary size of a progress record, header included.
func (p *TrophyProgress) Size() int {
	return ProgressSize
}

// EncodeTo writes the record to the given buffer.
func (p *TrophyProgress) EncodeTo(buf []byte) {
	binary.BigEndian.PutUint32(buf[0x00:0x04], uint32(p.Kind))
	binary.BigEndian.PutUint32(buf[0x04:0x08], p.PayloadSize)
	binary.BigEndian.PutUint32(buf[0x08:0x0C], p.Index)
	binary.BigEndian.PutUint32(buf[0x0C:0x10], p.Reserved)
	binary.BigEndian.PutUint32(buf[0x10:0x14], p.TrophyID)
	binary.BigEndian.PutUint32(buf[0x14:0x18], uint32(p.State))
	binary.BigEndian.PutUint32(buf[0x18:0x1C], p.Unknown1)
	binary.BigEndian.PutUint32(buf[0x1C:0x20], p.Unknown2)
	binary.BigEndian.PutUint64(buf[0x20:0x28], p.Timestamp1)
	binary.BigEndian.PutUint64(buf[0x28:0x30], p.Timestamp2)
	copy(buf[0x30:0x70], p.Padding[:])
}

// DecodeFrom reads the record from the given buffer.
// Does not check the record type - the table does that.
func (p *TrophyProgress) DecodeFrom(data []byte) {
	p.Kind = TableKind(binary.BigEndian.Uint32(data[0x00:0x04]))
	p.PayloadSize = binary.BigEndian.Uint32(data[0x04:0x08])
	p.Index = binary.BigEndian.Uint32(data[0x08:0x0C])
	p.Reserved = binary.BigEndian.Uint32(data[0x0C:0x10])
	p.TrophyID = binary.BigEndian.Uint32(data[0x10:0x14])
	p.State = State(binary.BigEndian.Uint32(data[0x14:0x18]))
	p.Unknown1 = binary.BigEndian.Uint32(data[0x18:0x1C])
	p.Unknown2 = binary.BigEndian.Uint32(data[0x1C:0x20])
	p.Timestamp1 = binary.BigEndian.Uint64(data[0x20:0x28])
	p.Timestamp2 = binary.BigEndian.Uint64(data[0x28:0x30])
	copy(p.Padding[:], data[0x30:0x70])
}

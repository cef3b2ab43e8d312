package progress

import (
	"fmt"
	"io"

	"github.com/goopsie/trophyFileTools/pkg/binrec"
)

// Table is one record array of the container, in directory order.
//
// The set of implementations is closed: *DefinitionTable, *ProgressTable and
// *OpaqueTable. newTable is the single place a table kind is dispatched on.
type Table interface {
	// Header returns the directory entry describing the table.
	Header() TableHeader
	// Len returns the number of records.
	Len() int

	decode(r io.Reader) error
	encode(w io.Writer) error
	setHeader(TableHeader)
}

func newTable(h TableHeader) (Table, error) {
	switch h.Kind {
	case KindDefinition:
		if h.RecordSize != DefinitionPayloadSize {
			return nil, fmt.Errorf("%w: definition table record size %#x, want %#x",
				ErrMalformed, h.RecordSize, DefinitionPayloadSize)
		}
		return &DefinitionTable{header: h}, nil
	case KindProgress:
		if h.RecordSize != ProgressPayloadSize {
			return nil, fmt.Errorf("%w: progress table record size %#x, want %#x",
				ErrMalformed, h.RecordSize, ProgressPayloadSize)
		}
		return &ProgressTable{header: h}, nil
	default:
		return &OpaqueTable{header: h}, nil
	}
}

// DefinitionTable holds kind 4 records.
type DefinitionTable struct {
	header  TableHeader
	Records []TrophyDefinition
}

func (t *DefinitionTable) Header() TableHeader { return t.header }
func (t *DefinitionTable) Len() int { return len(t.Records) }
func (t *DefinitionTable) setHeader(h TableHeader) { t.header = h }

func (t *DefinitionTable) decode(r io.Reader) error {
	t.Records = make([]TrophyDefinition, t.header.EntriesCount)
	for i := range t.Records {
		if err := binrec.Read(r, &t.Records[i]); err != nil {
			return fmt.Errorf("read definition %d: %w", i, err)
		}
		if t.Records[i].Kind != KindDefinition {
			return fmt.Errorf("%w: definition %d has type %d", ErrMalformed, i, t.Records[i].Kind)
		}
	}
	return nil
}

func (t *DefinitionTable) encode(w io.Writer) error {
	for i := range t.Records {
		if err := binrec.Write(w, &t.Records[i]); err != nil {
			return fmt.Errorf("write definition %d: %w", i, err)
		}
	}
	return nil
}

// ProgressTable holds kind 6 records.
type ProgressTable struct {
	header  TableHeader
	Records []TrophyProgress
}

func (t *ProgressTable) Header() TableHeader { return t.header }
func (t *ProgressTable) Len() int { return len(t.Records) }
func (t *ProgressTable) setHeader(h TableHeader) { t.header = h }

func (t *ProgressTable) decode(r io.Reader) error {
	t.Records = make([]TrophyProgress, t.header.EntriesCount)
	for i := range t.Records {
		if err := binrec.Read(r, &t.Records[i]); err != nil {
			return fmt.Errorf("read progress %d: %w", i, err)
		}
		if t.Records[i].Kind != KindProgress {
			return fmt.Errorf("%w: progress %d has type %d", ErrMalformed, i, t.Records[i].Kind)
		}
	}
	return nil
}

func (t *ProgressTable) encode(w io.Writer) error {
	for i := range t.Records {
		if err := binrec.Write(w, &t.Records[i]); err != nil {
			return fmt.Errorf("write progress %d: %w", i, err)
		}
	}
	return nil
}

// OpaqueTable is a table of an unrecognised kind. Its records are kept as raw
// bytes so they survive a rewrite.
type OpaqueTable struct {
	header TableHeader
	Raw    []byte
}

func (t *OpaqueTable) Header() TableHeader { return t.header }
func (t *OpaqueTable) Len() int { return int(t.header.EntriesCount) }
func (t *OpaqueTable) setHeader(h TableHeader) { t.header = h }

func (t *OpaqueTable) decode(r io.Reader) error {
	t.Raw = make([]byte, t.header.ArraySize())
	if _, err := io.ReadFull(r, t.Raw); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("read %s table: %w", t.header.Kind, err)
	}
	return nil
}

func (t *OpaqueTable) encode(w io.Writer) error {
	if _, err := w.Write(t.Raw); err != nil {
		return fmt.Errorf("write %s table: %w", t.header.Kind, err)
	}
	return nil
}

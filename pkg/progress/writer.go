package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/goopsie/trophyFileTools/pkg/binrec"
)

// Persister writes a whole container to storage.
type Persister interface {
	Persist(path string, c *Container) error
}

// FullRewrite truncates the target and writes header, table directory and
// every record array from scratch. The target is truncated before anything
// is written; callers needing atomic replacement should persist to a
// temporary path and rename it.
type FullRewrite struct{}

var _ Persister = FullRewrite{}

// Persist implements Persister.
func (FullRewrite) Persist(path string, c *Container) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if err := c.EncodeTo(f); err != nil {
		return err
	}
	return f.Close()
}

// Save rewrites the container to path with FullRewrite.
func (c *Container) Save(path string) error {
	return c.SaveWith(FullRewrite{}, path)
}

// SaveWith writes the container to path with p.
func (c *Container) SaveWith(p Persister, path string) error {
	if err := p.Persist(path, c); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// MarshalBinary encodes the container with the same layout EncodeTo writes.
func (c *Container) MarshalBinary() ([]byte, error) {
	buf := &binrec.SeekableBuffer{}
	if err := c.EncodeTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo writes the header at offset 0, the table directory at
// DirectoryOffset, and each table's records at its offset. Record arrays are
// laid out contiguously after the directory in directory order; the
// directory written reflects that layout.
func (c *Container) EncodeTo(w io.WriteSeeker) error {
	header, directory := c.layout()

	if err := binrec.WriteAt(w, 0, &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if _, err := w.Seek(DirectoryOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seek to table directory: %w", err)
	}
	for i := range directory {
		if err := binrec.Write(w, &directory[i]); err != nil {
			return fmt.Errorf("write table header %d: %w", i, err)
		}
	}

	for i, t := range c.tables {
		if _, err := w.Seek(int64(directory[i].Offset), io.SeekStart); err != nil {
			return fmt.Errorf("seek to table %d: %w", i, err)
		}
		if err := t.encode(w); err != nil {
			return fmt.Errorf("table %d: %w", i, err)
		}
	}
	return nil
}

// layout computes the header and directory for a contiguous rewrite.
func (c *Container) layout() (Header, []TableHeader) {
	header := c.header
	header.TableCount = uint32(len(c.tables))

	directory := make([]TableHeader, len(c.tables))
	offset := uint64(DirectoryOffset) + uint64(len(c.tables))*TableHeaderSize
	for i, t := range c.tables {
		h := t.Header()
		h.EntriesCount = uint32(t.Len())
		h.Offset = offset
		offset += h.ArraySize()
		directory[i] = h
	}
	return header, directory
}

// applyLayout stores the layout computed for a rewrite back into the container.
func (c *Container) applyLayout() {
	header, directory := c.layout()
	c.header = header
	for i, t := range c.tables {
		t.setHeader(directory[i])
	}
}

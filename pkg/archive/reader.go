package archive

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"

	"github.com/goopsie/trophyFileTools/pkg/binrec"
)

// Archive is a parsed TRP archive bound to its source.
type Archive struct {
	header  Header
	entries []Entry
	src     io.ReadSeeker
	size    int64
	closer  io.Closer
}

// Open opens and parses the archive at path.
// The file stays open for payload reads until Close is called.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	a, err := Decode(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	a.closer = f
	return a, nil
}

// Decode parses the header and entry directory from r.
// r is retained for payload reads.
func Decode(r io.ReadSeeker) (*Archive, error) {
	size, err := binrec.Size(r)
	if err != nil {
		return nil, fmt.Errorf("archive size: %w", err)
	}

	header, err := LoadHeader(r)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"version": fmt.Sprintf("%#x", header.Version),
		"entries": header.EntryCount,
	}).Debug("TRP header loaded")

	entries, err := LoadEntries(r, header.EntryCount, size)
	if err != nil {
		return nil, err
	}

	return &Archive{
		header:  *header,
		entries: entries,
		src:     r,
		size:    size,
	}, nil
}

// LoadHeader reads and validates the header at offset 0.
func LoadHeader(r io.ReadSeeker) (*Header, error) {
	h := &Header{}
	if err := binrec.ReadAt(r, 0, h); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// LoadEntries reads count directory entries immediately following the header.
// Every entry must describe a byte range within size.
func LoadEntries(r io.ReadSeeker, count uint32, size int64) ([]Entry, error) {
	end := int64(HeaderSize) + int64(count)*EntrySize
	if end > size {
		return nil, fmt.Errorf("%w: %d entries need %d bytes, file has %d", ErrMalformed, count, end, size)
	}

	if _, err := r.Seek(HeaderSize, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to entries: %w", err)
	}

	entries := make([]Entry, count)
	for i := range entries {
		if err := binrec.Read(r, &entries[i]); err != nil {
			return nil, fmt.Errorf("read entry %d: %w", i, err)
		}

		e := &entries[i]
		if e.Offset > uint64(size) || e.Length > uint64(size)-e.Offset {
			return nil, fmt.Errorf("%w: entry %q range [%d, +%d) exceeds file size %d",
				ErrMalformed, e.Name(), e.Offset, e.Length, size)
		}
		logger.Debugf("TRP entry #%d: %s", i, e.Name())
	}

	return entries, nil
}

// Close releases the underlying file, if the archive was opened from a path.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	a.src = nil
	return err
}

// Header returns a copy of the archive header.
func (a *Archive) Header() Header {
	return a.header
}

// Entries returns a copy of the entry directory.
func (a *Archive) Entries() []Entry {
	return slices.Clone(a.entries)
}

// EntryCount returns the number of entries in the directory.
func (a *Archive) EntryCount() int {
	return len(a.entries)
}

// Contains reports whether any entry has exactly the given name.
func (a *Archive) Contains(name string) bool {
	_, ok := a.Lookup(name)
	return ok
}

// Lookup returns the first entry with the given name.
func (a *Archive) Lookup(name string) (Entry, bool) {
	for _, e := range a.entries {
		if e.Name() == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Remove deletes every entry with the given name and returns how many were removed.
func (a *Archive) Remove(name string) int {
	kept := a.entries[:0]
	for _, e := range a.entries {
		if e.Name() != name {
			kept = append(kept, e)
		}
	}
	removed := len(a.entries) - len(kept)
	clear(a.entries[len(kept):])
	a.entries = kept
	a.header.EntryCount = uint32(len(kept))
	return removed
}

// Rename renames every entry called oldName and returns how many were renamed.
// newName is truncated to NameSize bytes.
func (a *Archive) Rename(oldName, newName string) int {
	renamed := 0
	for i := range a.entries {
		if a.entries[i].Name() == oldName {
			a.entries[i].SetName(newName)
			renamed++
		}
	}
	return renamed
}

// ReadEntry reads the payload of the first entry with the given name.
func (a *Archive) ReadEntry(name string) ([]byte, error) {
	e, ok := a.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("entry %q: %w", name, os.ErrNotExist)
	}
	return a.read(&e)
}

// Digest returns the sha256 digest of the named entry's payload.
func (a *Archive) Digest(name string) (digest.Digest, error) {
	data, err := a.ReadEntry(name)
	if err != nil {
		return "", err
	}
	return digest.FromBytes(data), nil
}

func (a *Archive) read(e *Entry) ([]byte, error) {
	if a.src == nil {
		return nil, fmt.Errorf("read entry %q: %w", e.Name(), ErrClosed)
	}
	data, err := binrec.ReadBytes(a.src, int64(e.Offset), int(e.Length))
	if err != nil {
		return nil, fmt.Errorf("read entry %q: %w", e.Name(), err)
	}
	return data, nil
}

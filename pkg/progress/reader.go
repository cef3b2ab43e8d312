package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/goopsie/trophyFileTools/pkg/binrec"
)

// Open reads and parses the progress container at path.
// The file is closed before Open returns.
func Open(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open progress: %w", err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// UnmarshalBinary parses a container from data.
func (c *Container) UnmarshalBinary(data []byte) error {
	parsed, err := Decode(binrec.NewSeekableBuffer(data))
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}

// Decode parses a complete container from r.
// Either every stage succeeds or no container is returned.
func Decode(r io.ReadSeeker) (*Container, error) {
	d := &decoder{r: r}

	size, err := binrec.Size(r)
	if err != nil {
		return nil, fmt.Errorf("progress size: %w", err)
	}
	d.size = size

	if err := d.loadHeader(); err != nil {
		return nil, err
	}
	if err := d.loadTableDirectory(); err != nil {
		return nil, err
	}
	if err := d.loadTables(); err != nil {
		return nil, err
	}

	c := &Container{header: d.header, tables: d.tables}
	if err := c.bindTables(); err != nil {
		return nil, err
	}
	return c, nil
}

type decoder struct {
	r    io.ReadSeeker
	size int64

	header    Header
	directory []TableHeader
	tables    []Table
}

func (d *decoder) loadHeader() error {
	if err := binrec.ReadAt(d.r, 0, &d.header); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if err := d.header.Validate(); err != nil {
		return err
	}

	count := int64(d.header.TableCount)
	if count > maxTables || DirectoryOffset+count*TableHeaderSize > d.size {
		return fmt.Errorf("%w: table count %d does not fit in %d bytes", ErrMalformed, count, d.size)
	}

	logger.WithFields(logrus.Fields{
		"version": fmt.Sprintf("%#x", d.header.Version),
		"tables":  d.header.TableCount,
	}).Debug("TROPUSR header loaded")
	return nil
}

func (d *decoder) loadTableDirectory() error {
	if _, err := d.r.Seek(DirectoryOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seek to table directory: %w", err)
	}

	d.directory = make([]TableHeader, d.header.TableCount)
	for i := range d.directory {
		if err := binrec.Read(d.r, &d.directory[i]); err != nil {
			return fmt.Errorf("read table header %d: %w", i, err)
		}
	}
	return nil
}

func (d *decoder) loadTables() error {
	d.tables = make([]Table, 0, len(d.directory))
	for i, h := range d.directory {
		if h.Offset > uint64(d.size) || h.ArraySize() > uint64(d.size)-h.Offset {
			return fmt.Errorf("%w: table %d (%s) of %d records at %#x exceeds file size %d",
				ErrMalformed, i, h.Kind, h.EntriesCount, h.Offset, d.size)
		}

		t, err := newTable(h)
		if err != nil {
			return fmt.Errorf("table %d: %w", i, err)
		}
		if _, err := d.r.Seek(int64(h.Offset), io.SeekStart); err != nil {
			return fmt.Errorf("seek to table %d: %w", i, err)
		}
		if err := t.decode(d.r); err != nil {
			return fmt.Errorf("table %d: %w", i, err)
		}
		if _, ok := t.(*OpaqueTable); ok {
			logger.Debugf("keeping %s table %d undecoded", h.Kind, i)
		}
		d.tables = append(d.tables, t)
	}
	return nil
}

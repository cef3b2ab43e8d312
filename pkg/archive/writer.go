package archive

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"os"

	"github.com/goopsie/trophyFileTools/pkg/binrec"
)

// DataAlignment is the boundary payloads are aligned to when an archive is rewritten.
const DataAlignment = 16

// MarshalBinary lays the archive out from scratch: header, entry directory,
// then every payload in directory order. Entry offsets, the entry count, the
// file size and the SHA-1 field are recomputed.
func (a *Archive) MarshalBinary() ([]byte, error) {
	header := a.header
	header.EntryCount = uint32(len(a.entries))
	header.EntrySize = EntrySize
	header.SHA1 = [20]byte{}

	entries := make([]Entry, len(a.entries))
	payloads := make([][]byte, len(a.entries))

	offset := uint64(HeaderSize) + uint64(len(a.entries))*EntrySize
	for i := range a.entries {
		data, err := a.read(&a.entries[i])
		if err != nil {
			return nil, err
		}
		offset = align(offset, DataAlignment)

		entries[i] = a.entries[i]
		entries[i].Offset = offset
		entries[i].Length = uint64(len(data))
		payloads[i] = data
		offset += uint64(len(data))
	}
	header.FileSize = offset

	buf := bytes.NewBuffer(make([]byte, 0, offset))
	if err := binrec.Write(buf, &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i := range entries {
		if err := binrec.Write(buf, &entries[i]); err != nil {
			return nil, fmt.Errorf("write entry %d: %w", i, err)
		}
	}
	for i, data := range payloads {
		if pad := int(entries[i].Offset) - buf.Len(); pad > 0 {
			buf.Write(make([]byte, pad))
		}
		buf.Write(data)
	}

	out := buf.Bytes()
	sum := sha1.Sum(out)
	copy(out[28:48], sum[:])
	return out, nil
}

// Save rewrites the whole archive to path.
// Payloads are read before the destination is truncated, so path may be the
// archive's own source file.
func (a *Archive) Save(path string) error {
	data, err := a.MarshalBinary()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	return f.Close()
}

func align(n, to uint64) uint64 {
	return (n + to - 1) / to * to
}

// Package binrec reads and writes fixed-layout binary records at absolute file offsets.
//
// Every on-disk structure in the trophy formats has a fixed byte size and a
// big-endian field encoding. A layout implements Record and the helpers here
// take care of seeking and exact-length transfers.
package binrec

import (
	"bytes"
	"fmt"
	"io"
)

// Record is a fixed-size binary layout.
type Record interface {
	// Size returns the encoded size in bytes.
	Size() int
	// EncodeTo writes the record into buf, which is at least Size() bytes.
	EncodeTo(buf []byte)
	// DecodeFrom reads the record from buf, which is at least Size() bytes.
	DecodeFrom(buf []byte)
}

// Marshal encodes rec into a new buffer.
func Marshal(rec Record) []byte {
	buf := make([]byte, rec.Size())
	rec.EncodeTo(buf)
	return buf
}

// Unmarshal decodes rec from data.
func Unmarshal(data []byte, rec Record) error {
	if len(data) < rec.Size() {
		return fmt.Errorf("record data too short: need %d, got %d", rec.Size(), len(data))
	}
	rec.DecodeFrom(data)
	return nil
}

// Read decodes rec from the current position of r.
// A short read is reported as io.ErrUnexpectedEOF.
func Read(r io.Reader, rec Record) error {
	buf := make([]byte, rec.Size())
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("read %d byte record: %w", len(buf), err)
	}
	rec.DecodeFrom(buf)
	return nil
}

// Write encodes rec at the current position of w.
func Write(w io.Writer, rec Record) error {
	buf := Marshal(rec)
	n, err := w.Write(buf)
	if err != nil {
		return fmt.Errorf("write %d byte record: %w", len(buf), err)
	}
	if n != len(buf) {
		return fmt.Errorf("write %d byte record: %w", len(buf), io.ErrShortWrite)
	}
	return nil
}

// ReadAt seeks r to the absolute offset and decodes rec.
func ReadAt(r io.ReadSeeker, offset int64, rec Record) error {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek to %#x: %w", offset, err)
	}
	return Read(r, rec)
}

// WriteAt seeks w to the absolute offset and encodes rec.
func WriteAt(w io.WriteSeeker, offset int64, rec Record) error {
	if _, err := w.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek to %#x: %w", offset, err)
	}
	return Write(w, rec)
}

// ReadBytes seeks r to offset and reads exactly n bytes.
func ReadBytes(r io.ReadSeeker, offset int64, n int) ([]byte, error) {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to %#x: %w", offset, err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read %d bytes at %#x: %w", n, offset, err)
	}
	return buf, nil
}

// Size returns the total length of s and restores the current position.
func Size(s io.Seeker) (int64, error) {
	pos, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("get position: %w", err)
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seek to end: %w", err)
	}
	if _, err := s.Seek(pos, io.SeekStart); err != nil {
		return 0, fmt.Errorf("restore position: %w", err)
	}
	return end, nil
}

// CString returns the NUL-terminated prefix of a fixed-width name field.
// A field without a terminator is used in full.
func CString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

// PutCString stores s into dst, truncating to len(dst) and zero-filling the rest.
func PutCString(dst []byte, s string) {
	n := copy(dst, s)
	clear(dst[n:])
}

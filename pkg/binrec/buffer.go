package binrec

import (
	"errors"
	"io"
)

// SeekableBuffer is an in-memory io.ReadWriteSeeker.
// Writes past the end zero-fill the gap, like a sparse file.
type SeekableBuffer struct {
	data []byte
	pos  int64
}

// NewSeekableBuffer returns a buffer initialised with a copy of data.
func NewSeekableBuffer(data []byte) *SeekableBuffer {
	return &SeekableBuffer{data: append([]byte(nil), data...)}
}

// Bytes returns the buffer contents.
func (s *SeekableBuffer) Bytes() []byte {
	return s.data
}

// Len returns the buffer length.
func (s *SeekableBuffer) Len() int {
	return len(s.data)
}

// Seek implements io.Seeker.
func (s *SeekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = s.pos + offset
	case io.SeekEnd:
		newPos = int64(len(s.data)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if newPos < 0 {
		return 0, errors.New("negative position")
	}
	s.pos = newPos
	return newPos, nil
}

// Read implements io.Reader.
func (s *SeekableBuffer) Read(p []byte) (int, error) {
	if s.pos >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += int64(n)
	return n, nil
}

// Write implements io.Writer.
func (s *SeekableBuffer) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.data)) {
		grown := make([]byte, end)
		copy(grown, s.data)
		s.data = grown
	}
	n := copy(s.data[s.pos:], p)
	s.pos += int64(n)
	return n, nil
}

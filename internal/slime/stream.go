package slime

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// streamReader reads big-endian primitives and keeps the offset of the next
// unread byte so that decode errors can point at the damage.
type streamReader struct {
	r   *bufio.Reader
	off int64
}

func newStreamReader(r io.Reader) *streamReader {
	if br, ok := r.(*bufio.Reader); ok {
		return &streamReader{r: br}
	}
	return &streamReader{r: bufio.NewReader(r)}
}

func (s *streamReader) full(section string, p []byte) error {
	start := s.off
	n, err := io.ReadFull(s.r, p)
	s.off += int64(n)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &FormatError{
			Kind:     ErrTruncatedInput,
			Section:  section,
			Offset:   start,
			Expected: int64(len(p)),
			Actual:   int64(n),
		}
	}
	return fmt.Errorf("slime: reading %s: %w", section, err)
}

// readAtMost caps the buffer reserved up front by chunk. Larger reads grow
// as bytes arrive, so a length field alone cannot force a large allocation.
const readAtMost = 64 << 10

// chunk reads exactly n bytes.
func (s *streamReader) chunk(section string, n int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(min(n, readAtMost))
	start := s.off
	copied, err := io.CopyN(&buf, s.r, int64(n))
	s.off += copied
	if err == nil {
		return buf.Bytes(), nil
	}
	if errors.Is(err, io.EOF) {
		return nil, &FormatError{
			Kind:     ErrTruncatedInput,
			Section:  section,
			Offset:   start,
			Expected: int64(n),
			Actual:   copied,
		}
	}
	return nil, fmt.Errorf("slime: reading %s: %w", section, err)
}

func (s *streamReader) u8(section string) (byte, error) {
	var b [1]byte
	if err := s.full(section, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *streamReader) boolean(section string) (bool, error) {
	b, err := s.u8(section)
	return b != 0, err
}

func (s *streamReader) i16(section string) (int16, error) {
	var b [2]byte
	if err := s.full(section, b[:]); err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b[:])), nil
}

func (s *streamReader) i32(section string) (int32, error) {
	var b [4]byte
	if err := s.full(section, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

// more reports whether at least one unread byte remains.
func (s *streamReader) more() bool {
	_, err := s.r.Peek(1)
	return err == nil
}

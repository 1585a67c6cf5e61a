package slime

import (
	"encoding/binary"
	"fmt"
	"io"
)

// maxBlobSize bounds the lengths accepted from a stream before anything is
// allocated for them.
const maxBlobSize = 1 << 30

// blob is one compressed payload together with its uncompressed length.
type blob struct {
	compressed []byte
	size       int
}

func compressBlob(c Compression, payload []byte) (blob, error) {
	compressed, err := c.Compress(payload)
	if err != nil {
		return blob{}, err
	}
	if len(compressed) > maxBlobSize || len(payload) > maxBlobSize {
		return blob{}, fmt.Errorf("slime: blob of %d bytes exceeds the %d byte limit", len(payload), maxBlobSize)
	}
	return blob{compressed: compressed, size: len(payload)}, nil
}

func (b blob) writeTo(w io.Writer) (err error) {
	if err = binary.Write(w, binary.BigEndian, int32(len(b.compressed))); err != nil {
		return
	}
	if err = binary.Write(w, binary.BigEndian, int32(b.size)); err != nil {
		return
	}
	_, err = w.Write(b.compressed)
	return
}

// WriteBlob compresses payload with c and writes it framed as
// compressed length, uncompressed length, compressed bytes.
func WriteBlob(w io.Writer, c Compression, payload []byte) error {
	b, err := compressBlob(c, payload)
	if err != nil {
		return err
	}
	return b.writeTo(w)
}

// ReadBlob reads one framed blob written by WriteBlob and returns the
// decompressed payload.
func ReadBlob(r io.Reader, c Compression) ([]byte, error) {
	return readBlob(newStreamReader(r), c, "blob")
}

func readBlob(s *streamReader, c Compression, section string) ([]byte, error) {
	start := s.off
	compressedLength, err := s.i32(section)
	if err != nil {
		return nil, err
	}
	uncompressedLength, err := s.i32(section)
	if err != nil {
		return nil, err
	}
	if compressedLength < 0 || compressedLength > maxBlobSize {
		return nil, &FormatError{Kind: ErrCompressionFailure, Section: section, Offset: start,
			Detail: fmt.Sprintf("compressed length %d out of range", compressedLength)}
	}
	if uncompressedLength < 0 || uncompressedLength > maxBlobSize {
		return nil, &FormatError{Kind: ErrCompressionFailure, Section: section, Offset: start,
			Detail: fmt.Sprintf("uncompressed length %d out of range", uncompressedLength)}
	}

	compressed, err := s.chunk(section, int(compressedLength))
	if err != nil {
		return nil, err
	}
	payload, err := c.Decompress(compressed, int(uncompressedLength))
	if err != nil {
		return nil, &FormatError{Kind: ErrCompressionFailure, Section: section, Offset: start, Err: err}
	}
	return payload, nil
}

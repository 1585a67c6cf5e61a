package slime

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the algorithm used for every framed blob of a stream.
// The algorithm is not recorded in the stream; both ends must agree on it.
// Slime files in the wild are always zstd.
type Compression uint8

const (
	CompressionZstd Compression = iota
	CompressionLZ4
	CompressionZlib
)

func (c Compression) String() string {
	switch c {
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	case CompressionZlib:
		return "zlib"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name as written in configuration.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zlib":
		return CompressionZlib, nil
	default:
		return 0, fmt.Errorf("slime: unknown compression %q", name)
	}
}

// zstd.Encoder and zstd.Decoder are safe for concurrent use through
// EncodeAll and DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	// Zero frames keep empty payloads decodable by other zstd implementations.
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		panic("slime: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxBlobSize))
	if err != nil {
		panic("slime: zstd decoder initialization failed: " + err.Error())
	}
}

// Compress compresses src with c.
func (c Compression) Compress(src []byte) ([]byte, error) {
	switch c {
	case CompressionZstd:
		return zstdEncoder.EncodeAll(src, make([]byte, 0, len(src)/2+64)), nil
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(src); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buf.Bytes(), nil
	case CompressionZlib:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(src); err != nil {
			return nil, fmt.Errorf("zlib compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("zlib compress: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported compression: %d", uint8(c))
	}
}

// Decompress inflates src and verifies that it produces exactly size bytes.
func (c Compression) Decompress(src []byte, size int) ([]byte, error) {
	if size == 0 && len(src) == 0 {
		return []byte{}, nil
	}
	switch c {
	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(src, make([]byte, 0, min(size, readAtMost)))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
		}
		return result, nil
	case CompressionLZ4:
		return readExactly("lz4", lz4.NewReader(bytes.NewReader(src)), size)
	case CompressionZlib:
		br := bytes.NewReader(src)
		r, err := zlib.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zlib decompress: %w", err)
		}
		defer r.Close()
		out, err := readExactly("zlib", r, size)
		if err != nil {
			return nil, err
		}
		// The zlib stream ends at its checksum; src must end there too.
		if br.Len() > 0 {
			return nil, fmt.Errorf("zlib decompress: %d bytes after the end of the stream", br.Len())
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported compression: %d", uint8(c))
	}
}

func readExactly(name string, r io.Reader, size int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(min(size, readAtMost))
	if n, err := io.CopyN(&buf, r, int64(size)); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%s decompress: got %d bytes, expected %d: %w", name, n, size, err)
	}
	out := buf.Bytes()
	// Reading past the end surfaces both trailing data and checksum errors.
	extra, err := io.Copy(io.Discard, io.LimitReader(r, 1))
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %w", name, err)
	}
	if extra > 0 {
		return nil, fmt.Errorf("%s decompress: more than %d bytes", name, size)
	}
	return out, nil
}

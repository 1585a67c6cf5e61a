package anvil

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

const (
	regionSize  = 32
	maxOffsets  = regionSize * regionSize
	sectorSize  = 4096
	chunkHeader = 5
)

var (
	ErrNoChunk            = errors.New("anvil: chunk not found")
	ErrInvalidChunkLength = errors.New("anvil: invalid chunk length")
	ErrInvalidCompression = errors.New("anvil: invalid compression format")
)

type CompressionScheme byte

const (
	CompressionGzip CompressionScheme = 1
	CompressionZlib CompressionScheme = 2
)

// RegionReader reads the chunks of one Anvil region file. It is not safe for
// concurrent use.
type RegionReader struct {
	source      io.ReadSeeker
	sectorTable [maxOffsets]int32
	Name        string
}

// NewRegionReader takes ownership of source.
func NewRegionReader(source io.ReadSeeker) (reader *RegionReader, err error) {
	reader = &RegionReader{source: source}
	if file, ok := source.(*os.File); ok {
		reader.Name = file.Name()
	}
	err = reader.readSectorTable()
	return
}

func (r *RegionReader) readSectorTable() (err error) {
	if _, err = r.source.Seek(0, io.SeekStart); err != nil {
		return
	}
	raw := make([]byte, sectorSize)
	if _, err = io.ReadFull(r.source, raw); err != nil {
		return fmt.Errorf("anvil: reading sector table of %s: %w", r.Name, err)
	}
	return binary.Read(bytes.NewReader(raw), binary.BigEndian, r.sectorTable[:])
}

// ReadChunk returns the decompressed NBT stream of the chunk at x, z relative
// to the region.
func (r *RegionReader) ReadChunk(x, z int) (chunk io.Reader, err error) {
	offset := r.sectorTable[x+z*regionSize]
	sectorNumber := offset >> 8
	occupiedSectors := offset & 0xff
	if sectorNumber == 0 {
		return nil, ErrNoChunk
	}

	if _, err = r.source.Seek(int64(sectorNumber)*sectorSize, io.SeekStart); err != nil {
		return
	}
	sectorData := make([]byte, int(occupiedSectors)*sectorSize)
	if _, err = io.ReadFull(r.source, sectorData); err != nil {
		return
	}

	sectorReader := bytes.NewReader(sectorData)
	var header struct {
		Length      int32
		Compression CompressionScheme
	}
	if err = binary.Read(sectorReader, binary.BigEndian, &header); err != nil {
		return
	}
	// Length counts the compression byte.
	if header.Length < 1 || header.Length > int32(len(sectorData)-4) {
		return nil, ErrInvalidChunkLength
	}

	stream := io.LimitReader(sectorReader, int64(header.Length-1))
	switch header.Compression {
	case CompressionGzip:
		return gzip.NewReader(stream)
	case CompressionZlib:
		return zlib.NewReader(stream)
	default:
		return nil, ErrInvalidCompression
	}
}

func (r *RegionReader) ChunkExists(x, z int) bool {
	return r.sectorTable[x+z*regionSize] != 0
}

func (r *RegionReader) Close() error {
	if closer, ok := r.source.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

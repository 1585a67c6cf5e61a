package slime

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
)

// Decoder reads slime streams. A Decoder holds no per-stream state and may
// be shared between goroutines.
type Decoder struct {
	Compression Compression

	// Target is the world version the caller runs. Streams written by a
	// newer version are rejected and older ones are passed through Remap.
	// The zero value accepts every supported version unchanged.
	Target WorldVersion
	Remap  LegacyRemap

	Logger *slog.Logger
}

// Container is a slime stream split into header fields and decompressed
// blobs, before any column is rebuilt.
type Container struct {
	Version   WorldVersion
	Extent    Extent
	Occupancy *Occupancy

	Columns []byte
	Tiles   []byte

	HasMobiles bool
	Mobiles    []byte

	Extra    []byte
	Maps     []byte
	Trailing [][]byte
}

// Decode reads a whole stream and rebuilds its columns.
func (d *Decoder) Decode(r io.Reader) (*Snapshot, error) {
	c, err := d.ReadContainer(r)
	if err != nil {
		return nil, err
	}
	return d.Reconstruct(c)
}

// ReadContainer validates the header and reads every blob of the stream.
// Version checks happen before any payload byte is read.
func (d *Decoder) ReadContainer(r io.Reader) (*Container, error) {
	s := newStreamReader(r)

	var magic [2]byte
	if err := s.full("magic", magic[:]); err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, &FormatError{Kind: ErrBadMagic, Section: "magic",
			Expected: int64(binary.BigEndian.Uint16(Magic[:])), Actual: int64(binary.BigEndian.Uint16(magic[:]))}
	}

	formatVersion, err := s.u8("format version")
	if err != nil {
		return nil, err
	}
	if formatVersion != FormatVersion {
		return nil, &FormatError{Kind: ErrUnsupportedVersion, Section: "format version", Offset: s.off - 1,
			Expected: int64(FormatVersion), Actual: int64(formatVersion)}
	}

	layout, err := s.u8("world version")
	if err != nil {
		return nil, err
	}
	version := WorldVersion(layout)
	if err = d.checkVersion(version, s.off-1); err != nil {
		return nil, err
	}

	c := &Container{Version: version}
	if c.Extent, err = readExtent(s); err != nil {
		return nil, err
	}
	if c.Occupancy, err = readOccupancy(s, int(c.Extent.Width), int(c.Extent.Depth)); err != nil {
		return nil, err
	}
	if c.Columns, err = readBlob(s, d.Compression, "columns blob"); err != nil {
		return nil, err
	}
	if c.Tiles, err = readBlob(s, d.Compression, "tiles blob"); err != nil {
		return nil, err
	}
	if c.HasMobiles, err = s.boolean("has mobiles"); err != nil {
		return nil, err
	}
	if c.HasMobiles {
		if c.Mobiles, err = readBlob(s, d.Compression, "mobiles blob"); err != nil {
			return nil, err
		}
	}

	// Everything after the mobiles is optional and only present while bytes
	// remain: extra data, map data, then blobs this revision does not know.
	if s.more() {
		if c.Extra, err = readBlob(s, d.Compression, "extra blob"); err != nil {
			return nil, err
		}
	}
	if s.more() {
		if c.Maps, err = readBlob(s, d.Compression, "maps blob"); err != nil {
			return nil, err
		}
	}
	for s.more() {
		trailing, err := readBlob(s, d.Compression, "trailing blob")
		if err != nil {
			return nil, err
		}
		c.Trailing = append(c.Trailing, trailing)
	}
	return c, nil
}

func (d *Decoder) checkVersion(version WorldVersion, offset int64) error {
	if !version.Valid() {
		return &FormatError{Kind: ErrUnsupportedVersion, Section: "world version", Offset: offset,
			Actual: int64(version), Detail: "unknown world version"}
	}
	if d.Target != 0 && version > d.Target {
		return &FormatError{Kind: ErrUnsupportedVersion, Section: "world version", Offset: offset,
			Expected: int64(d.Target), Actual: int64(version),
			Detail: fmt.Sprintf("cannot convert from %s to %s", version, d.Target)}
	}
	return nil
}

func readExtent(s *streamReader) (e Extent, err error) {
	start := s.off
	if e.MinX, err = s.i16("extent"); err != nil {
		return
	}
	if e.MinZ, err = s.i16("extent"); err != nil {
		return
	}
	if e.Width, err = s.i16("extent"); err != nil {
		return
	}
	if e.Depth, err = s.i16("extent"); err != nil {
		return
	}
	if e.Width < 0 || e.Depth < 0 {
		err = &FormatError{Kind: ErrInvalidExtent, Section: "extent", Offset: start,
			Detail: fmt.Sprintf("width %d, depth %d", e.Width, e.Depth)}
	}
	return
}

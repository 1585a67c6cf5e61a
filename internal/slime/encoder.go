package slime

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	"github.com/Tnze/go-mc/nbt"
	"golang.org/x/sync/errgroup"
)

// Encoder writes snapshots as slime streams. The zero value writes zstd
// blobs and leaves out the mobile and extra sections.
type Encoder struct {
	Compression Compression

	// IncludeMobiles writes the mobile object blob. When false the stream
	// says has_mobiles=false and mobile records are not stored.
	IncludeMobiles bool

	// IncludeExtra writes the extra data blob even when the snapshot has no
	// map data. The blob is always written when map data is, so that the map
	// blob keeps its position.
	IncludeExtra bool

	Logger *slog.Logger
}

// Encode writes snap to w. Errors from w are returned unchanged.
func (e *Encoder) Encode(w io.Writer, snap *Snapshot) error {
	sw := &slimeWriter{
		encoder: e,
		writer:  w,
		snap:    snap,
		logger:  orDiscard(e.Logger),
	}
	return sw.writeWorld()
}

type slimeWriter struct {
	encoder *Encoder
	writer  io.Writer
	snap    *Snapshot
	logger  *slog.Logger

	extent  Extent
	columns []*Column
}

// part is one framed blob of the stream, compressed off the write path.
type part struct {
	name    string
	payload []byte
	blob    blob
}

func (w *slimeWriter) writeWorld() (err error) {
	if !w.snap.Version.Valid() {
		return fmt.Errorf("%w: world version %d", ErrUnsupportedVersion, uint8(w.snap.Version))
	}
	if w.extent, err = w.snap.Extent(); err != nil {
		return
	}
	w.columns = w.snap.sortedColumns(w.extent)

	parts, hasMobiles, err := w.buildParts()
	if err != nil {
		return
	}
	if err = w.compressParts(parts); err != nil {
		return
	}

	if err = w.writeHeader(); err != nil {
		return
	}
	// columns, tiles
	for _, p := range parts[:2] {
		if err = p.blob.writeTo(w.writer); err != nil {
			return
		}
	}
	if _, err = w.writer.Write([]byte{boolByte(hasMobiles)}); err != nil {
		return
	}
	// mobiles, extra, maps: whichever are present
	for _, p := range parts[2:] {
		if err = p.blob.writeTo(w.writer); err != nil {
			return
		}
	}
	return
}

func (w *slimeWriter) buildParts() (parts []*part, hasMobiles bool, err error) {
	columns, err := w.columnData()
	if err != nil {
		return
	}
	tiles, err := w.tileData()
	if err != nil {
		return
	}
	parts = append(parts, &part{name: "columns", payload: columns}, &part{name: "tiles", payload: tiles})

	if hasMobiles = w.encoder.IncludeMobiles; hasMobiles {
		var mobiles []byte
		if mobiles, err = w.mobileData(); err != nil {
			return
		}
		parts = append(parts, &part{name: "mobiles", payload: mobiles})
	}

	hasMaps := w.snap.Maps != nil
	if w.encoder.IncludeExtra || hasMaps {
		extra := w.snap.Extra
		if extra == nil || !w.encoder.IncludeExtra {
			extra = EmptyCompound()
		}
		parts = append(parts, &part{name: "extra", payload: extra})
	}
	if hasMaps {
		parts = append(parts, &part{name: "maps", payload: w.snap.Maps})
	}
	return
}

func (w *slimeWriter) compressParts(parts []*part) error {
	var g errgroup.Group
	for _, p := range parts {
		p := p
		g.Go(func() (err error) {
			if p.blob, err = compressBlob(w.encoder.Compression, p.payload); err != nil {
				return fmt.Errorf("slime: compressing %s: %w", p.name, err)
			}
			w.logger.Debug("compressed blob", "blob", p.name,
				"compressed", len(p.blob.compressed), "uncompressed", p.blob.size)
			return nil
		})
	}
	return g.Wait()
}

func (w *slimeWriter) writeHeader() (err error) {
	occupancy := NewOccupancy(w.extent.Slots())
	for _, c := range w.columns {
		slot, _ := w.extent.Slot(c.X, c.Z)
		occupancy.Set(slot)
	}

	var header struct {
		Magic        [2]byte
		Version      uint8
		WorldVersion uint8
		MinX         int16
		MinZ         int16
		Width        int16
		Depth        int16
	}
	header.Magic = Magic
	header.Version = FormatVersion
	header.WorldVersion = uint8(w.snap.Version)
	header.MinX = w.extent.MinX
	header.MinZ = w.extent.MinZ
	header.Width = w.extent.Width
	header.Depth = w.extent.Depth

	if err = binary.Write(w.writer, binary.BigEndian, header); err != nil {
		return
	}
	_, err = w.writer.Write(occupancy.Bytes())
	return
}

func (w *slimeWriter) columnData() ([]byte, error) {
	var out bytes.Buffer
	for _, c := range w.columns {
		if err := writeColumn(&out, c); err != nil {
			return nil, err
		}
		w.logger.Debug("packed column", "x", c.X, "z", c.Z, "sectionMask", c.SectionMask())
	}
	return out.Bytes(), nil
}

func (w *slimeWriter) tileData() ([]byte, error) {
	tiles := []nbt.RawMessage{}
	for _, c := range w.columns {
		for _, t := range c.Tiles {
			tiles = append(tiles, t.Data)
		}
	}
	data, err := nbt.Marshal(tileList{Tiles: tiles})
	if err != nil {
		return nil, fmt.Errorf("slime: encoding tile records: %w", err)
	}
	return data, nil
}

// mobileData stores every mobile record except those that are the Mount of
// another record. A linked Mount chain is written into the rider's Riding
// compound, replacing any Riding tag its Data carried.
func (w *slimeWriter) mobileData() ([]byte, error) {
	mounts := make(map[*MobileRecord]bool)
	for _, c := range w.columns {
		for _, m := range c.Mobiles {
			if m.Mount != nil {
				mounts[m.Mount] = true
			}
		}
	}

	mobiles := []nbt.RawMessage{}
	for _, c := range w.columns {
		for _, m := range c.Mobiles {
			if mounts[m] {
				continue
			}
			data, err := m.withMounts()
			if err != nil {
				return nil, err
			}
			mobiles = append(mobiles, data)
		}
	}
	data, err := nbt.Marshal(mobileList{Entities: mobiles})
	if err != nil {
		return nil, fmt.Errorf("slime: encoding mobile records: %w", err)
	}
	return data, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}

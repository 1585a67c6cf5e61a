package slime

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Tnze/go-mc/nbt"
)

// Reconstruct rebuilds the columns of c and attaches its tile and mobile
// records. Records whose column is missing are dropped and listed in
// Snapshot.Dangling.
func (d *Decoder) Reconstruct(c *Container) (*Snapshot, error) {
	logger := orDiscard(d.Logger)
	snap := NewSnapshot(c.Version)
	snap.Extra, snap.Maps, snap.Trailing = c.Extra, c.Maps, c.Trailing

	if err := d.rebuildColumns(snap, c, logger); err != nil {
		return nil, err
	}

	tiles, err := decodeTiles(c.Tiles)
	if err != nil {
		return nil, err
	}
	for _, raw := range tiles {
		attachTile(snap, raw, logger)
	}

	if c.HasMobiles {
		mobiles, err := decodeMobiles(c.Mobiles)
		if err != nil {
			return nil, err
		}
		for _, raw := range mobiles {
			attachMobile(snap, raw, logger)
		}
	}
	return snap, nil
}

func (d *Decoder) rebuildColumns(snap *Snapshot, c *Container, logger *slog.Logger) error {
	remap := d.remapFor(c.Version)
	s := newStreamReader(bytes.NewReader(c.Columns))
	for _, slot := range c.Occupancy.Slots() {
		pos := c.Extent.Pos(slot)
		column, err := readColumn(s, pos, remap)
		if err != nil {
			var fe *FormatError
			if errors.As(err, &fe) {
				fe.Section = fmt.Sprintf("columns blob (column %d,%d) %s", pos.X, pos.Z, fe.Section)
			}
			return err
		}
		snap.Put(column)
		logger.Debug("rebuilt column", "x", pos.X, "z", pos.Z, "sectionMask", column.SectionMask())
	}
	if s.more() {
		logger.Warn("column data continues past the last occupied slot", "offset", s.off, "size", len(c.Columns))
	}
	return nil
}

// remapFor binds the legacy remap to the decoder's target. It returns nil
// when no conversion is needed.
func (d *Decoder) remapFor(version WorldVersion) func(id, data uint8) (uint8, uint8) {
	if d.Remap == nil || d.Target == 0 || version >= d.Target {
		return nil
	}
	target, remap := d.Target, d.Remap
	return func(id, data uint8) (uint8, uint8) {
		return remap(id, data, target)
	}
}

func decodeTiles(data []byte) ([]nbt.RawMessage, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var list tileList
	if err := nbt.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("slime: decoding tiles blob: %w", err)
	}
	return list.Tiles, nil
}

func decodeMobiles(data []byte) ([]nbt.RawMessage, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var list mobileList
	if err := nbt.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("slime: decoding mobiles blob: %w", err)
	}
	return list.Entities, nil
}

func attachTile(snap *Snapshot, raw nbt.RawMessage, logger *slog.Logger) {
	tile, err := TileRecordFromRaw(raw)
	if err != nil {
		dangling(snap, logger, "tile", err.Error())
		return
	}
	pos := tile.Column()
	column := snap.Columns[pos]
	if column == nil {
		dangling(snap, logger, "tile", fmt.Sprintf("block %d,%d,%d has no column %d,%d", tile.X, tile.Y, tile.Z, pos.X, pos.Z))
		return
	}
	column.Tiles = append(column.Tiles, tile)
}

// attachMobile adds the record to its column, then walks its Riding chain,
// adding each mount to the same column and linking it to its rider.
func attachMobile(snap *Snapshot, raw nbt.RawMessage, logger *slog.Logger) {
	mobile, err := MobileRecordFromRaw(raw)
	if err != nil {
		dangling(snap, logger, "mobile", err.Error())
		return
	}
	pos := mobile.Column()
	column := snap.Columns[pos]
	if column == nil {
		dangling(snap, logger, "mobile", fmt.Sprintf("position %.1f,%.1f,%.1f has no column %d,%d",
			mobile.X, mobile.Y, mobile.Z, pos.X, pos.Z))
		return
	}
	column.Mobiles = append(column.Mobiles, mobile)

	for rider := mobile; ; {
		riding, ok := rider.Riding()
		if !ok {
			return
		}
		mount, err := MobileRecordFromRaw(riding)
		if err != nil {
			logger.Warn("skipping unreadable mount", "x", rider.X, "z", rider.Z, "error", err)
			return
		}
		column.Mobiles = append(column.Mobiles, mount)
		rider.Mount = mount
		rider = mount
	}
}

func dangling(snap *Snapshot, logger *slog.Logger, kind, detail string) {
	err := &FormatError{Kind: ErrDanglingReference, Detail: kind + " record: " + detail}
	snap.Dangling = append(snap.Dangling, err)
	logger.Warn("dropping record", "kind", kind, "reason", detail)
}

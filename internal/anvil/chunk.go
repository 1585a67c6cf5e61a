package anvil

import (
	"bytes"
	"fmt"

	"github.com/Tnze/go-mc/nbt"

	"github.com/astei/slimeworld/internal/slime"
)

var blank [slime.BlocksPerSection]byte

type chunkRoot struct {
	Level chunkLevel `nbt:"Level"`
}

// chunkLevel is the pre-1.13 chunk layout, with numeric block ids.
type chunkLevel struct {
	X            int32            `nbt:"xPos"`
	Z            int32            `nbt:"zPos"`
	Sections     []chunkSection   `nbt:"Sections"`
	HeightMap    []int32          `nbt:"HeightMap"`
	Biomes       []byte           `nbt:"Biomes"`
	Entities     []nbt.RawMessage `nbt:"Entities"`
	TileEntities []nbt.RawMessage `nbt:"TileEntities"`
}

type chunkSection struct {
	Y          int8   `nbt:"Y"`
	Blocks     []byte `nbt:"Blocks"`
	Data       []byte `nbt:"Data"`
	BlockLight []byte `nbt:"BlockLight"`
	SkyLight   []byte `nbt:"SkyLight"`
}

// clean drops all-air sections and reports whether anything is left.
func (l *chunkLevel) clean() bool {
	var sections []chunkSection
	for _, section := range l.Sections {
		if !bytes.Equal(blank[:], section.Blocks) {
			sections = append(sections, section)
		}
	}
	l.Sections = sections
	return len(sections) > 0
}

func (l *chunkLevel) validate() error {
	if len(l.HeightMap) != slime.HeightMapSize {
		return fmt.Errorf("invalid height map size %d", len(l.HeightMap))
	}
	if len(l.Biomes) != slime.BiomesSize {
		return fmt.Errorf("invalid biome size %d", len(l.Biomes))
	}
	for _, section := range l.Sections {
		if section.Y < 0 || int(section.Y) >= slime.SectionsPerColumn {
			return fmt.Errorf("section y %d out of range", section.Y)
		}
		if len(section.Blocks) != slime.BlocksPerSection || len(section.Data) != slime.NibbleArraySize {
			return fmt.Errorf("section %d has %d blocks and %d data bytes", section.Y, len(section.Blocks), len(section.Data))
		}
	}
	return nil
}

// column converts the chunk. Records stay with the chunk they were read
// from.
func (l *chunkLevel) column() (*slime.Column, error) {
	c := slime.NewColumn(int(l.X), int(l.Z))
	copy(c.HeightMap, l.HeightMap)
	copy(c.Biomes, l.Biomes)

	for _, section := range l.Sections {
		c.Sections[section.Y] = &slime.Section{
			Blocks:     slime.UnpackBlocks(section.Blocks, section.Data, nil),
			BlockLight: light(section.BlockLight),
			SkyLight:   light(section.SkyLight),
		}
	}
	for _, raw := range l.TileEntities {
		tile, err := slime.TileRecordFromRaw(raw)
		if err != nil {
			return nil, err
		}
		c.Tiles = append(c.Tiles, tile)
	}
	for _, raw := range l.Entities {
		mobile, err := slime.MobileRecordFromRaw(raw)
		if err != nil {
			return nil, err
		}
		c.Mobiles = append(c.Mobiles, mobile)
	}
	return c, nil
}

func light(data []byte) slime.NibbleArray {
	if len(data) != slime.NibbleArraySize {
		return nil
	}
	return slime.NibbleArray(data)
}

package slime

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// writeColumn appends the packed form of c: height map, biomes, section
// mask and every present section in ascending order.
func writeColumn(out *bytes.Buffer, c *Column) (err error) {
	heightMap := c.HeightMap
	if heightMap == nil {
		heightMap = make([]int32, HeightMapSize)
	}
	if len(heightMap) != HeightMapSize {
		return fmt.Errorf("slime: column %d,%d: height map has %d entries, expected %d", c.X, c.Z, len(heightMap), HeightMapSize)
	}
	biomes := c.Biomes
	if biomes == nil {
		biomes = make([]byte, BiomesSize)
	}
	if len(biomes) != BiomesSize {
		return fmt.Errorf("slime: column %d,%d: biome strip has %d entries, expected %d", c.X, c.Z, len(biomes), BiomesSize)
	}

	if err = binary.Write(out, binary.BigEndian, heightMap); err != nil {
		return
	}
	out.Write(biomes)

	mask := c.SectionMask()
	// low byte first
	out.Write([]byte{byte(mask), byte(mask >> 8)})

	for y, section := range c.Sections {
		if section == nil {
			continue
		}
		if err = writeSection(out, section); err != nil {
			return fmt.Errorf("slime: column %d,%d section %d: %w", c.X, c.Z, y, err)
		}
	}
	return
}

func writeSection(out *bytes.Buffer, s *Section) (err error) {
	if len(s.Blocks) != BlocksPerSection {
		return fmt.Errorf("%d blocks, expected %d", len(s.Blocks), BlocksPerSection)
	}
	if err = writeLight(out, s.BlockLight, "block light"); err != nil {
		return
	}
	blocks, data := PackBlocks(s.Blocks)
	out.Write(blocks)
	out.Write(data)
	return writeLight(out, s.SkyLight, "sky light")
}

func writeLight(out *bytes.Buffer, light NibbleArray, name string) error {
	if light == nil {
		out.WriteByte(0)
		return nil
	}
	if len(light) != NibbleArraySize {
		return fmt.Errorf("%s has %d bytes, expected %d", name, len(light), NibbleArraySize)
	}
	out.WriteByte(1)
	out.Write(light)
	return nil
}

// readColumn decodes one column written by writeColumn.
func readColumn(s *streamReader, pos ColumnPos, remap func(id, data uint8) (uint8, uint8)) (*Column, error) {
	c := NewColumn(pos.X, pos.Z)

	raw := make([]byte, HeightMapSize*4)
	if err := s.full("height map", raw); err != nil {
		return nil, err
	}
	for i := range c.HeightMap {
		c.HeightMap[i] = int32(binary.BigEndian.Uint32(raw[i*4:]))
	}
	if err := s.full("biomes", c.Biomes); err != nil {
		return nil, err
	}

	var maskBytes [2]byte
	if err := s.full("section mask", maskBytes[:]); err != nil {
		return nil, err
	}
	mask := uint16(maskBytes[0]) | uint16(maskBytes[1])<<8

	for y := 0; y < SectionsPerColumn; y++ {
		if mask&(1<<y) == 0 {
			continue
		}
		section, err := readSection(s, remap)
		if err != nil {
			return nil, err
		}
		c.Sections[y] = section
	}
	return c, nil
}

func readSection(s *streamReader, remap func(id, data uint8) (uint8, uint8)) (*Section, error) {
	blockLight, err := readLight(s, "block light")
	if err != nil {
		return nil, err
	}
	blocks := make([]byte, BlocksPerSection)
	if err = s.full("blocks", blocks); err != nil {
		return nil, err
	}
	data := NewNibbleArray()
	if err = s.full("block data", data); err != nil {
		return nil, err
	}
	skyLight, err := readLight(s, "sky light")
	if err != nil {
		return nil, err
	}
	return &Section{
		Blocks:     UnpackBlocks(blocks, data, remap),
		BlockLight: blockLight,
		SkyLight:   skyLight,
	}, nil
}

func readLight(s *streamReader, name string) (NibbleArray, error) {
	present, err := s.boolean(name)
	if err != nil || !present {
		return nil, err
	}
	light := NewNibbleArray()
	if err = s.full(name, light); err != nil {
		return nil, err
	}
	return light, nil
}

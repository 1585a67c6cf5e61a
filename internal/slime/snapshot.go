package slime

import (
	"fmt"
	"math"
	"sort"
)

const (
	SectionsPerColumn = 16
	HeightMapSize     = 256
	BiomesSize        = 256
	BlocksPerSection  = 4096
	NibbleArraySize   = 2048
)

type ColumnPos struct {
	X int
	Z int
}

// Column is one 16 section tall stack of voxel data. Sections that are nil
// are empty and are not written.
type Column struct {
	X int
	Z int

	HeightMap []int32
	Biomes    []byte
	Sections  [SectionsPerColumn]*Section

	Tiles   []*TileRecord
	Mobiles []*MobileRecord
}

func NewColumn(x, z int) *Column {
	return &Column{
		X:         x,
		Z:         z,
		HeightMap: make([]int32, HeightMapSize),
		Biomes:    make([]byte, BiomesSize),
	}
}

func (c *Column) Pos() ColumnPos {
	return ColumnPos{X: c.X, Z: c.Z}
}

// SectionMask has bit y set for every non-nil section y.
func (c *Column) SectionMask() uint16 {
	var mask uint16
	for y, section := range c.Sections {
		if section != nil {
			mask |= 1 << y
		}
	}
	return mask
}

// Section is a 16x16x16 slab of 12-bit voxel ids (id<<4 | data). Light
// arrays are nil when absent.
type Section struct {
	Blocks     []uint16
	BlockLight NibbleArray
	SkyLight   NibbleArray
}

func NewSection() *Section {
	return &Section{Blocks: make([]uint16, BlocksPerSection)}
}

func (s *Section) Block(x, y, z int) uint16 {
	return s.Blocks[BlockIndex(x, y, z)]
}

func (s *Section) SetBlock(x, y, z int, id uint16) {
	s.Blocks[BlockIndex(x, y, z)] = id & 0xFFF
}

// Extent is the rectangle of column slots a stream covers.
type Extent struct {
	MinX  int16
	MinZ  int16
	Width int16
	Depth int16
}

func (e Extent) Slots() int {
	return int(e.Width) * int(e.Depth)
}

// Slot returns the slot index of column (x, z) and whether it lies inside e.
func (e Extent) Slot(x, z int) (int, bool) {
	relX, relZ := x-int(e.MinX), z-int(e.MinZ)
	if relX < 0 || relZ < 0 || relX >= int(e.Width) || relZ >= int(e.Depth) {
		return 0, false
	}
	return relZ*int(e.Width) + relX, true
}

// Pos is the inverse of Slot.
func (e Extent) Pos(slot int) ColumnPos {
	return ColumnPos{
		X: slot%int(e.Width) + int(e.MinX),
		Z: slot/int(e.Width) + int(e.MinZ),
	}
}

// Snapshot is a decoded, or to be encoded, slime world.
type Snapshot struct {
	Version WorldVersion
	Columns map[ColumnPos]*Column

	// Extra and Maps hold uncompressed NBT documents, nil when absent.
	Extra []byte
	Maps  []byte

	// Trailing holds blobs found after the map blob. They are not written
	// back.
	Trailing [][]byte

	// Dangling lists records dropped during decode because no column owns
	// them. Every entry matches ErrDanglingReference.
	Dangling []error
}

func NewSnapshot(version WorldVersion) *Snapshot {
	return &Snapshot{Version: version, Columns: make(map[ColumnPos]*Column)}
}

func (s *Snapshot) Put(c *Column) {
	s.Columns[c.Pos()] = c
}

func (s *Snapshot) Column(x, z int) *Column {
	return s.Columns[ColumnPos{X: x, Z: z}]
}

// Extent computes the smallest rectangle holding every column.
func (s *Snapshot) Extent() (Extent, error) {
	if len(s.Columns) == 0 {
		return Extent{}, nil
	}
	minX, minZ := math.MaxInt, math.MaxInt
	maxX, maxZ := math.MinInt, math.MinInt
	for pos := range s.Columns {
		minX, maxX = min(minX, pos.X), max(maxX, pos.X)
		minZ, maxZ = min(minZ, pos.Z), max(maxZ, pos.Z)
	}
	width, depth := maxX-minX+1, maxZ-minZ+1
	if minX < math.MinInt16 || minZ < math.MinInt16 || minX > math.MaxInt16 || minZ > math.MaxInt16 ||
		width > math.MaxInt16 || depth > math.MaxInt16 {
		return Extent{}, fmt.Errorf("%w: columns span x %d..%d, z %d..%d", ErrInvalidExtent, minX, maxX, minZ, maxZ)
	}
	return Extent{MinX: int16(minX), MinZ: int16(minZ), Width: int16(width), Depth: int16(depth)}, nil
}

// sortedColumns returns the columns in ascending slot order of e.
func (s *Snapshot) sortedColumns(e Extent) []*Column {
	columns := make([]*Column, 0, len(s.Columns))
	for _, c := range s.Columns {
		columns = append(columns, c)
	}
	sort.Slice(columns, func(one, two int) bool {
		k1, _ := e.Slot(columns[one].X, columns[one].Z)
		k2, _ := e.Slot(columns[two].X, columns[two].Z)
		return k1 < k2
	})
	return columns
}

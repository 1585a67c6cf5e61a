package slime

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/Tnze/go-mc/nbt"
)

// TileRecord is a block bound fixture (a chest, a sign) stored as an NBT
// compound with int x, y and z tags.
type TileRecord struct {
	X, Y, Z int32
	Data    nbt.RawMessage
}

type tileHeader struct {
	X int32 `nbt:"x"`
	Y int32 `nbt:"y"`
	Z int32 `nbt:"z"`
}

// NewTileRecord marshals v into a compound and reads its coordinates.
func NewTileRecord(v any) (*TileRecord, error) {
	raw, err := toCompound(v)
	if err != nil {
		return nil, err
	}
	return TileRecordFromRaw(raw)
}

func TileRecordFromRaw(raw nbt.RawMessage) (*TileRecord, error) {
	var header tileHeader
	if err := raw.Unmarshal(&header); err != nil {
		return nil, fmt.Errorf("slime: reading tile record: %w", err)
	}
	return &TileRecord{X: header.X, Y: header.Y, Z: header.Z, Data: raw}, nil
}

// Column is the position of the column owning the record.
func (t *TileRecord) Column() ColumnPos {
	return ColumnPos{X: int(t.X) >> 4, Z: int(t.Z) >> 4}
}

func (t *TileRecord) Unmarshal(v any) error {
	return t.Data.Unmarshal(v)
}

// MobileRecord is a free moving object stored as an NBT compound with a Pos
// list of three doubles. Mount is the record it rides, if any.
type MobileRecord struct {
	X, Y, Z float64
	Data    nbt.RawMessage
	Mount   *MobileRecord
}

type mobileHeader struct {
	Pos    []float64      `nbt:"Pos"`
	Riding nbt.RawMessage `nbt:"Riding"`
}

func NewMobileRecord(v any) (*MobileRecord, error) {
	raw, err := toCompound(v)
	if err != nil {
		return nil, err
	}
	return MobileRecordFromRaw(raw)
}

func MobileRecordFromRaw(raw nbt.RawMessage) (*MobileRecord, error) {
	header, err := readMobileHeader(raw)
	if err != nil {
		return nil, err
	}
	return &MobileRecord{X: header.Pos[0], Y: header.Pos[1], Z: header.Pos[2], Data: raw}, nil
}

func readMobileHeader(raw nbt.RawMessage) (header mobileHeader, err error) {
	if err = raw.Unmarshal(&header); err != nil {
		err = fmt.Errorf("slime: reading mobile record: %w", err)
		return
	}
	if len(header.Pos) < 3 {
		err = fmt.Errorf("slime: mobile record has %d position components, expected 3", len(header.Pos))
	}
	return
}

func (m *MobileRecord) Column() ColumnPos {
	return ColumnPos{X: int(math.Floor(m.X)) >> 4, Z: int(math.Floor(m.Z)) >> 4}
}

// Riding returns the compound of the record this one rides, if it declares one.
func (m *MobileRecord) Riding() (nbt.RawMessage, bool) {
	header, err := readMobileHeader(m.Data)
	if err != nil || header.Riding.Type != nbt.TagCompound {
		return nbt.RawMessage{}, false
	}
	return header.Riding, true
}

func (m *MobileRecord) Unmarshal(v any) error {
	return m.Data.Unmarshal(v)
}

// withMounts returns the record's compound with its Mount chain written into
// nested Riding tags. Records without a Mount keep their Data unchanged.
func (m *MobileRecord) withMounts() (nbt.RawMessage, error) {
	seen := make(map[*MobileRecord]bool)
	var embed func(r *MobileRecord) (nbt.RawMessage, error)
	embed = func(r *MobileRecord) (nbt.RawMessage, error) {
		if r.Mount == nil {
			return r.Data, nil
		}
		if seen[r] {
			return nbt.RawMessage{}, errors.New("slime: mobile record mount chain loops")
		}
		seen[r] = true
		mount, err := embed(r.Mount)
		if err != nil {
			return nbt.RawMessage{}, err
		}
		var tags map[string]nbt.RawMessage
		if err = r.Data.Unmarshal(&tags); err != nil {
			return nbt.RawMessage{}, fmt.Errorf("slime: reading mobile record: %w", err)
		}
		tags["Riding"] = mount
		return toCompound(tags)
	}
	return embed(m)
}

func toCompound(v any) (raw nbt.RawMessage, err error) {
	data, err := nbt.Marshal(v)
	if err != nil {
		return
	}
	if err = nbt.Unmarshal(data, &raw); err != nil {
		return
	}
	if raw.Type != nbt.TagCompound {
		err = errors.New("slime: record is not an NBT compound")
	}
	return
}

// CompoundList is an NBT list of compounds kept as raw documents. The encoder
// of the nbt package writes list elements by reflection, so RawMessage
// elements would come out as {Type, Data} compounds instead of their content.
type CompoundList []nbt.RawMessage

func (l CompoundList) TagType() byte {
	return nbt.TagList
}

func (l CompoundList) MarshalNBT(w io.Writer) error {
	var header [5]byte
	header[0] = nbt.TagCompound
	binary.BigEndian.PutUint32(header[1:], uint32(len(l)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	for i, m := range l {
		if m.Type != nbt.TagCompound {
			return fmt.Errorf("slime: list element %d has tag type %d, expected a compound", i, m.Type)
		}
		if _, err := w.Write(m.Data); err != nil {
			return err
		}
	}
	return nil
}

type tileList struct {
	Tiles CompoundList `nbt:"tiles"`
}

type mobileList struct {
	Entities CompoundList `nbt:"entities"`
}

type mapList struct {
	Maps CompoundList `nbt:"maps"`
}

// EmptyCompound is the NBT document of a compound without tags.
func EmptyCompound() []byte {
	data, err := nbt.Marshal(struct{}{})
	if err != nil {
		panic("slime: marshalling an empty compound: " + err.Error())
	}
	return data
}

// MarshalMaps builds a map blob document from map item compounds.
func MarshalMaps(maps []nbt.RawMessage) ([]byte, error) {
	return nbt.Marshal(mapList{Maps: orEmpty(maps)})
}

// UnmarshalMaps reads the compounds of a map blob document.
func UnmarshalMaps(data []byte) ([]nbt.RawMessage, error) {
	var list mapList
	if len(data) == 0 {
		return nil, nil
	}
	if err := nbt.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("slime: reading map data: %w", err)
	}
	return []nbt.RawMessage(list.Maps), nil
}

func orEmpty(list []nbt.RawMessage) []nbt.RawMessage {
	if list == nil {
		return []nbt.RawMessage{}
	}
	return list
}

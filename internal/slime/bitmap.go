package slime

import "github.com/willf/bitset"

// Occupancy marks which column slots of an Extent hold stored column data.
// Bit i of the serialized form lives in byte i/8 at position i%8, so slot 0
// is the least significant bit of the first byte.
type Occupancy struct {
	set  *bitset.BitSet
	size int
}

func NewOccupancy(size int) *Occupancy {
	return &Occupancy{set: bitset.New(uint(size)), size: size}
}

// bitmapSize is the number of bytes needed to store size bits.
func bitmapSize(size int) int {
	return (size + 7) / 8
}

// Len is the number of slots covered, occupied or not.
func (o *Occupancy) Len() int {
	return o.size
}

func (o *Occupancy) Set(slot int) {
	o.set.Set(uint(slot))
}

func (o *Occupancy) Test(slot int) bool {
	return slot >= 0 && slot < o.size && o.set.Test(uint(slot))
}

// Slots returns the occupied slots in ascending order.
func (o *Occupancy) Slots() []int {
	var slots []int
	for i, ok := o.set.NextSet(0); ok && int(i) < o.size; i, ok = o.set.NextSet(i + 1) {
		slots = append(slots, int(i))
	}
	return slots
}

// Bytes serializes the bitmap into exactly bitmapSize(Len()) bytes. Unused
// trailing bits are zero.
func (o *Occupancy) Bytes() []byte {
	out := make([]byte, bitmapSize(o.size))
	for _, slot := range o.Slots() {
		out[slot/8] |= 1 << (slot % 8)
	}
	return out
}

func readOccupancy(s *streamReader, width, depth int) (*Occupancy, error) {
	size := width * depth
	raw, err := s.chunk("occupancy bitmap", bitmapSize(size))
	if err != nil {
		return nil, err
	}
	// The set grows with the highest occupied slot.
	o := &Occupancy{set: bitset.New(0), size: size}
	for i, b := range raw {
		if b == 0 {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			// Padding bits past size are ignored.
			if slot := i*8 + bit; b&(1<<bit) != 0 && slot < size {
				o.Set(slot)
			}
		}
	}
	return o, nil
}

package slime

// NibbleArray stores one 4-bit value per voxel of a section, two per byte.
// Even indexes use the low nibble.
type NibbleArray []byte

func NewNibbleArray() NibbleArray {
	return make(NibbleArray, NibbleArraySize)
}

func (n NibbleArray) Get(idx int) uint8 {
	b := n[idx>>1]
	if idx&1 == 1 {
		return b >> 4
	}
	return b & 0xF
}

func (n NibbleArray) Set(idx int, value uint8) {
	i := idx >> 1
	if idx&1 == 1 {
		n[i] = n[i]&0x0F | value<<4
	} else {
		n[i] = n[i]&0xF0 | value&0x0F
	}
}

package slime

// BlockIndex returns the linear index of a voxel inside a section.
func BlockIndex(x, y, z int) int {
	return y<<8 | z<<4 | x
}

// PackBlocks splits 12-bit voxel ids into the on-disk representation: one
// byte holding id>>4 per voxel plus a nibble array holding id&0xF.
func PackBlocks(ids []uint16) (blocks []byte, data NibbleArray) {
	blocks = make([]byte, BlocksPerSection)
	data = NewNibbleArray()
	for idx := 0; idx < BlocksPerSection && idx < len(ids); idx++ {
		id := ids[idx]
		blocks[idx] = byte(id >> 4)
		data.Set(idx, uint8(id&0xF))
	}
	return
}

// UnpackBlocks is the inverse of PackBlocks. When remap is non-nil every
// (id, data) pair is passed through it before being recombined.
func UnpackBlocks(blocks []byte, data NibbleArray, remap func(id, data uint8) (uint8, uint8)) []uint16 {
	ids := make([]uint16, BlocksPerSection)
	for idx := range ids {
		id, meta := blocks[idx], data.Get(idx)
		if remap != nil {
			id, meta = remap(id, meta)
		}
		ids[idx] = uint16(id)<<4 | uint16(meta&0xF)
	}
	return ids
}

package slime

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccupancyRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	extents := []struct{ width, depth int }{
		{0, 0}, {1, 1}, {2, 2}, {3, 5}, {8, 1}, {9, 7}, {31, 17},
	}
	for _, ext := range extents {
		size := ext.width * ext.depth
		o := NewOccupancy(size)
		var want []int
		for slot := 0; slot < size; slot++ {
			if rng.Intn(3) == 0 {
				o.Set(slot)
				want = append(want, slot)
			}
		}

		raw := o.Bytes()
		require.Len(t, raw, (size+7)/8)

		decoded, err := readOccupancy(newStreamReader(bytes.NewReader(raw)), ext.width, ext.depth)
		require.NoError(t, err)
		assert.Equal(t, want, decoded.Slots(), "extent %dx%d", ext.width, ext.depth)
		assert.Equal(t, size, decoded.Len())
	}
}

func TestOccupancyBitOrder(t *testing.T) {
	o := NewOccupancy(10)
	o.Set(0)
	o.Set(3)
	o.Set(9)
	assert.Equal(t, []byte{0b0000_1001, 0b0000_0010}, o.Bytes())
	assert.True(t, o.Test(3))
	assert.False(t, o.Test(4))
	assert.False(t, o.Test(10))
}

func TestOccupancyIgnoresPaddingBits(t *testing.T) {
	decoded, err := readOccupancy(newStreamReader(bytes.NewReader([]byte{0xFF})), 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, decoded.Slots())
}

func TestOccupancyTruncated(t *testing.T) {
	_, err := readOccupancy(newStreamReader(bytes.NewReader([]byte{0x01})), 4, 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncatedInput))

	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.EqualValues(t, 2, fe.Expected)
	assert.EqualValues(t, 1, fe.Actual)
}

func TestOccupancyHugeExtentTruncated(t *testing.T) {
	allocated := allocatedBy(func() {
		_, err := readOccupancy(newStreamReader(bytes.NewReader([]byte{0x01, 0x80})), 32767, 32767)
		require.ErrorIs(t, err, ErrTruncatedInput)
	})
	assert.Less(t, allocated, uint64(16<<20))
}

func TestOccupancySparseHighSlot(t *testing.T) {
	raw := make([]byte, bitmapSize(100*100))
	raw[len(raw)-1] = 0x08
	decoded, err := readOccupancy(newStreamReader(bytes.NewReader(raw)), 100, 100)
	require.NoError(t, err)
	assert.Equal(t, 10000, decoded.Len())
	assert.Equal(t, []int{(len(raw)-1)*8 + 3}, decoded.Slots())
	assert.Equal(t, raw, decoded.Bytes())
}

package slime

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func randomNibbles(rng *rand.Rand) NibbleArray {
	n := NewNibbleArray()
	rng.Read(n)
	return n
}

func randomColumn(rng *rand.Rand, x, z int) *Column {
	c := NewColumn(x, z)
	for i := range c.HeightMap {
		c.HeightMap[i] = rng.Int31n(256) - 10
	}
	rng.Read(c.Biomes)
	for y := range c.Sections {
		if rng.Intn(2) == 0 {
			continue
		}
		s := NewSection()
		for i := range s.Blocks {
			s.Blocks[i] = uint16(rng.Intn(1 << 12))
		}
		if rng.Intn(2) == 0 {
			s.BlockLight = randomNibbles(rng)
		}
		if rng.Intn(2) == 0 {
			s.SkyLight = randomNibbles(rng)
		}
		c.Sections[y] = s
	}
	return c
}

func TestColumnRoundTrip(t *testing.T) {
	rng := newRand(42)
	for i := 0; i < 20; i++ {
		want := randomColumn(rng, rng.Intn(64)-32, rng.Intn(64)-32)

		var out bytes.Buffer
		require.NoError(t, writeColumn(&out, want))

		s := newStreamReader(bytes.NewReader(out.Bytes()))
		got, err := readColumn(s, want.Pos(), nil)
		require.NoError(t, err)
		assert.False(t, s.more(), "column %d left bytes unread", i)

		assert.Equal(t, want.Pos(), got.Pos())
		assert.Equal(t, want.HeightMap, got.HeightMap)
		assert.Equal(t, want.Biomes, got.Biomes)
		assert.Equal(t, want.SectionMask(), got.SectionMask())
		assert.Equal(t, want.Sections, got.Sections)
	}
}

func TestColumnLayout(t *testing.T) {
	c := NewColumn(0, 0)
	c.HeightMap[0] = 0x01020304
	c.Sections[0] = NewSection()
	c.Sections[9] = NewSection()
	c.Sections[9].SkyLight = NewNibbleArray()

	var out bytes.Buffer
	require.NoError(t, writeColumn(&out, c))

	raw := out.Bytes()
	assert.Equal(t, []byte{1, 2, 3, 4}, raw[:4])
	mask := raw[HeightMapSize*4+BiomesSize:][:2]
	assert.Equal(t, []byte{0x01, 0x02}, mask, "low byte first")

	section := 1 + BlocksPerSection + NibbleArraySize + 1
	assert.Len(t, raw, HeightMapSize*4+BiomesSize+2+section+section+NibbleArraySize)
}

func TestColumnRejectsWrongSizes(t *testing.T) {
	c := NewColumn(0, 0)
	c.HeightMap = make([]int32, 10)
	assert.Error(t, writeColumn(&bytes.Buffer{}, c))

	c = NewColumn(0, 0)
	c.Sections[3] = &Section{Blocks: make([]uint16, 100)}
	assert.Error(t, writeColumn(&bytes.Buffer{}, c))

	c = NewColumn(0, 0)
	c.Sections[3] = NewSection()
	c.Sections[3].BlockLight = make(NibbleArray, 5)
	assert.Error(t, writeColumn(&bytes.Buffer{}, c))
}

func TestColumnTruncated(t *testing.T) {
	c := randomColumn(newRand(3), 0, 0)
	c.Sections[0] = NewSection()

	var out bytes.Buffer
	require.NoError(t, writeColumn(&out, c))
	raw := out.Bytes()[:out.Len()-1]

	_, err := readColumn(newStreamReader(bytes.NewReader(raw)), c.Pos(), nil)
	assert.ErrorIs(t, err, ErrTruncatedInput)
}

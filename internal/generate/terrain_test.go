package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astei/slimeworld/internal/slime"
)

func TestGenerateIsDeterministic(t *testing.T) {
	terrain := DefaultTerrain(1234)
	terrain.Radius = 2

	one, err := terrain.Generate()
	require.NoError(t, err)
	two, err := terrain.Generate()
	require.NoError(t, err)
	require.Len(t, one.Columns, 16)
	for pos, c := range one.Columns {
		assert.Equal(t, c.HeightMap, two.Columns[pos].HeightMap)
		assert.Equal(t, c.Sections, two.Columns[pos].Sections)
	}

	terrain.Seed = 99
	other, err := terrain.Generate()
	require.NoError(t, err)
	differs := false
	for pos, c := range one.Columns {
		if !assert.ObjectsAreEqual(c.HeightMap, other.Columns[pos].HeightMap) {
			differs = true
		}
	}
	assert.True(t, differs, "seeds shape the terrain")
}

func TestGeneratedColumnLayers(t *testing.T) {
	terrain := DefaultTerrain(7)
	terrain.Radius = 1
	snap, err := terrain.Generate()
	require.NoError(t, err)
	assert.NotNil(t, snap.Column(-1, -1))
	assert.NotNil(t, snap.Column(0, 0))
	assert.Nil(t, snap.Column(1, 1))

	for _, c := range snap.Columns {
		for z := 0; z < 16; z++ {
			for x := 0; x < 16; x++ {
				top := int(c.HeightMap[z<<4|x]) - 1
				require.Greater(t, top, 3)
				block := func(y int) uint16 { return c.Sections[y>>4].Block(x, y&15, z) >> 4 }
				assert.EqualValues(t, Grass, block(top))
				assert.EqualValues(t, Dirt, block(top-1))
				assert.EqualValues(t, Stone, block(0))
				if above := top + 1; c.Sections[above>>4] != nil {
					assert.Zero(t, block(above))
				}
			}
		}
	}
}

func TestGeneratedWorldEncodes(t *testing.T) {
	terrain := DefaultTerrain(3)
	terrain.Radius = 1
	terrain.Version = slime.V1_9
	snap, err := terrain.Generate()
	require.NoError(t, err)
	extent, err := snap.Extent()
	require.NoError(t, err)
	assert.Equal(t, slime.Extent{MinX: -1, MinZ: -1, Width: 2, Depth: 2}, extent)
}

func TestGenerateRejectsBadSettings(t *testing.T) {
	terrain := DefaultTerrain(1)
	terrain.Radius = 0
	_, err := terrain.Generate()
	assert.Error(t, err)

	terrain = DefaultTerrain(1)
	terrain.Scale = 0
	_, err = terrain.Generate()
	assert.Error(t, err)
}

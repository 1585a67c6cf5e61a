// Package generate builds sample worlds from perlin noise.
package generate

import (
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"

	"github.com/astei/slimeworld/internal/slime"
)

// Legacy block ids.
const (
	Stone = 1
	Grass = 2
	Dirt  = 3
)

const maxHeight = slime.SectionsPerColumn*16 - 1

// Terrain shapes rolling hills of stone under dirt and grass.
type Terrain struct {
	Seed int64

	// Radius is the distance in columns from the origin; the world is
	// 2*Radius columns wide and deep.
	Radius int

	BaseHeight int
	Amplitude  float64
	Scale      float64

	Version slime.WorldVersion
}

func DefaultTerrain(seed int64) Terrain {
	return Terrain{
		Seed:       seed,
		Radius:     4,
		BaseHeight: 60,
		Amplitude:  12,
		Scale:      64,
		Version:    slime.V1_8,
	}
}

func (t Terrain) Generate() (*slime.Snapshot, error) {
	if t.Radius <= 0 {
		return nil, fmt.Errorf("generate: radius must be positive, got %d", t.Radius)
	}
	if t.Scale <= 0 {
		return nil, fmt.Errorf("generate: scale must be positive, got %v", t.Scale)
	}
	// alpha 2, beta 2 and three octaves give smooth hills
	noise := perlin.NewPerlin(2, 2, 3, t.Seed)

	snap := slime.NewSnapshot(t.Version)
	for cz := -t.Radius; cz < t.Radius; cz++ {
		for cx := -t.Radius; cx < t.Radius; cx++ {
			snap.Put(t.column(noise, cx, cz))
		}
	}
	return snap, nil
}

// height is the y of the grass block at world position x, z.
func (t Terrain) height(noise *perlin.Perlin, x, z int) int {
	n := noise.Noise2D(float64(x)/t.Scale, float64(z)/t.Scale)
	h := t.BaseHeight + int(math.Round(n*t.Amplitude))
	return min(max(h, 1), maxHeight)
}

func (t Terrain) column(noise *perlin.Perlin, cx, cz int) *slime.Column {
	c := slime.NewColumn(cx, cz)
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			h := t.height(noise, cx*16+x, cz*16+z)
			c.HeightMap[z<<4|x] = int32(h + 1)
			c.Biomes[z<<4|x] = 1 // plains
			for y := 0; y <= h; y++ {
				id := uint16(Stone)
				switch {
				case y == h:
					id = Grass
				case y >= h-3:
					id = Dirt
				}
				section := c.Sections[y>>4]
				if section == nil {
					section = slime.NewSection()
					section.SkyLight = fullLight()
					c.Sections[y>>4] = section
				}
				section.SetBlock(x, y&15, z, id<<4)
			}
		}
	}
	return c
}

func fullLight() slime.NibbleArray {
	light := slime.NewNibbleArray()
	for i := range light {
		light[i] = 0xFF
	}
	return light
}

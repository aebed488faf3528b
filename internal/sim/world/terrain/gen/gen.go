package gen

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"voxelpump.ai/internal/sim/world/logic/mathx"
)

func FloorDiv(a, b int) int {
	return mathx.FloorDiv(a, b)
}

func Mod(a, b int) int {
	return mathx.Mod(a, b)
}

func Hash2(seed int64, x, z int) uint64 {
	return mathx.Hash2(seed, x, z)
}

// LavaRegionSize is the edge length of the square regions that share one pond liquid.
const LavaRegionSize = 32

type Params struct {
	Seed             int64
	SurfaceY         int
	SpawnClearRadius int
	PondScale        float64
	PondThreshold    float64
	PondMaxDepth     int
	LavaPermille     int
}

// Column describes one generated x/z column. PondDepth liquid cells sit on top
// of the ground, ending at SurfaceY.
type Column struct {
	SurfaceY  int
	PondDepth int
	Lava      bool
}

type Terrain struct {
	p     Params
	noise opensimplex.Noise
}

func New(p Params) *Terrain {
	return &Terrain{
		p:     p,
		noise: opensimplex.NewNormalized(p.Seed),
	}
}

func (t *Terrain) Params() Params { return t.p }

func (t *Terrain) Column(x, z int) Column {
	c := Column{SurfaceY: t.p.SurfaceY}
	if WithinSpawnClear(x, z, t.p.SpawnClearRadius) {
		return c
	}
	c.PondDepth = PondDepth(t.PondNoise(x, z), t.p.PondThreshold, t.p.PondMaxDepth)
	if c.PondDepth > t.p.SurfaceY-1 {
		c.PondDepth = t.p.SurfaceY - 1
	}
	if c.PondDepth > 0 {
		rx := FloorDiv(x, LavaRegionSize)
		rz := FloorDiv(z, LavaRegionSize)
		c.Lava = Hash2(t.p.Seed+7, rx, rz)%1000 < uint64(ClampPermille(t.p.LavaPermille))
	}
	return c
}

// PondNoise returns fractal noise in [0,1] for the column.
func (t *Terrain) PondNoise(x, z int) float64 {
	scale := t.p.PondScale
	if scale <= 0 {
		scale = 0.05
	}
	return octaveNoise(t.noise, float64(x), float64(z), 3, scale, 0.5)
}

// PondDepth maps a noise value onto a pond depth; values under threshold are dry land.
func PondDepth(n, threshold float64, maxDepth int) int {
	if maxDepth <= 0 || n < threshold || threshold >= 1 {
		return 0
	}
	d := 1 + int((n-threshold)/(1-threshold)*float64(maxDepth))
	if d > maxDepth {
		d = maxDepth
	}
	return d
}

func octaveNoise(noise opensimplex.Noise, x, z float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, z*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}

func WithinSpawnClear(x, z, radius int) bool {
	if radius <= 0 {
		return false
	}
	r := int64(radius)
	dx := int64(x)
	dz := int64(z)
	return dx*dx+dz*dz <= r*r
}

func ClampPermille(v int) int {
	if v < 0 {
		return 0
	}
	if v > 1000 {
		return 1000
	}
	return v
}

package store

import (
	"crypto/sha256"
	"encoding/binary"

	genpkg "voxelpump.ai/internal/sim/world/terrain/gen"
)

const ChunkSize = 16

type ChunkKey struct {
	CX int
	CZ int
}

// Chunk is a 16x16 column of Height cells. Every cell carries a palette id and
// a small state byte (furnace lit, liquid level, indicator value).
type Chunk struct {
	CX, CZ int
	Height int
	Blocks []uint16 // len = 16*16*Height
	States []uint8  // same layout as Blocks

	dirty bool
	hash  [32]byte
}

func newChunk(cx, cz, height int) *Chunk {
	n := ChunkSize * ChunkSize * height
	return &Chunk{
		CX:     cx,
		CZ:     cz,
		Height: height,
		Blocks: make([]uint16, n),
		States: make([]uint8, n),
	}
}

func (c *Chunk) index(x, y, z int) int {
	return x + z*ChunkSize + y*ChunkSize*ChunkSize
}

func (c *Chunk) Get(x, y, z int) uint16 {
	return c.Blocks[c.index(x, y, z)]
}

func (c *Chunk) State(x, y, z int) uint8 {
	return c.States[c.index(x, y, z)]
}

// Set replaces the block and clears its state.
func (c *Chunk) Set(x, y, z int, b uint16) {
	i := c.index(x, y, z)
	if c.Blocks[i] == b && c.States[i] == 0 {
		return
	}
	c.Blocks[i] = b
	c.States[i] = 0
	c.dirty = true
}

func (c *Chunk) SetState(x, y, z int, v uint8) {
	i := c.index(x, y, z)
	if c.States[i] == v {
		return
	}
	c.States[i] = v
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, v := range c.Blocks {
			binary.LittleEndian.PutUint16(tmp[:], v)
			h.Write(tmp[:])
		}
		h.Write(c.States)
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

type WorldGen struct {
	Seed      int64
	BoundaryR int // blocks
	Height    int

	Terrain genpkg.Params

	Air             uint16
	Bedrock         uint16
	Stone           uint16
	Dirt            uint16
	Grass           uint16
	Sand            uint16
	Netherrack      uint16
	StationaryWater uint16
	StationaryLava  uint16

	// Nether worlds are generated as netherrack with lava pools only.
	Nether bool
}

type ChunkStore struct {
	Gen    WorldGen
	Chunks map[ChunkKey]*Chunk

	terrain *genpkg.Terrain
}

func NewChunkStore(gen WorldGen) *ChunkStore {
	if gen.Height <= 0 {
		gen.Height = 1
	}
	p := gen.Terrain
	p.Seed = gen.Seed
	return &ChunkStore{
		Gen:     gen,
		Chunks:  map[ChunkKey]*Chunk{},
		terrain: genpkg.New(p),
	}
}

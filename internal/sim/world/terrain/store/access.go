package store

import (
	"sort"

	genpkg "voxelpump.ai/internal/sim/world/terrain/gen"
)

func (s *ChunkStore) InBounds(x, y, z int) bool {
	if y < 0 || y >= s.Gen.Height {
		return false
	}
	if s.Gen.BoundaryR > 0 {
		if x < -s.Gen.BoundaryR || x > s.Gen.BoundaryR || z < -s.Gen.BoundaryR || z > s.Gen.BoundaryR {
			return false
		}
	}
	return true
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.Chunks))
	for k := range s.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

func (s *ChunkStore) locate(x, z int) (*Chunk, int, int) {
	cx := genpkg.FloorDiv(x, ChunkSize)
	cz := genpkg.FloorDiv(z, ChunkSize)
	lx := genpkg.Mod(x, ChunkSize)
	lz := genpkg.Mod(z, ChunkSize)
	return s.GetOrGenChunk(cx, cz), lx, lz
}

func (s *ChunkStore) GetBlock(x, y, z int) uint16 {
	if !s.InBounds(x, y, z) {
		return s.Gen.Air
	}
	ch, lx, lz := s.locate(x, z)
	return ch.Get(lx, y, lz)
}

// SetBlock replaces the block at x,y,z and resets its state. Out of bounds
// writes are dropped.
func (s *ChunkStore) SetBlock(x, y, z int, b uint16) {
	if !s.InBounds(x, y, z) {
		return
	}
	ch, lx, lz := s.locate(x, z)
	ch.Set(lx, y, lz, b)
}

func (s *ChunkStore) GetState(x, y, z int) uint8 {
	if !s.InBounds(x, y, z) {
		return 0
	}
	ch, lx, lz := s.locate(x, z)
	return ch.State(lx, y, lz)
}

func (s *ChunkStore) SetState(x, y, z int, v uint8) {
	if !s.InBounds(x, y, z) {
		return
	}
	ch, lx, lz := s.locate(x, z)
	ch.SetState(lx, y, lz, v)
}

func (s *ChunkStore) GetOrGenChunk(cx, cz int) *Chunk {
	k := ChunkKey{CX: cx, CZ: cz}
	if ch, ok := s.Chunks[k]; ok {
		return ch
	}
	ch := newChunk(cx, cz, s.Gen.Height)
	s.GenerateChunk(ch)
	ch.dirty = true
	_ = ch.Digest()
	s.Chunks[k] = ch
	return ch
}

package store

import (
	"fmt"

	snapv1 "voxelpump.ai/internal/persistence/snapshot"
)

// ExportLoadedChunks converts loaded chunk data into snapshot chunks.
func ExportLoadedChunks(chunks map[ChunkKey]*Chunk, keys []ChunkKey) []snapv1.ChunkV1 {
	out := make([]snapv1.ChunkV1, 0, len(keys))
	for _, k := range keys {
		ch := chunks[k]
		if ch == nil {
			continue
		}
		blocks := make([]uint16, len(ch.Blocks))
		copy(blocks, ch.Blocks)
		states := make([]uint8, len(ch.States))
		copy(states, ch.States)
		out = append(out, snapv1.ChunkV1{
			CX:     k.CX,
			CZ:     k.CZ,
			Height: ch.Height,
			Blocks: blocks,
			States: states,
		})
	}
	return out
}

// ImportChunks rebuilds a chunk store from snapshot chunks.
func ImportChunks(gen WorldGen, chunks []snapv1.ChunkV1) (*ChunkStore, error) {
	store := NewChunkStore(gen)
	want := ChunkSize * ChunkSize * store.Gen.Height
	for _, ch := range chunks {
		if ch.Height != store.Gen.Height {
			return nil, fmt.Errorf("snapshot chunk height mismatch: got %d want %d", ch.Height, store.Gen.Height)
		}
		if len(ch.Blocks) != want || len(ch.States) != want {
			return nil, fmt.Errorf("snapshot chunk %d,%d length mismatch: got %d/%d want %d", ch.CX, ch.CZ, len(ch.Blocks), len(ch.States), want)
		}
		c := newChunk(ch.CX, ch.CZ, ch.Height)
		copy(c.Blocks, ch.Blocks)
		copy(c.States, ch.States)
		_ = c.Digest()
		store.Chunks[ChunkKey{CX: ch.CX, CZ: ch.CZ}] = c
	}
	return store, nil
}

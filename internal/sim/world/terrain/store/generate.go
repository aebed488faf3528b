package store

func (s *ChunkStore) GenerateChunk(ch *Chunk) {
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			wx := ch.CX*ChunkSize + x
			wz := ch.CZ*ChunkSize + z
			s.generateColumn(ch, x, z, wx, wz)
		}
	}
}

func (s *ChunkStore) generateColumn(ch *Chunk, x, z, wx, wz int) {
	col := s.terrain.Column(wx, wz)
	surface := col.SurfaceY
	if surface >= ch.Height {
		surface = ch.Height - 1
	}
	bed := surface - col.PondDepth

	liquid := s.Gen.StationaryWater
	if col.Lava || s.Gen.Nether {
		liquid = s.Gen.StationaryLava
	}

	for y := 0; y <= surface; y++ {
		var b uint16
		switch {
		case y == 0:
			b = s.Gen.Bedrock
		case y > bed:
			b = liquid
		case s.Gen.Nether:
			b = s.Gen.Netherrack
		case col.PondDepth > 0 && y == bed:
			b = s.Gen.Sand
		case y == surface:
			b = s.Gen.Grass
		case y >= surface-3:
			b = s.Gen.Dirt
		default:
			b = s.Gen.Stone
		}
		ch.Blocks[ch.index(x, y, z)] = b
	}
	for y := surface + 1; y < ch.Height; y++ {
		ch.Blocks[ch.index(x, y, z)] = s.Gen.Air
	}
}

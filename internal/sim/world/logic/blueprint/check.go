package blueprint

type BlockGetter func(x, y, z int) string

type PlacementBlock struct {
	Pos   [3]int
	Block string
}

// CheckPlaced reports whether every block of the pattern is present around
// anchor once the pattern is rotated by rotation quarter-turns.
func CheckPlaced(getBlock BlockGetter, blocks []PlacementBlock, anchor [3]int, rotation int) bool {
	if getBlock == nil || len(blocks) == 0 {
		return false
	}
	rot := NormalizeRotation(rotation)
	for _, b := range blocks {
		off := RotateOffset(b.Pos, rot)
		x := anchor[0] + off[0]
		y := anchor[1] + off[1]
		z := anchor[2] + off[2]
		if getBlock(x, y, z) != b.Block {
			return false
		}
	}
	return true
}

package model

type Vec3i struct {
	X int
	Y int
	Z int
}

func V(x, y, z int) Vec3i { return Vec3i{X: x, Y: y, Z: z} }

func FromArray(a [3]int) Vec3i { return Vec3i{X: a[0], Y: a[1], Z: a[2]} }

func (v Vec3i) ToArray() [3]int { return [3]int{v.X, v.Y, v.Z} }

func (v Vec3i) Add(o Vec3i) Vec3i { return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }

// Offset returns the position n steps along dir.
func (v Vec3i) Offset(dir [3]int, n int) Vec3i {
	return Vec3i{X: v.X + dir[0]*n, Y: v.Y + dir[1]*n, Z: v.Z + dir[2]*n}
}

func (v Vec3i) Down(n int) Vec3i { return Vec3i{X: v.X, Y: v.Y - n, Z: v.Z} }

// Less orders positions by X, then Y, then Z.
func (v Vec3i) Less(o Vec3i) bool {
	if v.X != o.X {
		return v.X < o.X
	}
	if v.Y != o.Y {
		return v.Y < o.Y
	}
	return v.Z < o.Z
}

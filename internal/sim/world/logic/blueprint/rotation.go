package blueprint

import "math"

// Rotation is a cardinal quarter-turn around the Y axis.
// Quarter-turn 0 faces +X; each step turns one quarter towards -Z, matching RotateXZ.
type Rotation int

const (
	East  Rotation = 0 // +X
	North Rotation = 1 // -Z
	West  Rotation = 2 // -X
	South Rotation = 3 // +Z
)

// Rotations lists the four cardinal rotations in scan order.
var Rotations = [4]Rotation{East, North, West, South}

// NormalizeRotation converts a client-provided rotation value into a stable
// quarter-turn count in [0,3].
//
// It accepts either quarter-turns (0..3) or degrees (multiples of 90).
func NormalizeRotation(r int) int {
	// Treat large multiples of 90 as degrees.
	if r%90 == 0 && (r > 3 || r < -3) {
		r = r / 90
	}
	r %= 4
	if r < 0 {
		r += 4
	}
	return r
}

// RotationFromYaw snaps a yaw in degrees to the nearest quarter-turn.
func RotationFromYaw(yaw float64) Rotation {
	q := int(math.Floor(yaw/90 + 0.5))
	return Rotation(NormalizeRotation(q))
}

func (r Rotation) norm() Rotation { return Rotation(NormalizeRotation(int(r))) }

func (r Rotation) Yaw() int { return int(r.norm()) * 90 }

func (r Rotation) Left() Rotation     { return Rotation(NormalizeRotation(int(r) + 1)) }
func (r Rotation) Right() Rotation    { return Rotation(NormalizeRotation(int(r) + 3)) }
func (r Rotation) Opposite() Rotation { return Rotation(NormalizeRotation(int(r) + 2)) }

// Vector returns the unit offset the rotation faces.
func (r Rotation) Vector() [3]int {
	return RotateOffset([3]int{1, 0, 0}, int(r.norm()))
}

func (r Rotation) Face() Face {
	switch r.norm() {
	case East:
		return FaceEast
	case North:
		return FaceNorth
	case West:
		return FaceWest
	default:
		return FaceSouth
	}
}

func (r Rotation) String() string { return r.Face().String() }

// RotateXZ rotates an (x,z) offset around the Y axis by rot*90 degrees
// clockwise. rot must be a normalized quarter-turn count in [0,3].
func RotateXZ(x, z, rot int) (rx, rz int) {
	switch rot & 3 {
	case 0:
		return x, z
	case 1:
		return z, -x
	case 2:
		return -x, -z
	default: // 3
		return -z, x
	}
}

func RotateOffset(off [3]int, rot int) [3]int {
	rx, rz := RotateXZ(off[0], off[2], rot)
	return [3]int{rx, off[1], rz}
}

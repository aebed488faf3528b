package blueprint

import "strings"

// Face is one of the six block faces.
type Face uint8

const (
	FaceUp Face = iota
	FaceDown
	FaceNorth
	FaceSouth
	FaceEast
	FaceWest
)

var faceNames = [...]string{"UP", "DOWN", "NORTH", "SOUTH", "EAST", "WEST"}

func (f Face) String() string {
	if int(f) < len(faceNames) {
		return faceNames[f]
	}
	return "UNKNOWN"
}

func ParseFace(s string) (Face, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range faceNames {
		if n == s {
			return Face(i), true
		}
	}
	return 0, false
}

func (f Face) Vector() [3]int {
	switch f {
	case FaceUp:
		return [3]int{0, 1, 0}
	case FaceDown:
		return [3]int{0, -1, 0}
	case FaceNorth:
		return [3]int{0, 0, -1}
	case FaceSouth:
		return [3]int{0, 0, 1}
	case FaceEast:
		return [3]int{1, 0, 0}
	case FaceWest:
		return [3]int{-1, 0, 0}
	}
	return [3]int{}
}

// Rotation returns the cardinal rotation of a horizontal face.
// Up and Down have none.
func (f Face) Rotation() (Rotation, bool) {
	switch f {
	case FaceEast:
		return East, true
	case FaceNorth:
		return North, true
	case FaceWest:
		return West, true
	case FaceSouth:
		return South, true
	}
	return 0, false
}

func (f Face) Opposite() Face {
	switch f {
	case FaceUp:
		return FaceDown
	case FaceDown:
		return FaceUp
	case FaceNorth:
		return FaceSouth
	case FaceSouth:
		return FaceNorth
	case FaceEast:
		return FaceWest
	default:
		return FaceEast
	}
}

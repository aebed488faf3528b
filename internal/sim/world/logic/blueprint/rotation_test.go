package blueprint

import "testing"

func TestNormalizeRotation_AcceptsDegreesAndQuarterTurns(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{in: 0, want: 0},
		{in: 1, want: 1},
		{in: 2, want: 2},
		{in: 3, want: 3},
		{in: 4, want: 0},
		{in: -1, want: 3},
		{in: 90, want: 1},
		{in: 180, want: 2},
		{in: 270, want: 3},
		{in: 360, want: 0},
		{in: -90, want: 3},
	}
	for _, c := range cases {
		if got := NormalizeRotation(c.in); got != c.want {
			t.Fatalf("NormalizeRotation(%d)=%d want %d", c.in, got, c.want)
		}
	}
}

func TestRotationVectors(t *testing.T) {
	cases := []struct {
		r    Rotation
		want [3]int
		face Face
	}{
		{East, [3]int{1, 0, 0}, FaceEast},
		{North, [3]int{0, 0, -1}, FaceNorth},
		{West, [3]int{-1, 0, 0}, FaceWest},
		{South, [3]int{0, 0, 1}, FaceSouth},
	}
	for _, c := range cases {
		if got := c.r.Vector(); got != c.want {
			t.Fatalf("%v.Vector()=%v want %v", c.r, got, c.want)
		}
		if got := c.r.Face(); got != c.face {
			t.Fatalf("%v.Face()=%v want %v", c.r, got, c.face)
		}
		if got := c.face.Vector(); got != c.want {
			t.Fatalf("%v.Vector()=%v want %v", c.face, got, c.want)
		}
		back, ok := c.face.Rotation()
		if !ok || back != c.r {
			t.Fatalf("%v.Rotation()=%v,%v want %v", c.face, back, ok, c.r)
		}
	}
}

func TestRotationDerivations(t *testing.T) {
	// Facing east (+X) with +Z pointing south: left is north, right is south.
	if got := East.Left(); got != North {
		t.Fatalf("East.Left()=%v", got)
	}
	if got := East.Right(); got != South {
		t.Fatalf("East.Right()=%v", got)
	}
	for _, r := range Rotations {
		if r.Opposite().Opposite() != r {
			t.Fatalf("double opposite of %v", r)
		}
		if r.Left().Right() != r {
			t.Fatalf("left/right not inverse for %v", r)
		}
		v, o := r.Vector(), r.Opposite().Vector()
		if v[0]+o[0] != 0 || v[2]+o[2] != 0 {
			t.Fatalf("opposite vector mismatch for %v", r)
		}
	}
}

func TestRotationFromYaw(t *testing.T) {
	cases := []struct {
		yaw  float64
		want Rotation
	}{
		{0, East}, {44, East}, {46, North}, {90, North}, {180, West}, {-90, South}, {271, South}, {-179, West},
	}
	for _, c := range cases {
		if got := RotationFromYaw(c.yaw); got != c.want {
			t.Fatalf("RotationFromYaw(%v)=%v want %v", c.yaw, got, c.want)
		}
		if got := RotationFromYaw(float64(c.want.Yaw())); got != c.want {
			t.Fatalf("yaw round trip %v", c.want)
		}
	}
}

func TestFaceParseAndOpposite(t *testing.T) {
	f, ok := ParseFace(" up ")
	if !ok || f != FaceUp {
		t.Fatalf("ParseFace up: %v %v", f, ok)
	}
	if _, ok := ParseFace("sideways"); ok {
		t.Fatalf("unexpected parse")
	}
	if _, ok := FaceDown.Rotation(); ok {
		t.Fatalf("down has no rotation")
	}
	if FaceNorth.Opposite() != FaceSouth || FaceUp.Opposite() != FaceDown || FaceWest.Opposite() != FaceEast {
		t.Fatalf("opposite faces wrong")
	}
}

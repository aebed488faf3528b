package ids

import "testing"

func TestContainerIDRoundTrip(t *testing.T) {
	id := ContainerID("FURNACE", 12, 64, -9)
	typ, x, y, z, ok := ParseContainerID(id)
	if !ok {
		t.Fatalf("ParseContainerID failed for %q", id)
	}
	if typ != "FURNACE" || x != 12 || y != 64 || z != -9 {
		t.Fatalf("unexpected parse result: typ=%q x=%d y=%d z=%d", typ, x, y, z)
	}
}

func TestParseContainerIDRejectsInvalid(t *testing.T) {
	tests := []string{
		"",
		"FURNACE",
		"FURNACE@1,2",
		"FURNACE@1,2,x",
	}
	for _, tc := range tests {
		if _, _, _, _, ok := ParseContainerID(tc); ok {
			t.Fatalf("expected parse failure for %q", tc)
		}
	}
}

func TestLandIDRoundTrip(t *testing.T) {
	n, ok := ParseLandNum(LandID(42))
	if !ok || n != 42 {
		t.Fatalf("land id round trip: %d %v", n, ok)
	}
	if _, ok := ParseLandNum("LAND_"); ok {
		t.Fatalf("expected parse failure")
	}
	if MachineIDAt(1, 2, 3) != "PUMP@1,2,3" {
		t.Fatalf("unexpected machine id %q", MachineIDAt(1, 2, 3))
	}
}

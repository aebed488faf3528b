package model

import "testing"

func TestContainerSlots(t *testing.T) {
	c := NewContainer("FURNACE", V(1, 2, 3))
	if !c.Slot(SlotFeed).Empty() {
		t.Fatalf("fresh container should be empty")
	}
	c.SetSlot(SlotFeed, "WOOD", 3)
	if got := c.Slot(SlotFeed); got.Item != "WOOD" || got.Count != 3 {
		t.Fatalf("unexpected slot: %#v", got)
	}
	c.SetSlot(SlotFeed, "WOOD", 0)
	if !c.Slot(SlotFeed).Empty() {
		t.Fatalf("zero count should clear the slot")
	}
	typ, pos, ok := ParseContainerID(c.ID())
	if !ok || typ != "FURNACE" || pos != V(1, 2, 3) {
		t.Fatalf("container id round trip: %q %v %v", typ, pos, ok)
	}
}

func TestLandClaimContains(t *testing.T) {
	c := &LandClaim{Owner: "A1", Anchor: V(0, 0, 0), Radius: 2, Members: map[string]bool{"A2": true}}
	if !c.Contains(V(2, 50, -2)) || c.Contains(V(3, 0, 0)) {
		t.Fatalf("contains mismatch")
	}
	if !c.IsMember("A1") || !c.IsMember("A2") || c.IsMember("A3") || c.IsMember("") {
		t.Fatalf("membership mismatch")
	}
}

func TestVecOffset(t *testing.T) {
	p := V(1, 5, 1).Offset([3]int{0, 0, -1}, 3)
	if p != V(1, 5, -2) {
		t.Fatalf("offset: %v", p)
	}
	if V(1, 5, 1).Down(2) != V(1, 3, 1) {
		t.Fatalf("down mismatch")
	}
	if !V(0, 9, 9).Less(V(1, 0, 0)) || V(1, 0, 0).Less(V(1, 0, 0)) {
		t.Fatalf("less mismatch")
	}
}

package worldtest

import "testing"

func TestDeterminism_FixedLeversSameDigest(t *testing.T) {
	build := func() *Harness {
		h := newHarness(t, nil)
		owner(h, "A1")
		from, to := basin(14)
		h.Fill(from, to, "STATIONARY_WATER")
		h.BuildPump(eastSite)
		return h
	}
	h1, h2 := build(), build()

	for i := 0; i < 1000; i++ {
		if i == 0 {
			if !h1.Lever("A1", eastSite) || !h2.Lever("A1", eastSite) {
				t.Fatalf("pump not detected")
			}
		}
		tick := h1.W.CurrentTick()
		h1.StepNoop()
		h2.StepNoop()
		if d1, d2 := h1.W.StateDigest(tick), h2.W.StateDigest(tick); d1 != d2 {
			t.Fatalf("digest mismatch at tick %d: %s vs %s", tick, d1, d2)
		}
	}
	if len(h1.W.Pumps()) != 0 {
		t.Fatalf("pump should have finished: %#v", h1.W.Pumps())
	}
	if a, b := len(h1.Audits("")), len(h2.Audits("")); a != b {
		t.Fatalf("audit streams diverged: %d vs %d", a, b)
	}
}

func TestDeterminism_ActivationChangesDigest(t *testing.T) {
	h := newHarness(t, nil)
	owner(h, "A1")
	h.BuildPump(eastSite)

	before := h.W.StateDigest(0)
	h.Lever("A1", eastSite)
	if after := h.W.StateDigest(0); after == before {
		t.Fatalf("activation should change the digest")
	}
}

package engine

import (
	"errors"
	"testing"

	"fracturelab/server/internal/geom"
)

func TestPieceResolution(t *testing.T) {
	e := New(3)
	ball := e.AddBall(geom.Vec3{X: 1}, 0.5)
	pebble := e.AddPebble(7, geom.Vec3{X: 2}, 0.3)

	cases := []struct {
		name   string
		ref    PieceRef
		wantOK bool
	}{
		{name: "ball resolves", ref: PieceRef{Kind: PieceBall, ID: ball.ID}, wantOK: true},
		{name: "pebble resolves", ref: PieceRef{Kind: PiecePebble, ID: pebble.ID}, wantOK: true},
		{name: "wrong kind misses", ref: PieceRef{Kind: PieceBall, ID: pebble.ID}, wantOK: false},
		{name: "unknown id misses", ref: PieceRef{Kind: PieceBall, ID: 999}, wantOK: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := e.Piece(tc.ref)
			if ok != tc.wantOK {
				t.Fatalf("Piece(%+v) ok=%v, want %v", tc.ref, ok, tc.wantOK)
			}
		})
	}
}

func TestDeletionBreaksResolution(t *testing.T) {
	e := New(3)
	ball := e.AddBall(geom.Vec3{}, 0.5)
	ref := PieceRef{Kind: PieceBall, ID: ball.ID}

	if _, ok := e.Piece(ref); !ok {
		t.Fatal("ball should resolve before deletion")
	}
	if !e.DeleteBall(ball.ID) {
		t.Fatal("DeleteBall reported miss for live ball")
	}
	if _, ok := e.Piece(ref); ok {
		t.Fatal("ball still resolves after deletion")
	}
	if e.DeleteBall(ball.ID) {
		t.Fatal("second DeleteBall should report miss")
	}
}

func TestStepFiresTensileBreak(t *testing.T) {
	e := New(3)
	a := e.AddBall(geom.Vec3{X: 0}, 0.5)
	b := e.AddBall(geom.Vec3{X: 1}, 0.5)
	c := e.AddContact(
		PieceRef{Kind: PieceBall, ID: a.ID},
		PieceRef{Kind: PieceBall, ID: b.ID},
		ModelContactBond,
	)
	c.Strength = 0.1

	var events []BondBreakEvent
	e.SetBondBreakHook(func(ev BondBreakEvent) error {
		events = append(events, ev)
		return nil
	})

	var steps []uint64
	e.SetStepHook(func(step uint64) { steps = append(steps, step) })

	// Touching grains, gap 0: no break.
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("unexpected break events: %+v", events)
	}

	// Pull the grains apart beyond the strength threshold.
	b.Pos = geom.Vec3{X: 1.2}
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("want exactly one break event, got %d", len(events))
	}
	ev := events[0]
	if ev.ContactID != c.ID || ev.Element != -1 || ev.Code != FailureTensile {
		t.Fatalf("unexpected event %+v", ev)
	}
	if c.Bonded {
		t.Fatal("contact still bonded after break")
	}

	// Broken bonds never fire again.
	b.Pos = geom.Vec3{X: 2}
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("break event fired twice: %+v", events)
	}

	if len(steps) != 3 || steps[0] != 1 || steps[2] != 3 {
		t.Fatalf("step hook sequence %v", steps)
	}
}

func TestStepFiresShearBreak(t *testing.T) {
	e := New(3)
	a := e.AddBall(geom.Vec3{X: 0}, 0.5)
	b := e.AddBall(geom.Vec3{X: 1}, 0.5)
	c := e.AddContact(
		PieceRef{Kind: PieceBall, ID: a.ID},
		PieceRef{Kind: PieceBall, ID: b.ID},
		ModelParallelBond,
	)
	c.Shear = 0.05

	var got []BondBreakEvent
	e.SetBondBreakHook(func(ev BondBreakEvent) error {
		got = append(got, ev)
		return nil
	})

	// Slide the second grain sideways past the slip threshold.
	b.Pos = geom.Vec3{X: 1, Y: 0.1}
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(got) != 1 || got[0].Code != FailureShear {
		t.Fatalf("want one shear event, got %+v", got)
	}
}

func TestFlatJointElementsBreakIndividually(t *testing.T) {
	e := New(3)
	a := e.AddBall(geom.Vec3{X: 0}, 0.5)
	b := e.AddBall(geom.Vec3{X: 1}, 0.5)
	c := e.AddContact(
		PieceRef{Kind: PieceBall, ID: a.ID},
		PieceRef{Kind: PieceBall, ID: b.ID},
		ModelFlatJoint,
	)
	c.Strength = 0.1
	c.Elements = makeElements(3, a.Pos, b.Pos, 0.5)

	var got []BondBreakEvent
	e.SetBondBreakHook(func(ev BondBreakEvent) error {
		got = append(got, ev)
		return nil
	})

	b.Pos = geom.Vec3{X: 1.5}
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want one event per element, got %d", len(got))
	}
	seen := map[int]bool{}
	for _, ev := range got {
		if ev.ContactID != c.ID {
			t.Fatalf("wrong contact in %+v", ev)
		}
		seen[ev.Element] = true
	}
	for i := 0; i < 3; i++ {
		if !seen[i] {
			t.Fatalf("element %d never broke: %+v", i, got)
		}
	}
	if c.Bonded {
		t.Fatal("contact still bonded with all elements broken")
	}
}

func TestBreakHookErrorAbortsStep(t *testing.T) {
	e := New(3)
	a := e.AddBall(geom.Vec3{X: 0}, 0.5)
	b := e.AddBall(geom.Vec3{X: 1}, 0.5)
	c := e.AddContact(
		PieceRef{Kind: PieceBall, ID: a.ID},
		PieceRef{Kind: PieceBall, ID: b.ID},
		ModelContactBond,
	)
	c.Strength = 0.1

	sentinel := errors.New("unclassifiable event")
	e.SetBondBreakHook(func(BondBreakEvent) error { return sentinel })

	ticked := false
	e.SetStepHook(func(uint64) { ticked = true })

	b.Pos = geom.Vec3{X: 2}
	err := e.Step()
	if !errors.Is(err, sentinel) {
		t.Fatalf("Step error = %v, want wrapped sentinel", err)
	}
	if ticked {
		t.Fatal("step hook fired despite aborted step")
	}
}

func TestVanishedEndStopsBreakChecks(t *testing.T) {
	e := New(3)
	a := e.AddBall(geom.Vec3{X: 0}, 0.5)
	b := e.AddBall(geom.Vec3{X: 1}, 0.5)
	c := e.AddContact(
		PieceRef{Kind: PieceBall, ID: a.ID},
		PieceRef{Kind: PieceBall, ID: b.ID},
		ModelContactBond,
	)
	c.Strength = 0.1

	fired := 0
	e.SetBondBreakHook(func(BondBreakEvent) error { fired++; return nil })

	e.DeleteBall(b.ID)
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if fired != 0 {
		t.Fatalf("break fired for contact with vanished end")
	}
	if c.Bonded {
		t.Fatal("contact should unbond when an end vanishes")
	}
}

func TestGrainFacetGap(t *testing.T) {
	e := New(3)
	ball := e.AddBall(geom.Vec3{X: 0}, 0.5)
	facet := e.AddFacet(1, geom.Triangle{
		A: geom.Vec3{X: 1, Y: -1, Z: -1},
		B: geom.Vec3{X: 1, Y: 1, Z: -1},
		C: geom.Vec3{X: 1, Y: 0, Z: 1},
	})
	c := e.AddContact(
		PieceRef{Kind: PieceBall, ID: ball.ID},
		PieceRef{Kind: PieceFacet, ID: facet.ID},
		ModelContactBond,
	)

	sep, ok := e.separation(c)
	if !ok {
		t.Fatal("separation failed for live ends")
	}
	if gap := e.contactGap(c, sep); gap != 0.5 {
		t.Fatalf("grain-facet gap = %v, want 0.5", gap)
	}
}

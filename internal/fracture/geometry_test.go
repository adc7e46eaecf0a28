package fracture

import (
	"math"
	"testing"

	"fracturelab/server/internal/engine"
	"fracturelab/server/internal/geom"
)

func ballRef(id uint64) engine.PieceRef {
	return engine.PieceRef{Kind: engine.PieceBall, ID: id}
}

func TestSizeOf(t *testing.T) {
	e := newTestEngine()
	small := e.AddBall(geom.Vec3{X: 0}, 0.3)
	big := e.AddBall(geom.Vec3{X: 1}, 0.5)

	t.Run("contact bond uses smallest radius", func(t *testing.T) {
		c := e.AddContact(ballRef(small.ID), ballRef(big.ID), engine.ModelContactBond)
		size, ok := sizeOf(e, KindContactBonded, c, -1)
		if !ok || size != 0.6 {
			t.Fatalf("size = %v ok=%v, want 0.6", size, ok)
		}
	})

	t.Run("parallel bond uses bond radius", func(t *testing.T) {
		c := e.AddContact(ballRef(small.ID), ballRef(big.ID), engine.ModelParallelBond)
		c.BondRadius = 0.4
		size, ok := sizeOf(e, KindParallelBonded, c, -1)
		if !ok || size != 0.8 {
			t.Fatalf("size = %v ok=%v, want 0.8", size, ok)
		}
	})

	t.Run("contact bond against facet uses grain radius", func(t *testing.T) {
		facet := e.AddFacet(1, geom.Triangle{
			A: geom.Vec3{X: 2, Y: -1, Z: -1},
			B: geom.Vec3{X: 2, Y: 1, Z: -1},
			C: geom.Vec3{X: 2, Y: 0, Z: 1},
		})
		c := e.AddContact(ballRef(big.ID), engine.PieceRef{Kind: engine.PieceFacet, ID: facet.ID}, engine.ModelContactBond)
		size, ok := sizeOf(e, KindContactBonded, c, -1)
		if !ok || size != 1.0 {
			t.Fatalf("size = %v ok=%v, want 1.0", size, ok)
		}
	})

	t.Run("flat joint derives disk diameter from element area", func(t *testing.T) {
		c := e.AddContact(ballRef(small.ID), ballRef(big.ID), engine.ModelFlatJoint)
		c.Elements = []engine.FlatJointElement{{Area: math.Pi, Bonded: true}}
		size, ok := sizeOf(e, KindFlatJointed, c, 0)
		if !ok || math.Abs(size-2) > 1e-9 {
			t.Fatalf("size = %v ok=%v, want 2", size, ok)
		}
	})

	t.Run("flat joint element out of range", func(t *testing.T) {
		c := e.AddContact(ballRef(small.ID), ballRef(big.ID), engine.ModelFlatJoint)
		if _, ok := sizeOf(e, KindFlatJointed, c, 3); ok {
			t.Fatal("expected miss for out-of-range element")
		}
	})
}

func TestFlatJointSizeIn2D(t *testing.T) {
	e := engine.New(2)
	a := e.AddBall(geom.Vec3{X: 0}, 0.5)
	b := e.AddBall(geom.Vec3{X: 1}, 0.5)
	c := e.AddContact(ballRef(a.ID), ballRef(b.ID), engine.ModelFlatJoint)
	c.Elements = []engine.FlatJointElement{{Area: 0.25, Bonded: true}}

	// In 2-D the element "area" is a length and passes through unchanged.
	size, ok := sizeOf(e, KindFlatJointed, c, 0)
	if !ok || size != 0.25 {
		t.Fatalf("size = %v ok=%v, want 0.25", size, ok)
	}
}

func TestGrainGrainRefresh(t *testing.T) {
	e := newTestEngine()
	a := e.AddBall(geom.Vec3{X: 0}, 0.5)
	b := e.AddBall(geom.Vec3{X: 2}, 0.5)
	src := &grainGrainSource{a: ballRef(a.ID), b: ballRef(b.ID)}

	p, live := src.refresh(e)
	if !live {
		t.Fatal("refresh reported dead parents")
	}
	if math.Abs(p.gap-1.0) > 1e-9 {
		t.Fatalf("gap = %v, want 1.0", p.gap)
	}
	if math.Abs(p.normal.X-1) > 1e-9 {
		t.Fatalf("normal = %+v, want +X", p.normal)
	}
	// Position sits mid-gap along the line of centers.
	if math.Abs(p.pos.X-1.0) > 1e-9 {
		t.Fatalf("position = %+v, want x=1", p.pos)
	}
}

func TestGrainGrainDegenerateNormal(t *testing.T) {
	e := newTestEngine()
	a := e.AddBall(geom.Vec3{X: 0}, 0.5)
	b := e.AddBall(geom.Vec3{X: 1e-9}, 0.5)
	src := &grainGrainSource{a: ballRef(a.ID), b: ballRef(b.ID)}

	p, live := src.refresh(e)
	if !live {
		t.Fatal("refresh reported dead parents")
	}
	if p.normal != geom.UnitZ {
		t.Fatalf("normal = %+v, want +Z fallback", p.normal)
	}
}

func TestGrainGrainLiveness(t *testing.T) {
	e := newTestEngine()
	a := e.AddBall(geom.Vec3{X: 0}, 0.5)
	b := e.AddBall(geom.Vec3{X: 2}, 0.5)
	src := &grainGrainSource{a: ballRef(a.ID), b: ballRef(b.ID)}

	e.DeleteBall(b.ID)
	if _, live := src.refresh(e); live {
		t.Fatal("refresh still live after parent deletion")
	}
	_ = a
}

func TestGrainFacetRefresh(t *testing.T) {
	e := newTestEngine()
	ball := e.AddBall(geom.Vec3{X: 0}, 0.5)
	facet := e.AddFacet(1, geom.Triangle{
		A: geom.Vec3{X: 1.5, Y: -2, Z: -2},
		B: geom.Vec3{X: 1.5, Y: 2, Z: -2},
		C: geom.Vec3{X: 1.5, Y: 0, Z: 2},
	})
	src := &grainFacetSource{grain: ballRef(ball.ID), facet: engine.PieceRef{Kind: engine.PieceFacet, ID: facet.ID}}

	p, live := src.refresh(e)
	if !live {
		t.Fatal("refresh reported dead parents")
	}
	if math.Abs(p.gap-1.0) > 1e-9 {
		t.Fatalf("gap = %v, want 1.0", p.gap)
	}
	if math.Abs(p.normal.X-1) > 1e-9 {
		t.Fatalf("normal = %+v, want +X", p.normal)
	}

	e.DeleteFacet(facet.ID)
	if _, live := src.refresh(e); live {
		t.Fatal("refresh still live after facet deletion")
	}
}

func TestFlatJointLiveness(t *testing.T) {
	e := newTestEngine()
	a := e.AddBall(geom.Vec3{X: 0}, 0.5)
	b := e.AddBall(geom.Vec3{X: 1}, 0.5)
	c := e.AddContact(ballRef(a.ID), ballRef(b.ID), engine.ModelFlatJoint)
	c.Elements = []engine.FlatJointElement{
		{Area: 0.1, Centroid: geom.Vec3{X: 0.5}, Normal: geom.Vec3{X: 1}, Gap: 0.01, Bonded: true},
	}
	src := &flatJointSource{contactID: c.ID, element: 0}

	p, live := src.refresh(e)
	if !live {
		t.Fatal("refresh reported dead element")
	}
	if p.pos.X != 0.5 || p.gap != 0.01 {
		t.Fatalf("pose = %+v", p)
	}

	// Swapping the contact model kills the source even though the contact
	// itself survives.
	e.ReplaceContactModel(c.ID, engine.ModelLinear)
	if _, live := src.refresh(e); live {
		t.Fatal("refresh still live after model replacement")
	}

	e.ReplaceContactModel(c.ID, engine.ModelFlatJoint)
	if _, live := src.refresh(e); !live {
		t.Fatal("refresh dead after model restored")
	}

	e.RemoveContact(c.ID)
	if _, live := src.refresh(e); live {
		t.Fatal("refresh still live after contact removal")
	}
}

// newTestEngine builds the engine used across the geometry tests.
func newTestEngine() *engine.Engine {
	return engine.New(3)
}

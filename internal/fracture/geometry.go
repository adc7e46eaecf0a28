package fracture

import (
	"math"

	"fracturelab/server/internal/engine"
	"fracturelab/server/internal/geom"
)

// degenerateTol scales the grain radius into the center-distance below which
// no separation direction can be trusted and the normal falls back to +Z.
const degenerateTol = 1e-6

type pose struct {
	pos    geom.Vec3
	normal geom.Vec3
	gap    float64
}

// source is the per-kind geometry capability behind a record: refresh the
// pose from the live parents, or report that they are gone. Implementations
// hold only weak references.
type source interface {
	refresh(res engine.Resolver) (pose, bool)
}

// sizeOf derives the frozen crack size from the originating contact at the
// moment of failure. Diameter in 3-D, length in 2-D for flat-joint
// elements; twice the bond radius for parallel/smooth joints; twice the
// smallest grain radius for contact bonds.
func sizeOf(res engine.Resolver, kind Kind, c *engine.Contact, element int) (float64, bool) {
	switch kind {
	case KindFlatJointed:
		if element < 0 || element >= len(c.Elements) {
			return 0, false
		}
		el := c.Elements[element]
		if res.Dimension() == 2 {
			return el.Area, true
		}
		return geom.DiskDiameter(el.Area), true
	case KindParallelBonded, KindSmoothJointed:
		return 2 * c.BondRadius, true
	case KindContactBonded:
		p1, ok := res.Piece(c.End1)
		if !ok {
			return 0, false
		}
		if c.End2.Kind == engine.PieceFacet {
			return 2 * p1.Radius, true
		}
		p2, ok := res.Piece(c.End2)
		if !ok {
			return 0, false
		}
		return 2 * math.Min(p1.Radius, p2.Radius), true
	}
	return 0, false
}

// sourceFor picks the geometry source for a new record. Flat-jointed cracks
// track their interface element through the originating contact; everything
// else tracks the two pieces directly.
func sourceFor(kind Kind, c *engine.Contact, element int) source {
	if kind == KindFlatJointed {
		return &flatJointSource{contactID: c.ID, element: element}
	}
	if c.End2.Kind == engine.PieceFacet {
		return &grainFacetSource{grain: c.End1, facet: c.End2}
	}
	return &grainGrainSource{a: c.End1, b: c.End2}
}

// grainGrainSource refreshes from two spherical pieces: gap is the center
// distance minus both radii, the position sits midpoint-biased along the
// line of centers, and the normal points from the first piece to the
// second.
type grainGrainSource struct {
	a engine.PieceRef
	b engine.PieceRef
}

func (s *grainGrainSource) refresh(res engine.Resolver) (pose, bool) {
	p1, ok := res.Piece(s.a)
	if !ok {
		return pose{}, false
	}
	p2, ok := res.Piece(s.b)
	if !ok {
		return pose{}, false
	}

	sep := p2.Pos.Sub(p1.Pos)
	dist := sep.Norm()
	gap := dist - (p1.Radius + p2.Radius)

	minR := math.Min(p1.Radius, p2.Radius)
	normal := geom.UnitZ
	if dist > degenerateTol*minR {
		normal = sep.Scale(1 / dist)
	}

	return pose{
		pos:    p1.Pos.Add(normal.Scale(p1.Radius + gap/2)),
		normal: normal,
		gap:    gap,
	}, true
}

// grainFacetSource substitutes the nearest point on the facet for the
// second grain center.
type grainFacetSource struct {
	grain engine.PieceRef
	facet engine.PieceRef
}

func (s *grainFacetSource) refresh(res engine.Resolver) (pose, bool) {
	p, ok := res.Piece(s.grain)
	if !ok {
		return pose{}, false
	}
	f, ok := res.Facet(s.facet)
	if !ok {
		return pose{}, false
	}

	nearest := f.Tri.ClosestPoint(p.Pos)
	sep := nearest.Sub(p.Pos)
	dist := sep.Norm()
	gap := dist - p.Radius

	normal := geom.UnitZ
	if dist > degenerateTol*p.Radius {
		normal = sep.Scale(1 / dist)
	}

	return pose{
		pos:    p.Pos.Add(normal.Scale(p.Radius + gap/2)),
		normal: normal,
		gap:    gap,
	}, true
}

// flatJointSource reads the live element pose straight from the originating
// contact. Liveness requires the contact to still exist and to still carry
// the flat-joint model; contacts get re-resolved with other models upstream.
type flatJointSource struct {
	contactID uint64
	element   int
}

func (s *flatJointSource) refresh(res engine.Resolver) (pose, bool) {
	c, ok := res.Contact(s.contactID)
	if !ok || c.Model != engine.ModelFlatJoint {
		return pose{}, false
	}
	if s.element < 0 || s.element >= len(c.Elements) {
		return pose{}, false
	}
	el := c.Elements[s.element]
	return pose{pos: el.Centroid, normal: el.Normal, gap: el.Gap}, true
}

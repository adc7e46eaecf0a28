package engine

import (
	"math"

	"fracturelab/server/internal/geom"
)

// SpecimenConfig controls the synthetic bonded assembly seeded for the demo
// server and the scenario tests.
type SpecimenConfig struct {
	Balls             int     `yaml:"balls" json:"balls"`
	Radius            float64 `yaml:"radius" json:"radius"`
	Spacing           float64 `yaml:"spacing" json:"spacing"`
	Strength          float64 `yaml:"strength" json:"strength"`
	Shear             float64 `yaml:"shear" json:"shear"`
	FlatJointElements int     `yaml:"flatJointElements" json:"flatJointElements"`
}

// DefaultSpecimenConfig returns the assembly used when no config overrides
// are supplied.
func DefaultSpecimenConfig() SpecimenConfig {
	return SpecimenConfig{
		Balls:             12,
		Radius:            0.5,
		Spacing:           1.0,
		Strength:          0.05,
		Shear:             0.2,
		FlatJointElements: 4,
	}
}

// Normalized clamps nonsensical values back to the defaults.
func (c SpecimenConfig) Normalized() SpecimenConfig {
	def := DefaultSpecimenConfig()
	if c.Balls < 2 {
		c.Balls = def.Balls
	}
	if c.Radius <= 0 {
		c.Radius = def.Radius
	}
	if c.Spacing <= 0 {
		c.Spacing = def.Spacing
	}
	if c.Strength <= 0 {
		c.Strength = def.Strength
	}
	if c.Shear <= 0 {
		c.Shear = def.Shear
	}
	if c.FlatJointElements < 1 {
		c.FlatJointElements = def.FlatJointElements
	}
	return c
}

// BuildSpecimen seeds the engine with a bonded chain exercising every
// contact model: contact bonds, parallel bonds, a smooth joint, one
// flat-jointed contact, a two-pebble clump, and a wall facet bonded to the
// last grain. Bond strengths are staggered so failures spread over many
// steps instead of cascading at once.
func BuildSpecimen(e *Engine, cfg SpecimenConfig) {
	cfg = cfg.Normalized()

	half := float64(cfg.Balls-1) * cfg.Spacing / 2
	balls := make([]*Ball, 0, cfg.Balls)
	for i := 0; i < cfg.Balls; i++ {
		x := float64(i)*cfg.Spacing - half
		balls = append(balls, e.AddBall(geom.Vec3{X: x}, cfg.Radius))
	}

	models := []BondModel{ModelContactBond, ModelParallelBond, ModelSmoothJoint}
	for i := 0; i+1 < len(balls); i++ {
		a := PieceRef{Kind: PieceBall, ID: balls[i].ID}
		b := PieceRef{Kind: PieceBall, ID: balls[i+1].ID}

		if i == len(balls)/2 {
			c := e.AddContact(a, b, ModelFlatJoint)
			c.Strength = cfg.Strength * float64(i+1)
			c.Shear = cfg.Shear
			c.Elements = makeElements(cfg.FlatJointElements, balls[i].Pos, balls[i+1].Pos, cfg.Radius)
			continue
		}

		c := e.AddContact(a, b, models[i%len(models)])
		c.Strength = cfg.Strength * float64(i+1)
		c.Shear = cfg.Shear * float64(i+1)
		c.BondRadius = cfg.Radius * 0.8
	}

	// Two-pebble clump hanging off the first grain, placed exactly touching
	// so the bonds start with zero gap. The slight Y tilt gives lateral
	// loading something to shear.
	clumpID := uint64(1)
	clumpDir, _ := geom.Vec3{X: -1, Y: 0.25}.Unit()
	p1pos := balls[0].Pos.Add(clumpDir.Scale(cfg.Radius + cfg.Radius*0.7))
	p2pos := p1pos.Add(clumpDir.Scale(2 * cfg.Radius * 0.7))
	p1 := e.AddPebble(clumpID, p1pos, cfg.Radius*0.7)
	p2 := e.AddPebble(clumpID, p2pos, cfg.Radius*0.7)
	pc := e.AddContact(
		PieceRef{Kind: PiecePebble, ID: p1.ID},
		PieceRef{Kind: PieceBall, ID: balls[0].ID},
		ModelParallelBond,
	)
	pc.Strength = cfg.Strength * 2
	pc.Shear = cfg.Shear
	pc.BondRadius = cfg.Radius * 0.6
	cc := e.AddContact(
		PieceRef{Kind: PiecePebble, ID: p2.ID},
		PieceRef{Kind: PiecePebble, ID: p1.ID},
		ModelContactBond,
	)
	cc.Strength = cfg.Strength * 3
	cc.Shear = cfg.Shear

	// Wall facet touching the last grain, contact-bonded to it.
	wallX := half + cfg.Radius
	facet := e.AddFacet(1, geom.Triangle{
		A: geom.Vec3{X: wallX, Y: -2, Z: -2},
		B: geom.Vec3{X: wallX, Y: 2, Z: -2},
		C: geom.Vec3{X: wallX, Y: 0, Z: 2},
	})
	fc := e.AddContact(
		PieceRef{Kind: PieceBall, ID: balls[len(balls)-1].ID},
		PieceRef{Kind: PieceFacet, ID: facet.ID},
		ModelContactBond,
	)
	fc.Strength = cfg.Strength * 4
	fc.Shear = cfg.Shear * 2
}

// makeElements lays flat-joint interface elements across the contact plane
// between two grain centers, splitting the disk area evenly.
func makeElements(n int, a, b geom.Vec3, radius float64) []FlatJointElement {
	if n < 1 {
		n = 1
	}
	mid := a.Add(b).Scale(0.5)
	normal, ok := b.Sub(a).Unit()
	if !ok {
		normal = geom.UnitZ
	}
	// Any direction perpendicular to the contact normal works for spreading
	// element centroids across the interface.
	perp := normal.Cross(geom.UnitZ)
	if p, ok := perp.Unit(); ok {
		perp = p
	} else {
		perp = geom.Vec3{Y: 1}
	}

	area := radius * radius * math.Pi / float64(n)
	elements := make([]FlatJointElement, n)
	for i := range elements {
		offset := (float64(i) - float64(n-1)/2) * radius / float64(n)
		elements[i] = FlatJointElement{
			Area:     area,
			Centroid: mid.Add(perp.Scale(offset)),
			Normal:   normal,
			Bonded:   true,
		}
	}
	return elements
}

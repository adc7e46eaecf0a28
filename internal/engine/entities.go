package engine

import "fracturelab/server/internal/geom"

// PieceKind discriminates the deformable-body and wall entity tables.
type PieceKind string

const (
	PieceBall   PieceKind = "ball"
	PiecePebble PieceKind = "pebble"
	PieceFacet  PieceKind = "facet"
)

// PieceRef is a weak reference into the engine's entity tables: a kind plus
// a stable numeric ID. Holding one never keeps the entity alive; resolve it
// through a Resolver and handle the miss.
type PieceRef struct {
	Kind PieceKind `json:"kind"`
	ID   uint64    `json:"id"`
}

// Zero reports whether the reference is unset.
func (r PieceRef) Zero() bool {
	return r.Kind == "" && r.ID == 0
}

// Ball is a spherical deformable body.
type Ball struct {
	ID     uint64
	Pos    geom.Vec3
	Vel    geom.Vec3
	Radius float64
}

// Pebble is one spherical piece of a clump. It behaves like a ball for
// contact geometry but carries its owning clump.
type Pebble struct {
	ID      uint64
	ClumpID uint64
	Pos     geom.Vec3
	Vel     geom.Vec3
	Radius  float64
}

// Facet is a single triangular wall element.
type Facet struct {
	ID     uint64
	WallID uint64
	Tri    geom.Triangle
}

// Piece is the uniform grain view handed out by the resolver for balls and
// pebbles.
type Piece struct {
	Ref    PieceRef
	Pos    geom.Vec3
	Radius float64
}

// BondModel identifies the contact model installed on a contact. Only the
// four bonded models produce crack events; ModelLinear contacts never break.
type BondModel string

const (
	ModelLinear       BondModel = "linear"
	ModelContactBond  BondModel = "contactbond"
	ModelParallelBond BondModel = "parallelbond"
	ModelFlatJoint    BondModel = "flatjoint"
	ModelSmoothJoint  BondModel = "smoothjoint"
)

// FailureCode is the raw failure-mode argument carried by a bond-break
// event, matching the codes the contact models emit.
type FailureCode int

const (
	FailureTensile FailureCode = 1
	FailureShear   FailureCode = 2
)

// FlatJointElement is one interface element of a flat-jointed contact. Area
// holds the element length in 2-D assemblies.
type FlatJointElement struct {
	Area     float64
	Centroid geom.Vec3
	Normal   geom.Vec3
	Gap      float64
	Bonded   bool
}

// Contact joins two pieces (grain-grain or grain-facet). Bonded state and
// strengths drive the synthetic break checks in Step.
type Contact struct {
	ID         uint64
	End1       PieceRef
	End2       PieceRef
	Model      BondModel
	Bonded     bool
	BondRadius float64 // parallel and smooth-joint bonds
	Strength   float64 // tensile break threshold on gap
	Shear      float64 // shear break threshold on tangential slip
	Elements   []FlatJointElement

	slip    float64   // accumulated tangential displacement
	prevSep geom.Vec3 // separation at the previous step, for slip accumulation
}

// BondBreakEvent is the argument pack delivered to the bond-break hook.
// Element is -1 for every model except flat-jointed contacts.
type BondBreakEvent struct {
	ContactID uint64
	Element   int
	Code      FailureCode
}

package engine

import (
	"fmt"

	"fracturelab/server/internal/geom"
)

// Resolver is the read-only query surface the fracture monitor observes the
// engine through. Lookups resolve weak references against the current entity
// tables and report misses instead of erroring; they never extend an
// entity's lifetime.
type Resolver interface {
	Piece(ref PieceRef) (Piece, bool)
	Facet(ref PieceRef) (Facet, bool)
	Contact(id uint64) (*Contact, bool)
	CurrentStep() uint64
	Dimension() int
}

// BondBreakHook receives one call per bond failure, synchronously from Step.
// A non-nil error aborts the step; it signals an event the consumer cannot
// classify, which must not be dropped silently.
type BondBreakHook func(BondBreakEvent) error

// StepHook fires once per completed simulation step.
type StepHook func(step uint64)

// HookHost is the registration surface consumers use to arm and disarm the
// engine callbacks. Setting a hook replaces the previous one; nil disarms.
type HookHost interface {
	SetBondBreakHook(BondBreakHook)
	SetStepHook(StepHook)
}

// Engine owns the entity tables and drives the synthetic stepping used by
// the demo binary and the tests. All methods are single-threaded; the hub
// serializes access from its loop.
type Engine struct {
	dim      int
	balls    map[uint64]*Ball
	pebbles  map[uint64]*Pebble
	facets   map[uint64]*Facet
	contacts map[uint64]*Contact

	nextEntity  uint64
	nextContact uint64
	step        uint64

	breakHook BondBreakHook
	stepHook  StepHook
	loading   Procedure
}

// New creates an empty engine. dim selects 2-D or 3-D size derivation for
// flat-joint elements; anything other than 2 is treated as 3-D.
func New(dim int) *Engine {
	if dim != 2 {
		dim = 3
	}
	return &Engine{
		dim:      dim,
		balls:    make(map[uint64]*Ball),
		pebbles:  make(map[uint64]*Pebble),
		facets:   make(map[uint64]*Facet),
		contacts: make(map[uint64]*Contact),
	}
}

func (e *Engine) Dimension() int { return e.dim }

func (e *Engine) CurrentStep() uint64 { return e.step }

// SetStep positions the step counter, used by tests and by procedures that
// resume at a known step.
func (e *Engine) SetStep(step uint64) { e.step = step }

func (e *Engine) AddBall(pos geom.Vec3, radius float64) *Ball {
	e.nextEntity++
	b := &Ball{ID: e.nextEntity, Pos: pos, Radius: radius}
	e.balls[b.ID] = b
	return b
}

func (e *Engine) AddPebble(clumpID uint64, pos geom.Vec3, radius float64) *Pebble {
	e.nextEntity++
	p := &Pebble{ID: e.nextEntity, ClumpID: clumpID, Pos: pos, Radius: radius}
	e.pebbles[p.ID] = p
	return p
}

func (e *Engine) AddFacet(wallID uint64, tri geom.Triangle) *Facet {
	e.nextEntity++
	f := &Facet{ID: e.nextEntity, WallID: wallID, Tri: tri}
	e.facets[f.ID] = f
	return f
}

// AddContact installs a bonded contact between two ends. The caller sets
// strengths and, for flat-jointed contacts, the interface elements.
func (e *Engine) AddContact(end1, end2 PieceRef, model BondModel) *Contact {
	e.nextContact++
	c := &Contact{
		ID:     e.nextContact,
		End1:   end1,
		End2:   end2,
		Model:  model,
		Bonded: model != ModelLinear,
	}
	if sep, ok := e.separation(c); ok {
		c.prevSep = sep
	}
	e.contacts[c.ID] = c
	return c
}

func (e *Engine) DeleteBall(id uint64) bool {
	if _, ok := e.balls[id]; !ok {
		return false
	}
	delete(e.balls, id)
	return true
}

func (e *Engine) DeletePebble(id uint64) bool {
	if _, ok := e.pebbles[id]; !ok {
		return false
	}
	delete(e.pebbles, id)
	return true
}

func (e *Engine) DeleteFacet(id uint64) bool {
	if _, ok := e.facets[id]; !ok {
		return false
	}
	delete(e.facets, id)
	return true
}

func (e *Engine) RemoveContact(id uint64) bool {
	if _, ok := e.contacts[id]; !ok {
		return false
	}
	delete(e.contacts, id)
	return true
}

// ReplaceContactModel swaps the contact model in place, as happens upstream
// when a contact is re-resolved with a different model assignment.
func (e *Engine) ReplaceContactModel(id uint64, model BondModel) bool {
	c, ok := e.contacts[id]
	if !ok {
		return false
	}
	c.Model = model
	if model == ModelLinear {
		c.Bonded = false
	}
	return true
}

func (e *Engine) Piece(ref PieceRef) (Piece, bool) {
	switch ref.Kind {
	case PieceBall:
		if b, ok := e.balls[ref.ID]; ok {
			return Piece{Ref: ref, Pos: b.Pos, Radius: b.Radius}, true
		}
	case PiecePebble:
		if p, ok := e.pebbles[ref.ID]; ok {
			return Piece{Ref: ref, Pos: p.Pos, Radius: p.Radius}, true
		}
	}
	return Piece{}, false
}

func (e *Engine) Facet(ref PieceRef) (Facet, bool) {
	if ref.Kind != PieceFacet {
		return Facet{}, false
	}
	f, ok := e.facets[ref.ID]
	if !ok {
		return Facet{}, false
	}
	return *f, true
}

func (e *Engine) Contact(id uint64) (*Contact, bool) {
	c, ok := e.contacts[id]
	return c, ok
}

// Balls returns the live ball count, for diagnostics.
func (e *Engine) Balls() int { return len(e.balls) }

// Contacts returns the live contact count, for diagnostics.
func (e *Engine) Contacts() int { return len(e.contacts) }

func (e *Engine) SetBondBreakHook(hook BondBreakHook) { e.breakHook = hook }

func (e *Engine) SetStepHook(hook StepHook) { e.stepHook = hook }

// SetLoading installs the active loading procedure. nil stops loading.
func (e *Engine) SetLoading(p Procedure) {
	e.loading = p
	if p != nil {
		p.Arm(e.step)
	}
}

// Loading returns the active procedure, if any.
func (e *Engine) Loading() Procedure { return e.loading }

// Step advances the simulation by one step: applies the loading procedure,
// evaluates bonded contacts for failure, fires break events for bonds that
// exceed their thresholds, then fires the per-step hook. A break-hook error
// aborts the step immediately.
func (e *Engine) Step() error {
	e.step++

	if e.loading != nil {
		e.loading.Apply(e, e.step)
		if e.loading.Done(e, e.step) {
			e.loading = nil
		}
	}

	for _, c := range e.contacts {
		if !c.Bonded {
			continue
		}
		if err := e.evaluateContact(c); err != nil {
			return fmt.Errorf("step %d: %w", e.step, err)
		}
	}

	if e.stepHook != nil {
		e.stepHook(e.step)
	}
	return nil
}

// separation returns the end2-minus-end1 separation vector and whether both
// ends currently resolve. For grain-facet contacts the facet side uses the
// nearest point to the grain center.
func (e *Engine) separation(c *Contact) (geom.Vec3, bool) {
	p1, ok := e.Piece(c.End1)
	if !ok {
		return geom.Vec3{}, false
	}
	if c.End2.Kind == PieceFacet {
		f, ok := e.Facet(c.End2)
		if !ok {
			return geom.Vec3{}, false
		}
		return f.Tri.ClosestPoint(p1.Pos).Sub(p1.Pos), true
	}
	p2, ok := e.Piece(c.End2)
	if !ok {
		return geom.Vec3{}, false
	}
	return p2.Pos.Sub(p1.Pos), true
}

func (e *Engine) evaluateContact(c *Contact) error {
	sep, ok := e.separation(c)
	if !ok {
		// An end vanished; the bond can no longer break.
		c.Bonded = false
		return nil
	}

	gap := e.contactGap(c, sep)
	normal, ok := sep.Unit()
	if !ok {
		normal = geom.UnitZ
	}

	delta := sep.Sub(c.prevSep)
	tangential := delta.Sub(normal.Scale(delta.Dot(normal)))
	c.slip += tangential.Norm()
	c.prevSep = sep

	if c.Model == ModelFlatJoint {
		return e.evaluateFlatJoint(c, gap, normal)
	}

	if c.Strength > 0 && gap > c.Strength {
		c.Bonded = false
		return e.fireBreak(BondBreakEvent{ContactID: c.ID, Element: -1, Code: FailureTensile})
	}
	if c.Shear > 0 && c.slip > c.Shear {
		c.Bonded = false
		return e.fireBreak(BondBreakEvent{ContactID: c.ID, Element: -1, Code: FailureShear})
	}
	return nil
}

// evaluateFlatJoint refreshes element poses from the contact geometry and
// breaks individual elements whose gap or slip exceeds the thresholds. The
// contact stays bonded while any element remains bonded.
func (e *Engine) evaluateFlatJoint(c *Contact, gap float64, normal geom.Vec3) error {
	anyBonded := false
	for i := range c.Elements {
		el := &c.Elements[i]
		el.Normal = normal
		el.Gap = gap
		if !el.Bonded {
			continue
		}
		if c.Strength > 0 && gap > c.Strength {
			el.Bonded = false
			if err := e.fireBreak(BondBreakEvent{ContactID: c.ID, Element: i, Code: FailureTensile}); err != nil {
				return err
			}
			continue
		}
		if c.Shear > 0 && c.slip > c.Shear {
			el.Bonded = false
			if err := e.fireBreak(BondBreakEvent{ContactID: c.ID, Element: i, Code: FailureShear}); err != nil {
				return err
			}
			continue
		}
		anyBonded = true
	}
	c.Bonded = anyBonded
	return nil
}

func (e *Engine) fireBreak(ev BondBreakEvent) error {
	if e.breakHook == nil {
		return nil
	}
	if err := e.breakHook(ev); err != nil {
		return fmt.Errorf("bond break contact=%d: %w", ev.ContactID, err)
	}
	return nil
}

// gap of the contact given the separation between its ends.
func (e *Engine) contactGap(c *Contact, sep geom.Vec3) float64 {
	p1, ok := e.Piece(c.End1)
	if !ok {
		return 0
	}
	if c.End2.Kind == PieceFacet {
		return sep.Norm() - p1.Radius
	}
	p2, ok := e.Piece(c.End2)
	if !ok {
		return 0
	}
	return sep.Norm() - (p1.Radius + p2.Radius)
}

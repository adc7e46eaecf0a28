package engine

import "fracturelab/server/internal/geom"

// Procedure is a loading/boundary-condition driver applied once per step.
// Procedures move grains; they never touch contacts or fire events directly.
type Procedure interface {
	Name() string
	Arm(step uint64)
	Apply(e *Engine, step uint64)
	Done(e *Engine, step uint64) bool
}

// TensionProcedure pulls the assembly apart along an axis at a fixed strain
// rate per step. Grains on the positive side of the origin move outward,
// grains on the negative side move the other way.
type TensionProcedure struct {
	Axis     geom.Vec3
	Rate     float64
	MaxSteps uint64

	armed uint64
}

func (p *TensionProcedure) Name() string { return "tension" }

func (p *TensionProcedure) Arm(step uint64) { p.armed = step }

func (p *TensionProcedure) Apply(e *Engine, step uint64) {
	axis, ok := p.Axis.Unit()
	if !ok {
		axis = geom.Vec3{X: 1}
	}
	for _, b := range e.balls {
		side := 1.0
		if b.Pos.Dot(axis) < 0 {
			side = -1.0
		}
		b.Pos = b.Pos.Add(axis.Scale(side * p.Rate))
	}
	for _, pb := range e.pebbles {
		side := 1.0
		if pb.Pos.Dot(axis) < 0 {
			side = -1.0
		}
		pb.Pos = pb.Pos.Add(axis.Scale(side * p.Rate))
	}
}

// Done applies the period-exceedance guard: the stage terminates once the
// allotted step budget is spent.
func (p *TensionProcedure) Done(e *Engine, step uint64) bool {
	return p.MaxSteps > 0 && step-p.armed >= p.MaxSteps
}

// CompressionProcedure shortens the assembly along an axis while bulging it
// laterally, so bonded pairs accumulate tangential slip and fail in shear.
type CompressionProcedure struct {
	Axis        geom.Vec3
	Rate        float64
	LateralRate float64
	MaxSteps    uint64

	armed uint64
}

func (p *CompressionProcedure) Name() string { return "compression" }

func (p *CompressionProcedure) Arm(step uint64) { p.armed = step }

func (p *CompressionProcedure) Apply(e *Engine, step uint64) {
	axis, ok := p.Axis.Unit()
	if !ok {
		axis = geom.Vec3{X: 1}
	}
	move := func(pos geom.Vec3) geom.Vec3 {
		along := pos.Dot(axis)
		side := 1.0
		if along < 0 {
			side = -1.0
		}
		// Shorten along the axis, bulge away from it.
		lateral := pos.Sub(axis.Scale(along))
		if dir, ok := lateral.Unit(); ok {
			pos = pos.Add(dir.Scale(p.LateralRate))
		}
		return pos.Sub(axis.Scale(side * p.Rate))
	}
	for _, b := range e.balls {
		b.Pos = move(b.Pos)
	}
	for _, pb := range e.pebbles {
		pb.Pos = move(pb.Pos)
	}
}

func (p *CompressionProcedure) Done(e *Engine, step uint64) bool {
	return p.MaxSteps > 0 && step-p.armed >= p.MaxSteps
}

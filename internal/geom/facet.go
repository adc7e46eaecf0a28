package geom

// Triangle is a single wall facet in 3-D (or a segment in 2-D assemblies,
// with the third vertex duplicating the second).
type Triangle struct {
	A Vec3
	B Vec3
	C Vec3
}

// Centroid returns the triangle centroid.
func (t Triangle) Centroid() Vec3 {
	return t.A.Add(t.B).Add(t.C).Scale(1.0 / 3.0)
}

// ClosestPoint returns the point on the triangle nearest to p. Standard
// barycentric region walk; degenerate triangles collapse to segment or
// point handling through the same branches.
func (t Triangle) ClosestPoint(p Vec3) Vec3 {
	ab := t.B.Sub(t.A)
	ac := t.C.Sub(t.A)
	ap := p.Sub(t.A)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return t.A
	}

	bp := p.Sub(t.B)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return t.B
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		denom := d1 - d3
		if denom == 0 {
			return t.A
		}
		return t.A.Add(ab.Scale(d1 / denom))
	}

	cp := p.Sub(t.C)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return t.C
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		denom := d2 - d6
		if denom == 0 {
			return t.A
		}
		return t.A.Add(ac.Scale(d2 / denom))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		denom := (d4 - d3) + (d5 - d6)
		if denom == 0 {
			return t.B
		}
		w := (d4 - d3) / denom
		return t.B.Add(t.C.Sub(t.B).Scale(w))
	}

	denom := va + vb + vc
	if denom == 0 {
		return t.A
	}
	v := vb / denom
	w := vc / denom
	return t.A.Add(ab.Scale(v)).Add(ac.Scale(w))
}

// Normal returns the unit normal of the facet plane, falling back to UnitZ
// for degenerate facets.
func (t Triangle) Normal() Vec3 {
	n, ok := t.B.Sub(t.A).Cross(t.C.Sub(t.A)).Unit()
	if !ok {
		return UnitZ
	}
	return n
}

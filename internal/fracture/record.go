package fracture

import (
	"fracturelab/server/internal/engine"
	"fracturelab/server/internal/geom"
)

// Record is one persistent crack. Size is frozen at creation; position,
// normal, and gap track the parents until the record orphans, after which
// they keep their last computed values forever.
type Record struct {
	ID            uint64           `json:"id"`
	Kind          Kind             `json:"kind"`
	Mode          FailureMode      `json:"mode"`
	Size          float64          `json:"size"`
	Pos           geom.Vec3        `json:"position"`
	Normal        geom.Vec3        `json:"normal"`
	Gap           float64          `json:"gap"`
	CreatedAtStep uint64           `json:"createdAtStep"`
	Orphan        bool             `json:"orphan"`
	Filter        FilterTag        `json:"filter"`
	Parent1       engine.PieceRef  `json:"parent1"`
	Parent2       engine.PieceRef  `json:"parent2"`
	ContactID     uint64           `json:"contactId,omitempty"`
	Element       int              `json:"element"`

	src source
}

// store is the append-only crack collection. Records are never removed
// individually; Reset drops the whole set.
type store struct {
	records []*Record
	nextID  uint64
}

func (s *store) append(r *Record) {
	s.nextID++
	r.ID = s.nextID
	s.records = append(s.records, r)
}

func (s *store) len() int { return len(s.records) }

func (s *store) reset() {
	s.records = nil
	s.nextID = 0
}

// snapshot copies every record by value so callers can iterate without
// holding the monitor.
func (s *store) snapshot() []Record {
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, *r)
	}
	return out
}

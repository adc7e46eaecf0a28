package fracture

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fracturelab/server/internal/engine"
	"fracturelab/server/internal/telemetry"
	"fracturelab/server/logging"
	fracturelog "fracturelab/server/logging/fracture"
)

// DefaultRefreshPeriod is the step interval between scheduled full
// geometry passes.
const DefaultRefreshPeriod = 500

var (
	ErrNotInitialized  = errors.New("fracture: monitor not initialized")
	ErrBadPeriod       = errors.New("fracture: refresh period must be at least 1")
	ErrUnknownContact  = errors.New("fracture: break event references unknown contact")
	ErrUnknownBondKind = errors.New("fracture: contact model is not a recognized bonded kind")
	ErrUnknownFailure  = errors.New("fracture: unrecognized failure code")
)

// Options configures a Monitor. The zero value is usable: period defaults
// to DefaultRefreshPeriod and logging is discarded.
type Options struct {
	RefreshPeriod int
	Publisher     logging.Publisher
	Logger        telemetry.Logger
}

// Monitor owns the crack record store and the bookkeeping layered on top:
// bucket counters, the lazy refresh scheduler, and the filter engine. One
// monitor observes one engine; all methods are driven synchronously from
// the simulation loop.
type Monitor struct {
	res  engine.Resolver
	host engine.HookHost

	store   store
	counts  Counts
	period  int
	elapsed int
	enabled bool

	pub    logging.Publisher
	logger telemetry.Logger
}

// NewMonitor initializes a monitor against the given engine surfaces.
func NewMonitor(res engine.Resolver, host engine.HookHost, opts Options) (*Monitor, error) {
	if res == nil || host == nil {
		return nil, fmt.Errorf("%w: engine surfaces are required", ErrNotInitialized)
	}
	period := opts.RefreshPeriod
	if period == 0 {
		period = DefaultRefreshPeriod
	}
	if period < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrBadPeriod, period)
	}
	pub := opts.Publisher
	if pub == nil {
		pub = logging.NopPublisher()
	}
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(nil)
	}
	return &Monitor{
		res:    res,
		host:   host,
		period: period,
		pub:    pub,
		logger: logger,
	}, nil
}

// Enable arms the bond-break and per-step hooks. Enabling an already
// enabled monitor is a no-op.
func (m *Monitor) Enable() error {
	if m == nil {
		return ErrNotInitialized
	}
	if m.enabled {
		return nil
	}
	m.host.SetBondBreakHook(m.OnBondBreak)
	m.host.SetStepHook(m.Tick)
	m.enabled = true
	fracturelog.MonitorState(context.Background(), m.pub, m.res.CurrentStep(), "enabled")
	return nil
}

// Disable disarms the hooks. Records keep their state; nothing refreshes
// until the monitor is enabled again. Disabling twice is a no-op.
func (m *Monitor) Disable() {
	if m == nil || !m.enabled {
		return
	}
	m.host.SetBondBreakHook(nil)
	m.host.SetStepHook(nil)
	m.enabled = false
	fracturelog.MonitorState(context.Background(), m.pub, m.res.CurrentStep(), "disabled")
}

// Enabled reports whether the hooks are armed.
func (m *Monitor) Enabled() bool { return m != nil && m.enabled }

// RefreshPeriod returns the configured step interval between scheduled
// passes.
func (m *Monitor) RefreshPeriod() int { return m.period }

// StepsSinceRefresh returns the progress of the current period, for
// diagnostics.
func (m *Monitor) StepsSinceRefresh() int { return m.elapsed }

// OnBondBreak ingests one bond failure: it classifies the contact,
// computes the frozen size and the initial geometry, appends a record, and
// bumps the matching bucket counter. This is the only path that creates
// records. Unclassifiable events are hard failures; dropping one would
// break the counter invariants.
func (m *Monitor) OnBondBreak(ev engine.BondBreakEvent) error {
	c, ok := m.res.Contact(ev.ContactID)
	if !ok {
		return fmt.Errorf("%w: contact %d", ErrUnknownContact, ev.ContactID)
	}
	kind, ok := kindForModel(c.Model)
	if !ok {
		return fmt.Errorf("%w: contact %d model %q", ErrUnknownBondKind, c.ID, c.Model)
	}
	mode, ok := modeForCode(ev.Code)
	if !ok {
		return fmt.Errorf("%w: contact %d code %d", ErrUnknownFailure, c.ID, ev.Code)
	}

	size, ok := sizeOf(m.res, kind, c, ev.Element)
	if !ok {
		return fmt.Errorf("%w: contact %d has no resolvable geometry source", ErrUnknownContact, c.ID)
	}

	r := &Record{
		Kind:          kind,
		Mode:          mode,
		Size:          size,
		CreatedAtStep: m.res.CurrentStep(),
		Filter:        NotFiltered,
		Element:       -1,
		src:           sourceFor(kind, c, ev.Element),
	}
	if kind == KindFlatJointed {
		r.ContactID = c.ID
		r.Element = ev.Element
	} else {
		r.Parent1 = c.End1
		r.Parent2 = c.End2
	}

	if p, live := r.src.refresh(m.res); live {
		r.Pos, r.Normal, r.Gap = p.pos, p.normal, p.gap
	} else {
		// Parents vanished between failure and ingestion; the record is
		// born orphaned with whatever geometry we could not derive.
		r.Orphan = true
	}

	m.store.append(r)
	m.counts.record(kind, mode)

	fracturelog.CrackCreated(context.Background(), m.pub, r.CreatedAtStep, r.ID, fracturelog.CrackCreatedPayload{
		Kind: string(kind),
		Mode: string(mode),
		Size: size,
		Gap:  r.Gap,
	})
	return nil
}

// Tick advances the refresh scheduler by one simulation step. When the
// accumulated steps reach the period, a full refresh pass runs and the
// counter resets.
func (m *Monitor) Tick(step uint64) {
	if m == nil || !m.enabled {
		return
	}
	m.elapsed++
	if m.elapsed < m.period {
		return
	}
	m.refreshAll(step, false)
	m.elapsed = 0
}

// ForceRefresh runs a full pass immediately and resets the period counter,
// so the next scheduled pass lands a full period later.
func (m *Monitor) ForceRefresh() {
	if m == nil {
		return
	}
	m.refreshAll(m.res.CurrentStep(), true)
	m.elapsed = 0
}

// refreshAll re-derives geometry for every non-orphan record. Records whose
// parents no longer resolve become orphans and keep their last pose
// forever; orphans from earlier passes are skipped outright.
func (m *Monitor) refreshAll(step uint64, forced bool) {
	refreshed, newOrphans := 0, 0
	for _, r := range m.store.records {
		if r.Orphan {
			continue
		}
		p, live := r.src.refresh(m.res)
		if !live {
			r.Orphan = true
			newOrphans++
			fracturelog.CrackOrphaned(context.Background(), m.pub, step, r.ID)
			continue
		}
		r.Pos, r.Normal, r.Gap = p.pos, p.normal, p.gap
		refreshed++
	}
	if newOrphans > 0 {
		m.logger.Printf("refresh pass at step %d orphaned %d cracks", step, newOrphans)
	}
	fracturelog.RefreshPass(context.Background(), m.pub, step, fracturelog.RefreshPassPayload{
		Records:    m.store.len(),
		Refreshed:  refreshed,
		NewOrphans: newOrphans,
		Forced:     forced,
	})
}

// Filter re-tags every record against the threshold gap. Orphans are never
// eligible; their gap is frozen and not representative. The pass overwrites
// every tag, it is not incremental.
func (m *Monitor) Filter(thresholdGap float64) {
	if m == nil {
		return
	}
	for _, r := range m.store.records {
		if !r.Orphan && r.Gap <= thresholdGap {
			r.Filter = Filtered
		} else {
			r.Filter = NotFiltered
		}
	}
}

// Counts returns the bucket totals.
func (m *Monitor) Counts() Counts { return m.counts }

// TotalCount returns the grand total of recorded cracks.
func (m *Monitor) TotalCount() uint64 { return m.counts.Total }

// OrphanCount scans for orphaned records. Deliberately uncached: the tags
// are the single source of truth.
func (m *Monitor) OrphanCount() int {
	n := 0
	for _, r := range m.store.records {
		if r.Orphan {
			n++
		}
	}
	return n
}

// FilteredCount scans for records tagged by the last filter pass.
func (m *Monitor) FilteredCount() int {
	n := 0
	for _, r := range m.store.records {
		if r.Filter == Filtered {
			n++
		}
	}
	return n
}

// Records returns a value snapshot of the full record set.
func (m *Monitor) Records() []Record {
	return m.store.snapshot()
}

// Reset drops every record and zeroes every counter, leaving the monitor
// indistinguishable from a freshly initialized one. Hook state is
// preserved.
func (m *Monitor) Reset() {
	m.store.reset()
	m.counts = Counts{}
	m.elapsed = 0
	fracturelog.MonitorState(context.Background(), m.pub, m.res.CurrentStep(), "reset")
}

// Summary renders the human-readable status report.
func (m *Monitor) Summary() string {
	state := "disabled"
	if m.enabled {
		state = "enabled"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "fracture monitor\n")
	fmt.Fprintf(&b, "  state: %s (refresh period %d, %d steps since last pass)\n", state, m.period, m.elapsed)
	fmt.Fprintf(&b, "  step: %d\n", m.res.CurrentStep())
	fmt.Fprintf(&b, "  cracks: %d total, %d orphaned, %d filtered\n", m.counts.Total, m.OrphanCount(), m.FilteredCount())
	fmt.Fprintf(&b, "    contact-bonded : %d tensile, %d shear\n", m.counts.ContactBondTensile, m.counts.ContactBondShear)
	fmt.Fprintf(&b, "    parallel-bonded: %d tensile, %d shear\n", m.counts.ParallelBondTensile, m.counts.ParallelBondShear)
	fmt.Fprintf(&b, "    flat-jointed   : %d tensile, %d shear\n", m.counts.FlatJointTensile, m.counts.FlatJointShear)
	fmt.Fprintf(&b, "    smooth-jointed : %d tensile, %d shear\n", m.counts.SmoothJointTensile, m.counts.SmoothJointShear)
	return b.String()
}

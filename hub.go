package server

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"fracturelab/server/internal/engine"
	"fracturelab/server/internal/fracture"
	"fracturelab/server/internal/geom"
	"fracturelab/server/internal/telemetry"
	"fracturelab/server/logging"
)

const (
	defaultTickRate       = 50 // engine steps per second
	defaultBroadcastEvery = 10 // steps between crack broadcasts
	writeWait             = 10 * time.Second
)

// HubConfig assembles a hub. The zero value runs the default specimen with
// no loading procedure and discards all logging.
type HubConfig struct {
	TickRate       int
	BroadcastEvery int
	RefreshPeriod  int
	Specimen       engine.SpecimenConfig
	Loading        string // "", "tension", "compression"
	LoadingSteps   int
	Publisher      logging.Publisher
	Logger         telemetry.Logger
	Metrics        telemetry.Metrics
}

// Hub owns one engine and its crack monitor, drives the fixed-rate step
// loop, and broadcasts crack snapshots to websocket subscribers. All engine
// and monitor access goes through the hub mutex; the simulation itself is
// single-threaded.
type Hub struct {
	mu          sync.Mutex
	eng         *engine.Engine
	mon         *fracture.Monitor
	subscribers map[uint64]*Subscriber
	nextSub     atomic.Uint64

	tickRate       int
	broadcastEvery int
	counters       *telemetryCounters
	logger         telemetry.Logger
	metrics        telemetry.Metrics
}

// Subscriber wraps one websocket connection. Writes are serialized through
// the subscriber mutex.
type Subscriber struct {
	id   uint64
	conn *websocket.Conn
	mu   sync.Mutex
}

// ID returns the hub-assigned subscriber handle.
func (s *Subscriber) ID() uint64 { return s.id }

// WriteMessage sends one text frame under the write deadline.
func (s *Subscriber) WriteMessage(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// NewHub builds the engine, seeds the specimen, and arms the monitor.
func NewHub(cfg HubConfig) (*Hub, error) {
	if cfg.TickRate <= 0 {
		cfg.TickRate = defaultTickRate
	}
	if cfg.BroadcastEvery <= 0 {
		cfg.BroadcastEvery = defaultBroadcastEvery
	}
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(nil)
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.WrapMetrics(nil)
	}

	eng := engine.New(3)
	engine.BuildSpecimen(eng, cfg.Specimen.Normalized())

	mon, err := fracture.NewMonitor(eng, eng, fracture.Options{
		RefreshPeriod: cfg.RefreshPeriod,
		Publisher:     cfg.Publisher,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("hub: %w", err)
	}
	if err := mon.Enable(); err != nil {
		return nil, fmt.Errorf("hub: %w", err)
	}

	if proc, err := loadingProcedure(cfg.Loading, cfg.LoadingSteps); err != nil {
		return nil, err
	} else if proc != nil {
		eng.SetLoading(proc)
	}

	return &Hub{
		eng:            eng,
		mon:            mon,
		subscribers:    make(map[uint64]*Subscriber),
		tickRate:       cfg.TickRate,
		broadcastEvery: cfg.BroadcastEvery,
		counters:       newTelemetryCounters(),
		logger:         logger,
		metrics:        metrics,
	}, nil
}

func loadingProcedure(name string, maxSteps int) (engine.Procedure, error) {
	if maxSteps <= 0 {
		maxSteps = 2000
	}
	switch name {
	case "":
		return nil, nil
	case "tension":
		return &engine.TensionProcedure{Axis: geom.Vec3{X: 1}, Rate: 0.0005, MaxSteps: uint64(maxSteps)}, nil
	case "compression":
		return &engine.CompressionProcedure{Axis: geom.Vec3{X: 1}, Rate: 0.0003, LateralRate: 0.0004, MaxSteps: uint64(maxSteps)}, nil
	default:
		return nil, fmt.Errorf("hub: unknown loading procedure %q", name)
	}
}

// Monitor exposes the crack monitor for wiring and tests. Callers must not
// drive it concurrently with a running simulation loop.
func (h *Hub) Monitor() *fracture.Monitor { return h.mon }

// TickRate returns the configured steps per second.
func (h *Hub) TickRate() int { return h.tickRate }

// Step advances the simulation by one engine step under the hub lock.
func (h *Hub) Step() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.eng.Step()
}

// StepN advances the simulation by n steps, stopping at the first error.
func (h *Hub) StepN(n int) error {
	for i := 0; i < n; i++ {
		if err := h.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunSimulation drives the fixed-rate step loop until the stop channel
// closes. Crack snapshots go out every broadcastEvery steps.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(h.tickRate))
	defer ticker.Stop()

	steps := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			start := time.Now()
			if err := h.Step(); err != nil {
				h.logger.Printf("simulation step failed: %v", err)
				return
			}
			steps++
			if steps%h.broadcastEvery == 0 {
				h.broadcastCracks()
			}
			h.counters.RecordTickDuration(time.Since(start))
		}
	}
}

// Subscribe registers a websocket connection and returns it along with the
// current snapshot so the caller can prime the viewer.
func (h *Hub) Subscribe(conn *websocket.Conn) (*Subscriber, CrackMessage) {
	sub := &Subscriber{id: h.nextSub.Add(1), conn: conn}

	h.mu.Lock()
	h.subscribers[sub.id] = sub
	msg := h.snapshotLocked()
	h.mu.Unlock()

	return sub, msg
}

// Disconnect removes a subscriber and closes its connection.
func (h *Hub) Disconnect(id uint64) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()

	if ok {
		sub.conn.Close()
	}
}

// SubscriberCount reports the number of live websocket subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// CrackSnapshot returns the broadcast payload for the /cracks endpoint.
func (h *Hub) CrackSnapshot() CrackMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

// Filter re-tags every record against the threshold gap.
func (h *Hub) Filter(thresholdGap float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mon.Filter(thresholdGap)
}

// ForceRefresh runs an immediate geometry pass.
func (h *Hub) ForceRefresh() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mon.ForceRefresh()
}

// ResetMonitor drops every record and zeroes the counters.
func (h *Hub) ResetMonitor() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mon.Reset()
}

// Summary renders the monitor status report.
func (h *Hub) Summary() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mon.Summary()
}

// DiagnosticsSnapshot exposes scheduler and counter state for the
// diagnostics endpoint.
func (h *Hub) DiagnosticsSnapshot() DiagnosticsSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap := DiagnosticsSnapshot{
		Step:              h.eng.CurrentStep(),
		TickRate:          h.tickRate,
		RefreshPeriod:     h.mon.RefreshPeriod(),
		StepsSinceRefresh: h.mon.StepsSinceRefresh(),
		MonitorEnabled:    h.mon.Enabled(),
		Counts:            h.mon.Counts(),
		OrphanCount:       h.mon.OrphanCount(),
		FilteredCount:     h.mon.FilteredCount(),
		Subscribers:       len(h.subscribers),
		Telemetry:         h.counters.Snapshot(),
	}
	if proc := h.eng.Loading(); proc != nil {
		snap.Loading = proc.Name()
	}
	return snap
}

func (h *Hub) snapshotLocked() CrackMessage {
	return CrackMessage{
		Type:       "cracks",
		Step:       h.eng.CurrentStep(),
		Counts:     h.mon.Counts(),
		Records:    h.mon.Records(),
		ServerTime: time.Now().UnixMilli(),
	}
}

// broadcastCracks sends the latest snapshot to every subscriber. Failed
// writes disconnect the subscriber.
func (h *Hub) broadcastCracks() {
	h.mu.Lock()
	msg := h.snapshotLocked()
	subs := make([]*Subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("failed to marshal crack snapshot: %v", err)
		return
	}
	h.counters.RecordBroadcast(len(data)*len(subs), len(msg.Records))
	h.metrics.Store("cracks_total", msg.Counts.Total)
	h.metrics.Add("broadcast_bytes", uint64(len(data)*len(subs)))

	for _, sub := range subs {
		if err := sub.WriteMessage(data); err != nil {
			h.logger.Printf("failed to send snapshot to subscriber %d: %v", sub.id, err)
			h.Disconnect(sub.id)
		}
	}
}

package server

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

type telemetryCounters struct {
	bytesSent          atomic.Uint64
	cracksSent         atomic.Uint64
	broadcasts         atomic.Uint64
	tickDurationMillis atomic.Int64
	lastBroadcastBytes atomic.Uint64
	debug              bool
}

// TelemetrySnapshot is the broadcast counter view embedded in diagnostics.
type TelemetrySnapshot struct {
	BytesSent    uint64 `json:"bytesSent"`
	CracksSent   uint64 `json:"cracksSent"`
	Broadcasts   uint64 `json:"broadcasts"`
	TickDuration int64  `json:"tickDurationMillis"`
}

func newTelemetryCounters() *telemetryCounters {
	t := &telemetryCounters{}
	if os.Getenv("DEBUG_TELEMETRY") == "1" {
		t.debug = true
	}
	return t
}

func (t *telemetryCounters) RecordBroadcast(bytes, cracks int) {
	if bytes < 0 {
		bytes = 0
	}
	if cracks < 0 {
		cracks = 0
	}
	t.bytesSent.Add(uint64(bytes))
	t.cracksSent.Add(uint64(cracks))
	t.broadcasts.Add(1)
	t.lastBroadcastBytes.Store(uint64(bytes))
}

func (t *telemetryCounters) RecordTickDuration(duration time.Duration) {
	millis := duration.Milliseconds()
	if millis < 0 {
		millis = 0
	}
	t.tickDurationMillis.Store(millis)
	if t.debug {
		fmt.Printf(
			"[telemetry] tick=%dms bytes=%d totalBytes=%d cracks=%d\n",
			millis,
			t.lastBroadcastBytes.Load(),
			t.bytesSent.Load(),
			t.cracksSent.Load(),
		)
	}
}

func (t *telemetryCounters) Snapshot() TelemetrySnapshot {
	return TelemetrySnapshot{
		BytesSent:    t.bytesSent.Load(),
		CracksSent:   t.cracksSent.Load(),
		Broadcasts:   t.broadcasts.Load(),
		TickDuration: t.tickDurationMillis.Load(),
	}
}

package server

import "fracturelab/server/internal/fracture"

// CrackMessage is the websocket broadcast payload and the /cracks response
// body. Records carry every persistent crack attribute so viewers can
// render without further round trips.
type CrackMessage struct {
	Type       string            `json:"type"`
	Step       uint64            `json:"step"`
	Counts     fracture.Counts   `json:"counts"`
	Records    []fracture.Record `json:"records"`
	ServerTime int64             `json:"serverTime"`
}

// DiagnosticsSnapshot exposes scheduler, counter, and broadcast state for
// the diagnostics endpoint.
type DiagnosticsSnapshot struct {
	Step              uint64            `json:"step"`
	TickRate          int               `json:"tickRate"`
	RefreshPeriod     int               `json:"refreshPeriod"`
	StepsSinceRefresh int               `json:"stepsSinceRefresh"`
	MonitorEnabled    bool              `json:"monitorEnabled"`
	Loading           string            `json:"loading,omitempty"`
	Counts            fracture.Counts   `json:"counts"`
	OrphanCount       int               `json:"orphanCount"`
	FilteredCount     int               `json:"filteredCount"`
	Subscribers       int               `json:"subscribers"`
	Telemetry         TelemetrySnapshot `json:"telemetry"`
}

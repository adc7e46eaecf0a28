package fracture

import (
	"context"
	"strconv"

	"fracturelab/server/logging"
)

const (
	// EventCrackCreated is emitted once per bond failure, when the record
	// enters the store.
	EventCrackCreated logging.EventType = "fracture.crack_created"
	// EventCrackOrphaned is emitted when a refresh pass finds a record whose
	// parents no longer resolve.
	EventCrackOrphaned logging.EventType = "fracture.crack_orphaned"
	// EventRefreshPass is emitted after every completed full refresh pass.
	EventRefreshPass logging.EventType = "fracture.refresh_pass"
	// EventMonitorState is emitted when the monitor is enabled, disabled, or
	// reset.
	EventMonitorState logging.EventType = "fracture.monitor_state"
)

func crackRef(id uint64) logging.EntityRef {
	return logging.EntityRef{ID: strconv.FormatUint(id, 10), Kind: logging.EntityKindCrack}
}

// CrackCreatedPayload describes a freshly recorded crack.
type CrackCreatedPayload struct {
	Kind string  `json:"kind"`
	Mode string  `json:"mode"`
	Size float64 `json:"size"`
	Gap  float64 `json:"gap"`
}

func CrackCreated(ctx context.Context, pub logging.Publisher, step, crackID uint64, payload CrackCreatedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCrackCreated,
		Step:     step,
		Subject:  crackRef(crackID),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryFracture,
		Payload:  payload,
	})
}

func CrackOrphaned(ctx context.Context, pub logging.Publisher, step, crackID uint64) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCrackOrphaned,
		Step:     step,
		Subject:  crackRef(crackID),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryFracture,
	})
}

// RefreshPassPayload summarizes one full geometry pass.
type RefreshPassPayload struct {
	Records    int  `json:"records"`
	Refreshed  int  `json:"refreshed"`
	NewOrphans int  `json:"newOrphans"`
	Forced     bool `json:"forced"`
}

func RefreshPass(ctx context.Context, pub logging.Publisher, step uint64, payload RefreshPassPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRefreshPass,
		Step:     step,
		Subject:  logging.EntityRef{Kind: logging.EntityKindMonitor},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryFracture,
		Payload:  payload,
	})
}

// MonitorStatePayload records a lifecycle transition.
type MonitorStatePayload struct {
	State string `json:"state"`
}

func MonitorState(ctx context.Context, pub logging.Publisher, step uint64, state string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMonitorState,
		Step:     step,
		Subject:  logging.EntityRef{Kind: logging.EntityKindMonitor},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryFracture,
		Payload:  MonitorStatePayload{State: state},
	})
}

package querier

import (
	"github.com/netbeacon/beacon/internal/correlator"
)

// Service is the callback-visible snapshot of one discovered service
// instance. It is an owned copy, safe to retain after the Query call that
// produced it returns.
type Service = correlator.Service

// Attr is a single TXT record attribute (name, and value if present).
type Attr = correlator.Attr

// Callback receives a delta of discovered services whenever Query's loop
// produces a non-empty one.
//
// The returned bool is an ownership-transfer signal carried over from the
// engine this package mirrors: true means the caller retains services,
// false means the caller is done with it. The engine never acts on it
// itself (Go's garbage collector reclaims the slice either way; see
// FreeList), so it is present only so existing callers of the original
// API port over unchanged. stop, if set to true by the callback, ends the
// Query call's loop at the next iteration boundary.
type Callback func(services []Service, cookie any, stop *bool) (takeOwnership bool)

// ControlRequest is a command delivered to a running Query loop via Control.
type ControlRequest int

const (
	// ControlNone means no pending control request.
	ControlNone ControlRequest = iota

	// ControlReset clears the active query's correlation state and forces
	// an immediate re-query on the next loop iteration. Outside Running,
	// Reset clears the context in place.
	ControlReset

	// ControlSuspend exits the Query loop cleanly at the next iteration.
	// Outside Running, Suspend is a no-op.
	ControlSuspend
)

// State is the engine's lifecycle state.
type State int

const (
	// StateIdle means no Query loop is active.
	StateIdle State = iota
	// StateRunning means a Query loop is actively polling and dispatching.
	StateRunning
)

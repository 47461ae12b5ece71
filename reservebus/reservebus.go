// Package reservebus defines the request/response bus interface that
// Device Reservation arbitrates ownership over (spec §4.6, §6
// "Request-bus interface"), plus an MQTT-backed adapter.
//
// The original WirePlumber module arbitrates over a D-Bus object
// manager at a well-known path. This module models the same contract
// -- request, release, and a property bag of application-name,
// application-device-name, and priority -- over MQTT request/response
// topic pairs instead, the transport the teacher repo already speaks
// (sio/siomq, cmd/siomq).
package reservebus

import "context"

// ConnState is the bus connection's lifecycle state
// (dbus-connection-state.h in original_source/, referenced from
// plugin.c).
type ConnState int

const (
	Connecting ConnState = iota
	Connected
	Closed
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Request is sent to claim exclusive ownership of a named device.
type Request struct {
	ReservationName       string
	ApplicationName       string
	ApplicationDeviceName string
	Priority              int32
}

// Response answers a Request.
type Response struct {
	Granted bool
}

// IncomingRequest is a peer's request arriving over the bus. The local
// Reservation answers it by calling Reply exactly once.
type IncomingRequest struct {
	Request *Request
	Reply   func(granted bool)
}

// Bus is the external request/response bus collaborator a
// ReservationManager drives (spec §6). Reservations hold a non-owning
// handle to it; the bus adapter owns the underlying connection.
type Bus interface {
	// State returns the bus's current connection state.
	State() ConnState

	// StateChanges delivers ConnState transitions. Closed reports a lost
	// or closed connection; an adapter that reconnects (MQTTBus does)
	// reports Connected again afterwards. MQTTBus drops a transition,
	// with a warning, when the channel's buffer is full.
	StateChanges() <-chan ConnState

	// Incoming delivers requests from peers competing for a device
	// this instance has an interest in.
	Incoming() <-chan *IncomingRequest

	// Released delivers the name of a reservation whenever any peer
	// releases its claim on it, regardless of which peer held it.
	Released() <-chan string

	// SendRequest asks the bus to claim name on this application's
	// behalf, returning the peer's (or the bus's own arbitration)
	// answer.
	SendRequest(ctx context.Context, req *Request) (*Response, error)

	// SendRelease tells the bus this application no longer wants name.
	SendRelease(ctx context.Context, name string) error

	// Close releases the underlying connection.
	Close() error
}

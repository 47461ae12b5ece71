// Package reservation implements the Device Reservation state machine,
// the worked example of an async hook integrating with a remote service
// (spec §4.6).
package reservation

import (
	"context"
	"sync"

	"wireplumber/internal/werror"
	"wireplumber/internal/wplog"
	"wireplumber/reservebus"
)

var log = wplog.Topic("reservation")

// OwnerState is a Reservation's ownership state.
type OwnerState int

const (
	// Unowned: no ownership claim; requests from peers are answered
	// "free".
	Unowned OwnerState = iota
	// OwnedLocal: this instance holds the claim.
	OwnedLocal
	// OwnedRemote: a peer holds the claim.
	OwnedRemote
	// Disconnected is terminal: the bus connection was lost. All
	// claims are released and the Reservation cannot transition out
	// of this state; the policy layer may re-create it on reconnect.
	Disconnected
)

func (s OwnerState) String() string {
	switch s {
	case Unowned:
		return "unowned"
	case OwnedLocal:
		return "owned-local"
	case OwnedRemote:
		return "owned-remote"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Reservation advertises exclusive local ownership of a named device
// over a reservebus.Bus.
type Reservation struct {
	name                  string
	applicationName       string
	applicationDeviceName string
	priority              int32

	bus reservebus.Bus

	mu    sync.Mutex
	state OwnerState
	peer  string // set when state == OwnedRemote
}

// New creates a Reservation named name, held on behalf of
// applicationName/applicationDeviceName at the given priority, arbitrated
// over bus. The Reservation starts Unowned.
func New(bus reservebus.Bus, name, applicationName, applicationDeviceName string, priority int32) *Reservation {
	return &Reservation{
		name:                  name,
		applicationName:       applicationName,
		applicationDeviceName: applicationDeviceName,
		priority:              priority,
		bus:                   bus,
		state:                 Unowned,
	}
}

// Name returns the reservation's device name.
func (r *Reservation) Name() string { return r.name }

// State returns the current ownership state.
func (r *Reservation) State() OwnerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Acquire attempts to claim local ownership. From Unowned, it succeeds
// immediately. From OwnedRemote, it sends a request over the bus and
// transitions to OwnedLocal on success, or remains OwnedRemote on
// denial. From OwnedLocal, it is a no-op. From Disconnected, it fails
// with ServiceUnavailableError.
func (r *Reservation) Acquire(ctx context.Context) error {
	r.mu.Lock()
	state := r.state
	r.mu.Unlock()

	switch state {
	case OwnedLocal:
		return nil
	case Disconnected:
		return &werror.ServiceUnavailableError{Service: "reservation bus"}
	case Unowned:
		r.mu.Lock()
		r.state = OwnedLocal
		r.mu.Unlock()
		return nil
	case OwnedRemote:
		resp, err := r.bus.SendRequest(ctx, &reservebus.Request{
			ReservationName:       r.name,
			ApplicationName:       r.applicationName,
			ApplicationDeviceName: r.applicationDeviceName,
			Priority:              r.priority,
		})
		if err != nil {
			log.Warn("acquire %s: request failed: %s", r.name, err)
			return err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.state == Disconnected {
			return &werror.ServiceUnavailableError{Service: "reservation bus"}
		}
		if resp.Granted {
			r.state = OwnedLocal
			r.peer = ""
		}
		return nil
	default:
		return nil
	}
}

// Release gives up local ownership, if held, transitioning to Unowned.
func (r *Reservation) Release(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != OwnedLocal {
		return nil
	}
	if err := r.bus.SendRelease(ctx, r.name); err != nil {
		log.Warn("release %s: %s", r.name, err)
		return err
	}
	r.state = Unowned
	return nil
}

// HandleIncoming answers a peer's competing request, per §4.6:
//   - Unowned: answer "free" (granted).
//   - OwnedLocal: granted iff the competitor's priority exceeds ours; a
//     grant releases our local claim (we transition to Unowned).
//   - OwnedRemote, Disconnected: always denied; this reservation has no
//     local claim to arbitrate.
//
// It returns whether the request was granted, so a caller holding the
// owning ReservationManager's view of the bus can promote the
// requester to remote owner (SetRemoteOwner) once the reply is sent.
func (r *Reservation) HandleIncoming(in *reservebus.IncomingRequest) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case Unowned:
		in.Reply(true)
		return true
	case OwnedLocal:
		if in.Request.Priority > r.priority {
			r.state = Unowned
			in.Reply(true)
			return true
		}
		in.Reply(false)
		return false
	default:
		in.Reply(false)
		return false
	}
}

// SetRemoteOwner records that a peer now holds the claim, transitioning
// to OwnedRemote. Called by the owning ReservationManager when it learns
// of a peer's successful claim (e.g. by losing HandleIncoming's
// arbitration, or from an out-of-band bus notification).
func (r *Reservation) SetRemoteOwner(peer string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Disconnected {
		return
	}
	r.state = OwnedRemote
	r.peer = peer
}

// ClearRemoteOwner records that the peer holding a remote claim has let
// go, transitioning back to Unowned. A no-op unless currently
// OwnedRemote. Called by the owning ReservationManager on an inbound
// release notification for this reservation's name (§4.6).
func (r *Reservation) ClearRemoteOwner() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != OwnedRemote {
		return
	}
	r.state = Unowned
	r.peer = ""
}

// Peer returns the peer holding the claim, if State is OwnedRemote.
func (r *Reservation) Peer() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peer
}

// Disconnect transitions the Reservation to the terminal Disconnected
// state and releases any local claim. Called when the bus connection is
// lost (§4.6 "Loss of the bus connection").
func (r *Reservation) Disconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = Disconnected
	r.peer = ""
}

package reservation

import (
	"context"
	"fmt"
	"sync"

	"wireplumber/internal/werror"
	"wireplumber/reservebus"
)

// Manager is the explicit interface replacing the original plugin's
// dynamically-invoked named actions (create-reservation,
// destroy-reservation, get-reservation, get-dbus) per spec §9 "Dynamic
// signals / runtime-typed invocations". Callers look it up by name
// through pluginregistry rather than dispatching on a string.
type Manager interface {
	CreateReservation(name, applicationName, applicationDeviceName string, priority int32) (*Reservation, error)
	DestroyReservation(name string) error
	GetReservation(name string) (*Reservation, bool)
	Bus() reservebus.Bus
}

// manager is the concrete, bus-backed Manager implementation. It also
// watches the bus's connection state and disconnects every live
// Reservation when the connection is lost (§4.6).
type manager struct {
	bus reservebus.Bus

	mu           sync.Mutex
	reservations map[string]*Reservation
}

// NewManager creates a Manager arbitrating over bus. It starts a
// background watcher that reacts to bus state changes, incoming peer
// requests, and release notices; the watcher exits once any of the
// bus's channels is closed.
func NewManager(bus reservebus.Bus) Manager {
	m := &manager{
		bus:          bus,
		reservations: make(map[string]*Reservation),
	}
	go m.watch()
	return m
}

func (m *manager) watch() {
	for {
		select {
		case state, ok := <-m.bus.StateChanges():
			if !ok {
				return
			}
			if state == reservebus.Closed {
				m.clearAll()
			}
		case in, ok := <-m.bus.Incoming():
			if !ok {
				return
			}
			m.dispatchIncoming(in)
		case name, ok := <-m.bus.Released():
			if !ok {
				return
			}
			m.dispatchReleased(name)
		}
	}
}

// dispatchIncoming routes a peer's competing request to the Reservation
// it names, if any is tracked locally. A grant means the peer now holds
// the claim, so the Reservation is promoted to OwnedRemote (§4.6) --
// the production path that makes OwnedRemote, and Acquire's
// re-acquisition branch, actually reachable.
func (m *manager) dispatchIncoming(in *reservebus.IncomingRequest) {
	m.mu.Lock()
	r, have := m.reservations[in.Request.ReservationName]
	m.mu.Unlock()
	if !have {
		in.Reply(true)
		return
	}
	if r.HandleIncoming(in) {
		r.SetRemoteOwner(in.Request.ApplicationName)
	}
}

// dispatchReleased notifies the named Reservation, if any is tracked
// locally and currently OwnedRemote, that the peer holding it has let
// go (§4.6's "inbound messages from the bus" driving transitions).
func (m *manager) dispatchReleased(name string) {
	m.mu.Lock()
	r, have := m.reservations[name]
	m.mu.Unlock()
	if !have {
		return
	}
	r.ClearRemoteOwner()
}

func (m *manager) clearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reservations {
		r.Disconnect()
	}
}

// CreateReservation implements Manager.
func (m *manager) CreateReservation(name, applicationName, applicationDeviceName string, priority int32) (*Reservation, error) {
	if name == "" {
		return nil, &werror.InvalidArgumentError{What: "reservation name must not be empty"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, have := m.reservations[name]; have {
		return existing, nil
	}
	r := New(m.bus, name, applicationName, applicationDeviceName, priority)
	m.reservations[name] = r
	return r, nil
}

// DestroyReservation implements Manager.
func (m *manager) DestroyReservation(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, have := m.reservations[name]
	if !have {
		return &werror.InvalidArgumentError{What: fmt.Sprintf("no reservation named %q", name)}
	}
	delete(m.reservations, name)
	if r.State() == OwnedLocal {
		// Best-effort: the caller is tearing this down regardless.
		_ = r.bus.SendRelease(context.Background(), name)
	}
	return nil
}

// GetReservation implements Manager.
func (m *manager) GetReservation(name string) (*Reservation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, have := m.reservations[name]
	return r, have
}

// Bus implements Manager; it is the Go analogue of the original
// plugin's get-dbus action, returning the underlying bus handle.
func (m *manager) Bus() reservebus.Bus {
	return m.bus
}

package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wireplumber/reservebus"
)

type fakeBus struct {
	states   chan reservebus.ConnState
	incoming chan *reservebus.IncomingRequest
	released chan string
	grant    bool
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		states:   make(chan reservebus.ConnState, 8),
		incoming: make(chan *reservebus.IncomingRequest, 8),
		released: make(chan string, 8),
		grant:    true,
	}
}

func (b *fakeBus) State() reservebus.ConnState                  { return reservebus.Connected }
func (b *fakeBus) StateChanges() <-chan reservebus.ConnState     { return b.states }
func (b *fakeBus) Incoming() <-chan *reservebus.IncomingRequest  { return b.incoming }
func (b *fakeBus) Released() <-chan string                      { return b.released }
func (b *fakeBus) SendRequest(ctx context.Context, req *reservebus.Request) (*reservebus.Response, error) {
	return &reservebus.Response{Granted: b.grant}, nil
}
func (b *fakeBus) SendRelease(ctx context.Context, name string) error { return nil }
func (b *fakeBus) Close() error                                       { return nil }

func TestAcquireFromUnowned(t *testing.T) {
	r := New(newFakeBus(), "mic", "app", "hw:0", 10)
	require.Equal(t, Unowned, r.State())
	require.NoError(t, r.Acquire(context.Background()))
	require.Equal(t, OwnedLocal, r.State())
}

func TestAcquireFromRemoteGranted(t *testing.T) {
	bus := newFakeBus()
	bus.grant = true
	r := New(bus, "mic", "app", "hw:0", 10)
	r.SetRemoteOwner("peer-1")

	require.NoError(t, r.Acquire(context.Background()))
	require.Equal(t, OwnedLocal, r.State())
}

func TestAcquireFromRemoteDenied(t *testing.T) {
	bus := newFakeBus()
	bus.grant = false
	r := New(bus, "mic", "app", "hw:0", 10)
	r.SetRemoteOwner("peer-1")

	require.NoError(t, r.Acquire(context.Background()))
	require.Equal(t, OwnedRemote, r.State())
}

func TestHandleIncomingHigherPriorityWins(t *testing.T) {
	r := New(newFakeBus(), "mic", "app", "hw:0", 10)
	_ = r.Acquire(context.Background())

	granted := false
	r.HandleIncoming(&reservebus.IncomingRequest{
		Request: &reservebus.Request{Priority: 20},
		Reply:   func(g bool) { granted = g },
	})

	require.True(t, granted, "expected competitor with higher priority to be granted")
	require.Equal(t, Unowned, r.State())
}

func TestHandleIncomingLowerPriorityDenied(t *testing.T) {
	r := New(newFakeBus(), "mic", "app", "hw:0", 10)
	_ = r.Acquire(context.Background())

	granted := true
	r.HandleIncoming(&reservebus.IncomingRequest{
		Request: &reservebus.Request{Priority: 1},
		Reply:   func(g bool) { granted = g },
	})

	require.False(t, granted, "expected competitor with lower priority to be denied")
	require.Equal(t, OwnedLocal, r.State())
}

func TestDisconnectIsTerminal(t *testing.T) {
	r := New(newFakeBus(), "mic", "app", "hw:0", 10)
	_ = r.Acquire(context.Background())
	r.Disconnect()

	require.Equal(t, Disconnected, r.State())
	require.Error(t, r.Acquire(context.Background()))
}

func TestManagerCreateGetDestroy(t *testing.T) {
	bus := newFakeBus()
	m := NewManager(bus)

	r, err := m.CreateReservation("mic", "app", "hw:0", 10)
	require.NoError(t, err)

	got, have := m.GetReservation("mic")
	require.True(t, have)
	require.Same(t, r, got)

	require.NoError(t, m.DestroyReservation("mic"))

	_, have = m.GetReservation("mic")
	require.False(t, have)
}

func TestManagerPromotesGrantedPeerToOwnedRemote(t *testing.T) {
	bus := newFakeBus()
	m := NewManager(bus)

	r, err := m.CreateReservation("mic", "app", "hw:0", 10)
	require.NoError(t, err)

	var granted bool
	bus.incoming <- &reservebus.IncomingRequest{
		Request: &reservebus.Request{ReservationName: "mic", ApplicationName: "peer-1", Priority: 5},
		Reply:   func(g bool) { granted = g },
	}

	deadline := time.Now().Add(2 * time.Second)
	for r.State() != OwnedRemote && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.True(t, granted, "expected an uncontested reservation to grant the peer's request")
	require.Equal(t, OwnedRemote, r.State())
	require.Equal(t, "peer-1", r.Peer())
}

func TestManagerClearsRemoteOwnerOnRelease(t *testing.T) {
	bus := newFakeBus()
	m := NewManager(bus)

	r, err := m.CreateReservation("mic", "app", "hw:0", 10)
	require.NoError(t, err)
	r.SetRemoteOwner("peer-1")

	bus.released <- "mic"

	deadline := time.Now().Add(2 * time.Second)
	for r.State() != Unowned && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, Unowned, r.State())
}

func TestManagerClearsAllOnBusClose(t *testing.T) {
	bus := newFakeBus()
	m := NewManager(bus)

	r, err := m.CreateReservation("mic", "app", "hw:0", 10)
	require.NoError(t, err)
	_ = r.Acquire(context.Background())

	bus.states <- reservebus.Closed

	deadline := time.Now().Add(2 * time.Second)
	for r.State() != Disconnected && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, Disconnected, r.State())
}

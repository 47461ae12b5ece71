package dispatcher_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wireplumber/dispatcher"
	"wireplumber/event"
	"wireplumber/mediatransport"
	"wireplumber/props"
	"wireplumber/reservation"
	"wireplumber/reservebus"
)

type fakeReservationBus struct {
	states   chan reservebus.ConnState
	incoming chan *reservebus.IncomingRequest
	released chan string
	grant    bool
}

func newFakeReservationBus() *fakeReservationBus {
	return &fakeReservationBus{
		states:   make(chan reservebus.ConnState, 1),
		incoming: make(chan *reservebus.IncomingRequest, 1),
		released: make(chan string, 1),
		grant:    true,
	}
}

func (b *fakeReservationBus) State() reservebus.ConnState                  { return reservebus.Connected }
func (b *fakeReservationBus) StateChanges() <-chan reservebus.ConnState    { return b.states }
func (b *fakeReservationBus) Incoming() <-chan *reservebus.IncomingRequest { return b.incoming }
func (b *fakeReservationBus) Released() <-chan string                     { return b.released }
func (b *fakeReservationBus) SendRequest(ctx context.Context, req *reservebus.Request) (*reservebus.Response, error) {
	return &reservebus.Response{Granted: b.grant}, nil
}
func (b *fakeReservationBus) SendRelease(ctx context.Context, name string) error { return nil }
func (b *fakeReservationBus) Close() error                                       { return nil }

func pushSelectTarget(t *testing.T, d *dispatcher.Dispatcher, nodeName string) *dispatcher.PendingEvent {
	t.Helper()
	p, err := props.FromPairs(mediatransport.PropNodeName, nodeName)
	require.NoError(t, err)
	return d.Push(event.New(mediatransport.TypeSelectTarget, 0, nil, p))
}

func waitEventDone(t *testing.T, pe *dispatcher.PendingEvent) {
	t.Helper()
	select {
	case <-pe.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("event never completed")
	}
}

func TestAsyncReservationHookAcquiresUnownedDevice(t *testing.T) {
	d := dispatcher.New()
	defer d.Close()

	bus := newFakeReservationBus()
	mgr := reservation.NewManager(bus)
	d.Register(reservation.NewAsyncHook("device-reservation", mgr, "wireplumberd", 10))

	waitEventDone(t, pushSelectTarget(t, d, "mic"))

	r, have := mgr.GetReservation("mic")
	require.True(t, have)
	require.Equal(t, reservation.OwnedLocal, r.State())
	require.Equal(t, "", r.Peer())
}

func TestAsyncReservationHookReacquiresFromOwnedRemote(t *testing.T) {
	d := dispatcher.New()
	defer d.Close()

	bus := newFakeReservationBus()
	bus.grant = true
	mgr := reservation.NewManager(bus)

	r, err := mgr.CreateReservation("mic", "wireplumberd", "mic", 10)
	require.NoError(t, err)
	r.SetRemoteOwner("peer-1")
	require.Equal(t, reservation.OwnedRemote, r.State())

	d.Register(reservation.NewAsyncHook("device-reservation", mgr, "wireplumberd", 10))
	waitEventDone(t, pushSelectTarget(t, d, "mic"))

	require.Equal(t, reservation.OwnedLocal, r.State())
	require.Equal(t, "", r.Peer())
}

func TestAsyncReservationHookDeniedStaysOwnedRemote(t *testing.T) {
	d := dispatcher.New()
	defer d.Close()

	bus := newFakeReservationBus()
	bus.grant = false
	mgr := reservation.NewManager(bus)

	r, err := mgr.CreateReservation("mic", "wireplumberd", "mic", 10)
	require.NoError(t, err)
	r.SetRemoteOwner("peer-1")

	d.Register(reservation.NewAsyncHook("device-reservation", mgr, "wireplumberd", 10))
	waitEventDone(t, pushSelectTarget(t, d, "mic"))

	require.Equal(t, reservation.OwnedRemote, r.State())
	require.Equal(t, "peer-1", r.Peer())
}

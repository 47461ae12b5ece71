package reservation

import (
	"context"

	"wireplumber/event"
	"wireplumber/hook"
	"wireplumber/interest"
	"wireplumber/mediatransport"
)

// stepAcquire is the async hook's only step: round-trip the reservation
// acquisition (possibly over the bus) before letting the event proceed.
const stepAcquire hook.StepName = "acquire"

// NewAsyncHook builds the AsyncEventHook that drives Device Reservation
// from dispatched events -- the worked example of an async hook
// integrating with a remote service named in §2 and §4.6. It matches
// select-target events carrying a node.name property, gets or creates
// (via mgr) the Reservation named by that property, and acquires it
// before any hook ordered after this one runs. Acquire's bus round
// trip, when one is needed, runs on its own goroutine so it never
// blocks the dispatcher loop.
func NewAsyncHook(name string, mgr Manager, applicationName string, priority int32, opts ...hook.Option) *hook.Hook {
	interests := []*interest.ObjectInterest{
		interest.NewBuilder(mediatransport.TypeSelectTarget).
			AddConstraint(mediatransport.PropNodeName, interest.Present, "").
			Build(),
	}

	next := func(ctx context.Context, ev *event.Event, previous hook.StepName) (hook.StepName, error) {
		if previous == hook.StartStep() {
			return stepAcquire, nil
		}
		return hook.NoStep, nil
	}

	exec := func(ctx context.Context, ev *event.Event, step hook.StepName, done hook.CompletionFunc) {
		deviceName, _ := ev.Properties().Get(mediatransport.PropNodeName)
		r, err := mgr.CreateReservation(deviceName, applicationName, deviceName, priority)
		if err != nil {
			done(err)
			return
		}
		go func() {
			done(r.Acquire(ctx))
		}()
	}

	return hook.NewAsync(name, interests, next, exec, opts...)
}

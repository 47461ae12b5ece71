package dispatcher

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"wireplumber/event"
	"wireplumber/hook"
	"wireplumber/interest"
	"wireplumber/props"
	"wireplumber/tracestore"
)

func waitDone(t *testing.T, pe *PendingEvent) {
	t.Helper()
	select {
	case <-pe.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("event never completed")
	}
}

func nodeInterest() *interest.ObjectInterest {
	return interest.NewBuilder("Node").Build()
}

func TestOrderingBeforeAfter(t *testing.T) {
	d := New()
	defer d.Close()

	var order []string

	record := func(name string) hook.SyncFunc {
		return func(ctx context.Context, ev *event.Event) error {
			order = append(order, name)
			return nil
		}
	}

	hA := hook.NewSync("A", []*interest.ObjectInterest{nodeInterest()}, record("A"), hook.After("C"))
	hB := hook.NewSync("B", []*interest.ObjectInterest{nodeInterest()}, record("B"), hook.Before("A"))
	hC := hook.NewSync("C", []*interest.ObjectInterest{nodeInterest()}, record("C"))

	d.Register(hA)
	d.Register(hB)
	d.Register(hC)

	pe := d.Push(event.New("Node", 0, nil, props.New()))
	waitDone(t, pe)

	if len(order) != 3 || order[0] != "C" || order[1] != "B" || order[2] != "A" {
		t.Fatalf("expected order C,B,A; got %v", order)
	}
}

func TestCycleSkipsOnlyCyclicComponent(t *testing.T) {
	d := New()
	defer d.Close()

	var ran []string
	mk := func(name string) hook.SyncFunc {
		return func(ctx context.Context, ev *event.Event) error {
			ran = append(ran, name)
			return nil
		}
	}

	hA := hook.NewSync("A", []*interest.ObjectInterest{nodeInterest()}, mk("A"), hook.Before("B"))
	hB := hook.NewSync("B", []*interest.ObjectInterest{nodeInterest()}, mk("B"), hook.Before("A"))
	hC := hook.NewSync("C", []*interest.ObjectInterest{nodeInterest()}, mk("C"))

	d.Register(hA)
	d.Register(hB)
	d.Register(hC)

	pe := d.Push(event.New("Node", 0, nil, props.New()))
	waitDone(t, pe)

	if len(ran) != 1 || ran[0] != "C" {
		t.Fatalf("expected only C to run, got %v", ran)
	}
}

func TestPriorityOrdering(t *testing.T) {
	d := New()
	defer d.Close()

	var order []string
	slow := make(chan struct{})

	blocker := hook.NewAsync("blocker", []*interest.ObjectInterest{interest.NewBuilder("Block").Build()},
		func(ctx context.Context, ev *event.Event, previous hook.StepName) (hook.StepName, error) {
			if previous == hook.StartStep() {
				return "wait", nil
			}
			return hook.NoStep, nil
		},
		func(ctx context.Context, ev *event.Event, step hook.StepName, done hook.CompletionFunc) {
			go func() {
				<-slow
				done(nil)
			}()
		},
	)

	recorder := func(name string) hook.SyncFunc {
		return func(ctx context.Context, ev *event.Event) error {
			order = append(order, name)
			return nil
		}
	}
	// Each hook matches only its own event, so the recorded order is the
	// order in which the two events were dispatched.
	hLow := hook.NewSync("low", []*interest.ObjectInterest{interest.NewBuilder("Prio").AddConstraint("level", interest.Equals, "low").Build()}, recorder("low"))
	hHigh := hook.NewSync("high", []*interest.ObjectInterest{interest.NewBuilder("Prio").AddConstraint("level", interest.Equals, "high").Build()}, recorder("high"))

	d.Register(blocker)
	d.Register(hLow)
	d.Register(hHigh)

	// Block the loop with an in-flight async event first.
	blockPE := d.Push(event.New("Block", 0, nil, props.New()))

	lowProps, _ := props.FromPairs("level", "low")
	highProps, _ := props.FromPairs("level", "high")
	lowPE := d.Push(event.New("Prio", 1, nil, lowProps))
	highPE := d.Push(event.New("Prio", 5, nil, highProps))

	close(slow)
	waitDone(t, blockPE)
	waitDone(t, highPE)
	waitDone(t, lowPE)

	if len(order) != 2 || order[0] != "high" || order[1] != "low" {
		t.Fatalf("expected high before low, got %v", order)
	}
}

func TestCancellationSkipsRemainingHooks(t *testing.T) {
	d := New()
	defer d.Close()

	started := make(chan struct{})
	var ranAfter bool

	blocker := hook.NewAsync("blocker", []*interest.ObjectInterest{nodeInterest()},
		func(ctx context.Context, ev *event.Event, previous hook.StepName) (hook.StepName, error) {
			if previous == hook.StartStep() {
				return "wait", nil
			}
			return hook.NoStep, nil
		},
		func(ctx context.Context, ev *event.Event, step hook.StepName, done hook.CompletionFunc) {
			close(started)
			go func() {
				<-ctx.Done()
				done(ctx.Err())
			}()
		},
	)
	after := hook.NewSync("after", []*interest.ObjectInterest{nodeInterest()}, func(ctx context.Context, ev *event.Event) error {
		ranAfter = true
		return nil
	}, hook.After("blocker"))

	d.Register(blocker)
	d.Register(after)

	pe := d.Push(event.New("Node", 0, nil, props.New()))
	<-started
	pe.Cancel()
	waitDone(t, pe)

	if ranAfter {
		t.Fatalf("expected remaining hooks to be skipped after cancellation")
	}
}

func TestTraceStoreRecordsHookExecution(t *testing.T) {
	d := New()
	defer d.Close()

	store, err := tracestore.Open(filepath.Join(t.TempDir(), "traces.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	d.SetTraceStore(store)

	d.Register(hook.NewSync("h", []*interest.ObjectInterest{nodeInterest()}, func(ctx context.Context, ev *event.Event) error {
		return nil
	}))

	pe := d.Push(event.New("Node", 0, nil, props.New()))
	waitDone(t, pe)

	var found int
	if err := store.Each(func(id string, tr *tracestore.Trace) error {
		found++
		if tr.EventType != "Node" || len(tr.Hooks) != 1 || tr.Hooks[0].Hook != "h" {
			t.Fatalf("unexpected trace: %+v", tr)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if found != 1 {
		t.Fatalf("expected exactly one recorded trace, got %d", found)
	}
}

func TestDuplicateRegistrationReplaces(t *testing.T) {
	d := New()
	defer d.Close()

	var which string
	d.Register(hook.NewSync("h", []*interest.ObjectInterest{nodeInterest()}, func(ctx context.Context, ev *event.Event) error {
		which = "first"
		return nil
	}))
	d.Register(hook.NewSync("h", []*interest.ObjectInterest{nodeInterest()}, func(ctx context.Context, ev *event.Event) error {
		which = "second"
		return nil
	}))

	pe := d.Push(event.New("Node", 0, nil, props.New()))
	waitDone(t, pe)

	if which != "second" {
		t.Fatalf("expected duplicate registration to replace, got %q", which)
	}
}

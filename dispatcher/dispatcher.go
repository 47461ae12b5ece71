// Package dispatcher implements the Dispatcher: the queue, topological
// scheduler, and hook execution runtime that is the core of this module
// (spec §4.5).
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wireplumber/event"
	"wireplumber/hook"
	"wireplumber/internal/toposort"
	"wireplumber/internal/werror"
	"wireplumber/internal/wplog"
	"wireplumber/props"
	"wireplumber/tracestore"
)

var log = wplog.Topic("dispatcher")

// Dispatcher accepts Events, selects the hooks matching each one,
// topologically orders them, and executes them one at a time. All
// registry and queue mutation happens on a single internal loop
// goroutine, matching the cooperative, single-threaded scheduling model
// of spec §5: hooks never run concurrently with each other or with
// themselves.
type Dispatcher struct {
	cmds chan func()
	stop chan struct{}
	wg   sync.WaitGroup

	hooks  map[string]*hook.Hook
	global *props.Properties

	queue []*queuedEvent
	seq   uint64

	current *eventContext
	trace   *tracestore.Store
}

type queuedEvent struct {
	ev     *event.Event
	seq    uint64
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

type eventContext struct {
	qe        *queuedEvent
	ordered   []*hook.Hook
	idx       int
	startedAt time.Time

	hookStart time.Time
	steps     []string
	records   []tracestore.HookRecord
}

// New creates a Dispatcher and starts its event loop. Call Close when
// done with it.
func New() *Dispatcher {
	d := &Dispatcher{
		cmds:   make(chan func(), 64),
		stop:   make(chan struct{}),
		hooks:  make(map[string]*hook.Hook, 16),
		global: props.New(),
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()
	for {
		select {
		case fn := <-d.cmds:
			fn()
		case <-d.stop:
			return
		}
	}
}

// Close stops the event loop. Queued events that never got to run are
// simply dropped, per §1's non-goal that the queue is not persisted.
func (d *Dispatcher) Close() {
	close(d.stop)
	d.wg.Wait()
}

// do runs fn on the loop goroutine and blocks until it has completed.
func (d *Dispatcher) do(fn func()) {
	reply := make(chan struct{})
	d.cmds <- func() {
		fn()
		close(reply)
	}
	<-reply
}

// Register adds h to the registry, or replaces the hook previously
// registered under the same name (§4.4: registration is idempotent on
// name).
func (d *Dispatcher) Register(h *hook.Hook) {
	d.do(func() {
		d.hooks[h.Name()] = h
	})
}

// Unregister removes the hook with the given name, if any.
func (d *Dispatcher) Unregister(name string) {
	d.do(func() {
		delete(d.hooks, name)
	})
}

// SetGlobalProperties replaces the properties bag consulted by
// SubjectGlobal constraints.
func (d *Dispatcher) SetGlobalProperties(p *props.Properties) {
	d.do(func() {
		d.global = p
	})
}

// SetTraceStore attaches a tracestore.Store that every subsequent
// dispatched event's hook execution is recorded to, keyed by the
// event's arrival sequence number. Pass nil to stop recording. Tracing
// is off by default; the dispatcher never persists anything on its own.
func (d *Dispatcher) SetTraceStore(s *tracestore.Store) {
	d.do(func() {
		d.trace = s
	})
}

// PendingEvent is a handle to an event that has been pushed but may not
// yet have finished (or even started) dispatch.
type PendingEvent struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel requests cancellation of the event. If it is currently
// executing, the running async hook observes it via its context and
// should terminate promptly; remaining hooks for the event are skipped.
// Queued (not-yet-started) events are simply never started.
func (p *PendingEvent) Cancel() {
	p.cancel()
}

// Done returns a channel that is closed once every hook selected for
// this event has finished, successfully or with error.
func (p *PendingEvent) Done() <-chan struct{} {
	return p.done
}

// Push appends ev to the pending queue, ordered by (priority DESC,
// arrival-sequence ASC). If nothing is currently executing, dispatch of
// the head of the queue begins before Push returns.
func (d *Dispatcher) Push(ev *event.Event) *PendingEvent {
	var pe *PendingEvent
	d.do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		d.seq++
		qe := &queuedEvent{
			ev:     ev,
			seq:    d.seq,
			ctx:    ctx,
			cancel: cancel,
			done:   make(chan struct{}),
		}
		d.queue = append(d.queue, qe)
		pe = &PendingEvent{cancel: cancel, done: qe.done}
		d.maybeStart()
	})
	return pe
}

// maybeStart begins dispatch of the next queued event, if nothing is
// currently executing and the queue is non-empty. Must run on the loop
// goroutine.
func (d *Dispatcher) maybeStart() {
	if d.current != nil {
		return
	}
	qe := d.popNext()
	if qe == nil {
		return
	}

	// Snapshot hook membership: hooks registered during the dispatch of
	// this event do not join its matching set (§4.5 "Selection").
	ordered, err := selectAndOrder(d.hooks, qe.ev, d.global)
	if err != nil {
		log.Warn("%s", err)
	}

	d.current = &eventContext{qe: qe, ordered: ordered, startedAt: time.Now()}
	d.advance(d.current)
}

// popNext removes and returns the highest-priority, earliest-arrived
// queued event, or nil if the queue is empty.
func (d *Dispatcher) popNext() *queuedEvent {
	if len(d.queue) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(d.queue); i++ {
		if higherPriority(d.queue[i], d.queue[best]) {
			best = i
		}
	}
	qe := d.queue[best]
	d.queue = append(d.queue[:best], d.queue[best+1:]...)
	return qe
}

func higherPriority(a, b *queuedEvent) bool {
	if a.ev.Priority() != b.ev.Priority() {
		return a.ev.Priority() > b.ev.Priority()
	}
	return a.seq < b.seq
}

// advance runs the next not-yet-run hook for ec, or completes the event
// if the ordered list is exhausted or the event has been cancelled.
// Must run on the loop goroutine.
func (d *Dispatcher) advance(ec *eventContext) {
	if ec.qe.ctx.Err() != nil || ec.idx >= len(ec.ordered) {
		d.completeEvent(ec)
		return
	}

	h := ec.ordered[ec.idx]
	ec.idx++
	ec.hookStart = time.Now()
	ec.steps = nil

	if h.IsAsync() {
		d.driveAsync(ec, h, hook.StartStep())
	} else {
		err := d.runSync(ec, h)
		d.recordHook(ec, h, false, err)
		d.advance(ec)
	}
}

// runSync invokes a sync hook's closure. A returned error, or a panic
// from the closure, is logged as a HookError; the dispatcher continues
// regardless (§7, §4.4).
func (d *Dispatcher) runSync(ec *eventContext, h *hook.Hook) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{r}
			log.Warn("%s", &werror.HookError{Hook: h.Name(), Err: err})
		}
	}()
	if err = h.Run(ec.qe.ctx, ec.qe.ev); err != nil {
		log.Warn("%s", &werror.HookError{Hook: h.Name(), Err: err})
	}
	return err
}

// recordHook appends ec's current hook to its in-progress trace. A no-op
// unless tracing is enabled.
func (d *Dispatcher) recordHook(ec *eventContext, h *hook.Hook, async bool, err error) {
	if d.trace == nil {
		return
	}
	rec := tracestore.HookRecord{
		Hook:     h.Name(),
		Async:    async,
		Steps:    ec.steps,
		Duration: time.Since(ec.hookStart),
	}
	if err != nil {
		rec.Err = err.Error()
	}
	ec.records = append(ec.records, rec)
}

type panicError struct{ v interface{} }

func (p panicError) Error() string { return "panic: " + toString(p.v) }

func toString(v interface{}) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "non-string panic value"
}

// driveAsync runs the next step of an async hook's state machine and
// schedules the step after it once the current one completes. The
// dispatcher does not start the next hook in ec.ordered until this hook
// terminates (§4.4, §4.5 "Execution").
func (d *Dispatcher) driveAsync(ec *eventContext, h *hook.Hook, previous hook.StepName) {
	if ec.qe.ctx.Err() != nil {
		d.recordHook(ec, h, true, nil)
		d.advance(ec)
		return
	}

	step, err := h.NextStep(ec.qe.ctx, ec.qe.ev, previous)
	if err != nil {
		log.Warn("%s", &werror.HookError{Hook: h.Name(), Err: err})
		d.recordHook(ec, h, true, err)
		d.advance(ec)
		return
	}
	if step == hook.NoStep {
		d.recordHook(ec, h, true, nil)
		d.advance(ec)
		return
	}
	ec.steps = append(ec.steps, string(step))

	h.ExecuteStep(ec.qe.ctx, ec.qe.ev, step, func(err error) {
		// ExecuteStep may complete on an arbitrary goroutine (e.g.
		// after a remote bus round trip); rejoin the loop before
		// touching any dispatcher state.
		d.cmds <- func() {
			if err != nil {
				log.Warn("%s", &werror.HookError{Hook: h.Name(), Err: err})
				d.recordHook(ec, h, true, err)
				d.advance(ec)
				return
			}
			d.driveAsync(ec, h, step)
		}
	})
}

// completeEvent releases ec, persists its trace if tracing is enabled,
// and starts the next queued event, if any.
func (d *Dispatcher) completeEvent(ec *eventContext) {
	if d.trace != nil {
		t := &tracestore.Trace{
			EventType: ec.qe.ev.Type(),
			Priority:  ec.qe.ev.Priority(),
			Hooks:     ec.records,
			StartedAt: ec.startedAt,
			Cancelled: ec.qe.ctx.Err() != nil,
		}
		id := fmt.Sprintf("%020d-%s", ec.qe.seq, ec.qe.ev.Type())
		if err := d.trace.Record(id, t); err != nil {
			log.Warn("trace record failed: %s", err)
		}
	}
	close(ec.qe.done)
	d.current = nil
	d.maybeStart()
}

// selectAndOrder computes M, the ordered set of hooks matching ev, and
// topologically sorts it per §4.5. A CycleError is returned alongside a
// best-effort order covering the acyclic remainder; the cyclic hooks are
// omitted from the returned slice entirely.
func selectAndOrder(hooks map[string]*hook.Hook, ev *event.Event, global *props.Properties) ([]*hook.Hook, error) {
	byName := make(map[string]*hook.Hook)
	names := make([]string, 0, len(hooks))
	for _, h := range hooks {
		if h.Matches(ev.Type(), ev.Properties(), global) {
			byName[h.Name()] = h
			names = append(names, h.Name())
		}
	}
	if len(byName) == 0 {
		return nil, nil
	}

	var edges []toposort.Edge
	for _, n := range names {
		h := byName[n]
		for b := range h.Before() {
			edges = append(edges, toposort.Edge{Before: n, After: b})
		}
		for a := range h.After() {
			edges = append(edges, toposort.Edge{Before: a, After: n})
		}
	}

	order, cyclic := toposort.Order(names, edges)

	ordered := make([]*hook.Hook, 0, len(order))
	for _, n := range order {
		ordered = append(ordered, byName[n])
	}

	if len(cyclic) > 0 {
		return ordered, &werror.CycleError{Hooks: cyclic}
	}
	return ordered, nil
}

// Package hook implements Hook, the matching-predicate-plus-executor
// unit the dispatcher schedules and runs (spec §4.4).
package hook

import (
	"context"

	"wireplumber/event"
	"wireplumber/interest"
	"wireplumber/props"
)

// StepName identifies an async hook's state. NoStep is the sentinel
// NextStep returns to signal successful termination.
type StepName string

// NoStep is the step name meaning "the hook is done".
const NoStep StepName = "none"

// startStep is the previous-step value passed to the very first
// NextStep call for a given event.
const startStep StepName = "start"

// CompletionFunc is invoked by ExecuteStep when a step finishes,
// possibly after external I/O. A non-nil err marks the step (and the
// hook, for this event) as failed.
type CompletionFunc func(err error)

// SyncFunc is a synchronous hook's entire body. A returned error is
// logged as a HookError; the dispatcher proceeds to the next hook
// regardless.
type SyncFunc func(ctx context.Context, ev *event.Event) error

// NextStepFunc returns the name of the step that should run after
// previous, or NoStep to terminate the hook successfully. It is called
// with previous == "start" to obtain the first step.
type NextStepFunc func(ctx context.Context, ev *event.Event, previous StepName) (StepName, error)

// ExecuteStepFunc performs one async step. It must eventually call done
// exactly once, synchronously or after external I/O completes.
type ExecuteStepFunc func(ctx context.Context, ev *event.Event, step StepName, done CompletionFunc)

// Hook is a named, matched, ordered unit of dispatcher logic. It is
// either a sync hook (Run set) or an async hook (NextStep and
// ExecuteStep set); exactly one of the two forms applies to a given
// Hook.
type Hook struct {
	name      string
	before    map[string]struct{}
	after     map[string]struct{}
	interests []*interest.ObjectInterest

	run         SyncFunc
	nextStep    NextStepFunc
	executeStep ExecuteStepFunc
}

// Option configures optional Hook fields (before/after ordering
// constraints).
type Option func(*Hook)

// Before declares that h must run before each named hook, for any event
// where both hooks match.
func Before(names ...string) Option {
	return func(h *Hook) {
		for _, n := range names {
			h.before[n] = struct{}{}
		}
	}
}

// After declares that h must run after each named hook, for any event
// where both hooks match.
func After(names ...string) Option {
	return func(h *Hook) {
		for _, n := range names {
			h.after[n] = struct{}{}
		}
	}
}

func newHook(name string, interests []*interest.ObjectInterest, opts []Option) *Hook {
	h := &Hook{
		name:      name,
		before:    map[string]struct{}{},
		after:     map[string]struct{}{},
		interests: interests,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewSync builds a sync hook (SimpleEventHook in spec terms): a single
// closure run once per matching event.
func NewSync(name string, interests []*interest.ObjectInterest, run SyncFunc, opts ...Option) *Hook {
	h := newHook(name, interests, opts)
	h.run = run
	return h
}

// NewAsync builds an async hook (AsyncEventHook): a next-step/execute-step
// state machine pair.
func NewAsync(name string, interests []*interest.ObjectInterest, next NextStepFunc, exec ExecuteStepFunc, opts ...Option) *Hook {
	h := newHook(name, interests, opts)
	h.nextStep = next
	h.executeStep = exec
	return h
}

// Name returns the hook's unique name.
func (h *Hook) Name() string { return h.name }

// IsAsync reports whether this is an async (state-machine) hook.
func (h *Hook) IsAsync() bool { return h.nextStep != nil }

// Before returns the set of hook names this hook must run before.
func (h *Hook) Before() map[string]struct{} { return h.before }

// After returns the set of hook names this hook must run after.
func (h *Hook) After() map[string]struct{} { return h.after }

// Matches reports whether any of this hook's interests matches an
// object tagged typeTag with properties p, optionally consulting a
// global properties bag for SubjectGlobal constraints.
func (h *Hook) Matches(typeTag string, p, global *props.Properties) bool {
	for _, oi := range h.interests {
		if oi.Matches(typeTag, p, global) {
			return true
		}
	}
	return false
}

// Run invokes a sync hook's body. Callers must check IsAsync first.
func (h *Hook) Run(ctx context.Context, ev *event.Event) error {
	return h.run(ctx, ev)
}

// NextStep obtains the next step name for an async hook. Callers must
// check IsAsync first.
func (h *Hook) NextStep(ctx context.Context, ev *event.Event, previous StepName) (StepName, error) {
	return h.nextStep(ctx, ev, previous)
}

// ExecuteStep runs one step of an async hook. Callers must check
// IsAsync first.
func (h *Hook) ExecuteStep(ctx context.Context, ev *event.Event, step StepName, done CompletionFunc) {
	h.executeStep(ctx, ev, step, done)
}

// StartStep is the sentinel previous-step value used to request an
// async hook's first step.
func StartStep() StepName { return startStep }

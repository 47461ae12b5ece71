// Package event defines Event, the immutable record the dispatcher
// routes to hooks (spec §4.3).
package event

import "wireplumber/props"

// Event is opaque to the dispatcher except for its Type, Priority,
// Subject, and Properties. It is immutable from construction; the
// dispatcher never mutates it.
type Event struct {
	typ        string
	priority   int
	subject    interface{}
	properties *props.Properties
}

// New creates an Event of the given type and priority (higher runs
// earlier), about subject, carrying properties.
func New(typ string, priority int, subject interface{}, properties *props.Properties) *Event {
	if properties == nil {
		properties = props.New()
	}
	return &Event{typ: typ, priority: priority, subject: subject, properties: properties}
}

// Type returns the event's type string, e.g. "object-added".
func (e *Event) Type() string { return e.typ }

// Priority returns the event's scheduling priority; higher is earlier.
func (e *Event) Priority() int { return e.priority }

// Subject returns the opaque object this event is about.
func (e *Event) Subject() interface{} { return e.subject }

// Properties returns the event's property bag.
func (e *Event) Properties() *props.Properties { return e.properties }

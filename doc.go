// Package wireplumber implements the core of a session/policy manager for
// a multimedia audio/video routing daemon: an event-hook dispatcher that
// routes media-graph events to declarative, attribute-matched hooks in a
// deterministic partial order, plus the persistent-state and device
// reservation facilities that hooks lean on.
//
// See SPEC_FULL.md for the full module layout.
package wireplumber

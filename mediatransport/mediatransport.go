// Package mediatransport defines the pluggable adapter interface that
// publishes objects discovered on the underlying media server as Events
// (spec §6 "Media-server transport"). The transport itself -- and any
// particular wire protocol it speaks -- is out of scope (§1); this
// package specifies only the seam the daemon wrapper and dispatcher
// depend on.
package mediatransport

import (
	"context"

	"wireplumber/event"
)

// Transport publishes discovered media-server objects as Events and
// signals when its connection to the server is lost.
type Transport interface {
	// Start connects to the media server and begins delivering Events
	// to sink until ctx is cancelled or the connection drops.
	Start(ctx context.Context, sink func(*event.Event)) error

	// Disconnected is closed when the transport loses its connection to
	// the media server. cmd/wireplumberd does not create a Transport
	// and does not watch this channel.
	Disconnected() <-chan struct{}

	// Close releases the transport's underlying connection.
	Close() error
}

// Well-known event type strings published by transports, per §6.
const (
	TypeObjectAdded       = "object-added"
	TypeObjectRemoved     = "object-removed"
	TypeSessionItemAdded  = "session-item-added"
	TypeSelectTarget      = "select-target"
)

// Well-known property keys carried on transport-published events, per §6.
const (
	PropEventType    = "event.type"
	PropSubjectType  = "event.subject.type"
	PropNodeName     = "node.name"
	PropMediaClass   = "media.class"
	PropFactoryName  = "item.factory.name"
)

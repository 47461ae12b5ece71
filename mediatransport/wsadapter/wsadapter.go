/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package wsadapter is one concrete implementation of
// mediatransport.Transport: it dials a websocket feed and decodes each
// incoming text message as a wire event, following the same
// websocket.DefaultDialer.Dial/ReadMessage loop as the teacher's
// cmd/mcrew/client-ws.go.
package wsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"wireplumber/event"
	"wireplumber/internal/wplog"
	"wireplumber/mediatransport"
	"wireplumber/props"

	"github.com/gorilla/websocket"
)

var log = wplog.Topic("wsadapter")

// wireEvent is the JSON shape read off the socket, one object per
// text frame.
type wireEvent struct {
	Type        string            `json:"type"`
	Priority    int               `json:"priority"`
	Subject     string            `json:"subject"`
	SubjectType string            `json:"subject_type"`
	Properties  map[string]string `json:"properties"`
}

// requiredProp names the property a given well-known event type is
// expected to carry, per spec §6's examples (node-name for add/remove,
// factory-name for a new session item, media-class for target
// selection). A missing one is logged, not rejected: the media server
// is the source of truth, not this adapter.
var requiredProp = map[string]string{
	mediatransport.TypeObjectAdded:      mediatransport.PropNodeName,
	mediatransport.TypeObjectRemoved:    mediatransport.PropNodeName,
	mediatransport.TypeSessionItemAdded: mediatransport.PropFactoryName,
	mediatransport.TypeSelectTarget:     mediatransport.PropMediaClass,
}

func decodeEvent(we *wireEvent) *event.Event {
	p := props.New()
	for k, v := range we.Properties {
		p.Set(k, v)
	}
	p.Set(mediatransport.PropEventType, we.Type)
	if we.SubjectType != "" {
		p.Set(mediatransport.PropSubjectType, we.SubjectType)
	}

	if want, have := requiredProp[we.Type]; have {
		if _, present := p.Get(want); !present {
			log.Warn("%s frame missing expected property %s", we.Type, want)
		}
	}

	return event.New(we.Type, we.Priority, we.Subject, p)
}

// Adapter dials url and turns each incoming JSON frame into an Event.
type Adapter struct {
	url string

	mu           sync.Mutex
	conn         *websocket.Conn
	disconnected chan struct{}
	closeOnce    sync.Once
}

// New creates an Adapter that will dial url when Start is called.
func New(url string) *Adapter {
	return &Adapter{
		url:          url,
		disconnected: make(chan struct{}),
	}
}

// Start implements mediatransport.Transport.
func (a *Adapter) Start(ctx context.Context, sink func(*event.Event)) error {
	conn, _, err := websocket.DefaultDialer.Dial(a.url, nil)
	if err != nil {
		return fmt.Errorf("wsadapter: dial %s: %w", a.url, err)
	}

	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()

	go a.readLoop(ctx, sink)
	return nil
}

func (a *Adapter) readLoop(ctx context.Context, sink func(*event.Event)) {
	defer a.signalDisconnected()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := a.conn.ReadMessage()
		if err != nil {
			log.Warn("read error, closing: %s", err)
			return
		}

		var we wireEvent
		if err := json.Unmarshal(message, &we); err != nil {
			log.Warn("malformed event frame: %s", err)
			continue
		}

		sink(decodeEvent(&we))
	}
}

func (a *Adapter) signalDisconnected() {
	a.closeOnce.Do(func() {
		close(a.disconnected)
	})
}

// Disconnected implements mediatransport.Transport.
func (a *Adapter) Disconnected() <-chan struct{} {
	return a.disconnected
}

// Close implements mediatransport.Transport.
func (a *Adapter) Close() error {
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

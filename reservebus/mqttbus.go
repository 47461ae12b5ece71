package reservebus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"wireplumber/internal/wplog"

	"github.com/google/uuid"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var log = wplog.Topic("reservebus")

// MQTTBus implements Bus over an MQTT broker, following the same
// client-setup idiom as the teacher's sio/siomq and cmd/siomq commands:
// one paho client, one set of subscriptions, JSON payloads.
//
// Topic layout:
//
//	wireplumber/reservation/<name>/request    peer -> all:    Request  (retained: no)
//	wireplumber/reservation/<name>/response/<correlation-id>  reply -> requester: Response
//	wireplumber/reservation/<name>/release    peer -> all:    {}
//
// Connection state is not published on the broker; it is reported only
// locally, through State and StateChanges.
type MQTTBus struct {
	client mqtt.Client

	mu          sync.Mutex
	state       ConnState
	states      chan ConnState
	incoming    chan *IncomingRequest
	released    chan string
	correlation map[string]chan *Response
}

// MQTTOptions configures NewMQTTBus.
type MQTTOptions struct {
	Broker    string
	ClientID  string
	KeepAlive time.Duration
}

// NewMQTTBus connects to opts.Broker and returns a Bus backed by it.
func NewMQTTBus(opts MQTTOptions) (*MQTTBus, error) {
	b := &MQTTBus{
		state:       Connecting,
		states:      make(chan ConnState, 8),
		incoming:    make(chan *IncomingRequest, 32),
		released:    make(chan string, 32),
		correlation: make(map[string]chan *Response),
	}

	copts := mqtt.NewClientOptions()
	copts.AddBroker(opts.Broker)
	copts.SetClientID(opts.ClientID)
	if opts.KeepAlive > 0 {
		copts.SetKeepAlive(opts.KeepAlive)
	}
	copts.SetAutoReconnect(true)
	copts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		log.Warn("connection lost: %s", err)
		b.setState(Closed)
	})
	copts.SetOnConnectHandler(func(c mqtt.Client) {
		b.setState(Connected)
	})

	b.client = mqtt.NewClient(copts)
	token := b.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("reservebus: connect to %s timed out", opts.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("reservebus: connect to %s: %w", opts.Broker, err)
	}

	if token := b.client.Subscribe("wireplumber/reservation/+/request", 1, b.onRequest); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	if token := b.client.Subscribe("wireplumber/reservation/+/response/+", 1, b.onResponse); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	if token := b.client.Subscribe("wireplumber/reservation/+/release", 1, b.onRelease); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	return b, nil
}

func (b *MQTTBus) setState(s ConnState) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
	select {
	case b.states <- s:
	default:
		log.Warn("state channel full, dropping transition to %s", s)
	}
}

// State implements Bus.
func (b *MQTTBus) State() ConnState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// StateChanges implements Bus.
func (b *MQTTBus) StateChanges() <-chan ConnState { return b.states }

// Incoming implements Bus.
func (b *MQTTBus) Incoming() <-chan *IncomingRequest { return b.incoming }

// Released implements Bus.
func (b *MQTTBus) Released() <-chan string { return b.released }

// onRelease parses the reservation name out of a release topic
// (wireplumber/reservation/<name>/release) and delivers it on
// released; the empty "{}" payload carries no information beyond the
// topic itself.
func (b *MQTTBus) onRelease(c mqtt.Client, msg mqtt.Message) {
	parts := strings.Split(msg.Topic(), "/")
	if len(parts) < 4 {
		log.Warn("malformed release topic %s", msg.Topic())
		return
	}
	name := parts[2]

	select {
	case b.released <- name:
	default:
		log.Warn("released channel full, dropping release notice for %s", name)
	}
}

func (b *MQTTBus) onRequest(c mqtt.Client, msg mqtt.Message) {
	var req Request
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		log.Warn("malformed request on %s: %s", msg.Topic(), err)
		return
	}

	correlationID := uuid.New().String()
	ir := &IncomingRequest{
		Request: &req,
		Reply: func(granted bool) {
			resp := &Response{Granted: granted}
			js, err := json.Marshal(resp)
			if err != nil {
				log.Warn("marshal response: %s", err)
				return
			}
			topic := fmt.Sprintf("wireplumber/reservation/%s/response/%s", req.ReservationName, correlationID)
			b.client.Publish(topic, 1, false, js)
		},
	}

	select {
	case b.incoming <- ir:
	default:
		log.Warn("incoming request channel full, dropping request for %s", req.ReservationName)
	}
}

func (b *MQTTBus) onResponse(c mqtt.Client, msg mqtt.Message) {
	var resp Response
	if err := json.Unmarshal(msg.Payload(), &resp); err != nil {
		log.Warn("malformed response on %s: %s", msg.Topic(), err)
		return
	}

	b.mu.Lock()
	ch, have := b.correlation[msg.Topic()]
	if have {
		delete(b.correlation, msg.Topic())
	}
	b.mu.Unlock()

	if have {
		ch <- &resp
	}
}

// SendRequest implements Bus.
func (b *MQTTBus) SendRequest(ctx context.Context, req *Request) (*Response, error) {
	correlationID := uuid.New().String()
	respTopic := fmt.Sprintf("wireplumber/reservation/%s/response/%s", req.ReservationName, correlationID)

	ch := make(chan *Response, 1)
	b.mu.Lock()
	b.correlation[respTopic] = ch
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.correlation, respTopic)
		b.mu.Unlock()
	}()

	js, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	topic := fmt.Sprintf("wireplumber/reservation/%s/request", req.ReservationName)
	if token := b.client.Publish(topic, 1, false, js); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendRelease implements Bus.
func (b *MQTTBus) SendRelease(ctx context.Context, name string) error {
	topic := fmt.Sprintf("wireplumber/reservation/%s/release", name)
	token := b.client.Publish(topic, 1, false, []byte("{}"))
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("reservebus: release of %s timed out", name)
	}
	return token.Error()
}

// Close implements Bus.
func (b *MQTTBus) Close() error {
	b.client.Disconnect(250)
	b.setState(Closed)
	return nil
}

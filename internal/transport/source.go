package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Connect dials the broker and waits for the connection.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	return client, nil
}

// Source subscribes to one frame topic and retains the latest frame.
// Poll never blocks and keeps returning the same frame pointer until a
// new one arrives; Next blocks for a genuinely new frame and is used
// only during calibration.
type Source struct {
	client mqtt.Client
	topic  string

	mu     sync.Mutex
	latest *Frame
	seq    uint64 // frames received
	polled uint64 // seq at last Poll
	notify chan struct{}

	closeOnce sync.Once
}

// NewSource subscribes to topic and returns the source.
func NewSource(client mqtt.Client, topic string) (*Source, error) {
	s := &Source{
		client: client,
		topic:  topic,
		notify: make(chan struct{}, 1),
	}
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		s.handle(msg.Payload())
	})
	if token.Wait(); token.Error() != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	return s, nil
}

func (s *Source) handle(payload []byte) {
	f := &Frame{}
	if err := json.Unmarshal(payload, f); err != nil {
		log.Printf("transport: %s: frame unmarshal error: %v", s.topic, err)
		return
	}
	s.mu.Lock()
	s.latest = f
	s.seq++
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Poll returns the latest frame and whether it is new since the last
// Poll. The frame is nil until the first one ever arrives.
func (s *Source) Poll() (*Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fresh := s.seq > s.polled
	s.polled = s.seq
	return s.latest, fresh
}

// Next blocks until a frame newer than the call instant arrives. It is
// unbounded by design; the caller's context is the only way out.
func (s *Source) Next(ctx context.Context) (*Frame, error) {
	s.mu.Lock()
	start := s.seq
	s.mu.Unlock()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.notify:
		}
		s.mu.Lock()
		if s.seq > start {
			f := s.latest
			s.mu.Unlock()
			return f, nil
		}
		s.mu.Unlock()
	}
}

// Topic returns the subscribed topic.
func (s *Source) Topic() string { return s.topic }

// Close unsubscribes from the topic.
func (s *Source) Close() {
	s.closeOnce.Do(func() {
		if token := s.client.Unsubscribe(s.topic); token.Wait() && token.Error() != nil {
			log.Printf("transport: unsubscribe %s: %v", s.topic, token.Error())
		}
	})
}

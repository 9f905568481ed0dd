package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnState is the subscriber's connection state.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateBackoff
	StateStopped
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateBackoff:
		return "backoff"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
	maxRetries     = 10
)

// Subscriber bridges Redis pub/sub into the websocket hub. It owns a
// single pattern subscription and walks an explicit connect / backoff
// loop: a healthy subscription resets the retry budget, and exhausting
// the budget stops the bridge for good.
type Subscriber struct {
	client *redis.Client
	hub    *Hub
	logger *zap.Logger
	state  atomic.Int32
	stop   chan struct{}
	done   chan struct{}
}

// NewSubscriber creates a new Subscriber.
func NewSubscriber(client *redis.Client, hub *Hub, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		client: client,
		hub:    hub,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Run drives the subscription until Stop is called or the retry budget
// runs out. Call it from its own goroutine.
func (s *Subscriber) Run(ctx context.Context) {
	defer close(s.done)

	backoff := initialBackoff
	retries := 0

	for {
		select {
		case <-s.stop:
			s.setState(StateStopped)
			return
		case <-ctx.Done():
			s.setState(StateStopped)
			return
		default:
		}

		s.setState(StateConnecting)
		healthy, err := s.consume(ctx)
		if err == nil {
			s.setState(StateStopped)
			return
		}

		if healthy {
			// The subscription worked before failing; start the backoff
			// ladder over.
			backoff = initialBackoff
			retries = 0
		}

		retries++
		if retries > maxRetries {
			s.logger.Error("Realtime bridge giving up after repeated failures", zap.Error(err))
			s.setState(StateStopped)
			return
		}

		s.setState(StateBackoff)
		s.logger.Warn("Realtime bridge reconnecting",
			zap.Duration("backoff", backoff),
			zap.Int("attempt", retries),
			zap.Error(err))

		select {
		case <-time.After(backoff):
		case <-s.stop:
			s.setState(StateStopped)
			return
		case <-ctx.Done():
			s.setState(StateStopped)
			return
		}
		if backoff *= 2; backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// consume holds one subscription open and routes messages until it fails
// or the bridge stops. It reports whether the subscription delivered at
// least one message before failing.
func (s *Subscriber) consume(ctx context.Context) (healthy bool, err error) {
	pubsub := s.client.PSubscribe(ctx, channelPattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return false, err
	}
	// Broadcast events arrive on a plain channel alongside the pattern.
	if err := pubsub.Subscribe(ctx, broadcastChannel); err != nil {
		return false, err
	}

	s.setState(StateConnected)
	ch := pubsub.Channel()

	for {
		select {
		case <-s.stop:
			return healthy, nil
		case <-ctx.Done():
			return healthy, nil
		case msg, ok := <-ch:
			if !ok {
				return healthy, redis.ErrClosed
			}
			healthy = true
			s.route(msg)
		}
	}
}

func (s *Subscriber) route(msg *redis.Message) {
	if msg.Channel == broadcastChannel {
		s.hub.Broadcast([]byte(msg.Payload))
		return
	}

	userID := strings.TrimPrefix(msg.Channel, "events:user:")
	if userID == "" || userID == msg.Channel {
		return
	}

	// Validate the envelope before pushing it to clients.
	var event Event
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
		s.logger.Warn("Dropping malformed realtime event", zap.String("channel", msg.Channel), zap.Error(err))
		return
	}
	s.hub.Send(userID, []byte(msg.Payload))
}

// State reports the current connection state.
func (s *Subscriber) State() ConnState {
	return ConnState(s.state.Load())
}

func (s *Subscriber) setState(state ConnState) {
	s.state.Store(int32(state))
}

// Stop shuts the bridge down and waits for the loop to exit.
func (s *Subscriber) Stop() {
	close(s.stop)
	<-s.done
}

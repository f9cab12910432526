package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/copyforge-hq/titan/pkg/queue"
)

// Default broker tuning.
const (
	DefaultPublishBufferSize    = 256
	DefaultSubscriberBufferSize = 64
	DefaultMaxSubscribers       = 1024
	DefaultShutdownTimeout      = 5 * time.Second
)

var subscriberIDCounter atomic.Int64

// EventFilter decides whether an event is delivered to a subscriber.
// Return true to deliver.
type EventFilter func(Event) bool

// FilterByJob returns a filter that only passes events for the given job.
func FilterByJob(jobID string) EventFilter {
	return func(e Event) bool { return e.JobID == jobID }
}

type subscriber struct {
	id     string
	events chan Event
	filter EventFilter
	ctx    context.Context
	cancel context.CancelFunc

	// mu guards closed and the channel close. send holds it for the
	// duration of the send so close can never race a delivery.
	mu     sync.Mutex
	closed bool
}

func newSubscriber(ctx context.Context, bufferSize int, filter EventFilter) *subscriber {
	subCtx, cancel := context.WithCancel(ctx)
	return &subscriber{
		id:     fmt.Sprintf("sub-%d-%d", time.Now().UnixNano(), subscriberIDCounter.Add(1)),
		events: make(chan Event, bufferSize),
		filter: filter,
		ctx:    subCtx,
		cancel: cancel,
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	close(s.events)
}

// send delivers an event without blocking. A false return means the
// subscriber's buffer is full.
func (s *subscriber) send(e Event) bool {
	if s.filter != nil && !s.filter(e) {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.events <- e:
		return true
	default:
		return false
	}
}

// Broker fans job events out to in-process subscribers. It implements
// Publisher, so it can be handed directly to the queue and dispatcher.
type Broker struct {
	logger      *slog.Logger
	mu          sync.RWMutex
	subscribers map[string]*subscriber

	publish chan Event
	dropped atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	publishBufferSize    int
	subscriberBufferSize int
	maxSubscribers       int
	shutdownTimeout      time.Duration
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithPublishBufferSize sets the central publish buffer size.
func WithPublishBufferSize(n int) BrokerOption {
	return func(b *Broker) {
		if n > 0 {
			b.publishBufferSize = n
		}
	}
}

// WithSubscriberBufferSize sets the default per-subscriber buffer size.
func WithSubscriberBufferSize(n int) BrokerOption {
	return func(b *Broker) {
		if n > 0 {
			b.subscriberBufferSize = n
		}
	}
}

// WithMaxSubscribers caps concurrent subscribers. Zero means unlimited.
func WithMaxSubscribers(n int) BrokerOption {
	return func(b *Broker) { b.maxSubscribers = n }
}

// NewBroker creates an in-process event broker.
func NewBroker(logger *slog.Logger, opts ...BrokerOption) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Broker{
		logger:               logger.With("component", "notify"),
		subscribers:          make(map[string]*subscriber),
		publishBufferSize:    DefaultPublishBufferSize,
		subscriberBufferSize: DefaultSubscriberBufferSize,
		maxSubscribers:       DefaultMaxSubscribers,
		shutdownTimeout:      DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.publish = make(chan Event, b.publishBufferSize)
	return b
}

// Start begins fan-out. It is non-blocking.
func (b *Broker) Start(ctx context.Context) {
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.wg.Add(1)
	go b.broadcastLoop()
	b.logger.Info("event broker started",
		"publish_buffer", b.publishBufferSize,
		"subscriber_buffer", b.subscriberBufferSize,
		"max_subscribers", b.maxSubscribers)
}

// Stop drains the broadcast loop and disconnects all subscribers.
func (b *Broker) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("event broker stopped")
	case <-time.After(b.shutdownTimeout):
		b.logger.Warn("event broker shutdown timeout exceeded")
	}
}

// Notify implements Publisher. Events are dropped rather than blocking
// the caller when the publish buffer is full.
func (b *Broker) Notify(ctx context.Context, jobID string, status queue.Status, payload any) {
	event := NewEvent(jobID, status, payload)
	select {
	case b.publish <- event:
	case <-ctx.Done():
	default:
		b.dropped.Add(1)
		b.logger.Warn("publish buffer full, event dropped",
			"job_id", jobID, "status", status)
	}
}

// Subscribe registers a consumer. The returned channel is closed when
// the subscription ends. The cleanup function must be called when the
// consumer is done.
func (b *Broker) Subscribe(ctx context.Context, filter EventFilter) (<-chan Event, func()) {
	b.mu.RLock()
	current := len(b.subscribers)
	b.mu.RUnlock()

	if b.maxSubscribers > 0 && current >= b.maxSubscribers {
		b.logger.Warn("subscriber limit reached, rejecting subscription",
			"max_subscribers", b.maxSubscribers)
		rejected := make(chan Event)
		close(rejected)
		return rejected, func() {}
	}

	s := newSubscriber(ctx, b.subscriberBufferSize, filter)

	b.mu.Lock()
	b.subscribers[s.id] = s
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		<-s.ctx.Done()
		b.removeSubscriber(s.id)
	}()

	return s.events, func() { b.removeSubscriber(s.id) }
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// DroppedEvents returns the number of events dropped at the publish buffer.
func (b *Broker) DroppedEvents() int64 {
	return b.dropped.Load()
}

func (b *Broker) broadcastLoop() {
	defer b.wg.Done()
	for {
		select {
		case event := <-b.publish:
			b.broadcast(event)
		case <-b.ctx.Done():
			b.disconnectAll()
			return
		}
	}
}

func (b *Broker) broadcast(event Event) {
	b.mu.RLock()
	subs := make([]*subscriber, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	var slow []string
	for _, s := range subs {
		if !s.send(event) {
			slow = append(slow, s.id)
		}
	}

	// A full buffer means the subscriber is not keeping up. Dropping the
	// connection keeps the broadcast loop from ever blocking.
	for _, id := range slow {
		b.logger.Warn("subscriber buffer full, disconnecting",
			"subscriber_id", id, "status", event.Status)
		b.removeSubscriber(id)
	}
}

func (b *Broker) removeSubscriber(id string) {
	b.mu.Lock()
	s, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
	}
	b.mu.Unlock()

	if ok && s != nil {
		s.close()
	}
}

func (b *Broker) disconnectAll() {
	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		subs = append(subs, s)
	}
	b.subscribers = make(map[string]*subscriber)
	b.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
}

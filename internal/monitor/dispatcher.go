package monitor

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kyrodb/kyroql/internal/ids"
	"github.com/kyrodb/kyroql/internal/ir"
)

const (
	// DefaultObservationQueueCapacity bounds the dispatcher's inbound
	// observation channel (spec.md §4.5 / §6).
	DefaultObservationQueueCapacity = 4096
	// DefaultControlQueueCapacity bounds register/unregister traffic.
	DefaultControlQueueCapacity = 1024
	// DefaultStreamCapacity bounds each subscription's outbound event channel.
	DefaultStreamCapacity = 1024
	// ExpiryCleanupInterval is how often the worker sweeps expired subscriptions.
	ExpiryCleanupInterval = 50 * time.Millisecond
)

// Config configures a Dispatcher's queue capacities.
type Config struct {
	ObservationQueueCapacity int
	ControlQueueCapacity     int
	StreamCapacity           int
	Logger                   *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.ObservationQueueCapacity == 0 {
		c.ObservationQueueCapacity = DefaultObservationQueueCapacity
	}
	if c.ControlQueueCapacity == 0 {
		c.ControlQueueCapacity = DefaultControlQueueCapacity
	}
	if c.StreamCapacity == 0 {
		c.StreamCapacity = DefaultStreamCapacity
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

type registerMsg struct {
	id        ids.SubscriptionId
	triggers  []ir.Trigger
	expiresAt *time.Time
	ack       chan *Stream
}

type unregisterMsg struct {
	id ids.SubscriptionId
}

// controlMsg is the closed tagged union of control-channel traffic.
type controlMsg struct {
	register   *registerMsg
	unregister *unregisterMsg
}

type subscription struct {
	id        ids.SubscriptionId
	triggers  []ir.Trigger
	expiresAt *time.Time
	eventCh   chan Event
	dropped   atomic.Uint64
}

// Dispatcher is KyroQL's single-worker trigger matcher. All subscription
// bookkeeping lives inside the one goroutine started by Run, so it needs
// no locking: registration, unregistration, observation matching, and
// expiry sweeps are all serialized through the same select loop.
type Dispatcher struct {
	cfg     Config
	logger  *slog.Logger
	control chan controlMsg
	observe chan Observation
	stop    chan struct{}

	droppedObservations atomic.Uint64
	startOnce           sync.Once
	stopOnce            sync.Once
}

// NewDispatcher constructs a Dispatcher. Call Run to start its worker.
func NewDispatcher(cfg Config) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		cfg:     cfg,
		logger:  cfg.Logger,
		control: make(chan controlMsg, cfg.ControlQueueCapacity),
		observe: make(chan Observation, cfg.ObservationQueueCapacity),
		stop:    make(chan struct{}),
	}
}

// Run starts the dispatcher's worker goroutine. Safe to call once; later
// calls are no-ops.
func (d *Dispatcher) Run() {
	d.startOnce.Do(func() {
		go d.loop()
	})
}

func (d *Dispatcher) loop() {
	subs := make(map[ids.SubscriptionId]*subscription)
	ticker := time.NewTicker(ExpiryCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			for _, s := range subs {
				close(s.eventCh)
			}
			return

		case msg := <-d.control:
			switch {
			case msg.register != nil:
				s := &subscription{
					id:        msg.register.id,
					triggers:  msg.register.triggers,
					expiresAt: msg.register.expiresAt,
					eventCh:   make(chan Event, d.cfg.StreamCapacity),
				}
				subs[s.id] = s
				msg.register.ack <- newStream(d, s)
			case msg.unregister != nil:
				if s, ok := subs[msg.unregister.id]; ok {
					close(s.eventCh)
					delete(subs, msg.unregister.id)
				}
			}

		case obs := <-d.observe:
			now := time.Now()
			for _, s := range subs {
				if s.expiresAt != nil && now.After(*s.expiresAt) {
					continue
				}
				for _, t := range s.triggers {
					if !Matches(t, obs) {
						continue
					}
					event := Event{SubscriptionID: s.id, Trigger: t, Observation: obs}
					select {
					case s.eventCh <- event:
					default:
						s.dropped.Add(1)
						d.logger.Warn("monitor: dropped event for slow subscriber",
							"subscription_id", s.id.String(), "dropped_total", s.dropped.Load())
					}
					break // one delivery per subscription per observation
				}
			}

		case now := <-ticker.C:
			for id, s := range subs {
				if s.expiresAt != nil && now.After(*s.expiresAt) {
					close(s.eventCh)
					delete(subs, id)
				}
			}
		}
	}
}

// Register installs a new subscription and blocks until the worker has
// acknowledged it (spec.md §4.5's synchronous registration ack), returning
// a Stream the caller reads matched events from. Rejects a nil-or-empty
// trigger set and an expiresAt that isn't strictly in the future, matching
// the reference dispatcher's registration-time checks rather than letting
// an already-expired subscription live until the next cleanup sweep.
func (d *Dispatcher) Register(triggers []ir.Trigger, expiresAt *time.Time) (*Stream, error) {
	if len(triggers) == 0 {
		return nil, fmt.Errorf("monitor: register requires at least one trigger")
	}
	if expiresAt != nil && !expiresAt.After(time.Now()) {
		return nil, fmt.Errorf("monitor: expires_at must be in the future")
	}
	ack := make(chan *Stream, 1)
	msg := controlMsg{register: &registerMsg{
		id:        ids.NewSubscriptionId(),
		triggers:  triggers,
		expiresAt: expiresAt,
		ack:       ack,
	}}
	select {
	case d.control <- msg:
	case <-d.stop:
		return nil, fmt.Errorf("monitor: dispatcher stopped")
	}
	return <-ack, nil
}

// Observe enqueues obs for matching. Non-blocking: if the observation
// queue is full, the observation is dropped and counted rather than
// blocking the caller (spec.md §4.5 backpressure).
func (d *Dispatcher) Observe(obs Observation) {
	select {
	case d.observe <- obs:
	default:
		d.droppedObservations.Add(1)
		d.logger.Warn("monitor: dropped observation, queue full",
			"dropped_total", d.droppedObservations.Load())
	}
}

// DroppedObservations returns the running count of observations dropped
// due to a full inbound queue.
func (d *Dispatcher) DroppedObservations() uint64 {
	return d.droppedObservations.Load()
}

// unregister is called by Stream.Unsubscribe.
func (d *Dispatcher) unregister(id ids.SubscriptionId) {
	select {
	case d.control <- controlMsg{unregister: &unregisterMsg{id: id}}:
	case <-d.stop:
	}
}

// Shutdown signals the worker to stop and returns immediately without
// waiting for it to exit: the worker goroutine is detached, not joined,
// matching the dispatcher's single-worker-thread design in the original
// implementation. Any further Register/Observe calls after Shutdown will
// not be serviced.
func (d *Dispatcher) Shutdown() {
	d.stopOnce.Do(func() {
		close(d.stop)
	})
}

package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kyrodb/kyroql/internal/ids"
)

// ErrStreamClosed is returned by Recv/RecvTimeout once a Stream's
// subscription has been unregistered (explicitly or by expiry).
var ErrStreamClosed = errors.New("monitor: stream closed")

// Stream is a live subscription's read handle: matched Events arrive here
// in the order the dispatcher observed them. Unsubscribe is idempotent.
type Stream struct {
	id   ids.SubscriptionId
	d    *Dispatcher
	ch   <-chan Event
	once sync.Once
}

func newStream(d *Dispatcher, s *subscription) *Stream {
	return &Stream{id: s.id, d: d, ch: s.eventCh}
}

// ID returns this stream's subscription ID.
func (s *Stream) ID() ids.SubscriptionId { return s.id }

// Recv blocks until an Event arrives, the stream closes, or ctx is done.
func (s *Stream) Recv(ctx context.Context) (Event, error) {
	select {
	case ev, ok := <-s.ch:
		if !ok {
			return Event{}, ErrStreamClosed
		}
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// RecvTimeout is Recv bounded by a duration instead of a context.
func (s *Stream) RecvTimeout(d time.Duration) (Event, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return s.Recv(ctx)
}

// Unsubscribe tells the dispatcher to drop this subscription. Safe to call
// more than once or concurrently; only the first call has effect.
func (s *Stream) Unsubscribe() {
	s.once.Do(func() {
		s.d.unregister(s.id)
	})
}

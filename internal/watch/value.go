// Package watch provides a minimal observable value cell. Every subscriber
// immediately receives the current value (when one has been set), then all
// subsequent updates, in order. No third-party pub/sub dependency is
// involved; channels and a mutex are enough for a single-process client.
package watch

import "sync"

// subscriberBuffer bounds how far a slow subscriber may lag. When the buffer
// fills, the oldest pending value is discarded so the latest is never lost;
// observers of a state cell care about the newest value, not the backlog.
const subscriberBuffer = 16

// Value is an observable cell holding a single current value of type T.
// The zero value is not usable; construct with NewValue.
type Value[T any] struct {
	mu      sync.Mutex
	current T
	set     bool
	subs    map[int]chan T
	nextID  int
}

func NewValue[T any]() *Value[T] {
	return &Value[T]{subs: make(map[int]chan T)}
}

// Get returns the current value. ok is false before the first Set.
func (v *Value[T]) Get() (val T, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current, v.set
}

// Set stores val as the current value and delivers it to every subscriber.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = val
	v.set = true
	for _, ch := range v.subs {
		send(ch, val)
	}
}

// Subscribe registers an observer. The returned channel first yields the
// current value, if any, then every later Set in order. The cancel function
// must be called when the observer is done; the channel is never closed, so
// receivers should select against their own done signal.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	ch := make(chan T, subscriberBuffer)
	if v.set {
		ch <- v.current
	}
	id := v.nextID
	v.nextID++
	v.subs[id] = ch
	v.mu.Unlock()

	cancel := func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
	return ch, cancel
}

// send delivers without blocking the writer: when the subscriber's buffer is
// full, the oldest pending value is dropped to make room.
func send[T any](ch chan T, val T) {
	for {
		select {
		case ch <- val:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

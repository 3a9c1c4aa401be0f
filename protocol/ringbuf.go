package protocol

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrChannelFull  = errors.New("channel full: send timed out")
	ErrChannelEmpty = errors.New("channel empty: receive timed out")
	ErrItemTooLarge = errors.New("item larger than channel capacity")
)

// Item is one received message. Its space in the channel is held until
// the consumer hands it back with Release.
type Item struct {
	Data []byte

	cost     int
	released bool
}

// RingBuffer is a bounded FIFO of byte messages shared between tasks.
// Capacity is counted in bytes: every item is charged ItemHeaderSize plus
// its length rounded up to ItemAlign. Messages are copied on send.
type RingBuffer struct {
	mu       sync.Mutex
	capacity int
	used     int
	queue    []*Item

	// changed is closed and replaced whenever space or data appears
	changed chan struct{}
}

// NewRingBuffer creates a channel holding at most capacity bytes
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		capacity: capacity,
		changed:  make(chan struct{}),
	}
}

// ItemCost returns the capacity charged for a payload of n bytes
func ItemCost(n int) int {
	return ItemHeaderSize + (n+ItemAlign-1)/ItemAlign*ItemAlign
}

// Send copies data into the channel, waiting up to timeout for space.
// On timeout the message is dropped and ErrChannelFull is returned.
func (r *RingBuffer) Send(data []byte, timeout time.Duration) error {
	return r.SendContext(context.Background(), data, timeout)
}

// SendContext is Send that also gives up with ctx's error when ctx is
// cancelled while waiting for space
func (r *RingBuffer) SendContext(ctx context.Context, data []byte, timeout time.Duration) error {
	cost := ItemCost(len(data))
	if cost > r.capacity {
		return ErrItemTooLarge
	}

	item := &Item{Data: append([]byte(nil), data...), cost: cost}

	var timer *time.Timer
	for {
		r.mu.Lock()
		if r.used+cost <= r.capacity {
			r.used += cost
			r.queue = append(r.queue, item)
			r.notifyLocked()
			r.mu.Unlock()
			return nil
		}
		wait := r.changed
		r.mu.Unlock()

		if timeout <= 0 {
			return ErrChannelFull
		}
		if timer == nil {
			timer = time.NewTimer(timeout)
			defer timer.Stop()
		}
		select {
		case <-wait:
		case <-timer.C:
			return ErrChannelFull
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Receive takes the oldest message, waiting up to timeout for one to arrive.
// The returned item still occupies channel space until Release is called.
func (r *RingBuffer) Receive(timeout time.Duration) (*Item, error) {
	return r.ReceiveContext(context.Background(), timeout)
}

// ReceiveContext is Receive that also gives up with ctx's error when ctx
// is cancelled while waiting
func (r *RingBuffer) ReceiveContext(ctx context.Context, timeout time.Duration) (*Item, error) {
	var timer *time.Timer
	for {
		r.mu.Lock()
		if len(r.queue) > 0 {
			item := r.queue[0]
			r.queue[0] = nil
			r.queue = r.queue[1:]
			r.mu.Unlock()
			return item, nil
		}
		wait := r.changed
		r.mu.Unlock()

		if timeout <= 0 {
			return nil, ErrChannelEmpty
		}
		if timer == nil {
			timer = time.NewTimer(timeout)
			defer timer.Stop()
		}
		select {
		case <-wait:
		case <-timer.C:
			return nil, ErrChannelEmpty
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Release returns an item's space to the channel. Releasing twice is a no-op.
func (r *RingBuffer) Release(item *Item) {
	if item == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.released {
		return
	}
	item.released = true
	r.used -= item.cost
	r.notifyLocked()
}

// Len returns the number of queued, not yet received messages
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Free returns the unclaimed capacity in bytes
func (r *RingBuffer) Free() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capacity - r.used
}

// notifyLocked wakes every waiter; r.mu must be held
func (r *RingBuffer) notifyLocked() {
	close(r.changed)
	r.changed = make(chan struct{})
}

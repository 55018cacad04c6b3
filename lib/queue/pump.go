package queue

import (
	"sync"
)

// Pump streams the values of a LockFreeMPSC into a channel.
// A single background goroutine is the queue's consumer; any number of
// goroutines may read from Recv(). Producers never block on Push.
type Pump[T any] struct {
	q        *LockFreeMPSC[T]
	out      chan *T
	consumer sync.WaitGroup

	// Condition variable for efficient waiting
	mu   sync.Mutex
	cond *sync.Cond
}

// NewPump creates a pump and starts its consumer goroutine
func NewPump[T any]() *Pump[T] {
	p := &Pump[T]{
		q:   NewLockFreeMPSC[T](),
		out: make(chan *T),
	}
	p.cond = sync.NewCond(&p.mu)

	p.consumer.Add(1)
	go p.consume()

	return p
}

// Push adds an item to the pump. Returns false if the pump is closed.
func (p *Pump[T]) Push(value *T) bool {
	if !p.q.Push(value) {
		return false
	}

	// signal under the lock so a consumer between its empty-check and Wait cannot miss it
	p.mu.Lock()
	p.cond.Signal()
	p.mu.Unlock()

	return true
}

// consume continuously sends items from the queue to the output channel
func (p *Pump[T]) consume() {
	defer p.consumer.Done()
	defer close(p.out)

	for {
		hasItems := false

		for {
			value := p.q.Pop()
			if value == nil {
				break
			}
			hasItems = true
			p.out <- value
		}

		// Exit if closed and no more items
		if !hasItems && p.q.IsClosed() {
			return
		}

		if !hasItems {
			p.mu.Lock()
			// Double-check condition after acquiring lock
			if p.q.Empty() && !p.q.IsClosed() {
				p.cond.Wait()
			}
			p.mu.Unlock()
		}
	}
}

// Recv returns a receive-only channel for consuming from the pump.
// The channel is closed after Close once every queued value was delivered.
func (p *Pump[T]) Recv() <-chan *T {
	return p.out
}

// Close closes the pump, preventing further writes.
// Any items already queued will still be delivered.
func (p *Pump[T]) Close() {
	p.q.Close()

	p.mu.Lock()
	p.cond.Signal()
	p.mu.Unlock()
}

// IsClosed returns true if the pump is closed.
func (p *Pump[T]) IsClosed() bool {
	return p.q.IsClosed()
}

// Len returns an approximate count of the values not yet handed to Recv.
func (p *Pump[T]) Len() int {
	return p.q.Len()
}

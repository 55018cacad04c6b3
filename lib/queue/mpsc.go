// Package queue provides a lock-free Multi-Producer Single-Consumer (MPSC) queue.
//
// Features and Guarantees:
//
//   - Lock-Free: producers only use atomic operations, so Push never blocks
//   - Unbounded Size: the queue can grow as needed, limited only by available memory
//   - Thread-Safe writes: any number of goroutines may call Push concurrently
//   - Single Consumer: Peek and Pop must only be called from one goroutine at a time
//   - Per-Producer FIFO: values pushed by one goroutine are popped in push order.
//     Across producers, the order is the order in which their CAS succeeded.
package queue

import (
	"runtime"
	"sync/atomic"
)

// node represents a single element in the queue
type node[T any] struct {
	value *T
	next  atomic.Pointer[node[T]]
}

// LockFreeMPSC is a lock-free multi-producer single-consumer queue.
// The head always points to a sentinel node; the first value lives in head.next.
type LockFreeMPSC[T any] struct {
	head   atomic.Pointer[node[T]]
	tail   atomic.Pointer[node[T]]
	length atomic.Int64
	closed atomic.Bool
}

// NewLockFreeMPSC creates a new empty queue
func NewLockFreeMPSC[T any]() *LockFreeMPSC[T] {
	sentinel := &node[T]{}

	q := &LockFreeMPSC[T]{}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	return q
}

// Push adds an item to the tail of the queue.
// Returns false if the value is nil or the queue is closed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *LockFreeMPSC[T]) Push(value *T) bool {
	if value == nil || q.closed.Load() {
		return false
	}

	newNode := &node[T]{value: value}
	var backoff uint8 = 0

	for {
		tailNode := q.tail.Load()

		next := tailNode.next.Load()
		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// another producer may already have advanced the tail for us
				q.tail.CompareAndSwap(tailNode, newNode)
				q.length.Add(1)
				return true
			}
		} else {
			// help a producer that linked its node but did not move the tail yet
			q.tail.CompareAndSwap(tailNode, next)
		}

		/*
		 Exponential backoff under contention:
		  - few retries: spin with Gosched to avoid scheduler round trips
		  - more retries: yield once per attempt
		*/
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// Peek returns the head value without removing it, or nil if the queue is empty.
// Must only be called by the consumer.
func (q *LockFreeMPSC[T]) Peek() *T {
	next := q.head.Load().next.Load()
	if next == nil {
		return nil
	}
	return next.value
}

// Pop removes and returns the head value, or nil if the queue is empty.
// Must only be called by the consumer.
func (q *LockFreeMPSC[T]) Pop() *T {
	head := q.head.Load()
	next := head.next.Load()
	if next == nil {
		return nil
	}

	value := next.value

	// next becomes the new sentinel
	q.head.Store(next)
	next.value = nil
	q.length.Add(-1)

	return value
}

// Empty reports whether there is nothing left to pop
func (q *LockFreeMPSC[T]) Empty() bool {
	return q.head.Load().next.Load() == nil
}

// Close prevents further pushes. Values already queued can still be popped.
func (q *LockFreeMPSC[T]) Close() {
	q.closed.Store(true)
}

// IsClosed returns true if the queue is closed.
func (q *LockFreeMPSC[T]) IsClosed() bool {
	return q.closed.Load()
}

// Len returns an approximate count of the number of items in the queue.
// Under concurrent pushes the value may lag by the number of in-flight producers.
func (q *LockFreeMPSC[T]) Len() int {
	return int(q.length.Load())
}

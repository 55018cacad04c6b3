package base

import (
	"errors"
	"sync/atomic"

	"github.com/ValentinKolb/dHangman/lib/queue"
)

var (
	// ErrQueueClosed is returned by Enqueue after the connection was torn down
	ErrQueueClosed = errors.New("transport: outbound queue closed")
	// ErrQueueFull is returned by Enqueue when the byte limit would be exceeded
	ErrQueueFull = errors.New("transport: outbound queue full")
)

// WriteFunc attempts a non-blocking send of b and returns how many bytes were
// accepted. A full socket buffer is reported as a short count with a nil error.
type WriteFunc func(b []byte) (int, error)

// OutboundQueue is the FIFO of records waiting to be written to one connection.
//
// Enqueue is safe for concurrent use by any number of goroutines. Drain must
// only be called by the connection's I/O loop. The head record may be sent
// across several Drain calls; the offset into it is tracked here and is never
// visible to producers.
type OutboundQueue struct {
	records  *queue.LockFreeMPSC[[]byte]
	pending  atomic.Int64 // unsent bytes, including the unsent part of the head
	maxBytes int64

	// consumer side only
	offset int
}

// NewOutboundQueue creates a queue holding at most maxBytes unsent bytes (<= 0 = unbounded)
func NewOutboundQueue(maxBytes int) *OutboundQueue {
	return &OutboundQueue{
		records:  queue.NewLockFreeMPSC[[]byte](),
		maxBytes: int64(maxBytes),
	}
}

// Enqueue appends record to the tail. The record must not be modified afterwards.
func (q *OutboundQueue) Enqueue(record []byte) error {
	if q.records.IsClosed() {
		return ErrQueueClosed
	}
	if len(record) == 0 {
		return nil
	}

	size := int64(len(record))
	if after := q.pending.Add(size); q.maxBytes > 0 && after > q.maxBytes {
		q.pending.Add(-size)
		return ErrQueueFull
	}

	if !q.records.Push(&record) {
		q.pending.Add(-size)
		return ErrQueueClosed
	}
	return nil
}

// Drain writes queued records in order until the queue is empty or write
// accepts less than offered. Returns whether the queue is now empty.
// A write error stops the drain and leaves the head in place.
func (q *OutboundQueue) Drain(write WriteFunc) (bool, error) {
	for {
		head := q.records.Peek()
		if head == nil {
			return true, nil
		}

		rest := (*head)[q.offset:]
		n, err := write(rest)
		if n > 0 {
			q.offset += n
			q.pending.Add(-int64(n))
		}
		if err != nil {
			return false, err
		}
		if n < len(rest) {
			// partial send, resume at offset on the next writable event
			return false, nil
		}

		q.records.Pop()
		q.offset = 0
	}
}

// Empty reports whether nothing is left to send
func (q *OutboundQueue) Empty() bool {
	return q.records.Empty()
}

// Len returns the number of queued records (including a partially sent head)
func (q *OutboundQueue) Len() int {
	return q.records.Len()
}

// PendingBytes returns the number of bytes not yet sent
func (q *OutboundQueue) PendingBytes() int64 {
	return q.pending.Load()
}

// Close rejects further records; records already queued are discarded by the caller
func (q *OutboundQueue) Close() {
	q.records.Close()
}

package queue

import (
	"sync"
	"testing"
)

// TestPushPeekPop tests the single consumer operations in order
func TestPushPeekPop(t *testing.T) {
	q := NewLockFreeMPSC[int]()

	if q.Peek() != nil || q.Pop() != nil {
		t.Fatalf("Empty queue should return nil")
	}
	if !q.Empty() {
		t.Fatalf("New queue should be empty")
	}

	for i := 0; i < 10; i++ {
		if !q.Push(&i) {
			t.Fatalf("Failed to push item %d", i)
		}
	}

	if q.Len() != 10 {
		t.Errorf("Expected length 10, got %d", q.Len())
	}

	for i := 0; i < 10; i++ {
		head := q.Peek()
		if head == nil || *head != i {
			t.Fatalf("Peek: expected %d, got %v", i, head)
		}

		// peeking twice must not advance the queue
		if again := q.Peek(); again != head {
			t.Fatalf("Peek advanced the queue")
		}

		val := q.Pop()
		if val == nil || *val != i {
			t.Fatalf("Pop: expected %d, got %v", i, val)
		}
	}

	if !q.Empty() || q.Len() != 0 {
		t.Errorf("Queue should be empty after popping everything, len=%d", q.Len())
	}
}

// TestPushNil verifies nil values are rejected
func TestPushNil(t *testing.T) {
	q := NewLockFreeMPSC[string]()
	if q.Push(nil) {
		t.Error("Pushing nil should fail")
	}
}

// TestClose verifies closing behavior
func TestClose(t *testing.T) {
	q := NewLockFreeMPSC[int]()

	for i := 0; i < 3; i++ {
		q.Push(&i)
	}
	q.Close()

	if !q.IsClosed() {
		t.Error("Queue should report closed")
	}

	val := 100
	if q.Push(&val) {
		t.Error("Should not be able to push after queue is closed")
	}

	// existing items survive the close
	for i := 0; i < 3; i++ {
		if v := q.Pop(); v == nil || *v != i {
			t.Fatalf("Expected %d after close, got %v", i, v)
		}
	}
}

// TestConcurrentProducersPerProducerOrder verifies that every value arrives once
// and each producer's values arrive in the order they were pushed
func TestConcurrentProducersPerProducerOrder(t *testing.T) {
	q := NewLockFreeMPSC[[2]int]()

	const numProducers = 8
	const itemsPerProducer = 2000

	var wg sync.WaitGroup
	wg.Add(numProducers)
	for p := 0; p < numProducers; p++ {
		go func(producerID int) {
			defer wg.Done()
			for i := 0; i < itemsPerProducer; i++ {
				v := [2]int{producerID, i}
				if !q.Push(&v) {
					t.Errorf("Producer %d failed to push item %d", producerID, i)
				}
			}
		}(p)
	}

	// single consumer pops while producers are still running
	last := make([]int, numProducers)
	for i := range last {
		last[i] = -1
	}
	received := 0
	for received < numProducers*itemsPerProducer {
		v := q.Pop()
		if v == nil {
			continue
		}
		producer, seq := v[0], v[1]
		if seq != last[producer]+1 {
			t.Fatalf("Producer %d: expected sequence %d, got %d", producer, last[producer]+1, seq)
		}
		last[producer] = seq
		received++
	}

	wg.Wait()

	if !q.Empty() {
		t.Errorf("Queue should be empty, len=%d", q.Len())
	}
}

// BenchmarkPushPop benchmarks a push directly followed by a pop
func BenchmarkPushPop(b *testing.B) {
	q := NewLockFreeMPSC[int]()
	for i := 0; i < b.N; i++ {
		q.Push(&i)
		q.Pop()
	}
}

// BenchmarkMultiProducer benchmarks the queue with multiple producers
func BenchmarkMultiProducer(b *testing.B) {
	q := NewLockFreeMPSC[int]()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			q.Push(&i)
			i++
		}
	})
}

package queue

import (
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"
)

// TestPumpBasicOperations tests basic push and receive functionality
func TestPumpBasicOperations(t *testing.T) {
	p := NewPump[int]()
	defer p.Close()

	for i := 0; i < 10; i++ {
		if !p.Push(&i) {
			t.Fatalf("Failed to push item %d", i)
		}
	}

	for i := 0; i < 10; i++ {
		select {
		case val := <-p.Recv():
			if *val != i {
				t.Errorf("Expected %d, got %v", i, *val)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for item %d", i)
		}
	}

	// Make sure the pump is empty
	select {
	case val := <-p.Recv():
		t.Errorf("Pump should be empty, but got %v", val)
	case <-time.After(10 * time.Millisecond):
	}
}

// TestPumpConcurrentProducers verifies the pump works correctly with multiple producers
func TestPumpConcurrentProducers(t *testing.T) {
	p := NewPump[int]()
	defer p.Close()

	const numProducers = 10
	const itemsPerProducer = 1000
	totalItems := numProducers * itemsPerProducer

	received := make(map[string]bool)
	done := make(chan struct{})
	receivedCount := 0

	go func() {
		defer close(done)
		for receivedCount < totalItems {
			select {
			case val := <-p.Recv():
				key := fmt.Sprintf("%v", *val)
				if received[key] {
					t.Errorf("Duplicate item received: %v", *val)
				}
				received[key] = true
				receivedCount++
			case <-time.After(2 * time.Second):
				t.Errorf("Timeout waiting for items, received %d of %d", receivedCount, totalItems)
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(numProducers)
	for prod := 0; prod < numProducers; prod++ {
		go func(producerID int) {
			defer wg.Done()
			base := producerID * itemsPerProducer
			for i := 0; i < itemsPerProducer; i++ {
				val := base + i
				if !p.Push(&val) {
					t.Errorf("Producer %d failed to push item %d", producerID, i)
				}
				if i%100 == 0 {
					runtime.Gosched()
				}
			}
		}(prod)
	}

	wg.Wait()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Timeout waiting for consumer to finish")
	}

	if receivedCount != totalItems {
		t.Errorf("Expected %d items, got %d", totalItems, receivedCount)
	}
}

// TestPumpClose verifies that queued items are delivered after Close and the channel closes
func TestPumpClose(t *testing.T) {
	p := NewPump[int]()

	for i := 0; i < 5; i++ {
		p.Push(&i)
	}
	p.Close()

	val := 100
	if p.Push(&val) {
		t.Error("Should not be able to push after pump is closed")
	}

	for i := 0; i < 5; i++ {
		select {
		case val := <-p.Recv():
			if *val != i {
				t.Errorf("Expected %d, got %v", i, *val)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for item %d after close", i)
		}
	}

	select {
	case _, ok := <-p.Recv():
		if ok {
			t.Error("Channel should be closed but is still open")
		}
	case <-time.After(time.Second):
		t.Fatal("Channel was not closed after draining")
	}
}

// TestPumpWakeup pushes after the consumer went to sleep
func TestPumpWakeup(t *testing.T) {
	p := NewPump[string]()
	defer p.Close()

	for round := 0; round < 50; round++ {
		// give the consumer time to park on the condition variable
		time.Sleep(time.Millisecond)

		val := fmt.Sprintf("round-%d", round)
		p.Push(&val)

		select {
		case got := <-p.Recv():
			if *got != val {
				t.Fatalf("Expected %s, got %s", val, *got)
			}
		case <-time.After(time.Second):
			t.Fatalf("Lost wakeup in round %d", round)
		}
	}
}

// BenchmarkPumpSingleProducer benchmarks the pump with a single producer
func BenchmarkPumpSingleProducer(b *testing.B) {
	p := NewPump[int]()
	defer p.Close()

	go func() {
		for range p.Recv() {
		}
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Push(&i)
	}
}

package base

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// socketSim accepts at most budget bytes per Drain call
type socketSim struct {
	budget int
	wire   []byte
}

func (s *socketSim) write(b []byte) (int, error) {
	n := min(len(b), s.budget)
	s.budget -= n
	s.wire = append(s.wire, b[:n]...)
	return n, nil
}

func TestOutboundQueue_FIFO(t *testing.T) {
	q := NewOutboundQueue(0)
	require.NoError(t, q.Enqueue([]byte("a")))
	require.NoError(t, q.Enqueue([]byte("bb")))
	require.NoError(t, q.Enqueue([]byte("ccc")))
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, int64(6), q.PendingBytes())

	sock := &socketSim{budget: 1 << 20}
	empty, err := q.Drain(sock.write)
	require.NoError(t, err)
	assert.True(t, empty)
	assert.Equal(t, "abbccc", string(sock.wire))
	assert.True(t, q.Empty())
	assert.Equal(t, int64(0), q.PendingBytes())
}

func TestOutboundQueue_PartialSendResumes(t *testing.T) {
	q := NewOutboundQueue(0)
	require.NoError(t, q.Enqueue([]byte("10 bytes!!")))

	// socket accepts 4 bytes, then 6
	sock := &socketSim{budget: 4}
	empty, err := q.Drain(sock.write)
	require.NoError(t, err)
	assert.False(t, empty)
	assert.Equal(t, "10 b", string(sock.wire))
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, int64(6), q.PendingBytes())

	sock.budget = 6
	empty, err = q.Drain(sock.write)
	require.NoError(t, err)
	assert.True(t, empty)
	assert.Equal(t, "10 bytes!!", string(sock.wire))
}

func TestOutboundQueue_PartialSendAcrossRecords(t *testing.T) {
	q := NewOutboundQueue(0)
	records := []string{"5#START\n", "7#GUESS|A\n", "5#SCORE\n"}
	for _, r := range records {
		require.NoError(t, q.Enqueue([]byte(r)))
	}

	sock := &socketSim{}
	for i := 0; i < 100 && !q.Empty(); i++ {
		sock.budget = 3
		_, err := q.Drain(sock.write)
		require.NoError(t, err)
	}
	assert.Equal(t, records[0]+records[1]+records[2], string(sock.wire))
}

func TestOutboundQueue_WriteError(t *testing.T) {
	q := NewOutboundQueue(0)
	require.NoError(t, q.Enqueue([]byte("abc")))

	boom := errors.New("broken pipe")
	empty, err := q.Drain(func(b []byte) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, empty)
	assert.Equal(t, 1, q.Len())
}

func TestOutboundQueue_Limit(t *testing.T) {
	q := NewOutboundQueue(8)
	require.NoError(t, q.Enqueue([]byte("12345")))
	assert.ErrorIs(t, q.Enqueue([]byte("6789")), ErrQueueFull)
	require.NoError(t, q.Enqueue([]byte("678")))
	assert.Equal(t, int64(8), q.PendingBytes())

	sock := &socketSim{budget: 5}
	_, err := q.Drain(sock.write)
	require.NoError(t, err)
	// room again once bytes left
	require.NoError(t, q.Enqueue([]byte("abcde")))
}

func TestOutboundQueue_Closed(t *testing.T) {
	q := NewOutboundQueue(0)
	q.Close()
	assert.ErrorIs(t, q.Enqueue([]byte("x")), ErrQueueClosed)
}

func TestOutboundQueue_ConcurrentProducers(t *testing.T) {
	q := NewOutboundQueue(0)
	const producers, perProducer = 8, 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p byte) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = q.Enqueue([]byte{'a' + p})
			}
		}(byte(p))
	}
	wg.Wait()

	sock := &socketSim{budget: 1 << 20}
	empty, err := q.Drain(sock.write)
	require.NoError(t, err)
	assert.True(t, empty)
	assert.Len(t, sock.wire, producers*perProducer)
}

package testing

import (
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dHangman/rpc/transport"
	"github.com/stretchr/testify/require"
)

// eventTimeout bounds every wait of the suite
const eventTimeout = 5 * time.Second

// --------------------------------------------------------------------------
// Server side recorder (implements transport.IServerHandler)
// --------------------------------------------------------------------------

type frameEvent struct {
	id     transport.ConnID
	fields []string
}

// ServerRecorder records every event of a coordinator transport
type ServerRecorder struct {
	connects    chan transport.ConnID
	frames      chan frameEvent
	disconnects chan transport.ConnID

	mu           sync.Mutex
	disconnected map[transport.ConnID]int
}

func NewServerRecorder() *ServerRecorder {
	return &ServerRecorder{
		connects:     make(chan transport.ConnID, 1024),
		frames:       make(chan frameEvent, 4096),
		disconnects:  make(chan transport.ConnID, 1024),
		disconnected: make(map[transport.ConnID]int),
	}
}

func (r *ServerRecorder) OnConnect(id transport.ConnID) {
	r.connects <- id
}

func (r *ServerRecorder) OnFrame(id transport.ConnID, fields []string) {
	r.frames <- frameEvent{id: id, fields: fields}
}

func (r *ServerRecorder) OnDisconnect(id transport.ConnID) {
	r.mu.Lock()
	r.disconnected[id]++
	r.mu.Unlock()
	r.disconnects <- id
}

// NextConnect waits for the next accepted connection
func (r *ServerRecorder) NextConnect(t *testing.T) transport.ConnID {
	t.Helper()
	select {
	case id := <-r.connects:
		return id
	case <-time.After(eventTimeout):
		require.FailNow(t, "timeout waiting for a connection")
		return 0
	}
}

// NextFrame waits for the next frame of any connection
func (r *ServerRecorder) NextFrame(t *testing.T) (transport.ConnID, []string) {
	t.Helper()
	select {
	case ev := <-r.frames:
		return ev.id, ev.fields
	case <-time.After(eventTimeout):
		require.FailNow(t, "timeout waiting for a frame")
		return 0, nil
	}
}

// NoFrame asserts that no frame arrives within d
func (r *ServerRecorder) NoFrame(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case ev := <-r.frames:
		require.FailNow(t, "unexpected frame", "%d: %v", ev.id, ev.fields)
	case <-time.After(d):
	}
}

// WaitDisconnect waits until id was reported as disconnected
func (r *ServerRecorder) WaitDisconnect(t *testing.T, id transport.ConnID) {
	t.Helper()
	deadline := time.After(eventTimeout)
	for {
		if r.DisconnectCount(id) > 0 {
			return
		}
		select {
		case <-r.disconnects:
		case <-deadline:
			require.FailNow(t, "timeout waiting for disconnect", "connection %d", id)
		}
	}
}

// DisconnectCount returns how often OnDisconnect was called for id
func (r *ServerRecorder) DisconnectCount(id transport.ConnID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disconnected[id]
}

// --------------------------------------------------------------------------
// Client side recorder (implements transport.IClientHandler)
// --------------------------------------------------------------------------

// ClientRecorder records every event of a participant transport
type ClientRecorder struct {
	connected    chan struct{}
	frames       chan []string
	disconnected chan error
}

func NewClientRecorder() *ClientRecorder {
	return &ClientRecorder{
		connected:    make(chan struct{}, 1),
		frames:       make(chan []string, 4096),
		disconnected: make(chan error, 1),
	}
}

func (r *ClientRecorder) OnConnect() {
	r.connected <- struct{}{}
}

func (r *ClientRecorder) OnFrame(fields []string) {
	r.frames <- fields
}

func (r *ClientRecorder) OnDisconnect(err error) {
	r.disconnected <- err
}

// WaitConnected waits for the connection handshake
func (r *ClientRecorder) WaitConnected(t *testing.T) {
	t.Helper()
	select {
	case <-r.connected:
	case <-time.After(eventTimeout):
		require.FailNow(t, "timeout waiting for connect")
	}
}

// NextFrame waits for the next frame
func (r *ClientRecorder) NextFrame(t *testing.T) []string {
	t.Helper()
	select {
	case fields := <-r.frames:
		return fields
	case <-time.After(eventTimeout):
		require.FailNow(t, "timeout waiting for a frame")
		return nil
	}
}

// NoFrame asserts that no frame arrives within d
func (r *ClientRecorder) NoFrame(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case fields := <-r.frames:
		require.FailNow(t, "unexpected frame", "%v", fields)
	case <-time.After(d):
	}
}

// WaitDisconnected waits for the disconnect callback and returns its error
func (r *ClientRecorder) WaitDisconnected(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.disconnected:
		return err
	case <-time.After(eventTimeout):
		require.FailNow(t, "timeout waiting for disconnect")
		return nil
	}
}

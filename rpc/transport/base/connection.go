package base

import (
	"sync/atomic"

	"github.com/ValentinKolb/dHangman/rpc/transport"
)

// ConnState is the lifecycle state of a Connection
type ConnState int32

const (
	// StateConnecting is the state of an outgoing connection until the handshake completed
	StateConnecting ConnState = iota
	// StateReadInterest is a connected connection waiting only for input
	StateReadInterest
	// StateWriteInterest is a connected connection that also waits to flush its outbound queue
	StateWriteInterest
	// StateDisconnected is terminal
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateReadInterest:
		return "READ_INTEREST"
	case StateWriteInterest:
		return "WRITE_INTEREST"
	case StateDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// nextConnID is shared by every transport in the process so ids stay unique
var nextConnID atomic.Uint64

// Connection is the transport state of one socket.
//
// The fd and the inbound buffer are owned by the I/O loop. The state, the
// dirty flag and the outbound queue may be touched from any goroutine.
type Connection struct {
	ID     transport.ConnID
	Remote string

	fd       int
	inbound  []byte
	outbound *OutboundQueue
	state    atomic.Int32

	// dirty is set when records were queued and the loop has not yet re-evaluated write interest
	dirty atomic.Bool
	// closeAfterFlush tears the connection down as soon as the outbound queue is empty
	closeAfterFlush atomic.Bool
}

// newConnection creates a connection in the given initial state
func newConnection(fd int, remote string, maxQueueBytes int, initial ConnState) *Connection {
	c := &Connection{
		ID:       transport.ConnID(nextConnID.Add(1)),
		Remote:   remote,
		fd:       fd,
		outbound: NewOutboundQueue(maxQueueBytes),
	}
	c.state.Store(int32(initial))
	return c
}

// State returns the current lifecycle state
func (c *Connection) State() ConnState {
	return ConnState(c.state.Load())
}

// IsLive reports whether the connection has not been torn down
func (c *Connection) IsLive() bool {
	return c.State() != StateDisconnected
}

// Outbound returns the connection's outbound queue
func (c *Connection) Outbound() *OutboundQueue {
	return c.outbound
}

// setState moves to a non-terminal state unless the connection is already disconnected
func (c *Connection) setState(s ConnState) bool {
	for {
		cur := c.state.Load()
		if ConnState(cur) == StateDisconnected {
			return false
		}
		if c.state.CompareAndSwap(cur, int32(s)) {
			return true
		}
	}
}

// markDisconnected moves to DISCONNECTED; only the first call returns true
func (c *Connection) markDisconnected() bool {
	for {
		cur := c.state.Load()
		if ConnState(cur) == StateDisconnected {
			return false
		}
		if c.state.CompareAndSwap(cur, int32(StateDisconnected)) {
			return true
		}
	}
}

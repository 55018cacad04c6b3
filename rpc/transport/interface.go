package transport

import (
	"errors"

	"github.com/ValentinKolb/dHangman/rpc/common"
)

var (
	// ErrNotConnected is returned when sending on a participant transport without a live connection
	ErrNotConnected = errors.New("transport: not connected")
	// ErrAlreadyConnected is returned by Connect while the previous connection is still live
	ErrAlreadyConnected = errors.New("transport: already connected")
	// ErrClosed is returned when using a transport after it was stopped
	ErrClosed = errors.New("transport: closed")
)

// ConnID is the process-unique identity of one connection. IDs are never reused.
type ConnID uint64

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// IServerHandler receives the events of a coordinator transport.
// All methods are called from the I/O loop goroutine and must not block.
type IServerHandler interface {
	// OnConnect is called after a connection was accepted and registered
	OnConnect(id ConnID)
	// OnFrame is called once per well-formed frame, in arrival order
	OnFrame(id ConnID, fields []string)
	// OnDisconnect is called exactly once per connection, after it left the registry
	OnDisconnect(id ConnID)
}

// IRPCServerTransport is the coordinator side transport: one listener, many connections
type IRPCServerTransport interface {
	// RegisterHandler registers the handler; must be called before Listen
	RegisterHandler(handler IServerHandler)
	// Listen binds the endpoint and starts the I/O loop. It returns once the
	// listener is bound; use Wait to block until the loop exits.
	Listen(config common.ServerConfig) error
	// Addr returns the bound listener address (valid after Listen)
	Addr() string
	// Send enqueues a record for one connection.
	// Returns false if the connection is gone (the record is discarded).
	Send(id ConnID, record []byte) bool
	// Broadcast enqueues a copy of record for every live connection and
	// returns how many connections it was queued for
	Broadcast(record []byte) int
	// ForEachLive calls f for every live connection until f returns false
	ForEachLive(f func(id ConnID) bool)
	// Disconnect requests the connection to be closed; unknown ids are ignored
	Disconnect(id ConnID)
	// Stop closes every connection and the listener and waits for the loop to exit
	Stop() error
	// Wait blocks until the I/O loop exited and returns its error, if any
	Wait() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IClientHandler receives the events of a participant transport.
// All methods are called from the I/O loop goroutine and must not block.
type IClientHandler interface {
	// OnConnect is called once the connection handshake completed
	OnConnect()
	// OnFrame is called once per well-formed frame, in arrival order
	OnFrame(fields []string)
	// OnDisconnect is called once when the connection is gone; err is nil for a local Close
	OnDisconnect(err error)
}

// IRPCClientTransport is the participant side transport: exactly one connection
type IRPCClientTransport interface {
	// RegisterHandler registers the handler; must be called before Connect
	RegisterHandler(handler IClientHandler)
	// Connect starts a non-blocking connect to the configured endpoint and the I/O loop.
	// Records sent while the connection is still CONNECTING are delivered once it completes.
	Connect(config common.ClientConfig) error
	// Send enqueues a record for the coordinator
	Send(record []byte) error
	// Close flushes every queued record and closes the connection, then waits for the loop
	Close() error
	// Wait blocks until the I/O loop exited and returns its error, if any
	Wait() error
}

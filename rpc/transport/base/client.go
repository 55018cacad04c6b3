//go:build linux

package base

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/transport"
	"golang.org/x/sys/unix"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// Connect creates a non-blocking socket and starts connecting it to endpoint.
	// The connection completes asynchronously; the loop checks SO_ERROR once
	// the socket is writable.
	Connect(endpoint string) (int, error)

	// UpgradeConnection applies protocol-specific settings to a connection
	UpgradeConnection(fd int, config common.TransportConf) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientTransport implements the participant transport: one connection, one loop
type clientTransport struct {
	connector IClientConnector
	handler   transport.IClientHandler

	mu   sync.Mutex
	loop *eventLoop
	conn *Connection
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{connector: connector}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) RegisterHandler(handler transport.IClientHandler) {
	t.handler = handler
}

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if t.handler == nil {
		return errors.New("no handler registered")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil && t.conn.IsLive() {
		return transport.ErrAlreadyConnected
	}

	conf := config.Transport.WithDefaults()

	loop, err := newEventLoop("client", readLimits{
		maxFrameBytes: conf.MaxFrameBytes,
		readChunkSize: conf.ReadChunkSize,
	}, loopHooks{
		accept: func() {},
		open:   func(*Connection) { t.handler.OnConnect() },
		frame:  func(_ *Connection, fields []string) { t.handler.OnFrame(fields) },
		close:  nil, // set below, needs the loop
	})
	if err != nil {
		return fmt.Errorf("failed to create event loop: %w", err)
	}
	loop.hooks.close = func(_ *Connection, err error) {
		// the participant loop lives exactly as long as its connection
		loop.stop()
		t.handler.OnDisconnect(err)
	}

	fd, err := t.connector.Connect(conf.Endpoint)
	if err != nil {
		loop.poller.close()
		return fmt.Errorf("failed to connect to %s: %w", conf.Endpoint, err)
	}
	if err := t.connector.UpgradeConnection(fd, conf); err != nil {
		Logger.Warningf("Failed to upgrade connection to %s: %v", conf.Endpoint, err)
	}

	c := newConnection(fd, conf.Endpoint, conf.MaxQueueBytes, StateConnecting)
	if err := loop.attach(c, connectInterest); err != nil {
		_ = unix.Close(fd)
		loop.poller.close()
		return err
	}

	t.loop, t.conn = loop, c
	Logger.Infof("Connecting to %s via %s", conf.Endpoint, t.connector.GetName())
	go loop.run()
	return nil
}

func (t *clientTransport) Send(record []byte) error {
	loop, c := t.current()
	if c == nil || !c.IsLive() {
		return transport.ErrNotConnected
	}
	if c.closeAfterFlush.Load() {
		return transport.ErrClosed
	}
	if err := loop.enqueue(c, record); err != nil {
		if errors.Is(err, ErrQueueClosed) {
			return transport.ErrNotConnected
		}
		return err
	}
	return nil
}

func (t *clientTransport) Close() error {
	loop, c := t.current()
	if loop == nil {
		return nil
	}
	if c.IsLive() {
		loop.requestClose(c, true)
	}
	return loop.wait()
}

func (t *clientTransport) Wait() error {
	loop, _ := t.current()
	if loop == nil {
		return transport.ErrNotConnected
	}
	return loop.wait()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (t *clientTransport) current() (*eventLoop, *Connection) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loop, t.conn
}

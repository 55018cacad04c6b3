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

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// Listen creates a bound, listening, non-blocking socket and returns its fd
	Listen(config common.TransportConf) (int, error)

	// UpgradeConnection applies socket options to an accepted connection
	UpgradeConnection(fd int, config common.TransportConf) error

	// Release cleans up after the listener was closed (e.g. removes a socket file)
	Release(config common.TransportConf)
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the coordinator transport on top of an eventLoop
type serverTransport struct {
	connector IServerConnector
	handler   transport.IServerHandler
	config    common.TransportConf

	mu   sync.Mutex
	loop *eventLoop
	addr string
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport for the given connector
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	return &serverTransport{connector: connector}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.IServerHandler) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return errors.New("no handler registered")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loop != nil {
		return errors.New("transport is already listening")
	}

	t.config = config.Transport.WithDefaults()

	loop, err := newEventLoop("server", readLimits{
		maxFrameBytes: t.config.MaxFrameBytes,
		readChunkSize: t.config.ReadChunkSize,
	}, loopHooks{
		accept: t.accept,
		open:   func(c *Connection) { t.handler.OnConnect(c.ID) },
		frame:  func(c *Connection, fields []string) { t.handler.OnFrame(c.ID, fields) },
		close:  func(c *Connection, _ error) { t.handler.OnDisconnect(c.ID) },
	})
	if err != nil {
		return fmt.Errorf("failed to create event loop: %w", err)
	}

	fd, err := t.connector.Listen(t.config)
	if err != nil {
		loop.poller.close()
		return fmt.Errorf("failed to create listener: %w", err)
	}
	if err := loop.poller.add(fd, unix.EPOLLIN); err != nil {
		_ = unix.Close(fd)
		loop.poller.close()
		t.connector.Release(t.config)
		return err
	}
	loop.listenFd = fd

	t.addr = t.config.Endpoint
	if sa, err := unix.Getsockname(fd); err == nil {
		t.addr = sockaddrString(sa)
	}
	t.loop = loop

	Logger.Infof("Starting %s server on %s", t.connector.GetName(), t.addr)
	go loop.run()
	return nil
}

func (t *serverTransport) Addr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.addr
}

func (t *serverTransport) Send(id transport.ConnID, record []byte) bool {
	loop := t.currentLoop()
	if loop == nil {
		return false
	}
	c, ok := loop.registry.Load(id)
	if !ok {
		return false
	}
	return loop.enqueue(c, record) == nil
}

func (t *serverTransport) Broadcast(record []byte) int {
	loop := t.currentLoop()
	if loop == nil {
		return 0
	}

	count, wake := 0, false
	loop.registry.ForEachLive(func(c *Connection) bool {
		// records are immutable once queued so every queue may share the same slice
		if err := c.outbound.Enqueue(record); err != nil {
			if errors.Is(err, ErrQueueFull) {
				loop.metrics.overflow.Inc()
				Logger.Warningf("server: outbound queue of connection %d (%s) overflowed during broadcast, disconnecting", c.ID, c.Remote)
				loop.requestClose(c, false)
			}
			return true
		}
		loop.metrics.framesOut.Inc()
		count++
		if loop.markDirty(c) {
			wake = true
		}
		return true
	})

	if wake {
		loop.poller.wake()
	}
	return count
}

func (t *serverTransport) ForEachLive(f func(id transport.ConnID) bool) {
	loop := t.currentLoop()
	if loop == nil {
		return
	}
	loop.registry.ForEachLive(func(c *Connection) bool {
		return f(c.ID)
	})
}

func (t *serverTransport) Disconnect(id transport.ConnID) {
	loop := t.currentLoop()
	if loop == nil {
		return
	}
	if c, ok := loop.registry.Load(id); ok {
		loop.requestClose(c, false)
	}
}

func (t *serverTransport) Stop() error {
	loop := t.currentLoop()
	if loop == nil {
		return nil
	}
	loop.stop()
	err := loop.wait()
	t.connector.Release(t.config)
	return err
}

func (t *serverTransport) Wait() error {
	loop := t.currentLoop()
	if loop == nil {
		return transport.ErrClosed
	}
	return loop.wait()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (t *serverTransport) currentLoop() *eventLoop {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loop
}

// accept takes every pending connection from the listening socket (loop goroutine)
func (t *serverTransport) accept() {
	loop := t.loop
	for {
		fd, sa, err := unix.Accept4(loop.listenFd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		switch {
		case err == unix.EAGAIN:
			return
		case err == unix.EINTR || err == unix.ECONNABORTED:
			continue
		case err != nil:
			// e.g. EMFILE, the listener stays readable and is retried on the next wait
			Logger.Errorf("Accept error: %v", err)
			return
		}

		if err := t.connector.UpgradeConnection(fd, t.config); err != nil {
			Logger.Warningf("Failed to upgrade connection: %v", err)
		}

		c := newConnection(fd, sockaddrString(sa), t.config.MaxQueueBytes, StateReadInterest)
		if err := loop.attach(c, readInterest); err != nil {
			Logger.Errorf("Failed to register connection from %s: %v", c.Remote, err)
			_ = unix.Close(fd)
			continue
		}
		loop.opened(c)
	}
}

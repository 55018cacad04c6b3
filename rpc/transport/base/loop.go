//go:build linux

package base

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/dHangman/lib/queue"
	"github.com/ValentinKolb/dHangman/rpc/serializer"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/sys/unix"
)

var Logger = logger.GetLogger("transport")

// loopHooks are the role specific callbacks of an eventLoop. All of them run on the loop goroutine.
type loopHooks struct {
	// accept is called when the listening socket is readable
	accept func()
	// open is called once a connection is connected and registered
	open func(c *Connection)
	// frame is called for every well-formed frame
	frame func(c *Connection, fields []string)
	// close is called exactly once per connection after it left the registry
	close func(c *Connection, err error)
}

// closeRequest asks the loop to tear a connection down
type closeRequest struct {
	conn  *Connection
	flush bool
}

// eventLoop is the single threaded I/O multiplexer of one transport.
//
// Only the loop goroutine touches file descriptors, the fd to connection map
// and the epoll interest of a connection. Other goroutines talk to it through
// the dirty list, the close requests and the wake eventfd.
type eventLoop struct {
	role       string
	poller     *poller
	registry   *Registry
	serializer serializer.IRPCSerializer
	hooks      loopHooks
	metrics    *transportMetrics

	// loop goroutine only
	conns    map[int]*Connection
	listenFd int
	readBuf  []byte

	dirty     *queue.LockFreeMPSC[Connection]
	closeReqs *queue.LockFreeMPSC[closeRequest]

	stopping atomic.Bool
	done     chan struct{}
	errMu    sync.Mutex
	err      error
}

func newEventLoop(role string, conf readLimits, hooks loopHooks) (*eventLoop, error) {
	p, err := newPoller()
	if err != nil {
		return nil, err
	}
	return &eventLoop{
		role:       role,
		poller:     p,
		registry:   NewRegistry(),
		serializer: serializer.NewFrameSerializer(conf.maxFrameBytes),
		hooks:      hooks,
		metrics:    newTransportMetrics(role),
		conns:      make(map[int]*Connection),
		listenFd:   -1,
		readBuf:    make([]byte, conf.readChunkSize),
		dirty:      queue.NewLockFreeMPSC[Connection](),
		closeReqs:  queue.NewLockFreeMPSC[closeRequest](),
		done:       make(chan struct{}),
	}, nil
}

// readLimits are the decoding limits of a loop
type readLimits struct {
	maxFrameBytes int
	readChunkSize int
}

// --------------------------------------------------------------------------
// Thread safe API (callable from any goroutine)
// --------------------------------------------------------------------------

// enqueue queues record for c and makes sure the loop re-evaluates its write interest.
// A connection whose queue overflows is disconnected.
func (l *eventLoop) enqueue(c *Connection, record []byte) error {
	if err := c.outbound.Enqueue(record); err != nil {
		if errors.Is(err, ErrQueueFull) {
			l.metrics.overflow.Inc()
			Logger.Warningf("%s: outbound queue of connection %d (%s) exceeds %d bytes, disconnecting",
				l.role, c.ID, c.Remote, c.outbound.maxBytes)
			l.requestClose(c, false)
		}
		return err
	}
	l.metrics.framesOut.Inc()
	if l.markDirty(c) {
		l.poller.wake()
	}
	return nil
}

// markDirty puts c on the dirty list. Returns false if it already was on it.
func (l *eventLoop) markDirty(c *Connection) bool {
	if !c.dirty.CompareAndSwap(false, true) {
		return false
	}
	l.dirty.Push(c)
	return true
}

// requestClose asks the loop to close c, after flushing its queue if flush is set
func (l *eventLoop) requestClose(c *Connection, flush bool) {
	l.closeReqs.Push(&closeRequest{conn: c, flush: flush})
	l.poller.wake()
}

// stop makes the loop close every connection and exit
func (l *eventLoop) stop() {
	if l.stopping.CompareAndSwap(false, true) {
		l.poller.wake()
	}
}

// wait blocks until the loop exited and returns its error
func (l *eventLoop) wait() error {
	<-l.done
	l.errMu.Lock()
	defer l.errMu.Unlock()
	return l.err
}

// --------------------------------------------------------------------------
// Loop goroutine
// --------------------------------------------------------------------------

// run is the loop body; it returns after stop was called or on a fatal poller error
func (l *eventLoop) run() {
	defer close(l.done)
	defer l.shutdown()

	for {
		l.processRequests()
		if l.stopping.Load() {
			return
		}

		events, err := l.poller.wait(-1)
		if err != nil {
			Logger.Errorf("%s: event loop failed: %v", l.role, err)
			l.errMu.Lock()
			l.err = err
			l.errMu.Unlock()
			return
		}

		for _, ev := range events {
			l.dispatch(ev)
		}
	}
}

// processRequests applies close requests and re-arms write interest of dirty connections
func (l *eventLoop) processRequests() {
	for req := l.closeReqs.Pop(); req != nil; req = l.closeReqs.Pop() {
		c := req.conn
		if !c.IsLive() {
			continue
		}
		if !req.flush {
			l.teardown(c, nil)
			continue
		}
		c.closeAfterFlush.Store(true)
		if c.State() != StateConnecting && c.outbound.Empty() {
			l.teardown(c, nil)
			continue
		}
		l.markDirty(c)
	}

	for c := l.dirty.Pop(); c != nil; c = l.dirty.Pop() {
		// clear before looking at the queue so a concurrent enqueue re-marks it
		c.dirty.Store(false)
		if c.State() != StateReadInterest || c.outbound.Empty() {
			continue
		}
		l.armWrite(c)
	}
}

// dispatch handles one readiness notification
func (l *eventLoop) dispatch(ev unix.EpollEvent) {
	fd := int(ev.Fd)

	switch {
	case l.poller.isWake(fd):
		l.poller.drainWake()
		return
	case fd == l.listenFd:
		l.hooks.accept()
		return
	}

	c, ok := l.conns[fd]
	if !ok {
		return
	}

	if c.State() == StateConnecting {
		l.finishConnect(c)
		return
	}

	if ev.Events&(unix.EPOLLIN|unix.EPOLLRDHUP|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		if !l.handleReadable(c) {
			return
		}
	}
	if ev.Events&unix.EPOLLOUT != 0 {
		l.handleWritable(c)
	}
}

// attach registers a new connection with the poller and the registry
func (l *eventLoop) attach(c *Connection, interest uint32) error {
	if err := l.poller.add(c.fd, interest); err != nil {
		return err
	}
	l.conns[c.fd] = c
	l.registry.Register(c)
	return nil
}

// opened finishes the CONNECTED transition of a registered connection
func (l *eventLoop) opened(c *Connection) {
	l.metrics.opened()
	Logger.Infof("%s: connection %d (%s) established", l.role, c.ID, c.Remote)
	l.hooks.open(c)
}

// finishConnect completes a non-blocking connect after the socket became writable
func (l *eventLoop) finishConnect(c *Connection) {
	soErr, err := unix.GetsockoptInt(c.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err == nil && soErr != 0 {
		err = unix.Errno(soErr)
	}
	if err != nil {
		l.teardown(c, err)
		return
	}

	if !c.setState(StateReadInterest) {
		return
	}
	if err := l.poller.modify(c.fd, readInterest); err != nil {
		l.teardown(c, err)
		return
	}
	l.opened(c)

	switch {
	case !c.IsLive():
	case !c.outbound.Empty():
		l.armWrite(c)
	case c.closeAfterFlush.Load():
		l.teardown(c, nil)
	}
}

// handleReadable reads once and decodes every complete frame.
// Returns false if the connection was torn down.
func (l *eventLoop) handleReadable(c *Connection) bool {
	n, err := unix.Read(c.fd, l.readBuf)
	switch {
	case err == unix.EAGAIN || err == unix.EINTR:
		return true
	case err != nil:
		l.teardown(c, err)
		return false
	case n == 0:
		l.teardown(c, io.EOF)
		return false
	}

	l.metrics.bytesIn.Add(n)
	c.inbound = append(c.inbound, l.readBuf[:n]...)

	for len(c.inbound) > 0 {
		fields, consumed, err := l.serializer.Deserialize(c.inbound)
		c.inbound = c.inbound[consumed:]
		if errors.Is(err, serializer.ErrIncomplete) {
			break
		}
		if err != nil {
			l.metrics.malformed.Inc()
			Logger.Warningf("%s: dropping frame from connection %d: %v", l.role, c.ID, err)
			continue
		}

		l.metrics.framesIn.Inc()
		Logger.Debugf("%s: frame from connection %d: %v", l.role, c.ID, fields)
		l.hooks.frame(c, fields)
		if !c.IsLive() {
			return false
		}
	}

	// compact so the buffer does not keep consumed bytes alive
	if len(c.inbound) == 0 {
		c.inbound = nil
	} else if cap(c.inbound) > 2*len(c.inbound) {
		c.inbound = append([]byte(nil), c.inbound...)
	}
	return true
}

// handleWritable drains the outbound queue and drops write interest once it is empty
func (l *eventLoop) handleWritable(c *Connection) {
	empty, err := c.outbound.Drain(func(b []byte) (int, error) {
		n, err := unix.Write(c.fd, b)
		if n < 0 {
			n = 0
		}
		if err == unix.EAGAIN || err == unix.EINTR {
			err = nil
		}
		l.metrics.bytesOut.Add(n)
		return n, err
	})
	if err != nil {
		l.teardown(c, err)
		return
	}
	if !empty {
		return
	}

	if c.closeAfterFlush.Load() {
		l.teardown(c, nil)
		return
	}
	if c.setState(StateReadInterest) {
		if err := l.poller.modify(c.fd, readInterest); err != nil {
			l.teardown(c, err)
		}
	}
}

// armWrite switches c to write interest
func (l *eventLoop) armWrite(c *Connection) {
	if !c.setState(StateWriteInterest) {
		return
	}
	if err := l.poller.modify(c.fd, writeInterest); err != nil {
		l.teardown(c, err)
	}
}

// teardown closes c and removes it from every structure. Only the first call has an effect.
func (l *eventLoop) teardown(c *Connection, err error) {
	wasConnected := c.State() != StateConnecting
	if !c.markDisconnected() {
		return
	}

	l.poller.remove(c.fd)
	_ = unix.Close(c.fd)
	delete(l.conns, c.fd)
	c.outbound.Close()
	c.inbound = nil
	l.registry.Deregister(c.ID)

	if wasConnected {
		l.metrics.closedOne()
	}
	switch {
	case err == nil:
		Logger.Infof("%s: connection %d (%s) closed", l.role, c.ID, c.Remote)
	case errors.Is(err, io.EOF):
		Logger.Infof("%s: connection %d (%s) closed by peer", l.role, c.ID, c.Remote)
	default:
		Logger.Infof("%s: connection %d (%s) closed: %v", l.role, c.ID, c.Remote, err)
	}

	l.hooks.close(c, err)
}

// shutdown closes every connection, the listener and the poller
func (l *eventLoop) shutdown() {
	for _, c := range l.conns {
		l.teardown(c, nil)
	}
	if l.listenFd >= 0 {
		l.poller.remove(l.listenFd)
		_ = unix.Close(l.listenFd)
		l.listenFd = -1
	}
	l.dirty.Close()
	l.closeReqs.Close()
	l.poller.close()
}

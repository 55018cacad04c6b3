//go:build linux

package base

import (
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Interest sets used by the loop. Read interest stays armed while writes are pending.
const (
	readInterest  = unix.EPOLLIN | unix.EPOLLRDHUP
	writeInterest = unix.EPOLLIN | unix.EPOLLRDHUP | unix.EPOLLOUT
	// connectInterest waits for a non-blocking connect to finish
	connectInterest = unix.EPOLLOUT

	maxEventsPerWait = 128
)

// poller wraps a level-triggered epoll instance plus an eventfd used to wake it
type poller struct {
	epfd   int
	wakeFd int
	events []unix.EpollEvent

	// guards wakeFd against writes after close
	mu     sync.RWMutex
	closed bool
}

// newPoller creates the epoll instance and registers the wake eventfd
func newPoller() (*poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}

	wakeFd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}

	p := &poller{
		epfd:   epfd,
		wakeFd: wakeFd,
		events: make([]unix.EpollEvent, maxEventsPerWait),
	}

	if err := p.add(wakeFd, unix.EPOLLIN); err != nil {
		p.close()
		return nil, err
	}
	return p, nil
}

// add registers fd with the given interest
func (p *poller) add(fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("epoll_ctl add fd %d: %w", fd, err)
	}
	return nil
}

// modify replaces the interest of a registered fd
func (p *poller) modify(fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("epoll_ctl mod fd %d: %w", fd, err)
	}
	return nil
}

// remove unregisters fd; errors are ignored because closing the fd removes it anyway
func (p *poller) remove(fd int) {
	_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// wait blocks until at least one fd is ready (or timeoutMs elapsed, -1 = forever).
// An interrupted wait returns no events and no error.
func (p *poller) wait(timeoutMs int) ([]unix.EpollEvent, error) {
	n, err := unix.EpollWait(p.epfd, p.events, timeoutMs)
	if err == unix.EINTR {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("epoll_wait: %w", err)
	}
	return p.events[:n], nil
}

// wake interrupts a blocked wait. Safe to call from any goroutine.
func (p *poller) wake() {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	// EAGAIN means the counter is saturated, the loop will wake up anyway
	_, _ = unix.Write(p.wakeFd, buf[:])
}

// isWake reports whether fd is the wake eventfd
func (p *poller) isWake(fd int) bool {
	return fd == p.wakeFd
}

// drainWake resets the eventfd counter after a wakeup
func (p *poller) drainWake() {
	var buf [8]byte
	_, _ = unix.Read(p.wakeFd, buf[:])
}

// close releases the epoll instance and the eventfd
func (p *poller) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	unix.Close(p.wakeFd)
	unix.Close(p.epfd)
}

//go:build linux

package tcp

import (
	"fmt"
	"net"

	"github.com/ValentinKolb/dHangman/rpc/common"
	"golang.org/x/sys/unix"
)

// resolve turns host:port into a socket address and its address family
func resolve(endpoint string) (unix.Sockaddr, int, error) {
	addr, err := net.ResolveTCPAddr("tcp", endpoint)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid tcp endpoint %q: %w", endpoint, err)
	}

	if addr.IP == nil || addr.IP.To4() != nil {
		sa := &unix.SockaddrInet4{Port: addr.Port}
		if addr.IP != nil {
			copy(sa.Addr[:], addr.IP.To4())
		}
		return sa, unix.AF_INET, nil
	}

	sa := &unix.SockaddrInet6{Port: addr.Port}
	copy(sa.Addr[:], addr.IP.To16())
	return sa, unix.AF_INET6, nil
}

// applyOptions sets the TCPConf and SocketConf options of fd
func applyOptions(fd int, config common.TransportConf) error {
	// Disable Nagle's algorithm (TCPNoDelay) if configured
	if config.TCPNoDelay {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
			return fmt.Errorf("TCP_NODELAY: %w", err)
		}
	}

	// Set socket buffer sizes if configured
	if config.WriteBufferSize > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, config.WriteBufferSize); err != nil {
			return fmt.Errorf("SO_SNDBUF: %w", err)
		}
	}
	if config.ReadBufferSize > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, config.ReadBufferSize); err != nil {
			return fmt.Errorf("SO_RCVBUF: %w", err)
		}
	}

	// Enable keep-alive if configured
	if config.TCPKeepAliveSec > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); err != nil {
			return fmt.Errorf("SO_KEEPALIVE: %w", err)
		}
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, config.TCPKeepAliveSec); err != nil {
			return fmt.Errorf("TCP_KEEPIDLE: %w", err)
		}
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, config.TCPKeepAliveSec); err != nil {
			return fmt.Errorf("TCP_KEEPINTVL: %w", err)
		}
	}

	// Set linger option if configured
	if config.TCPLingerSec > 0 {
		linger := &unix.Linger{Onoff: 1, Linger: int32(config.TCPLingerSec)}
		if err := unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, linger); err != nil {
			return fmt.Errorf("SO_LINGER: %w", err)
		}
	}

	return nil
}

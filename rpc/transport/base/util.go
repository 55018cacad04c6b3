package base

import (
	"net"
	"strconv"

	"golang.org/x/sys/unix"
)

// sockaddrString formats a socket address the way net.Addr.String does
func sockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	case *unix.SockaddrUnix:
		if a.Name == "" {
			return "unix"
		}
		return a.Name
	default:
		return "unknown"
	}
}

// IsInProgress reports whether err only means that a non-blocking connect has not finished yet
func IsInProgress(err error) bool {
	return err == unix.EINPROGRESS || err == unix.EINTR
}

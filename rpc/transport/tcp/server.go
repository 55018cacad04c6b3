//go:build linux

package tcp

import (
	"fmt"

	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/transport"
	"github.com/ValentinKolb/dHangman/rpc/transport/base"
	"golang.org/x/sys/unix"
)

const listenBacklog = 128

// serverConnector implements the IServerConnector interface for TCP sockets
type serverConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IServerConnector)
// --------------------------------------------------------------------------

func (c *serverConnector) GetName() string {
	return "tcp"
}

func (c *serverConnector) Listen(config common.TransportConf) (int, error) {
	sa, family, err := resolve(config.Endpoint)
	if err != nil {
		return -1, err
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, fmt.Errorf("failed to create TCP socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("failed to bind %s: %w", config.Endpoint, err)
	}
	if err := unix.Listen(fd, listenBacklog); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("failed to listen on %s: %w", config.Endpoint, err)
	}

	return fd, nil
}

// UpgradeConnection applies performance optimizations to an accepted TCP connection
// using configuration values from TCPConf and SocketConf
func (c *serverConnector) UpgradeConnection(fd int, config common.TransportConf) error {
	return applyOptions(fd, config)
}

func (c *serverConnector) Release(common.TransportConf) {}

// --------------------------------------------------------------------------
// Server Transport Factory Method
// --------------------------------------------------------------------------

// NewTCPServerTransport creates a new TCP server transport
func NewTCPServerTransport() transport.IRPCServerTransport {
	return base.NewBaseServerTransport(&serverConnector{})
}

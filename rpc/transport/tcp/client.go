//go:build linux

package tcp

import (
	"fmt"

	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/transport"
	"github.com/ValentinKolb/dHangman/rpc/transport/base"
	"golang.org/x/sys/unix"
)

// clientConnector implements the IClientConnector interface for TCP sockets
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "tcp"
}

func (c *clientConnector) Connect(endpoint string) (int, error) {
	sa, family, err := resolve(endpoint)
	if err != nil {
		return -1, err
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, fmt.Errorf("failed to create TCP socket: %w", err)
	}

	if err := unix.Connect(fd, sa); err != nil && !base.IsInProgress(err) {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func (c *clientConnector) UpgradeConnection(fd int, config common.TransportConf) error {
	return applyOptions(fd, config)
}

// --------------------------------------------------------------------------
// Client Transport Factory Method
// --------------------------------------------------------------------------

// NewTCPClientTransport creates a new TCP client transport
func NewTCPClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(&clientConnector{})
}

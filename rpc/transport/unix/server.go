//go:build linux

package unix

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/transport"
	"github.com/ValentinKolb/dHangman/rpc/transport/base"
	sys "golang.org/x/sys/unix"
)

const listenBacklog = 128

// serverConnector implements the IServerConnector interface for Unix sockets
type serverConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IServerConnector)
// --------------------------------------------------------------------------

func (c *serverConnector) GetName() string {
	return "unix"
}

func (c *serverConnector) Listen(config common.TransportConf) (int, error) {
	socketPath := config.Endpoint

	// Remove existing socket file if it exists
	if err := os.RemoveAll(socketPath); err != nil {
		return -1, fmt.Errorf("failed to remove existing socket: %w", err)
	}

	fd, err := sys.Socket(sys.AF_UNIX, sys.SOCK_STREAM|sys.SOCK_NONBLOCK|sys.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("failed to create Unix socket: %w", err)
	}
	if err := sys.Bind(fd, &sys.SockaddrUnix{Name: socketPath}); err != nil {
		sys.Close(fd)
		return -1, fmt.Errorf("failed to bind %s: %w", socketPath, err)
	}
	if err := sys.Listen(fd, listenBacklog); err != nil {
		sys.Close(fd)
		return -1, fmt.Errorf("failed to listen on %s: %w", socketPath, err)
	}
	return fd, nil
}

// UpgradeConnection only applies the socket buffer sizes, TCP options do not exist here
func (c *serverConnector) UpgradeConnection(fd int, config common.TransportConf) error {
	return applyBufferSizes(fd, config)
}

func (c *serverConnector) Release(config common.TransportConf) {
	if err := os.Remove(config.Endpoint); err != nil && !os.IsNotExist(err) {
		base.Logger.Warningf("Failed to remove socket %s: %v", config.Endpoint, err)
	}
}

// --------------------------------------------------------------------------
// Server Transport Factory Method
// --------------------------------------------------------------------------

// NewUnixServerTransport creates a new Unix server transport
func NewUnixServerTransport() transport.IRPCServerTransport {
	return base.NewBaseServerTransport(&serverConnector{})
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func applyBufferSizes(fd int, config common.TransportConf) error {
	if config.WriteBufferSize > 0 {
		if err := sys.SetsockoptInt(fd, sys.SOL_SOCKET, sys.SO_SNDBUF, config.WriteBufferSize); err != nil {
			return fmt.Errorf("SO_SNDBUF: %w", err)
		}
	}
	if config.ReadBufferSize > 0 {
		if err := sys.SetsockoptInt(fd, sys.SOL_SOCKET, sys.SO_RCVBUF, config.ReadBufferSize); err != nil {
			return fmt.Errorf("SO_RCVBUF: %w", err)
		}
	}
	return nil
}

//go:build linux

package unix

import (
	"fmt"

	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/transport"
	"github.com/ValentinKolb/dHangman/rpc/transport/base"
	sys "golang.org/x/sys/unix"
)

// clientConnector implements the IClientConnector interface for Unix sockets
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "unix"
}

func (c *clientConnector) Connect(endpoint string) (int, error) {
	fd, err := sys.Socket(sys.AF_UNIX, sys.SOCK_STREAM|sys.SOCK_NONBLOCK|sys.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("failed to create Unix socket: %w", err)
	}
	// a unix connect either completes at once or fails (EAGAIN = backlog full)
	if err := sys.Connect(fd, &sys.SockaddrUnix{Name: endpoint}); err != nil && !base.IsInProgress(err) {
		sys.Close(fd)
		return -1, err
	}
	return fd, nil
}

func (c *clientConnector) UpgradeConnection(fd int, config common.TransportConf) error {
	return applyBufferSizes(fd, config)
}

// --------------------------------------------------------------------------
// Client Transport Factory Method
// --------------------------------------------------------------------------

// NewUnixClientTransport creates a new Unix client transport
func NewUnixClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(&clientConnector{})
}

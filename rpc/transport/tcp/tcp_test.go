//go:build linux

package tcp

import (
	"testing"

	"github.com/ValentinKolb/dHangman/rpc/common"
	transporttesting "github.com/ValentinKolb/dHangman/rpc/transport/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func Test(t *testing.T) {
	transporttesting.RunTransportTests(t, transporttesting.TransportFactory{
		Name:      "TCP",
		Network:   "tcp",
		NewServer: NewTCPServerTransport,
		NewClient: NewTCPClientTransport,
		Endpoint:  transporttesting.TCPEndpoint,
	})
}

func TestResolve(t *testing.T) {
	sa, family, err := resolve("127.0.0.1:9091")
	require.NoError(t, err)
	assert.Equal(t, unix.AF_INET, family)
	v4 := sa.(*unix.SockaddrInet4)
	assert.Equal(t, 9091, v4.Port)
	assert.Equal(t, [4]byte{127, 0, 0, 1}, v4.Addr)

	_, family, err = resolve("[::1]:9091")
	require.NoError(t, err)
	assert.Equal(t, unix.AF_INET6, family)

	_, family, err = resolve(":0")
	require.NoError(t, err)
	assert.Equal(t, unix.AF_INET, family)

	_, _, err = resolve("no-port")
	assert.Error(t, err)
}

func TestConnectRefused(t *testing.T) {
	srv := NewTCPServerTransport()
	srv.RegisterHandler(transporttesting.NewServerRecorder())
	require.NoError(t, srv.Listen(serverConfig("127.0.0.1:0")))
	addr := srv.Addr()
	require.NoError(t, srv.Stop())

	// nothing listens on addr anymore, the loop reports the failed connect
	rec := transporttesting.NewClientRecorder()
	cl := NewTCPClientTransport()
	cl.RegisterHandler(rec)
	if err := cl.Connect(clientConfig(addr)); err != nil {
		return
	}
	assert.Error(t, rec.WaitDisconnected(t))
	assert.NoError(t, cl.Wait())
}

func serverConfig(endpoint string) common.ServerConfig {
	return common.ServerConfig{Transport: common.TransportConf{Endpoint: endpoint}}
}

func clientConfig(endpoint string) common.ClientConfig {
	return common.ClientConfig{Transport: common.TransportConf{Endpoint: endpoint}}
}

package testing

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/serializer"
	"github.com/ValentinKolb/dHangman/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TransportFactory describes one transport implementation under test
type TransportFactory struct {
	// Name is used as the sub test name
	Name string
	// Network is the net.Dial network used for raw connections ("tcp" or "unix")
	Network string
	// NewServer creates a coordinator transport
	NewServer func() transport.IRPCServerTransport
	// NewClient creates a participant transport
	NewClient func() transport.IRPCClientTransport
	// Endpoint returns a fresh listen endpoint
	Endpoint func(t *testing.T) string
}

// TCPEndpoint listens on an ephemeral loopback port
func TCPEndpoint(*testing.T) string {
	return "127.0.0.1:0"
}

// UnixEndpoint returns a socket path in a short lived temp dir.
// t.TempDir is not used because socket paths are limited to ~108 bytes.
func UnixEndpoint(t *testing.T) string {
	dir, err := os.MkdirTemp("", "hm")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

// RunTransportTests runs the conformance suite for a transport implementation
func RunTransportTests(t *testing.T, f TransportFactory) {
	t.Run(f.Name, func(t *testing.T) {
		t.Run("FramesKeepOrder", func(t *testing.T) {
			testFramesKeepOrder(t, f)
		})

		t.Run("SendBeforeConnectCompletes", func(t *testing.T) {
			testSendBeforeConnectCompletes(t, f)
		})

		t.Run("BroadcastReachesEveryLiveConnection", func(t *testing.T) {
			testBroadcast(t, f)
		})

		t.Run("DirectSend", func(t *testing.T) {
			testDirectSend(t, f)
		})

		t.Run("PartialSendResumes", func(t *testing.T) {
			testPartialSendResumes(t, f)
		})

		t.Run("CloseFlushesQueue", func(t *testing.T) {
			testCloseFlushesQueue(t, f)
		})

		t.Run("ServerDisconnect", func(t *testing.T) {
			testServerDisconnect(t, f)
		})

		t.Run("FramesSplitAcrossReads", func(t *testing.T) {
			testFramesSplitAcrossReads(t, f)
		})

		t.Run("MalformedFrameIsDropped", func(t *testing.T) {
			testMalformedFrameIsDropped(t, f)
		})

		t.Run("QueueOverflowDisconnects", func(t *testing.T) {
			testQueueOverflowDisconnects(t, f)
		})

		t.Run("StopClosesConnections", func(t *testing.T) {
			testStopClosesConnections(t, f)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

var codec = serializer.NewFrameSerializer(common.DefaultMaxFrameBytes)

func startServer(t *testing.T, f TransportFactory, conf common.TransportConf) (transport.IRPCServerTransport, *ServerRecorder) {
	t.Helper()
	srv := f.NewServer()
	rec := NewServerRecorder()
	srv.RegisterHandler(rec)

	conf.Endpoint = f.Endpoint(t)
	require.NoError(t, srv.Listen(common.ServerConfig{Transport: conf}))
	t.Cleanup(func() { _ = srv.Stop() })
	return srv, rec
}

func startClient(t *testing.T, f TransportFactory, addr string, conf common.TransportConf) (transport.IRPCClientTransport, *ClientRecorder) {
	t.Helper()
	cl := f.NewClient()
	rec := NewClientRecorder()
	cl.RegisterHandler(rec)

	conf.Endpoint = addr
	require.NoError(t, cl.Connect(common.ClientConfig{Transport: conf}))
	t.Cleanup(func() { _ = cl.Close() })
	return cl, rec
}

// connectClient starts a client and waits until both sides saw the connection
func connectClient(t *testing.T, f TransportFactory, srv transport.IRPCServerTransport, srec *ServerRecorder) (transport.IRPCClientTransport, *ClientRecorder, transport.ConnID) {
	t.Helper()
	cl, crec := startClient(t, f, srv.Addr(), common.TransportConf{})
	crec.WaitConnected(t)
	return cl, crec, srec.NextConnect(t)
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testFramesKeepOrder(t *testing.T, f TransportFactory) {
	srv, srec := startServer(t, f, common.TransportConf{})
	cl, _, id := connectClient(t, f, srv, srec)

	const n = 200
	for i := 0; i < n; i++ {
		require.NoError(t, cl.Send(codec.Serialize("GUESS", strconv.Itoa(i))))
	}

	for i := 0; i < n; i++ {
		from, fields := srec.NextFrame(t)
		require.Equal(t, id, from)
		require.Equal(t, []string{"GUESS", strconv.Itoa(i)}, fields)
	}
}

func testSendBeforeConnectCompletes(t *testing.T, f TransportFactory) {
	srv, srec := startServer(t, f, common.TransportConf{})

	cl, crec := startClient(t, f, srv.Addr(), common.TransportConf{})
	// no wait for the handshake, the record is held until the connection is up
	require.NoError(t, cl.Send(codec.Serialize("START")))

	crec.WaitConnected(t)
	_, fields := srec.NextFrame(t)
	assert.Equal(t, []string{"START"}, fields)
}

func testBroadcast(t *testing.T, f TransportFactory) {
	srv, srec := startServer(t, f, common.TransportConf{})

	clients := make([]transport.IRPCClientTransport, 4)
	recorders := make([]*ClientRecorder, 4)
	ids := make([]transport.ConnID, 4)
	for i := range clients {
		clients[i], recorders[i], ids[i] = connectClient(t, f, srv, srec)
	}

	// the 4th participant leaves before the broadcast
	require.NoError(t, clients[3].Close())
	srec.WaitDisconnect(t, ids[3])

	live := map[transport.ConnID]bool{}
	srv.ForEachLive(func(id transport.ConnID) bool {
		live[id] = true
		return true
	})
	assert.Equal(t, map[transport.ConnID]bool{ids[0]: true, ids[1]: true, ids[2]: true}, live)

	n := srv.Broadcast(codec.Serialize("START", "ALICE"))
	assert.Equal(t, 3, n)

	for i := 0; i < 3; i++ {
		assert.Equal(t, []string{"START", "ALICE"}, recorders[i].NextFrame(t))
	}
	for i := 0; i < 3; i++ {
		recorders[i].NoFrame(t, 50*time.Millisecond)
	}
	recorders[3].NoFrame(t, 10*time.Millisecond)
}

func testDirectSend(t *testing.T, f TransportFactory) {
	srv, srec := startServer(t, f, common.TransportConf{})
	_, first, firstID := connectClient(t, f, srv, srec)
	_, second, _ := connectClient(t, f, srv, srec)

	require.True(t, srv.Send(firstID, codec.Serialize("SCORE", "3")))
	assert.Equal(t, []string{"SCORE", "3"}, first.NextFrame(t))
	second.NoFrame(t, 50*time.Millisecond)

	// unknown connections are ignored
	assert.False(t, srv.Send(transport.ConnID(1<<62), codec.Serialize("SCORE", "3")))
}

func testPartialSendResumes(t *testing.T, f TransportFactory) {
	conf := common.TransportConf{
		MaxQueueBytes: 16 * 1024 * 1024,
		SocketConf:    common.SocketConf{WriteBufferSize: 4096},
	}
	srv, srec := startServer(t, f, conf)
	_, crec, id := connectClient(t, f, srv, srec)

	// far more than a socket buffer holds, so sends end in partial writes
	const n = 64
	payload := strings.Repeat("x", 48*1024)
	for i := 0; i < n; i++ {
		require.True(t, srv.Send(id, codec.Serialize("STATE", strconv.Itoa(i), payload)))
	}

	for i := 0; i < n; i++ {
		fields := crec.NextFrame(t)
		require.Len(t, fields, 3)
		require.Equal(t, strconv.Itoa(i), fields[1])
		require.Equal(t, len(payload), len(fields[2]))
	}
}

func testCloseFlushesQueue(t *testing.T, f TransportFactory) {
	srv, srec := startServer(t, f, common.TransportConf{})
	cl, crec, id := connectClient(t, f, srv, srec)

	const n = 50
	for i := 0; i < n; i++ {
		require.NoError(t, cl.Send(codec.Serialize("GUESS", strconv.Itoa(i))))
	}
	require.NoError(t, cl.Send(codec.Serialize("DISCONNECT")))
	require.NoError(t, cl.Close())

	for i := 0; i < n; i++ {
		_, fields := srec.NextFrame(t)
		require.Equal(t, []string{"GUESS", strconv.Itoa(i)}, fields)
	}
	_, fields := srec.NextFrame(t)
	require.Equal(t, []string{"DISCONNECT"}, fields)

	srec.WaitDisconnect(t, id)
	assert.Nil(t, crec.WaitDisconnected(t))
	assert.ErrorIs(t, cl.Send(codec.Serialize("START")), transport.ErrNotConnected)
}

func testServerDisconnect(t *testing.T, f TransportFactory) {
	srv, srec := startServer(t, f, common.TransportConf{})
	_, crec, id := connectClient(t, f, srv, srec)

	srv.Disconnect(id)
	srec.WaitDisconnect(t, id)
	assert.NotNil(t, crec.WaitDisconnected(t))

	// a second disconnect and later sends are no-ops
	srv.Disconnect(id)
	assert.False(t, srv.Send(id, codec.Serialize("SCORE", "0")))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, srec.DisconnectCount(id))
}

func testFramesSplitAcrossReads(t *testing.T, f TransportFactory) {
	srv, srec := startServer(t, f, common.TransportConf{})

	conn, err := net.Dial(f.Network, srv.Addr())
	require.NoError(t, err)
	defer conn.Close()
	srec.NextConnect(t)

	wire := string(codec.Serialize("USER", "BOB")) + string(codec.Serialize("GUESS", "A"))
	// one byte at a time, the loop has to reassemble the frames
	for i := 0; i < len(wire); i++ {
		_, err := conn.Write([]byte{wire[i]})
		require.NoError(t, err)
		if i%3 == 0 {
			time.Sleep(time.Millisecond)
		}
	}

	_, fields := srec.NextFrame(t)
	assert.Equal(t, []string{"USER", "BOB"}, fields)
	_, fields = srec.NextFrame(t)
	assert.Equal(t, []string{"GUESS", "A"}, fields)
}

func testMalformedFrameIsDropped(t *testing.T, f TransportFactory) {
	srv, srec := startServer(t, f, common.TransportConf{})

	conn, err := net.Dial(f.Network, srv.Addr())
	require.NoError(t, err)
	defer conn.Close()
	id := srec.NextConnect(t)

	// the declared length does not match the payload
	_, err = fmt.Fprint(conn, "3#ABCDE\n5#SCORE\n")
	require.NoError(t, err)

	from, fields := srec.NextFrame(t)
	assert.Equal(t, id, from)
	assert.Equal(t, []string{"SCORE"}, fields)
	srec.NoFrame(t, 50*time.Millisecond)
	assert.Equal(t, 0, srec.DisconnectCount(id))
}

func testQueueOverflowDisconnects(t *testing.T, f TransportFactory) {
	srv, srec := startServer(t, f, common.TransportConf{MaxQueueBytes: 64})
	_, crec, id := connectClient(t, f, srv, srec)

	assert.True(t, srv.Send(id, codec.Serialize("SCORE", "1")))
	assert.Equal(t, []string{"SCORE", "1"}, crec.NextFrame(t))

	assert.False(t, srv.Send(id, codec.Serialize("RULES", strings.Repeat("r", 128))))
	srec.WaitDisconnect(t, id)
	crec.WaitDisconnected(t)
}

func testStopClosesConnections(t *testing.T, f TransportFactory) {
	srv, srec := startServer(t, f, common.TransportConf{})
	_, first, firstID := connectClient(t, f, srv, srec)
	_, second, secondID := connectClient(t, f, srv, srec)

	require.NoError(t, srv.Stop())

	first.WaitDisconnected(t)
	second.WaitDisconnected(t)
	assert.Equal(t, 1, srec.DisconnectCount(firstID))
	assert.Equal(t, 1, srec.DisconnectCount(secondID))
	assert.Equal(t, 0, srv.Broadcast(codec.Serialize("START", "ALICE")))
}

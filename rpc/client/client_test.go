//go:build linux

package client

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dHangman/lib/game"
	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/serializer"
	"github.com/ValentinKolb/dHangman/rpc/server"
	"github.com/ValentinKolb/dHangman/rpc/transport/tcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingListener collects rendered events
type recordingListener struct {
	mu           sync.Mutex
	connected    int
	lines        []string
	disconnected []error
}

func (l *recordingListener) OnConnected() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected++
}

func (l *recordingListener) OnMessage(msg common.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, Render(msg))
}

func (l *recordingListener) OnDisconnected(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disconnected = append(l.disconnected, err)
}

func (l *recordingListener) snapshot() (int, []string, []error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected, append([]string(nil), l.lines...), append([]error(nil), l.disconnected...)
}

func (l *recordingListener) waitLines(t *testing.T, n int) []string {
	t.Helper()
	require.Eventually(t, func() bool {
		_, lines, _ := l.snapshot()
		return len(lines) >= n
	}, 5*time.Second, 10*time.Millisecond)
	_, lines, _ := l.snapshot()
	return lines
}

func startCoordinator(t *testing.T) string {
	t.Helper()
	s := server.NewRPCServer(
		common.ServerConfig{Transport: common.TransportConf{Endpoint: "127.0.0.1:0"}},
		tcp.NewTCPServerTransport(),
		serializer.NewFrameSerializer(common.DefaultMaxFrameBytes),
		game.NewSession(game.NewWordList("CAT")),
	)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })
	return s.Addr()
}

func newClient(t *testing.T, addr string) (IRPCClient, *recordingListener) {
	t.Helper()
	l := &recordingListener{}
	c := NewRPCClient(
		common.ClientConfig{Transport: common.TransportConf{Endpoint: addr}, Workers: 1},
		tcp.NewTCPClientTransport(),
		serializer.NewFrameSerializer(common.DefaultMaxFrameBytes),
		l,
	)
	t.Cleanup(c.Shutdown)
	return c, l
}

func TestClient_PlaysARound(t *testing.T) {
	addr := startCoordinator(t)
	c, l := newClient(t, addr)

	// requests issued before the handshake completed are delivered afterwards
	require.NoError(t, c.Connect())
	require.NoError(t, c.Username("ALICE"))
	require.NoError(t, c.Start())
	require.NoError(t, c.Guess("a"))
	require.NoError(t, c.Guess("cat"))
	require.NoError(t, c.Score())

	lines := l.waitLines(t, 8)
	assert.Equal(t, []string{
		"ANONYMOUS changed name to ALICE",
		"ALICE started a new game!",
		"3 letter word: _ _ _\n3 attempts to go.\n\nPreviously guessed:\n",
		"ALICE guessed: A",
		"3 letter word: _ A _\n3 attempts to go.\n\nPreviously guessed:\n[A]",
		"ALICE guessed: CAT",
		"3 letter word: C A T\nGood job, you won!\n\nPreviously guessed:\n[A]",
		"Your score is 1",
	}, lines)

	connected, _, _ := l.snapshot()
	assert.Equal(t, 1, connected)
}

func TestClient_SeesOtherParticipants(t *testing.T) {
	addr := startCoordinator(t)
	alice, aliceEvents := newClient(t, addr)
	bob, _ := newClient(t, addr)

	require.NoError(t, alice.Connect())
	require.NoError(t, alice.Rules())
	aliceEvents.waitLines(t, 1)

	require.NoError(t, bob.Connect())
	require.NoError(t, bob.Username("BOB"))
	require.NoError(t, bob.Disconnect())

	lines := aliceEvents.waitLines(t, 3)
	assert.Equal(t, []string{game.Rules, "ANONYMOUS changed name to BOB", "BOB left the game :("}, lines)
}

func TestClient_DisconnectAndReconnect(t *testing.T) {
	addr := startCoordinator(t)
	c, l := newClient(t, addr)

	require.NoError(t, c.Connect())
	require.NoError(t, c.Disconnect())
	require.Eventually(t, func() bool {
		_, _, disconnected := l.snapshot()
		return len(disconnected) == 1
	}, 5*time.Second, 10*time.Millisecond)

	_, _, disconnected := l.snapshot()
	assert.Nil(t, disconnected[0])

	// sending without a connection fails
	assert.Error(t, c.Start())

	require.NoError(t, c.Connect())
	require.NoError(t, c.Score())
	// the departure of the first connection may still reach the new one
	require.Eventually(t, func() bool {
		_, lines, _ := l.snapshot()
		return slices.Contains(lines, "Your score is 0")
	}, 5*time.Second, 10*time.Millisecond)
}

func TestClient_ShutdownRejectsConnect(t *testing.T) {
	c, _ := newClient(t, "127.0.0.1:1")
	c.Shutdown()
	assert.ErrorIs(t, c.Connect(), ErrShutdown)
}

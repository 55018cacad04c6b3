//go:build linux

package play

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dHangman/lib/game"
	"github.com/ValentinKolb/dHangman/rpc/client"
	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/serializer"
	"github.com/ValentinKolb/dHangman/rpc/server"
	"github.com/ValentinKolb/dHangman/rpc/transport/tcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is read by the test while the listener writes to it
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPlayAgainstCoordinator(t *testing.T) {
	codec := serializer.NewFrameSerializer(common.DefaultMaxFrameBytes)
	s := server.NewRPCServer(
		common.ServerConfig{Transport: common.TransportConf{Endpoint: "127.0.0.1:0"}},
		tcp.NewTCPServerTransport(),
		codec,
		game.NewSession(game.NewWordList("GO")),
	)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })

	out := &syncBuffer{}
	it := newInterpreter(out)
	it.client = client.NewRPCClient(
		common.ClientConfig{Transport: common.TransportConf{Endpoint: s.Addr()}},
		tcp.NewTCPClientTransport(),
		codec,
		it,
	)

	for _, line := range []string{"CONNECT", "USER Bob", "START", "GUESS g", "GUESS o", "SCORE"} {
		require.False(t, it.execute(line))
	}
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Your score is 1")
	}, 5*time.Second, 10*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- it.run(strings.NewReader("QUIT\n")) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("interpreter did not stop on QUIT")
	}

	// run flushes DISCONNECT and waits for the listener before returning
	text := out.String()
	for _, want := range []string{
		welcomeMessage,
		connectedMessage,
		"ANONYMOUS changed name to Bob",
		"Bob started a new game!",
		"Bob guessed: G",
		"2 letter word: G O",
		"Good job, you won!",
		"Your score is 1",
	} {
		assert.Contains(t, text, want)
	}
	assert.Regexp(t, `Disconnected from the server\.|Lost the connection`, text)
}

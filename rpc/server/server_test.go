//go:build linux

package server

import (
	"testing"
	"time"

	"github.com/ValentinKolb/dHangman/lib/game"
	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/serializer"
	"github.com/ValentinKolb/dHangman/rpc/transport"
	"github.com/ValentinKolb/dHangman/rpc/transport/tcp"
	transporttesting "github.com/ValentinKolb/dHangman/rpc/transport/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codec = serializer.NewFrameSerializer(common.DefaultMaxFrameBytes)

// player is one participant connection driven by the test
type player struct {
	t   *testing.T
	cl  transport.IRPCClientTransport
	rec *transporttesting.ClientRecorder
}

func (p *player) send(fields ...string) {
	p.t.Helper()
	require.NoError(p.t, p.cl.Send(codec.Serialize(fields...)))
}

func (p *player) expect(fields ...string) {
	p.t.Helper()
	require.Equal(p.t, fields, p.rec.NextFrame(p.t))
}

func (p *player) quiet() {
	p.t.Helper()
	p.rec.NoFrame(p.t, 100*time.Millisecond)
}

func startCoordinator(t *testing.T, words ...string) IRPCServer {
	t.Helper()
	return startCoordinatorWith(t, game.NewSession(game.NewWordList(words...)))
}

func startCoordinatorWith(t *testing.T, session game.ISession) IRPCServer {
	t.Helper()
	s := NewRPCServer(
		common.ServerConfig{
			Transport: common.TransportConf{Endpoint: "127.0.0.1:0"},
			Workers:   4,
		},
		tcp.NewTCPServerTransport(),
		codec,
		session,
	)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

// join connects a participant and waits until every earlier participant saw nothing of it
func join(t *testing.T, s IRPCServer) *player {
	t.Helper()
	rec := transporttesting.NewClientRecorder()
	cl := tcp.NewTCPClientTransport()
	cl.RegisterHandler(rec)
	require.NoError(t, cl.Connect(common.ClientConfig{Transport: common.TransportConf{Endpoint: s.Addr()}}))
	t.Cleanup(func() { _ = cl.Close() })
	rec.WaitConnected(t)

	p := &player{t: t, cl: cl, rec: rec}
	// a SCORE round trip makes sure the coordinator registered the participant
	p.send("SCORE")
	p.expect("SCORE", "0")
	return p
}

func TestStartBroadcastsAndSecondStartIsRejected(t *testing.T) {
	s := startCoordinator(t, "CAT")
	alice := join(t, s)
	bob := join(t, s)

	alice.send("USER", "ALICE")
	alice.expect("USER", "ANONYMOUS", "ALICE")
	bob.expect("USER", "ANONYMOUS", "ALICE")

	alice.send("START")
	for _, p := range []*player{alice, bob} {
		p.expect("START", "ALICE")
		p.expect("STATE", "_ _ _", "3", "false", "", "3")
	}

	// only the requester learns that a round is running
	bob.send("start")
	bob.expect("RUNNING")
	bob.expect("STATE", "_ _ _", "3", "false", "", "3")
	alice.quiet()
}

func TestGuessFlow(t *testing.T) {
	s := startCoordinator(t, "CAT")
	alice := join(t, s)
	bob := join(t, s)

	alice.send("GUESS", "A")
	alice.expect("NOT_RUNNING")
	bob.quiet()

	alice.send("USER", "ALICE")
	alice.expect("USER", "ANONYMOUS", "ALICE")
	bob.expect("USER", "ANONYMOUS", "ALICE")

	alice.send("START")
	for _, p := range []*player{alice, bob} {
		p.expect("START", "ALICE")
		p.expect("STATE", "_ _ _", "3", "false", "", "3")
	}

	alice.send("GUESS", "a")
	for _, p := range []*player{alice, bob} {
		p.expect("GUESS", "ALICE", "A")
		p.expect("STATE", "_ A _", "3", "false", "[A]", "3")
	}

	bob.send("GUESS", "x")
	for _, p := range []*player{alice, bob} {
		p.expect("GUESS", "ANONYMOUS", "X")
		p.expect("STATE", "_ A _", "2", "false", "[A, X]", "3")
	}

	bob.send("GUESS", "cat")
	for _, p := range []*player{alice, bob} {
		p.expect("GUESS", "ANONYMOUS", "CAT")
		p.expect("STATE", "C A T", "2", "true", "[A, X]", "3")
	}

	// a won round rewards everybody and ends the session
	alice.send("SCORE")
	alice.expect("SCORE", "1")
	bob.send("SCORE")
	bob.expect("SCORE", "1")

	bob.send("GUESS", "T")
	bob.expect("NOT_RUNNING")
}

func TestLostRoundPenalizesEverybody(t *testing.T) {
	s := startCoordinator(t, "OX")
	alice := join(t, s)
	bob := join(t, s)

	alice.send("START")
	for _, p := range []*player{alice, bob} {
		p.expect("START", "ANONYMOUS")
		p.expect("STATE", "_ _", "2", "false", "", "2")
	}

	alice.send("GUESS", "Q")
	for _, p := range []*player{alice, bob} {
		p.expect("GUESS", "ANONYMOUS", "Q")
		p.expect("STATE", "_ _", "1", "false", "[Q]", "2")
	}
	alice.send("GUESS", "Z")
	for _, p := range []*player{alice, bob} {
		p.expect("GUESS", "ANONYMOUS", "Z")
		p.expect("STATE", "_ _", "0", "false", "[Q, Z]", "2")
	}

	bob.send("SCORE")
	bob.expect("SCORE", "-1")

	// a new round can be started afterwards
	bob.send("START")
	bob.expect("START", "ANONYMOUS")
	alice.expect("START", "ANONYMOUS")
}

func TestRulesAndUnknownCommands(t *testing.T) {
	s := startCoordinator(t, "CAT")
	alice := join(t, s)
	bob := join(t, s)

	// malformed and unknown requests are dropped without an answer
	alice.send("JUMP")
	alice.send("GUESS")
	alice.send("STATE", "x", "1", "false", "", "1")
	alice.quiet()

	alice.send("RULES")
	alice.expect("RULES", game.Rules)
	bob.quiet()
}

func TestDisconnectAnnouncesDeparture(t *testing.T) {
	s := startCoordinator(t, "CAT")
	alice := join(t, s)
	bob := join(t, s)
	carol := join(t, s)

	bob.send("USER", "BOB")
	for _, p := range []*player{alice, bob, carol} {
		p.expect("USER", "ANONYMOUS", "BOB")
	}

	// explicit DISCONNECT
	bob.send("DISCONNECT")
	bob.rec.WaitDisconnected(t)
	alice.expect("DISCONNECT", "BOB")
	carol.expect("DISCONNECT", "BOB")

	// end of stream without a DISCONNECT request
	require.NoError(t, carol.cl.Close())
	alice.expect("DISCONNECT", "ANONYMOUS")
	alice.quiet()

	assert.Eventually(t, func() bool {
		return s.PoolStats().Pending == 0
	}, time.Second, 10*time.Millisecond)
}

func TestStopClosesParticipants(t *testing.T) {
	s := startCoordinator(t, "CAT")
	alice := join(t, s)

	require.NoError(t, s.Stop())
	alice.rec.WaitDisconnected(t)
	// stopping twice is harmless
	require.NoError(t, s.Stop())
}

// rejectingSession is a running session that refuses every guess
type rejectingSession struct {
	game.ISession
}

func (rejectingSession) Guess(string) (game.Snapshot, error) {
	return game.Snapshot{}, game.ErrInvalidGuess
}

func TestFailedGuessIsAnsweredWithNotRunning(t *testing.T) {
	s := startCoordinatorWith(t, rejectingSession{game.NewSession(game.NewWordList("CAT"))})
	alice := join(t, s)
	bob := join(t, s)

	alice.send("START")
	for _, p := range []*player{alice, bob} {
		p.expect("START", "ANONYMOUS")
		p.expect("STATE", "_ _ _", "3", "false", "", "3")
	}

	alice.send("GUESS", "A")
	alice.expect("NOT_RUNNING")
	bob.quiet()
}

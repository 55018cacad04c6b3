package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ValentinKolb/dHangman/lib/game"
	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/serializer"
	"github.com/ValentinKolb/dHangman/rpc/transport"
)

// NewGameServerAdapter creates the adapter that runs a hangman session for all participants
func NewGameServerAdapter(
	session game.ISession,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) IRPCServerAdapter {
	return &gameServerAdapterImpl{
		session:      session,
		transport:    transport,
		serializer:   serializer,
		participants: newParticipantStore(),
	}
}

type gameServerAdapterImpl struct {
	session      game.ISession
	transport    transport.IRPCServerTransport
	serializer   serializer.IRPCSerializer
	participants *participantStore

	// held around START and GUESS including their broadcasts
	mu sync.Mutex
}

// --------------------------------------------------------------------------
// Interface Methods (docu see server.IRPCServerAdapter)
// --------------------------------------------------------------------------

func (a *gameServerAdapterImpl) Join(origin transport.ConnID) {
	a.participants.add(origin)
}

func (a *gameServerAdapterImpl) Handle(_ context.Context, origin transport.ConnID, req common.Message) error {
	p, ok := a.participants.load(origin)
	if !ok {
		// already left, nothing to answer to
		return nil
	}

	switch req.Cmd {
	case common.CmdStart:
		a.start(origin, p)
	case common.CmdGuess:
		return a.guess(origin, p, req.Text)
	case common.CmdUser:
		old := p.Rename(req.NewLabel)
		Logger.Infof("connection %d renamed %s to %s", origin, old, req.NewLabel)
		a.broadcast(common.NewUserEvent(old, req.NewLabel))
	case common.CmdScore:
		a.reply(origin, common.NewScoreEvent(p.Score()))
	case common.CmdRules:
		a.reply(origin, common.NewRulesEvent(a.session.Rules()))
	case common.CmdDisconnect:
		// the departure is announced by Leave once the connection is gone
		a.transport.Disconnect(origin)
	default:
		return fmt.Errorf("%s: %w", req.Cmd, common.ErrWrongDirection)
	}
	return nil
}

func (a *gameServerAdapterImpl) Leave(origin transport.ConnID) {
	p, ok := a.participants.remove(origin)
	if !ok {
		return
	}
	Logger.Infof("%s (connection %d) left", p.Label(), origin)
	a.broadcast(common.NewDisconnectEvent(p.Label()))
}

// --------------------------------------------------------------------------
// Commands
// --------------------------------------------------------------------------

func (a *gameServerAdapterImpl) start(origin transport.ConnID, p *Participant) {
	a.mu.Lock()
	defer a.mu.Unlock()

	err := a.session.Start()
	switch {
	case errors.Is(err, game.ErrAlreadyRunning):
		a.reply(origin, common.NewRunningEvent())
		a.reply(origin, stateEvent(a.session.Snapshot()))
		return
	case err != nil:
		Logger.Errorf("failed to start a round for %s: %v", p.Label(), err)
		a.reply(origin, common.NewNotRunningEvent())
		return
	}

	snap := a.session.Snapshot()
	Logger.Infof("%s started round %s", p.Label(), snap.RoundID)
	a.broadcast(common.NewStartEvent(p.Label()))
	a.broadcast(stateEvent(snap))
}

func (a *gameServerAdapterImpl) guess(origin transport.ConnID, p *Participant, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap, err := a.session.Guess(text)
	switch {
	case errors.Is(err, game.ErrNotRunning):
		a.reply(origin, common.NewNotRunningEvent())
		return nil
	case err != nil:
		Logger.Errorf("failed to apply guess %q of %s: %v", text, p.Label(), err)
		a.reply(origin, common.NewNotRunningEvent())
		return nil
	}

	a.broadcast(common.NewGuessEvent(p.Label(), strings.ToUpper(strings.TrimSpace(text))))
	a.broadcast(stateEvent(snap))

	if snap.Over() {
		delta := -1
		if snap.Won {
			delta = 1
		}
		a.adjustScores(delta)
		a.session.Stop()
		Logger.Infof("round %s over (won=%t), scores adjusted by %d", snap.RoundID, snap.Won, delta)
	}
	return nil
}

// adjustScores changes the score of every connected participant
func (a *gameServerAdapterImpl) adjustScores(delta int) {
	a.transport.ForEachLive(func(id transport.ConnID) bool {
		if p, ok := a.participants.load(id); ok {
			p.AddScore(delta)
		}
		return true
	})
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (a *gameServerAdapterImpl) reply(origin transport.ConnID, msg common.Message) {
	if !a.transport.Send(origin, a.serializer.Serialize(msg.EventFields()...)) {
		Logger.Debugf("dropped %s for connection %d, it is gone", msg.Cmd, origin)
	}
}

func (a *gameServerAdapterImpl) broadcast(msg common.Message) {
	n := a.transport.Broadcast(a.serializer.Serialize(msg.EventFields()...))
	Logger.Debugf("broadcast %s to %d connections", msg.Cmd, n)
}

func stateEvent(s game.Snapshot) common.Message {
	return common.NewStateEvent(common.GameState{
		Masked:       s.Masked,
		AttemptsLeft: s.AttemptsLeft,
		Won:          s.Won,
		Guessed:      s.GuessedText(),
		Length:       s.Length,
	})
}

package server

import (
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

// Participant is the coordinator side view of one connected player
type Participant struct {
	mu    sync.Mutex
	label string
	score atomic.Int64
}

func newParticipant() *Participant {
	return &Participant{label: common.DefaultLabel}
}

// Label returns the current display name
func (p *Participant) Label() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.label
}

// Rename sets a new label and returns the previous one
func (p *Participant) Rename(label string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	old := p.label
	p.label = label
	return old
}

// Score returns the current score
func (p *Participant) Score() int {
	return int(p.score.Load())
}

// AddScore adds delta (may be negative) to the score
func (p *Participant) AddScore(delta int) {
	p.score.Add(int64(delta))
}

// participantStore maps connections to participants
type participantStore struct {
	m *xsync.MapOf[transport.ConnID, *Participant]
}

func newParticipantStore() *participantStore {
	return &participantStore{m: xsync.NewMapOf[transport.ConnID, *Participant]()}
}

func (s *participantStore) add(id transport.ConnID) *Participant {
	p, _ := s.m.LoadOrStore(id, newParticipant())
	return p
}

func (s *participantStore) load(id transport.ConnID) (*Participant, bool) {
	return s.m.Load(id)
}

// remove deletes the participant; only the first call for an id returns it
func (s *participantStore) remove(id transport.ConnID) (*Participant, bool) {
	return s.m.LoadAndDelete(id)
}

func (s *participantStore) len() int {
	return s.m.Size()
}

package game

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("game")

// Rules is the rules text handed to participants. It must not contain the
// frame field delimiter.
const Rules = "Guess a letter in the places of the word where it says _, " +
	"if the guess is correct then _ will be replaced by the correct guess." +
	"\nYou may also guess the entire word. Each incorrect guess (letter or word) will count as an attempt." +
	"\nGuessing the same letter twice is free, but guessing the same word twice is not free." +
	"\nCollectively the players have the same number of attempts as there are letters in the word."

// session implements ISession
type session struct {
	mu      sync.Mutex
	words   IWordSource
	current *round
	running bool
}

// NewSession creates an idle session that draws its words from words
func NewSession(words IWordSource) ISession {
	return &session{words: words}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see game.ISession)
// --------------------------------------------------------------------------

func (s *session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	word, err := s.words.Next()
	if err != nil {
		return err
	}

	s.current = newRound(uuid.NewString(), word)
	s.running = true

	Logger.Infof("started round %s with a %d letter word", s.current.id, len(s.current.letters))
	Logger.Debugf("round %s word: %s", s.current.id, string(s.current.letters))
	return nil
}

func (s *session) Guess(text string) (Snapshot, error) {
	text = strings.ToUpper(strings.TrimSpace(text))
	if text == "" {
		return Snapshot{}, ErrInvalidGuess
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return s.snapshotLocked(), ErrNotRunning
	}

	s.current.guess(text)
	return s.current.snapshot(), nil
}

func (s *session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *session) Rules() string {
	return Rules
}

func (s *session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		Logger.Infof("stopped round %s", s.current.id)
	}
	s.running = false
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *session) snapshotLocked() Snapshot {
	if s.current == nil {
		return Snapshot{}
	}
	return s.current.snapshot()
}

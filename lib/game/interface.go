package game

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrAlreadyRunning is returned by ISession.Start while a round is in progress
	ErrAlreadyRunning = errors.New("game: a round is already running")
	// ErrNotRunning is returned by ISession.Guess when no round is in progress
	ErrNotRunning = errors.New("game: no round is running")
	// ErrInvalidGuess is returned for empty guesses
	ErrInvalidGuess = errors.New("game: invalid guess")
	// ErrNoWords is returned when the word source cannot supply a word
	ErrNoWords = errors.New("game: word source is empty")
)

// UnknownLetter is the placeholder for letters that were not revealed yet
const UnknownLetter = "_"

// ISession is the shared session state handle of a coordinator.
// Exactly one round can be active at a time. Implementations must be safe for
// concurrent use.
type ISession interface {
	// Start draws a new word and starts a round.
	// Returns ErrAlreadyRunning if a round is in progress.
	Start() error
	// Guess applies a letter or word guess to the running round and returns the resulting snapshot.
	// Returns ErrNotRunning if no round is in progress.
	Guess(text string) (Snapshot, error)
	// Snapshot returns the state of the current (or last) round
	Snapshot() Snapshot
	// Rules returns the human-readable rules of the game
	Rules() string
	// Running reports whether a round is in progress
	Running() bool
	// Stop ends the running round. Stopping an idle session is a no-op.
	Stop()
}

// IWordSource supplies words for new rounds
type IWordSource interface {
	// Next returns a random word, or ErrNoWords
	Next() (string, error)
	// Len returns the number of available words
	Len() int
}

// Snapshot is an immutable view of a round
type Snapshot struct {
	// RoundID identifies the round the snapshot belongs to (empty before the first round)
	RoundID string
	// Masked is the word with unrevealed letters replaced by UnknownLetter, joined by spaces
	Masked string
	// AttemptsLeft is the number of failed guesses the players can still afford
	AttemptsLeft int
	// Won is true once every letter is revealed
	Won bool
	// Guessed holds the guessed letters in guess order
	Guessed []string
	// Length is the number of letters of the word
	Length int
}

// GuessedText renders the guessed letters as "[A, B]" or "" if nothing was guessed yet
func (s Snapshot) GuessedText() string {
	if len(s.Guessed) == 0 {
		return ""
	}
	return "[" + strings.Join(s.Guessed, ", ") + "]"
}

// Lost is true when no attempts are left and the word was not guessed
func (s Snapshot) Lost() bool {
	return !s.Won && s.Length > 0 && s.AttemptsLeft <= 0
}

// Over is true when the round was either won or lost
func (s Snapshot) Over() bool {
	return s.Won || s.Lost()
}

// String returns a compact representation for logging
func (s Snapshot) String() string {
	return "word=" + s.Masked +
		" attempts=" + strconv.Itoa(s.AttemptsLeft) +
		" won=" + strconv.FormatBool(s.Won) +
		" guessed=" + s.GuessedText()
}

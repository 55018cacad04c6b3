package game

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// round holds the mutable state of one word. It is not safe for concurrent use,
// the owning session serializes access.
type round struct {
	id           string
	letters      []rune
	revealed     []bool
	guessed      []rune
	attemptsLeft int
}

// newRound starts a round for word; attempts equal the number of letters
func newRound(id, word string) *round {
	letters := []rune(strings.ToUpper(word))
	return &round{
		id:           id,
		letters:      letters,
		revealed:     make([]bool, len(letters)),
		guessed:      make([]rune, 0, len(letters)),
		attemptsLeft: len(letters),
	}
}

// guess applies a normalized (upper case, trimmed, non-empty) guess
func (r *round) guess(text string) {
	if utf8.RuneCountInString(text) == 1 {
		letter, _ := utf8.DecodeRuneInString(text)

		// guessing the same letter twice is free
		if slices.Contains(r.guessed, letter) {
			return
		}
		r.guessed = append(r.guessed, letter)

		if !r.revealLetter(letter) {
			r.attemptsLeft--
		}
		return
	}

	if text == string(r.letters) {
		for i := range r.revealed {
			r.revealed[i] = true
		}
		return
	}
	r.attemptsLeft--
}

// revealLetter marks every position of letter and reports whether there was any
func (r *round) revealLetter(letter rune) bool {
	found := false
	for i, l := range r.letters {
		if l == letter {
			r.revealed[i] = true
			found = true
		}
	}
	return found
}

func (r *round) won() bool {
	for _, ok := range r.revealed {
		if !ok {
			return false
		}
	}
	return len(r.revealed) > 0
}

func (r *round) snapshot() Snapshot {
	masked := make([]string, len(r.letters))
	for i, l := range r.letters {
		if r.revealed[i] {
			masked[i] = string(l)
		} else {
			masked[i] = UnknownLetter
		}
	}

	guessed := make([]string, len(r.guessed))
	for i, l := range r.guessed {
		guessed[i] = string(l)
	}

	attempts := r.attemptsLeft
	if attempts < 0 {
		attempts = 0
	}

	return Snapshot{
		RoundID:      r.id,
		Masked:       strings.Join(masked, " "),
		AttemptsLeft: attempts,
		Won:          r.won(),
		Guessed:      guessed,
		Length:       len(r.letters),
	}
}

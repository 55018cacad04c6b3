package game

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStartedSession(t *testing.T, word string) ISession {
	t.Helper()
	s := NewSession(NewWordList(word))
	require.NoError(t, s.Start())
	return s
}

func TestSession_InitialSnapshot(t *testing.T) {
	s := newStartedSession(t, "cat")

	snap := s.Snapshot()
	assert.Equal(t, "_ _ _", snap.Masked)
	assert.Equal(t, 3, snap.AttemptsLeft)
	assert.False(t, snap.Won)
	assert.Equal(t, "", snap.GuessedText())
	assert.Equal(t, 3, snap.Length)
	assert.NotEmpty(t, snap.RoundID)
	assert.True(t, s.Running())
}

func TestSession_StartTwiceFails(t *testing.T) {
	s := newStartedSession(t, "cat")
	assert.ErrorIs(t, s.Start(), ErrAlreadyRunning)
}

func TestSession_GuessWithoutRound(t *testing.T) {
	s := NewSession(NewWordList("cat"))

	_, err := s.Guess("a")
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.Equal(t, Snapshot{}, s.Snapshot())
}

func TestSession_EmptyWordSource(t *testing.T) {
	s := NewSession(NewWordList())
	assert.ErrorIs(t, s.Start(), ErrNoWords)
	assert.False(t, s.Running())
}

func TestSession_Guesses(t *testing.T) {
	tests := []struct {
		name         string
		guesses      []string
		wantMasked   string
		wantAttempts int
		wantWon      bool
		wantGuessed  string
	}{
		{
			name:         "correct letter costs nothing",
			guesses:      []string{"A"},
			wantMasked:   "_ A _",
			wantAttempts: 3,
			wantGuessed:  "[A]",
		},
		{
			name:         "lower case is normalized",
			guesses:      []string{" a "},
			wantMasked:   "_ A _",
			wantAttempts: 3,
			wantGuessed:  "[A]",
		},
		{
			name:         "wrong letter costs one attempt",
			guesses:      []string{"X"},
			wantMasked:   "_ _ _",
			wantAttempts: 2,
			wantGuessed:  "[X]",
		},
		{
			name:         "repeated letter is free",
			guesses:      []string{"X", "X", "x"},
			wantMasked:   "_ _ _",
			wantAttempts: 2,
			wantGuessed:  "[X]",
		},
		{
			name:         "wrong word costs one attempt every time",
			guesses:      []string{"DOG", "DOG"},
			wantMasked:   "_ _ _",
			wantAttempts: 1,
			wantGuessed:  "",
		},
		{
			name:         "correct word reveals everything",
			guesses:      []string{"A", "cat"},
			wantMasked:   "C A T",
			wantAttempts: 3,
			wantWon:      true,
			wantGuessed:  "[A]",
		},
		{
			name:         "all letters win",
			guesses:      []string{"T", "C", "A"},
			wantMasked:   "C A T",
			wantAttempts: 3,
			wantWon:      true,
			wantGuessed:  "[T, C, A]",
		},
		{
			name:         "running out of attempts",
			guesses:      []string{"X", "Y", "Z"},
			wantMasked:   "_ _ _",
			wantAttempts: 0,
			wantGuessed:  "[X, Y, Z]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStartedSession(t, "cat")

			var snap Snapshot
			var err error
			for _, g := range tt.guesses {
				snap, err = s.Guess(g)
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantMasked, snap.Masked)
			assert.Equal(t, tt.wantAttempts, snap.AttemptsLeft)
			assert.Equal(t, tt.wantWon, snap.Won)
			assert.Equal(t, tt.wantGuessed, snap.GuessedText())
			assert.Equal(t, 3, snap.Length)
			assert.Equal(t, tt.wantWon || tt.wantAttempts == 0, snap.Over())
		})
	}
}

func TestSession_RepeatedLettersRevealAllPositions(t *testing.T) {
	s := newStartedSession(t, "level")

	snap, err := s.Guess("e")
	require.NoError(t, err)
	assert.Equal(t, "_ E _ E _", snap.Masked)
	assert.Equal(t, 5, snap.AttemptsLeft)
}

func TestSession_InvalidGuess(t *testing.T) {
	s := newStartedSession(t, "cat")
	_, err := s.Guess("   ")
	assert.ErrorIs(t, err, ErrInvalidGuess)
}

func TestSession_StopAndRestart(t *testing.T) {
	s := newStartedSession(t, "cat")
	first := s.Snapshot().RoundID

	s.Stop()
	assert.False(t, s.Running())
	_, err := s.Guess("a")
	assert.ErrorIs(t, err, ErrNotRunning)

	// the finished round stays visible until the next start
	assert.Equal(t, first, s.Snapshot().RoundID)

	require.NoError(t, s.Start())
	assert.NotEqual(t, first, s.Snapshot().RoundID)
	assert.Equal(t, "_ _ _", s.Snapshot().Masked)
}

func TestSession_ConcurrentGuesses(t *testing.T) {
	s := newStartedSession(t, "abcdefghij")

	var wg sync.WaitGroup
	for _, l := range "abcdefghij" {
		wg.Add(1)
		go func(letter string) {
			defer wg.Done()
			_, err := s.Guess(letter)
			assert.NoError(t, err)
		}(string(l))
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.True(t, snap.Won)
	assert.Len(t, snap.Guessed, 10)
}

func TestRules_HaveNoFieldDelimiter(t *testing.T) {
	s := NewSession(NewWordList("cat"))
	assert.NotContains(t, s.Rules(), "|")
	assert.NotEmpty(t, s.Rules())
}

func TestLoadWordFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "words.txt")
		content := "# comment\ncat\n\n  dog  \nGopher\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		src, err := LoadWordFile(path)
		require.NoError(t, err)
		assert.Equal(t, 3, src.Len())

		for i := 0; i < 20; i++ {
			w, err := src.Next()
			require.NoError(t, err)
			assert.Contains(t, []string{"CAT", "DOG", "GOPHER"}, w)
			assert.Equal(t, strings.ToUpper(w), w)
		}
	})

	t.Run("invalid word", func(t *testing.T) {
		path := filepath.Join(dir, "bad.txt")
		require.NoError(t, os.WriteFile(path, []byte("cat\nno|pe\n"), 0o644))

		_, err := LoadWordFile(path)
		assert.ErrorContains(t, err, "line 2")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadWordFile(filepath.Join(dir, "missing.txt"))
		assert.Error(t, err)
	})
}

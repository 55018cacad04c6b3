package game

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"unicode"
)

// DefaultWords is used when no word file is configured
var DefaultWords = []string{
	"gopher", "channel", "socket", "buffer", "frame", "queue", "kernel",
	"packet", "router", "thread", "select", "stream", "signal", "worker",
	"epoll", "latency", "protocol", "broadcast", "cluster", "payload",
}

// wordList implements IWordSource over a fixed list of words
type wordList struct {
	words []string
}

// NewWordList creates a word source drawing uniformly from words.
// Blank entries are ignored.
func NewWordList(words ...string) IWordSource {
	list := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			list = append(list, strings.ToUpper(w))
		}
	}
	return &wordList{words: list}
}

// LoadWordFile reads one word per line from path.
// Blank lines and lines starting with '#' are skipped, words containing
// anything other than letters are rejected.
func LoadWordFile(path string) (IWordSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open word file: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !isWord(line) {
			return nil, fmt.Errorf("invalid word %q on line %d of %s", line, lineNo, path)
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word file: %w", err)
	}

	Logger.Infof("loaded %d words from %s", len(words), path)
	return NewWordList(words...), nil
}

func (l *wordList) Next() (string, error) {
	if len(l.words) == 0 {
		return "", ErrNoWords
	}
	return l.words[rand.IntN(len(l.words))], nil
}

func (l *wordList) Len() int {
	return len(l.words)
}

func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

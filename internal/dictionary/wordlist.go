package dictionary

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// WordList is a fixed in-memory dictionary, used when no krdict key is
// available.
type WordList struct {
	words map[string]struct{}
}

func NewWordList(words ...string) *WordList {
	w := &WordList{words: make(map[string]struct{}, len(words))}

	for _, word := range words {
		word = strings.TrimSpace(word)
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		w.words[word] = struct{}{}
	}

	return w
}

// LoadWordList reads one word per line from path. Blank lines and lines
// starting with # are skipped.
func LoadWordList(path string) (*WordList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading word list %s: %w", path, err)
	}

	return NewWordList(words...), nil
}

func (w *WordList) Len() int {
	return len(w.words)
}

func (w *WordList) Lookup(_ context.Context, word string) (bool, error) {
	_, ok := w.words[word]

	return ok, nil
}

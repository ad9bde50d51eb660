package model

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// ErrEmptyNgWord is returned when a taboo word is blank after trimming.
var ErrEmptyNgWord = errors.New("ng word must not be empty")

// NgWord is a single taboo word.
type NgWord struct {
	value string
}

// NewNgWord trims raw and rejects empty input.
func NewNgWord(raw string) (NgWord, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return NgWord{}, ErrEmptyNgWord
	}
	return NgWord{value: v}, nil
}

// NewNgWords builds a list in order, failing on the first invalid entry.
func NewNgWords(raw []string) ([]NgWord, error) {
	words := make([]NgWord, 0, len(raw))
	for i, r := range raw {
		w, err := NewNgWord(r)
		if err != nil {
			return nil, fmt.Errorf("ng word %d: %w", i, err)
		}
		words = append(words, w)
	}
	return words, nil
}

// NgWordValues returns the plain strings of words.
func NgWordValues(words []NgWord) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.value
	}
	return out
}

// Value returns the trimmed word.
func (w NgWord) Value() string {
	return w.value
}

func (w NgWord) String() string {
	return w.value
}

// IsContainedIn reports whether message contains the word, ignoring case.
func (w NgWord) IsContainedIn(message string) bool {
	if w.value == "" {
		return false
	}
	// Casers keep state, so each call gets its own.
	return strings.Contains(cases.Fold().String(message), cases.Fold().String(w.value))
}

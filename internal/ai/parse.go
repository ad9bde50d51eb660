package ai

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"

	"marry-fun-bot/internal/model"
)

// Response validation errors.
var (
	ErrInvalidJSON    = errors.New("no JSON document in response")
	ErrMissingMessage = errors.New("response has no message")
	ErrInvalidScore   = errors.New("response has no valid score")
	ErrWordCount      = errors.New("unexpected number of ng words")
	ErrInvalidWord    = errors.New("ng word must be a non-empty string")
)

// Bounds on a generated taboo list.
const (
	MinNgWords = 25
	MaxNgWords = 35
)

// parseJSON finds the first JSON object or array in text. Models wrap JSON
// in prose or markdown fences often enough that the raw text is only the
// first candidate.
func parseJSON(text string) (gjson.Result, error) {
	candidates := []string{strings.TrimSpace(text), stripFences(text), balancedJSON(text)}
	for _, c := range candidates {
		if c == "" || !gjson.Valid(c) {
			continue
		}
		doc := gjson.Parse(c)
		if doc.IsObject() || doc.IsArray() {
			return doc, nil
		}
	}
	return gjson.Result{}, ErrInvalidJSON
}

func stripFences(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return ""
	}
	rest := strings.TrimLeftFunc(text[start+3:], unicode.IsLetter)
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// balancedJSON returns the first balanced {...} or [...] region of text,
// ignoring delimiters inside strings.
func balancedJSON(text string) string {
	starts := []int{strings.IndexByte(text, '{'), strings.IndexByte(text, '[')}
	if starts[1] >= 0 && (starts[0] < 0 || starts[1] < starts[0]) {
		starts[0], starts[1] = starts[1], starts[0]
	}

	for _, start := range starts {
		if start < 0 {
			continue
		}
		open := text[start]
		closing := byte('}')
		if open == '[' {
			closing = ']'
		}

		depth := 0
		inString, escaped := false, false
		for i := start; i < len(text); i++ {
			ch := text[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case ch == '\\':
					escaped = true
				case ch == '"':
					inString = false
				}
				continue
			}
			switch ch {
			case '"':
				inString = true
			case open:
				depth++
			case closing:
				depth--
				if depth == 0 {
					return strings.TrimSpace(text[start : i+1])
				}
			}
		}
	}
	return ""
}

func decodeReply(doc gjson.Result) (*model.AIReply, error) {
	msg := doc.Get("message")
	if msg.Type != gjson.String || strings.TrimSpace(msg.Str) == "" {
		return nil, ErrMissingMessage
	}

	score := doc.Get("score")
	if score.Type != gjson.Number {
		return nil, ErrInvalidScore
	}
	if _, err := model.ScoreFromRaw(score.Float()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScore, err)
	}

	return &model.AIReply{
		Message:  strings.TrimSpace(msg.Str),
		RawScore: score.Float(),
		Emotion:  model.NormalizeEmotion(doc.Get("emotion").String()),
	}, nil
}

func decodeNgWords(doc gjson.Result) ([]string, error) {
	list := doc
	if doc.IsObject() {
		list = doc.Get("words")
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: words is not a list", ErrWordCount)
	}

	items := list.Array()
	if len(items) < MinNgWords || len(items) > MaxNgWords {
		return nil, fmt.Errorf("%w: got %d, want %d-%d", ErrWordCount, len(items), MinNgWords, MaxNgWords)
	}

	words := make([]string, 0, len(items))
	for i, item := range items {
		w := strings.TrimSpace(item.Str)
		if item.Type != gjson.String || w == "" {
			return nil, fmt.Errorf("%w: item %d", ErrInvalidWord, i)
		}
		words = append(words, w)
	}
	return words, nil
}

package model

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale selects the response language of the AI adapter.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleJA Locale = "ja"
)

var localeMatcher = language.NewMatcher([]language.Tag{language.English, language.Japanese})

// ParseLocale resolves a BCP-47 tag such as "ja-JP" to a supported locale.
// Empty or unsupported input gives LocaleEN.
func ParseLocale(s string) Locale {
	s = strings.TrimSpace(s)
	if s == "" {
		return LocaleEN
	}
	tag, err := language.Parse(s)
	if err != nil {
		return LocaleEN
	}
	_, idx, conf := localeMatcher.Match(tag)
	if conf == language.No {
		return LocaleEN
	}
	if idx == 1 {
		return LocaleJA
	}
	return LocaleEN
}

// Valid reports whether l is a supported locale.
func (l Locale) Valid() bool {
	return l == LocaleEN || l == LocaleJA
}

package story

import (
	"strings"

	"golang.org/x/text/language"
)

// Supported languages. Te reo Māori comes first and is the default, as in
// the printed book.
var (
	Maori   = language.Make("mi")
	English = language.English

	supported = []language.Tag{Maori, English}
	matcher   = language.NewMatcher(supported)
)

// DefaultTag returns the language used when nothing better matches.
func DefaultTag() language.Tag { return supported[0] }

// ParseTag parses value and maps it onto a supported language.
func ParseTag(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return language.Und, false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.Und, false
	}
	return supported[idx], true
}

// MatchTags picks the best supported language for a preference list, such
// as one parsed from Accept-Language. It reports false, with the default
// tag, when nothing in tags is supported.
func MatchTags(tags ...language.Tag) (language.Tag, bool) {
	if len(tags) == 0 {
		return DefaultTag(), false
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultTag(), false
	}
	return supported[idx], true
}

// Text is a string written in one or more languages, keyed by tag.
type Text map[string]string

// In returns the text for tag, falling back to the default language, then
// English, then any translation present.
func (t Text) In(tag language.Tag) string {
	for _, want := range []language.Tag{tag, DefaultTag(), English} {
		if s, ok := t[want.String()]; ok && s != "" {
			return s
		}
	}
	best := ""
	for key, s := range t {
		if s != "" && (best == "" || key < best) {
			best = key
		}
	}
	return t[best]
}

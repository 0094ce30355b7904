package api

import (
	"net/http"

	"golang.org/x/text/language"

	"github.com/okian/terimu/internal/domain/story"
)

// requestLang picks the language for r: an explicit value first, then the
// lang query parameter, then the best supported Accept-Language entry.
// An empty result leaves the choice to the service default.
func requestLang(r *http.Request, explicit string) string {
	if tag, ok := story.ParseTag(explicit); ok {
		return tag.String()
	}
	if tag, ok := story.ParseTag(r.URL.Query().Get("lang")); ok {
		return tag.String()
	}
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return ""
	}
	if tag, ok := story.MatchTags(tags...); ok {
		return tag.String()
	}
	return ""
}

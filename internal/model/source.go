package model

import "strings"

// Source is a citation attached to summaries and detailed profiles.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// NewSource builds a Source, defaulting the title to the URI. It returns
// false when uri is blank; a Source always carries a URI.
func NewSource(uri, title string) (Source, bool) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Source{}, false
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = uri
	}
	return Source{URI: uri, Title: title}, true
}

// ConcatSources appends source sets in order. Duplicates are kept.
func ConcatSources(sets ...[]Source) []Source {
	n := 0
	for _, s := range sets {
		n += len(s)
	}
	out := make([]Source, 0, n)
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

// Package wikilink provides regex-based detection of [[Title]] references
// inside note bodies.
package wikilink

import (
	"regexp"
	"strings"
)

// Link is a single detected wiki-link
type Link struct {
	Start int
	End   int
	// Target is the referenced note title
	Target string
	// Label is the optional display text after the pipe
	Label string
}

// [[Target]] or [[Target|Label]]
var linkRe = regexp.MustCompile(`\[\[([^|\]]+)(?:\|([^\]]+))?\]\]`)

// Scan finds all wiki-links in the text, in document order
func Scan(text string) []Link {
	raw := linkRe.FindAllStringSubmatchIndex(text, -1)
	var out []Link
	for _, m := range raw {
		link := Link{
			Start:  m[0],
			End:    m[1],
			Target: strings.TrimSpace(text[m[2]:m[3]]),
		}
		if m[4] != -1 {
			link.Label = strings.TrimSpace(text[m[4]:m[5]])
		}
		if link.Target != "" {
			out = append(out, link)
		}
	}
	return out
}

// Titles returns the deduplicated targets of all wiki-links in the text,
// in first-appearance order. Dedup is case-insensitive, keeping the casing
// of the first occurrence.
func Titles(text string) []string {
	links := Scan(text)
	seen := make(map[string]bool, len(links))
	var titles []string
	for _, l := range links {
		key := strings.ToLower(l.Target)
		if !seen[key] {
			seen[key] = true
			titles = append(titles, l.Target)
		}
	}
	return titles
}

// References reports whether the text contains a wiki-link whose target
// matches title case-insensitively.
func References(text, title string) bool {
	want := strings.ToLower(strings.TrimSpace(title))
	if want == "" {
		return false
	}
	for _, l := range Scan(text) {
		if strings.ToLower(l.Target) == want {
			return true
		}
	}
	return false
}

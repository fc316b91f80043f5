// Package links merges suggested anchor/URL pairs into text that may already
// contain markdown links of the form [text](url).
package links

import (
	"regexp"
	"strings"

	"scribe/internal/selection"
)

// Link is a suggested external link for a piece of anchor text.
type Link struct {
	URL        string `json:"url"`
	AnchorText string `json:"anchorText"`
	Title      string `json:"title"`
}

// Candidate is a search hit offered for an anchor expression.
type Candidate struct {
	Link
	Description string `json:"description"`
}

// Span is an inline markdown link found in a fragment.
// Start and End are byte offsets of the whole [anchor](url) span.
type Span struct {
	Start  int
	End    int
	Anchor string
	URL    string
}

var linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// Spans returns every markdown link span in fragment, left to right.
// Malformed link syntax does not match and is not reported.
func Spans(fragment string) []Span {
	matches := linkPattern.FindAllStringSubmatchIndex(fragment, -1)
	spans := make([]Span, 0, len(matches))
	for _, m := range matches {
		spans = append(spans, Span{
			Start:  m[0],
			End:    m[1],
			Anchor: fragment[m[2]:m[3]],
			URL:    fragment[m[4]:m[5]],
		})
	}
	return spans
}

// Format renders the markdown span for a link.
func Format(anchorText, url string) string {
	return "[" + anchorText + "](" + url + ")"
}

// Merge rewrites fragment so that it links exactly the given set:
// existing links whose URL is not in links are stripped to their anchor text,
// then each entry is linked at the first whole-word occurrence of its anchor text.
// Entries with no eligible occurrence are skipped.
func Merge(fragment string, links []Link) string {
	pruned := Prune(fragment, links)
	if len(links) == 0 {
		return pruned
	}
	return Insert(pruned, links)
}

// Prune strips every existing link whose URL is not among links, keeping its label.
// It is a single left-to-right pass; replaced text is never rescanned.
func Prune(fragment string, links []Link) string {
	keep := make(map[string]bool, len(links))
	for _, l := range links {
		keep[l.URL] = true
	}

	spans := Spans(fragment)
	if len(spans) == 0 {
		return fragment
	}

	var b strings.Builder
	b.Grow(len(fragment))
	last := 0
	for _, s := range spans {
		b.WriteString(fragment[last:s.Start])
		if keep[s.URL] {
			b.WriteString(fragment[s.Start:s.End])
		} else {
			b.WriteString(s.Anchor)
		}
		last = s.End
	}
	b.WriteString(fragment[last:])
	return b.String()
}

// Insert links each entry, in order, at the first whole-word occurrence of its
// anchor text that lies outside existing link spans. Each search runs against the
// text produced by the previous insertions. An entry whose exact link is already
// present is left alone.
func Insert(fragment string, links []Link) string {
	text := fragment
	for _, l := range links {
		if l.AnchorText == "" {
			continue
		}

		spans := Spans(text)
		if hasLink(spans, l) {
			continue
		}

		pos := findWholeWord(text, l.AnchorText, spans)
		if pos < 0 {
			continue
		}

		text = text[:pos] + Format(l.AnchorText, l.URL) + text[pos+len(l.AnchorText):]
	}
	return text
}

func hasLink(spans []Span, l Link) bool {
	for _, s := range spans {
		if s.Anchor == l.AnchorText && s.URL == l.URL {
			return true
		}
	}
	return false
}

// findWholeWord returns the byte offset of the first literal occurrence of word in
// text that starts and ends on a word boundary and does not overlap any span, or -1.
func findWholeWord(text, word string, spans []Span) int {
	for from := 0; from <= len(text)-len(word); {
		i := strings.Index(text[from:], word)
		if i < 0 {
			return -1
		}
		pos := from + i
		end := pos + len(word)
		if boundaryAt(text, pos) && boundaryAt(text, end) && !overlaps(spans, pos, end) {
			return pos
		}
		from = pos + 1
	}
	return -1
}

// boundaryAt reports whether the word class changes at byte offset i of text.
// Positions outside text count as non-word.
func boundaryAt(text string, i int) bool {
	before := i > 0 && selection.IsWordChar(text[i-1])
	after := i < len(text) && selection.IsWordChar(text[i])
	return before != after
}

func overlaps(spans []Span, start, end int) bool {
	for _, s := range spans {
		if start < s.End && end > s.Start {
			return true
		}
	}
	return false
}

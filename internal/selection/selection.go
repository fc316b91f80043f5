// Package selection widens raw editor selections to whole-word boundaries.
package selection

import "fmt"

// Document is the read-only view of an editing surface the expander needs.
// Positions are 0-based offsets into the flattened document.
type Document interface {
	Size() int
	TextBetween(from, to int) string
}

// Selection is a range of document positions with 0 <= From <= To <= size.
type Selection struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Empty reports whether the selection is a bare cursor.
func (s Selection) Empty() bool {
	return s.From == s.To
}

// Within reports whether the selection is a valid range for a document of the given size.
func (s Selection) Within(size int) bool {
	return s.From >= 0 && s.From <= s.To && s.To <= size
}

func (s Selection) String() string {
	return fmt.Sprintf("%d-%d", s.From, s.To)
}

// IsWordChar reports whether c belongs to the word character class [A-Za-z0-9_].
func IsWordChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// isWordText reports whether a single-position slice of document text is a word character.
// Structural positions yield an empty string or a separator and never count.
func isWordText(s string) bool {
	return len(s) == 1 && IsWordChar(s[0])
}

// Expand moves the start of sel left and the end of sel right while the adjacent
// character is a word character. Expansion stops at the document bounds.
// The result always contains sel and Expand(doc, Expand(doc, sel)) == Expand(doc, sel).
func Expand(doc Document, sel Selection) Selection {
	start, end := sel.From, sel.To
	size := doc.Size()

	for start > 0 && isWordText(doc.TextBetween(start-1, start)) {
		start--
	}
	for end < size && isWordText(doc.TextBetween(end, end+1)) {
		end++
	}

	return Selection{From: start, To: end}
}

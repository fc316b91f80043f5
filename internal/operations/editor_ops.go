package operations

import (
	"fmt"

	"scribe/internal/document"
	"scribe/internal/selection"
)

// EditorOps covers document edits that need no model
type EditorOps struct{}

func NewEditorOps() *EditorOps {
	return &EditorOps{}
}

// Expand grows sel to whole-word boundaries and returns the covered text.
func (e *EditorOps) Expand(doc selection.Document, sel selection.Selection) (*ExpandResult, error) {
	if !sel.Within(doc.Size()) {
		return nil, NewOperationError("expand", sel.String(), fmt.Errorf("selection outside document of size %d", doc.Size()))
	}

	expanded := selection.Expand(doc, sel)
	return &ExpandResult{
		Selection: expanded,
		Text:      doc.TextBetween(expanded.From, expanded.To),
	}, nil
}

// Replace swaps the text of sel for text and returns the range the new text covers.
func (e *EditorOps) Replace(doc *document.Doc, sel selection.Selection, text string) (selection.Selection, error) {
	if err := doc.ReplaceRange(sel.From, sel.To, text); err != nil {
		return selection.Selection{}, NewOperationError("replace", sel.String(), err)
	}
	return selection.Selection{From: sel.From, To: sel.From + len([]rune(text))}, nil
}

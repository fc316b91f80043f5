package operations

import (
	"errors"

	"scribe/internal/links"
	"scribe/internal/prompts"
	"scribe/internal/selection"
)

// Operations provides a unified interface for all editor operations
type Operations struct {
	Writing *WritingOps
	Links   *LinkOps
	Editor  *EditorOps
}

// RewriteResult is the replacement text produced for a selection
type RewriteResult struct {
	Mode  prompts.Mode
	Text  string
	Limit int
}

// SuggestResult holds the links chosen for a selection
type SuggestResult struct {
	Links       []links.Link
	Expressions []string // Expressions the model searched for, when known
	Dropped     int      // Links discarded because their anchor is not in the selection
}

// ExpandResult is a selection grown to whole-word boundaries and its text
type ExpandResult struct {
	Selection selection.Selection
	Text      string
}

// ApplyResult describes a link merge spliced back into a document
type ApplyResult struct {
	Selection selection.Selection // Range now covered by the merged text
	Text      string
}

// ErrNotConfigured is wrapped by errors from operations whose model provider or
// search client was not set up.
var ErrNotConfigured = errors.New("not configured")

// OperationError represents an error from an operation
type OperationError struct {
	Operation string
	Target    string
	Cause     error
}

func (e *OperationError) Error() string {
	if e.Target != "" {
		return e.Operation + " failed for " + e.Target + ": " + e.Cause.Error()
	}
	return e.Operation + " failed: " + e.Cause.Error()
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// NewOperationError creates a new operation error
func NewOperationError(operation, target string, cause error) error {
	return &OperationError{
		Operation: operation,
		Target:    target,
		Cause:     cause,
	}
}

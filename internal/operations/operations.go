package operations

import (
	"github.com/tliron/commonlog"

	"scribe/internal/llm"
	"scribe/internal/search"
	"scribe/internal/tools"
)

var log = commonlog.GetLogger("scribe.operations")

const (
	DefaultMaxExpressions    = 2
	DefaultMaxToolRoundTrips = 2
)

// Options tunes the model-backed operations
type Options struct {
	Model             string
	MaxExpressions    int
	MaxToolRoundTrips int
	ToolLogger        tools.Logger
}

// New creates a new Operations instance with all sub-operations.
// The searcher may be nil, in which case link suggestion is unavailable.
func New(provider llm.Provider, searcher search.Searcher, opts Options) *Operations {
	if opts.MaxExpressions <= 0 {
		opts.MaxExpressions = DefaultMaxExpressions
	}
	if opts.MaxToolRoundTrips <= 0 {
		opts.MaxToolRoundTrips = DefaultMaxToolRoundTrips
	}

	return &Operations{
		Writing: NewWritingOps(provider, opts.Model),
		Links:   NewLinkOps(provider, searcher, opts),
		Editor:  NewEditorOps(),
	}
}

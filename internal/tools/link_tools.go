package tools

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"scribe/internal/links"
	"scribe/internal/search"
)

// GetPossibleLinksName is the name the model calls the search tool by.
const GetPossibleLinksName = "get_possible_links"

// ExpressionCandidates are the search hits for one anchor expression.
type ExpressionCandidates struct {
	Expression string            `json:"expression"`
	Links      []links.Candidate `json:"links"`
}

// GetPossibleLinksTool searches the web for each expression in parallel.
type GetPossibleLinksTool struct {
	*BaseTool
	searcher       search.Searcher
	maxExpressions int
}

func NewGetPossibleLinksTool(searcher search.Searcher, maxExpressions int) *GetPossibleLinksTool {
	return &GetPossibleLinksTool{
		BaseTool: NewBaseTool(
			GetPossibleLinksName,
			"Get a list of possible links for the given expressions",
			[]Parameter{
				{
					Name:        "expressions",
					Type:        "array",
					Items:       "string",
					Required:    true,
					Description: fmt.Sprintf("Expressions from the selection to find links for (at most %d)", maxExpressions),
				},
			},
		),
		searcher:       searcher,
		maxExpressions: maxExpressions,
	}
}

func (t *GetPossibleLinksTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	var expressions []string
	for _, e := range GetStringSlice(args, "expressions", nil) {
		if e = strings.TrimSpace(e); e != "" {
			expressions = append(expressions, e)
		}
	}
	if len(expressions) == 0 {
		return ToolResult{Success: false, Error: "no expressions given"}, nil
	}
	truncated := false
	if len(expressions) > t.maxExpressions {
		expressions = expressions[:t.maxExpressions]
		truncated = true
	}

	found, err := SearchExpressions(ctx, t.searcher, expressions)
	if err != nil {
		return ToolResult{Success: false, Error: err.Error()}, NewToolError(t.Name(), "search failed", err)
	}

	return ToolResult{
		Success: true,
		Data:    found,
		Meta: map[string]any{
			"expressions": len(expressions),
			"truncated":   truncated,
		},
	}, nil
}

// SearchExpressions runs one search per expression concurrently and returns the
// candidates in expression order. Each candidate's anchor text is its expression.
func SearchExpressions(ctx context.Context, searcher search.Searcher, expressions []string) ([]ExpressionCandidates, error) {
	found := make([]ExpressionCandidates, len(expressions))
	g, ctx := errgroup.WithContext(ctx)
	for i, expression := range expressions {
		g.Go(func() error {
			results, err := searcher.Search(ctx, expression)
			if err != nil {
				return fmt.Errorf("search %q: %w", expression, err)
			}
			candidates := make([]links.Candidate, 0, len(results))
			for _, r := range results {
				candidates = append(candidates, links.Candidate{
					Link: links.Link{
						URL:        r.URL,
						AnchorText: expression,
						Title:      r.Title,
					},
					Description: r.Description,
				})
			}
			found[i] = ExpressionCandidates{Expression: expression, Links: candidates}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return found, nil
}

package operations

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"scribe/internal/document"
	"scribe/internal/links"
	"scribe/internal/llm"
	"scribe/internal/prompts"
	"scribe/internal/search"
	"scribe/internal/selection"
	"scribe/internal/tools"
)

// LinkOps suggests external links for a selection and merges them into text
type LinkOps struct {
	provider       llm.Provider
	registry       *tools.Registry
	model          string
	maxExpressions int
	maxRounds      int
}

// linkAnswer is the structured form of the model's final answer.
type linkAnswer struct {
	Links []links.Link `json:"links"`
}

func NewLinkOps(provider llm.Provider, searcher search.Searcher, opts Options) *LinkOps {
	l := &LinkOps{
		provider:       provider,
		model:          opts.Model,
		maxExpressions: opts.MaxExpressions,
		maxRounds:      opts.MaxToolRoundTrips,
	}
	if searcher != nil {
		l.registry = tools.NewRegistry()
		if opts.ToolLogger != nil {
			l.registry.SetLogger(opts.ToolLogger)
		}
		if err := l.registry.Register(tools.NewGetPossibleLinksTool(searcher, opts.MaxExpressions)); err != nil {
			log.Errorf("failed to register link tool: %v", err)
		}
	}
	return l
}

// Available reports whether link suggestion is configured.
func (l *LinkOps) Available() bool {
	return l.provider != nil && l.registry != nil
}

// Tools returns the registry offered to the model, or nil without a searcher.
func (l *LinkOps) Tools() *tools.Registry {
	return l.registry
}

// SuggestLinks asks the model for anchor expressions in selection, searches for
// candidate pages and returns one chosen link per expression. Links whose anchor
// text does not occur in selection are dropped.
func (l *LinkOps) SuggestLinks(ctx context.Context, selection, fullText string) (*SuggestResult, error) {
	if strings.TrimSpace(selection) == "" {
		return nil, NewOperationError("suggest links", "", fmt.Errorf("selection is empty"))
	}
	if !l.Available() {
		return nil, NewOperationError("suggest links", "", fmt.Errorf("link search %w", ErrNotConfigured))
	}

	var (
		result *SuggestResult
		err    error
	)
	if fc, ok := l.provider.(llm.FunctionCaller); ok {
		result, err = l.suggestWithTools(ctx, fc, selection, fullText)
	} else {
		result, err = l.suggestInSteps(ctx, selection, fullText)
	}
	if err != nil {
		return nil, NewOperationError("suggest links", l.provider.Name(), err)
	}

	kept, dropped := filterLinks(result.Links, selection)
	result.Links = kept
	result.Dropped += dropped
	log.Infof("suggested %d links (%d dropped) for %d expressions", len(kept), result.Dropped, len(result.Expressions))
	return result, nil
}

// suggestWithTools lets the model call get_possible_links itself, then structures
// its free-form answer into links.
func (l *LinkOps) suggestWithTools(ctx context.Context, fc llm.FunctionCaller, selection, fullText string) (*SuggestResult, error) {
	logger := l.registry.Logger()
	schemas := l.registry.Schemas()
	start := time.Now()

	msgs := []llm.Message{
		llm.SystemMessage(prompts.LinkSystem(l.maxExpressions)),
		llm.UserMessage(prompts.LinkUser(selection, fullText)),
	}

	result := &SuggestResult{}
	rounds := 0
	var answer string
	for {
		req := llm.FunctionCallRequest{Model: l.model, Messages: msgs}
		if rounds < l.maxRounds {
			req.Tools = schemas
			req.ToolChoice = "auto"
		}

		resp, err := fc.CompleteWithFunctions(ctx, req)
		if err != nil {
			logger.LogLoopComplete(rounds, time.Since(start), false)
			return nil, err
		}
		if len(resp.ToolCalls) == 0 || rounds >= l.maxRounds {
			answer = resp.Content
			break
		}

		rounds++
		logger.LogRoundStart(rounds, len(resp.ToolCalls))
		msgs = append(msgs, resp.AssistantMessage())
		for _, call := range resp.ToolCalls {
			if call.Function.Name == tools.GetPossibleLinksName {
				gjson.Get(call.Function.Arguments, "expressions").ForEach(func(_, v gjson.Result) bool {
					result.Expressions = append(result.Expressions, v.String())
					return true
				})
			}
			msgs = append(msgs, llm.ToolResultMessage(call.ID, l.registry.ExecuteCall(ctx, call)))
		}
	}
	logger.LogLoopComplete(rounds, time.Since(start), true)

	if strings.TrimSpace(answer) == "" {
		return result, nil
	}

	// Answers that already carry the links object need no second call.
	if parsed, ok := parseLinks(answer); ok {
		result.Links = parsed
		return result, nil
	}

	var structured linkAnswer
	if err := fc.CompleteWithStructuredOutput(ctx, prompts.StructureSystem, answer, &structured, l.model); err != nil {
		return nil, err
	}
	result.Links = structured.Links
	return result, nil
}

// suggestInSteps drives the same flow for providers without tool calling: the
// model names expressions, they are searched concurrently and the model picks
// one candidate per expression.
func (l *LinkOps) suggestInSteps(ctx context.Context, selection, fullText string) (*SuggestResult, error) {
	answer, err := l.provider.CompleteWithSystem(ctx, prompts.ExpressionSystem(l.maxExpressions), prompts.LinkUser(selection, fullText), l.model)
	if err != nil {
		return nil, fmt.Errorf("failed to choose expressions: %w", err)
	}

	expressions := parseExpressions(answer, selection, l.maxExpressions)
	result := &SuggestResult{Expressions: expressions}
	if len(expressions) == 0 {
		return result, nil
	}

	args := map[string]any{"expressions": expressions}
	toolResult, err := l.registry.Execute(ctx, tools.GetPossibleLinksName, args)
	if err != nil {
		return nil, err
	}
	found, ok := toolResult.Data.([]tools.ExpressionCandidates)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result %T", tools.GetPossibleLinksName, toolResult.Data)
	}

	candidates, err := json.Marshal(found)
	if err != nil {
		return nil, fmt.Errorf("failed to encode candidates: %w", err)
	}
	user := prompts.LinkUser(selection, fullText) + "\nPOSSIBLE LINKS:\n" + string(candidates) + "\n"

	choice, err := l.provider.CompleteWithSystem(ctx, prompts.ChooseSystem, user, l.model)
	if err != nil {
		return nil, fmt.Errorf("failed to choose links: %w", err)
	}
	result.Links, _ = parseLinks(choice)
	return result, nil
}

// Merge rewrites fragment so that it links exactly the given set.
func (l *LinkOps) Merge(fragment string, chosen []links.Link) string {
	return links.Merge(fragment, chosen)
}

// ApplyLinks merges chosen into the text of sel and splices the result back into doc.
func (l *LinkOps) ApplyLinks(doc *document.Doc, sel selection.Selection, chosen []links.Link) (*ApplyResult, error) {
	if !sel.Within(doc.Size()) {
		return nil, NewOperationError("apply links", sel.String(), fmt.Errorf("selection outside document of size %d", doc.Size()))
	}

	merged := links.Merge(doc.TextBetween(sel.From, sel.To), chosen)
	if err := doc.ReplaceRange(sel.From, sel.To, merged); err != nil {
		return nil, NewOperationError("apply links", sel.String(), err)
	}

	return &ApplyResult{
		Selection: selection.Selection{From: sel.From, To: sel.From + len([]rune(merged))},
		Text:      merged,
	}, nil
}

// jsonObject extracts the outermost {...} of a model answer.
func jsonObject(answer string) string {
	text := llm.StripCodeFence(answer)
	if gjson.Valid(text) {
		return text
	}
	i := strings.IndexByte(text, '{')
	j := strings.LastIndexByte(text, '}')
	if i < 0 || j < i {
		return ""
	}
	return text[i : j+1]
}

// parseLinks reads {"links": [...]} from a model answer.
func parseLinks(answer string) ([]links.Link, bool) {
	arr := gjson.Get(jsonObject(answer), "links")
	if !arr.IsArray() {
		return nil, false
	}

	var out []links.Link
	arr.ForEach(func(_, v gjson.Result) bool {
		out = append(out, links.Link{
			URL:        strings.TrimSpace(v.Get("url").String()),
			AnchorText: v.Get("anchorText").String(),
			Title:      v.Get("title").String(),
		})
		return true
	})
	return out, true
}

// parseExpressions reads {"expressions": [...]} and keeps distinct substrings of selection.
func parseExpressions(answer, selection string, limit int) []string {
	seen := map[string]bool{}
	var out []string
	gjson.Get(jsonObject(answer), "expressions").ForEach(func(_, v gjson.Result) bool {
		e := strings.TrimSpace(v.String())
		if e == "" || seen[e] || !strings.Contains(selection, e) {
			return true
		}
		seen[e] = true
		out = append(out, e)
		return len(out) < limit
	})
	return out
}

// filterLinks drops links missing a URL or anchor, anchors that are not substrings
// of selection, and duplicates.
func filterLinks(in []links.Link, selection string) ([]links.Link, int) {
	seen := map[links.Link]bool{}
	kept := make([]links.Link, 0, len(in))
	for _, l := range in {
		key := links.Link{URL: l.URL, AnchorText: l.AnchorText}
		if l.URL == "" || l.AnchorText == "" || !strings.Contains(selection, l.AnchorText) || seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, l)
	}
	return kept, len(in) - len(kept)
}

package operations

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"scribe/internal/document"
	"scribe/internal/links"
	"scribe/internal/llm"
	"scribe/internal/prompts"
	"scribe/internal/search"
	"scribe/internal/selection"
)

type call struct {
	system, user, model string
}

// fakeProvider returns answers in order and records every prompt.
type fakeProvider struct {
	mu      sync.Mutex
	answers []string
	err     error
	calls   []call
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) CompleteWithSystem(ctx context.Context, system, user, model string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{system, user, model})
	if f.err != nil {
		return "", f.err
	}
	if len(f.answers) == 0 {
		return "", llm.ErrNoChoices
	}
	answer := f.answers[0]
	f.answers = f.answers[1:]
	return answer, nil
}

// fakeCaller additionally supports tool calling.
type fakeCaller struct {
	fakeProvider
	responses  []*llm.FunctionCallResponse
	requests   []llm.FunctionCallRequest
	structured string
	structIn   string
}

func (f *fakeCaller) CompleteWithFunctions(ctx context.Context, req llm.FunctionCallRequest) (*llm.FunctionCallResponse, error) {
	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		return nil, llm.ErrNoChoices
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeCaller) CompleteWithStructuredOutput(ctx context.Context, system, user string, result interface{}, model string) error {
	f.structIn = user
	return json.Unmarshal([]byte(f.structured), result)
}

type fakeSearcher struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeSearcher) Search(ctx context.Context, expression string) ([]search.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, expression)
	f.mu.Unlock()
	return []search.Result{
		{Title: strings.ToUpper(expression), URL: "https://example.com/" + expression},
		{Title: "Other", URL: "https://other.com/" + expression},
	}, nil
}

func TestRewrite(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		selection string
		wantLimit int
		wantInSys string
	}{
		{"rewrite", "rewrite", "AI can help", 200, "improves existing text"},
		{"shorter", "shorter", strings.Repeat("x", 40), 20, "shortens existing text"},
		{"longer", "longer", strings.Repeat("x", 40), 80, "lengthens existing text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{answers: []string{"  new text \n"}}
			ops := New(p, nil, Options{Model: "m"})

			res, err := ops.Writing.Rewrite(context.Background(), tt.mode, tt.selection, "full document")
			if err != nil {
				t.Fatalf("Rewrite failed: %v", err)
			}
			if res.Text != "new text" {
				t.Errorf("expected trimmed text, got %q", res.Text)
			}
			if res.Limit != tt.wantLimit {
				t.Errorf("expected limit %d, got %d", tt.wantLimit, res.Limit)
			}
			if len(p.calls) != 1 {
				t.Fatalf("expected 1 call, got %d", len(p.calls))
			}
			c := p.calls[0]
			if !strings.Contains(c.system, tt.wantInSys) {
				t.Errorf("unexpected system prompt %q", c.system)
			}
			if !strings.Contains(c.user, tt.selection) || !strings.Contains(c.user, "full document") {
				t.Errorf("user prompt missing selection or context: %q", c.user)
			}
			if c.model != "m" {
				t.Errorf("expected model m, got %q", c.model)
			}
		})
	}
}

func TestRewrite_InvalidMode(t *testing.T) {
	p := &fakeProvider{}
	ops := New(p, nil, Options{})
	_, err := ops.Writing.Rewrite(context.Background(), "translate", "text", "")
	if !errors.Is(err, prompts.ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
	if len(p.calls) != 0 {
		t.Fatal("model must not be called for an invalid mode")
	}
}

func TestRewrite_ProviderError(t *testing.T) {
	p := &fakeProvider{err: errors.New("rate limited")}
	ops := New(p, nil, Options{})
	_, err := ops.Writing.Rewrite(context.Background(), "rewrite", "text", "")
	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OperationError, got %v", err)
	}
	if opErr.Operation != "rewrite" {
		t.Errorf("unexpected operation %q", opErr.Operation)
	}
}

func TestSuggestLinks_ToolLoop(t *testing.T) {
	s := &fakeSearcher{}
	p := &fakeCaller{
		responses: []*llm.FunctionCallResponse{
			{ToolCalls: []llm.ToolCall{{
				ID:       "call_1",
				Type:     "function",
				Function: llm.FunctionCall{Name: "get_possible_links", Arguments: `{"expressions":["grammar","style"]}`},
			}}},
			{Content: "I would link grammar to https://example.com/grammar and style to https://example.com/style."},
		},
		structured: `{"links":[
			{"url":"https://example.com/grammar","anchorText":"grammar","title":"GRAMMAR"},
			{"url":"https://example.com/style","anchorText":"style","title":"STYLE"},
			{"url":"https://example.com/x","anchorText":"not there","title":"X"}
		]}`,
	}
	ops := New(p, s, Options{})

	res, err := ops.Links.SuggestLinks(context.Background(), "AI can help with grammar and style.", "context")
	if err != nil {
		t.Fatalf("SuggestLinks failed: %v", err)
	}

	if len(res.Links) != 2 || res.Dropped != 1 {
		t.Fatalf("expected 2 kept and 1 dropped, got %+v", res)
	}
	if len(res.Expressions) != 2 || res.Expressions[0] != "grammar" {
		t.Errorf("unexpected expressions %v", res.Expressions)
	}
	if len(s.calls) != 2 {
		t.Errorf("expected 2 searches, got %d", len(s.calls))
	}

	if len(p.requests) != 2 {
		t.Fatalf("expected 2 model rounds, got %d", len(p.requests))
	}
	if len(p.requests[0].Tools) != 1 || p.requests[0].Tools[0].Function.Name != "get_possible_links" {
		t.Errorf("expected tool schema on first request")
	}
	second := p.requests[1].Messages
	last := second[len(second)-1]
	if last.Role != "tool" || last.ToolCallID != "call_1" || !strings.Contains(last.Content, "https://example.com/grammar") {
		t.Errorf("unexpected tool message %+v", last)
	}
	if !strings.Contains(p.structIn, "I would link") {
		t.Errorf("free-form answer not passed to structuring: %q", p.structIn)
	}
}

func TestSuggestLinks_ToolLoopRoundLimit(t *testing.T) {
	toolCall := &llm.FunctionCallResponse{ToolCalls: []llm.ToolCall{{
		ID:       "c",
		Function: llm.FunctionCall{Name: "get_possible_links", Arguments: `{"expressions":["grammar"]}`},
	}}}
	p := &fakeCaller{
		responses: []*llm.FunctionCallResponse{
			toolCall,
			toolCall,
			{Content: `{"links":[{"url":"https://example.com/grammar","anchorText":"grammar","title":"G"}]}`},
		},
	}
	ops := New(p, &fakeSearcher{}, Options{MaxToolRoundTrips: 2})

	res, err := ops.Links.SuggestLinks(context.Background(), "grammar", "")
	if err != nil {
		t.Fatalf("SuggestLinks failed: %v", err)
	}
	if len(p.requests) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(p.requests))
	}
	if len(p.requests[2].Tools) != 0 {
		t.Errorf("final round must not offer tools")
	}
	if len(res.Links) != 1 {
		t.Errorf("expected links parsed from the answer, got %+v", res.Links)
	}
	if p.structIn != "" {
		t.Errorf("structured output should be skipped when the answer is already JSON")
	}
}

func TestSuggestLinks_InSteps(t *testing.T) {
	s := &fakeSearcher{}
	p := &fakeProvider{answers: []string{
		"```json\n{\"expressions\": [\"grammar\", \"grammar\", \"spelling\", \"style\", \"tone\"]}\n```",
		`Here you go: {"links":[{"url":"https://example.com/grammar","anchorText":"grammar","title":"GRAMMAR"}]}`,
	}}
	ops := New(p, s, Options{MaxExpressions: 2})

	res, err := ops.Links.SuggestLinks(context.Background(), "help with grammar and style", "ctx")
	if err != nil {
		t.Fatalf("SuggestLinks failed: %v", err)
	}
	if want := []string{"grammar", "style"}; len(res.Expressions) != 2 || res.Expressions[0] != want[0] || res.Expressions[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, res.Expressions)
	}
	if len(s.calls) != 2 {
		t.Errorf("expected 2 searches, got %v", s.calls)
	}
	if len(res.Links) != 1 || res.Links[0].URL != "https://example.com/grammar" {
		t.Fatalf("unexpected links %+v", res.Links)
	}
	if !strings.Contains(p.calls[1].user, "https://other.com/style") {
		t.Errorf("candidates missing from choice prompt: %q", p.calls[1].user)
	}
}

func TestSuggestLinks_NoExpressions(t *testing.T) {
	s := &fakeSearcher{}
	p := &fakeProvider{answers: []string{`{"expressions": ["nowhere"]}`}}
	ops := New(p, s, Options{})

	res, err := ops.Links.SuggestLinks(context.Background(), "some text", "")
	if err != nil {
		t.Fatalf("SuggestLinks failed: %v", err)
	}
	if len(res.Links) != 0 || len(s.calls) != 0 {
		t.Fatalf("expected no search and no links, got %+v / %v", res, s.calls)
	}
}

func TestSuggestLinks_NotConfigured(t *testing.T) {
	ops := New(&fakeProvider{}, nil, Options{})
	if ops.Links.Available() {
		t.Fatal("expected links to be unavailable without a searcher")
	}
	if _, err := ops.Links.SuggestLinks(context.Background(), "text", ""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestNoProvider(t *testing.T) {
	ops := New(nil, &fakeSearcher{}, Options{})
	if ops.Writing.Available() || ops.Links.Available() {
		t.Fatal("expected model operations to be unavailable without a provider")
	}

	if _, err := ops.Writing.Rewrite(context.Background(), "rewrite", "some text", ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Rewrite: expected ErrNotConfigured, got %v", err)
	}
	if _, err := ops.Links.SuggestLinks(context.Background(), "some text", ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("SuggestLinks: expected ErrNotConfigured, got %v", err)
	}

	doc := document.FromText("the quick fox")
	res, err := ops.Editor.Expand(doc, selection.Selection{From: 6, To: 7})
	if err != nil || res.Text != "quick" {
		t.Errorf("Expand without provider: got %+v, %v", res, err)
	}
	if got := ops.Links.Merge("the quick fox", []links.Link{{URL: "u", AnchorText: "fox"}}); got != "the quick [fox](u)" {
		t.Errorf("Merge without provider: got %q", got)
	}
}

func TestApplyLinks(t *testing.T) {
	doc := document.FromText("See [docs](http://a) and the guide for more.")
	ops := New(nil, nil, Options{})

	sel := selection.Selection{From: 1, To: doc.Size() - 1}
	res, err := ops.Links.ApplyLinks(doc, sel, []links.Link{{URL: "http://x", AnchorText: "guide", Title: "Guide"}})
	if err != nil {
		t.Fatalf("ApplyLinks failed: %v", err)
	}

	want := "See docs and the [guide](http://x) for more."
	if res.Text != want || doc.TextContent() != want {
		t.Fatalf("expected %q, got %q / %q", want, res.Text, doc.TextContent())
	}
	if got := doc.TextBetween(res.Selection.From, res.Selection.To); got != want {
		t.Errorf("returned selection covers %q", got)
	}

	if _, err := ops.Links.ApplyLinks(doc, selection.Selection{From: 0, To: 999}, nil); err == nil {
		t.Fatal("expected error for out of range selection")
	}
}

func TestEditorExpand(t *testing.T) {
	doc := document.FromText("the quick brown fox")
	ops := New(nil, nil, Options{})

	res, err := ops.Editor.Expand(doc, selection.Selection{From: 6, To: 8})
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if res.Text != "quick" || res.Selection != (selection.Selection{From: 5, To: 10}) {
		t.Fatalf("unexpected result %+v", res)
	}

	if _, err := ops.Editor.Expand(doc, selection.Selection{From: 8, To: 6}); err == nil {
		t.Fatal("expected error for reversed selection")
	}
}

func TestEditorReplace(t *testing.T) {
	doc := document.FromText("the quick brown fox")
	ops := New(nil, nil, Options{})

	sel, err := ops.Editor.Replace(doc, selection.Selection{From: 5, To: 10}, "slow")
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if doc.TextContent() != "the slow brown fox" {
		t.Fatalf("unexpected content %q", doc.TextContent())
	}
	if doc.TextBetween(sel.From, sel.To) != "slow" {
		t.Errorf("unexpected selection %v", sel)
	}
}

func TestFilterLinks(t *testing.T) {
	in := []links.Link{
		{URL: "u", AnchorText: "a"},
		{URL: "u", AnchorText: "a", Title: "dup"},
		{URL: "", AnchorText: "a"},
		{URL: "u", AnchorText: ""},
		{URL: "v", AnchorText: "zzz"},
	}
	kept, dropped := filterLinks(in, "a b c")
	if len(kept) != 1 || dropped != 4 {
		t.Fatalf("expected 1 kept and 4 dropped, got %v / %d", kept, dropped)
	}
}

package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scribe/internal/document"
	"scribe/internal/links"
	"scribe/internal/operations"
	"scribe/internal/search"
	"scribe/internal/term"
)

type fakeProvider struct {
	answers []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) CompleteWithSystem(ctx context.Context, system, user, model string) (string, error) {
	answer := f.answers[0]
	f.answers = f.answers[1:]
	return answer, nil
}

type fakeSearcher struct{}

func (fakeSearcher) Search(ctx context.Context, expression string) ([]search.Result, error) {
	return []search.Result{{Title: "About " + expression, URL: "https://example.com/" + expression}}, nil
}

func newTestCLI(t *testing.T, answers ...string) (*CLI, *bytes.Buffer) {
	t.Helper()
	ops := operations.New(&fakeProvider{answers: answers}, fakeSearcher{}, operations.Options{})
	c := NewCLI(ops)
	var out bytes.Buffer
	c.out = term.NewOSCWriterTo(&out, io.Discard)

	path := filepath.Join(t.TempDir(), "doc.md")
	if err := os.WriteFile(path, []byte("# Notes\n\nAI can help with grammar and style.\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.Open(path); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return c, &out
}

func run(t *testing.T, c *CLI, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if err := c.processInput(context.Background(), line); err != nil {
			t.Fatalf("%s failed: %v", line, err)
		}
	}
}

func TestCLI_RewriteAndReplace(t *testing.T) {
	c, out := newTestCLI(t, "writing")
	run(t, c, "/find gram", "/shorter")

	if !strings.Contains(out.String(), "grammar") {
		t.Fatalf("expected expanded selection in output, got %q", out.String())
	}
	if c.pending == nil || c.pending.text != "writing" {
		t.Fatalf("expected pending suggestion, got %+v", c.pending)
	}

	run(t, c, "/replace")
	if got := c.doc.Blocks()[1].Text; got != "AI can help with writing and style." {
		t.Fatalf("unexpected text %q", got)
	}
	if c.doc.TextBetween(c.sel.From, c.sel.To) != "writing" {
		t.Errorf("selection should cover the replacement")
	}
	if !c.dirty {
		t.Error("expected document to be dirty")
	}
}

func TestCLI_Discard(t *testing.T) {
	c, _ := newTestCLI(t, "other")
	run(t, c, "/find style", "/rewrite", "/discard")
	if c.pending != nil {
		t.Fatal("expected pending suggestion to be dropped")
	}
	if err := c.processInput(context.Background(), "/replace"); err == nil {
		t.Fatal("expected replace without suggestion to fail")
	}
}

func TestCLI_LinksNoneFound(t *testing.T) {
	c, out := newTestCLI(t, `{"expressions":["grammar","style"]}`)
	c.pickLinks = func(l []links.Link) ([]int, error) {
		t.Fatal("picker must not open without suggestions")
		return nil, nil
	}

	// Neither expression occurs in the selection, so nothing is searched.
	run(t, c, "/find AI", "/links")
	if !strings.Contains(out.String(), "No links found") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestCLI_LinksCancelled(t *testing.T) {
	c, _ := newTestCLI(t,
		`{"expressions":["grammar","style"]}`,
		`{"links":[{"url":"https://example.com/grammar","anchorText":"grammar","title":"G"},{"url":"https://example.com/style","anchorText":"style","title":"S"}]}`,
	)
	var offered []links.Link
	c.pickLinks = func(l []links.Link) ([]int, error) {
		offered = l
		return nil, nil
	}

	run(t, c, "/find grammar and style", "/links")
	if len(offered) != 2 {
		t.Fatalf("expected 2 offered links, got %d", len(offered))
	}
	if got := c.doc.Blocks()[1].Text; got != "AI can help with grammar and style." {
		t.Fatalf("cancelled picker must leave text alone, got %q", got)
	}
	if c.dirty {
		t.Error("document should not be dirty")
	}
}

func TestCLI_LinksApplied(t *testing.T) {
	c, _ := newTestCLI(t,
		`{"expressions":["style"]}`,
		`{"links":[{"url":"https://example.com/style","anchorText":"style","title":"S"}]}`,
	)
	c.pickLinks = func(l []links.Link) ([]int, error) { return []int{0}, nil }

	run(t, c, "/find grammar and style", "/links")
	if got := c.doc.Blocks()[1].Text; got != "AI can help with grammar and [style](https://example.com/style)." {
		t.Fatalf("unexpected text %q", got)
	}
	if got := c.doc.TextBetween(c.sel.From, c.sel.To); got != "grammar and [style](https://example.com/style)" {
		t.Errorf("selection should cover the merged text, got %q", got)
	}
}

func TestCLI_SelectErrors(t *testing.T) {
	c, _ := newTestCLI(t)
	for _, line := range []string{"/select 3 3", "/select a 4", "/select 0 999", "/rewrite", "/find missing", "hello"} {
		if err := c.processInput(context.Background(), line); err == nil {
			t.Errorf("expected %q to fail", line)
		}
	}
}

func TestCLI_Save(t *testing.T) {
	c, _ := newTestCLI(t, "better")
	run(t, c, "/find style", "/rewrite", "/replace", "/save")

	content, err := os.ReadFile(c.path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "# Notes\n\nAI can help with grammar and better.\n" {
		t.Fatalf("unexpected file %q", content)
	}
	if c.dirty {
		t.Error("expected clean document after save")
	}
}

func TestCLI_Show(t *testing.T) {
	c, out := newTestCLI(t)
	run(t, c, "/find can", "/show", "/tools")
	if !strings.Contains(out.String(), "Notes") || !strings.Contains(out.String(), "Selection") {
		t.Fatalf("unexpected output %q", out.String())
	}
	if !strings.Contains(out.String(), "get_possible_links") {
		t.Errorf("expected tool help in output")
	}
}

func TestCLI_WithoutProvider(t *testing.T) {
	c := NewCLI(operations.New(nil, nil, operations.Options{}))
	var out bytes.Buffer
	c.out = term.NewOSCWriterTo(&out, io.Discard)
	if err := c.Open(filepath.Join(t.TempDir(), "new.md")); err != nil {
		t.Fatal(err)
	}
	c.doc = document.FromText("AI can help with grammar and style.")

	run(t, c, "/find gram")
	for _, line := range []string{"/rewrite", "/links"} {
		err := c.processInput(context.Background(), line)
		if err == nil || !strings.Contains(err.Error(), "not configured") {
			t.Errorf("%s: expected not configured error, got %v", line, err)
		}
	}
}

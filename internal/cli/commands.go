package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"scribe/internal/document"
	"scribe/internal/links"
	"scribe/internal/selection"
	"scribe/internal/term"
)

// openFile replaces the current document
func (c *CLI) openFile(path string) error {
	if c.dirty {
		fmt.Fprintln(c.out, FormatWarning("Unsaved changes discarded"))
	}
	if err := c.Open(path); err != nil {
		return err
	}
	fmt.Fprintln(c.out, FormatSuccess(fmt.Sprintf("Opened %s (%d blocks)", path, len(c.doc.Blocks()))))
	return nil
}

// showDocument prints each block with the position of its first character
func (c *CLI) showDocument() {
	fmt.Fprintln(c.out)
	for i, b := range c.doc.Blocks() {
		pos, _ := c.doc.TextStart(i)
		fmt.Fprintf(c.out, "%s %s\n", DimStyle.Render(fmt.Sprintf("%5d", pos)), renderBlock(b))
	}
	fmt.Fprintln(c.out)

	if c.sel != nil {
		fmt.Fprintf(c.out, "Selection %s: %s\n", c.sel, SelectionStyle.Render(c.doc.TextBetween(c.sel.From, c.sel.To)))
	}
	if c.pending != nil {
		fmt.Fprintf(c.out, "Pending %s suggestion for %s\n", c.pending.mode, c.pending.sel)
	}
}

func renderBlock(b document.Block) string {
	text := term.RenderLinks(b.Text, renderURL)
	switch b.Kind {
	case document.KindHeading:
		return HeadingStyle.Render(strings.Repeat("#", max(b.Level, 1))+" ") + HeadingStyle.Render(text)
	case document.KindListItem:
		return "- " + text
	case document.KindCode:
		return CodeStyle.Render(b.Text)
	default:
		return text
	}
}

// selectRange selects a range, widened to whole words. Empty ranges are ignored
// the way a click without a drag is.
func (c *CLI) selectRange(fromArg, toArg string) error {
	from, err := strconv.Atoi(fromArg)
	if err != nil {
		return fmt.Errorf("invalid position %q", fromArg)
	}
	to, err := strconv.Atoi(toArg)
	if err != nil {
		return fmt.Errorf("invalid position %q", toArg)
	}
	if from == to {
		return fmt.Errorf("selection is empty")
	}
	return c.setSelection(selection.Selection{From: from, To: to})
}

// find selects the first occurrence of text
func (c *CLI) find(text string) error {
	from, to, ok := c.doc.Find(text)
	if !ok {
		return fmt.Errorf("%q not found", text)
	}
	return c.setSelection(selection.Selection{From: from, To: to})
}

func (c *CLI) setSelection(sel selection.Selection) error {
	result, err := c.ops.Editor.Expand(c.doc, sel)
	if err != nil {
		return err
	}

	c.sel = &result.Selection
	c.pending = nil
	fmt.Fprintf(c.out, "Selected %s: %s\n", result.Selection, SelectionStyle.Render(result.Text))
	return nil
}

// selectedText returns the current selection and its text
func (c *CLI) selectedText() (selection.Selection, string, error) {
	if c.sel == nil || c.sel.Empty() {
		return selection.Selection{}, "", fmt.Errorf("nothing selected (use /select or /find)")
	}
	return *c.sel, c.doc.TextBetween(c.sel.From, c.sel.To), nil
}

// rewrite asks the model for a replacement of the selection
func (c *CLI) rewrite(ctx context.Context, mode string) error {
	sel, text, err := c.selectedText()
	if err != nil {
		return err
	}

	c.out.StartProcessing(mode)
	result, err := c.ops.Writing.Rewrite(ctx, mode, text, c.doc.TextContent())
	c.out.EndProcessing()
	if err != nil {
		return err
	}

	c.pending = &pendingEdit{mode: mode, sel: sel, text: result.Text}
	fmt.Fprintln(c.out, SuggestionStyle.Render(result.Text))
	fmt.Fprintln(c.out, DimStyle.Render(fmt.Sprintf("%d/%d characters • /replace or /discard", len([]rune(result.Text)), result.Limit)))
	return nil
}

// replace applies the pending suggestion
func (c *CLI) replace() error {
	if c.pending == nil {
		return fmt.Errorf("no suggestion to replace")
	}

	sel, err := c.ops.Editor.Replace(c.doc, c.pending.sel, c.pending.text)
	if err != nil {
		return err
	}

	c.sel = &sel
	c.pending = nil
	c.dirty = true
	fmt.Fprintln(c.out, FormatSuccess("Replaced selection"))
	return nil
}

// discard drops the pending suggestion
func (c *CLI) discard() error {
	if c.pending == nil {
		return fmt.Errorf("no suggestion to discard")
	}
	c.pending = nil
	fmt.Fprintln(c.out, FormatInfo("Suggestion discarded"))
	return nil
}

// suggestLinks finds links for the selection and merges the ones the user picks.
// The picked set becomes the selection's complete set of links.
func (c *CLI) suggestLinks(ctx context.Context) error {
	sel, text, err := c.selectedText()
	if err != nil {
		return err
	}
	if !c.ops.Writing.Available() {
		return fmt.Errorf("AI provider not configured (set an API key)")
	}
	if !c.ops.Links.Available() {
		return fmt.Errorf("link search not configured (set JINA_API_KEY)")
	}

	c.out.StartProcessing("links")
	result, err := c.ops.Links.SuggestLinks(ctx, text, c.doc.TextContent())
	c.out.EndProcessing()
	if err != nil {
		return err
	}
	if len(result.Links) == 0 {
		fmt.Fprintln(c.out, FormatInfo("No links found"))
		return nil
	}

	c.out.EnterInteractive("links")
	indices, err := c.pickLinks(result.Links)
	c.out.ExitInteractive()
	if err != nil {
		return err
	}
	if len(indices) == 0 {
		fmt.Fprintln(c.out, FormatInfo("No links applied"))
		return nil
	}

	chosen := make([]links.Link, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(result.Links) {
			chosen = append(chosen, result.Links[i])
		}
	}

	applied, err := c.ops.Links.ApplyLinks(c.doc, sel, chosen)
	if err != nil {
		return err
	}

	c.sel = &applied.Selection
	c.pending = nil
	c.dirty = true
	fmt.Fprintln(c.out, FormatSuccess(fmt.Sprintf("Applied %d links", len(chosen))))
	fmt.Fprintln(c.out, term.RenderLinks(applied.Text, renderURL))
	return nil
}

// showTools prints the tools the model may call
func (c *CLI) showTools() error {
	registry := c.ops.Links.Tools()
	if registry == nil {
		return fmt.Errorf("link search not configured (set JINA_API_KEY)")
	}
	for _, tool := range registry.List() {
		help, err := registry.GetToolHelp(tool.Name())
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, help)
	}
	return nil
}

// save writes the document to path, or to the file it was opened from
func (c *CLI) save(path string) error {
	if path == "" {
		path = c.path
	}
	if path == "" {
		return fmt.Errorf("usage: /save <file.md>")
	}

	if err := c.doc.SaveFile(path); err != nil {
		return err
	}
	c.path = path
	c.dirty = false
	fmt.Fprintln(c.out, FormatSuccess("Saved "+path))
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"scribe/internal/document"
	"scribe/internal/links"
	"scribe/internal/operations"
	"scribe/internal/selection"
	"scribe/internal/term"
)

// pendingEdit is a model suggestion waiting to be replaced or discarded
type pendingEdit struct {
	mode string
	sel  selection.Selection
	text string
}

// CLI is an interactive editor over a single markdown document
type CLI struct {
	ops      *operations.Operations
	doc      *document.Doc
	path     string
	sel      *selection.Selection
	pending  *pendingEdit
	dirty    bool
	out      *term.OSCWriter
	readline *readline.Instance

	// pickLinks lets the user choose among suggested links
	pickLinks func([]links.Link) ([]int, error)
}

// NewCLI creates a new CLI instance with an empty document
func NewCLI(ops *operations.Operations) *CLI {
	return &CLI{
		ops:       ops,
		doc:       document.New(nil),
		out:       term.NewOSCWriter(os.Stdout),
		pickLinks: InteractiveLinkSelect,
	}
}

// Open loads a markdown file. A missing file starts an empty document saved to that path.
func (c *CLI) Open(path string) error {
	doc, err := document.LoadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		doc = document.New(nil)
	}

	c.doc = doc
	c.path = path
	c.sel = nil
	c.pending = nil
	c.dirty = false
	return nil
}

// Run starts the interactive CLI session
func (c *CLI) Run(ctx context.Context) error {
	config := &readline.Config{
		Prompt:            "> ",
		HistoryFile:       filepath.Join(os.TempDir(), ".scribe_history"),
		AutoComplete:      c.buildAutoCompleter(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	}

	rl, err := readline.NewEx(config)
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	c.readline = rl
	defer rl.Close()

	fmt.Fprintln(c.out, HeaderStyle.Render("scribe - AI writing assistant"))
	fmt.Fprintln(c.out, "Type /help for commands.")
	if c.path != "" {
		fmt.Fprintln(c.out, DimStyle.Render("Editing "+c.path))
	}
	fmt.Fprintln(c.out)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if line == "/exit" || line == "/quit" || line == "/q" {
			if c.dirty {
				fmt.Fprintln(c.out, FormatWarning("Unsaved changes discarded"))
			}
			fmt.Fprintln(c.out, "Goodbye!")
			return nil
		}

		if err := c.processInput(ctx, line); err != nil {
			fmt.Fprintln(c.out, FormatError(err.Error()))
		}
	}

	return nil
}

// buildAutoCompleter creates the autocompletion configuration
func (c *CLI) buildAutoCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("/help"),
		readline.PcItem("/open"),
		readline.PcItem("/show"),
		readline.PcItem("/select"),
		readline.PcItem("/find"),
		readline.PcItem("/rewrite"),
		readline.PcItem("/shorter"),
		readline.PcItem("/longer"),
		readline.PcItem("/replace"),
		readline.PcItem("/discard"),
		readline.PcItem("/links"),
		readline.PcItem("/tools"),
		readline.PcItem("/save"),
		readline.PcItem("/clear"),
		readline.PcItem("/quit"),
	)
}

// processInput handles user input
func (c *CLI) processInput(ctx context.Context, input string) error {
	if !strings.HasPrefix(input, "/") {
		return fmt.Errorf("commands start with / (type /help for commands)")
	}
	return c.processCommand(ctx, input)
}

// processCommand handles slash commands
func (c *CLI) processCommand(ctx context.Context, input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?":
		c.showHelp()
	case "/open":
		if len(args) < 1 {
			return fmt.Errorf("usage: /open <file.md>")
		}
		return c.openFile(strings.Join(args, " "))
	case "/show":
		c.showDocument()
	case "/select":
		if len(args) != 2 {
			return fmt.Errorf("usage: /select <from> <to>")
		}
		return c.selectRange(args[0], args[1])
	case "/find":
		if len(args) < 1 {
			return fmt.Errorf("usage: /find <text>")
		}
		return c.find(strings.Join(args, " "))
	case "/rewrite", "/shorter", "/longer":
		return c.rewrite(ctx, strings.TrimPrefix(command, "/"))
	case "/replace":
		return c.replace()
	case "/discard":
		return c.discard()
	case "/links":
		return c.suggestLinks(ctx)
	case "/tools":
		return c.showTools()
	case "/save":
		return c.save(strings.Join(args, " "))
	case "/clear":
		term.ClearScreen(c.out)
	default:
		return fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}

	return nil
}

// showHelp displays available commands
func (c *CLI) showHelp() {
	fmt.Fprintln(c.out, "\nAvailable Commands:")
	fmt.Fprintln(c.out, "  /open <file.md>        - Open a markdown document")
	fmt.Fprintln(c.out, "  /show                  - Show the document with block positions")
	fmt.Fprintln(c.out, "  /select <from> <to>    - Select a range (expanded to whole words)")
	fmt.Fprintln(c.out, "  /find <text>           - Select the first occurrence of text")
	fmt.Fprintln(c.out, "  /rewrite               - Suggest a rewrite of the selection")
	fmt.Fprintln(c.out, "  /shorter               - Suggest a shorter version")
	fmt.Fprintln(c.out, "  /longer                - Suggest a longer version")
	fmt.Fprintln(c.out, "  /replace               - Replace the selection with the suggestion")
	fmt.Fprintln(c.out, "  /discard               - Discard the suggestion")
	fmt.Fprintln(c.out, "  /links                 - Suggest links for the selection and pick which to apply")
	fmt.Fprintln(c.out, "  /tools                 - Describe the tools offered to the model")
	fmt.Fprintln(c.out, "  /save [file.md]        - Save the document")
	fmt.Fprintln(c.out, "  /clear                 - Clear screen")
	fmt.Fprintln(c.out, "  /quit, /q              - Exit the program")
	fmt.Fprintln(c.out)
}

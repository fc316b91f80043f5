package document

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// FromMarkdown parses markdown source into blocks. Headings, paragraphs, list items and
// code blocks become textblocks; inline markup is kept verbatim.
func FromMarkdown(source string) *Doc {
	src := []byte(source)
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	var blocks []Block
	walkMarkdown(root, src, &blocks)
	return New(blocks)
}

// LoadFile reads a markdown file into a document.
func LoadFile(path string) (*Doc, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return FromMarkdown(string(content)), nil
}

// SaveFile writes the document as markdown.
func (d *Doc) SaveFile(path string) error {
	if err := os.WriteFile(path, []byte(d.Markdown()), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func walkMarkdown(node ast.Node, source []byte, blocks *[]Block) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Heading:
			*blocks = append(*blocks, Block{Kind: KindHeading, Level: n.Level, Text: rawLines(n, source)})
		case *ast.Paragraph:
			*blocks = append(*blocks, Block{Kind: KindParagraph, Text: rawLines(n, source)})
		case *ast.TextBlock:
			// Tight list items hold a TextBlock instead of a Paragraph.
			*blocks = append(*blocks, Block{Kind: KindParagraph, Text: rawLines(n, source)})
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			*blocks = append(*blocks, Block{Kind: KindCode, Text: strings.TrimSuffix(rawLines(n, source), "\n")})
		case *ast.ListItem:
			before := len(*blocks)
			walkMarkdown(n, source, blocks)
			if len(*blocks) > before {
				(*blocks)[before].Kind = KindListItem
			}
		default:
			walkMarkdown(child, source, blocks)
		}
	}
}

// rawLines returns the source of a block node with line breaks folded for inline blocks.
func rawLines(n ast.Node, source []byte) string {
	lines := n.Lines()
	var buf bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	if n.Kind() == ast.KindFencedCodeBlock || n.Kind() == ast.KindCodeBlock {
		return buf.String()
	}
	return strings.Join(strings.Fields(strings.ReplaceAll(buf.String(), "\n", " ")), " ")
}

// Markdown serializes the document back to markdown.
func (d *Doc) Markdown() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var sb strings.Builder
	for i, b := range d.blocks {
		if i > 0 {
			// Consecutive list items stay in one list.
			if b.Kind == KindListItem && d.blocks[i-1].Kind == KindListItem {
				sb.WriteString("\n")
			} else {
				sb.WriteString("\n\n")
			}
		}
		switch b.Kind {
		case KindHeading:
			level := b.Level
			if level < 1 {
				level = 1
			}
			sb.WriteString(strings.Repeat("#", level) + " " + b.Text)
		case KindListItem:
			sb.WriteString("- " + b.Text)
		case KindCode:
			sb.WriteString("```\n" + b.Text + "\n```")
		default:
			sb.WriteString(b.Text)
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

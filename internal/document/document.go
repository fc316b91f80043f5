// Package document holds the rich-text model the editor works on: an ordered list of
// text blocks addressed by flattened positions.
//
// Every block occupies len(text)+2 positions: an opening token, one position per rune
// of text and a closing token. The first text position of the document is therefore 1.
// Block text keeps its inline markdown, so links stay as [text](url).
package document

import (
	"fmt"
	"strings"
	"sync"
)

// Kind identifies the structural type of a block.
type Kind string

const (
	KindParagraph Kind = "paragraph"
	KindHeading   Kind = "heading"
	KindListItem  Kind = "list_item"
	KindCode      Kind = "code"
)

// BlockSeparator is inserted between the text of adjacent blocks when reading across them.
const BlockSeparator = " "

// Block is a single textblock.
type Block struct {
	Kind  Kind   `json:"kind"`
	Level int    `json:"level,omitempty"` // heading level
	Text  string `json:"text"`
}

// Doc is a mutable document. It is safe for concurrent use.
type Doc struct {
	mu     sync.RWMutex
	blocks []block
}

type block struct {
	Block
	runes []rune
}

// New creates a document from blocks. An empty block list yields a single empty paragraph.
func New(blocks []Block) *Doc {
	d := &Doc{}
	for _, b := range blocks {
		d.blocks = append(d.blocks, newBlock(b))
	}
	if len(d.blocks) == 0 {
		d.blocks = []block{newBlock(Block{Kind: KindParagraph})}
	}
	return d
}

// FromText creates a document with one paragraph per blank-line separated chunk of text.
func FromText(text string) *Doc {
	var blocks []Block
	for _, chunk := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		blocks = append(blocks, Block{Kind: KindParagraph, Text: chunk})
	}
	return New(blocks)
}

func newBlock(b Block) block {
	if b.Kind == "" {
		b.Kind = KindParagraph
	}
	return block{Block: b, runes: []rune(b.Text)}
}

// Blocks returns a copy of the document's blocks.
func (d *Doc) Blocks() []Block {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Block, len(d.blocks))
	for i, b := range d.blocks {
		out[i] = b.Block
	}
	return out
}

// Size returns the number of addressable positions.
func (d *Doc) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.size()
}

func (d *Doc) size() int {
	n := 0
	for _, b := range d.blocks {
		n += len(b.runes) + 2
	}
	return n
}

// TextBetween returns the text between two positions. Structural tokens contribute
// nothing except a BlockSeparator between the text of consecutive blocks. Every block
// the range touches takes part, even one touched only at a token, matching
// ProseMirror's textBetween. Out of range positions are clamped.
func (d *Doc) TextBetween(from, to int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.textBetween(from, to)
}

func (d *Doc) textBetween(from, to int) string {
	if from < 0 {
		from = 0
	}
	if size := d.size(); to > size {
		to = size
	}
	if from >= to {
		return ""
	}

	var sb strings.Builder
	first := true
	start := 0
	for _, b := range d.blocks {
		textStart := start + 1
		textEnd := textStart + len(b.runes)
		start = textEnd + 1

		if to <= textStart-1 {
			break
		}
		if from >= textEnd+1 {
			continue
		}

		lo := max(from, textStart)
		hi := min(to, textEnd)
		// A block touched only at its tokens still separates its neighbours.
		if lo > hi {
			lo = hi
		}
		if !first {
			sb.WriteString(BlockSeparator)
		}
		sb.WriteString(string(b.runes[lo-textStart : hi-textStart]))
		first = false
	}
	return sb.String()
}

// TextContent returns the text of the whole document.
func (d *Doc) TextContent() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.textBetween(0, d.size())
}

// resolve maps a position to a block index and rune offset within that block's text.
// Positions on structural tokens snap to the nearest text position of their block.
func (d *Doc) resolve(pos int) (int, int) {
	start := 0
	for i, b := range d.blocks {
		textStart := start + 1
		textEnd := textStart + len(b.runes)
		if pos < textStart {
			return i, 0
		}
		if pos <= textEnd {
			return i, pos - textStart
		}
		start = textEnd + 1
	}
	last := len(d.blocks) - 1
	return last, len(d.blocks[last].runes)
}

// ReplaceRange replaces the content between from and to with text. A range spanning
// several blocks joins the head of the first block with the tail of the last.
func (d *Doc) ReplaceRange(from, to int, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if size := d.size(); from < 0 || from > to || to > size {
		return fmt.Errorf("invalid range %d-%d for document of size %d", from, to, size)
	}

	fi, fo := d.resolve(from)
	ti, to2 := d.resolve(to)

	head := d.blocks[fi]
	tail := d.blocks[ti]

	joined := string(head.runes[:fo]) + text + string(tail.runes[to2:])
	merged := newBlock(Block{Kind: head.Kind, Level: head.Level, Text: joined})

	blocks := make([]block, 0, len(d.blocks)-(ti-fi))
	blocks = append(blocks, d.blocks[:fi]...)
	blocks = append(blocks, merged)
	blocks = append(blocks, d.blocks[ti+1:]...)
	d.blocks = blocks
	return nil
}

// TextStart returns the position of the first text character of block i.
func (d *Doc) TextStart(i int) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if i < 0 || i >= len(d.blocks) {
		return 0, fmt.Errorf("block %d out of range", i)
	}
	pos := 0
	for _, b := range d.blocks[:i] {
		pos += len(b.runes) + 2
	}
	return pos + 1, nil
}

// Find returns the position range of the first occurrence of needle inside a single block.
func (d *Doc) Find(needle string) (int, int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if needle == "" {
		return 0, 0, false
	}
	n := []rune(needle)
	start := 0
	for _, b := range d.blocks {
		textStart := start + 1
		if idx := strings.Index(b.Text, needle); idx >= 0 {
			from := textStart + len([]rune(b.Text[:idx]))
			return from, from + len(n), true
		}
		start = textStart + len(b.runes) + 1
	}
	return 0, 0, false
}

// Package term provides terminal utilities including OSC (Operating System Command) sequences
package term

import (
	"fmt"
	"io"
	"os"
	"strings"

	"scribe/internal/links"
)

// ModeType represents the terminal UI mode
type ModeType string

const (
	ModeAppend      ModeType = "append"      // Normal line-by-line output
	ModeInteractive ModeType = "interactive" // TUI with cursor movement
	ModeProcessing  ModeType = "processing"  // Waiting on a model or search
)

// OSCWriter wraps an io.Writer and signals mode changes out of band
type OSCWriter struct {
	writer      io.Writer
	currentMode ModeType
	modeOutput  io.Writer // Where to send mode sequences (usually stderr)
}

// NewOSCWriter creates a writer that sends mode sequences to stderr
func NewOSCWriter(w io.Writer) *OSCWriter {
	return NewOSCWriterTo(w, os.Stderr)
}

// NewOSCWriterTo creates a writer that sends mode sequences to modeOutput
func NewOSCWriterTo(w, modeOutput io.Writer) *OSCWriter {
	return &OSCWriter{
		writer:      w,
		currentMode: ModeAppend,
		modeOutput:  modeOutput,
	}
}

// Mode returns the current mode
func (o *OSCWriter) Mode() ModeType {
	return o.currentMode
}

// SetMode changes the current mode and emits an OSC sequence
func (o *OSCWriter) SetMode(mode ModeType) {
	if o.currentMode != mode {
		o.currentMode = mode
		// OSC 51 is private use. Format: ESC ] 51 ; key=value BEL
		fmt.Fprintf(o.modeOutput, "\033]51;mode=%s\007", mode)
	}
}

// Write implements io.Writer
func (o *OSCWriter) Write(p []byte) (n int, err error) {
	return o.writer.Write(p)
}

// EnterInteractive signals entering an interactive UI
func (o *OSCWriter) EnterInteractive(context string) {
	o.SetMode(ModeInteractive)
	if context != "" {
		fmt.Fprintf(o.modeOutput, "\033]51;context=%s\007", context)
	}
}

// ExitInteractive signals returning to normal mode
func (o *OSCWriter) ExitInteractive() {
	o.SetMode(ModeAppend)
}

// StartProcessing signals a long-running operation
func (o *OSCWriter) StartProcessing(operation string) {
	o.SetMode(ModeProcessing)
	if operation != "" {
		fmt.Fprintf(o.modeOutput, "\033]51;operation=%s\007", operation)
	}
}

// EndProcessing signals operation complete
func (o *OSCWriter) EndProcessing() {
	o.SetMode(ModeAppend)
}

// Hyperlink wraps text in an OSC 8 hyperlink to url.
// Terminals without OSC 8 support show text unchanged.
func Hyperlink(url, text string) string {
	return "\033]8;;" + url + "\033\\" + text + "\033]8;;\033\\"
}

// RenderLinks replaces each markdown [text](url) span with a styled OSC 8 hyperlink.
// style is applied to the visible text; nil leaves it plain.
func RenderLinks(s string, style func(string) string) string {
	spans := links.Spans(s)
	if len(spans) == 0 {
		return s
	}

	var b strings.Builder
	last := 0
	for _, span := range spans {
		b.WriteString(s[last:span.Start])
		text := span.Anchor
		if style != nil {
			text = style(text)
		}
		b.WriteString(Hyperlink(span.URL, text))
		last = span.End
	}
	b.WriteString(s[last:])
	return b.String()
}

// ClearScreen clears the terminal screen
func ClearScreen(w io.Writer) {
	fmt.Fprint(w, "\033[2J\033[H")
}

package term

import (
	"bytes"
	"strings"
	"testing"
)

func TestHyperlink(t *testing.T) {
	got := Hyperlink("http://x", "docs")
	want := "\033]8;;http://x\033\\docs\033]8;;\033\\"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRenderLinks(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		style func(string) string
		want  string
	}{
		{"no links", "plain text", nil, "plain text"},
		{"one link", "See [docs](http://a).", nil, "See " + Hyperlink("http://a", "docs") + "."},
		{"styled", "[a](u) and [b](v)", strings.ToUpper, Hyperlink("u", "A") + " and " + Hyperlink("v", "B")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderLinks(tt.in, tt.style); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestOSCWriter_Modes(t *testing.T) {
	var out, modes bytes.Buffer
	w := NewOSCWriterTo(&out, &modes)

	w.StartProcessing("rewrite")
	w.StartProcessing("rewrite")
	if w.Mode() != ModeProcessing {
		t.Fatalf("expected processing mode, got %s", w.Mode())
	}
	w.EndProcessing()

	want := "\033]51;mode=processing\007\033]51;operation=rewrite\007" +
		"\033]51;operation=rewrite\007" +
		"\033]51;mode=append\007"
	if modes.String() != want {
		t.Fatalf("unexpected mode output %q", modes.String())
	}

	w.Write([]byte("hello"))
	if out.String() != "hello" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

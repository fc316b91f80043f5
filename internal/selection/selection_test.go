package selection

import "testing"

// flatDoc addresses a plain string one byte per position.
type flatDoc string

func (d flatDoc) Size() int { return len(d) }

func (d flatDoc) TextBetween(from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(d) {
		to = len(d)
	}
	if from >= to {
		return ""
	}
	return string(d[from:to])
}

func TestExpand_MiddleOfWord(t *testing.T) {
	doc := flatDoc("the quick brown fox")
	got := Expand(doc, Selection{From: 5, To: 7}) // "ui"
	want := Selection{From: 4, To: 9}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if text := doc.TextBetween(got.From, got.To); text != "quick" {
		t.Fatalf("expected %q, got %q", "quick", text)
	}
}

func TestExpand_Cases(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		sel  Selection
		want Selection
	}{
		{"already on boundaries", "the quick brown fox", Selection{4, 9}, Selection{4, 9}},
		{"spans two partial words", "the quick brown fox", Selection{6, 12}, Selection{4, 15}},
		{"zero width inside word", "the quick brown fox", Selection{6, 6}, Selection{4, 9}},
		{"zero width between spaces", "a  b", Selection{2, 2}, Selection{2, 2}},
		{"at document start", "hello world", Selection{0, 2}, Selection{0, 5}},
		{"at document end", "hello world", Selection{8, 11}, Selection{6, 11}},
		{"whole document", "hello", Selection{0, 5}, Selection{0, 5}},
		{"punctuation not absorbed", "(hello), world", Selection{2, 3}, Selection{1, 6}},
		{"underscore and digits are word chars", "x foo_bar42 y", Selection{5, 6}, Selection{2, 11}},
		{"selection of punctuation only", "a, b", Selection{1, 2}, Selection{0, 2}},
		{"empty document", "", Selection{0, 0}, Selection{0, 0}},
		{"non ascii is not a word char", "caf\xc3\xa9 bar", Selection{1, 2}, Selection{0, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Expand(flatDoc(tt.doc), tt.sel)
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestExpand_Properties(t *testing.T) {
	docs := []string{
		"the quick brown fox",
		"  leading and trailing  ",
		"a-b_c.d e,f;g",
		"x",
		"one\ttwo\nthree",
	}

	for _, text := range docs {
		doc := flatDoc(text)
		for from := 0; from <= len(text); from++ {
			for to := from; to <= len(text); to++ {
				sel := Selection{From: from, To: to}
				got := Expand(doc, sel)

				if got.From > sel.From || got.To < sel.To {
					t.Fatalf("%q %v: result %v does not contain input", text, sel, got)
				}
				if !got.Within(doc.Size()) {
					t.Fatalf("%q %v: result %v out of bounds", text, sel, got)
				}
				if again := Expand(doc, got); again != got {
					t.Fatalf("%q %v: not idempotent, %v then %v", text, sel, got, again)
				}
				if got.From > 0 && IsWordChar(text[got.From-1]) {
					t.Fatalf("%q %v: word char left of %v", text, sel, got)
				}
				if got.To < len(text) && IsWordChar(text[got.To]) {
					t.Fatalf("%q %v: word char right of %v", text, sel, got)
				}
			}
		}
	}
}

func TestSelection_Within(t *testing.T) {
	tests := []struct {
		sel  Selection
		size int
		want bool
	}{
		{Selection{0, 0}, 0, true},
		{Selection{0, 5}, 5, true},
		{Selection{2, 1}, 5, false},
		{Selection{-1, 2}, 5, false},
		{Selection{0, 6}, 5, false},
	}

	for _, tt := range tests {
		if got := tt.sel.Within(tt.size); got != tt.want {
			t.Errorf("%v.Within(%d): expected %v, got %v", tt.sel, tt.size, tt.want, got)
		}
	}
}

func TestIsWordChar(t *testing.T) {
	for _, c := range []byte("azAZ09_") {
		if !IsWordChar(c) {
			t.Errorf("expected %q to be a word char", c)
		}
	}
	for _, c := range []byte(" .,-+()[]\t\n'\"\xc3") {
		if IsWordChar(c) {
			t.Errorf("expected %q not to be a word char", c)
		}
	}
}

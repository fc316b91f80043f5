package prompts

import (
	"errors"
	"strings"
	"testing"
)

func TestParseMode(t *testing.T) {
	for _, s := range []string{"rewrite", "shorter", "longer"} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("expected %q to be valid: %v", s, err)
		}
	}
	if _, err := ParseMode("summarize"); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
}

func TestCharacterLimit(t *testing.T) {
	sel := strings.Repeat("a", 40)
	tests := []struct {
		mode Mode
		want int
	}{
		{ModeRewrite, 200},
		{ModeShorter, 20},
		{ModeLonger, 80},
	}
	for _, tt := range tests {
		if got := CharacterLimit(tt.mode, sel); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.mode, tt.want, got)
		}
	}
	if got := CharacterLimit(ModeShorter, "a"); got != 1 {
		t.Errorf("expected shorter limit floor of 1, got %d", got)
	}
}

func TestRewriteSystem_OnePromptPerMode(t *testing.T) {
	for _, mode := range []Mode{ModeRewrite, ModeShorter, ModeLonger} {
		prompt, err := RewriteSystem(mode, "some selected text")
		if err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		if n := strings.Count(prompt, "You are an AI writing assistant"); n != 1 {
			t.Errorf("%s: expected exactly one instruction, got %d", mode, n)
		}
	}
	if _, err := RewriteSystem("bogus", "x"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestRewriteUser(t *testing.T) {
	got := RewriteUser("sel", "ctx")
	if !strings.Contains(got, "TEXT TO MODIFY:\nsel") || !strings.Contains(got, "FULL TEXT FOR CONTEXT:\nctx") {
		t.Fatalf("unexpected prompt %q", got)
	}
}

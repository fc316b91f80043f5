package prompts

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidOption is returned for an unknown transformation mode.
var ErrInvalidOption = errors.New("invalid option")

// Mode selects how a piece of text is transformed.
type Mode string

const (
	ModeRewrite Mode = "rewrite"
	ModeShorter Mode = "shorter"
	ModeLonger  Mode = "longer"
)

// RewriteLimit caps rewritten text, in characters.
const RewriteLimit = 200

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeRewrite, ModeShorter, ModeLonger:
		return m, nil
	default:
		return "", fmt.Errorf("%w %q", ErrInvalidOption, s)
	}
}

// CharacterLimit returns the maximum response length for a mode given the selection.
func CharacterLimit(mode Mode, selection string) int {
	n := utf8.RuneCountInString(selection)
	switch mode {
	case ModeShorter:
		return max(n/2, 1)
	case ModeLonger:
		return n * 2
	default:
		return RewriteLimit
	}
}

// RewriteSystem returns the system prompt for a transformation mode.
func RewriteSystem(mode Mode, selection string) (string, error) {
	limit := CharacterLimit(mode, selection)
	switch mode {
	case ModeRewrite:
		return fmt.Sprintf(`You are an AI writing assistant that improves existing text. Limit your response to no more than %d characters, but make sure to construct complete sentences.`, limit), nil
	case ModeShorter:
		return fmt.Sprintf(`You are an AI writing assistant that shortens existing text while trying to keep the original meaning. Limit your response to no more than %d characters.`, limit), nil
	case ModeLonger:
		return fmt.Sprintf(`You are an AI writing assistant that lengthens existing text while trying to keep the original meaning. Limit your response to no more than %d characters.`, limit), nil
	default:
		return "", fmt.Errorf("%w %q", ErrInvalidOption, mode)
	}
}

// RewriteUser returns the user prompt carrying the selection and its context.
func RewriteUser(selection, context string) string {
	return fmt.Sprintf(`TEXT TO MODIFY:
%s

FULL TEXT FOR CONTEXT:
%s

CONSIDERATIONS:
- Maintain the original meaning
- Keep the tone and style consistent
- Keep in mind that ONLY the EXACT selected text will be replaced, no more, no less. So the response should make sense in the context of the surrounding text
- Try to keep the same ending punctuation when it makes sense
`, selection, context)
}

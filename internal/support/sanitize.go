package support

import (
	"strings"
	"unicode/utf8"
)

// ValidateInput checks that a string is safe to splice into a prompt
// template: bounded length, valid UTF-8, and free of control characters
// other than tab/newline/carriage-return. Used on the question and on
// rewritten queries before they reach a generation template, adapted
// from the teacher's utils.ValidateInput (there also guarding an HTML
// render path this repository does not have).
func ValidateInput(input string) (string, bool) {
	if input == "" {
		return "", true
	}

	if len(input) > 10000 {
		return "", false
	}

	for _, r := range input {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return "", false
		}
	}

	if !utf8.ValidString(input) {
		return "", false
	}

	return strings.TrimSpace(input), true
}

package llm

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinResponseRunes is the length a trimmed answer must exceed to be accepted.
const MinResponseRunes = 10

// ErrRejected is returned by Validate for unusable answers.
var ErrRejected = errors.New("response rejected")

// Validate accepts a provider answer only if, after trimming, it is
// non-empty and longer than MinResponseRunes characters.
func Validate(text string) error {
	t := strings.TrimSpace(text)
	if t == "" {
		return fmt.Errorf("%w: empty", ErrRejected)
	}
	if n := utf8.RuneCountInString(t); n <= MinResponseRunes {
		return fmt.Errorf("%w: %d characters", ErrRejected, n)
	}
	return nil
}

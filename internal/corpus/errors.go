package corpus

import "fmt"

// IOError is returned when the word list cannot be read.
type IOError struct {
	Path string // Empty when reading from an io.Reader
	Err  error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("read corpus %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("read corpus: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *IOError) Unwrap() error {
	return e.Err
}

// EncodingError is returned when a token contains a character outside the
// vocabulary.
type EncodingError struct {
	Token string
	Line  int // 1-based position of the token in the word list
	Rune  rune
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: token %q: character %q is not in a-z", e.Line, e.Token, e.Rune)
	}
	return fmt.Sprintf("token %q: character %q is not in a-z", e.Token, e.Rune)
}

// Package vocab defines the 27-symbol character vocabulary.
//
// Code 0 is the boundary symbol '.', which marks both the start and the end
// of a word. Codes 1..26 are the letters 'a'..'z'.
package vocab

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Boundary is the code of the word boundary symbol.
	Boundary int32 = 0

	// BoundaryRune is how the boundary symbol is printed.
	BoundaryRune = '.'

	// Size is the number of symbols.
	Size = 27
)

var (
	// ErrUnknownSymbol is returned for runes outside 'a'..'z' and '.'.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrInvalidCode is returned for codes outside [0, Size).
	ErrInvalidCode = errors.New("invalid code")
)

// SymbolError reports a rune that cannot appear in a word. It matches
// ErrUnknownSymbol with errors.Is.
type SymbolError struct {
	Rune rune
	Pos  int // byte offset in the word, -1 for a single rune
}

// Error implements the error interface.
func (e *SymbolError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%v %q at offset %d", ErrUnknownSymbol, e.Rune, e.Pos)
	}
	return fmt.Sprintf("%v %q", ErrUnknownSymbol, e.Rune)
}

// Unwrap returns ErrUnknownSymbol.
func (e *SymbolError) Unwrap() error {
	return ErrUnknownSymbol
}

// Encode maps a rune to its code.
func Encode(r rune) (int32, error) {
	switch {
	case r == BoundaryRune:
		return Boundary, nil
	case r >= 'a' && r <= 'z':
		return r - 'a' + 1, nil
	default:
		return 0, &SymbolError{Rune: r, Pos: -1}
	}
}

// Decode maps a code back to its rune.
func Decode(code int32) (rune, error) {
	if !Valid(code) {
		return 0, fmt.Errorf("%w %d", ErrInvalidCode, code)
	}
	if code == Boundary {
		return BoundaryRune, nil
	}
	return 'a' + code - 1, nil
}

// Valid reports whether code is in [0, Size).
func Valid(code int32) bool {
	return code >= 0 && code < Size
}

// EncodeWord encodes every letter of word. The boundary symbol is rejected
// inside a word. Errors are *SymbolError.
func EncodeWord(word string) ([]int32, error) {
	codes := make([]int32, 0, len(word))
	for i, r := range word {
		if r == BoundaryRune {
			return nil, &SymbolError{Rune: r, Pos: i}
		}
		c, err := Encode(r)
		if err != nil {
			return nil, &SymbolError{Rune: r, Pos: i}
		}
		codes = append(codes, c)
	}
	return codes, nil
}

// DecodeCodes decodes codes into a string. Boundary codes print as '.'.
func DecodeCodes(codes []int32) (string, error) {
	var sb strings.Builder
	sb.Grow(len(codes))
	for _, c := range codes {
		r, err := Decode(c)
		if err != nil {
			return "", err
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}

// Package corpus turns a newline-delimited word list into fixed-width
// training examples.
//
// Every word is padded with Width boundary symbols in front and one behind.
// Each window of Width+1 consecutive symbols of the padded word is one
// example: the first Width symbols are the context, the last is the target.
// A word of length L therefore yields exactly L+1 examples.
//
// For the word "ab":
//
//	width 1: [0]→1 [1]→2 [2]→0
//	width 3: [0 0 0]→1 [0 0 1]→2 [0 1 2]→0
package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"github.com/born-ml/makemore/internal/vocab"
)

// ReadWords reads one token per line. Surrounding whitespace (including a
// trailing carriage return) is trimmed and blank lines are skipped.
func ReadWords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		w := strings.TrimSpace(scanner.Text())
		if w == "" {
			continue
		}
		words = append(words, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, &IOError{Err: err}
	}
	return words, nil
}

// LoadWords reads the word list at path.
func LoadWords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer f.Close()

	words, err := ReadWords(f)
	if err != nil {
		if ioErr, ok := err.(*IOError); ok {
			ioErr.Path = path
		}
		return nil, err
	}
	return words, nil
}

// Encode builds the dataset for words with the given context width.
//
// Encoding is deterministic: the same words and width always give the same
// dataset, in word order.
func Encode(words []string, width int) (*Dataset, error) {
	if width < 1 {
		return nil, fmt.Errorf("context width must be positive, got %d", width)
	}

	n := 0
	for _, w := range words {
		n += len(w) + 1
	}
	ds := &Dataset{
		Width:    width,
		Contexts: make([]int32, 0, n*width),
		Targets:  make([]int32, 0, n),
	}

	window := make([]int32, width)
	for i, w := range words {
		codes, err := encodeToken(w, i+1)
		if err != nil {
			return nil, err
		}

		for j := range window {
			window[j] = vocab.Boundary
		}
		for _, target := range append(codes, vocab.Boundary) {
			ds.Contexts = append(ds.Contexts, window...)
			ds.Targets = append(ds.Targets, target)
			copy(window, window[1:])
			window[width-1] = target
		}
	}
	return ds, nil
}

// EncodeReader reads words from r and encodes them.
func EncodeReader(r io.Reader, width int) (*Dataset, error) {
	words, err := ReadWords(r)
	if err != nil {
		return nil, err
	}
	return Encode(words, width)
}

func encodeToken(word string, line int) ([]int32, error) {
	codes, err := vocab.EncodeWord(word)
	var symErr *vocab.SymbolError
	if errors.As(err, &symErr) {
		return nil, &EncodingError{Token: word, Line: line, Rune: symErr.Rune}
	}
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// SplitWords shuffles a copy of words and splits it into train, dev and
// test sets. The test set gets whatever the two fractions leave over.
func SplitWords(words []string, rng *rand.Rand, trainFrac, devFrac float64) (train, dev, test []string, err error) {
	if trainFrac <= 0 || devFrac < 0 || trainFrac+devFrac > 1 {
		return nil, nil, nil, fmt.Errorf("invalid split fractions train=%g dev=%g", trainFrac, devFrac)
	}

	shuffled := make([]string, len(words))
	copy(shuffled, words)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n1 := int(trainFrac * float64(len(shuffled)))
	n2 := int((trainFrac + devFrac) * float64(len(shuffled)))
	return shuffled[:n1], shuffled[n1:n2], shuffled[n2:], nil
}

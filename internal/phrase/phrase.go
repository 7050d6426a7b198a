// Package phrase generates recovery phrases and checks recall challenges.
//
// Phrases are illustrative only: words are drawn uniformly from a fixed
// list, repeats are allowed, and nothing is derived from them.
package phrase

import (
	"crypto/subtle"
	"errors"
	"sort"
	"strings"

	"github.com/MrEthical07/provision/internal"
)

const (
	DefaultLength    = 12
	DefaultChallenge = 4
)

var (
	ErrInvalidLength    = errors.New("phrase: invalid length")
	ErrInvalidChallenge = errors.New("phrase: invalid challenge size")
)

// Answer is one recalled word at a 1-indexed position.
type Answer struct {
	Position int    `json:"position"`
	Word     string `json:"word"`
}

// Generate returns n words drawn uniformly from the dictionary.
func Generate(n int) ([]string, error) {
	if n <= 0 || n > 48 {
		return nil, ErrInvalidLength
	}
	words := make([]string, n)
	for i := range words {
		idx, err := internal.RandomIndex(len(wordlist))
		if err != nil {
			return nil, err
		}
		words[i] = wordlist[idx]
	}
	return words, nil
}

// ChoosePositions samples k distinct 1-indexed positions from [1, n]
// without replacement and returns them sorted.
func ChoosePositions(n, k int) ([]int, error) {
	if n <= 0 {
		return nil, ErrInvalidLength
	}
	if k <= 0 || k > n {
		return nil, ErrInvalidChallenge
	}

	pool := make([]int, n)
	for i := range pool {
		pool[i] = i + 1
	}
	// partial Fisher-Yates
	for i := 0; i < k; i++ {
		j, err := internal.RandomIndex(n - i)
		if err != nil {
			return nil, err
		}
		pool[i], pool[i+j] = pool[i+j], pool[i]
	}

	out := append([]int(nil), pool[:k]...)
	sort.Ints(out)
	return out, nil
}

// Normalize trims surrounding whitespace and lowercases w.
func Normalize(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}

// Verify reports whether every answer matches the word at its position.
// An empty answer set never verifies.
func Verify(words []string, answers []Answer) bool {
	if len(answers) == 0 {
		return false
	}
	ok := 1
	for _, a := range answers {
		if a.Position < 1 || a.Position > len(words) {
			return false
		}
		want := Normalize(words[a.Position-1])
		got := Normalize(a.Word)
		ok &= subtle.ConstantTimeCompare([]byte(want), []byte(got))
	}
	return ok == 1
}

// Covers reports whether answers address exactly the given positions,
// each once.
func Covers(positions []int, answers []Answer) bool {
	if len(positions) != len(answers) {
		return false
	}
	want := make(map[int]bool, len(positions))
	for _, p := range positions {
		want[p] = true
	}
	for _, a := range answers {
		if !want[a.Position] {
			return false
		}
		delete(want, a.Position)
	}
	return len(want) == 0
}

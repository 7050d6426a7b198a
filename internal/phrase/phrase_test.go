package phrase

import (
	"strings"
	"testing"
)

func TestGenerateDrawsFromDictionary(t *testing.T) {
	dict := make(map[string]bool, len(wordlist))
	for _, w := range wordlist {
		dict[w] = true
	}

	words, err := Generate(DefaultLength)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(words) != 12 {
		t.Fatalf("expected 12 words, got %d", len(words))
	}
	for _, w := range words {
		if !dict[w] {
			t.Fatalf("word %q not in dictionary", w)
		}
	}
}

func TestGenerateRejectsBadLength(t *testing.T) {
	for _, n := range []int{0, -1, 49} {
		if _, err := Generate(n); err != ErrInvalidLength {
			t.Fatalf("n=%d: expected ErrInvalidLength, got %v", n, err)
		}
	}
}

func TestDictionaryHasNoDuplicates(t *testing.T) {
	seen := make(map[string]bool, len(wordlist))
	for _, w := range wordlist {
		if seen[w] {
			t.Fatalf("duplicate dictionary word %q", w)
		}
		if w != strings.ToLower(strings.TrimSpace(w)) {
			t.Fatalf("dictionary word %q is not normalized", w)
		}
		seen[w] = true
	}
}

func TestChoosePositionsDistinctInRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		pos, err := ChoosePositions(12, 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pos) != 4 {
			t.Fatalf("expected 4 positions, got %v", pos)
		}
		for j, p := range pos {
			if p < 1 || p > 12 {
				t.Fatalf("position out of range: %v", pos)
			}
			if j > 0 && pos[j-1] >= p {
				t.Fatalf("positions must be sorted and distinct: %v", pos)
			}
		}
	}
}

func TestChoosePositionsCoversEveryPosition(t *testing.T) {
	hits := make(map[int]bool)
	for i := 0; i < 500 && len(hits) < 12; i++ {
		pos, _ := ChoosePositions(12, 4)
		for _, p := range pos {
			hits[p] = true
		}
	}
	if len(hits) != 12 {
		t.Fatalf("expected every position to be sampled eventually, got %v", hits)
	}
}

func TestChoosePositionsBounds(t *testing.T) {
	if _, err := ChoosePositions(12, 13); err != ErrInvalidChallenge {
		t.Fatalf("expected ErrInvalidChallenge, got %v", err)
	}
	if _, err := ChoosePositions(0, 1); err != ErrInvalidLength {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
	all, err := ChoosePositions(5, 5)
	if err != nil || len(all) != 5 || all[0] != 1 || all[4] != 5 {
		t.Fatalf("expected full permutation sorted, got %v err=%v", all, err)
	}
}

var testPhrase = []string{
	"apple", "bridge", "cactus", "anchor", "bamboo", "alpha",
	"brave", "cable", "arctic", "album", "bubble", "armor",
}

func TestVerifyAllCorrectNormalized(t *testing.T) {
	answers := []Answer{
		{Position: 2, Word: "  Bridge "},
		{Position: 5, Word: "BAMBOO"},
		{Position: 9, Word: "arctic"},
		{Position: 12, Word: "\tarmor\n"},
	}
	if !Verify(testPhrase, answers) {
		t.Fatal("expected normalized answers to verify")
	}
}

func TestVerifySingleCharacterAltered(t *testing.T) {
	base := []Answer{
		{Position: 2, Word: "bridge"},
		{Position: 5, Word: "bamboo"},
		{Position: 9, Word: "arctic"},
		{Position: 12, Word: "armor"},
	}
	for i := range base {
		for j := range base[i].Word {
			answers := append([]Answer(nil), base...)
			b := []byte(answers[i].Word)
			b[j] = 'z'
			if b[j] == base[i].Word[j] {
				b[j] = 'y'
			}
			answers[i].Word = string(b)
			if Verify(testPhrase, answers) {
				t.Fatalf("altered answer %d char %d must fail: %+v", i, j, answers[i])
			}
		}
	}
}

func TestVerifyRejectsOutOfRangeAndEmpty(t *testing.T) {
	if Verify(testPhrase, nil) {
		t.Fatal("empty answers must fail")
	}
	if Verify(testPhrase, []Answer{{Position: 0, Word: "apple"}}) {
		t.Fatal("position 0 must fail")
	}
	if Verify(testPhrase, []Answer{{Position: 13, Word: "apple"}}) {
		t.Fatal("position 13 must fail")
	}
}

func TestCovers(t *testing.T) {
	pos := []int{2, 5, 9, 12}
	ok := []Answer{{Position: 12}, {Position: 2}, {Position: 9}, {Position: 5}}
	if !Covers(pos, ok) {
		t.Fatal("expected exact coverage")
	}
	if Covers(pos, ok[:3]) {
		t.Fatal("missing answer must not cover")
	}
	dup := []Answer{{Position: 2}, {Position: 2}, {Position: 9}, {Position: 5}}
	if Covers(pos, dup) {
		t.Fatal("duplicate position must not cover")
	}
}

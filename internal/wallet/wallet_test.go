package wallet

import "testing"

func TestNewTagShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tag, err := NewTag()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !Valid(tag) {
			t.Fatalf("invalid tag %q", tag)
		}
		seen[tag] = true
	}
	if len(seen) < 50 {
		t.Fatal("expected distinct tags")
	}
}

func TestFormat(t *testing.T) {
	if got := Format("0123456789ABCDEF"); got != "0123-4567-89AB-CDEF" {
		t.Fatalf("unexpected format %q", got)
	}
	if got := Format("short"); got != "short" {
		t.Fatalf("invalid tag must pass through, got %q", got)
	}
}

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"0123456789ABCDEF":  true,
		"0123456789abcdef":  false,
		"0123456789ABCDEG":  false,
		"0123456789ABCDE":   false,
		"0123456789ABCDEF0": false,
	}
	for in, want := range cases {
		if Valid(in) != want {
			t.Fatalf("Valid(%q) != %v", in, want)
		}
	}
}

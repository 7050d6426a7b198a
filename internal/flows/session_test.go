package flows

import (
	"strings"
	"testing"
)

func hashTag(key string) string {
	start := strings.IndexByte(key, '{')
	if start < 0 {
		return key
	}
	end := strings.IndexByte(key[start+1:], '}')
	if end <= 0 {
		return key
	}
	return key[start+1 : start+1+end]
}

func TestSessionKeysShareHashSlot(t *testing.T) {
	const sid = "0b6f7c1e-2d4a-4f59-9a51-6c0d3e8f1a27"
	record, words := SessionKey(sid), PhraseKey(sid)
	if record == words {
		t.Fatalf("record and phrase keys collide: %q", record)
	}
	if hashTag(record) != sid || hashTag(words) != sid {
		t.Fatalf("keys %q and %q must both be tagged with the sid", record, words)
	}
}

func TestStepPast(t *testing.T) {
	cases := []struct {
		s, other Step
		want     bool
	}{
		{StepCodeVerified, StepCodeSent, true},
		{StepPhraseShown, StepCodeVerified, true},
		{StepCodeSent, StepCodeSent, false},
		{StepCodeSent, StepPhraseShown, false},
		{Step("bogus"), StepCodeSent, false},
	}
	for _, tc := range cases {
		if got := tc.s.Past(tc.other); got != tc.want {
			t.Fatalf("%s.Past(%s) = %v, want %v", tc.s, tc.other, got, tc.want)
		}
	}
}

// Package wallet produces the cosmetic wallet tag shown on a completed
// account. The tag is random and is not derived from, nor recoverable
// from, the recovery phrase.
package wallet

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

const tagLen = 16

// NewTag returns 16 uppercase hex characters.
func NewTag() (string, error) {
	var b [tagLen / 2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b[:])), nil
}

// Format renders a tag as XXXX-XXXX-XXXX-XXXX. Invalid tags are returned
// unchanged.
func Format(tag string) string {
	if !Valid(tag) {
		return tag
	}
	return tag[0:4] + "-" + tag[4:8] + "-" + tag[8:12] + "-" + tag[12:16]
}

// Valid reports whether tag is 16 uppercase hex characters.
func Valid(tag string) bool {
	if len(tag) != tagLen {
		return false
	}
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		if !(c >= '0' && c <= '9') && !(c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

package flows

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/MrEthical07/provision/internal"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SanitizeInput trims s and strips angle brackets.
func SanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.NewReplacer("<", "", ">", "").Replace(s)
}

// CheckEmail sanitizes and lowercases raw and returns it with an empty
// message, or a user-facing message describing the first failed rule.
func CheckEmail(raw, allowedSuffix string) (string, string) {
	email := strings.ToLower(SanitizeInput(raw))
	if email == "" {
		return "", "Email is required"
	}
	if !emailPattern.MatchString(email) {
		return "", "Please enter a valid email address"
	}
	if allowedSuffix != "" && !strings.HasSuffix(email, strings.ToLower(allowedSuffix)) {
		return "", "Only " + strings.TrimPrefix(allowedSuffix, "@") + " email addresses are allowed"
	}
	return email, ""
}

// CheckCode returns a user-facing message when code is not exactly
// digits ASCII digits.
func CheckCode(code string, digits int) string {
	if code == "" {
		return "OTP is required"
	}
	if len(code) != digits {
		return fmt.Sprintf("OTP must be %d digits", digits)
	}
	if !internal.IsNumeric(code) {
		return "OTP must contain only numbers"
	}
	return ""
}

// waitMessage renders a rate-limit wait for users.
func waitMessage(wait time.Duration) string {
	if wait < time.Minute {
		secs := int((wait + time.Second - 1) / time.Second)
		if secs < 1 {
			secs = 1
		}
		return fmt.Sprintf("Please wait %d seconds before requesting another code", secs)
	}
	mins := int((wait + time.Minute - 1) / time.Minute)
	if mins == 1 {
		return "Please wait 1 minute before requesting another code"
	}
	return fmt.Sprintf("Please wait %d minutes before requesting another code", mins)
}

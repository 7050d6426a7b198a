package password

import (
	"errors"
	"strings"
)

// Specials is the set of characters that satisfy the symbol rule.
const Specials = "@$!%*?&"

const minPolicyLength = 8

var (
	ErrTooShort     = errors.New("Password must be at least 8 characters long")
	ErrNoLowercase  = errors.New("Password must contain at least one lowercase letter")
	ErrNoUppercase  = errors.New("Password must contain at least one uppercase letter")
	ErrNoDigit      = errors.New("Password must contain at least one number")
	ErrNoSpecial    = errors.New("Password must contain at least one special character (@$!%*?&)")
	ErrConfirmation = errors.New("Passwords do not match")
)

// CheckPolicy returns every rule password violates, in a stable order.
// Only ASCII letters count toward the case rules. A nil result means the
// password is acceptable.
func CheckPolicy(password string) []error {
	var (
		errs                            []error
		lower, upper, digit, special bool
	)
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(Specials, r):
			special = true
		}
	}

	if len([]rune(password)) < minPolicyLength {
		errs = append(errs, ErrTooShort)
	}
	if !lower {
		errs = append(errs, ErrNoLowercase)
	}
	if !upper {
		errs = append(errs, ErrNoUppercase)
	}
	if !digit {
		errs = append(errs, ErrNoDigit)
	}
	if !special {
		errs = append(errs, ErrNoSpecial)
	}
	return errs
}

// CheckConfirmation runs CheckPolicy and then compares the confirmation.
func CheckConfirmation(password, confirm string) []error {
	errs := CheckPolicy(password)
	if password != confirm {
		errs = append(errs, ErrConfirmation)
	}
	return errs
}

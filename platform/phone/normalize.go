// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultRegion = "GB"
	// MaxDigits is the longest national number accepted by the intake form.
	MaxDigits = 11
	// MinDigits is the shortest national number accepted by the intake form.
	MinDigits = 10
	groupSize = 5
)

// Digits strips every non-digit character.
func Digits(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Mask normalizes a UK phone number the way it is stored: digits only,
// truncated to 11 digits, with a single space after the fifth digit.
// "07911123456" becomes "07911 123456".
func Mask(input string) string {
	digits := Digits(input)
	if len(digits) > MaxDigits {
		digits = digits[:MaxDigits]
	}
	if len(digits) > groupSize {
		return digits[:groupSize] + " " + digits[groupSize:]
	}
	return digits
}

// IsPossibleUK reports whether the input has an acceptable digit count and is
// a possible GB number.
func IsPossibleUK(input string) bool {
	digits := Digits(input)
	if len(digits) < MinDigits || len(digits) > MaxDigits {
		return false
	}

	number, err := phonenumbers.Parse(digits, defaultRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsPossibleNumber(number)
}

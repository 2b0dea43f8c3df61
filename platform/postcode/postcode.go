// Package postcode normalizes UK postcodes entered on the public form.
package postcode

import "strings"

const (
	maxLength  = 7
	inwardSize = 3
	minSpaced  = 5
)

// Normalize uppercases the input, drops everything that is not A-Z or 0-9,
// truncates to seven characters and inserts a space before the final three
// characters once at least five remain. "sw1a1aa" becomes "SW1A 1AA".
func Normalize(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range strings.ToUpper(input) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	value := b.String()
	if len(value) > maxLength {
		value = value[:maxLength]
	}
	if len(value) >= minSpaced {
		split := len(value) - inwardSize
		return value[:split] + " " + value[split:]
	}
	return value
}

// Compact returns the postcode with all whitespace removed and lower-cased,
// the form used for hashing.
func Compact(input string) string {
	return strings.ToLower(strings.Join(strings.Fields(input), ""))
}

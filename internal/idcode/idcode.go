// Package idcode validates and shapes the hexadecimal id codes used as
// taxonomy keys and structured-code fields.
package idcode

import "strings"

// Valid reports whether code is non-empty hexadecimal of the given length.
// A length of zero accepts any non-empty hex string.
func Valid(code string, length int) bool {
	if code == "" {
		return false
	}
	if length > 0 && len(code) != length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !isHex(code[i]) {
			return false
		}
	}
	return true
}

// Normalize trims surrounding space and upper-cases hex letters.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Pad left-pads code with zeros to width. Longer codes are returned unchanged.
func Pad(code string, width int) string {
	if len(code) >= width {
		return code
	}
	return strings.Repeat("0", width-len(code)) + code
}

// Zero returns a filler of width zeros.
func Zero(width int) string {
	return strings.Repeat("0", width)
}

// IsZero reports whether every character of code is '0'.
func IsZero(code string) bool {
	if code == "" {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] != '0' {
			return false
		}
	}
	return true
}

// StripSeparators removes every byte that is not an ASCII letter or digit.
func StripSeparators(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAlnum(c) {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'f':
		return true
	case c >= 'A' && c <= 'F':
		return true
	}
	return false
}

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Package names handles student label parsing and normalization.
package names

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// Normalize normalizes a student name for comparison (lowercase, no diacritics,
// spaces for underscores and dashes).
func Normalize(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.TrimSpace(name)
}

// ParseLabel extracts the student label from an image filename by dropping
// the extension and a trailing numeric disambiguator:
// "Alice_2.jpg" -> "Alice", "Jan_Novak_10.png" -> "Jan_Novak".
// A filename without a disambiguator keeps its full stem: "Bob.jpg" -> "Bob".
func ParseLabel(filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	idx := strings.LastIndex(stem, "_")
	if idx <= 0 {
		return stem
	}

	if isDigits(stem[idx+1:]) {
		return stem[:idx]
	}
	return stem
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letters that carry no combining mark under NFD
var foldReplacer = strings.NewReplacer(
	"ß", "ss",
	"æ", "ae",
	"ø", "o",
	"đ", "d",
	"ł", "l",
	"œ", "oe",
	"ð", "d",
	"þ", "th",
)

// NormalizeName canonicalizes an item or client name so lookups ignore case,
// accents and spacing: "  Café  com Leite" and "cafe com leite" map to the same key.
// It never fails and NormalizeName(NormalizeName(x)) == NormalizeName(x).
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}

	s := strings.ToLower(name)

	// Chain keeps internal buffers, so it is built per call.
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(folder, s); err == nil {
		s = folded
	}
	s = foldReplacer.Replace(s)

	return strings.Join(strings.Fields(s), " ")
}

// DocumentKey is NormalizeName made safe to use as a single store path segment.
func DocumentKey(name string) string {
	return strings.ReplaceAll(NormalizeName(name), "/", "-")
}

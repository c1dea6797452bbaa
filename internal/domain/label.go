package domain

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// localityPrefixes holds first words that commonly start a two-word
// district name in the region, longest first so the most specific wins.
var localityPrefixes = sortedByLength([]string{
	"bojong", "cempaka", "duren", "gunung", "jati", "kebayoran", "kebon",
	"kelapa", "kramat", "mampang", "muara", "pasar", "pondok", "pulo",
	"rawa", "sawah", "setia", "taman", "tanah", "tanjung",
})

var knownPrefix = func() map[string]bool {
	m := make(map[string]bool, len(localityPrefixes))
	for _, p := range localityPrefixes {
		m[p] = true
	}
	return m
}()

func sortedByLength(words []string) []string {
	out := append([]string(nil), words...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// FormatDistrictLabel turns a raw district name such as "pondokgede" or
// "pondokGede" into a display label ("Pondok Gede"). Empty input yields "".
// Formatting an already formatted label returns it unchanged.
func FormatDistrictLabel(raw string) string {
	var words []string
	for _, w := range strings.Fields(insertCamelSpaces(raw)) {
		words = append(words, splitLocality(strings.ToLower(w))...)
	}
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

// insertCamelSpaces puts a space before every lower-to-upper case transition.
func insertCamelSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	prev := rune(0)
	for _, r := range s {
		if unicode.IsUpper(r) && unicode.IsLower(prev) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// splitLocality splits a lower-case word after a known prefix when the
// remainder is itself a prefix or longer than three characters. The
// remainder is split again so the result is stable under reformatting.
func splitLocality(word string) []string {
	for _, p := range localityPrefixes {
		rest, ok := strings.CutPrefix(word, p)
		if !ok || rest == "" {
			continue
		}
		if knownPrefix[rest] || utf8.RuneCountInString(rest) > 3 {
			return append([]string{p}, splitLocality(rest)...)
		}
	}
	return []string{word}
}

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(word[size:])
}

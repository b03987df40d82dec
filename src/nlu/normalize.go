package nlu

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeDigits keeps only the digits of raw. A single trailing terminator
// (e.g. "#") is dropped first so it never leaks into the value.
func NormalizeDigits(raw, terminator string) string {
	s := strings.TrimSpace(raw)
	if terminator != "" {
		s = strings.TrimSuffix(s, terminator)
	}
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeSpeech lower-cases, strips diacritics and punctuation and collapses
// whitespace.
func NormalizeSpeech(raw string) string {
	return strings.Join(Tokens(raw), " ")
}

// Tokens returns the normalized words of raw
func Tokens(raw string) []string {
	s := StripDiacritics(strings.ToLower(raw))
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// StripDiacritics removes combining marks, e.g. "ubicación" -> "ubicacion"
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

var digitWords = map[string]string{
	"cero":   "0",
	"uno":    "1",
	"un":     "1",
	"una":    "1",
	"dos":    "2",
	"tres":   "3",
	"cuatro": "4",
	"cinco":  "5",
	"seis":   "6",
	"siete":  "7",
	"ocho":   "8",
	"nueve":  "9",
}

// SpokenDigits turns a transcript made only of digits and Spanish digit
// words into a digit string. Anything else yields "".
func SpokenDigits(raw string) string {
	tokens := Tokens(raw)
	if len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	for _, tok := range tokens {
		if d, ok := digitWords[tok]; ok {
			b.WriteString(d)
			continue
		}
		if strings.Trim(tok, "0123456789") != "" {
			return ""
		}
		b.WriteString(tok)
	}
	return b.String()
}

package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// fold case-folds s. Casers are stateful, so one is built per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Cell trims surrounding whitespace (NBSP included) and composes Hangul
// jamo that some exporters emit decomposed.
func Cell(s string) string {
	return strings.TrimFunc(norm.NFC.String(s), unicode.IsSpace)
}

// Header folds a header cell into its lookup form: width-normalized,
// case-folded, with every whitespace, '_' and '-' removed.
// "Contact_Name", "contact-name" and " CONTACT NAME " all become "contactname".
func Header(s string) string {
	s = fold(norm.NFKC.String(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '_' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Name normalizes a free-text natural key such as a manufacturer name:
// trimmed, inner whitespace runs collapsed to one space, case-folded.
func Name(s string) string {
	return fold(strings.Join(strings.Fields(norm.NFKC.String(s)), " "))
}

// Code normalizes a code-like natural key such as a product code: all
// whitespace dropped, case-folded.
func Code(s string) string {
	s = fold(norm.NFKC.String(s))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// IsBlank reports whether every cell of row is empty after trimming.
func IsBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimFunc(c, unicode.IsSpace) != "" {
			return false
		}
	}
	return true
}

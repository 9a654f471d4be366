package parts

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a scanned identifier: surrounding whitespace is
// trimmed, then the text is NFC normalized and upper-cased.
func Normalize(id string) string {
	// A Caser is stateful and must not be shared between goroutines.
	return cases.Upper(language.Und).String(norm.NFC.String(strings.TrimSpace(id)))
}
